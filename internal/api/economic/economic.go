package economic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mbjorn/econgrab/internal/api"
	"github.com/rs/zerolog"
	resty "resty.dev/v3"
)

const (
	prodAPI = "https://apis.e-conomic.com"

	invoiceLinesRoute        = "/q2capi/v4.0.0/invoices/booked/lines"
	bookedEntriesRoute       = "/bookedEntriesapi/v3.1.0/booked-entries"
	attachedDocumentsRoute   = "/documentsapi/v1.0.1/AttachedDocuments"
	attachedDocumentRoute    = attachedDocumentsRoute + "/%d"
	attachedDocumentPDFRoute = attachedDocumentsRoute + "/%d/pdf"
	pagedDocumentsRoute      = attachedDocumentsRoute + "/paged"

	maxPageSize = 100
)

type Client interface {
	FetchInvoiceLines(ctx context.Context, opts FetchOptions, fn ItemFunc) error
	FetchBookedEntries(ctx context.Context, opts FetchOptions, fn ItemFunc) error
	FetchDocuments(ctx context.Context, opts FetchOptions, fn ItemFunc) error
	FetchDocument(ctx context.Context, documentNumber int) (json.RawMessage, error)
	FetchDocumentPDF(ctx context.Context, documentNumber int) ([]byte, error)
}

var _ Client = (*client)(nil)

type client struct {
	api *api.BaseClient
}

type Option func(*client)

func New(httpClient *http.Client, opts ...Option) *client {
	c := &client{
		api: api.New(
			prodAPI,
			httpClient,
			api.WithErrorUnmarshaller(func(r *resty.Response) error {
				return UnmarshalError(r.StatusCode(), r.Bytes())
			}),
		),
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		opt(c)
	}

	return c
}

func WithAuthTokens(appSecretToken, agreementGrantToken string) Option {
	return func(c *client) {
		api.WithAuthTokens(appSecretToken, agreementGrantToken)(c.api)
	}
}

func WithBaseURL(baseURL string) Option {
	return func(c *client) {
		api.WithBaseURL(baseURL)(c.api)
	}
}

func WithRetryPolicy(policy api.RetryPolicy) Option {
	return func(c *client) {
		api.WithRetryPolicy(policy)(c.api)
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *client) {
		api.WithTimeout(timeout)(c.api)
	}
}

// FetchOptions configures one paginated fetch.
type FetchOptions struct {
	Filter   string
	PageSize int
}

func (fo *FetchOptions) Validate(ctx context.Context) error {
	return validation.ValidateStructWithContext(ctx, fo,
		validation.Field(&fo.PageSize, validation.Min(0).Error("page size must be non-negative"), validation.Max(maxPageSize).Error(fmt.Sprintf("page size must be at most %d", maxPageSize))),
	)
}

func (c *client) FetchInvoiceLines(ctx context.Context, opts FetchOptions, fn ItemFunc) error {
	return c.fetchAll(ctx, invoiceLinesRoute, opts, fn)
}

func (c *client) FetchBookedEntries(ctx context.Context, opts FetchOptions, fn ItemFunc) error {
	return c.fetchAll(ctx, bookedEntriesRoute, opts, fn)
}

func (c *client) FetchDocuments(ctx context.Context, opts FetchOptions, fn ItemFunc) error {
	return c.fetchAll(ctx, pagedDocumentsRoute, opts, fn)
}

func (c *client) FetchDocument(ctx context.Context, documentNumber int) (json.RawMessage, error) {
	var result json.RawMessage

	url := fmt.Sprintf(attachedDocumentRoute, documentNumber)

	_, err := c.api.ExecuteRequest(ctx, http.MethodGet, url, nil, &result)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document #%d: %w", documentNumber, err)
	}

	return result, nil
}

func (c *client) FetchDocumentPDF(ctx context.Context, documentNumber int) ([]byte, error) {
	url := fmt.Sprintf(attachedDocumentPDFRoute, documentNumber)

	resp, err := c.api.ExecuteRaw(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch PDF for document #%d: %w", documentNumber, err)
	}

	return resp.Bytes(), nil
}

// fetchAll walks a collection endpoint page by page, handing every item to fn
// before the next page is requested. Only one page is held in memory.
func (c *client) fetchAll(ctx context.Context, route string, opts FetchOptions, fn ItemFunc) error {
	if err := opts.Validate(ctx); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	if opts.PageSize == 0 {
		opts.PageSize = maxPageSize
	}

	baseValues := url.Values{}
	baseValues.Set("pageSize", strconv.Itoa(opts.PageSize))

	if opts.Filter != "" {
		baseValues.Set("filter", opts.Filter)
	}

	requestURL := route
	values := baseValues
	pageNum := 0

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to fetch %s: %w", route, ctx.Err())
		default:
		}

		pageNum++

		var pg page

		_, err := c.api.ExecuteRequest(ctx, http.MethodGet, requestURL, values, &pg)
		if err != nil {
			var apiErr Error
			var exhausted *api.RetryExhaustedError

			if errors.As(err, &apiErr) || errors.As(err, &exhausted) {
				return fmt.Errorf("failed to fetch page %d of %s: %w", pageNum, route, err)
			}

			return &FetchError{Endpoint: route, Page: pageNum, Err: err}
		}

		if !pg.valid() {
			return &FetchError{Endpoint: route, Page: pageNum, Err: errors.New("response has no collection")}
		}

		zerolog.Ctx(ctx).Debug().
			Str("endpoint", route).
			Int("page", pageNum).
			Int("page.items", len(pg.items())).
			Msg("fetched page")

		for _, item := range pg.items() {
			if err := fn(item); err != nil {
				return err
			}
		}

		switch {
		case pg.Pagination.NextPage != "":
			// The next-page link is self-contained; no query parameters
			// are re-applied.
			requestURL = pg.Pagination.NextPage
			values = nil
		case pg.Cursor != "":
			// Legacy cursor token, re-applied to the original endpoint
			// alongside the original filter.
			values = url.Values{}
			for key, vals := range baseValues {
				values[key] = vals
			}

			values.Set("cursor", pg.Cursor)
			requestURL = route
		default:
			return nil
		}
	}
}
