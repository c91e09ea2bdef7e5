package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	resty "resty.dev/v3"
)

const (
	defaultTimeout = 1 * time.Minute

	headerAppSecretToken      = "X-AppSecretToken"
	headerAgreementGrantToken = "X-AgreementGrantToken"
)

type Client interface {
	ExecuteRequest(ctx context.Context, method, url string, values url.Values, result any) (*resty.Response, error)
	ExecuteRaw(ctx context.Context, method, url string, values url.Values) (*resty.Response, error)
}

type BaseClient struct {
	resty               *resty.Client
	retry               RetryPolicy
	errorUnmarshallerFn func(r *resty.Response) error
}

type Option func(*BaseClient)

func New(baseURL string, httpClient *http.Client, opts ...Option) *BaseClient {
	c := &BaseClient{
		retry: DefaultRetryPolicy(),
	}
	c.resty = resty.NewWithClient(httpClient).
		SetBaseURL(baseURL).
		SetTimeout(defaultTimeout).
		SetHeader("Content-Type", "application/json").
		AddResponseMiddleware(func(_ *resty.Client, r *resty.Response) error {
			startTime := r.Request.Time
			endTime := r.ReceivedAt()

			req := r.Request
			zerolog.Ctx(req.Context()).Debug().
				Str("http.url", req.URL).
				Str("http.method", req.Method).
				Err(r.Err).
				Dur("http.duration_ms", endTime.Sub(startTime)).
				Int("http.status_code", r.StatusCode()).
				Msg("performed HTTP request")
			return nil
		})

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		opt(c)
	}

	c.resty.
		SetRetryCount(max(c.retry.MaxAttempts-1, 0)).
		AddRetryConditions(func(r *resty.Response, err error) bool {
			return err != nil || (r != nil && c.retry.Retryable(r.StatusCode()))
		}).
		SetRetryStrategy(func(r *resty.Response, _ error) (time.Duration, error) {
			attempt := 1
			retryAfter := ""

			if r != nil {
				attempt = r.Request.Attempt
				retryAfter = r.Header().Get("Retry-After")
			}

			return c.retry.Delay(attempt, retryAfter), nil
		})

	return c
}

// WithAuthTokens attaches the two platform tokens to every request.
func WithAuthTokens(appSecretToken, agreementGrantToken string) Option {
	return func(c *BaseClient) {
		c.resty.
			SetHeader(headerAppSecretToken, appSecretToken).
			SetHeader(headerAgreementGrantToken, agreementGrantToken)
	}
}

func WithBaseURL(url string) Option {
	return func(c *BaseClient) {
		c.resty.SetBaseURL(url)
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *BaseClient) {
		if timeout > 0 {
			c.resty.SetTimeout(timeout)
		}
	}
}

func WithRetryPolicy(policy RetryPolicy) Option {
	return func(c *BaseClient) {
		c.retry = policy
		c.resty.SetRetryCount(max(policy.MaxAttempts-1, 0))
	}
}

func WithErrorUnmarshaller(unmarshallerFn func(r *resty.Response) error) Option {
	return func(c *BaseClient) {
		c.errorUnmarshallerFn = unmarshallerFn
	}
}

func (c *BaseClient) ExecuteRequest(ctx context.Context, method, url string, values url.Values, result any) (*resty.Response, error) {
	req := c.resty.R().
		SetContext(ctx).
		SetResult(result).
		SetUnescapeQueryParams(false).
		SetQueryParamsFromValues(values)

	return c.execute(req, method, url)
}

// ExecuteRaw issues a request without JSON decoding; the response body is
// available as raw bytes, e.g. for PDF downloads.
func (c *BaseClient) ExecuteRaw(ctx context.Context, method, url string, values url.Values) (*resty.Response, error) {
	req := c.resty.R().
		SetContext(ctx).
		SetUnescapeQueryParams(false).
		SetQueryParamsFromValues(values)

	return c.execute(req, method, url)
}

func (c *BaseClient) execute(req *resty.Request, method, url string) (*resty.Response, error) {
	resp, err := req.Execute(method, url)
	if err != nil {
		return resp, fmt.Errorf("%s %s failed: %w", method, url, err)
	}

	if resp.IsError() {
		// A retryable status at this point means the budget is spent.
		if c.retry.Retryable(resp.StatusCode()) {
			return nil, &RetryExhaustedError{
				Status:   resp.StatusCode(),
				Body:     resp.Bytes(),
				Attempts: max(c.retry.MaxAttempts, 1),
			}
		}

		if c.errorUnmarshallerFn != nil {
			return nil, c.errorUnmarshallerFn(resp)
		}

		return nil, fmt.Errorf("HTTP request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return resp, nil
}
