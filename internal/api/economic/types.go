package economic

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ItemFunc receives one resource item at a time, in server order. Returning
// an error stops the fetch.
type ItemFunc func(item json.RawMessage) error

// page is the collection envelope. The current APIs return a "collection"
// array with a self-contained "pagination.nextPage" link; older ones return
// "items" plus a top-level "cursor" token. Both are accepted.
type page struct {
	Collection []json.RawMessage `json:"collection"`
	Items      []json.RawMessage `json:"items"`
	Cursor     string            `json:"cursor"`
	Pagination struct {
		NextPage string `json:"nextPage"`
	} `json:"pagination"`
}

func (p *page) items() []json.RawMessage {
	if p.Collection != nil {
		return p.Collection
	}

	return p.Items
}

func (p *page) valid() bool {
	return p.Collection != nil || p.Items != nil
}

// Error is the platform's error envelope for non-2xx responses.
type Error struct {
	HTTPStatus    int    `json:"httpStatusCode"`
	Message       string `json:"message"`
	ErrorCode     string `json:"errorCode"`
	DeveloperHint string `json:"developerHint"`
	LogID         string `json:"logId"`
}

func (err Error) Error() string {
	var sb strings.Builder

	if err.Message != "" {
		sb.WriteString(err.Message)
		sb.WriteString(" ")
	}

	if err.DeveloperHint != "" {
		sb.WriteString("[")
		sb.WriteString(err.DeveloperHint)
		sb.WriteString("] ")
	}

	if err.HTTPStatus != 0 {
		sb.WriteString("(http status=")
		sb.WriteString(strconv.Itoa(err.HTTPStatus))
		sb.WriteString(")")
	}

	return strings.TrimSpace(sb.String())
}

func UnmarshalError(status int, body []byte) error {
	if len(body) != 0 {
		apiError := Error{}
		if err := json.Unmarshal(body, &apiError); err == nil && (apiError.Message != "" || apiError.ErrorCode != "") {
			apiError.HTTPStatus = status
			return apiError
		}

		// Non-JSON bodies (e.g. an HTML page from a proxy) are surfaced
		// verbatim rather than swallowed.
		return Error{
			HTTPStatus: status,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	return Error{
		HTTPStatus: status,
		Message:    "unknown",
	}
}

// FetchError reports a malformed or unexpected response partway through a
// paginated fetch.
type FetchError struct {
	Endpoint string
	Page     int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s (page %d): %s", e.Endpoint, e.Page, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
