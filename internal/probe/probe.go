package probe

import (
	"context"
	"net/http"
)

// Response is one fetched page. Body is decoded to UTF-8.
type Response struct {
	URL         string
	StatusCode  int
	Body        string
	ContentType string
	LatencyMS   float64
}

// OK reports whether the page can be classified.
func (r *Response) OK() bool { return r != nil && r.StatusCode == http.StatusOK }

// Fetcher retrieves a page. A non-nil error means no HTTP response was
// obtained; HTTP error statuses come back as a Response.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

// Retryable reports whether a status is worth another attempt: the page
// may be throttled (403/429) or the origin temporarily failing.
func Retryable(status int) bool {
	return status == http.StatusForbidden || status == http.StatusTooManyRequests || status >= 500
}
