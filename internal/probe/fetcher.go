package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 8 << 20

// DefaultUserAgents are rotated across requests.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
}

type HTTPFetcher struct {
	Client     *http.Client
	UserAgents []string

	// per-host request pacing; zero PerHost disables it
	PerHost rate.Limit
	Burst   int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	next     atomic.Uint64
}

func NewHTTPFetcher(timeout time.Duration, perHost rate.Limit, burst int) *HTTPFetcher {
	if burst < 1 {
		burst = 1
	}
	return &HTTPFetcher{
		Client:     &http.Client{Timeout: timeout},
		UserAgents: DefaultUserAgents,
		PerHost:    perHost,
		Burst:      burst,
		limiters:   make(map[string]*rate.Limiter),
	}
}

func (h *HTTPFetcher) limiter(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.limiters == nil {
		h.limiters = make(map[string]*rate.Limiter)
	}
	l, ok := h.limiters[host]
	if !ok {
		l = rate.NewLimiter(h.PerHost, h.Burst)
		h.limiters[host] = l
	}
	return l
}

func (h *HTTPFetcher) userAgent() string {
	if len(h.UserAgents) == 0 {
		return DefaultUserAgents[0]
	}
	n := h.next.Add(1) - 1
	return h.UserAgents[n%uint64(len(h.UserAgents))]
}

func (h *HTTPFetcher) Fetch(ctx context.Context, target string) (*Response, error) {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid url %q", target)
	}
	if h.PerHost > 0 {
		if err := h.limiter(u.Host).Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", h.userAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-IN,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")

	start := time.Now()
	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http fetch: %w", err)
	}
	defer resp.Body.Close()

	out := &Response{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}
	body, err := readBody(resp.Body, out.ContentType)
	out.LatencyMS = time.Since(start).Seconds() * 1000
	if err != nil {
		return out, fmt.Errorf("read response body: %w", err)
	}
	out.Body = body
	return out, nil
}

// readBody decodes the body using the declared or sniffed charset.
func readBody(r io.Reader, contentType string) (string, error) {
	limited := io.LimitReader(r, maxBodyBytes)
	decoded, err := charset.NewReader(limited, contentType)
	if err != nil {
		return "", err
	}
	b, err := io.ReadAll(decoded)
	return string(b), err
}
