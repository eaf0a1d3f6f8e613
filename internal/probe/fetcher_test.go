package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestHTTPFetcher_StatusOK(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Errorf("missing user agent")
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(200)
		w.Write([]byte("<html><body>Coolie</body></html>"))
	}))
	defer s.Close()

	f := NewHTTPFetcher(2*time.Second, 0, 1)
	out, err := f.Fetch(context.Background(), s.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !out.OK() {
		t.Fatalf("want 200, got %d", out.StatusCode)
	}
	if !strings.Contains(out.Body, "Coolie") {
		t.Fatalf("unexpected body %q", out.Body)
	}
	if out.LatencyMS < 0 {
		t.Fatalf("latency should be >= 0, got %f", out.LatencyMS)
	}
}

func TestHTTPFetcher_DecodesCharset(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		w.Write([]byte("<p>Caf\xe9</p>"))
	}))
	defer s.Close()

	out, err := NewHTTPFetcher(2*time.Second, 0, 1).Fetch(context.Background(), s.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !strings.Contains(out.Body, "Café") {
		t.Fatalf("want decoded body, got %q", out.Body)
	}
}

func TestHTTPFetcher_Status500IsResponse(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", 500)
	}))
	defer s.Close()

	out, err := NewHTTPFetcher(2*time.Second, 0, 1).Fetch(context.Background(), s.URL)
	if err != nil {
		t.Fatalf("want response, got error %v", err)
	}
	if out.OK() || out.StatusCode != 500 {
		t.Fatalf("want status 500, got %d", out.StatusCode)
	}
}

func TestHTTPFetcher_TimeoutIsError(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(200)
	}))
	defer s.Close()

	out, err := NewHTTPFetcher(50*time.Millisecond, 0, 1).Fetch(context.Background(), s.URL)
	if err == nil {
		t.Fatalf("want timeout error, got %+v", out)
	}
}

func TestHTTPFetcher_RotatesUserAgents(t *testing.T) {
	var (
		mu   sync.Mutex
		seen = map[string]bool{}
	)
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen[r.Header.Get("User-Agent")] = true
		mu.Unlock()
	}))
	defer s.Close()

	f := NewHTTPFetcher(2*time.Second, 0, 1)
	f.UserAgents = []string{"ua-1", "ua-2"}
	for i := 0; i < 4; i++ {
		if _, err := f.Fetch(context.Background(), s.URL); err != nil {
			t.Fatalf("fetch: %v", err)
		}
	}
	if !seen["ua-1"] || !seen["ua-2"] || len(seen) != 2 {
		t.Fatalf("unexpected user agents: %v", seen)
	}
}

func TestHTTPFetcher_InvalidURL(t *testing.T) {
	if _, err := NewHTTPFetcher(time.Second, 0, 1).Fetch(context.Background(), "not a url"); err == nil {
		t.Fatalf("want error for invalid url")
	}
}

func TestHTTPFetcher_RateLimitHonoursContext(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer s.Close()

	f := NewHTTPFetcher(time.Second, 0.01, 1) // one request per 100s
	if _, err := f.Fetch(context.Background(), s.URL); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := f.Fetch(ctx, s.URL); err == nil {
		t.Fatalf("want rate limit error on second fetch")
	}
}
