package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/showwatch/internal/classify"
	"github.com/hamed0406/showwatch/internal/domain"
	"github.com/hamed0406/showwatch/internal/metrics"
	"github.com/hamed0406/showwatch/internal/probe"
	"github.com/hamed0406/showwatch/internal/repo/memory"
)

// --- fakes ---

type pageFetcher struct {
	mu    sync.Mutex
	calls int
	pages map[string]*probe.Response
}

func (f *pageFetcher) Fetch(ctx context.Context, url string) (*probe.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	r, ok := f.pages[url]
	if !ok {
		return nil, errors.New("dial tcp: connection refused")
	}
	cp := *r
	return &cp, nil
}

const bookingPage = `<html><body>
<h1>Coolie (Tamil)</h1>
<div class="cinema-card"><h3 class="cinema-name">PVR Centro Mall</h3>
<span>Screen 3</span><a>Book Now</a><ul><li>6:45 PM</li><li>9:30 PM</li></ul></div>
</body></html>`

func newWatcherFixture(t *testing.T, fetcher probe.Fetcher, sites ...domain.Site) (*Watcher, *memory.Store) {
	t.Helper()
	store := memory.New()
	for i := range sites {
		if err := store.Upsert(context.Background(), &sites[i]); err != nil {
			t.Fatal(err)
		}
	}
	w := NewWatcher(zap.NewNop(), store, store, fetcher, metrics.New(), 2*time.Millisecond, time.Second, 2)
	w.DNSClass = func(ctx context.Context, url string) string { return probe.DNSNXDomain }
	return w, store
}

// --- tests ---

func TestWatcher_CheckSite_Bookable(t *testing.T) {
	site := domain.Site{ID: "district", URL: "https://example.com/coolie", Subject: "coolie", Targets: []string{"PVR Centro Mall", "INOX Forum"}}
	f := &pageFetcher{pages: map[string]*probe.Response{
		site.URL: {URL: site.URL, StatusCode: 200, Body: bookingPage, LatencyMS: 12},
	}}
	w, store := newWatcherFixture(t, f, site)

	cr, err := w.CheckSite(context.Background(), site)
	if err != nil {
		t.Fatalf("CheckSite: %v", err)
	}
	if !cr.Fetched || !cr.Bookable {
		t.Fatalf("expected bookable result, got %+v", cr)
	}
	if len(cr.Matches) != 1 || cr.Matches[0].Status != classify.StatusOpen {
		t.Fatalf("unexpected matches %+v", cr.Matches)
	}
	if strings.Join(cr.Showtimes, ",") != "6:45 pm,9:30 pm" {
		t.Fatalf("showtimes = %v", cr.Showtimes)
	}

	last, _ := store.LastBySite(context.Background(), "district")
	if last == nil || !last.Bookable {
		t.Fatalf("result not stored: %+v", last)
	}
}

func TestWatcher_CheckSite_HTTPError(t *testing.T) {
	site := domain.Site{ID: "paytm", URL: "https://example.com/blocked", Subject: "coolie", Targets: []string{"PVR Centro Mall"}}
	f := &pageFetcher{pages: map[string]*probe.Response{
		site.URL: {URL: site.URL, StatusCode: 403, Body: "Coolie PVR Centro Mall 6:45 PM"},
	}}
	w, _ := newWatcherFixture(t, f, site)

	cr, err := w.CheckSite(context.Background(), site)
	if err != nil {
		t.Fatalf("CheckSite: %v", err)
	}
	if cr.Fetched || cr.Bookable || cr.HTTPStatus != 403 || cr.Reason != "http status 403" {
		t.Fatalf("unexpected result %+v", cr)
	}
}

func TestWatcher_CheckSite_TransportErrorAddsDNS(t *testing.T) {
	site := domain.Site{ID: "gone", URL: "https://nowhere.invalid/", Subject: "coolie", Targets: []string{"PVR Centro Mall"}}
	w, _ := newWatcherFixture(t, &pageFetcher{}, site)

	cr, err := w.CheckSite(context.Background(), site)
	if err != nil {
		t.Fatalf("CheckSite: %v", err)
	}
	if cr.Fetched || !strings.Contains(cr.Reason, "dns: NXDOMAIN") {
		t.Fatalf("unexpected reason %q", cr.Reason)
	}
}

func TestWatcher_RunLoop_ChecksEverySite(t *testing.T) {
	sites := []domain.Site{
		{ID: "a", URL: "https://a.example.com", Subject: "coolie", Targets: []string{"PVR Centro Mall"}},
		{ID: "b", URL: "https://b.example.com", Subject: "coolie", Targets: []string{"PVR Centro Mall"}},
	}
	f := &pageFetcher{pages: map[string]*probe.Response{
		"https://a.example.com": {StatusCode: 200, Body: bookingPage},
		"https://b.example.com": {StatusCode: 200, Body: "<p>Coolie releasing soon</p>"},
	}}
	w, store := newWatcherFixture(t, f, sites...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for {
		latest, _ := store.Latest(context.Background())
		if len(latest) == 2 {
			if !latest[0].Bookable || latest[1].Bookable {
				t.Fatalf("unexpected latest rows %+v", latest)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected results for both sites, got %d", len(latest))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWatcher_DisabledInterval(t *testing.T) {
	w, _ := newWatcherFixture(t, &pageFetcher{})
	w.Interval = 0
	done := make(chan struct{})
	go func() {
		w.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run should return immediately when disabled")
	}
}

func TestWatcher_ReusesClassifierUntilRulesChange(t *testing.T) {
	w, _ := newWatcherFixture(t, &pageFetcher{})
	site := domain.Site{ID: "district", Subject: "coolie", Targets: []string{"PVR Centro Mall"}}

	first := w.classifierFor(site)
	if again := w.classifierFor(site); again != first {
		t.Fatalf("classifier rebuilt for unchanged rules")
	}

	site.Rules = classify.Rules{ProximityAfter: 800}
	changed := w.classifierFor(site)
	if changed == first {
		t.Fatalf("classifier not rebuilt after rules changed")
	}
	if again := w.classifierFor(site); again != changed {
		t.Fatalf("classifier rebuilt again for the same rules")
	}

	other := domain.Site{ID: "paytm", Subject: "coolie", Targets: []string{"INOX Forum"}}
	if w.classifierFor(other) == changed {
		t.Fatalf("sites must not share a cache entry")
	}
}
