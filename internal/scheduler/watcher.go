package scheduler

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/showwatch/internal/classify"
	"github.com/hamed0406/showwatch/internal/domain"
	"github.com/hamed0406/showwatch/internal/metrics"
	"github.com/hamed0406/showwatch/internal/probe"
	"github.com/hamed0406/showwatch/internal/repo"
)

type Watcher struct {
	Logger      *zap.Logger
	Sites       repo.SiteStore
	Results     repo.ResultStore
	Fetcher     probe.Fetcher
	Metrics     *metrics.Metrics
	Interval    time.Duration
	Timeout     time.Duration
	Concurrency int

	// DNSClass explains transport failures; defaults to probe.DNSClass.
	DNSClass func(ctx context.Context, url string) string

	mu          sync.Mutex
	classifiers map[domain.SiteID]siteClassifier
}

// siteClassifier is a site's Classifier with the rules it was built from.
type siteClassifier struct {
	rules classify.Rules
	c     *classify.Classifier
}

func NewWatcher(
	logger *zap.Logger,
	sites repo.SiteStore,
	results repo.ResultStore,
	fetcher probe.Fetcher,
	m *metrics.Metrics,
	interval time.Duration,
	timeout time.Duration,
	concurrency int,
) *Watcher {
	if concurrency < 1 {
		concurrency = 1
	}
	if interval < 0 {
		interval = 0
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Watcher{
		Logger:      logger,
		Sites:       sites,
		Results:     results,
		Fetcher:     fetcher,
		Metrics:     m,
		Interval:    interval,
		Timeout:     timeout,
		Concurrency: concurrency,
		DNSClass:    probe.DNSClass,
		classifiers: make(map[domain.SiteID]siteClassifier),
	}
}

// classifierFor reuses the site's Classifier until its rules change.
func (w *Watcher) classifierFor(s domain.Site) *classify.Classifier {
	w.mu.Lock()
	defer w.mu.Unlock()
	if sc, ok := w.classifiers[s.ID]; ok && reflect.DeepEqual(sc.rules, s.Rules) {
		return sc.c
	}
	c := classify.New(s.Rules)
	if w.classifiers == nil {
		w.classifiers = make(map[domain.SiteID]siteClassifier)
	}
	w.classifiers[s.ID] = siteClassifier{rules: s.Rules, c: c}
	return c
}

// Run starts the loop. It does an immediate pass, then runs each tick.
// Stops when ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	if w.Interval == 0 {
		// disabled
		w.Logger.Info("watcher_disabled")
		return
	}
	t := time.NewTicker(w.Interval)
	defer t.Stop()

	// immediate pass
	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("watcher_stopped")
			return
		case <-t.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce checks every site once, at most Concurrency at a time.
func (w *Watcher) RunOnce(ctx context.Context) {
	sites, err := w.Sites.List(ctx)
	if err != nil {
		w.Logger.Warn("watcher_list_error", zap.Error(err))
		return
	}
	if len(sites) == 0 {
		return
	}

	sem := make(chan struct{}, w.Concurrency)
	var wg sync.WaitGroup

	for _, site := range sites {
		sem <- struct{}{}
		wg.Add(1)
		go func(s domain.Site) {
			defer func() { <-sem }()
			defer wg.Done()
			if _, err := w.CheckSite(ctx, s); err != nil {
				w.Logger.Warn("watcher_append_error",
					zap.String("site_id", string(s.ID)),
					zap.String("url", s.URL),
					zap.Error(err),
				)
			}
		}(site)
	}

	wg.Wait()
}

// CheckSite fetches, parses and classifies one site and stores the result.
// The returned error only reports a failure to store it; fetch problems are
// recorded in the result itself.
func (w *Watcher) CheckSite(ctx context.Context, s domain.Site) (*domain.CheckResult, error) {
	cctx, cancel := context.WithTimeout(ctx, w.Timeout)
	defer cancel()

	cr := &domain.CheckResult{SiteID: s.ID, URL: s.URL}
	resp, err := w.Fetcher.Fetch(cctx, s.URL)
	if resp != nil {
		cr.HTTPStatus = resp.StatusCode
		cr.LatencyMS = resp.LatencyMS
	}

	switch {
	case err != nil:
		cr.Reason = err.Error()
		if w.DNSClass != nil && resp == nil {
			cr.Reason += " (dns: " + w.DNSClass(ctx, s.URL) + ")"
		}
	case !resp.OK():
		cr.Reason = fmt.Sprintf("http status %d", resp.StatusCode)
	default:
		page, perr := classify.ParseHTML(strings.NewReader(resp.Body))
		if perr != nil {
			// still classify the raw text
			page = classify.TextPage(resp.Body)
		}
		res := w.classifierFor(s).Classify(page, s.Targets, s.Subject)
		cr.Fetched = true
		cr.Apply(res)
		cr.Reason = res.Summary()
	}
	cr.CheckedAt = time.Now().UTC()

	w.Metrics.ObserveCheck(*cr)
	w.Logger.Debug("watcher_checked",
		zap.String("site_id", string(s.ID)),
		zap.String("url", s.URL),
		zap.Int("status", cr.HTTPStatus),
		zap.Bool("fetched", cr.Fetched),
		zap.Bool("bookable", cr.Bookable),
		zap.Strings("showtimes", cr.Showtimes),
		zap.Float64("latency_ms", cr.LatencyMS),
		zap.String("reason", cr.Reason),
	)
	if cr.Bookable {
		w.Logger.Info("watcher_bookable",
			zap.String("site_id", string(s.ID)),
			zap.Strings("showtimes", cr.Showtimes),
		)
	}

	if err := w.Results.Append(ctx, cr); err != nil {
		return cr, fmt.Errorf("append result: %w", err)
	}
	return cr, nil
}
