package scheduler

import (
	"context"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/showwatch/internal/classify"
	"github.com/hamed0406/showwatch/internal/domain"
	"github.com/hamed0406/showwatch/internal/metrics"
	"github.com/hamed0406/showwatch/internal/notify"
	"github.com/hamed0406/showwatch/internal/repo"
)

type AlerterConfig struct {
	AlertOnOpeningSoon bool
	Cooldown           time.Duration
	PollInterval       time.Duration
}

// Alerter turns status changes in the latest results into notifications.
// What was already announced lives in the AlertStore, keyed per site and
// screen, so restarts do not re-alert.
type Alerter struct {
	logger   *zap.Logger
	sites    repo.SiteStore
	results  repo.ResultStore
	alertDB  repo.AlertStore
	notifier notify.Notifier
	metrics  *metrics.Metrics
	cfg      AlerterConfig
	now      func() time.Time
}

func NewAlerter(
	logger *zap.Logger,
	sites repo.SiteStore,
	results repo.ResultStore,
	alertDB repo.AlertStore,
	notifier notify.Notifier,
	m *metrics.Metrics,
	cfg AlerterConfig,
) *Alerter {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	return &Alerter{
		logger:   logger,
		sites:    sites,
		results:  results,
		alertDB:  alertDB,
		notifier: notifier,
		metrics:  m,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (a *Alerter) Run(ctx context.Context) error {
	t := time.NewTicker(a.cfg.PollInterval)
	defer t.Stop()

	// initial pass
	if err := a.ScanOnce(ctx); err != nil {
		a.logger.Warn("alerter_scan_error", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if err := a.ScanOnce(ctx); err != nil {
				a.logger.Warn("alerter_scan_error", zap.Error(err))
			}
		}
	}
}

// alertable reports whether moving from prev to cur deserves a notification.
// Only upgrades count, so a screen flapping back to OPEN after a dip is
// announced again but a downgrade never is.
func (a *Alerter) alertable(prev, cur classify.Status) bool {
	if cur.Rank() <= prev.Rank() {
		return false
	}
	switch cur {
	case classify.StatusOpen:
		return true
	case classify.StatusOpeningSoon:
		return a.cfg.AlertOnOpeningSoon
	}
	return false
}

type pending struct {
	key   string
	prev  classify.Status
	match classify.ScreenMatch
}

// ScanOnce compares every site's latest result with recorded alert state.
func (a *Alerter) ScanOnce(ctx context.Context) error {
	rows, err := a.results.Latest(ctx)
	if err != nil {
		return err
	}

	now := a.now()
	var errs error
	for _, r := range rows {
		if !r.Fetched {
			continue
		}
		if err := a.scanResult(ctx, r, now); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (a *Alerter) scanResult(ctx context.Context, r domain.CheckResult, now time.Time) error {
	var send []pending
	for _, m := range r.Matches {
		key := repo.AlertKey(r.SiteID, m.Target)
		rec, err := a.alertDB.Get(ctx, key)
		if err != nil {
			return err
		}
		var prev classify.Status
		if rec != nil {
			prev = rec.LastStatus
		}
		if prev == m.Status {
			continue
		}

		if a.alertable(prev, m.Status) {
			cooled := rec == nil || rec.LastSentAt == nil || now.Sub(*rec.LastSentAt) >= a.cfg.Cooldown
			if cooled {
				send = append(send, pending{key: key, prev: prev, match: m})
			}
			// Within cooldown the status is left unrecorded so the
			// announcement goes out once the cooldown has passed.
			continue
		}
		// Changed but not announced: record the new status only.
		if err := a.alertDB.Set(ctx, key, m.Status, time.Time{}); err != nil {
			return err
		}
	}
	if len(send) == 0 {
		return nil
	}

	site, err := a.sites.Find(ctx, r.SiteID)
	if err != nil {
		site = &domain.Site{ID: r.SiteID, URL: r.URL}
	}
	alert := notify.Alert{Site: *site, Showtimes: r.Showtimes, DetectedAt: now}
	for _, p := range send {
		alert.Matches = append(alert.Matches, p.match)
	}

	msg, err := notify.Render(alert)
	if err == nil {
		err = a.notifier.Send(ctx, msg)
	}
	a.metrics.ObserveNotification(err)

	if err != nil && notify.Delivered(err) {
		// Some channels got it; re-sending would repeat it on those.
		a.logger.Warn("alerter_partial_send",
			zap.String("site_id", string(r.SiteID)),
			zap.Error(err),
		)
		err = nil
	}
	if err != nil {
		a.logger.Warn("alerter_send_error",
			zap.String("site_id", string(r.SiteID)),
			zap.Int("screens", len(send)),
			zap.Error(err),
		)
		// Keep the old status but stamp the attempt, so the send is retried
		// once the cooldown has passed.
		for _, p := range send {
			prev := p.prev
			if prev == "" {
				prev = classify.StatusMentioned
			}
			if serr := a.alertDB.Set(ctx, p.key, prev, now); serr != nil {
				return serr
			}
		}
		return nil
	}

	a.logger.Info("alerter_sent",
		zap.String("site_id", string(r.SiteID)),
		zap.String("subject", msg.Subject),
		zap.Strings("showtimes", r.Showtimes),
	)
	for _, p := range send {
		if err := a.alertDB.Set(ctx, p.key, p.match.Status, now); err != nil {
			return err
		}
	}
	return nil
}
