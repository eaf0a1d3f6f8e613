package repo

import (
	"context"
	"time"

	"github.com/hamed0406/showwatch/internal/classify"
	"github.com/hamed0406/showwatch/internal/domain"
)

// AlertRecord holds the last status seen for one match identity and the last
// time a notification went out for it (used for cooldown).
type AlertRecord struct {
	Key        string
	LastStatus classify.Status
	LastSentAt *time.Time
}

// AlertKey identifies a screen on a site across check cycles.
func AlertKey(site domain.SiteID, target string) string {
	return string(site) + "|" + target
}

// AlertStore is implemented by a persistence layer to store alert state.
type AlertStore interface {
	// Get returns nil, nil if there's no record yet.
	Get(ctx context.Context, key string) (*AlertRecord, error)
	// Set upserts the record. If sentAt.IsZero() the previous send time is kept.
	Set(ctx context.Context, key string, status classify.Status, sentAt time.Time) error
}
