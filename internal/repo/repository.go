package repo

import (
	"context"
	"errors"

	"github.com/hamed0406/showwatch/internal/domain"
)

var ErrSiteNotFound = errors.New("site not found")

// Ports (interfaces): memory by default, postgres when DATABASE_URL is set.
type SiteStore interface {
	Upsert(ctx context.Context, s *domain.Site) error
	List(ctx context.Context) ([]domain.Site, error)
	// Find returns ErrSiteNotFound for unknown ids.
	Find(ctx context.Context, id domain.SiteID) (*domain.Site, error)
}

type ResultStore interface {
	Append(ctx context.Context, r *domain.CheckResult) error
	// Latest returns the newest result of every site that has one.
	Latest(ctx context.Context) ([]domain.CheckResult, error)
	// LastBySite returns nil, nil when the site was never checked.
	LastBySite(ctx context.Context, id domain.SiteID) (*domain.CheckResult, error)
}
