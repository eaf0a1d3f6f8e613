package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hamed0406/showwatch/internal/classify"
	"github.com/hamed0406/showwatch/internal/domain"
	"github.com/hamed0406/showwatch/internal/repo"
)

// maxResults bounds the in-memory history.
const maxResults = 4096

type Store struct {
	mu      sync.RWMutex
	sites   map[domain.SiteID]*domain.Site
	order   []domain.SiteID
	results []*domain.CheckResult
	alerts  map[string]repo.AlertRecord
}

func New() *Store {
	return &Store{
		sites:   make(map[domain.SiteID]*domain.Site),
		results: make([]*domain.CheckResult, 0, 128),
		alerts:  make(map[string]repo.AlertRecord),
	}
}

// ---- SiteStore ----

func (m *Store) Upsert(ctx context.Context, s *domain.Site) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sites[s.ID]; !ok {
		m.order = append(m.order, s.ID)
	}
	cp := *s
	m.sites[s.ID] = &cp
	return nil
}

func (m *Store) List(ctx context.Context) ([]domain.Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Site, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.sites[id])
	}
	return out, nil
}

func (m *Store) Find(ctx context.Context, id domain.SiteID) (*domain.Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sites[id]
	if !ok {
		return nil, repo.ErrSiteNotFound
	}
	cp := *s
	return &cp, nil
}

// ---- ResultStore ----

func (m *Store) Append(ctx context.Context, r *domain.CheckResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.CheckedAt.IsZero() {
		r.CheckedAt = time.Now().UTC()
	}
	m.results = append(m.results, r)
	if len(m.results) > maxResults {
		m.results = append(m.results[:0:0], m.results[len(m.results)-maxResults:]...)
	}
	return nil
}

func (m *Store) Latest(ctx context.Context) ([]domain.CheckResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	latest := make(map[domain.SiteID]*domain.CheckResult)
	for _, r := range m.results {
		cur := latest[r.SiteID]
		if cur == nil || !r.CheckedAt.Before(cur.CheckedAt) {
			latest[r.SiteID] = r
		}
	}

	out := make([]domain.CheckResult, 0, len(latest))
	for _, r := range latest {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SiteID < out[j].SiteID })
	return out, nil
}

func (m *Store) LastBySite(ctx context.Context, id domain.SiteID) (*domain.CheckResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.results) - 1; i >= 0; i-- {
		if m.results[i].SiteID == id {
			cp := *m.results[i]
			return &cp, nil
		}
	}
	return nil, nil
}

// ---- AlertStore ----

func (m *Store) Get(ctx context.Context, key string) (*repo.AlertRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.alerts[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *Store) Set(ctx context.Context, key string, status classify.Status, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.alerts[key]
	rec.Key = key
	rec.LastStatus = status
	if !sentAt.IsZero() {
		t := sentAt
		rec.LastSentAt = &t
	}
	m.alerts[key] = rec
	return nil
}
