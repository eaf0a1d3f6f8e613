package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/showwatch/internal/classify"
	"github.com/hamed0406/showwatch/internal/domain"
	"github.com/hamed0406/showwatch/internal/repo"
)

//go:embed schema.sql
var schemaSQL string

var _ repo.SiteStore = (*Store)(nil)
var _ repo.ResultStore = (*Store)(nil)
var _ repo.AlertStore = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate applies the schema; every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	s.log.Info("postgres_schema_applied")
	return nil
}

// ---- SiteStore ----

func (s *Store) Upsert(ctx context.Context, site *domain.Site) error {
	rules, err := json.Marshal(site.Rules)
	if err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO sites (id, name, url, subject, targets, rules, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())
		 ON CONFLICT (id) DO UPDATE
		   SET name=EXCLUDED.name, url=EXCLUDED.url, subject=EXCLUDED.subject,
		       targets=EXCLUDED.targets, rules=EXCLUDED.rules, updated_at=now()`,
		string(site.ID), site.Name, site.URL, site.Subject, site.Targets, rules,
	)
	if err != nil {
		return fmt.Errorf("upsert site: %w", err)
	}
	return nil
}

const siteColumns = `id, name, url, subject, targets, rules`

func scanSite(row pgx.Row) (*domain.Site, error) {
	var (
		id    string
		site  domain.Site
		rules []byte
	)
	if err := row.Scan(&id, &site.Name, &site.URL, &site.Subject, &site.Targets, &rules); err != nil {
		return nil, err
	}
	site.ID = domain.SiteID(id)
	if len(rules) > 0 {
		if err := json.Unmarshal(rules, &site.Rules); err != nil {
			return nil, fmt.Errorf("decode rules for %s: %w", id, err)
		}
	}
	return &site, nil
}

func (s *Store) List(ctx context.Context) ([]domain.Site, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+siteColumns+` FROM sites ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()

	var out []domain.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		out = append(out, *site)
	}
	return out, rows.Err()
}

func (s *Store) Find(ctx context.Context, id domain.SiteID) (*domain.Site, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+siteColumns+` FROM sites WHERE id = $1`, string(id))
	site, err := scanSite(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repo.ErrSiteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find site: %w", err)
	}
	return site, nil
}

// ---- ResultStore ----

func (s *Store) Append(ctx context.Context, cr *domain.CheckResult) error {
	if cr.CheckedAt.IsZero() {
		cr.CheckedAt = time.Now().UTC()
	}
	var statusPtr *int
	if cr.HTTPStatus != 0 {
		statusPtr = &cr.HTTPStatus
	}
	matches := cr.Matches
	if matches == nil {
		matches = []classify.ScreenMatch{}
	}
	matchJSON, err := json.Marshal(matches)
	if err != nil {
		return fmt.Errorf("encode matches: %w", err)
	}
	showtimes := cr.Showtimes
	if showtimes == nil {
		showtimes = []string{}
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO results
		   (site_id, url, fetched, http_status, latency_ms, reason,
		    subject_found, bookable, showtimes, matches, checked_at)
		 VALUES
		   ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		string(cr.SiteID), cr.URL, cr.Fetched, statusPtr, cr.LatencyMS, cr.Reason,
		cr.SubjectFound, cr.Bookable, showtimes, matchJSON, cr.CheckedAt,
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

const resultColumns = `site_id, url, fetched, http_status, latency_ms, reason,
       subject_found, bookable, showtimes, matches, checked_at`

func scanResult(row pgx.Row) (*domain.CheckResult, error) {
	var (
		r       domain.CheckResult
		siteID  string
		status  *int32
		matches []byte
	)
	err := row.Scan(&siteID, &r.URL, &r.Fetched, &status, &r.LatencyMS, &r.Reason,
		&r.SubjectFound, &r.Bookable, &r.Showtimes, &matches, &r.CheckedAt)
	if err != nil {
		return nil, err
	}
	r.SiteID = domain.SiteID(siteID)
	if status != nil {
		r.HTTPStatus = int(*status)
	}
	if len(matches) > 0 {
		if err := json.Unmarshal(matches, &r.Matches); err != nil {
			return nil, fmt.Errorf("decode matches: %w", err)
		}
	}
	return &r, nil
}

func (s *Store) Latest(ctx context.Context) ([]domain.CheckResult, error) {
	rows, err := s.pool.Query(ctx, `
SELECT DISTINCT ON (site_id) `+resultColumns+`
  FROM results
 ORDER BY site_id, checked_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("latest: %w", err)
	}
	defer rows.Close()

	var out []domain.CheckResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan latest: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *Store) LastBySite(ctx context.Context, id domain.SiteID) (*domain.CheckResult, error) {
	row := s.pool.QueryRow(ctx, `
SELECT `+resultColumns+`
  FROM results
 WHERE site_id = $1
 ORDER BY checked_at DESC
 LIMIT 1`, string(id))
	r, err := scanResult(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last by site: %w", err)
	}
	return r, nil
}
