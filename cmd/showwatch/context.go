package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hamed0406/showwatch/internal/config"
	"github.com/hamed0406/showwatch/internal/domain"
	"github.com/hamed0406/showwatch/internal/logging"
	"github.com/hamed0406/showwatch/internal/probe"
	"github.com/hamed0406/showwatch/internal/repo"
	"github.com/hamed0406/showwatch/internal/repo/memory"
	"github.com/hamed0406/showwatch/internal/repo/postgres"
)

type commandContext struct {
	envFlag   *string
	sitesFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(envFlag, sitesFlag *string) *commandContext {
	return &commandContext{envFlag: envFlag, sitesFlag: sitesFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var paths []string
		if c.envFlag != nil && strings.TrimSpace(*c.envFlag) != "" {
			paths = append(paths, strings.TrimSpace(*c.envFlag))
		}
		if err := config.LoadDotEnv(paths...); err != nil {
			c.configErr = fmt.Errorf("load env: %w", err)
			return
		}
		cfg := config.FromEnv()
		if c.sitesFlag != nil && strings.TrimSpace(*c.sitesFlag) != "" {
			cfg.SitesFile = strings.TrimSpace(*c.sitesFlag)
		}
		c.config = &cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(console bool) (*zap.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Options{
		Dir:     cfg.LogDir,
		Level:   cfg.LogLevel,
		Console: console && cfg.LogConsole,
	})
}

// stores bundles the three repositories; memory and postgres both
// implement all of them.
type stores struct {
	sites   repo.SiteStore
	results repo.ResultStore
	alerts  repo.AlertStore
	close   func()
}

func openStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (*stores, error) {
	if cfg.DatabaseURL == "" {
		m := memory.New()
		log.Info("store_memory")
		return &stores{sites: m, results: m, alerts: m, close: func() {}}, nil
	}
	pg, err := postgres.New(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info("store_postgres")
	return &stores{sites: pg, results: pg, alerts: pg, close: pg.Close}, nil
}

// loadSites reads SITES_FILE and upserts every site into the store.
func loadSites(ctx context.Context, cfg *config.Config, st repo.SiteStore) ([]domain.Site, error) {
	sites, err := config.LoadSites(cfg.SitesFile)
	if err != nil {
		return nil, err
	}
	for i := range sites {
		if err := st.Upsert(ctx, &sites[i]); err != nil {
			return nil, fmt.Errorf("store site %s: %w", sites[i].ID, err)
		}
	}
	return sites, nil
}

func newFetcher(cfg *config.Config) probe.Fetcher {
	inner := probe.NewHTTPFetcher(cfg.CheckTimeout, rate.Limit(cfg.PerHostRPS), cfg.PerHostBurst)
	return probe.NewRetryFetcher(inner, cfg.RetryAttempts, cfg.RetryBackoff, cfg.RetryMaxBackoff)
}

// checkBudget is how long one site check may take including retries.
func checkBudget(cfg *config.Config) time.Duration {
	n := time.Duration(max(cfg.RetryAttempts, 1))
	return cfg.CheckTimeout*n + cfg.RetryMaxBackoff*(n-1)
}
