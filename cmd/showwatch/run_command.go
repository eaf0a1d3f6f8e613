package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/showwatch/internal/httpapi"
	apimw "github.com/hamed0406/showwatch/internal/httpapi/middleware"
	"github.com/hamed0406/showwatch/internal/metrics"
	"github.com/hamed0406/showwatch/internal/scheduler"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var noAPI bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the watcher, alerter and HTTP API until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(true)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st, err := openStores(runCtx, cfg, logger)
			if err != nil {
				return err
			}
			defer st.close()

			sites, err := loadSites(runCtx, cfg, st.sites)
			if err != nil {
				return err
			}
			logger.Info("sites_loaded", zap.Int("count", len(sites)), zap.String("file", cfg.SitesFile))

			m := metrics.New()
			watcher := scheduler.NewWatcher(logger, st.sites, st.results, newFetcher(cfg), m,
				cfg.CheckInterval, checkBudget(cfg), cfg.MaxConcurrentChecks)

			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				watcher.Run(runCtx)
			}()

			notifier, channels := buildNotifier(cfg)
			if len(channels) == 0 {
				logger.Warn("alerter_disabled", zap.String("reason", "no notification channels configured"))
			} else {
				alerter := scheduler.NewAlerter(logger, st.sites, st.results, st.alerts, notifier, m, scheduler.AlerterConfig{
					AlertOnOpeningSoon: cfg.AlertOnOpeningSoon,
					Cooldown:           cfg.AlertCooldown,
					PollInterval:       cfg.AlertPollInterval,
				})
				logger.Info("alerter_started", zap.Strings("channels", channels))
				wg.Add(1)
				go func() {
					defer wg.Done()
					_ = alerter.Run(runCtx)
				}()
			}

			var serveErr error
			if !noAPI {
				api := httpapi.NewServer(logger, st.sites, st.results, watcher, m)
				api.TrustProxy = cfg.TrustProxy
				serveErr = serveAPI(runCtx, logger, cfg.Addr, api.Router(
					apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys},
					cfg.AllowedOrigins,
					cfg.PublicRPM, cfg.PublicBurst,
					cfg.AdminRPM, cfg.AdminBurst,
				))
				stop()
			} else {
				<-runCtx.Done()
			}

			wg.Wait()
			logger.Info("shutdown_complete")
			return serveErr
		},
	}
	cmd.Flags().BoolVar(&noAPI, "no-api", false, "Do not start the HTTP API")
	return cmd
}

// serveAPI blocks until ctx is done or the listener fails, then drains
// in-flight requests.
func serveAPI(ctx context.Context, logger *zap.Logger, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api_listen", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api_shutdown_error", zap.Error(err))
		return err
	}
	return nil
}
