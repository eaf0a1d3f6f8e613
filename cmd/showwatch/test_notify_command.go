package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hamed0406/showwatch/internal/classify"
	"github.com/hamed0406/showwatch/internal/config"
	"github.com/hamed0406/showwatch/internal/domain"
	"github.com/hamed0406/showwatch/internal/notify"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a sample alert through every configured channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			notifier, channels := buildNotifier(cfg)
			if len(channels) == 0 {
				return errors.New("no notification channels configured (set SMTP_HOST/EMAIL_*, SLACK_WEBHOOK_URL or TWILIO_*)")
			}

			msg, err := notify.Render(sampleAlert(cfg))
			if err != nil {
				return err
			}
			msg.Subject = "[test] " + msg.Subject
			if err := notifier.Send(cmd.Context(), msg); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Test notification sent via %s\n", strings.Join(channels, ", "))
			return nil
		},
	}
}

// sampleAlert uses the first configured site when the sites file is
// readable so the message looks like a real one.
func sampleAlert(cfg *config.Config) notify.Alert {
	site := domain.Site{
		ID:      "example",
		Name:    "Example Tickets",
		URL:     "https://example.com/movies",
		Subject: "example movie",
		Targets: []string{"Example Cinema Screen 1"},
	}
	if sites, err := config.LoadSites(cfg.SitesFile); err == nil && len(sites) > 0 {
		site = sites[0]
	}
	showtimes := []string{"6:45 pm", "9:30 pm"}
	return notify.Alert{
		Site: site,
		Matches: []classify.ScreenMatch{{
			Target: site.Targets[0],
			Name:   site.Targets[0],
			Status: classify.StatusOpen,
			Evidence: classify.Evidence{
				Subject:   true,
				Exact:     true,
				Showtimes: showtimes,
			},
			Note: "test notification",
		}},
		Showtimes:  showtimes,
		DetectedAt: time.Now(),
	}
}
