// cmd/preflight/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/showwatch/internal/config"
	"github.com/hamed0406/showwatch/internal/notify"
	"github.com/hamed0406/showwatch/internal/probe"
	"github.com/hamed0406/showwatch/internal/repo/postgres"
)

type report struct {
	failed bool
}

func (r *report) fail(msg string) { fmt.Fprintln(os.Stderr, "✖", msg); r.failed = true }
func (r *report) warn(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
func (r *report) ok(msg string)   { fmt.Println("✔", msg) }

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "✖", "load .env:", err)
		os.Exit(1)
	}
	cfg := config.FromEnv()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	r := &report{}
	checkKeys(r)
	checkAPI(r, cfg)
	checkDatabase(ctx, r, cfg)
	checkSites(ctx, r, cfg)
	checkNotifiers(r, cfg)

	if r.failed {
		os.Exit(1)
	}
	r.ok("preflight passed")
}

func checkKeys(r *report) {
	admin := strings.TrimSpace(os.Getenv("ADMIN_API_KEYS"))
	pub := strings.TrimSpace(os.Getenv("PUBLIC_API_KEYS"))

	if admin == "" {
		r.fail("ADMIN_API_KEYS is empty (check and classify routes are open to anyone).")
	}
	if pub == "" {
		r.warn("PUBLIC_API_KEYS is empty (read routes accept admin keys only).")
	}

	// Normalize and sanity-check lists (no spaces around commas).
	for name, v := range map[string]string{"ADMIN_API_KEYS": admin, "PUBLIC_API_KEYS": pub} {
		if strings.Contains(v, " ") {
			r.warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
	}
}

func checkAPI(r *report, cfg config.Config) {
	r.ok("ADDR=" + cfg.Addr)
	if len(cfg.AllowedOrigins) == 0 {
		r.warn("ALLOWED_ORIGINS empty; CORS allows every origin.")
	} else {
		r.ok("ALLOWED_ORIGINS=" + strings.Join(cfg.AllowedOrigins, ","))
	}
	if cfg.CheckInterval == 0 {
		r.warn("CHECK_INTERVAL_MS=0; the watcher loop is disabled.")
	} else if cfg.CheckInterval < time.Minute {
		r.warn(fmt.Sprintf("CHECK_INTERVAL_MS is %s; ticketing sites may block aggressive polling.", cfg.CheckInterval))
	}
}

func checkDatabase(ctx context.Context, r *report, cfg config.Config) {
	if cfg.DatabaseURL == "" {
		r.warn("DATABASE_URL empty; results and alert state are kept in memory and lost on restart.")
		return
	}
	st, err := postgres.New(ctx, cfg.DatabaseURL, zap.NewNop())
	if err != nil {
		r.fail("DATABASE_URL unreachable: " + err.Error())
		return
	}
	st.Close()
	r.ok("DATABASE_URL reachable")
}

func checkSites(ctx context.Context, r *report, cfg config.Config) {
	sites, err := config.LoadSites(cfg.SitesFile)
	if err != nil {
		r.fail("SITES_FILE: " + err.Error())
		return
	}
	r.ok(fmt.Sprintf("SITES_FILE=%s (%d sites)", cfg.SitesFile, len(sites)))

	seen := map[string]bool{}
	for _, s := range sites {
		host := probe.HostOf(s.URL)
		if seen[host] {
			continue
		}
		seen[host] = true
		if st := probe.CheckDNS(ctx, host); st.Class != probe.DNSResolves {
			r.warn(fmt.Sprintf("%s: %s does not resolve (%s)", s.ID, host, st.Class))
		} else {
			r.ok(host + " resolves")
		}
	}
}

func checkNotifiers(r *report, cfg config.Config) {
	var channels []string
	email := notify.EmailConfig{Host: cfg.SMTPHost, From: cfg.EmailFrom, To: cfg.EmailTo}
	voice := notify.VoiceConfig{AccountSID: cfg.TwilioAccountSID, AuthToken: cfg.TwilioAuthToken, From: cfg.TwilioFrom, To: cfg.TwilioTo}

	if email.Enabled() {
		channels = append(channels, "email")
	} else if cfg.SMTPHost != "" || len(cfg.EmailTo) > 0 {
		r.warn("email partly configured; need SMTP_HOST, EMAIL_FROM and EMAIL_TO.")
	}
	if cfg.SlackWebhook != "" {
		if !strings.HasPrefix(cfg.SlackWebhook, "https://") {
			r.warn("SLACK_WEBHOOK_URL is not https.")
		}
		channels = append(channels, "slack")
	}
	if voice.Enabled() {
		channels = append(channels, "voice")
	} else if cfg.TwilioAccountSID != "" || len(cfg.TwilioTo) > 0 {
		r.warn("voice partly configured; need TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN, TWILIO_FROM and TWILIO_TO.")
	}

	if len(channels) == 0 {
		r.fail("no notification channel configured; alerts would never be sent.")
		return
	}
	r.ok("notify via " + strings.Join(channels, ", "))
}
