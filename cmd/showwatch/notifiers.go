package main

import (
	"github.com/hamed0406/showwatch/internal/config"
	"github.com/hamed0406/showwatch/internal/notify"
)

// buildNotifier returns the enabled channels and their names.
func buildNotifier(cfg *config.Config) (notify.Multi, []string) {
	var out notify.Multi
	var names []string

	ec := notify.EmailConfig{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.EmailFrom,
		To:   cfg.EmailTo,
	}
	if ec.Enabled() {
		out = append(out, notify.NewEmail(ec))
		names = append(names, "email")
	}
	if s := notify.NewSlack(cfg.SlackWebhook); s != nil {
		out = append(out, s)
		names = append(names, "slack")
	}
	vc := notify.VoiceConfig{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		From:       cfg.TwilioFrom,
		To:         cfg.TwilioTo,
	}
	if vc.Enabled() {
		out = append(out, notify.NewVoice(vc))
		names = append(names, "voice")
	}
	return out, names
}
