package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

type Config struct {
	Addr        string // API bind address, e.g., "127.0.0.1:8080" or ":8080" (Docker)
	LogDir      string // logs directory
	LogLevel    string // debug|info|warn|error
	LogConsole  bool   // also log to stderr
	DatabaseURL string // empty means in-memory store
	SitesFile   string // YAML site definitions

	CheckInterval       time.Duration // 0 disables the watcher loop
	CheckTimeout        time.Duration
	MaxConcurrentChecks int
	RetryAttempts       int
	RetryBackoff        time.Duration
	RetryMaxBackoff     time.Duration
	PerHostRPS          float64 // page fetches per second per host
	PerHostBurst        int

	PublicAPIKeys  []string
	AdminAPIKeys   []string
	PublicRPM      int
	PublicBurst    int
	AdminRPM       int
	AdminBurst     int
	AllowedOrigins []string
	TrustProxy     bool // take client IPs from X-Forwarded-For (reverse proxy only)

	AlertOnOpeningSoon bool
	AlertCooldown      time.Duration
	AlertPollInterval  time.Duration

	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	EmailFrom string
	EmailTo   []string

	SlackWebhook string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string
	TwilioTo         []string
}

// LoadDotEnv loads KEY=VALUE files into the environment without overriding
// variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var errs error
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func FromEnv() Config {
	// Bind address (ADDR wins over the older API_ADDR)
	addr := envStr("ADDR", envStr("API_ADDR", "127.0.0.1:8080"))

	return Config{
		Addr:        addr,
		LogDir:      envStr("LOG_DIR", "logs"),
		LogLevel:    envStr("LOG_LEVEL", "info"),
		LogConsole:  envBool("LOG_CONSOLE", true),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SitesFile:   envStr("SITES_FILE", "sites.yaml"),

		CheckInterval:       envMillis("CHECK_INTERVAL_MS", 5*time.Minute),
		CheckTimeout:        envMillis("HTTP_TIMEOUT_MS", 30*time.Second),
		MaxConcurrentChecks: envInt("MAX_CONCURRENT_CHECKS", 4, 1),
		RetryAttempts:       envInt("RETRY_ATTEMPTS", 3, 1),
		RetryBackoff:        envMillis("RETRY_BACKOFF_MS", 500*time.Millisecond),
		RetryMaxBackoff:     envMillis("RETRY_MAX_BACKOFF_MS", 10*time.Second),
		PerHostRPS:          envFloat("PER_HOST_RPS", 0.5),
		PerHostBurst:        envInt("PER_HOST_BURST", 1, 1),

		PublicAPIKeys:  envList("PUBLIC_API_KEYS"),
		AdminAPIKeys:   envList("ADMIN_API_KEYS"),
		PublicRPM:      envInt("PUBLIC_RPM", 60, 1),
		PublicBurst:    envInt("PUBLIC_BURST", 20, 1),
		AdminRPM:       envInt("ADMIN_RPM", 30, 1),
		AdminBurst:     envInt("ADMIN_BURST", 10, 1),
		AllowedOrigins: envList("ALLOWED_ORIGINS"),
		TrustProxy:     envBool("TRUST_PROXY", false),

		AlertOnOpeningSoon: envBool("ALERT_ON_OPENING_SOON", false),
		AlertCooldown:      envMillis("ALERT_COOLDOWN_MS", 30*time.Minute),
		AlertPollInterval:  envMillis("ALERT_POLL_INTERVAL_MS", 30*time.Second),

		SMTPHost:  os.Getenv("SMTP_HOST"),
		SMTPPort:  envInt("SMTP_PORT", 587, 1),
		SMTPUser:  os.Getenv("SMTP_USER"),
		SMTPPass:  os.Getenv("SMTP_PASS"),
		EmailFrom: os.Getenv("EMAIL_FROM"),
		EmailTo:   envList("EMAIL_TO"),

		SlackWebhook: os.Getenv("SLACK_WEBHOOK_URL"),

		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFrom:       os.Getenv("TWILIO_FROM"),
		TwilioTo:         envList("TWILIO_TO"),
	}
}

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// envInt parses a positive-ish integer; values below min fall back to def.
func envInt(key string, def, min int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= min {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && f >= 0 {
			return f
		}
	}
	return def
}

func envMillis(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

func envList(key string) []string {
	var out []string
	for _, p := range strings.Split(os.Getenv(key), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
