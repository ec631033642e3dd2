package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/greenbite/pkg/httpx"
)

const defaultDatabaseURL = "file:greenbite.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// Config is loaded once at startup and never mutated afterwards.
type Config struct {
	Env         string // development, production, test (default: development)
	Port        int    // HTTP server port (default: 5000)
	DatabaseURL string // postgres:// selects Postgres, anything else is a sqlite DSN

	JWTSecret    string        // Required: HS256 signing secret
	JWTExpiresIn time.Duration // Session token lifetime (default: 7d)
	JWTIssuer    string        // iss claim (default: greenbite-api)

	ResetCodeTTL              time.Duration // Verification code lifetime (default: 10m)
	ResetRequiresVerifiedCode bool          // reset-password demands a verified, unexpired code

	MailDriver  string // smtp or log (default: log)
	SMTPHost    string
	SMTPPort    int
	SMTPUser    string // also the From address
	SMTPPass    string
	MailTimeout time.Duration // bound on one mail dispatch (default: 10s)

	StoreTimeout time.Duration // bound on each operation's storage work (default: 5s)
	CORSOrigins  []string

	// TrustedProxies are CIDRs or addresses whose X-Forwarded-For is
	// believed for rate limiting. Empty trusts no forwarding header.
	TrustedProxies []string

	S3Bucket        string // empty disables profile image uploads
	S3Region        string
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicBaseURL string

	LogLevel             string
	LogFormat            string
	ShutdownGracePeriod  time.Duration
	HousekeepingInterval time.Duration
}

func LoadConfig() Config {
	return Config{
		Env:         getEnvOrDefault("ENV", "development"),
		Port:        getEnvIntOrDefault("PORT", 5000),
		DatabaseURL: getEnvOrDefault("DATABASE_URL", defaultDatabaseURL),

		JWTSecret:    os.Getenv("JWT_SECRET"),
		JWTExpiresIn: getEnvDurationOrDefault("JWT_EXPIRES_IN", 7*24*time.Hour),
		JWTIssuer:    getEnvOrDefault("JWT_ISSUER", "greenbite-api"),

		ResetCodeTTL:              getEnvDurationOrDefault("RESET_CODE_TTL", 10*time.Minute),
		ResetRequiresVerifiedCode: getEnvBoolOrDefault("RESET_REQUIRES_VERIFIED_CODE", false),

		MailDriver:  strings.ToLower(getEnvOrDefault("MAIL_DRIVER", "log")),
		SMTPHost:    os.Getenv("SMTP_HOST"),
		SMTPPort:    getEnvIntOrDefault("SMTP_PORT", 587),
		SMTPUser:    os.Getenv("SMTP_USER"),
		SMTPPass:    os.Getenv("SMTP_PASS"),
		MailTimeout: getEnvDurationOrDefault("MAIL_TIMEOUT", 10*time.Second),

		StoreTimeout: getEnvDurationOrDefault("STORE_TIMEOUT", 5*time.Second),
		CORSOrigins: splitList(getEnvOrDefault("CORS_ORIGINS",
			"http://localhost:5173,https://greenbite-frontend.vercel.app")),
		TrustedProxies: splitList(os.Getenv("TRUSTED_PROXIES")),

		S3Bucket:        os.Getenv("S3_BUCKET"),
		S3Region:        getEnvOrDefault("S3_REGION", "us-east-1"),
		S3Endpoint:      os.Getenv("S3_ENDPOINT"),
		S3AccessKey:     os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:     os.Getenv("S3_SECRET_KEY"),
		S3PublicBaseURL: os.Getenv("S3_PUBLIC_BASE_URL"),

		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", time.Hour),
	}
}

var (
	ErrMissingJWTSecret = errors.New("JWT_SECRET is required")
	ErrMissingSMTP      = errors.New("MAIL_DRIVER=smtp requires SMTP_HOST, SMTP_USER and SMTP_PASS")
	ErrUnknownMail      = errors.New("MAIL_DRIVER must be smtp or log")
	ErrTrustedProxies   = errors.New("TRUSTED_PROXIES must list CIDRs or IP addresses")
)

func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, ErrMissingJWTSecret)
	}
	switch c.MailDriver {
	case "log":
	case "smtp":
		if c.SMTPHost == "" || c.SMTPUser == "" || c.SMTPPass == "" {
			errs = append(errs, ErrMissingSMTP)
		}
	default:
		errs = append(errs, ErrUnknownMail)
	}
	if _, err := httpx.ParseTrustedProxies(c.TrustedProxies); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrTrustedProxies, err))
	}
	return errors.Join(errs...)
}

func (c Config) Production() bool {
	return c.Env == "production" || c.Env == "prod"
}

// UsesPostgres reports whether DatabaseURL points at a Postgres server.
func (c Config) UsesPostgres() bool {
	return strings.HasPrefix(c.DatabaseURL, "postgres://") || strings.HasPrefix(c.DatabaseURL, "postgresql://")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, ok := parseDuration(value); ok {
		return d
	}
	return defaultValue
}

// parseDuration accepts Go durations ("90s", "1h"), a day suffix ("7d")
// and bare integers as minutes.
func parseDuration(value string) (time.Duration, bool) {
	if d, err := time.ParseDuration(value); err == nil {
		return d, true
	}
	if days, ok := strings.CutSuffix(value, "d"); ok {
		if n, err := strconv.Atoi(days); err == nil && n >= 0 {
			return time.Duration(n) * 24 * time.Hour, true
		}
	}
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute, true
	}
	return 0, false
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
