package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv                string
	HTTPAddr              string
	HTTPReadHeaderTimeout time.Duration
	HTTPBodyLimitBytes    int64
	ShutdownTimeout       time.Duration
	CORSAllowedOrigins    []string

	DBDriver       string
	DatabaseURL    string
	DBMaxOpenConns int
	DBMaxIdleConns int

	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	JWTAccessTTL   time.Duration
	BcryptCost     int
	ResetSecret    string
	ResetTTL       time.Duration
	ResetURLBase   string
	ConcealUnknown bool

	AdminRegistrationOpen bool

	BlacklistDriver               string
	BlacklistMaintenanceThreshold int64
	BlacklistGCSchedule           string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	MailDriver      string
	MailFromAddress string
	MailFromName    string
	SMTPHost        string
	SMTPPort        int
	SMTPUser        string
	SMTPPass        string
	SendGridAPIKey  string

	UploadDir              string
	ImageReconcileSchedule string
	ImageOrphanGrace       time.Duration

	LogLevel  string
	LogFormat string

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsEnabled        bool
	OTELTracingEnabled        bool
	OTELLogsEnabled           bool
	OTELMetricsExportInterval time.Duration
	OTELHTTPEnabled           bool
}

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	BlacklistDriverSQL    = "sql"
	BlacklistDriverRedis  = "redis"
	BlacklistDriverMemory = "memory"

	MailDriverSMTP     = "smtp"
	MailDriverSendGrid = "sendgrid"
	MailDriverLog      = "log"

	minSecretLength = 32
)

// Load reads the optional env file named by ENV_FILE (default ".env") and then
// builds the Config from the process environment. Variables already present in
// the environment take precedence over the file.
func Load() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		err = fmt.Errorf("load env file %s: %w", envFile, err)
		recordConfigValidationEvent(context.Background(), os.Getenv("APP_ENV"), "failure", classifyConfigLoadError(err))
		return nil, err
	}

	cfg, err := FromEnv(os.LookupEnv)
	profile := os.Getenv("APP_ENV")
	if err != nil {
		recordConfigValidationEvent(context.Background(), profile, "failure", classifyConfigLoadError(err))
		return nil, err
	}
	recordConfigValidationEvent(context.Background(), profile, "success", classifyConfigLoadError(nil))
	return cfg, nil
}

// FromEnv builds a Config from an arbitrary lookup function.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	p := parser{lookup: lookup}
	cfg := &Config{
		AppEnv:                p.str("APP_ENV", "development"),
		HTTPAddr:              p.str("HTTP_ADDR", ":5000"),
		HTTPReadHeaderTimeout: p.duration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		HTTPBodyLimitBytes:    p.int64("HTTP_BODY_LIMIT_BYTES", 1<<20),
		ShutdownTimeout:       p.duration("SHUTDOWN_TIMEOUT", 15*time.Second),
		CORSAllowedOrigins:    p.list("CORS_ALLOWED_ORIGINS", []string{"*"}),

		DBDriver:       strings.ToLower(p.str("DB_DRIVER", DBDriverSQLite)),
		DatabaseURL:    p.str("DATABASE_URL", ""),
		DBMaxOpenConns: p.int("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns: p.int("DB_MAX_IDLE_CONNS", 5),

		JWTSecret:      p.str("JWT_SECRET", ""),
		JWTIssuer:      p.str("JWT_ISSUER", "gamex"),
		JWTAudience:    p.str("JWT_AUDIENCE", "gamex-panel"),
		JWTAccessTTL:   p.duration("JWT_ACCESS_TTL", time.Hour),
		BcryptCost:     p.int("BCRYPT_COST", 10),
		ResetSecret:    p.str("RESET_PASSWORD_TOKEN_SECRET", ""),
		ResetTTL:       p.duration("RESET_PASSWORD_TTL", time.Hour),
		ResetURLBase:   strings.TrimRight(p.str("RESET_PASSWORD_URL_BASE", "http://localhost:5000/api/reset-password"), "/"),
		ConcealUnknown: p.bool("PASSWORD_RESET_CONCEAL_UNKNOWN_EMAIL", false),

		AdminRegistrationOpen: p.bool("ADMIN_REGISTRATION_OPEN", true),

		BlacklistDriver:               strings.ToLower(p.str("BLACKLIST_DRIVER", BlacklistDriverSQL)),
		BlacklistMaintenanceThreshold: p.int64("BLACKLIST_MAINTENANCE_THRESHOLD", 1000),
		BlacklistGCSchedule:           p.str("BLACKLIST_GC_SCHEDULE", "@every 15m"),

		RedisAddr:      p.str("REDIS_ADDR", ""),
		RedisPassword:  p.str("REDIS_PASSWORD", ""),
		RedisDB:        p.int("REDIS_DB", 0),
		RedisKeyPrefix: p.str("REDIS_KEY_PREFIX", "gamex:blacklist"),

		MailDriver:      strings.ToLower(p.str("MAIL_DRIVER", MailDriverLog)),
		MailFromAddress: p.str("MAIL_FROM_ADDRESS", "no-reply@gamex.local"),
		MailFromName:    p.str("MAIL_FROM_NAME", "GameX"),
		SMTPHost:        p.str("SMTP_HOST", ""),
		SMTPPort:        p.int("SMTP_PORT", 587),
		SMTPUser:        p.str("SMTP_USER", ""),
		SMTPPass:        p.str("SMTP_PASS", ""),
		SendGridAPIKey:  p.str("SENDGRID_API_KEY", ""),

		UploadDir:              p.str("UPLOAD_DIR", "uploads"),
		ImageReconcileSchedule: p.str("IMAGE_RECONCILE_SCHEDULE", "@every 1h"),
		ImageOrphanGrace:       p.duration("IMAGE_ORPHAN_GRACE", time.Hour),

		LogLevel:  strings.ToLower(p.str("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(p.str("LOG_FORMAT", "json")),

		OTELServiceName:           p.str("OTEL_SERVICE_NAME", "gamex-panel"),
		OTELExporterOTLPEndpoint:  p.str("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure:  p.bool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELMetricsEnabled:        p.bool("OTEL_METRICS_ENABLED", false),
		OTELTracingEnabled:        p.bool("OTEL_TRACING_ENABLED", false),
		OTELLogsEnabled:           p.bool("OTEL_LOGS_ENABLED", false),
		OTELMetricsExportInterval: p.duration("OTEL_METRICS_EXPORT_INTERVAL", 30*time.Second),
		OTELHTTPEnabled:           p.bool("OTEL_HTTP_ENABLED", false),
	}
	cfg.OTELEnvironment = p.str("OTEL_ENVIRONMENT", cfg.AppEnv)
	if cfg.DatabaseURL == "" && cfg.DBDriver == DBDriverSQLite {
		cfg.DatabaseURL = "file:gamex.db"
	}
	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.DBDriver {
	case DBDriverPostgres, DBDriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be %q or %q", DBDriverPostgres, DBDriverSQLite))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if len(c.JWTSecret) < minSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLength))
	}
	if len(c.ResetSecret) < minSecretLength {
		errs = append(errs, fmt.Errorf("RESET_PASSWORD_TOKEN_SECRET must be at least %d bytes", minSecretLength))
	}
	if c.JWTSecret != "" && c.JWTSecret == c.ResetSecret {
		errs = append(errs, errors.New("RESET_PASSWORD_TOKEN_SECRET must differ from JWT_SECRET"))
	}
	if c.JWTAccessTTL <= 0 || c.ResetTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, errors.New("BCRYPT_COST must be between 4 and 31"))
	}
	switch c.BlacklistDriver {
	case BlacklistDriverSQL:
	case BlacklistDriverRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required when BLACKLIST_DRIVER=redis"))
		}
	case BlacklistDriverMemory:
		// Revocations die with the process.
		if c.IsProduction() {
			errs = append(errs, errors.New("BLACKLIST_DRIVER=memory is not allowed in production"))
		}
	default:
		errs = append(errs, fmt.Errorf("BLACKLIST_DRIVER must be one of %q, %q, %q", BlacklistDriverSQL, BlacklistDriverRedis, BlacklistDriverMemory))
	}
	if c.BlacklistMaintenanceThreshold <= 0 {
		errs = append(errs, errors.New("BLACKLIST_MAINTENANCE_THRESHOLD must be positive"))
	}
	switch c.MailDriver {
	case MailDriverLog:
	case MailDriverSMTP:
		if c.SMTPHost == "" {
			errs = append(errs, errors.New("SMTP_HOST is required when MAIL_DRIVER=smtp"))
		}
	case MailDriverSendGrid:
		if c.SendGridAPIKey == "" {
			errs = append(errs, errors.New("SENDGRID_API_KEY is required when MAIL_DRIVER=sendgrid"))
		}
	default:
		errs = append(errs, fmt.Errorf("MAIL_DRIVER must be one of %q, %q, %q", MailDriverSMTP, MailDriverSendGrid, MailDriverLog))
	}
	if c.UploadDir == "" {
		errs = append(errs, errors.New("UPLOAD_DIR is required"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return normalizeConfigProfile(c.AppEnv) == "production" || normalizeConfigProfile(c.AppEnv) == "prod"
}

type parser struct {
	lookup func(string) (string, bool)
	err    error
}

func (p *parser) raw(key string) (string, bool) {
	v, ok := p.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (p *parser) str(key, def string) string {
	if v, ok := p.raw(key); ok {
		return v
	}
	return def
}

func (p *parser) list(key string, def []string) []string {
	v, ok := p.raw(key)
	if !ok {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func (p *parser) int(key string, def int) int {
	v, ok := p.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return n
}

func (p *parser) int64(key string, def int64) int64 {
	v, ok := p.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return n
}

func (p *parser) bool(key string, def bool) bool {
	v, ok := p.raw(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return b
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v, ok := p.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return d
}

func (p *parser) fail(key string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("parse %s: %w", key, err)
	}
}
