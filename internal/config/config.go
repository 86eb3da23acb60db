package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Mailbox  MailboxConfig
	Mailer   MailerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters. The admin JWT is minted by
// the external auth system; this service only validates it.
type AuthConfig struct {
	JWTSecret     string
	WebhookSecret string
}

// MailboxConfig describes the IMAP account polled for ticket replies.
// An empty Password means polling is disabled, not misconfigured.
type MailboxConfig struct {
	Host                string
	Port                int
	Username            string
	Password            string
	Folder              string
	UseTLS              bool
	PollIntervalSeconds int
	PollTimeoutSeconds  int
	DedupEnabled        bool
}

// MailerConfig describes the outbound transactional-email provider.
// An empty APIKey selects simulation mode.
type MailerConfig struct {
	APIKey       string
	Endpoint     string
	FromAddress  string
	FromName     string
	SupportInbox string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-mailroom"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("AUTH_JWT_SECRET", "dev-secret"),
			WebhookSecret: os.Getenv("INBOUND_WEBHOOK_SECRET"),
		},
		Mailbox: MailboxConfig{
			Host:                os.Getenv("MAILBOX_HOST"),
			Port:                getEnvAsInt("MAILBOX_PORT", 993),
			Username:            os.Getenv("MAILBOX_USER"),
			Password:            os.Getenv("MAILBOX_PASSWORD"),
			Folder:              getEnv("MAILBOX_FOLDER", "INBOX"),
			UseTLS:              getEnvAsBool("MAILBOX_TLS", true),
			PollIntervalSeconds: getEnvAsInt("MAILBOX_POLL_INTERVAL_SECONDS", 300),
			PollTimeoutSeconds:  getEnvAsInt("MAILBOX_POLL_TIMEOUT_SECONDS", 60),
			DedupEnabled:        getEnvAsBool("MAILBOX_DEDUP_ENABLED", false),
		},
		Mailer: MailerConfig{
			APIKey:       os.Getenv("MAILER_API_KEY"),
			Endpoint:     getEnv("MAILER_ENDPOINT", "https://api.resend.com/emails"),
			FromAddress:  getEnv("MAILER_FROM_ADDRESS", "support@example.com"),
			FromName:     getEnv("MAILER_FROM_NAME", "Support Team"),
			SupportInbox: getEnv("MAILER_SUPPORT_INBOX", "support@example.com"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Enabled reports whether the mailbox account is configured for polling.
func (m MailboxConfig) Enabled() bool {
	return m.Host != "" && m.Username != "" && m.Password != ""
}

// PollInterval returns the delay between background poll cycles.
func (m MailboxConfig) PollInterval() time.Duration {
	if m.PollIntervalSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(m.PollIntervalSeconds) * time.Second
}

// PollTimeout returns the deadline applied to a single poll cycle.
func (m MailboxConfig) PollTimeout() time.Duration {
	if m.PollTimeoutSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(m.PollTimeoutSeconds) * time.Second
}

// Simulated reports whether outbound email runs in simulation mode.
func (m MailerConfig) Simulated() bool {
	return m.APIKey == ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
