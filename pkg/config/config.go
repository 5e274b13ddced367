package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Stripe       StripeConfig
	Outbox       OutboxConfig
	Webhooks     WebhookConfig
	Membership   MembershipConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"HOMEWARD_APP_ENV" required:"true"`
	Port         string   `envconfig:"HOMEWARD_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"HOMEWARD_LOG_LEVEL" default:"info"`
	LogFormat    string   `envconfig:"HOMEWARD_LOG_FORMAT" default:"json"`
	LogWarnStack bool     `envconfig:"HOMEWARD_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"HOMEWARD_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"HOMEWARD_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"HOMEWARD_DB_DSN"`
	Driver string `envconfig:"HOMEWARD_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HOMEWARD_DB_HOST"`
	LegacyPort     int    `envconfig:"HOMEWARD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HOMEWARD_DB_USER"`
	LegacyPassword string `envconfig:"HOMEWARD_DB_PASSWORD"`
	LegacyName     string `envconfig:"HOMEWARD_DB_NAME"`
	LegacySSLMode  string `envconfig:"HOMEWARD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HOMEWARD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HOMEWARD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HOMEWARD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HOMEWARD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HOMEWARD_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HOMEWARD_REDIS_ADDR"`
	Password     string        `envconfig:"HOMEWARD_REDIS_PASSWORD"`
	DB           int           `envconfig:"HOMEWARD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HOMEWARD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HOMEWARD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HOMEWARD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HOMEWARD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HOMEWARD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies tokens minted by the identity service; this backend never issues them.
type JWTConfig struct {
	Secret string `envconfig:"HOMEWARD_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"HOMEWARD_JWT_ISSUER" required:"true"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"HOMEWARD_AUTO_MIGRATE" default:"false"`
	AutoCharge  bool `envconfig:"HOMEWARD_FEATURE_AUTO_CHARGE" default:"true"`
	AllowACH    bool `envconfig:"HOMEWARD_FEATURE_ALLOW_ACH" default:"true"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"HOMEWARD_GCP_PROJECT_ID" required:"true"`
}

type PubSubConfig struct {
	DomainTopic       string `envconfig:"HOMEWARD_PUBSUB_DOMAIN_TOPIC" default:"hw-domain-events"`
	NotificationTopic string `envconfig:"HOMEWARD_PUBSUB_NOTIFICATION_TOPIC" default:"hw-notification-events"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"HOMEWARD_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"HOMEWARD_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"HOMEWARD_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Retention      time.Duration `envconfig:"HOMEWARD_OUTBOX_RETENTION" default:"720h"`
}

// StripeConfig holds the platform fallback credentials. Franchises with their
// own connected account override APIKey/Secret per request.
type StripeConfig struct {
	APIKey string `envconfig:"HOMEWARD_STRIPE_API_KEY"`
	Secret string `envconfig:"HOMEWARD_STRIPE_SECRET"`
	Env    string `envconfig:"HOMEWARD_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type WebhookConfig struct {
	IdempotencyTTL time.Duration `envconfig:"HOMEWARD_WEBHOOK_IDEMPOTENCY_TTL" default:"72h"`
}

type MembershipConfig struct {
	BatchSize int `envconfig:"HOMEWARD_MEMBERSHIP_BATCH_SIZE" default:"100"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"HOMEWARD_CRON_INTERVAL" default:"1h"`
	LockKey  string        `envconfig:"HOMEWARD_CRON_LOCK_KEY" default:"cron"`
	LockTTL  time.Duration `envconfig:"HOMEWARD_CRON_LOCK_TTL" default:"55m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
