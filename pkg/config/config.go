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
	Escrow       EscrowConfig
	Paystack     PaystackConfig
	Flutterwave  FlutterwaveConfig
	Webhooks     WebhookConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"VENDORA_APP_ENV" required:"true"`
	Port         string `envconfig:"VENDORA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VENDORA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VENDORA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"VENDORA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"VENDORA_DB_DSN"`
	Driver string `envconfig:"VENDORA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VENDORA_DB_HOST"`
	LegacyPort     int    `envconfig:"VENDORA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VENDORA_DB_USER"`
	LegacyPassword string `envconfig:"VENDORA_DB_PASSWORD"`
	LegacyName     string `envconfig:"VENDORA_DB_NAME"`
	LegacySSLMode  string `envconfig:"VENDORA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VENDORA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VENDORA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VENDORA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VENDORA_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AtomicMaxRetries int `envconfig:"VENDORA_DB_ATOMIC_MAX_RETRIES" default:"3"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VENDORA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VENDORA_REDIS_ADDR"`
	Password     string        `envconfig:"VENDORA_REDIS_PASSWORD"`
	DB           int           `envconfig:"VENDORA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VENDORA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VENDORA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VENDORA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VENDORA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VENDORA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"VENDORA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VENDORA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"VENDORA_JWT_EXPIRATION_MINUTES" required:"true"`
}

// EscrowConfig controls the automatic release of held funds.
type EscrowConfig struct {
	HoldPeriod       time.Duration `envconfig:"VENDORA_ESCROW_HOLD_PERIOD" default:"168h"`
	ReleaseBatchSize int           `envconfig:"VENDORA_ESCROW_RELEASE_BATCH_SIZE" default:"100"`
}

type PaystackConfig struct {
	SecretKey string `envconfig:"VENDORA_PAYSTACK_SECRET_KEY"`
}

type FlutterwaveConfig struct {
	SecretHash string `envconfig:"VENDORA_FLUTTERWAVE_SECRET_HASH"`
}

type WebhookConfig struct {
	IdempotencyTTL  time.Duration `envconfig:"VENDORA_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
	RateLimitWindow time.Duration `envconfig:"VENDORA_WEBHOOK_RATE_LIMIT_WINDOW" default:"1m"`
	RateLimitPerIP  int           `envconfig:"VENDORA_WEBHOOK_RATE_LIMIT_PER_IP" default:"120"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"VENDORA_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"VENDORA_CRON_LOCK_TTL" default:"55m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"VENDORA_AUTO_MIGRATE" default:"false"`
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
