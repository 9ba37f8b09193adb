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
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	PubSub       PubSubConfig
	Quiz         QuizConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"MEDUZZEN_APP_ENV" required:"true"`
	Port         string   `envconfig:"MEDUZZEN_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"MEDUZZEN_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"MEDUZZEN_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"MEDUZZEN_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"MEDUZZEN_DB_DSN"`

	MaxOpenConns    int           `envconfig:"MEDUZZEN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MEDUZZEN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MEDUZZEN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MEDUZZEN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db *DBConfig) validate() error {
	if db.DSN == "" {
		return fmt.Errorf("%s is required", EnvDBDSN)
	}
	if _, err := url.Parse(db.DSN); err != nil {
		return fmt.Errorf("invalid %s: %w", EnvDBDSN, err)
	}
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"MEDUZZEN_REDIS_URL" required:"true"`
	Password     string        `envconfig:"MEDUZZEN_REDIS_PASSWORD"`
	DB           int           `envconfig:"MEDUZZEN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MEDUZZEN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MEDUZZEN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MEDUZZEN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MEDUZZEN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MEDUZZEN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"MEDUZZEN_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"MEDUZZEN_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"MEDUZZEN_JWT_EXPIRATION_MINUTES" default:"30"`
	RefreshTokenTTLMinutes int    `envconfig:"MEDUZZEN_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MEDUZZEN_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MEDUZZEN_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MEDUZZEN_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MEDUZZEN_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MEDUZZEN_ARGON_KEY_LEN" default:"32"`
}

type PubSubConfig struct {
	ProjectID          string `envconfig:"MEDUZZEN_GCP_PROJECT_ID"`
	DomainTopic        string `envconfig:"MEDUZZEN_PUBSUB_DOMAIN_TOPIC" default:"meduzzen-domain-events"`
	DomainSubscription string `envconfig:"MEDUZZEN_PUBSUB_DOMAIN_SUBSCRIPTION" default:"meduzzen-domain-events-worker"`
}

type QuizConfig struct {
	AttemptCacheTTL time.Duration `envconfig:"MEDUZZEN_QUIZ_ATTEMPT_CACHE_TTL" default:"48h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MEDUZZEN_AUTO_MIGRATE" default:"false"`
}
