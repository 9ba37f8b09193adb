package config

const EnvPrefix = "MEDUZZEN"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Env var names referenced outside envconfig tags (tests, error messages).
const (
	EnvAppEnv    = "MEDUZZEN_APP_ENV"
	EnvPort      = "MEDUZZEN_APP_PORT"
	EnvDBDSN     = "MEDUZZEN_DB_DSN"
	EnvRedisURL  = "MEDUZZEN_REDIS_URL"
	EnvJWTSecret = "MEDUZZEN_JWT_SECRET"
	EnvJWTIssuer = "MEDUZZEN_JWT_ISSUER"
)
