package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "VENDORA"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names referenced outside envconfig tags (tests, error
// messages).
const (
	EnvAppEnv     = "VENDORA_APP_ENV"
	EnvPort       = "VENDORA_APP_PORT"
	EnvDBDSN      = "VENDORA_DB_DSN"
	EnvDBHost     = "VENDORA_DB_HOST"
	EnvDBUser     = "VENDORA_DB_USER"
	EnvDBName     = "VENDORA_DB_NAME"
	EnvRedisURL   = "VENDORA_REDIS_URL"
	EnvJWTSecret  = "VENDORA_JWT_SECRET"
	EnvJWTIssuer  = "VENDORA_JWT_ISSUER"
	EnvJWTExpMins = "VENDORA_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
