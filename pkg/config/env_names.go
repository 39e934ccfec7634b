package config

// EnvPrefix is applied by envconfig when processing the environment.
const EnvPrefix = "polybazaar"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv     = "POLYBAZAAR_APP_ENV"
	EnvPort       = "POLYBAZAAR_APP_PORT"
	EnvDBDSN      = "POLYBAZAAR_DB_DSN"
	EnvDBHost     = "POLYBAZAAR_DB_HOST"
	EnvDBUser     = "POLYBAZAAR_DB_USER"
	EnvDBName     = "POLYBAZAAR_DB_NAME"
	EnvRedisURL   = "POLYBAZAAR_REDIS_URL"
	EnvJWTSecret  = "POLYBAZAAR_JWT_SECRET"
	EnvJWTIssuer  = "POLYBAZAAR_JWT_ISSUER"
	EnvJWTExpMins = "POLYBAZAAR_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
