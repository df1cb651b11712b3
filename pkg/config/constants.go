package config

// Environment variable names used by Load and the test helpers.
const (
	EnvPrefix = ""

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv   = "CANTEEN_APP_ENV"
	EnvPort     = "CANTEEN_APP_PORT"
	EnvLogLevel = "CANTEEN_LOG_LEVEL"

	EnvDBDSN    = "CANTEEN_DB_DSN"
	EnvDBHost   = "CANTEEN_DB_HOST"
	EnvDBUser   = "CANTEEN_DB_USER"
	EnvDBName   = "CANTEEN_DB_NAME"
	EnvRedisURL = "CANTEEN_REDIS_URL"

	EnvJWTSecret              = "CANTEEN_JWT_SECRET"
	EnvJWTIssuer              = "CANTEEN_JWT_ISSUER"
	EnvJWTExpMins             = "CANTEEN_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "CANTEEN_REFRESH_TOKEN_TTL_MINUTES"

	EnvPaymentsCurrency        = "CANTEEN_PAYMENTS_CURRENCY"
	EnvPaymentsSandboxKeyID    = "CANTEEN_PAYMENTS_SANDBOX_KEY_ID"
	EnvPaymentsSandboxSecret   = "CANTEEN_PAYMENTS_SANDBOX_KEY_SECRET"
	EnvPaymentsSandboxFallback = "CANTEEN_PAYMENTS_ALLOW_SANDBOX_FALLBACK"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
