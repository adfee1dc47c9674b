package config

const (
	EnvPrefix = "MEDIBILL"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	EnvAppEnv   = "MEDIBILL_APP_ENV"
	EnvPort     = "MEDIBILL_APP_PORT"
	EnvLogLevel = "MEDIBILL_LOG_LEVEL"

	EnvDBDSN    = "MEDIBILL_DB_DSN"
	EnvDBDriver = "MEDIBILL_DB_DRIVER"
	EnvDBHost   = "MEDIBILL_DB_HOST"
	EnvDBUser   = "MEDIBILL_DB_USER"
	EnvDBName   = "MEDIBILL_DB_NAME"

	EnvRedisURL = "MEDIBILL_REDIS_URL"

	EnvJWTSecret  = "MEDIBILL_JWT_SECRET"
	EnvJWTIssuer  = "MEDIBILL_JWT_ISSUER"
	EnvJWTExpMins = "MEDIBILL_JWT_EXPIRATION_MINUTES"

	EnvPOSTaxRate      = "MEDIBILL_POS_TAX_RATE"
	EnvPOSCardDelay    = "MEDIBILL_POS_CARD_DELAY"
	EnvPOSDeclineAbove = "MEDIBILL_POS_DECLINE_ABOVE"

	EnvCORSOrigins   = "MEDIBILL_CORS_ORIGINS"
	EnvThrottleRPS   = "MEDIBILL_THROTTLE_RPS"
	EnvThrottleBurst = "MEDIBILL_THROTTLE_BURST"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
