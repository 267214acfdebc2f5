package config

// EnvPrefix is handed to envconfig; every tag spells its full variable name.
const EnvPrefix = "SALESDESK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "SALESDESK_APP_ENV"
	EnvPort     = "SALESDESK_APP_PORT"
	EnvLogLevel = "SALESDESK_LOG_LEVEL"

	EnvDBDSN  = "SALESDESK_DB_DSN"
	EnvDBHost = "SALESDESK_DB_HOST"
	EnvDBUser = "SALESDESK_DB_USER"
	EnvDBName = "SALESDESK_DB_NAME"

	EnvRedisURL = "SALESDESK_REDIS_URL"

	EnvJWTSecret  = "SALESDESK_JWT_SECRET"
	EnvJWTIssuer  = "SALESDESK_JWT_ISSUER"
	EnvJWTExpMins = "SALESDESK_JWT_EXPIRATION_MINUTES"

	EnvUseSQLite = "SALESDESK_USE_SQLITE"

	EnvManualPriceThreshold = "SALESDESK_MANUAL_PRICE_THRESHOLD"
	EnvTaxRate              = "SALESDESK_TAX_RATE"
	EnvCurrency             = "SALESDESK_CURRENCY"
	EnvLocale               = "SALESDESK_LOCALE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
