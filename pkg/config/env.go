package config

const (
	EnvPrefix = "HOPEFULTAIL"

	EnvAppEnv   = "HOPEFULTAIL_APP_ENV"
	EnvPort     = "HOPEFULTAIL_APP_PORT"
	EnvLogLevel = "HOPEFULTAIL_LOG_LEVEL"

	EnvDBDSN  = "HOPEFULTAIL_DB_DSN"
	EnvDBHost = "DB_HOST"
	EnvDBUser = "DB_USER"
	EnvDBName = "DB_NAME"

	EnvRedisURL = "HOPEFULTAIL_REDIS_URL"

	EnvJWTSecret              = "HOPEFULTAIL_JWT_SECRET"
	EnvJWTIssuer              = "HOPEFULTAIL_JWT_ISSUER"
	EnvJWTExpMins             = "HOPEFULTAIL_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "HOPEFULTAIL_REFRESH_TOKEN_TTL_MINUTES"

	EnvPaymentsProvider = "HOPEFULTAIL_PAYMENTS_PROVIDER"
	EnvPayOSClientID    = "PAYOS_CLIENT_ID"
	EnvPayOSAPIKey      = "PAYOS_API_KEY"
	EnvPayOSChecksumKey = "PAYOS_CHECKSUM_KEY"

	EnvSquareAccessToken = "HOPEFULTAIL_SQUARE_ACCESS_TOKEN"
	EnvSquareLocationID  = "HOPEFULTAIL_SQUARE_LOCATION_ID"

	EnvFrontendBaseURL = "HOPEFULTAIL_FRONTEND_BASE_URL"
	EnvGCSBucket       = "HOPEFULTAIL_GCS_BUCKET_NAME"
	EnvPubSubPayments  = "HOPEFULTAIL_PUBSUB_PAYMENTS_TOPIC"
)

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	PaymentProviderPayOS  = "payos"
	PaymentProviderSquare = "square"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
