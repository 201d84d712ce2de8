package config

const (
	EnvPrefix = "CIVICTRACK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv      = "CIVICTRACK_APP_ENV"
	EnvPort        = "CIVICTRACK_APP_PORT"
	EnvLogLevel    = "CIVICTRACK_LOG_LEVEL"
	EnvCORSOrigins = "CIVICTRACK_CORS_ALLOWED_ORIGINS"

	EnvDBDSN  = "CIVICTRACK_DB_DSN"
	EnvDBHost = "CIVICTRACK_DB_HOST"
	EnvDBUser = "CIVICTRACK_DB_USER"
	EnvDBName = "CIVICTRACK_DB_NAME"

	EnvRedisURL = "CIVICTRACK_REDIS_URL"

	EnvJWTSecret               = "CIVICTRACK_JWT_SECRET"
	EnvJWTRefreshSecret        = "CIVICTRACK_JWT_REFRESH_SECRET"
	EnvJWTIssuer               = "CIVICTRACK_JWT_ISSUER"
	EnvJWTExpMins              = "CIVICTRACK_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes  = "CIVICTRACK_REFRESH_TOKEN_TTL_MINUTES"
	EnvImageKitPrivateKey      = "CIVICTRACK_IMAGEKIT_PRIVATE_KEY"
	EnvImageKitURLEndpoint     = "CIVICTRACK_IMAGEKIT_URL_ENDPOINT"
	EnvUploadMaxBytes          = "CIVICTRACK_UPLOAD_MAX_BYTES"
	EnvCacheCategoriesTTL      = "CIVICTRACK_CACHE_CATEGORIES_TTL"
	EnvAuthRateLimitLoginLimit = "CIVICTRACK_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
