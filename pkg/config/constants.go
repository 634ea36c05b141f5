package config

const (
	EnvPrefix = "storefront"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	StoreDriverSQLite = "sqlite"
	StoreDriverRedis  = "redis"

	EnvAppEnv        = "STOREFRONT_APP_ENV"
	EnvLogLevel      = "STOREFRONT_LOG_LEVEL"
	EnvAPIBaseURL    = "STOREFRONT_API_BASE_URL"
	EnvStoreDriver   = "STOREFRONT_STORE_DRIVER"
	EnvStoreSQLite   = "STOREFRONT_STORE_SQLITE_PATH"
	EnvStoreRedisURL = "STOREFRONT_STORE_REDIS_URL"
	EnvAdminUsername = "STOREFRONT_ADMIN_USERNAME"
	EnvAdminPassword = "STOREFRONT_ADMIN_PASSWORD"
	EnvJWTSecret     = "STOREFRONT_JWT_SECRET"
	EnvMockAPIPort   = "STOREFRONT_MOCKAPI_PORT"
)
