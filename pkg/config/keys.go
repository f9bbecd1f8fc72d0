package config

const EnvPrefix = "MOVIES"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DefaultDSN points at a local Mongo instance, matching the service's historical default.
const DefaultDSN = "mongodb://localhost:27017/moviedb"

const (
	EnvAppEnv         = "MOVIES_APP_ENV"
	EnvPort           = "MOVIES_APP_PORT"
	EnvPlatformPort   = "PORT"
	EnvLogLevel       = "MOVIES_LOG_LEVEL"
	EnvDBDSN          = "MOVIES_DB_DSN"
	EnvDBDriver       = "MOVIES_DB_DRIVER"
	EnvDBName         = "MOVIES_DB_NAME"
	EnvLegacyMongoURI = "MONGOURI"
	EnvRedisURL       = "MOVIES_REDIS_URL"
	EnvUploadsDir     = "MOVIES_UPLOADS_DIR"
	EnvUploadsPrefix  = "MOVIES_UPLOADS_URL_PREFIX"
	EnvUploadsField   = "MOVIES_UPLOADS_FIELD"
	EnvCronInterval   = "MOVIES_CRON_INTERVAL"
	EnvAutoMigrate    = "MOVIES_AUTO_MIGRATE"
)
