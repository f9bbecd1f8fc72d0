package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	HTTP         HTTPConfig
	DB           DBConfig
	Redis        RedisConfig
	Uploads      UploadsConfig
	Cron         CronConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if port := strings.TrimSpace(os.Getenv(EnvPlatformPort)); port != "" {
		cfg.App.Port = port
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MOVIES_APP_ENV" default:"dev"`
	Port         string `envconfig:"MOVIES_APP_PORT" default:"3000"`
	LogLevel     string `envconfig:"MOVIES_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MOVIES_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"MOVIES_SERVICE_KIND" default:"api"`
}

// HTTPConfig leaves request read and write timeouts off unless set.
type HTTPConfig struct {
	ReadHeaderTimeout time.Duration `envconfig:"MOVIES_HTTP_READ_HEADER_TIMEOUT" default:"10s"`
	ReadTimeout       time.Duration `envconfig:"MOVIES_HTTP_READ_TIMEOUT" default:"0"`
	WriteTimeout      time.Duration `envconfig:"MOVIES_HTTP_WRITE_TIMEOUT" default:"0"`
	IdleTimeout       time.Duration `envconfig:"MOVIES_HTTP_IDLE_TIMEOUT" default:"120s"`
	ShutdownTimeout   time.Duration `envconfig:"MOVIES_HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
}

type DBConfig struct {
	DSN    string `envconfig:"MOVIES_DB_DSN"`
	Driver string `envconfig:"MOVIES_DB_DRIVER"`
	Name   string `envconfig:"MOVIES_DB_NAME" default:"moviedb"`

	// LegacyMongoURI is the connection string variable read by the first release.
	LegacyMongoURI string `envconfig:"MONGOURI"`

	ConnectTimeout  time.Duration `envconfig:"MOVIES_DB_CONNECT_TIMEOUT" default:"10s"`
	MaxOpenConns    int           `envconfig:"MOVIES_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MOVIES_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MOVIES_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MOVIES_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsMongo reports whether records live in a Mongo collection.
func (db DBConfig) IsMongo() bool {
	return db.Driver == DriverMongo
}

// IsSQL reports whether records live in a SQL table managed through GORM.
func (db DBConfig) IsSQL() bool {
	return db.Driver == DriverPostgres || db.Driver == DriverSQLite
}

type RedisConfig struct {
	URL          string        `envconfig:"MOVIES_REDIS_URL"`
	Address      string        `envconfig:"MOVIES_REDIS_ADDR"`
	Password     string        `envconfig:"MOVIES_REDIS_PASSWORD"`
	DB           int           `envconfig:"MOVIES_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MOVIES_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MOVIES_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MOVIES_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MOVIES_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MOVIES_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type UploadsConfig struct {
	Dir         string `envconfig:"MOVIES_UPLOADS_DIR" default:"uploads"`
	URLPrefix   string `envconfig:"MOVIES_UPLOADS_URL_PREFIX" default:"/uploads"`
	FieldName   string `envconfig:"MOVIES_UPLOADS_FIELD" default:"image"`
	MaxMemoryMB int64  `envconfig:"MOVIES_UPLOADS_MAX_MEMORY_MB" default:"32"`
	// MaxUploadMB caps the request body; 0 leaves uploads unbounded.
	MaxUploadMB      int64         `envconfig:"MOVIES_UPLOADS_MAX_UPLOAD_MB" default:"0"`
	SweepGracePeriod time.Duration `envconfig:"MOVIES_UPLOADS_SWEEP_GRACE" default:"1h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"MOVIES_CRON_INTERVAL" default:"24h"`
	LockTTL  time.Duration `envconfig:"MOVIES_CRON_LOCK_TTL" default:"1h"`
}

// RateLimitConfig throttles requests per client IP. Off unless
// MOVIES_RATE_LIMIT_REQUESTS is set.
type RateLimitConfig struct {
	Requests int           `envconfig:"MOVIES_RATE_LIMIT_REQUESTS" default:"0"`
	Window   time.Duration `envconfig:"MOVIES_RATE_LIMIT_WINDOW" default:"1m"`
}

// Enabled reports whether request throttling is active.
func (r RateLimitConfig) Enabled() bool {
	return r.Requests > 0 && r.Window > 0
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MOVIES_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN == "" {
		db.DSN = db.LegacyMongoURI
	}
	if db.DSN == "" {
		db.DSN = DefaultDSN
	}

	driver := strings.ToLower(strings.TrimSpace(db.Driver))
	if driver == "" {
		inferred, err := inferDriver(db.DSN)
		if err != nil {
			return err
		}
		driver = inferred
	}

	switch driver {
	case DriverMongo, DriverPostgres, DriverSQLite:
	case "mongodb":
		driver = DriverMongo
	case "postgresql":
		driver = DriverPostgres
	case "sqlite3":
		driver = DriverSQLite
	default:
		return fmt.Errorf("unsupported %s %q", EnvDBDriver, db.Driver)
	}
	db.Driver = driver
	return nil
}

func inferDriver(dsn string) (string, error) {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	switch {
	case strings.HasPrefix(lower, "file:"),
		strings.HasSuffix(lower, ".db"),
		strings.HasSuffix(lower, ".sqlite"),
		lower == ":memory:":
		return DriverSQLite, nil
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", EnvDBDSN, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "mongodb", "mongodb+srv":
		return DriverMongo, nil
	case "postgres", "postgresql":
		return DriverPostgres, nil
	}
	return "", fmt.Errorf("cannot infer database driver from %s; set %s", EnvDBDSN, EnvDBDriver)
}
