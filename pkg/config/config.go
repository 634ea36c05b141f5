package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	API     APIConfig
	Store   StoreConfig
	Session SessionConfig
	Cart    CartConfig
	JWT     JWTConfig
	MockAPI MockAPIConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type APIConfig struct {
	BaseURL string        `envconfig:"STOREFRONT_API_BASE_URL" default:"http://localhost:8080"`
	Timeout time.Duration `envconfig:"STOREFRONT_API_TIMEOUT" default:"10s"`
}

type StoreConfig struct {
	Driver     string        `envconfig:"STOREFRONT_STORE_DRIVER" default:"sqlite"`
	SQLitePath string        `envconfig:"STOREFRONT_STORE_SQLITE_PATH" default:"storefront.db"`
	RedisURL   string        `envconfig:"STOREFRONT_STORE_REDIS_URL"`
	RedisDB    int           `envconfig:"STOREFRONT_STORE_REDIS_DB" default:"0"`
	RedisPool  int           `envconfig:"STOREFRONT_STORE_REDIS_POOL_SIZE" default:"5"`
	RedisDial  time.Duration `envconfig:"STOREFRONT_STORE_REDIS_DIAL_TIMEOUT" default:"5s"`
}

func (s StoreConfig) UseRedis() bool {
	return strings.EqualFold(s.Driver, StoreDriverRedis)
}

func (s *StoreConfig) validate() error {
	driver := strings.ToLower(strings.TrimSpace(s.Driver))
	switch driver {
	case StoreDriverSQLite, StoreDriverRedis:
	default:
		return fmt.Errorf("unsupported store driver %q", s.Driver)
	}
	s.Driver = driver
	if driver == StoreDriverRedis && s.RedisURL == "" {
		return fmt.Errorf("%s is required when the redis store driver is selected", EnvStoreRedisURL)
	}
	return nil
}

type SessionConfig struct {
	AdminUsername     string `envconfig:"STOREFRONT_ADMIN_USERNAME" default:"admin"`
	AdminPassword     string `envconfig:"STOREFRONT_ADMIN_PASSWORD" default:"admin123"`
	AdminPasswordHash string `envconfig:"STOREFRONT_ADMIN_PASSWORD_HASH"`
}

type CartConfig struct {
	DebounceWindow time.Duration `envconfig:"STOREFRONT_CART_DEBOUNCE_WINDOW" default:"800ms"`
	SettleDelay    time.Duration `envconfig:"STOREFRONT_CART_SETTLE_DELAY" default:"1s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STOREFRONT_JWT_SECRET" default:"dev-secret"`
	Issuer            string `envconfig:"STOREFRONT_JWT_ISSUER" default:"storefront"`
	ExpirationMinutes int    `envconfig:"STOREFRONT_JWT_EXPIRATION_MINUTES" default:"60"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type MockAPIConfig struct {
	Port string `envconfig:"STOREFRONT_MOCKAPI_PORT" default:"8080"`
}
