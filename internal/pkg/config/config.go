package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET, required"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	AppURL    string `env:"APP_URL,   default=http://localhost:3000"`

	Session  SessionConfig
	Security SecurityConfig
	Mail     MailConfig
	Mongo    MongoConfig
	Redis    RedisConfig
}

type SessionConfig struct {
	CookieName string `env:"COOKIE_NAME, default=AUTH_TOKEN"`
}

type SecurityConfig struct {
	LockoutThreshold   int           `env:"LOCKOUT_THRESHOLD,     default=5"`
	LockoutWindow      time.Duration `env:"LOCKOUT_WINDOW,        default=15m"`
	BcryptCost         int           `env:"BCRYPT_COST,           default=10"`
	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE, default=10"`
}

type MailConfig struct {
	Workers int `env:"MAIL_WORKERS, default=4"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=festapp"`
	AppName  string `env:"MONGO_APP_NAME, default=festapp-identity"`
}

type RedisConfig struct {
	Addr        string `env:"REDIS_ADDR, default=localhost:6379"`
	Password    string `env:"REDIS_PASSWORD"`
	DB          int    `env:"REDIS_DB,   default=0"`
	RoleChannel string `env:"ROLE_EVENTS_CHANNEL, default=identity:role-changed"`
}

// IsProduction reports whether cookies must be marked Secure.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) validate() error {
	if c.Security.LockoutThreshold < 1 {
		return errors.New("LOCKOUT_THRESHOLD must be at least 1")
	}
	if c.Security.LockoutWindow <= 0 {
		return errors.New("LOCKOUT_WINDOW must be positive")
	}
	if c.Session.CookieName == "" {
		return errors.New("COOKIE_NAME must not be empty")
	}
	return nil
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith is Load with an explicit lookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
