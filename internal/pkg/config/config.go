package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Store driver names accepted in STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Contact delete policies accepted in CONTACT_DELETE_POLICY.
const (
	DeleteCascade = "cascade"
	DeleteDetach  = "detach"
)

// Config holds all application configuration.
type Config struct {
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	APIServerAddr   string        `env:"API_SERVER_ADDR" envDefault:":8080"`
	AdminServerAddr string        `env:"ADMIN_SERVER_ADDR" envDefault:":9091"`
	StoreDriver     string        `env:"STORE_DRIVER" envDefault:"memory"`
	PostgresURL     string        `env:"POSTGRES_URL"`
	RedisAddr       string        `env:"REDIS_ADDR"` // empty disables the key cache
	KeyCacheTTL     time.Duration `env:"KEY_CACHE_TTL" envDefault:"5m"`
	MaxBodyBytes    int64         `env:"MAX_BODY_BYTES" envDefault:"1048576"` // 1MB
	TenantRPS       float64       `env:"TENANT_RATE_LIMIT_RPS" envDefault:"50"`
	TenantBurst     int           `env:"TENANT_RATE_LIMIT_BURST" envDefault:"100"`
	DeletePolicy    string        `env:"CONTACT_DELETE_POLICY" envDefault:"cascade"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverMemory:
	case DriverPostgres:
		if c.PostgresURL == "" {
			return fmt.Errorf("POSTGRES_URL is required when STORE_DRIVER=%s", DriverPostgres)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.DeletePolicy {
	case DeleteCascade, DeleteDetach:
	default:
		return fmt.Errorf("unknown CONTACT_DELETE_POLICY %q", c.DeletePolicy)
	}

	return nil
}
