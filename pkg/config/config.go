package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every runtime setting, read from the environment (and .env).
type Config struct {
	Port     string `envconfig:"PORT" default:"3000"`
	AppName  string `envconfig:"APP_NAME" default:"Inventory Ledger v1.0"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlite"` // postgres | sqlite
	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBHost      string `envconfig:"DB_HOST" default:"localhost"`
	DBUser      string `envconfig:"DB_USER"`
	DBPassword  string `envconfig:"DB_PASSWORD"`
	DBName      string `envconfig:"DB_NAME" default:"inventory"`
	DBPort      string `envconfig:"DB_PORT" default:"5432"`
	DBTimeZone  string `envconfig:"DB_TIMEZONE" default:"UTC"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"inventory.db"`
	DBLogLevel  string `envconfig:"DB_LOG_LEVEL" default:"warn"`

	SeedDefaults bool `envconfig:"SEED_DEFAULTS" default:"true"`

	KafkaBrokers string `envconfig:"KAFKA_BROKERS"` // empty disables publishing
	KafkaTopic   string `envconfig:"KAFKA_TOPIC" default:"inventory-events"`

	RecentTransactionsLimit int `envconfig:"RECENT_TRANSACTIONS_LIMIT" default:"100"`
	DefaultMinStock         int `envconfig:"DEFAULT_MIN_STOCK" default:"10"`
}

// Load reads .env when present and decodes the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want postgres or sqlite)", c.DBDriver)
	}
	if c.DefaultMinStock < 0 {
		return fmt.Errorf("DEFAULT_MIN_STOCK must be >= 0, got %d", c.DefaultMinStock)
	}
	if c.RecentTransactionsLimit <= 0 {
		return fmt.Errorf("RECENT_TRANSACTIONS_LIMIT must be > 0, got %d", c.RecentTransactionsLimit)
	}
	return nil
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == "sqlite" {
		return c.SQLitePath
	}
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBTimeZone,
	)
}
