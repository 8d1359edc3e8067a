package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	// Server
	Port                   int    `mapstructure:"PORT"`
	Env                    string `mapstructure:"APP_ENV"` // development | production
	LogLevel               string `mapstructure:"LOG_LEVEL"`
	ShutdownTimeoutSeconds int    `mapstructure:"SHUTDOWN_TIMEOUT_SECONDS"`

	// State
	DBPath      string `mapstructure:"DB_PATH"`
	ScenarioDir string `mapstructure:"SCENARIO_DIR"`

	// Reports
	CapacityWorkers int `mapstructure:"CAPACITY_WORKERS"`

	// Events kept in memory for replay; older ones are dropped
	EventHistory int `mapstructure:"EVENT_HISTORY"`
}

// Load reads configuration from environment variables (and an optional .env file in dir).
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	if dir == "" {
		dir = "."
	}
	v.AddConfigPath(dir)
	v.AutomaticEnv()

	v.SetDefault("PORT", 8000)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 15)
	v.SetDefault("DB_PATH", "")
	v.SetDefault("SCENARIO_DIR", "")
	v.SetDefault("CAPACITY_WORKERS", 4)
	v.SetDefault("EVENT_HISTORY", 10000)

	// Optional .env file for local development; a missing file is not an error
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Port:                   8000,
		Env:                    "development",
		LogLevel:               "info",
		ShutdownTimeoutSeconds: 15,
		CapacityWorkers:        4,
		EventHistory:           10000,
	}
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ShutdownTimeout is the grace period for in-flight requests on shutdown
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}
