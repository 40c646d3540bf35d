package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Config holds all application configuration, loaded from environment variables.
type Config struct {
	// MongoURI is the connection string for the document store. It must
	// address all three logical databases (activity, registry, crucible).
	MongoURI string `env:"MONGO_URI" validate:"required"`

	// Port is the HTTP listen port.
	Port int `env:"PORT" envDefault:"3000" validate:"gte=1,lte=65535"`

	// Timezone is the deployment constant used to bucket pivot rows into
	// months. Changing it shifts boundary-case rows between months.
	Timezone string `env:"TZ" envDefault:"America/Denver"`

	// DebugPivot forces the data-quality sampling side channel to run on
	// every pivot request instead of being sampled at <=1%.
	DebugPivot bool `env:"DEBUG_PIVOT" envDefault:"false"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// CORSAllowedOrigins lists origins permitted to call the JSON/CSV
	// endpoints from a browser-based dashboard.
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// CacheTTLSeconds is the default response-cache TTL.
	CacheTTLSeconds int `env:"CACHE_TTL_SECONDS" envDefault:"600" validate:"gte=0"`

	// RequestTimeoutSeconds bounds each aggregation's deadline.
	RequestTimeoutSeconds int `env:"REQUEST_TIMEOUT_SECONDS" envDefault:"30" validate:"gte=1"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config from env: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// ListenAddr returns the address the HTTP server should listen on.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
