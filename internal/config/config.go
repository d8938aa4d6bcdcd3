// Package config loads the process configuration from environment
// variables, with an optional .env file for development. Command line
// flags override whatever is loaded here.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full process configuration.
type Config struct {
	// RendererPath is the MathJax renderer script launched in stdio
	// mode as the typesetting backend.
	RendererPath string `env:"EQSVG_RENDERER" envDefault:"eqsvg-renderer"`

	// Port is the HTTP listen port for serve mode.
	Port int `env:"EQSVG_PORT" envDefault:"18080"`

	// LogLevel follows logrus level names (debug, info, warn, error).
	LogLevel string `env:"LOG_LEVEL" envDefault:"warn"`
}

// Load reads .env (if present) and parses the environment.
func Load() (*Config, error) {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
