package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
	// E2E_INACTIVITY_WINDOW is how long a participant may stay silent
	// before the sweeper evicts it during the scenario
	InactivityWindow time.Duration `envconfig:"E2E_INACTIVITY_WINDOW" default:"150ms"`
	// E2E_SWEEP_INTERVAL is the sweeper firing period during the scenario
	SweepInterval time.Duration `envconfig:"E2E_SWEEP_INTERVAL" default:"50ms"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
