package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_BADGER_DIR persists the ledger on disk, empty keeps it in memory
	BadgerDir string `envconfig:"E2E_BADGER_DIR"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
	// E2E_FORWARD_VALUE registers forwarders that relay attached value
	ForwardValue bool `envconfig:"E2E_FORWARD_VALUE" default:"false"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
