package app

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/vitorynet/configbot/core/config"
	coredatabase "github.com/vitorynet/configbot/core/database"
)

// PaymentConfig holds the card requisites shown on the order summary.
type PaymentConfig struct {
	CardNumber string `yaml:"card_number" envconfig:"PAYMENT_CARD_NUMBER"`
	CardHolder string `yaml:"card_holder" envconfig:"PAYMENT_CARD_HOLDER"`
}

// Config is the full bot configuration: core framework settings plus the
// shop-specific sections.
type Config struct {
	Core     coreconfig.Config   `yaml:",inline"`
	Database coredatabase.Config `yaml:"database"`
	Payment  PaymentConfig       `yaml:"payment"`
}

// CoreConfig exposes the embedded framework configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Core
}

// Load reads configuration from a YAML file, applies environment overrides,
// and validates it.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	if cfg.Payment.CardNumber == "" {
		return nil, fmt.Errorf("payment.card_number is required")
	}
	if cfg.Payment.CardHolder == "" {
		return nil, fmt.Errorf("payment.card_holder is required")
	}
	return &cfg, nil
}
