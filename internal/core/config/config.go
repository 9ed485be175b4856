package config

import (
	"time"

	redisclient "github.com/vietddude/realitymod/internal/infra/redis"
	"github.com/vietddude/realitymod/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Networks []NetworkConfig    `yaml:"networks"`
	Redis    redisclient.Config `yaml:"redis"`
	Logging  LoggingConfig      `yaml:"logging"`
	Database postgres.Config    `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	MetricsPort int `yaml:"metrics_port"` // 0 disables the metrics endpoint
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// NetworkConfig holds settings for one EVM network.
type NetworkConfig struct {
	Name       string           `yaml:"name"`
	ChainID    uint64           `yaml:"chain_id"`
	Module     string           `yaml:"module"`      // default module address for commands
	StartBlock uint64           `yaml:"start_block"` // earliest block answer scans start from
	Native     NativeAsset      `yaml:"native"`
	Providers  []ProviderConfig `yaml:"providers"`
}

// NativeAsset describes the network's native currency.
type NativeAsset struct {
	Symbol   string `yaml:"symbol"`
	Decimals uint8  `yaml:"decimals"`
}

// ProviderConfig holds settings for an RPC provider.
type ProviderConfig struct {
	Name    string        `yaml:"name"`
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Network returns the named network config, or nil if not configured.
func (c *AppConfig) Network(name string) *NetworkConfig {
	for i := range c.Networks {
		if c.Networks[i].Name == name {
			return &c.Networks[i]
		}
	}
	return nil
}
