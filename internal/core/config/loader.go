package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if len(cfg.Networks) == 0 {
		return nil, fmt.Errorf("no networks configured")
	}

	// Set defaults if necessary
	for i := range cfg.Networks {
		n := &cfg.Networks[i]
		if n.Name == "" {
			return nil, fmt.Errorf("network %d has no name", i)
		}
		if n.ChainID == 0 {
			return nil, fmt.Errorf("network %s has no chain_id", n.Name)
		}
		if len(n.Providers) == 0 {
			return nil, fmt.Errorf("network %s has no providers", n.Name)
		}
		if n.Native.Symbol == "" {
			n.Native.Symbol = "ETH"
		}
		if n.Native.Decimals == 0 {
			n.Native.Decimals = 18
		}
		for j := range n.Providers {
			if n.Providers[j].Timeout == 0 {
				n.Providers[j].Timeout = 30 * time.Second
			}
		}
	}

	return &cfg, nil
}
