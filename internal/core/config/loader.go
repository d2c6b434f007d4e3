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

	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills zero-valued settings with their defaults.
func (c *AppConfig) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.HealthCheckInterval == 0 {
		c.Database.HealthCheckInterval = 60 * time.Second
	}
	if c.Database.ProbeTimeout == 0 {
		c.Database.ProbeTimeout = 5 * time.Second
	}
	if c.Recovery.CacheTTL == 0 {
		c.Recovery.CacheTTL = time.Hour
	}
	if c.Recovery.CacheMaxEntries == 0 {
		c.Recovery.CacheMaxEntries = 1000
	}
	if c.Recovery.RetryBaseDelay == 0 {
		c.Recovery.RetryBaseDelay = time.Second
	}
	if c.Recovery.RetryMaxDelay == 0 {
		c.Recovery.RetryMaxDelay = 30 * time.Second
	}
	if c.Recovery.HistoryLimit == 0 {
		c.Recovery.HistoryLimit = 500
	}
}
