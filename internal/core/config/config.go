package config

import (
	"time"

	"github.com/wayfarerhq/datacore/internal/core/domain"
	redisclient "github.com/wayfarerhq/datacore/internal/infra/redis"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Database DatabaseConfig     `yaml:"database"`
	Recovery RecoveryConfig     `yaml:"recovery"`
	Redis    redisclient.Config `yaml:"redis"`
	Logging  LoggingConfig      `yaml:"logging"`
}

// ServerConfig holds health/metrics server settings.
type ServerConfig struct {
	Port     int `yaml:"port"`      // HTTP health + metrics
	GRPCPort int `yaml:"grpc_port"` // gRPC health service, 0 = disabled
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DatabaseConfig is the settings-provider contract for the replica
// manager: one primary, a set of read replicas, and a feature toggle.
// It is read once at Initialize.
type DatabaseConfig struct {
	Primary             EndpointConfig          `yaml:"primary"`
	Replicas            []ReplicaEndpointConfig `yaml:"replicas"`
	ReadReplicasEnabled bool                    `yaml:"read_replicas_enabled"`
	HealthCheckInterval time.Duration           `yaml:"health_check_interval"`
	ProbeTimeout        time.Duration           `yaml:"probe_timeout"`
}

// EndpointConfig holds connection settings for the primary endpoint.
type EndpointConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

// ReplicaEndpointConfig holds settings for one read replica.
// Priority and Weight are carried for a future weighted selection
// extension; the baseline round-robin algorithm ignores them.
type ReplicaEndpointConfig struct {
	ID       string `yaml:"id"`
	URL      string `yaml:"url"`
	APIKey   string `yaml:"api_key"`
	Region   string `yaml:"region"`
	Priority int    `yaml:"priority"`
	Weight   int    `yaml:"weight"`
	MaxConns int    `yaml:"max_conns"`
	Enabled  bool   `yaml:"enabled"`
}

// RecoveryConfig holds error-recovery engine settings.
type RecoveryConfig struct {
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	CacheMaxEntries int           `yaml:"cache_max_entries"`
	RetryBaseDelay  time.Duration `yaml:"retry_base_delay"`
	RetryMaxDelay   time.Duration `yaml:"retry_max_delay"`
	HistoryLimit    int           `yaml:"history_limit"`
}

// Endpoints materializes the primary and enabled replica configs in
// declaration order, primary first.
func (c DatabaseConfig) Endpoints() []domain.ReplicaConfig {
	out := []domain.ReplicaConfig{{
		ID:      domain.PrimaryID,
		URL:     c.Primary.URL,
		APIKey:  c.Primary.APIKey,
		Enabled: true,
	}}
	if !c.ReadReplicasEnabled {
		return out
	}
	for _, r := range c.Replicas {
		if !r.Enabled {
			continue
		}
		out = append(out, domain.ReplicaConfig{
			ID:       r.ID,
			URL:      r.URL,
			APIKey:   r.APIKey,
			Region:   r.Region,
			Priority: r.Priority,
			Weight:   r.Weight,
			MaxConns: r.MaxConns,
			Enabled:  true,
		})
	}
	return out
}
