// Package config provides configuration loading for the coordination layer.
//
// Precedence: defaults → YAML file → environment overrides. Library code
// never reads ambient state itself; the resolved Config is passed explicitly
// into the network constructor.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wisent-ai/agentnet/store"
)

// EnvDataDir overrides the shared data directory when set.
const EnvDataDir = "AGENTNET_DATA_DIR"

// MessagingConfig configures the messaging channel.
type MessagingConfig struct {
	// MaxQueue is the per-inbox message cap.
	MaxQueue int `yaml:"max_queue"`
}

// DiscoveryConfig configures capability matching and liveness.
type DiscoveryConfig struct {
	// MatchThreshold is the minimum capability match score.
	MatchThreshold float64 `yaml:"match_threshold"`

	// StaleThreshold is how long after the last heartbeat an agent still
	// counts as online.
	StaleThreshold time.Duration `yaml:"stale_threshold"`
}

// MetricsConfig configures operation metrics.
type MetricsConfig struct {
	// Enabled turns prometheus collection on.
	Enabled bool `yaml:"enabled"`

	// Namespace prefixes all metric names.
	Namespace string `yaml:"namespace"`
}

// Config is the complete configuration for a coordination session.
type Config struct {
	// DataDir is the shared data directory all agents coordinate through.
	DataDir string `yaml:"data_dir"`

	// Store selects and configures the storage backend.
	Store store.StoreConfig `yaml:"store"`

	// Messaging configures the messaging channel.
	Messaging MessagingConfig `yaml:"messaging"`

	// Discovery configures matching and liveness.
	Discovery DiscoveryConfig `yaml:"discovery"`

	// Metrics configures operation metrics.
	Metrics MetricsConfig `yaml:"metrics"`
}

// DefaultConfig returns the default configuration: file-backed storage under
// ~/.agentnet.
func DefaultConfig() *Config {
	dataDir := defaultDataDir()
	storeCfg := store.DefaultStoreConfig()
	storeCfg.DataDir = dataDir
	return &Config{
		DataDir: dataDir,
		Store:   storeCfg,
		Messaging: MessagingConfig{
			MaxQueue: 1000,
		},
		Discovery: DiscoveryConfig{
			MatchThreshold: 0.3,
			StaleThreshold: 24 * time.Hour,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "agentnet",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".agentnet"
	}
	return filepath.Join(home, ".agentnet")
}

// Load builds a Config from defaults, the optional YAML file at path, and
// environment overrides, in that order.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if dir := os.Getenv(EnvDataDir); dir != "" {
		cfg.DataDir = dir
	}

	cfg.normalize()
	return cfg, nil
}

// normalize keeps the store configuration consistent with the top-level
// data directory.
func (c *Config) normalize() {
	if c.Store.DataDir == "" || c.Store.DataDir == defaultDataDir() {
		c.Store.DataDir = c.DataDir
	}
	if c.Messaging.MaxQueue <= 0 {
		c.Messaging.MaxQueue = 1000
	}
	if c.Discovery.MatchThreshold <= 0 {
		c.Discovery.MatchThreshold = 0.3
	}
	if c.Discovery.StaleThreshold <= 0 {
		c.Discovery.StaleThreshold = 24 * time.Hour
	}
}
