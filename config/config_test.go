package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wisent-ai/agentnet/store"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Store.Type != store.StoreTypeFile {
		t.Errorf("expected file backend by default, got %s", cfg.Store.Type)
	}
	if cfg.Store.DataDir != cfg.DataDir {
		t.Error("store data dir must follow the top-level data dir")
	}
	if cfg.Messaging.MaxQueue != 1000 {
		t.Errorf("expected max queue 1000, got %d", cfg.Messaging.MaxQueue)
	}
	if cfg.Discovery.MatchThreshold != 0.3 {
		t.Errorf("expected match threshold 0.3, got %f", cfg.Discovery.MatchThreshold)
	}
	if cfg.Discovery.StaleThreshold != 24*time.Hour {
		t.Errorf("expected stale threshold 24h, got %s", cfg.Discovery.StaleThreshold)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Namespace != "agentnet" {
		t.Error("metrics should default to enabled under the agentnet namespace")
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentnet.yaml")
	body := `
data_dir: /srv/agents
store:
  type: sqlite
messaging:
  max_queue: 50
discovery:
  match_threshold: 0.5
metrics:
  enabled: false
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.DataDir != "/srv/agents" {
		t.Errorf("expected /srv/agents, got %s", cfg.DataDir)
	}
	if cfg.Store.Type != store.StoreTypeSQLite {
		t.Errorf("expected sqlite backend, got %s", cfg.Store.Type)
	}
	if cfg.Store.DataDir != "/srv/agents" {
		t.Errorf("store data dir should follow data_dir, got %s", cfg.Store.DataDir)
	}
	if cfg.Messaging.MaxQueue != 50 {
		t.Errorf("expected max queue 50, got %d", cfg.Messaging.MaxQueue)
	}
	if cfg.Discovery.MatchThreshold != 0.5 {
		t.Errorf("expected threshold 0.5, got %f", cfg.Discovery.MatchThreshold)
	}
	if cfg.Metrics.Enabled {
		t.Error("metrics should be disabled by the file")
	}
	// Unset fields keep their defaults.
	if cfg.Discovery.StaleThreshold != 24*time.Hour {
		t.Errorf("unset stale threshold should keep default, got %s", cfg.Discovery.StaleThreshold)
	}
}

func TestLoad_EnvOverridesDataDir(t *testing.T) {
	t.Setenv(EnvDataDir, "/env/agents")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/env/agents" {
		t.Errorf("env should override data dir, got %s", cfg.DataDir)
	}
	if cfg.Store.DataDir != "/env/agents" {
		t.Errorf("store data dir should follow, got %s", cfg.Store.DataDir)
	}
}

func TestLoad_MissingFileFails(t *testing.T) {
	if _, err := Load("/no/such/config.yaml"); err == nil {
		t.Error("explicit missing config file must be an error")
	}
}

func TestNormalize_RepairsBadValues(t *testing.T) {
	cfg := &Config{DataDir: "/d"}
	cfg.normalize()

	if cfg.Messaging.MaxQueue != 1000 {
		t.Errorf("zero max queue should repair to 1000, got %d", cfg.Messaging.MaxQueue)
	}
	if cfg.Discovery.MatchThreshold != 0.3 {
		t.Errorf("zero threshold should repair to 0.3, got %f", cfg.Discovery.MatchThreshold)
	}
	if cfg.Store.DataDir != "/d" {
		t.Errorf("empty store data dir should follow data dir, got %s", cfg.Store.DataDir)
	}
}
