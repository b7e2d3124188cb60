package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestReadWithConfigDirPath_AppliesDefaultsWhenFileMissing(t *testing.T) {
	var cfg Config
	if err := ReadWithConfigDirPath(&cfg, t.TempDir()); err != nil {
		t.Fatalf("ReadWithConfigDirPath: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.DefaultTTL != 5*time.Minute {
		t.Errorf("DefaultTTL = %v, want 5m", cfg.DefaultTTL)
	}
	if cfg.ArchiveCompressor != "none" {
		t.Errorf("ArchiveCompressor = %q, want none", cfg.ArchiveCompressor)
	}
	if cfg.SubscriptionFlushThreshold != 10 {
		t.Errorf("SubscriptionFlushThreshold = %d, want 10", cfg.SubscriptionFlushThreshold)
	}
	if cfg.SchedulerMaxTick != 5*time.Minute {
		t.Errorf("SchedulerMaxTick = %v, want 5m", cfg.SchedulerMaxTick)
	}
	if cfg.PruneInterval != 30*time.Second {
		t.Errorf("PruneInterval = %v, want 30s", cfg.PruneInterval)
	}
	if cfg.FlushSweepInterval != 5*time.Second {
		t.Errorf("FlushSweepInterval = %v, want 5s", cfg.FlushSweepInterval)
	}
	if cfg.ReplicationSyncInterval != 2*time.Second {
		t.Errorf("ReplicationSyncInterval = %v, want 2s", cfg.ReplicationSyncInterval)
	}
	if cfg.FanoutWorkerPoolSize != 4 {
		t.Errorf("FanoutWorkerPoolSize = %d, want 4", cfg.FanoutWorkerPoolSize)
	}
	if cfg.FanoutWorkerQueueDepth != 256 {
		t.Errorf("FanoutWorkerQueueDepth = %d, want 256", cfg.FanoutWorkerQueueDepth)
	}
}

func TestReadWithConfigDirPath_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	yaml := "http_addr: \":9090\"\ncache_prefix: \"test-cache\"\nlease_capacity: 500\n"
	if err := os.WriteFile(filepath.Join(dir, DefaultEnv+".yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config fixture: %v", err)
	}

	var cfg Config
	if err := ReadWithConfigDirPath(&cfg, dir); err != nil {
		t.Fatalf("ReadWithConfigDirPath: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want :9090", cfg.HTTPAddr)
	}
	if cfg.CachePrefix != "test-cache" {
		t.Errorf("CachePrefix = %q, want test-cache", cfg.CachePrefix)
	}
	if cfg.LeaseCapacity != 500 {
		t.Errorf("LeaseCapacity = %d, want 500", cfg.LeaseCapacity)
	}
}

func TestAppEnv_DefaultsWhenUnset(t *testing.T) {
	os.Unsetenv(EnvKey)
	if got := AppEnv(); got != DefaultEnv {
		t.Errorf("AppEnv() = %q, want %q", got, DefaultEnv)
	}
}

func TestAppEnv_HonorsEnvironmentOverride(t *testing.T) {
	os.Setenv(EnvKey, "staging")
	defer os.Unsetenv(EnvKey)
	if got := AppEnv(); got != "staging" {
		t.Errorf("AppEnv() = %q, want staging", got)
	}
}
