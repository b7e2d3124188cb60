package config

import (
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

const (
	cmdDir    = "cmd"
	configDir = "configs"
)

// Config is the complete bootstrap configuration for one sLS cache
// instance, loaded from environment variables and a profile-named
// YAML file under configs/.
type Config struct {
	HTTPAddr string `mapstructure:"http_addr"`

	CachePrefix    string        `mapstructure:"cache_prefix"`
	LeaseCapacity  int           `mapstructure:"lease_capacity"`
	DefaultTTL     time.Duration `mapstructure:"default_ttl"`
	PruneThreshold time.Duration `mapstructure:"prune_threshold"`

	MySQLDSN string `mapstructure:"mysql_dsn"`

	RedisHost     string `mapstructure:"redis_host"`
	RedisPort     string `mapstructure:"redis_port"`
	RedisPassword string `mapstructure:"redis_password"`

	ReplicationRetention time.Duration `mapstructure:"replication_retention"`

	ArchiveCompressor   string `mapstructure:"archive_compressor"`    // "none", "lz4", "zstd", or "zstd-dd"
	ArchiveSnapshotPath string `mapstructure:"archive_snapshot_path"` // "" disables snapshot persistence

	CrypterKey string `mapstructure:"crypter_key"`
	CrypterIV  string `mapstructure:"crypter_iv"`

	SubscriptionFlushThreshold int           `mapstructure:"subscription_flush_threshold"`
	SubscriptionFlushInterval  time.Duration `mapstructure:"subscription_flush_interval"`
	BusAttemptTimeout          time.Duration `mapstructure:"bus_attempt_timeout"`

	SchedulerJitterFraction float64       `mapstructure:"scheduler_jitter_fraction"`
	SchedulerMaxTick        time.Duration `mapstructure:"scheduler_max_tick"`
	DistributedLock         bool          `mapstructure:"distributed_lock"`

	PruneInterval             time.Duration `mapstructure:"prune_interval"`
	FlushSweepInterval        time.Duration `mapstructure:"flush_sweep_interval"`
	ReplicationSyncInterval   time.Duration `mapstructure:"replication_sync_interval"`
	FanoutWorkerPoolSize      int           `mapstructure:"fanout_worker_pool_size"`
	FanoutWorkerQueueDepth    int           `mapstructure:"fanout_worker_queue_depth"`
}

// Read loads Config from environment variables and the YAML profile
// named by AppEnv(), looked up in the configs/ subdirectory that
// getConfigDirPath derives from the caller's location under cmd/.
func Read(cfg *Config) error {
	return read(cfg, AppEnv(), getConfigDirPath(2))
}

// ReadWithConfigDirPath loads Config from an explicit configs/ path,
// bypassing caller-relative resolution (used by tests).
func ReadWithConfigDirPath(cfg *Config, cfgDirPath string) error {
	return read(cfg, AppEnv(), cfgDirPath)
}

func read(cfg *Config, cfgName, cfgDirPath string) error {
	v := viper.New()
	v.AutomaticEnv()

	v.SetConfigName(cfgName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cfgDirPath)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return errors.Wrap(err, "read config file")
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return errors.Wrap(err, "parse config")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("lease_capacity", 0) // unbounded
	v.SetDefault("default_ttl", "5m")
	v.SetDefault("prune_threshold", "1m")
	v.SetDefault("archive_compressor", "none")
	v.SetDefault("archive_snapshot_path", "")
	v.SetDefault("subscription_flush_threshold", 10)
	v.SetDefault("subscription_flush_interval", "5s")
	v.SetDefault("bus_attempt_timeout", "8s")
	v.SetDefault("scheduler_jitter_fraction", 0.1)
	v.SetDefault("scheduler_max_tick", "5m")
	v.SetDefault("distributed_lock", false)
	v.SetDefault("replication_retention", "10m")
	v.SetDefault("prune_interval", "30s")
	v.SetDefault("flush_sweep_interval", "5s")
	v.SetDefault("replication_sync_interval", "2s")
	v.SetDefault("fanout_worker_pool_size", 4)
	v.SetDefault("fanout_worker_queue_depth", 256)
}

// getConfigDirPath maps the calling file's directory under cmd/ to the
// same subpath under configs/ (cmd/sls-server -> configs/sls-server),
// falling back to ./configs. The result is a relative path, resolved
// against the process's working directory.
func getConfigDirPath(skip int) string {
	_, file, _, _ := runtime.Caller(skip)
	dirList := strings.Split(filepath.ToSlash(filepath.Dir(file)), "/")
	dirPath := "./configs"

	for i, dir := range dirList {
		if dir == cmdDir {
			dirPath = filepath.Join(configDir, filepath.Join(dirList[i+1:]...))
			break
		}
	}
	return dirPath
}
