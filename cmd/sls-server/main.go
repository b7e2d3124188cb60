// Command sls-server boots one sLS cache instance: it wires config,
// storage, the Lease Manager, the Registration/Edit/Query services,
// the Subscription Manager, and the Maintenance Scheduler into a
// single HTTP listener.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"sls/auth"
	"sls/bus"
	"sls/compressor"
	"sls/config"
	"sls/crypter"
	"sls/edit"
	"sls/httpapi"
	"sls/lease"
	"sls/lookup"
	"sls/maintenance"
	"sls/registration"
	"sls/replication"
	"sls/store"
	"sls/subscription"
	"sls/uri"
	"sls/workerpool"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		host       = flag.String("host", "", "bind host")
		port       = flag.String("port", "", "bind port, overrides config http_addr when set")
		logLevel   = flag.String("log-level", "info", "log level: debug, info, warn, error")
		configPath = flag.String("config-dir", "", "explicit configs/ directory, bypasses caller-relative resolution")
	)
	flag.Parse()

	log := logrus.New()
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	entry := logrus.NewEntry(log)

	var cfg config.Config
	if *configPath != "" {
		err = config.ReadWithConfigDirPath(&cfg, *configPath)
	} else {
		err = config.Read(&cfg)
	}
	if err != nil {
		entry.WithError(err).Error("failed to load configuration")
		return 2
	}
	if *port != "" {
		cfg.HTTPAddr = *host + ":" + *port
	}

	crypt, err := crypter.NewAes(cfg.CrypterKey, cfg.CrypterIV)
	if err != nil {
		entry.WithError(err).Error("failed to initialize crypter")
		return 2
	}
	authorizer := auth.NewSealedTokenAuthorizer(crypt)

	leases := lease.New(cfg.LeaseCapacity, cfg.DefaultTTL)

	var liveStore store.Store = store.NewMemory()
	if cfg.MySQLDSN != "" {
		dsn, err := gomysql.ParseDSN(cfg.MySQLDSN)
		if err != nil {
			entry.WithError(err).Error("failed to parse mysql_dsn")
			return 2
		}
		db, err := store.NewMySQLClient(*dsn)
		if err != nil {
			entry.WithError(err).Error("failed to connect to mysql")
			return 2
		}
		liveStore = store.NewMySQL(db)
	}

	codec, err := compressor.ByName(cfg.ArchiveCompressor)
	if err != nil {
		entry.WithError(err).Error("failed to initialize archive compressor")
		return 2
	}
	archiveStore := store.NewArchive(codec, cfg.ArchiveSnapshotPath)
	if err := archiveStore.LoadSnapshot(); err != nil {
		entry.WithError(err).Warn("failed to load archive snapshot, starting empty")
	}

	fanoutPool := workerpool.New(cfg.FanoutWorkerPoolSize, cfg.FanoutWorkerQueueDepth, entry)

	busClient := bus.New(&http.Client{Timeout: cfg.BusAttemptTimeout}, entry)
	subs := subscription.New(busClient, cfg.SubscriptionFlushThreshold, cfg.SubscriptionFlushInterval, fanoutPool, entry)

	var repl replication.Replicator
	var leader maintenance.Leader
	if cfg.RedisHost != "" {
		repl = replication.NewRedis(replication.RedisConfig{
			Host:               cfg.RedisHost,
			Port:               cfg.RedisPort,
			Password:           cfg.RedisPassword,
			PoolMaxIdle:        10,
			PoolMaxActive:      50,
			PoolIdleTimeout:    5 * time.Minute,
			DialMaxElapsedTime: 10 * time.Second,
			RetentionWindow:    cfg.ReplicationRetention,
		}, entry)
		if cfg.DistributedLock {
			rc := goredis.NewClient(&goredis.Options{
				Addr:     cfg.RedisHost + ":" + cfg.RedisPort,
				Password: cfg.RedisPassword,
			})
			leader = maintenance.NewRedisLeader(rc, "scheduler", 30*time.Second)
		}
	} else {
		repl = replication.NewMemory(256, 50*time.Millisecond)
	}
	notify := replication.NewFanout(subs, repl, fanoutPool, entry)

	gen := uri.New(cfg.CachePrefix)
	registerSvc := registration.New(liveStore, leases, authorizer, gen, notify, entry)
	editSvc := edit.New(liveStore, leases, authorizer, notify, archiveStore, entry)
	lookupSvc := lookup.New(liveStore, archiveStore)

	jobs := []maintenance.Job{
		maintenance.PruneExpiredJob(liveStore, leases, archiveStore, cfg.PruneThreshold, cfg.PruneInterval),
		maintenance.FlushSubscriptionsJob(subs, cfg.FlushSweepInterval),
		maintenance.ReplicationSyncJob(repl, liveStore, cfg.ReplicationSyncInterval),
	}
	scheduler := maintenance.New(jobs, leader, cfg.SchedulerJitterFraction, cfg.SchedulerMaxTick, entry)

	handler := httpapi.New(registerSvc, editSvc, lookupSvc, subs, entry)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go scheduler.Run(ctx)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler.Mux(),
	}

	serveErr := make(chan error, 1)
	go func() {
		entry.WithField("addr", cfg.HTTPAddr).Info("sls-server listening")
		serveErr <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			entry.WithError(err).Error("server exited unexpectedly")
			return 1
		}
	case <-sigCh:
		entry.Info("shutdown signal received")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			entry.WithError(err).Error("graceful shutdown failed")
			return 1
		}
	}

	drainStop := make(chan struct{})
	time.AfterFunc(5*time.Second, func() { close(drainStop) })
	fanoutPool.Close(drainStop)

	if err := archiveStore.Persist(); err != nil {
		entry.WithError(err).Warn("failed to persist archive snapshot")
	}
	return 0
}
