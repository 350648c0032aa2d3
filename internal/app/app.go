package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Checkmk/checkmk-sub072/internal/autochecks"
	"github.com/Checkmk/checkmk-sub072/internal/config"
	"github.com/Checkmk/checkmk-sub072/internal/discovery"
	"github.com/Checkmk/checkmk-sub072/internal/index"
	"github.com/Checkmk/checkmk-sub072/internal/logger"
	"github.com/Checkmk/checkmk-sub072/internal/redis"
	"github.com/Checkmk/checkmk-sub072/internal/rules"
	"github.com/Checkmk/checkmk-sub072/internal/scheduler"
	"github.com/Checkmk/checkmk-sub072/internal/sources/snapshot"
	redisstore "github.com/Checkmk/checkmk-sub072/internal/store/redis"
	"github.com/Checkmk/checkmk-sub072/internal/utils"
)

// Components are the wired parts shared by the daemon and the one-shot
// commands.
type Components struct {
	Config       *config.Config
	Logger       logger.Logger
	Rules        *rules.Provider
	Snapshots    *snapshot.Discoverer
	Autochecks   *autochecks.FileStore
	HostLabels   *autochecks.HostLabelStore
	Engine       *discovery.Engine
	Fleet        *discovery.Fleet
	Index        *index.MemoryIndex
	Rediscoverer *scheduler.Rediscoverer
	RedisClient  *goredis.Client   // nil when Redis is disabled or unreachable
	RedisStore   *redisstore.Store // nil when RedisClient is nil
	Trigger      chan struct{}     // manual rediscovery trigger
}

// Build wires all components. Redis is optional: when it is configured but
// unreachable the components run with process-local locks and summaries.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger) (*Components, error) {
	c := &Components{
		Config:  cfg,
		Logger:  log,
		Index:   index.NewMemoryIndex(),
		Trigger: make(chan struct{}, 1),
	}

	c.Rules = rules.NewProvider(cfg.RulesFile, log)
	if err := c.Rules.Reload(); err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	c.Snapshots = snapshot.NewDiscoverer(cfg.SnapshotDir, log)
	c.Autochecks = autochecks.NewFileStore(cfg.AutochecksDir, c.Rules, log)
	c.HostLabels = autochecks.NewHostLabelStore(cfg.HostLabelsDir, log)
	c.Engine = discovery.NewEngine(c.Snapshots, c.Rules, c.Rules, c.Autochecks, c.HostLabels, log)

	if cfg.RedisEnabled() {
		client, err := redis.Connect(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			log.Warn("continuing without redis, host locks are process-local", logger.Error(err))
		} else {
			c.RedisClient = client
			c.RedisStore = redisstore.NewStore(client, redisstore.Options{
				SummaryTTL: cfg.SummaryTTL,
				LockTTL:    cfg.LockTTL,
			}, log)
		}
	}

	var locker discovery.Locker
	recorders := discovery.Recorders{c.Index}
	if c.RedisStore != nil {
		locker = c.RedisStore
		recorders = append(recorders, c.RedisStore)
	}
	c.Fleet = discovery.NewFleet(c.Engine, locker, recorders, cfg.DiscoveryWorkers, log)

	c.Rediscoverer = scheduler.NewRediscoverer(
		c.Fleet,
		c.Rules,
		log,
		cfg.DiscoveryInterval,
		c.Trigger,
		c.Snapshots,
		c.Autochecks,
	)
	return c, nil
}

// Close releases external connections.
func (c *Components) Close() {
	if c.RedisClient != nil {
		utils.MustClose(c.RedisClient, c.Logger, "redis")
	}
}

// SyncSummaries loads the summaries kept in Redis into the memory index.
func (c *Components) SyncSummaries(ctx context.Context) {
	if c.RedisStore == nil {
		return
	}
	syncer := scheduler.NewRedisSyncer(c.RedisStore, c.Index, c.Logger)
	if err := syncer.Sync(ctx); err != nil {
		c.Logger.Warn("failed to sync summaries from redis", logger.Error(err))
	}
}

// summaryDeleter returns the shared summary store or nil.
func (c *Components) summaryDeleter() scheduler.SummaryDeleter {
	if c.RedisStore == nil {
		return nil
	}
	return c.RedisStore
}
