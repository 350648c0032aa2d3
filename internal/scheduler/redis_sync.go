package scheduler

import (
	"context"

	"github.com/Checkmk/checkmk-sub072/internal/index"
	"github.com/Checkmk/checkmk-sub072/internal/logger"
	redisstore "github.com/Checkmk/checkmk-sub072/internal/store/redis"
)

// RedisSyncer fills the memory index with the summaries kept in Redis, so a
// restarted daemon reports the runs of its predecessors and peers.
type RedisSyncer struct {
	store  *redisstore.Store
	index  *index.MemoryIndex
	logger logger.Logger
}

// NewRedisSyncer creates a new Redis syncer
func NewRedisSyncer(
	store *redisstore.Store,
	idx *index.MemoryIndex,
	log logger.Logger,
) *RedisSyncer {
	return &RedisSyncer{
		store:  store,
		index:  idx,
		logger: log,
	}
}

// Sync loads summaries from Redis into the memory index
func (rs *RedisSyncer) Sync(ctx context.Context) error {
	rs.logger.Info("syncing discovery summaries from redis")

	summaries, err := rs.store.GetAllSummaries(ctx)
	if err != nil {
		return err
	}

	if len(summaries) == 0 {
		rs.logger.Info("no discovery summaries found in redis")
		return nil
	}

	loaded := rs.index.Load(summaries)

	rs.logger.Info("synced discovery summaries from redis",
		logger.Int("count", len(summaries)),
		logger.Int("loaded", loaded))

	return nil
}
