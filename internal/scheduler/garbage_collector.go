package scheduler

import (
	"context"
	"time"

	"github.com/Checkmk/checkmk-sub072/internal/index"
	"github.com/Checkmk/checkmk-sub072/internal/logger"
)

const (
	// DefaultGCThreshold is how long a summary of a vanished host is kept
	DefaultGCThreshold = 30 * 24 * time.Hour // 30 days
)

// SummaryDeleter removes a host summary from a shared store.
type SummaryDeleter interface {
	DeleteSummary(ctx context.Context, host string) error
}

// GarbageCollector removes summaries of hosts that are gone: hosts with
// neither a discovery snapshot nor autochecks whose last run is older than
// the threshold.
type GarbageCollector struct {
	store     SummaryDeleter
	index     *index.MemoryIndex
	hosts     []HostLister
	logger    logger.Logger
	interval  time.Duration
	threshold time.Duration
	stopCh    chan struct{}
}

// NewGarbageCollector creates a new garbage collector. store may be nil.
func NewGarbageCollector(
	store SummaryDeleter,
	idx *index.MemoryIndex,
	log logger.Logger,
	interval time.Duration,
	threshold time.Duration,
	hosts ...HostLister,
) *GarbageCollector {
	if threshold == 0 {
		threshold = DefaultGCThreshold
	}

	return &GarbageCollector{
		store:     store,
		index:     idx,
		hosts:     hosts,
		logger:    log,
		interval:  interval,
		threshold: threshold,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic garbage collection process
func (gc *GarbageCollector) Start(ctx context.Context) error {
	if err := gc.Collect(ctx); err != nil {
		gc.logger.Warn("initial garbage collection failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(gc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := gc.Collect(ctx); err != nil {
					gc.logger.Error("garbage collection failed",
						logger.Error(err))
				}
			case <-gc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the garbage collector
func (gc *GarbageCollector) Stop() {
	close(gc.stopCh)
}

// Collect removes stale summaries of unknown hosts
func (gc *GarbageCollector) Collect(ctx context.Context) error {
	known, err := knownHosts(gc.hosts...)
	if err != nil {
		return err
	}
	exists := make(map[string]bool, len(known))
	for _, h := range known {
		exists[h] = true
	}

	now := time.Now()
	deleted := 0

	for _, s := range gc.index.All() {
		if exists[s.Host] || s.At.IsZero() {
			continue
		}
		age := now.Sub(s.At)
		if age < gc.threshold {
			continue
		}

		gc.index.Delete(s.Host)
		if gc.store != nil {
			if err := gc.store.DeleteSummary(ctx, s.Host); err != nil {
				gc.logger.Warn("failed to delete summary from redis",
					logger.String("host", s.Host),
					logger.Error(err))
			}
		}

		gc.logger.Info("garbage collected summary of vanished host",
			logger.String("host", s.Host),
			logger.String("age", age.String()))
		deleted++
	}

	if deleted > 0 {
		gc.logger.Info("garbage collection completed", logger.Int("deleted", deleted))
	} else {
		gc.logger.Debug("no summaries to garbage collect")
	}
	return nil
}
