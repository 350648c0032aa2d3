package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Checkmk/checkmk-sub072/internal/discovery"
	"github.com/Checkmk/checkmk-sub072/internal/logger"
)

const (
	// DefaultSummaryTTL is the default TTL for summary entries (7 days)
	DefaultSummaryTTL = 7 * 24 * time.Hour
	// DefaultLockTTL bounds how long a crashed holder blocks a host
	DefaultLockTTL = 5 * time.Minute
)

// ErrSummaryNotFound is returned when no summary is stored for a host
var ErrSummaryNotFound = errors.New("summary not found")

// Store handles Redis operations for discovery summaries and host locks
type Store struct {
	client     *redis.Client
	summaryTTL time.Duration
	lockTTL    time.Duration
	log        logger.Logger
}

// Options configures a Store. Zero values select the defaults.
type Options struct {
	SummaryTTL time.Duration
	LockTTL    time.Duration
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client, opts Options, log logger.Logger) *Store {
	if opts.SummaryTTL <= 0 {
		opts.SummaryTTL = DefaultSummaryTTL
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = DefaultLockTTL
	}
	return &Store{
		client:     client,
		summaryTTL: opts.SummaryTTL,
		lockTTL:    opts.LockTTL,
		log:        log,
	}
}

// SaveSummary stores the summary of a host
func (s *Store) SaveSummary(ctx context.Context, summary discovery.Summary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, SummaryKey(summary.Host), data, s.summaryTTL)
	pipe.SAdd(ctx, AllHostsKey(), summary.Host)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save summary of %s: %w", summary.Host, err)
	}
	return nil
}

// GetSummary retrieves the summary of host
func (s *Store) GetSummary(ctx context.Context, host string) (discovery.Summary, error) {
	data, err := s.client.Get(ctx, SummaryKey(host)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return discovery.Summary{}, fmt.Errorf("%w: %s", ErrSummaryNotFound, host)
		}
		return discovery.Summary{}, fmt.Errorf("failed to get summary: %w", err)
	}

	var summary discovery.Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return discovery.Summary{}, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	return summary, nil
}

// GetAllSummaries retrieves the summaries of all known hosts. Hosts whose
// summary expired are dropped from the host set.
func (s *Store) GetAllSummaries(ctx context.Context) ([]discovery.Summary, error) {
	hosts, err := s.client.SMembers(ctx, AllHostsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get hosts: %w", err)
	}

	summaries := make([]discovery.Summary, 0, len(hosts))
	for _, host := range hosts {
		summary, err := s.GetSummary(ctx, host)
		if errors.Is(err, ErrSummaryNotFound) {
			if err := s.client.SRem(ctx, AllHostsKey(), host).Err(); err != nil {
				return nil, fmt.Errorf("failed to prune host %s: %w", host, err)
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// DeleteSummary removes the summary of host
func (s *Store) DeleteSummary(ctx context.Context, host string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, SummaryKey(host))
	pipe.SRem(ctx, AllHostsKey(), host)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete summary of %s: %w", host, err)
	}
	return nil
}

// Record implements discovery.Recorder. Errors are logged, never returned:
// a Redis outage must not fail a discovery run.
func (s *Store) Record(ctx context.Context, summary discovery.Summary) {
	if err := s.SaveSummary(context.WithoutCancel(ctx), summary); err != nil {
		s.log.Warn("failed to store discovery summary in redis",
			logger.String("host", summary.Host),
			logger.Error(err),
		)
	}
}
