package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Checkmk/checkmk-sub072/internal/logger"
)

// ConnectOptions configures the client and the startup retry policy.
type ConnectOptions struct {
	Addr         string
	User         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int

	ConnectTimeout time.Duration // total budget for all attempts
	RetryInterval  time.Duration // first backoff, doubled per attempt
	MaxWait        time.Duration // backoff cap
	PingTimeout    time.Duration // per attempt
	WarnThreshold  int           // attempts logged as warnings before errors
}

func (o ConnectOptions) validate() error {
	durations := []struct {
		name  string
		value time.Duration
	}{
		{"ConnectTimeout", o.ConnectTimeout},
		{"RetryInterval", o.RetryInterval},
		{"MaxWait", o.MaxWait},
		{"PingTimeout", o.PingTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("%s must be > 0, got %v", d.name, d.value)
		}
	}
	if o.WarnThreshold < 0 {
		return fmt.Errorf("WarnThreshold must be >= 0, got %d", o.WarnThreshold)
	}
	return nil
}

// Connect creates a client and pings Redis with exponential backoff until it
// answers, ConnectTimeout elapses or ctx is done.
func Connect(ctx context.Context, opts ConnectOptions, log logger.Logger) (*redis.Client, error) {
	if err := opts.validate(); err != nil {
		log.Error("invalid redis options", logger.Error(err))
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.User,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
	})

	if err := pingWithRetry(ctx, client, opts, log); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func pingWithRetry(parent context.Context, client *redis.Client, opts ConnectOptions, log logger.Logger) error {
	ctx, cancel := context.WithTimeout(parent, opts.ConnectTimeout)
	defer cancel()

	log.Info("connecting to redis",
		logger.String("addr", opts.Addr),
		logger.Duration("timeout", opts.ConnectTimeout))

	start := time.Now()
	wait := opts.RetryInterval

	for attempt := 1; ; attempt++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, opts.PingTimeout)
		err := client.Ping(pingCtx).Err()
		pingCancel()

		if err == nil {
			fields := []logger.Field{logger.String("addr", opts.Addr)}
			if attempt > 1 {
				fields = append(fields, logger.Int("attempts", attempt), logger.Duration("elapsed", time.Since(start)))
			}
			log.Info("connected to redis", fields...)
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Error("redis unavailable",
				logger.String("addr", opts.Addr),
				logger.Int("attempts", attempt),
				logger.Error(err))
			return fmt.Errorf("redis unavailable at %s after %d attempts: %w", opts.Addr, attempt, err)
		case <-timer.C:
		}

		retryFields := []logger.Field{
			logger.String("addr", opts.Addr),
			logger.Int("attempt", attempt),
			logger.Duration("next_retry_in", wait),
			logger.Error(err),
		}
		if attempt <= opts.WarnThreshold {
			log.Warn("redis connection failed, retrying", retryFields...)
		} else {
			log.Error("redis still unavailable, retrying", retryFields...)
		}

		wait = min(wait*2, opts.MaxWait)
	}
}
