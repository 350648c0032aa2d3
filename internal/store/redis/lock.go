package redis

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Checkmk/checkmk-sub072/internal/discovery"
	"github.com/Checkmk/checkmk-sub072/internal/logger"
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Acquire takes the discovery lock of host for the lock TTL. It implements
// discovery.Locker and returns discovery.ErrHostBusy when the lock is held.
// When Redis cannot be reached the run proceeds with the process-local guard
// of the fleet only.
func (s *Store) Acquire(ctx context.Context, host string) (func(context.Context) error, error) {
	token := uuid.NewString()
	key := LockKey(host)

	ok, err := s.client.SetNX(ctx, key, token, s.lockTTL).Result()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.log.Warn("redis unavailable, host lock is process-local",
			logger.String("host", host),
			logger.Error(err))
		return func(context.Context) error { return nil }, nil
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s is locked by another process", discovery.ErrHostBusy, host)
	}

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, s.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("failed to release lock of %s: %w", host, err)
		}
		return nil
	}, nil
}
