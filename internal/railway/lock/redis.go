package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/railseat/internal/common/logger"
)

// releaseScript deletes the key only while it still holds our token, so a holder whose
// TTL expired cannot release a lock someone else now owns.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker shared by every process using the same Redis. A lock is a key set
// with SET NX holding a random token and a TTL that frees trains held by a crashed
// process.
type Redis struct {
	client        *redis.Client
	ttl           time.Duration
	wait          time.Duration
	retryInterval time.Duration
	logger        logger.Logger
}

type RedisOptions struct {
	TTL           time.Duration
	Wait          time.Duration
	RetryInterval time.Duration
}

func NewRedis(client *redis.Client, opts RedisOptions, logger logger.Logger) *Redis {
	return &Redis{
		client:        client,
		ttl:           opts.TTL,
		wait:          opts.Wait,
		retryInterval: opts.RetryInterval,
		logger:        logger,
	}
}

func trainKey(trainID int) string {
	return fmt.Sprintf("railseat:train-lock:%d", trainID)
}

func (r *Redis) Acquire(ctx context.Context, trainID int) (func(), error) {
	key := trainKey(trainID)
	token := uuid.NewString()
	deadline := time.Now().Add(r.wait)

	ticker := time.NewTicker(r.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquiring lock for train %d: %w", trainID, err)
		}
		if ok {
			return r.releaser(key, token, trainID), nil
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: train %d after %s", ErrLockTimeout, trainID, r.wait)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (r *Redis) releaser(key, token string, trainID int) func() {
	released := false
	return func() {
		if released {
			return
		}
		released = true

		// The booking context may already be cancelled; release must still run.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		n, err := releaseScript.Run(ctx, r.client, []string{key}, token).Int()
		if err != nil {
			r.logger.Error("Failed to release train lock", "train_id", trainID, "error", err)
			return
		}
		if n == 0 {
			r.logger.Warn("Train lock expired before release", "train_id", trainID, "ttl", r.ttl.String())
		}
	}
}
