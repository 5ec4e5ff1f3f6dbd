package lease

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// releaseScript deletes the key only while it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	client *redis.Client
	opts   Options
	prefix string
}

func NewRedisLocker(client *redis.Client, opts Options) *RedisLocker {
	return &RedisLocker{client: client, opts: opts.withDefaults(), prefix: "lease:listing:"}
}

func (l *RedisLocker) Acquire(ctx context.Context, listingID string) (Release, error) {
	key := l.prefix + listingID
	token := newToken()
	err := acquireLoop(ctx, l.opts, func(ctx context.Context) (bool, error) {
		ok, err := l.client.SetNX(ctx, key, token, l.opts.TTL).Result()
		if err != nil {
			return false, fmt.Errorf("failed to acquire listing lease: %w", err)
		}
		return ok, nil
	})
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
			return fmt.Errorf("failed to release listing lease: %w", err)
		}
		return nil
	}, nil
}
