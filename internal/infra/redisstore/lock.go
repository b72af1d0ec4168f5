package redisstore

import (
	"context"
	"dispatcher/internal/ports"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var _ ports.CycleLock = (*Client)(nil)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (c *Client) Acquire(ctx context.Context, ttl time.Duration) (func(context.Context) error, bool, error) {
	token := uuid.NewString()
	ok, err := c.Rdb.SetNX(ctx, c.Cfg.LockKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("set lock %s: %w", c.Cfg.LockKey, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		return releaseScript.Run(ctx, c.Rdb, []string{c.Cfg.LockKey}, token).Err()
	}
	return release, true, nil
}
