package ledger

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisLedger stores the processed set of one origin in a Redis set.
type RedisLedger struct {
	client *redis.Client
	key    string
}

// NewRedisClient connects to addr and verifies the connection.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// NewRedis creates a ledger for origin on a shared client.
func NewRedis(client *redis.Client, prefix, origin string) *RedisLedger {
	return &RedisLedger{client: client, key: RedisKey(prefix, origin)}
}

// RedisKey names the set holding an origin's processed URLs.
func RedisKey(prefix, origin string) string {
	if prefix == "" {
		prefix = "govcrawl"
	}
	return fmt.Sprintf("%s:processed:%s", prefix, origin)
}

// Seen implements core.Ledger.
func (l *RedisLedger) Seen(ctx context.Context, url string) (bool, error) {
	ok, err := l.client.SIsMember(ctx, l.key, url).Result()
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", l.key, err)
	}
	return ok, nil
}

// Mark implements core.Ledger.
func (l *RedisLedger) Mark(ctx context.Context, url string) error {
	if err := l.client.SAdd(ctx, l.key, url).Err(); err != nil {
		return fmt.Errorf("adding to %s: %w", l.key, err)
	}
	return nil
}

// Close implements core.Ledger. The client is shared and left open.
func (l *RedisLedger) Close() error {
	return nil
}
