//go:build integration

package ledger

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run with: go test -tags integration ./core/ledger/
// GOVCRAWL_TEST_REDIS_ADDR selects the server, e.g. localhost:6379.

func TestRedisLedger(t *testing.T) {
	addr := os.Getenv("GOVCRAWL_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("GOVCRAWL_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()

	client, err := NewRedisClient(ctx, addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	prefix := fmt.Sprintf("govcrawl_test_%d", time.Now().UnixNano())
	t.Cleanup(func() {
		client.Del(context.Background(), RedisKey(prefix, "Ontario"), RedisKey(prefix, "Quebec"))
	})

	ontario := NewRedis(client, prefix, "Ontario")
	quebec := NewRedis(client, prefix, "Quebec")
	const u = "https://www.ontario.ca/en/health"

	seen, err := ontario.Seen(ctx, u)
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, ontario.Mark(ctx, u))
	require.NoError(t, ontario.Mark(ctx, u))

	seen, err = ontario.Seen(ctx, u)
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = quebec.Seen(ctx, u)
	require.NoError(t, err)
	assert.False(t, seen, "origins keep separate sets")

	size, err := client.SCard(ctx, RedisKey(prefix, "Ontario")).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)
	require.NoError(t, ontario.Close())
}
