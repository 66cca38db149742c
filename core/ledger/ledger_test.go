package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLedgerPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "processed_Ontario.txt")

	l, err := OpenFile(path)
	require.NoError(t, err)
	seen, err := l.Seen(ctx, "https://www.ontario.ca/a")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, l.Mark(ctx, "https://www.ontario.ca/a"))
	require.NoError(t, l.Mark(ctx, "https://www.ontario.ca/a"))
	require.NoError(t, l.Mark(ctx, "https://www.ontario.ca/b.pdf"))
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://www.ontario.ca/a\nhttps://www.ontario.ca/b.pdf\n", string(data))

	reopened, err := OpenFile(path)
	require.NoError(t, err)
	defer reopened.Close()
	for _, u := range []string{"https://www.ontario.ca/a", "https://www.ontario.ca/b.pdf"} {
		seen, err = reopened.Seen(ctx, u)
		require.NoError(t, err)
		assert.True(t, seen, u)
	}
	seen, err = reopened.Seen(ctx, "https://www.ontario.ca/c")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestRedisKey(t *testing.T) {
	assert.Equal(t, "govcrawl:processed:Quebec", RedisKey("", "Quebec"))
	assert.Equal(t, "staging:processed:Quebec", RedisKey("staging", "Quebec"))
}
