//go:build integration

package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/gaurav-prasanna/govcrawl/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

// Run with: go test -tags integration ./core/store/
// GOVCRAWL_TEST_POSTGRES_URL and GOVCRAWL_TEST_MONGO_URI select the servers.

func revised(doc core.Document) core.Document {
	doc.Content = "Le rapport annuel révisé"
	doc.ContentLength = 24
	return doc
}

func TestPostgresStoreUpserts(t *testing.T) {
	connStr := os.Getenv("GOVCRAWL_TEST_POSTGRES_URL")
	if connStr == "" {
		t.Skip("GOVCRAWL_TEST_POSTGRES_URL not set")
	}
	ctx := context.Background()

	s, err := NewPostgresStore(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	doc := sample
	doc.ID = fmt.Sprintf("Quebec_pdf_%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_, _ = s.db.Exec(context.Background(), `DELETE FROM rag_documents WHERE id = $1`, doc.ID)
	})

	require.NoError(t, s.Write(ctx, doc))
	require.NoError(t, s.Write(ctx, revised(doc)))

	var (
		count   int
		content string
		length  int
		prov    string
	)
	require.NoError(t, s.db.QueryRow(ctx,
		`SELECT count(*) FROM rag_documents WHERE id = $1`, doc.ID).Scan(&count))
	assert.Equal(t, 1, count)
	require.NoError(t, s.db.QueryRow(ctx,
		`SELECT content, content_length, province FROM rag_documents WHERE id = $1`, doc.ID).
		Scan(&content, &length, &prov))
	assert.Equal(t, "Le rapport annuel révisé", content)
	assert.Equal(t, 24, length)
	assert.Equal(t, "Quebec", prov)
}

func TestMongoStoreUpserts(t *testing.T) {
	uri := os.Getenv("GOVCRAWL_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("GOVCRAWL_TEST_MONGO_URI not set")
	}
	ctx := context.Background()

	s, err := NewMongoStore(ctx, uri, "govcrawl_test", fmt.Sprintf("rag_documents_%d", time.Now().UnixNano()))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.documents.Drop(context.Background())
		_ = s.Close()
	})

	require.NoError(t, s.Write(ctx, sample))
	require.NoError(t, s.Write(ctx, revised(sample)))

	n, err := s.documents.CountDocuments(ctx, bson.M{"_id": sample.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var got core.Document
	require.NoError(t, s.documents.FindOne(ctx, bson.M{"_id": sample.ID}).Decode(&got))
	assert.Equal(t, revised(sample), got)
}
