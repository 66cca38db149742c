// Package store mirrors written documents into external databases.
// Mirrors are best effort: the JSONL file stays the source of truth.
package store

import (
	"context"
	"fmt"

	"github.com/gaurav-prasanna/govcrawl/core"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createDocumentsTable = `CREATE TABLE IF NOT EXISTS rag_documents (
	id             TEXT PRIMARY KEY,
	url            TEXT NOT NULL,
	title          TEXT NOT NULL DEFAULT '',
	description    TEXT NOT NULL DEFAULT '',
	content        TEXT NOT NULL,
	province       TEXT NOT NULL,
	timestamp      DOUBLE PRECISION NOT NULL,
	content_length INTEGER NOT NULL,
	language       TEXT NOT NULL,
	source         TEXT NOT NULL,
	document_type  TEXT NOT NULL
)`

const upsertDocument = `INSERT INTO rag_documents
	(id, url, title, description, content, province, timestamp, content_length, language, source, document_type)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (id) DO UPDATE SET
	  url = EXCLUDED.url, title = EXCLUDED.title, description = EXCLUDED.description,
	  content = EXCLUDED.content, timestamp = EXCLUDED.timestamp,
	  content_length = EXCLUDED.content_length`

// PostgresStore writes documents into the rag_documents table.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore connects to connStr and creates the table if needed.
func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(ctx, createDocumentsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating rag_documents: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Write implements core.DocumentSink.
func (s *PostgresStore) Write(ctx context.Context, doc core.Document) error {
	_, err := s.db.Exec(ctx, upsertDocument, documentArgs(doc)...)
	if err != nil {
		return fmt.Errorf("saving document %s: %w", doc.ID, err)
	}
	return nil
}

// Close implements core.DocumentSink.
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

// documentArgs orders doc fields as the upsert placeholders expect.
func documentArgs(doc core.Document) []any {
	return []any{
		doc.ID, doc.URL, doc.Title, doc.Description, doc.Content, doc.Origin,
		doc.Timestamp, doc.ContentLength, doc.Language, doc.Source, doc.DocumentType,
	}
}
