// Package core defines the pipeline types and interfaces for govcrawl.
// Each stage of the pipeline is a clean, testable interface.
package core

import "context"

// Document types.
const (
	TypeHTML = "html"
	TypePDF  = "pdf"
)

// Origin is one configured root website treated as an independent unit of work.
type Origin struct {
	Name string `mapstructure:"name" json:"name"`
	URL  string `mapstructure:"url" json:"url"`
}

// FetchResult holds the raw body and response metadata from a plain HTTP fetch.
type FetchResult struct {
	URL        string
	StatusCode int
	HTML       string
}

// CrawlResult is the outcome of dispatching one HTML URL.
// Err is nil when the page was retrieved with a 2xx status.
type CrawlResult struct {
	URL        string
	StatusCode int
	HTML       string
	Err        error
}

// Success reports whether the page body can be used.
func (r CrawlResult) Success() bool {
	return r.Err == nil
}

// PageMetadata holds metadata extracted from the page head.
type PageMetadata struct {
	Title       string
	Description string
}

// Document is one persisted unit of extracted content (one JSONL line).
type Document struct {
	ID            string  `json:"id" bson:"_id"`
	URL           string  `json:"url" bson:"url"`
	Title         string  `json:"title" bson:"title"`
	Description   string  `json:"description" bson:"description"`
	Content       string  `json:"content" bson:"content"`
	Origin        string  `json:"province" bson:"province"`
	Timestamp     float64 `json:"timestamp" bson:"timestamp"`
	ContentLength int     `json:"content_length" bson:"content_length"`
	Language      string  `json:"language" bson:"language"`
	Source        string  `json:"source" bson:"source"`
	DocumentType  string  `json:"document_type" bson:"document_type"`
}

// Progress is the per-origin counter snapshot, overwritten after every item.
type Progress struct {
	TotalProcessed      int     `json:"total_processed"`
	Successful          int     `json:"successful"`
	LastResultCompleted float64 `json:"last_result_completed"`
	Origin              string  `json:"origin"`
}

// Fetcher retrieves a page body from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// Extractor pulls the main content from raw HTML, stripping noise.
type Extractor interface {
	Extract(html string) (string, error)
}

// Normalizer converts cleaned HTML into Markdown (the canonical format).
type Normalizer interface {
	Normalize(html string) (string, error)
}

// Dispatcher fetches a batch of HTML URLs and streams one result per URL.
// The returned channel is closed once every URL has produced a result.
type Dispatcher interface {
	Dispatch(ctx context.Context, urls []string) (<-chan CrawlResult, error)
}

// PDFExtractor extracts plain text from a PDF file on disk.
type PDFExtractor interface {
	ExtractText(path string) (string, error)
}

// DocumentSink receives every persisted document.
type DocumentSink interface {
	Write(ctx context.Context, doc Document) error
	Close() error
}

// Ledger records which URLs of an origin have already been processed.
type Ledger interface {
	Seen(ctx context.Context, url string) (bool, error)
	Mark(ctx context.Context, url string) error
	Close() error
}

// Discoverer enumerates candidate URLs for an origin without fetching content.
type Discoverer interface {
	Discover(ctx context.Context, origin Origin) ([]string, error)
}
