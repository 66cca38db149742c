// Package render builds RAG documents and serializes them as JSON lines.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gaurav-prasanna/govcrawl/core"
)

const (
	DefaultSource    = "canada_gov"
	PDFDescription   = "Government PDF document"
	fallbackPDFTitle = "PDF Document"
)

// Builder stamps documents for one origin.
type Builder struct {
	Origin string
	Source string
}

// NewBuilder creates a Builder; an empty source uses DefaultSource.
func NewBuilder(origin, source string) *Builder {
	if source == "" {
		source = DefaultSource
	}
	return &Builder{Origin: origin, Source: source}
}

// HTML builds the document for a rendered page. n is the origin's running
// processed count and forms part of the id.
func (b *Builder) HTML(pageURL string, meta core.PageMetadata, content string, n int, now time.Time) core.Document {
	return b.build(fmt.Sprintf("%s_%d_%d", b.Origin, n, now.Unix()), pageURL, meta, content, core.TypeHTML, now)
}

// PDF builds the document for an extracted PDF. The title is the last path
// segment of the URL.
func (b *Builder) PDF(pdfURL, content string, n int, now time.Time) core.Document {
	meta := core.PageMetadata{Title: PDFTitle(pdfURL), Description: PDFDescription}
	return b.build(fmt.Sprintf("%s_pdf_%d_%d", b.Origin, n, now.Unix()), pdfURL, meta, content, core.TypePDF, now)
}

func (b *Builder) build(id, rawURL string, meta core.PageMetadata, content, docType string, now time.Time) core.Document {
	return core.Document{
		ID:            id,
		URL:           rawURL,
		Title:         meta.Title,
		Description:   meta.Description,
		Content:       content,
		Origin:        b.Origin,
		Timestamp:     float64(now.UnixNano()) / float64(time.Second),
		ContentLength: ContentLength(content),
		Language:      Language(rawURL),
		Source:        b.Source,
		DocumentType:  docType,
	}
}

// Language tags a URL "en" when it contains "/en/", otherwise "fr".
func Language(rawURL string) string {
	if strings.Contains(rawURL, "/en/") {
		return "en"
	}
	return "fr"
}

// ContentLength counts characters, not bytes, so accented French text is
// measured the same way readers see it.
func ContentLength(content string) int {
	return utf8.RuneCountInString(content)
}

// PDFTitle derives a title from the last URL path segment.
func PDFTitle(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		if i := strings.LastIndex(rawURL, "/"); i >= 0 && i < len(rawURL)-1 {
			return rawURL[i+1:]
		}
		return fallbackPDFTitle
	}
	base := path.Base(parsed.Path)
	if base == "." || base == "/" || base == "" {
		return fallbackPDFTitle
	}
	if unescaped, err := url.PathUnescape(base); err == nil {
		return unescaped
	}
	return base
}

// MarshalLine encodes doc as a single JSON line terminated by '\n'.
// Non-ASCII text and HTML characters are written as-is.
func MarshalLine(doc core.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("marshaling document %s: %w", doc.ID, err)
	}
	return buf.Bytes(), nil
}
