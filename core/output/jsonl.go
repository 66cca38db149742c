package output

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/gaurav-prasanna/govcrawl/core"
	"github.com/gaurav-prasanna/govcrawl/core/render"
)

// JSONLWriter appends one document per line to a file. Existing content is
// never truncated.
type JSONLWriter struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// NewJSONLWriter opens path for appending, creating it if needed.
func NewJSONLWriter(path string) (*JSONLWriter, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return &JSONLWriter{path: path, f: f}, nil
}

// Path returns the file being appended to.
func (w *JSONLWriter) Path() string { return w.path }

// Write implements core.DocumentSink.
func (w *JSONLWriter) Write(_ context.Context, doc core.Document) error {
	line, err := render.MarshalLine(doc)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.f.Write(line); err != nil {
		return fmt.Errorf("appending to %s: %w", w.path, err)
	}
	return nil
}

// Close implements core.DocumentSink.
func (w *JSONLWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}

// ProgressWriter overwrites a progress file with the latest snapshot.
type ProgressWriter struct {
	path string
}

// NewProgressWriter creates a ProgressWriter for path.
func NewProgressWriter(path string) *ProgressWriter {
	return &ProgressWriter{path: path}
}

// Write replaces the file content with p.
func (w *ProgressWriter) Write(p core.Progress) error {
	data, err := json.MarshalIndent(p, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding progress: %w", err)
	}
	if err := os.WriteFile(w.path, data, 0644); err != nil {
		return fmt.Errorf("writing file %s: %w", w.path, err)
	}
	return nil
}
