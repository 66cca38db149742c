// Package output handles file naming and writing inside the work directory.
// Every stage communicates only through the files laid out here:
// <origin>.json, scraped_url.json, <origin>_rag_content.jsonl,
// progress_<origin>.json and processed_<origin>.txt.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File names shared by all origins.
const (
	MasterListName  = "scraped_url.json"
	CombinedName    = "all_canada_rag_content.jsonl"
	documentsSuffix = "_rag_content.jsonl"
)

// Writer resolves and creates the files of a work directory.
type Writer struct {
	OutputDir string
}

// New creates a Writer targeting the given output directory.
// If outputDir is empty, it defaults to the current working directory.
func New(outputDir string) (*Writer, error) {
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		outputDir = wd
	}

	// Ensure the output directory exists.
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &Writer{OutputDir: outputDir}, nil
}

// URLListPath is the seeded URL list of an origin: <origin>.json.
func (w *Writer) URLListPath(origin string) string {
	return filepath.Join(w.OutputDir, sanitize(origin)+".json")
}

// MasterListPath is the cumulative URL list of every origin.
func (w *Writer) MasterListPath() string {
	return filepath.Join(w.OutputDir, MasterListName)
}

// DocumentsPath is the append-only JSONL output of an origin.
func (w *Writer) DocumentsPath(origin string) string {
	return filepath.Join(w.OutputDir, sanitize(origin)+documentsSuffix)
}

// ProgressPath is the overwritten progress snapshot of an origin.
func (w *Writer) ProgressPath(origin string) string {
	return filepath.Join(w.OutputDir, "progress_"+sanitize(origin)+".json")
}

// LedgerPath is the processed-URL ledger of an origin.
func (w *Writer) LedgerPath(origin string) string {
	return filepath.Join(w.OutputDir, "processed_"+sanitize(origin)+".txt")
}

// sanitize replaces characters that are unsafe in file names with underscores.
// Origin names such as "British_Columbia" pass through unchanged.
func sanitize(s string) string {
	var b strings.Builder
	for _, ch := range s {
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '_' || ch == '-' {
			b.WriteRune(ch)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
