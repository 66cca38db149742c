package output

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// CombineSummary reports what Combine did.
type CombineSummary struct {
	Files   int
	Lines   int
	Skipped int
}

// Combine concatenates every *.jsonl file in dir into dir/outName. Each line
// that parses as JSON is copied verbatim; other non-blank lines are logged
// and skipped. The output file itself is never read.
func Combine(dir, outName string, logger *zap.Logger) (CombineSummary, error) {
	var summary CombineSummary
	if logger == nil {
		logger = zap.NewNop()
	}
	if outName == "" {
		outName = CombinedName
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.jsonl"))
	if err != nil {
		return summary, fmt.Errorf("listing jsonl files: %w", err)
	}

	outPath := filepath.Join(dir, outName)
	out, err := os.Create(outPath)
	if err != nil {
		return summary, fmt.Errorf("creating %s: %w", outPath, err)
	}
	defer out.Close()
	bw := bufio.NewWriter(out)

	for _, path := range files {
		if filepath.Base(path) == filepath.Base(outPath) {
			continue
		}
		lines, skipped, err := copyValidLines(bw, path, logger)
		if err != nil {
			return summary, err
		}
		summary.Files++
		summary.Lines += lines
		summary.Skipped += skipped
		logger.Info("combined file", zap.String("file", filepath.Base(path)),
			zap.Int("lines", lines), zap.Int("skipped", skipped))
	}

	if err := bw.Flush(); err != nil {
		return summary, fmt.Errorf("writing %s: %w", outPath, err)
	}
	return summary, out.Close()
}

func copyValidLines(w io.Writer, path string, logger *zap.Logger) (lines, skipped int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	lineNo := 0
	for {
		raw, readErr := r.ReadBytes('\n')
		if len(raw) > 0 {
			lineNo++
			line := bytes.TrimSpace(raw)
			switch {
			case len(line) == 0:
			case !json.Valid(line):
				skipped++
				logger.Warn("skipping invalid json line",
					zap.String("file", filepath.Base(path)), zap.Int("line", lineNo))
			default:
				if _, err := w.Write(append(line, '\n')); err != nil {
					return lines, skipped, fmt.Errorf("writing combined line: %w", err)
				}
				lines++
			}
		}
		if readErr == io.EOF {
			return lines, skipped, nil
		}
		if readErr != nil {
			return lines, skipped, fmt.Errorf("reading %s: %w", path, readErr)
		}
	}
}
