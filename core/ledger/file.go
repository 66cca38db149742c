// Package ledger records which URLs of an origin were already processed so
// an interrupted run can resume without refetching them.
package ledger

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
)

// Kinds of ledger.
const (
	KindFile  = "file"
	KindRedis = "redis"
)

// FileLedger keeps the processed set in memory, backed by an append-only
// file with one URL per line.
type FileLedger struct {
	mu   sync.Mutex
	path string
	seen map[string]bool
	f    *os.File
}

// OpenFile loads an existing ledger at path, or starts an empty one.
func OpenFile(path string) (*FileLedger, error) {
	seen := make(map[string]bool)
	existing, err := os.Open(path)
	switch {
	case err == nil:
		scanner := bufio.NewScanner(existing)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				seen[line] = true
			}
		}
		existing.Close()
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading ledger %s: %w", path, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	return &FileLedger{path: path, seen: seen, f: f}, nil
}

// Seen implements core.Ledger.
func (l *FileLedger) Seen(_ context.Context, url string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seen[url], nil
}

// Mark implements core.Ledger.
func (l *FileLedger) Mark(_ context.Context, url string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen[url] {
		return nil
	}
	if _, err := l.f.WriteString(url + "\n"); err != nil {
		return fmt.Errorf("appending to ledger %s: %w", l.path, err)
	}
	l.seen[url] = true
	return nil
}

// Close implements core.Ledger.
func (l *FileLedger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}
