package crawl

import (
	"context"
	"fmt"
	"sync"

	"github.com/gaurav-prasanna/govcrawl/core"
	"github.com/gaurav-prasanna/govcrawl/core/output"
	"github.com/gaurav-prasanna/govcrawl/metrics"
	"go.uber.org/zap"
)

// SeedResult is the outcome of seeding one origin. URLs is empty when Err
// is set.
type SeedResult struct {
	Origin string
	URLs   []string
	Err    error
}

// Seeder discovers URLs for every origin concurrently and persists them.
type Seeder struct {
	discoverer core.Discoverer
	out        *output.Writer
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewSeeder creates a Seeder writing into out's directory.
func NewSeeder(d core.Discoverer, out *output.Writer, logger *zap.Logger, m *metrics.Metrics) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{discoverer: d, out: out, logger: logger, metrics: m}
}

// SeedAll seeds every origin in its own goroutine. A failing origin yields
// an empty result and writes nothing; it never affects the others.
// The returned error only reports master-list failures.
func (s *Seeder) SeedAll(ctx context.Context, origins []core.Origin) ([]SeedResult, error) {
	masterPath := s.out.MasterListPath()
	if err := output.EnsureURLList(masterPath); err != nil {
		return nil, err
	}

	// The master list has exactly one writer.
	appends := make(chan []string)
	writerDone := make(chan error, 1)
	go func() {
		var firstErr error
		for urls := range appends {
			if err := output.AppendURLList(masterPath, urls); err != nil {
				s.logger.Error("updating master url list failed", zap.Error(err))
				if firstErr == nil {
					firstErr = err
				}
			}
		}
		writerDone <- firstErr
	}()

	results := make([]SeedResult, len(origins))
	var wg sync.WaitGroup
	for i, origin := range origins {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = s.seedOne(ctx, origin, appends)
		}()
	}
	wg.Wait()
	close(appends)

	total := 0
	for _, r := range results {
		total += len(r.URLs)
	}
	s.logger.Info("seeding finished", zap.Int("origins", len(origins)), zap.Int("urls", total))

	if err := <-writerDone; err != nil {
		return results, fmt.Errorf("updating master list: %w", err)
	}
	return results, nil
}

func (s *Seeder) seedOne(ctx context.Context, origin core.Origin, appends chan<- []string) (res SeedResult) {
	res.Origin = origin.Name
	log := s.logger.With(zap.String("origin", origin.Name))
	defer func() {
		if r := recover(); r != nil {
			res.URLs = nil
			res.Err = fmt.Errorf("seeding %s panicked: %v", origin.Name, r)
			log.Error("seeding failed", zap.Error(res.Err))
		}
	}()

	log.Info("seeding urls", zap.String("url", origin.URL))
	urls, err := s.discoverer.Discover(ctx, origin)
	if err != nil {
		res.Err = err
		log.Error("seeding failed", zap.Error(err))
		return res
	}

	path := s.out.URLListPath(origin.Name)
	if err := output.WriteURLList(path, urls); err != nil {
		res.Err = err
		log.Error("seeding failed", zap.Error(err))
		return res
	}
	appends <- urls

	s.metrics.AddSeeded(origin.Name, len(urls))
	log.Info("saved urls", zap.Int("count", len(urls)), zap.String("file", path))
	res.URLs = urls
	return res
}
