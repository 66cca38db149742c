// Package pipeline fetches the seeded URLs of each origin and turns them
// into RAG documents: PDFs first, then HTML pages in batches, with progress
// persisted after every item.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/gaurav-prasanna/govcrawl/core"
	"github.com/gaurav-prasanna/govcrawl/core/extract"
	"github.com/gaurav-prasanna/govcrawl/core/ledger"
	"github.com/gaurav-prasanna/govcrawl/core/normalize"
	"github.com/gaurav-prasanna/govcrawl/core/output"
	"github.com/gaurav-prasanna/govcrawl/core/pdftext"
	"github.com/gaurav-prasanna/govcrawl/core/render"
	"github.com/gaurav-prasanna/govcrawl/crawl"
	"github.com/gaurav-prasanna/govcrawl/metrics"
	"go.uber.org/zap"
)

// ErrNoURLs is returned when an origin's URL list is empty.
var ErrNoURLs = errors.New("no urls to process")

// Config holds the fetch settings.
type Config struct {
	BatchSize        int
	BatchDelay       time.Duration
	PDFDelay         time.Duration
	OriginDelay      time.Duration
	Reverse          bool
	Resume           bool
	MinContentLength int
	Source           string
}

// Downloader saves a remote file into dir and returns its path.
type Downloader interface {
	Download(ctx context.Context, url, dir string) (string, error)
}

// Summary counts what happened to one origin.
type Summary struct {
	Origin     string
	Processed  int
	Successful int
	Skipped    int
}

// Pipeline runs the content fetcher.
type Pipeline struct {
	cfg        Config
	out        *output.Writer
	dispatcher core.Dispatcher
	downloader Downloader

	extractor  core.Extractor
	normalizer core.Normalizer
	pdf        core.PDFExtractor
	mirrors    []core.DocumentSink
	openLedger func(origin string) (core.Ledger, error)
	onProgress func(core.Progress)

	logger  *zap.Logger
	metrics *metrics.Metrics
	sleep   func(ctx context.Context, d time.Duration) error
	now     func() time.Time
}

// New creates a Pipeline reading and writing files through out. HTML pages
// go through dispatcher, PDFs through downloader.
func New(cfg Config, out *output.Writer, dispatcher core.Dispatcher, downloader Downloader, opts ...Option) *Pipeline {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	p := &Pipeline{
		cfg:        cfg,
		out:        out,
		dispatcher: dispatcher,
		downloader: downloader,
		extractor:  extract.New(nil, extract.NewPruner(extract.DefaultThreshold, true, extract.DefaultMinWords)),
		normalizer: normalize.New(),
		pdf:        pdftext.New(),
		logger:     zap.NewNop(),
		sleep:      sleepContext,
		now:        time.Now,
	}
	p.openLedger = func(origin string) (core.Ledger, error) {
		return ledger.OpenFile(p.out.LedgerPath(origin))
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes origins one after another, pausing OriginDelay between
// them. A failing origin is logged and skipped; only cancellation stops
// the run early.
func (p *Pipeline) Run(ctx context.Context, origins []core.Origin) ([]Summary, error) {
	var summaries []Summary
	for i, origin := range origins {
		if i > 0 {
			if err := p.sleep(ctx, p.cfg.OriginDelay); err != nil {
				return summaries, err
			}
		}

		p.logger.Info("starting origin", zap.String("origin", origin.Name))
		summary, err := p.RunOrigin(ctx, origin)
		summaries = append(summaries, summary)
		switch {
		case err == nil:
			p.logger.Info("completed origin",
				zap.String("origin", origin.Name),
				zap.Int("processed", summary.Processed),
				zap.Int("successful", summary.Successful),
				zap.Int("skipped", summary.Skipped))
		case ctx.Err() != nil:
			return summaries, ctx.Err()
		case errors.Is(err, ErrNoURLs):
			p.logger.Info("no urls found, skipping", zap.String("origin", origin.Name))
		default:
			p.logger.Error("origin failed", zap.String("origin", origin.Name), zap.Error(err))
		}
	}
	return summaries, nil
}

// RunOrigin processes every URL seeded for origin.
func (p *Pipeline) RunOrigin(ctx context.Context, origin core.Origin) (Summary, error) {
	summary := Summary{Origin: origin.Name}

	listPath := p.out.URLListPath(origin.Name)
	urls, err := output.ReadURLList(listPath)
	if err != nil {
		return summary, fmt.Errorf("loading urls for %s (run the seeder first): %w", origin.Name, err)
	}
	if len(urls) == 0 {
		return summary, ErrNoURLs
	}
	if p.cfg.Reverse {
		urls = slices.Clone(urls)
		slices.Reverse(urls)
	}

	docs, err := output.NewJSONLWriter(p.out.DocumentsPath(origin.Name))
	if err != nil {
		return summary, err
	}
	defer docs.Close()

	led, err := p.openLedger(origin.Name)
	if err != nil {
		return summary, fmt.Errorf("opening ledger: %w", err)
	}
	defer led.Close()

	tmpDir, err := os.MkdirTemp("", "govcrawl-pdf-*")
	if err != nil {
		return summary, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	r := &originRun{
		Pipeline: p,
		origin:   origin.Name,
		log:      p.logger.With(zap.String("origin", origin.Name)),
		builder:  render.NewBuilder(origin.Name, p.cfg.Source),
		docs:     docs,
		ledger:   led,
		progress: output.NewProgressWriter(p.out.ProgressPath(origin.Name)),
		tmpDir:   tmpDir,
		summary:  &summary,
	}

	pdfs, pages := crawl.Partition(urls)
	pdfs = r.pending(ctx, pdfs)
	pages = r.pending(ctx, pages)
	r.log.Info("crawling origin",
		zap.Int("urls", len(urls)), zap.Int("pdfs", len(pdfs)),
		zap.Int("pages", len(pages)), zap.Int("skipped", summary.Skipped))

	if err := r.processPDFs(ctx, pdfs); err != nil {
		return summary, err
	}
	if err := r.processPages(ctx, pages); err != nil {
		return summary, err
	}

	r.log.Info("finished origin",
		zap.Int("successful", summary.Successful),
		zap.Int("processed", summary.Processed),
		zap.String("file", docs.Path()))
	return summary, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
