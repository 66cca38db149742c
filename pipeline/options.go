package pipeline

import (
	"context"
	"time"

	"github.com/gaurav-prasanna/govcrawl/core"
	"github.com/gaurav-prasanna/govcrawl/metrics"
	"go.uber.org/zap"
)

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithMetrics records item outcomes and progress on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithSleep replaces the politeness pause.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Pipeline) { p.sleep = sleep }
}

// WithClock replaces the time source used for ids, timestamps and progress.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithExtractor replaces the HTML content extractor.
func WithExtractor(e core.Extractor) Option {
	return func(p *Pipeline) { p.extractor = e }
}

// WithNormalizer replaces the HTML to Markdown converter.
func WithNormalizer(n core.Normalizer) Option {
	return func(p *Pipeline) { p.normalizer = n }
}

// WithPDFExtractor replaces the PDF text extractor.
func WithPDFExtractor(e core.PDFExtractor) Option {
	return func(p *Pipeline) { p.pdf = e }
}

// WithMirrors adds sinks that receive a copy of every written document.
func WithMirrors(sinks ...core.DocumentSink) Option {
	return func(p *Pipeline) { p.mirrors = append(p.mirrors, sinks...) }
}

// WithLedger sets how an origin's ledger is opened. By default a file
// ledger is kept next to the origin's output.
func WithLedger(open func(origin string) (core.Ledger, error)) Option {
	return func(p *Pipeline) { p.openLedger = open }
}

// WithProgressObserver is called with every progress snapshot after it
// was persisted.
func WithProgressObserver(fn func(core.Progress)) Option {
	return func(p *Pipeline) { p.onProgress = fn }
}
