package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gaurav-prasanna/govcrawl/core"
	"github.com/gaurav-prasanna/govcrawl/core/extract"
	"github.com/gaurav-prasanna/govcrawl/core/fetch"
	"github.com/gaurav-prasanna/govcrawl/core/output"
	"github.com/gaurav-prasanna/govcrawl/core/render"
	"github.com/gaurav-prasanna/govcrawl/crawl"
	"github.com/gaurav-prasanna/govcrawl/metrics"
	"go.uber.org/zap"
)

// originRun is the mutable state of one RunOrigin call.
type originRun struct {
	*Pipeline
	origin   string
	log      *zap.Logger
	builder  *render.Builder
	docs     core.DocumentSink
	ledger   core.Ledger
	progress *output.ProgressWriter
	tmpDir   string
	summary  *Summary
}

// pending drops URLs already recorded in the ledger when resuming.
func (r *originRun) pending(ctx context.Context, urls []string) []string {
	if !r.cfg.Resume {
		return urls
	}
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		seen, err := r.ledger.Seen(ctx, u)
		if err != nil {
			r.log.Warn("ledger lookup failed", zap.String("url", u), zap.Error(err))
		}
		if seen {
			r.summary.Skipped++
			r.metrics.ObserveItem(r.origin, typeOf(u), metrics.OutcomeSkipped)
			continue
		}
		out = append(out, u)
	}
	return out
}

func (r *originRun) processPDFs(ctx context.Context, urls []string) error {
	if len(urls) > 0 {
		r.log.Info("processing pdf documents", zap.Int("count", len(urls)))
	}
	for i, u := range urls {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.log.Debug("processing pdf", zap.Int("index", i+1), zap.Int("total", len(urls)), zap.String("url", u))

		start := r.now()
		content, err := r.pdfText(ctx, u)
		// An interrupted download is neither counted nor marked.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		r.metrics.ObserveFetch(core.TypePDF, r.now().Sub(start))
		r.summary.Processed++
		if err != nil {
			r.log.Warn("pdf failed", zap.String("url", u), zap.Error(err))
			r.metrics.ObserveItem(r.origin, core.TypePDF, metrics.OutcomeFailed)
		} else {
			r.keep(ctx, r.builder.PDF(u, content, r.summary.Processed, r.now()))
		}

		r.finishItem(ctx, u, !transient(0, err))
		if err := r.sleep(ctx, r.cfg.PDFDelay); err != nil {
			return err
		}
	}
	return nil
}

// pdfText downloads u into the temp dir and extracts its text. The
// downloaded file is removed on every path.
func (r *originRun) pdfText(ctx context.Context, u string) (string, error) {
	path, err := r.downloader.Download(ctx, u, r.tmpDir)
	if err != nil {
		return "", err
	}
	defer os.Remove(path)
	return r.pdf.ExtractText(path)
}

func (r *originRun) processPages(ctx context.Context, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	batches := (len(urls) + r.cfg.BatchSize - 1) / r.cfg.BatchSize
	r.log.Info("processing html pages", zap.Int("count", len(urls)), zap.Int("batches", batches))

	for b := 0; b < batches; b++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch := urls[b*r.cfg.BatchSize : min((b+1)*r.cfg.BatchSize, len(urls))]
		r.log.Info("processing html batch", zap.Int("batch", b+1), zap.Int("batches", batches))

		results, err := r.dispatcher.Dispatch(ctx, batch)
		if err != nil {
			// The whole batch failed to start; every URL counts as failed.
			r.log.Error("dispatching batch failed", zap.Error(err))
			for _, u := range batch {
				if ctxErr := r.handlePage(ctx, core.CrawlResult{URL: u, Err: err}); ctxErr != nil {
					return ctxErr
				}
			}
		} else {
			for res := range results {
				if err := r.handlePage(ctx, res); err != nil {
					return err
				}
			}
		}

		if err := r.sleep(ctx, r.cfg.BatchDelay); err != nil {
			return err
		}
	}
	return nil
}

// handlePage records one dispatched result. It returns the context error
// without touching counters or the ledger once the run is cancelled.
func (r *originRun) handlePage(ctx context.Context, res core.CrawlResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.summary.Processed++

	if !res.Success() {
		r.log.Warn("html failed", zap.String("url", res.URL), zap.Int("status", res.StatusCode), zap.Error(res.Err))
		r.metrics.ObserveItem(r.origin, core.TypeHTML, metrics.OutcomeFailed)
		r.finishItem(ctx, res.URL, !transient(res.StatusCode, res.Err))
		return nil
	}
	defer r.finishItem(ctx, res.URL, true)

	start := r.now()
	content, err := r.pageContent(res.HTML)
	r.metrics.ObserveFetch(core.TypeHTML, r.now().Sub(start))
	if err != nil {
		r.log.Warn("html extraction failed", zap.String("url", res.URL), zap.Error(err))
		r.metrics.ObserveItem(r.origin, core.TypeHTML, metrics.OutcomeFailed)
		return nil
	}

	meta := extract.Metadata(res.HTML, res.URL)
	r.keep(ctx, r.builder.HTML(res.URL, meta, content, r.summary.Processed, r.now()))
	return nil
}

// pageContent reduces raw HTML to the pruned Markdown ("fit content").
func (r *originRun) pageContent(rawHTML string) (string, error) {
	cleaned, err := r.extractor.Extract(rawHTML)
	if err != nil {
		return "", fmt.Errorf("extracting: %w", err)
	}
	md, err := r.normalizer.Normalize(cleaned)
	if err != nil {
		return "", fmt.Errorf("normalizing: %w", err)
	}
	return md, nil
}

// keep persists doc when its content clears the length floor.
func (r *originRun) keep(ctx context.Context, doc core.Document) {
	if doc.ContentLength <= r.cfg.MinContentLength {
		r.log.Info("insufficient content", zap.String("url", doc.URL), zap.Int("content_length", doc.ContentLength))
		r.metrics.ObserveItem(r.origin, doc.DocumentType, metrics.OutcomeEmpty)
		return
	}

	if err := r.docs.Write(ctx, doc); err != nil {
		r.log.Error("writing document failed", zap.String("url", doc.URL), zap.Error(err))
		r.metrics.ObserveItem(r.origin, doc.DocumentType, metrics.OutcomeFailed)
		return
	}
	r.summary.Successful++
	r.metrics.ObserveItem(r.origin, doc.DocumentType, metrics.OutcomeWritten)
	r.log.Info("saved document",
		zap.String("type", doc.DocumentType),
		zap.Int("successful", r.summary.Successful),
		zap.String("title", doc.Title),
		zap.Int("content_length", doc.ContentLength))

	for _, m := range r.mirrors {
		if err := m.Write(ctx, doc); err != nil {
			r.log.Warn("mirroring document failed", zap.String("url", doc.URL), zap.Error(err))
		}
	}
}

// finishItem overwrites the progress file and, when done, records u in the
// ledger. Items left unmarked are retried by a resumed run.
func (r *originRun) finishItem(ctx context.Context, u string, done bool) {
	if done {
		if err := r.ledger.Mark(ctx, u); err != nil {
			r.log.Warn("ledger update failed", zap.String("url", u), zap.Error(err))
		}
	}

	p := core.Progress{
		TotalProcessed:      r.summary.Processed,
		Successful:          r.summary.Successful,
		LastResultCompleted: float64(r.now().UnixNano()) / float64(time.Second),
		Origin:              r.origin,
	}
	if err := r.progress.Write(p); err != nil {
		r.log.Warn("saving progress failed", zap.Error(err))
	}
	r.metrics.SetProgress(r.origin, p.TotalProcessed)
	if r.onProgress != nil {
		r.onProgress(p)
	}
}

// transient reports failures a later run may not repeat: throttling,
// server errors and timeouts.
func transient(status int, err error) bool {
	var se *fetch.StatusError
	if errors.As(err, &se) {
		status = se.StatusCode
	}
	if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func typeOf(u string) string {
	if crawl.IsPDF(u) {
		return core.TypePDF
	}
	return core.TypeHTML
}
