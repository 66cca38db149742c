package dispatch

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gaurav-prasanna/govcrawl/core"
	"github.com/gocolly/colly"
	"go.uber.org/zap"
)

// Context keys carried on each colly request.
const (
	ctxURL     = "govcrawl_url"
	ctxAttempt = "govcrawl_attempt"
)

// Options configures a dispatcher.
type Options struct {
	Parallelism int
	Timeout     time.Duration
	UserAgent   string
	Limiter     *RateLimiter
	Logger      *zap.Logger
}

func (o *Options) defaults() {
	if o.Parallelism <= 0 {
		o.Parallelism = 1
	}
	if o.Limiter == nil {
		o.Limiter = NewRateLimiter(DefaultBaseDelayMin, DefaultBaseDelayMax, DefaultMaxDelay, DefaultMaxRetries, nil)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// CollyDispatcher fetches pages over plain HTTP with a colly collector.
type CollyDispatcher struct {
	opts      Options
	transport http.RoundTripper
}

// NewColly creates a CollyDispatcher.
func NewColly(opts Options) *CollyDispatcher {
	opts.defaults()
	return &CollyDispatcher{opts: opts, transport: http.DefaultTransport}
}

// Dispatch implements core.Dispatcher. A fresh collector is used per batch
// so its wait group covers exactly these URLs.
func (d *CollyDispatcher) Dispatch(ctx context.Context, urls []string) (<-chan core.CrawlResult, error) {
	c := colly.NewCollector(
		colly.UserAgent(d.opts.UserAgent),
		colly.Async(true),
		colly.AllowURLRevisit(),
	)
	c.WithTransport(&contextTransport{ctx: ctx, base: d.transport})
	if d.opts.Timeout > 0 {
		c.SetRequestTimeout(d.opts.Timeout)
	}

	limiter := d.opts.Limiter
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: d.opts.Parallelism,
		Delay:       limiter.BaseDelayMin,
		RandomDelay: limiter.BaseDelayMax - limiter.BaseDelayMin,
	}); err != nil {
		return nil, fmt.Errorf("configuring collector limits: %w", err)
	}

	// Buffered so callbacks never block on a slow consumer.
	out := make(chan core.CrawlResult, len(urls))
	log := d.opts.Logger

	c.OnResponse(func(r *colly.Response) {
		out <- core.CrawlResult{
			URL:        r.Ctx.Get(ctxURL),
			StatusCode: r.StatusCode,
			HTML:       string(r.Body),
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		pageURL := r.Ctx.Get(ctxURL)
		attempt, _ := strconv.Atoi(r.Ctx.Get(ctxAttempt))

		if ctx.Err() == nil && limiter.ShouldRetry(r.StatusCode, attempt) {
			wait := limiter.Backoff(attempt)
			log.Warn("rate limited, retrying",
				zap.String("url", pageURL), zap.Int("status", r.StatusCode),
				zap.Int("attempt", attempt+1), zap.Duration("wait", wait))
			if sleep(ctx, wait) == nil {
				r.Ctx.Put(ctxAttempt, strconv.Itoa(attempt+1))
				retryErr := r.Request.Retry()
				if retryErr == nil {
					return
				}
				err = retryErr
			}
		}

		if r.StatusCode != 0 {
			err = fmt.Errorf("status %d: %w", r.StatusCode, err)
		}
		out <- core.CrawlResult{URL: pageURL, StatusCode: r.StatusCode, Err: err}
	})

	for _, u := range urls {
		reqCtx := colly.NewContext()
		reqCtx.Put(ctxURL, u)
		reqCtx.Put(ctxAttempt, "0")
		if err := c.Request(http.MethodGet, u, nil, reqCtx, nil); err != nil {
			out <- core.CrawlResult{URL: u, Err: fmt.Errorf("scheduling request: %w", err)}
		}
	}

	go func() {
		c.Wait()
		close(out)
	}()
	return out, nil
}

// contextTransport binds every request of a batch to the caller's context
// so cancellation aborts in-flight fetches.
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t *contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}
