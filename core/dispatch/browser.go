package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/gaurav-prasanna/govcrawl/core"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// BrowserDispatcher renders pages in headless Chrome, one tab per URL.
type BrowserDispatcher struct {
	opts Options
}

// NewBrowser creates a BrowserDispatcher.
func NewBrowser(opts Options) *BrowserDispatcher {
	opts.defaults()
	return &BrowserDispatcher{opts: opts}
}

// Dispatch implements core.Dispatcher. One browser process serves the
// whole batch and is shut down once every URL has a result.
func (d *BrowserDispatcher) Dispatch(ctx context.Context, urls []string) (<-chan core.CrawlResult, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-downloads", true),
	)
	if d.opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(d.opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	// Start the browser now so a missing Chrome fails the batch, not each URL.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	out := make(chan core.CrawlResult, len(urls))
	sem := semaphore.NewWeighted(int64(d.opts.Parallelism))
	var wg sync.WaitGroup

	go func() {
		defer allocCancel()
		defer browserCancel()
		defer close(out)

		for _, u := range urls {
			if err := sem.Acquire(ctx, 1); err != nil {
				out <- core.CrawlResult{URL: u, Err: err}
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer sem.Release(1)
				out <- d.fetch(ctx, browserCtx, u)
			}()
		}
		wg.Wait()
	}()

	return out, nil
}

// fetch renders one page, retrying rate-limited statuses.
func (d *BrowserDispatcher) fetch(ctx, browserCtx context.Context, pageURL string) core.CrawlResult {
	limiter := d.opts.Limiter
	for attempt := 0; ; attempt++ {
		res := d.render(browserCtx, pageURL)
		if res.Err == nil || !limiter.ShouldRetry(res.StatusCode, attempt) {
			// Politeness pause before the slot is released.
			_ = sleep(ctx, limiter.BaseDelay())
			return res
		}
		wait := limiter.Backoff(attempt)
		d.opts.Logger.Warn("rate limited, retrying",
			zap.String("url", pageURL), zap.Int("status", res.StatusCode),
			zap.Int("attempt", attempt+1), zap.Duration("wait", wait))
		if err := sleep(ctx, wait); err != nil {
			res.Err = err
			return res
		}
	}
}

// render loads pageURL in a new tab and returns its outer HTML.
func (d *BrowserDispatcher) render(browserCtx context.Context, pageURL string) core.CrawlResult {
	tabCtx, cancel := chromedp.NewContext(browserCtx)
	defer cancel()
	if d.opts.Timeout > 0 {
		tabCtx, cancel = context.WithTimeout(tabCtx, d.opts.Timeout)
		defer cancel()
	}

	var mu sync.Mutex
	status := 0
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		e, ok := ev.(*network.EventResponseReceived)
		if !ok || e.Type != network.ResourceTypeDocument {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if status == 0 {
			status = int(e.Response.Status)
		}
	})

	var html string
	err := chromedp.Run(tabCtx,
		network.Enable(),
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)

	mu.Lock()
	res := core.CrawlResult{URL: pageURL, StatusCode: status}
	mu.Unlock()

	switch {
	case err != nil:
		res.Err = fmt.Errorf("browser fetch failed: %w", err)
	case res.StatusCode >= 400:
		res.Err = fmt.Errorf("status %d", res.StatusCode)
	default:
		res.HTML = html
	}
	return res
}
