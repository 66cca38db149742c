package crawl

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gaurav-prasanna/govcrawl/core"
	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxSitemapDepth bounds sitemap-index recursion.
const maxSitemapDepth = 5

// maxSitemapBytes caps a single (decompressed) sitemap body.
const maxSitemapBytes = 64 << 20

// sitemapLoc holds a <loc> from either a <url> or a <sitemap> entry.
type sitemapLoc struct {
	Loc string `xml:"loc"`
}

// sitemapDoc decodes both <urlset> and <sitemapindex> roots.
type sitemapDoc struct {
	URLs     []sitemapLoc `xml:"url"`
	Sitemaps []sitemapLoc `xml:"sitemap"`
}

// SitemapSource discovers page URLs from robots.txt sitemap entries and
// /sitemap.xml, following sitemap indexes.
type SitemapSource struct {
	client      *http.Client
	userAgent   string
	concurrency int
	maxURLs     int
	logger      *zap.Logger
}

// NewSitemapSource creates a SitemapSource. concurrency bounds how many
// sitemaps are fetched at once.
func NewSitemapSource(client *http.Client, userAgent string, concurrency, maxURLs int, logger *zap.Logger) *SitemapSource {
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SitemapSource{
		client:      client,
		userAgent:   userAgent,
		concurrency: concurrency,
		maxURLs:     maxURLs,
		logger:      logger,
	}
}

// Name implements Source.
func (s *SitemapSource) Name() string { return SourceSitemap }

// Discover walks every sitemap reachable from the origin root.
func (s *SitemapSource) Discover(ctx context.Context, origin core.Origin) ([]string, error) {
	roots, err := s.roots(ctx, origin.URL)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var urls []string
	fetched := 0
	level := roots

	for depth := 0; depth < maxSitemapDepth && len(level) > 0; depth++ {
		var next []string
		var pending []string
		for _, sm := range level {
			if !seen[sm] {
				seen[sm] = true
				pending = append(pending, sm)
			}
		}

		docs := make([]*sitemapDoc, len(pending))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.concurrency)
		var mu sync.Mutex
		for i, sm := range pending {
			g.Go(func() error {
				doc, err := s.fetchSitemap(gctx, sm)
				if err != nil {
					s.logger.Debug("sitemap fetch failed", zap.String("sitemap", sm), zap.Error(err))
					return nil
				}
				mu.Lock()
				fetched++
				mu.Unlock()
				docs[i] = doc
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for _, doc := range docs {
			if doc == nil {
				continue
			}
			for _, u := range doc.URLs {
				if loc := strings.TrimSpace(u.Loc); loc != "" {
					urls = append(urls, loc)
				}
			}
			for _, child := range doc.Sitemaps {
				if loc := strings.TrimSpace(child.Loc); loc != "" {
					next = append(next, loc)
				}
			}
		}
		if s.maxURLs > 0 && len(urls) >= s.maxURLs {
			return urls[:s.maxURLs], nil
		}
		level = next
	}

	if fetched == 0 {
		return nil, fmt.Errorf("no sitemap could be fetched for %s", origin.URL)
	}
	return urls, nil
}

// roots lists the sitemap URLs advertised by robots.txt plus /sitemap.xml.
func (s *SitemapSource) roots(ctx context.Context, rawURL string) ([]string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("parsing origin URL %q: %w", rawURL, err)
	}
	base := fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)

	var roots []string
	if body, status, err := s.get(ctx, base+"/robots.txt"); err == nil {
		if robots, err := robotstxt.FromStatusAndBytes(status, body); err == nil {
			roots = append(roots, robots.Sitemaps...)
		}
	} else {
		s.logger.Debug("robots.txt unavailable", zap.String("origin", rawURL), zap.Error(err))
	}
	roots = append(roots, base+"/sitemap.xml")
	return Dedupe(roots), nil
}

func (s *SitemapSource) fetchSitemap(ctx context.Context, sitemapURL string) (*sitemapDoc, error) {
	body, status, err := s.get(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("sitemap returned %d", status)
	}

	// Some servers send .xml.gz without Content-Encoding; sniff the magic bytes.
	if len(body) > 2 && body[0] == 0x1f && body[1] == 0x8b {
		zr, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("opening gzip sitemap: %w", err)
		}
		defer zr.Close()
		body, err = io.ReadAll(io.LimitReader(zr, maxSitemapBytes))
		if err != nil {
			return nil, fmt.Errorf("decompressing sitemap: %w", err)
		}
	}

	var doc sitemapDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parsing sitemap %s: %w", sitemapURL, err)
	}
	return &doc, nil
}

func (s *SitemapSource) get(ctx context.Context, rawURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSitemapBytes))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
