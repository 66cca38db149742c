package crawl

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gaurav-prasanna/govcrawl/core"
	"go.uber.org/zap"
)

// DefaultMaxLinkPages bounds the BFS link crawl to avoid runaway crawls.
const DefaultMaxLinkPages = 100

// LinkSource performs BFS crawling from the origin root to find internal links.
type LinkSource struct {
	fetcher  core.Fetcher
	maxPages int
	logger   *zap.Logger
}

// NewLinkSource creates a LinkSource fetching at most maxPages pages.
func NewLinkSource(fetcher core.Fetcher, maxPages int, logger *zap.Logger) *LinkSource {
	if maxPages <= 0 {
		maxPages = DefaultMaxLinkPages
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkSource{fetcher: fetcher, maxPages: maxPages, logger: logger}
}

// Name implements Source.
func (l *LinkSource) Name() string { return SourceLinks }

// Discover returns every internal URL reached, in BFS order. PDFs are
// recorded but not expanded.
func (l *LinkSource) Discover(ctx context.Context, origin core.Origin) ([]string, error) {
	domain := BaseDomain(origin.URL)
	queue := NewQueue()
	queue.Add(NormalizeURL(origin.URL))

	for queue.HasNext() && queue.Processed() < l.maxPages {
		if err := ctx.Err(); err != nil {
			return queue.All(), err
		}
		currentURL := queue.Next()
		if IsPDF(currentURL) {
			continue
		}

		result, err := l.fetcher.Fetch(ctx, currentURL)
		if err != nil {
			// Skip failed pages, don't block the crawl.
			l.logger.Debug("link crawl fetch failed", zap.String("url", currentURL), zap.Error(err))
			continue
		}

		links, err := extractLinks(result.HTML, currentURL)
		if err != nil {
			continue
		}
		for _, link := range links {
			if IsSameDomain(link, domain) && !IsStaticAsset(link) {
				queue.Add(NormalizeURL(link))
			}
		}
	}

	return queue.All(), nil
}

// extractLinks extracts all href values from <a> tags, resolving relative URLs.
func extractLinks(html string, baseURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	var links []string

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || href == "" {
			return
		}
		if resolved := resolveURL(href, base); resolved != "" {
			links = append(links, resolved)
		}
	})

	return links, nil
}

// resolveURL resolves a potentially relative URL against a base.
func resolveURL(href string, base *url.URL) string {
	// Skip mailto, javascript, etc.
	if strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "tel:") || strings.HasPrefix(href, "#") {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(parsed)
	resolved.Fragment = ""
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}
