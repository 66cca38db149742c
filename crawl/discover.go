// Package crawl provides URL discovery ("seeding") for each origin.
// Sources (sitemaps, the Common Crawl index, BFS link crawling) are picked
// by name and merged; discovery never fetches page content for storage.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gaurav-prasanna/govcrawl/core"
	"go.uber.org/zap"
)

// Source names accepted in a "+"-joined source spec such as "sitemap+cc".
const (
	SourceSitemap     = "sitemap"
	SourceCommonCrawl = "cc"
	SourceLinks       = "links"
)

// ErrNoSources is returned when every configured source failed for an origin.
var ErrNoSources = errors.New("all discovery sources failed")

// Source is one URL-discovery backend.
type Source interface {
	core.Discoverer
	Name() string
}

// ParseSources splits a source spec ("sitemap+cc") into known source names.
func ParseSources(spec string) ([]string, error) {
	var names []string
	for _, part := range strings.Split(spec, "+") {
		name := strings.TrimSpace(strings.ToLower(part))
		switch name {
		case SourceSitemap, SourceCommonCrawl, SourceLinks:
			names = append(names, name)
		case "":
		default:
			return nil, fmt.Errorf("unknown discovery source %q", part)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("empty discovery source spec %q", spec)
	}
	return Dedupe(names), nil
}

// Discoverer merges the URLs of several sources for one origin.
type Discoverer struct {
	sources []Source
	maxURLs int
	logger  *zap.Logger
}

// NewDiscoverer creates a Discoverer over sources, capping output at maxURLs
// (0 means unlimited).
func NewDiscoverer(sources []Source, maxURLs int, logger *zap.Logger) *Discoverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discoverer{sources: sources, maxURLs: maxURLs, logger: logger}
}

// Discover returns the origin's URLs: normalized, restricted to the origin
// domain, free of static assets and duplicates, in source order.
// It fails only when every source failed.
func (d *Discoverer) Discover(ctx context.Context, origin core.Origin) ([]string, error) {
	domain := BaseDomain(origin.URL)
	if domain == "" {
		return nil, fmt.Errorf("invalid origin URL %q", origin.URL)
	}

	var raw []string
	var errs []error
	for _, src := range d.sources {
		urls, err := src.Discover(ctx, origin)
		if err != nil {
			d.logger.Warn("discovery source failed",
				zap.String("origin", origin.Name), zap.String("source", src.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}
		d.logger.Info("discovery source done",
			zap.String("origin", origin.Name), zap.String("source", src.Name()), zap.Int("urls", len(urls)))
		raw = append(raw, urls...)
	}
	if len(d.sources) > 0 && len(errs) == len(d.sources) {
		return nil, fmt.Errorf("%w for %s: %w", ErrNoSources, origin.Name, errors.Join(errs...))
	}

	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, u := range raw {
		n := NormalizeURL(u)
		if seen[n] || !IsSameDomain(n, domain) || IsStaticAsset(n) {
			continue
		}
		seen[n] = true
		out = append(out, n)
		if d.maxURLs > 0 && len(out) >= d.maxURLs {
			break
		}
	}
	return out, nil
}
