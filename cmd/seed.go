package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gaurav-prasanna/govcrawl/config"
	"github.com/gaurav-prasanna/govcrawl/core/fetch"
	"github.com/gaurav-prasanna/govcrawl/crawl"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedCmd = &cobra.Command{
	Use:   "seed [origin...]",
	Short: "Discover URLs for each origin",
	Long: `Seed discovers candidate URLs for every configured origin (or only the named
ones) concurrently, from robots.txt and sitemaps and the Common Crawl index.

Each origin's list is written to <origin>.json and appended to scraped_url.json.
An origin that fails is reported and leaves no file behind.

Examples:
  govcrawl seed
  govcrawl seed Ontario Quebec --max_urls 1000
  govcrawl seed Manitoba --source sitemap+links`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().String("source", "", "Discovery sources joined with '+': sitemap, cc, links (default sitemap+cc)")
	seedCmd.Flags().Int("max_urls", 0, "Maximum URLs per origin (default 50000)")
	seedCmd.Flags().Int("concurrency", 0, "Concurrent sitemap fetches per origin (default 100)")
	seedCmd.Flags().String("metrics_addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
}

func runSeed(cmd *cobra.Command, args []string) error {
	a := current
	defer a.close()
	ctx := cmd.Context()
	a.serveMetrics(ctx)

	origins, err := a.cfg.SelectOrigins(args)
	if err != nil {
		return err
	}
	discoverer, err := newDiscoverer(a.cfg, a.log.Logger)
	if err != nil {
		return err
	}

	seeder := crawl.NewSeeder(discoverer, a.out, a.log.Logger, a.metrics)
	results, err := seeder.SeedAll(ctx, origins)

	total := 0
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.Origin, r.Err)
			continue
		}
		total += len(r.URLs)
		fmt.Fprintf(os.Stdout, "✓ %s: %d URLs → %s\n", r.Origin, len(r.URLs), a.out.URLListPath(r.Origin))
	}
	fmt.Fprintf(os.Stdout, "Total URLs discovered across all origins: %d\n", total)
	if err != nil {
		return err
	}
	return ctx.Err()
}

// newDiscoverer builds the configured discovery sources.
func newDiscoverer(cfg *config.Config, logger *zap.Logger) (*crawl.Discoverer, error) {
	names, err := crawl.ParseSources(cfg.Seed.Source)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: cfg.Seed.Timeout}

	var sources []crawl.Source
	for _, name := range names {
		switch name {
		case crawl.SourceSitemap:
			sources = append(sources, crawl.NewSitemapSource(client, cfg.UserAgent, cfg.Seed.Concurrency, cfg.Seed.MaxURLs, logger))
		case crawl.SourceCommonCrawl:
			sources = append(sources, crawl.NewCommonCrawlSource(client, cfg.UserAgent, cfg.Seed.CollInfoURL, cfg.Seed.MaxURLs, logger))
		case crawl.SourceLinks:
			fetcher := fetch.New(cfg.Fetch.PageTimeout, cfg.UserAgent)
			sources = append(sources, crawl.NewLinkSource(fetcher, cfg.Seed.MaxLinkPages, logger))
		}
	}
	return crawl.NewDiscoverer(sources, cfg.Seed.MaxURLs, logger), nil
}
