package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/gaurav-prasanna/govcrawl/config"
	"github.com/gaurav-prasanna/govcrawl/core"
	"github.com/gaurav-prasanna/govcrawl/core/dispatch"
	"github.com/gaurav-prasanna/govcrawl/core/extract"
	"github.com/gaurav-prasanna/govcrawl/core/fetch"
	"github.com/gaurav-prasanna/govcrawl/core/ledger"
	"github.com/gaurav-prasanna/govcrawl/core/store"
	"github.com/gaurav-prasanna/govcrawl/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [origin...]",
	Short: "Fetch seeded URLs and write RAG documents",
	Long: `Fetch loads <origin>.json for every configured origin (or only the named ones),
downloads PDFs and renders HTML pages, and appends one JSON document per
item with enough content to <origin>_rag_content.jsonl. Progress is
overwritten in progress_<origin>.json after every item.

Origins are processed one at a time. Run seed first.

Examples:
  govcrawl fetch
  govcrawl fetch Alberta --batch_size 20 --reverse
  govcrawl fetch Ontario --resume --renderer browser --metrics_addr :9090`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().Int("batch_size", 0, "HTML pages per batch (default 50)")
	fetchCmd.Flags().Bool("reverse", false, "Process each origin's URL list in reverse order")
	fetchCmd.Flags().Bool("resume", false, "Skip URLs recorded as processed by an earlier run")
	fetchCmd.Flags().String("renderer", "", "HTML renderer: http or browser (default http)")
	fetchCmd.Flags().Int("parallelism", 0, "Concurrent page fetches (default 20)")
	fetchCmd.Flags().String("ledger", "", "Processed-URL ledger: file or redis (default file)")
	fetchCmd.Flags().String("metrics_addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
}

func runFetch(cmd *cobra.Command, args []string) error {
	a := current
	defer a.close()
	ctx := cmd.Context()
	a.serveMetrics(ctx)
	cfg := a.cfg
	logger := a.log.Logger

	origins, err := cfg.SelectOrigins(args)
	if err != nil {
		return err
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(a.metrics),
		pipeline.WithExtractor(extract.New(cfg.Fetch.ExcludedTags,
			extract.NewPruner(cfg.Fetch.Prune.Threshold, cfg.Fetch.Prune.Dynamic, cfg.Fetch.Prune.MinWords))),
	}

	if cfg.Ledger.Kind == ledger.KindRedis {
		client, err := ledger.NewRedisClient(ctx, cfg.Ledger.RedisAddr)
		if err != nil {
			return err
		}
		defer client.Close()
		opts = append(opts, pipeline.WithLedger(func(origin string) (core.Ledger, error) {
			return ledger.NewRedis(client, cfg.Ledger.RedisPrefix, origin), nil
		}))
	}

	mirrors, err := openMirrors(ctx, cfg)
	if err != nil {
		return err
	}
	for _, m := range mirrors {
		defer m.Close()
	}
	opts = append(opts, pipeline.WithMirrors(mirrors...))

	p := pipeline.New(pipeline.Config{
		BatchSize:        cfg.Fetch.BatchSize,
		BatchDelay:       cfg.Fetch.BatchDelay,
		PDFDelay:         cfg.Fetch.PDFDelay,
		OriginDelay:      cfg.Fetch.OriginDelay,
		Reverse:          cfg.Fetch.Reverse,
		Resume:           cfg.Fetch.Resume,
		MinContentLength: cfg.Fetch.MinContentLength,
		Source:           cfg.Fetch.Source,
	}, a.out, newDispatcher(cfg, logger), fetch.New(cfg.Fetch.PDFTimeout, cfg.UserAgent), opts...)

	summaries, err := p.Run(ctx, origins)
	for _, s := range summaries {
		fmt.Fprintf(os.Stdout, "✓ %s: %d/%d successful", s.Origin, s.Successful, s.Processed)
		if s.Skipped > 0 {
			fmt.Fprintf(os.Stdout, " (%d already processed)", s.Skipped)
		}
		fmt.Fprintf(os.Stdout, " → %s\n", a.out.DocumentsPath(s.Origin))
	}
	return err
}

// newDispatcher selects the HTML renderer.
func newDispatcher(cfg *config.Config, logger *zap.Logger) core.Dispatcher {
	opts := dispatch.Options{
		Parallelism: cfg.Fetch.Parallelism,
		Timeout:     cfg.Fetch.PageTimeout,
		UserAgent:   cfg.UserAgent,
		Limiter: dispatch.NewRateLimiter(
			cfg.RateLimit.BaseDelayMin,
			cfg.RateLimit.BaseDelayMax,
			cfg.RateLimit.MaxDelay,
			cfg.RateLimit.MaxRetries,
			cfg.RateLimit.Codes,
		),
		Logger: logger,
	}
	if cfg.Fetch.Renderer == config.RendererBrowser {
		return dispatch.NewBrowser(opts)
	}
	return dispatch.NewColly(opts)
}

// openMirrors connects the configured document mirrors.
func openMirrors(ctx context.Context, cfg *config.Config) ([]core.DocumentSink, error) {
	var sinks []core.DocumentSink
	if cfg.Mirror.PostgresURL != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.Mirror.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("opening postgres mirror: %w", err)
		}
		sinks = append(sinks, pg)
	}
	if cfg.Mirror.MongoURI != "" {
		mg, err := store.NewMongoStore(ctx, cfg.Mirror.MongoURI, cfg.Mirror.MongoDatabase, cfg.Mirror.MongoCollection)
		if err != nil {
			for _, s := range sinks {
				s.Close()
			}
			return nil, fmt.Errorf("opening mongo mirror: %w", err)
		}
		sinks = append(sinks, mg)
	}
	return sinks, nil
}
