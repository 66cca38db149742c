package cmd

import (
	"context"
	"fmt"

	"github.com/gaurav-prasanna/govcrawl/config"
	"github.com/gaurav-prasanna/govcrawl/core/output"
	"github.com/gaurav-prasanna/govcrawl/logging"
	"github.com/gaurav-prasanna/govcrawl/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// flagKeys maps command-line flags to config keys. Only flags defined on
// the running command are bound.
var flagKeys = map[string]string{
	"work_dir":     "work_dir",
	"log_level":    "log.level",
	"log_file":     "log.file",
	"source":       "seed.source",
	"max_urls":     "seed.max_urls",
	"concurrency":  "seed.concurrency",
	"batch_size":   "fetch.batch_size",
	"reverse":      "fetch.reverse",
	"resume":       "fetch.resume",
	"renderer":     "fetch.renderer",
	"parallelism":  "fetch.parallelism",
	"ledger":       "ledger.kind",
	"metrics_addr": "metrics.addr",
	"output":       "combine.output",
}

// app holds what every command needs once configuration is loaded.
type app struct {
	cfg     *config.Config
	log     *logging.Logger
	metrics *metrics.Metrics
	out     *output.Writer
}

var current *app

// loadApp reads configuration and builds the logger before any command runs.
func loadApp(cmd *cobra.Command, _ []string) error {
	v, err := config.New(flagConfig)
	if err != nil {
		return err
	}
	if err := bindFlags(v, cmd.Flags()); err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log, nil)
	if err != nil {
		return err
	}
	out, err := output.New(cfg.WorkDir)
	if err != nil {
		_ = logger.Close()
		return fmt.Errorf("initializing work directory: %w", err)
	}

	current = &app{cfg: cfg, log: logger, metrics: metrics.New(), out: out}
	logger.Debug("configuration loaded",
		zap.String("command", cmd.Name()),
		zap.String("config", v.ConfigFileUsed()),
		zap.String("work_dir", out.OutputDir))
	return nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}
	return nil
}

// serveMetrics starts the metrics endpoint in the background when an
// address is configured.
func (a *app) serveMetrics(ctx context.Context) {
	if a.cfg.Metrics.Addr == "" {
		return
	}
	go func() {
		if err := a.metrics.Serve(ctx, a.cfg.Metrics.Addr, a.log.Logger); err != nil {
			a.log.Error("metrics server failed", zap.Error(err))
		}
	}()
}

func (a *app) close() {
	_ = a.log.Close()
}
