// Package cmd implements the CLI commands for govcrawl using Cobra.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Persistent flag variables.
var (
	flagConfig   string
	flagWorkDir  string
	flagLogLevel string
	flagLogFile  string
)

var rootCmd = &cobra.Command{
	Use:   "govcrawl",
	Short: "govcrawl: turn Canadian government websites into RAG-ready JSONL",
	Long: `govcrawl discovers URLs on government web domains, fetches pages and PDF
documents, extracts the main text and writes one JSON document per line.

The three stages share nothing but files in the work directory:

  govcrawl seed [origin...]     discover URLs into <origin>.json and scraped_url.json
  govcrawl fetch [origin...]    write <origin>_rag_content.jsonl and progress_<origin>.json
  govcrawl combine              merge every *.jsonl into all_canada_rag_content.jsonl`,
	SilenceUsage:      true,
	PersistentPreRunE: loadApp,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: ./govcrawl.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&flagWorkDir, "work_dir", "", "Directory holding URL lists, outputs and progress files")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log_level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log_file", "", "Also write JSON logs to this rotating file")
}

// Execute runs the root command. SIGINT and SIGTERM cancel the run between
// items.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
