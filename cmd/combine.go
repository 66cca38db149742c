package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gaurav-prasanna/govcrawl/core/output"
	"github.com/spf13/cobra"
)

var flagOutputDir string

var combineCmd = &cobra.Command{
	Use:   "combine",
	Short: "Merge every *.jsonl file into one corpus",
	Long: `Combine concatenates every *.jsonl file in the output directory into a single
file, copying each line that parses as JSON and skipping the rest.

Examples:
  govcrawl combine
  govcrawl combine --output_dir ./out --output corpus.jsonl`,
	Args: cobra.NoArgs,
	RunE: runCombine,
}

func init() {
	rootCmd.AddCommand(combineCmd)

	combineCmd.Flags().StringVar(&flagOutputDir, "output_dir", "", "Directory to scan (default: work directory)")
	combineCmd.Flags().String("output", "", "Combined file name (default all_canada_rag_content.jsonl)")
}

func runCombine(_ *cobra.Command, _ []string) error {
	a := current
	defer a.close()

	dir := flagOutputDir
	if dir == "" {
		dir = a.out.OutputDir
	}

	summary, err := output.Combine(dir, a.cfg.Combine.Output, a.log.Logger)
	if err != nil {
		return fmt.Errorf("combining: %w", err)
	}

	fmt.Fprintf(os.Stdout, "✓ Combined %d files, %d lines → %s\n",
		summary.Files, summary.Lines, filepath.Join(dir, a.cfg.Combine.Output))
	if summary.Skipped > 0 {
		fmt.Fprintf(os.Stderr, "✗ Skipped %d invalid lines\n", summary.Skipped)
	}
	return nil
}
