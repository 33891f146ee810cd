/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/ssargent/tabula/pkg/config"
	"github.com/ssargent/tabula/pkg/locator"
	"github.com/ssargent/tabula/pkg/table"
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index <file>",
	Short: "Index a delimited text file",
	Long: `Scan a delimited text file once and register it as a table.

Progress is printed while indexing; press Ctrl-C to cancel. A canceled
build leaves nothing behind.

Examples:
  tabula index orders.csv
  tabula index export.tsv --name export --delimiter tab
  tabula index raw.txt --no-header --no-detect --encoding windows-1252`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		quiet, _ := cmd.Flags().GetBool("quiet")

		opts, err := buildOptions(cmd, container.Config())
		if err != nil {
			return err
		}

		manager, err := container.Manager()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		job, err := manager.Start(ctx, name, args[0], opts, nil)
		if err != nil {
			return err
		}

		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		interrupted := ctx.Done()
	wait:
		for {
			select {
			case <-job.Done():
				break wait
			case <-interrupted:
				job.Cancel()
				interrupted = nil
			case <-ticker.C:
				if !quiet {
					fmt.Fprintf(cmd.ErrOrStderr(), "\rIndexing %s: %5.1f%%", args[0], job.Progress()*100)
				}
			}
		}
		if !quiet {
			fmt.Fprintln(cmd.ErrOrStderr())
		}

		entry, err := job.Wait()
		if errors.Is(err, locator.ErrCanceled) {
			return fmt.Errorf("indexing canceled")
		}
		if err != nil {
			return err
		}
		return outputEntry(cmd.OutOrStdout(), entry)
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
	addIndexFlags(indexCmd)
}

// addIndexFlags registers the tokenizer and schema flags
func addIndexFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "Table name (default: file name)")
	cmd.Flags().String("delimiter", "", "Field delimiter, one character or \"tab\"")
	cmd.Flags().String("quote", "", "Quote character")
	cmd.Flags().Bool("no-quote", false, "Treat quote characters as data")
	cmd.Flags().String("encoding", "", "Text encoding (WHATWG label, e.g. utf-8, windows-1252)")
	cmd.Flags().Bool("no-header", false, "First line is data, not column names")
	cmd.Flags().Bool("no-detect", false, "Disable column type detection")
	cmd.Flags().Bool("single-line", false, "Reject line breaks inside quoted fields")
	cmd.Flags().Bool("trim", false, "Trim spaces around fields")
	cmd.Flags().BoolP("quiet", "q", false, "Do not print progress")
}

// buildOptions merges index flags over the configured defaults
func buildOptions(cmd *cobra.Command, cfg *config.Config) (table.BuildOptions, error) {
	tc, err := cfg.Tokenizer.Config()
	if err != nil {
		return table.BuildOptions{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("delimiter") {
		v, _ := flags.GetString("delimiter")
		if tc.Delimiter, err = config.ParseDelimiter(v); err != nil {
			return table.BuildOptions{}, err
		}
	}
	if flags.Changed("quote") {
		v, _ := flags.GetString("quote")
		if tc.Quote, err = config.ParseDelimiter(v); err != nil {
			return table.BuildOptions{}, err
		}
	}
	if noQuote, _ := flags.GetBool("no-quote"); noQuote {
		tc.Quote = 0
	}
	if flags.Changed("encoding") {
		tc.Encoding, _ = flags.GetString("encoding")
	}
	if singleLine, _ := flags.GetBool("single-line"); singleLine {
		tc.MultiLine = false
	}
	if trim, _ := flags.GetBool("trim"); trim {
		tc.TrimSpace = true
	}
	if err := tc.Validate(); err != nil {
		return table.BuildOptions{}, err
	}

	noHeader, _ := flags.GetBool("no-header")
	noDetect, _ := flags.GetBool("no-detect")
	return table.BuildOptions{
		Tokenizer:   tc,
		HasHeader:   cfg.Index.HasHeader && !noHeader,
		DetectTypes: cfg.Index.DetectTypes && !noDetect,
	}, nil
}
