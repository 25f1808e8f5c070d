// Package cmd provides the screenctl commands: offline matching, spreadsheet
// conversion and batch building against a reference file.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/JonMunkholm/checkbench/internal/core"
	"github.com/JonMunkholm/checkbench/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	envFile  string
	logLevel string
	legacy   bool
	maxBytes int64
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "screenctl",
		Short: "Match and build screening batches offline",
		Long: `screenctl runs the reconciliation pipeline without the server.

It supports:
- Matching an uploaded list against a reference file
- Converting spreadsheets to delimited text
- Building a batch of check entries and exporting it as CSV

Example:
  screenctl match --reference ref.yaml --file batch.csv
  screenctl build --reference ref.yaml --file batch.csv --source "Black List" --out out.csv`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.envFile != "" {
				if err := godotenv.Load(opts.envFile); err != nil {
					return fmt.Errorf("load env file: %w", err)
				}
			}
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), opts.logLevel, "text"))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.envFile, "env", "", "env file to load before running")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&opts.legacy, "legacy-encoding", true, "decode invalid UTF-8 as Windows-1251")
	root.PersistentFlags().Int64Var(&opts.maxBytes, "max-size", core.DefaultMaxImportBytes, "maximum input file size in bytes")

	root.AddCommand(newMatchCmd(opts), newConvertCmd(opts), newBuildCmd(opts), newDBCmd())
	return root
}

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// readInput decodes one input file into text ready for parsing.
func (o *rootOptions) readInput(path string) (core.ImportText, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.ImportText{}, err
	}
	defer f.Close()

	return core.ReadImportText(f, core.TextOptions{
		FileName:       path,
		MaxBytes:       o.maxBytes,
		LegacyFallback: o.legacy,
	})
}

// parseInput reads path and parses it. An explicit delimiter wins over the
// one fixed by the format, which wins over detection.
func (o *rootOptions) parseInput(path, delimiter string) (core.ParseResult, error) {
	text, err := o.readInput(path)
	if err != nil {
		return core.ParseResult{}, err
	}
	if delimiter == "" {
		delimiter = text.Delimiter
	}
	res := core.ParseTable(text.Text, core.ParseOptions{Delimiter: delimiter})
	slog.Debug("parsed input",
		"file", path,
		"format", text.Format,
		"rows", len(res.Rows),
		"dropped", res.Dropped,
	)
	if len(res.Rows) == 0 {
		return res, fmt.Errorf("%w: %s", core.ErrNothingToImport, path)
	}
	return res, nil
}
