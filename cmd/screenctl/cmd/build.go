package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/checkbench/internal/core"
	"github.com/spf13/cobra"
)

type buildOptions struct {
	matchOptions
	source          string
	transactionType string
	originSource    string
	listGroup       string
	user            string
	out             string
}

func newBuildCmd(root *rootOptions) *cobra.Command {
	opts := &buildOptions{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build check entries for every input row and export them",
		Long: `Build parses and matches the input list, turns every row into a check
entry under one new transaction and writes the deduplicated batch as CSV
(or xlsx when --out ends in .xlsx).

Example:
  screenctl build --reference ref.yaml --file batch.csv \
    --source "Black List" --list-group G --user alice --out out.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, root, opts, time.Now())
		},
	}

	addMatchFlags(cmd, &opts.matchOptions)
	cmd.Flags().StringVar(&opts.source, "source", string(core.SourceBlackList), "source list (White List, Black List, Customer Base)")
	cmd.Flags().StringVar(&opts.transactionType, "transaction-type", string(core.TransactionInsert), "transaction type (Insert, Delete)")
	cmd.Flags().StringVar(&opts.originSource, "origin-source", "", "origin source label")
	cmd.Flags().StringVar(&opts.listGroup, "list-group", "", "list group label")
	cmd.Flags().StringVarP(&opts.user, "user", "u", os.Getenv("USER"), "user recorded on each entry")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file (default: stdout as CSV)")
	return cmd
}

func runBuild(cmd *cobra.Command, root *rootOptions, opts *buildOptions, now time.Time) error {
	defaults := core.BatchDefaults{
		TxNo:            core.NewTxNo(now),
		Source:          core.SourceType(opts.source),
		TransactionType: core.TransactionType(opts.transactionType),
		OriginSource:    opts.originSource,
		ListGroup:       opts.listGroup,
		User:            opts.user,
		Date:            now,
	}
	if err := defaults.Validate(); err != nil {
		return err
	}

	results, err := runMatch(cmd, root, &opts.matchOptions)
	if err != nil {
		return err
	}

	ledger := core.NewLedger()
	merged := ledger.Merge(core.Build(results, defaults))
	slog.Info("batch built",
		"tx_no", defaults.TxNo,
		"rows", len(results),
		"added", merged.Added,
		"duplicates", merged.Duplicates,
	)

	if opts.out == "" {
		return core.WriteCSV(cmd.OutOrStdout(), ledger.Entries())
	}

	f, err := os.Create(opts.out)
	if err != nil {
		return err
	}
	if err := writeEntries(f, opts.out, ledger.Entries()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d entries (%d duplicates dropped) to %s\n", merged.Added, merged.Duplicates, opts.out)
	return nil
}

func writeEntries(w io.Writer, name string, entries []core.CheckEntry) error {
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return core.WriteXLSX(w, entries)
	}
	return core.WriteCSV(w, entries)
}
