package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/JonMunkholm/checkbench/internal/core"
	"github.com/JonMunkholm/checkbench/internal/reference"
	"github.com/spf13/cobra"
)

type matchOptions struct {
	reference string
	file      string
	delimiter string
}

func newMatchCmd(root *rootOptions) *cobra.Command {
	opts := &matchOptions{}

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match an input list against a reference file",
		Long: `Match parses the input list and prints one line per row with the
match type, the score and the matched reference record.

Example:
  screenctl match --reference ref.yaml --file batch.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := runMatch(cmd, root, opts)
			if err != nil {
				return err
			}
			return printMatches(cmd, results)
		},
	}

	addMatchFlags(cmd, opts)
	return cmd
}

func addMatchFlags(cmd *cobra.Command, opts *matchOptions) {
	cmd.Flags().StringVarP(&opts.reference, "reference", "r", "", "reference population YAML file")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "input file (csv, txt or xlsx)")
	cmd.Flags().StringVarP(&opts.delimiter, "delimiter", "d", "", "field delimiter (default: detect)")
	cmd.MarkFlagRequired("reference")
	cmd.MarkFlagRequired("file")
}

func runMatch(cmd *cobra.Command, root *rootOptions, opts *matchOptions) ([]core.MatchResult, error) {
	store, err := reference.LoadYAMLFile(opts.reference)
	if err != nil {
		return nil, err
	}
	parsed, err := root.parseInput(opts.file, opts.delimiter)
	if err != nil {
		return nil, err
	}
	return core.NewMatcher(store).Match(cmd.Context(), parsed.Rows)
}

func printMatches(cmd *cobra.Command, results []core.MatchResult) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMATCH\tSCORE\tRECORD")
	for _, res := range results {
		score, record := "-", "-"
		if res.Score != nil {
			score = strconv.Itoa(*res.Score)
		}
		if res.Matched != nil {
			record = fmt.Sprintf("%s (%s)", res.Matched.Name, res.Matched.CustomerNumber)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", res.Row.Name, res.Type, score, record)
	}

	s := core.Summarize(results)
	fmt.Fprintf(tw, "\ntotal %d\texact %d\tpartial %d\tnone %d\n", s.Total, s.Exact, s.Partial, s.None)
	return tw.Flush()
}
