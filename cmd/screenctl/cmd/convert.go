package cmd

import (
	"io"

	"github.com/spf13/cobra"
)

func newConvertCmd(root *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Print an input file as decoded delimited text",
		Long: `Convert reads a list the way an upload is read (xlsx conversion,
BOM removal, legacy encoding fallback) and prints the resulting text.

Example:
  screenctl convert --file batch.xlsx > batch.tsv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := root.readInput(file)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), text.Text)
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "input file (csv, txt or xlsx)")
	cmd.MarkFlagRequired("file")
	return cmd
}
