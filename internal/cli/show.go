package cli

import (
	"github.com/spf13/cobra"

	"github.com/tabula-data/tabula/internal/csvio"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Delimiter string
	NoHeader  bool
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Load a delimited-text file and display it",
		Long: `Load a delimited-text file into a table and write it out.

Column types are inferred per column (int, float, bool, str); empty
fields are missing values.

Example:
  tabula show data/income.csv
  tabula show data/income.tsv --delimiter $'\t' --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Delimiter, "delimiter", "", "field delimiter (default comma)")
	cmd.Flags().BoolVar(&opts.NoHeader, "no-header", false, "treat the first row as data")

	return cmd
}

func runShow(opts *ShowOptions, path string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	t, err := csvio.ReadFile(path, csvio.Options{
		Delimiter: firstRune(opts.Delimiter),
		NoHeader:  opts.NoHeader,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load table", err)
	}

	return EmitTable(cmd.OutOrStdout(), t, opts.Format, opts.MaxRows)
}

func firstRune(s string) rune {
	if s == "" {
		return 0
	}
	return []rune(s)[0]
}
