package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/tabula-data/tabula/internal/csvio"
	"github.com/tabula-data/tabula/internal/expr"
	"github.com/tabula-data/tabula/internal/frame"
	"github.com/tabula-data/tabula/internal/pipeline"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Delimiter string
	Filters   []string
	Select    []string
	Sort      []string
	Limit     int
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <file>",
		Short: "Filter, project, and sort a delimited-text file",
		Long: `Run a one-shot query over a delimited-text file.

Expressions use the pipeline syntax: column names are bare
identifiers, strings are quoted, and/or/not combine predicates.
Repeated --filter flags AND together. Prefix a --sort key with "-"
for descending order.

Example:
  tabula query data/income.csv --filter 'region == "West"' --select region,income
  tabula query data/income.csv --sort -income --limit 10`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Delimiter, "delimiter", "", "field delimiter (default comma)")
	cmd.Flags().StringArrayVar(&opts.Filters, "filter", nil, "predicate expression (repeatable, ANDed)")
	cmd.Flags().StringSliceVar(&opts.Select, "select", nil, "column expressions to project")
	cmd.Flags().StringArrayVar(&opts.Sort, "sort", nil, "sort key expression, \"-\" prefix for descending (repeatable)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "keep only the first N rows (0 = all)")

	return cmd
}

func runQuery(opts *QueryOptions, path string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	t, err := csvio.ReadFile(path, csvio.Options{Delimiter: firstRune(opts.Delimiter)})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load table", err)
	}

	for _, raw := range opts.Filters {
		pred, err := pipeline.ParseExpr(raw)
		if err != nil {
			return WrapExitError(ExitCommandError, "bad filter expression", err)
		}
		t, err = t.Filter(pred)
		if err != nil {
			return WrapExitError(ExitFailure, "filter failed", err)
		}
	}

	if len(opts.Sort) > 0 {
		keys := make([]frame.SortKey, len(opts.Sort))
		for i, raw := range opts.Sort {
			desc := strings.HasPrefix(raw, "-")
			e, err := pipeline.ParseExpr(strings.TrimPrefix(raw, "-"))
			if err != nil {
				return WrapExitError(ExitCommandError, "bad sort expression", err)
			}
			keys[i] = frame.SortKey{Expr: e, Descending: desc}
		}
		t, err = t.Sort(keys...)
		if err != nil {
			return WrapExitError(ExitFailure, "sort failed", err)
		}
	}

	if len(opts.Select) > 0 {
		exprs := make([]expr.Expr, len(opts.Select))
		for i, raw := range opts.Select {
			e, err := pipeline.ParseExpr(raw)
			if err != nil {
				return WrapExitError(ExitCommandError, "bad select expression", err)
			}
			exprs[i] = e
		}
		t, err = t.Select(exprs...)
		if err != nil {
			return WrapExitError(ExitFailure, "select failed", err)
		}
	}

	if opts.Limit > 0 {
		t = t.Head(opts.Limit)
	}

	return EmitTable(cmd.OutOrStdout(), t, opts.Format, opts.MaxRows)
}
