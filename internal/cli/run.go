package cli

import (
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tabula-data/tabula/internal/csvio"
	"github.com/tabula-data/tabula/internal/pipeline"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Output string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <pipeline.yaml>",
		Short: "Execute a pipeline file",
		Long: `Execute a declarative pipeline file.

The pipeline is validated against the schema, compiled, and applied to
its source table. Relative paths inside the pipeline resolve against
the pipeline file's directory.

Example:
  tabula run pipelines/west-income.yaml
  tabula run pipelines/west-income.yaml --output out.csv --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the result as csv to this path instead of stdout")

	return cmd
}

func runPipeline(opts *RunOptions, path string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	slog.Debug("loading pipeline", "path", path)
	spec, err := pipeline.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load pipeline", err)
	}

	plan, err := pipeline.Compile(spec, filepath.Dir(path))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to compile pipeline", err)
	}
	slog.Debug("pipeline compiled", "name", spec.Name, "steps", len(spec.Steps))

	t, err := plan.Run()
	if err != nil {
		return WrapExitError(ExitFailure, "pipeline failed", err)
	}

	if opts.Output != "" {
		if err := csvio.WriteFile(opts.Output, t, 0); err != nil {
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		slog.Info("pipeline output written", "path", opts.Output, "rows", t.NumRows())
		return nil
	}
	return EmitTable(cmd.OutOrStdout(), t, opts.Format, opts.MaxRows)
}
