package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tabula-data/tabula/internal/csvio"
	"github.com/tabula-data/tabula/internal/store"
)

// SnapshotOptions holds flags shared by the snapshot subcommands.
type SnapshotOptions struct {
	*RootOptions
	Database string
}

// NewSnapshotCommand creates the snapshot command group.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save and restore table snapshots in SQLite",
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(newSnapshotSaveCommand(opts))
	cmd.AddCommand(newSnapshotLoadCommand(opts))
	cmd.AddCommand(newSnapshotListCommand(opts))
	cmd.AddCommand(newSnapshotDeleteCommand(opts))

	return cmd
}

func newSnapshotSaveCommand(opts *SnapshotOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "save <name> <file>",
		Short: "Save a delimited-text file as a named snapshot",
		Long: `Load a delimited-text file and persist it as a snapshot.

Saving an existing name creates a new snapshot; the old one remains
addressable by id.

Example:
  tabula snapshot save incomes data/income.csv --db tabula.db`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configureLogging(opts.Verbose)

			t, err := csvio.ReadFile(args[1], csvio.Options{})
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load table", err)
			}

			st, err := store.Open(opts.Database)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open database", err)
			}
			defer closeStore(st)

			snap, err := st.Save(cmd.Context(), args[0], t)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to save snapshot", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved snapshot %s (%s, %d rows)\n", snap.ID, snap.Name, snap.RowCount)
			return nil
		},
	}
}

func newSnapshotLoadCommand(opts *SnapshotOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <id-or-name>",
		Short: "Load a snapshot and display it",
		Long: `Load a snapshot by id, or by name (newest snapshot wins).

Example:
  tabula snapshot load incomes --db tabula.db --format csv`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configureLogging(opts.Verbose)

			st, err := store.Open(opts.Database)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open database", err)
			}
			defer closeStore(st)

			t, snap, err := st.Load(cmd.Context(), args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "failed to load snapshot", err)
			}
			slog.Debug("snapshot loaded", "id", snap.ID, "name", snap.Name, "rows", snap.RowCount)
			return EmitTable(cmd.OutOrStdout(), t, opts.Format, opts.MaxRows)
		},
	}
}

func newSnapshotListCommand(opts *SnapshotOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List snapshots, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configureLogging(opts.Verbose)

			st, err := store.Open(opts.Database)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open database", err)
			}
			defer closeStore(st)

			snaps, err := st.List(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "failed to list snapshots", err)
			}
			for _, snap := range snaps {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-20s %6d rows  %s\n",
					snap.ID, snap.Name, snap.RowCount, snap.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func newSnapshotDeleteCommand(opts *SnapshotOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id-or-name>",
		Short:         "Delete a snapshot",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configureLogging(opts.Verbose)

			st, err := store.Open(opts.Database)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open database", err)
			}
			defer closeStore(st)

			if err := st.Delete(cmd.Context(), args[0]); err != nil {
				return WrapExitError(ExitFailure, "failed to delete snapshot", err)
			}
			return nil
		},
	}
}

func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}
