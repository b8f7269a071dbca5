package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/sapp/internal/dump"
	"github.com/roach88/sapp/internal/store"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	Database string
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <dump.yaml>",
		Short: "Import a YAML dump into a trace database",
		Long: `Import runs, leaves, frames and leaf associations from a YAML dump.
The database is created if it does not exist.

Example:
  sapp load --db ./sapp.db ./testdata/cycle.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")

	return cmd
}

func runLoad(opts *LoadOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()

	f, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open dump", err)
	}
	defer f.Close()

	d, err := dump.Decode(f)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read dump", err)
	}

	dbPath, err := opts.databasePath(opts.Database)
	if err != nil {
		return err
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	counts, err := dump.Import(ctx, st, d)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to import dump", err)
	}
	slog.Debug("dump imported", "path", path, "db", dbPath, "frames", counts.Frames)

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return formatter.Success(counts, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Loaded %d runs, %d leaves, %d frames, %d assocs into %s\n",
			counts.Runs, counts.Leaves, counts.Frames, counts.Assocs, dbPath)
		return err
	})
}
