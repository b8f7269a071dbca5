package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/sapp/internal/model"
	"github.com/roach88/sapp/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
}

// RunsResult is the runs command payload.
type RunsResult struct {
	Runs           []model.Run `json:"runs"`
	LatestFinished int64       `json:"latest_finished,omitempty"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List analysis runs",
		Long: `List the analysis runs in a trace database. The latest finished run
is the one trace uses when --run is not given.

Example:
  sapp runs --db ./sapp.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	dbPath, err := opts.databasePath(opts.Database)
	if err != nil {
		return err
	}

	st, err := store.OpenExisting(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	latest, _, err := st.LatestFinishedRunID(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find latest run", err)
	}

	result := RunsResult{Runs: runs, LatestFinished: latest}
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return formatter.Success(result, func(w io.Writer) error {
		if len(runs) == 0 {
			_, err := fmt.Fprintln(w, "(no runs)")
			return err
		}
		for _, run := range runs {
			marker := ""
			if run.ID == latest {
				marker = " (latest)"
			}
			if _, err := fmt.Fprintf(w, "#%d %s%s\n", run.ID, run.Status, marker); err != nil {
				return err
			}
		}
		return nil
	})
}
