package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/sapp/internal/model"
	"github.com/roach88/sapp/internal/navigate"
	"github.com/roach88/sapp/internal/render"
	"github.com/roach88/sapp/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Frames   []int64
	Leaves   []string
	Backward bool
	RunID    int64 // 0 selects the latest finished run
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Assemble a trace path from seed frames",
		Long: `Assemble a trace path starting at one or more seed frames.

At each step sapp follows the frames that reach one of the named leaves,
picks the one with the shortest remaining trace and records the others
as branches. Preconditions lead to sinks; postconditions lead to sources.

When no --leaf is given, the config file targets are used, and failing
that every leaf of the seed's category.

Examples:
  sapp trace --db ./sapp.db --frame 1 --leaf RCE
  sapp trace --db ./sapp.db --frame 1 --frame 2 --leaf RCE --leaf SQL
  sapp trace --db ./sapp.db --frame 7 --backward --run 3 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().Int64SliceVar(&opts.Frames, "frame", nil, "seed frame id, repeatable (required)")
	_ = cmd.MarkFlagRequired("frame")
	cmd.Flags().StringArrayVar(&opts.Leaves, "leaf", nil, "target leaf name, repeatable")
	cmd.Flags().BoolVar(&opts.Backward, "backward", false, "follow caller edges instead of callee edges")
	cmd.Flags().Int64Var(&opts.RunID, "run", 0, "run id (default latest finished run)")

	return cmd
}

func runTrace(ctx context.Context, opts *TraceOptions, cmd *cobra.Command) error {
	dbPath, err := opts.databasePath(opts.Database)
	if err != nil {
		return err
	}

	st, err := store.OpenExisting(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	sessionID := uuid.Must(uuid.NewV7()).String()
	logger := slog.Default().With("session", sessionID)
	ctx = navigate.WithLogger(ctx, logger)

	tx, err := st.BeginRead(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to begin read", err)
	}
	defer tx.Rollback()

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	runID, err := resolveRun(ctx, tx, opts.RunID)
	if err != nil {
		return err
	}
	if runID == model.NoRun {
		logger.Info("no finished run", "db", dbPath)
		empty := render.NewPath(model.NoRun, direction(opts.Backward), navigate.NewTargetSet(), nil)
		return formatter.SuccessWithSession(sessionID, empty, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "No finished run in %s\n", dbPath)
			return err
		})
	}

	seeds, err := readSeeds(ctx, tx, runID, opts.Frames)
	if err != nil {
		return err
	}

	leaves, err := navigate.LoadLeafMappings(ctx, tx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load leaves", err)
	}

	targets := opts.targets(leaves, seeds)
	dir := direction(opts.Backward)

	logger.Info("assembling path",
		"run_id", runID,
		"seeds", len(seeds),
		"direction", dir.String(),
		"targets", targets.Len())

	steps, err := navigate.AssemblePath(ctx, leaves, tx, runID, targets, seeds, dir)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to assemble path", err)
	}

	logger.Info("path assembled", "steps", len(steps))

	path := render.NewPath(runID, dir, targets, steps)
	return formatter.SuccessWithSession(sessionID, path, func(w io.Writer) error {
		return render.Text(w, path)
	})
}

// resolveRun returns the requested run, which must be finished, or the
// latest finished one when requested is zero. model.NoRun means no finished run exists.
func resolveRun(ctx context.Context, tx *store.ReadTx, requested int64) (int64, error) {
	if requested != 0 {
		run, err := tx.ReadRun(ctx, requested)
		if errors.Is(err, store.ErrNotFound) {
			return model.NoRun, NewExitError(ExitCommandError, fmt.Sprintf("run %d not found", requested))
		}
		if err != nil {
			return model.NoRun, WrapExitError(ExitCommandError, "failed to read run", err)
		}
		if run.Status != model.RunFinished {
			return model.NoRun, NewExitError(ExitCommandError,
				fmt.Sprintf("run %d is not finished (%s)", run.ID, run.Status))
		}
		return run.ID, nil
	}

	id, ok, err := tx.LatestFinishedRunID(ctx)
	if err != nil {
		return model.NoRun, WrapExitError(ExitCommandError, "failed to find latest run", err)
	}
	if !ok {
		return model.NoRun, nil
	}
	return id, nil
}

// readSeeds loads each seed frame and checks it belongs to runID.
func readSeeds(ctx context.Context, tx *store.ReadTx, runID int64, ids []int64) ([]model.TraceFrame, error) {
	seeds := make([]model.TraceFrame, 0, len(ids))
	for _, id := range ids {
		frame, err := tx.ReadFrame(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("frame %d not found", id))
		}
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to read frame", err)
		}
		if frame.RunID != runID {
			return nil, NewExitError(ExitCommandError,
				fmt.Sprintf("frame %d belongs to run %d, not run %d", id, frame.RunID, runID))
		}
		seeds = append(seeds, frame)
	}
	return seeds, nil
}

// targets picks the leaf names the path is steered toward.
func (opts *TraceOptions) targets(leaves navigate.LeafMappings, seeds []model.TraceFrame) navigate.TargetSet {
	if len(opts.Leaves) > 0 {
		return navigate.NewTargetSet(opts.Leaves...)
	}
	if len(opts.Config.Targets) > 0 {
		return navigate.NewTargetSet(opts.Config.Targets...)
	}

	kind := navigate.LeafKindFor(seeds[len(seeds)-1].Kind)
	var names []string
	for _, leaf := range leaves.Leaves(kind) {
		names = append(names, leaf.Name)
	}
	return navigate.NewTargetSet(names...)
}

func direction(backward bool) navigate.Direction {
	if backward {
		return navigate.Backward
	}
	return navigate.Forward
}
