package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/sapp/internal/model"
)

// reader implements every read query against either a *sql.DB or a *sql.Tx.
type reader struct {
	q querier
}

const frameColumns = `id, run_id, kind, caller, caller_port, callee, callee_port, line, begin_column, end_column`

// LeavesByKind returns every interned leaf of one category as id -> name.
// An empty category yields an empty, non-nil map.
func (r reader) LeavesByKind(ctx context.Context, kind model.LeafKind) (map[int64]string, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, contents
		FROM shared_texts
		WHERE kind = ?
		ORDER BY id ASC
	`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query leaves: %w", err)
	}
	defer rows.Close()

	leaves := make(map[int64]string)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan leaf: %w", err)
		}
		leaves[id] = name
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaves: %w", err)
	}

	return leaves, nil
}

// FramesByCaller returns frames in a run whose caller side matches.
// This is the forward adjacency query: a frame continues another when its
// (caller, caller_port) equals the previous frame's (callee, callee_port).
// Results ordered by id ASC.
func (r reader) FramesByCaller(ctx context.Context, runID int64, caller, callerPort string) ([]model.TraceFrame, error) {
	return r.queryFrames(ctx, `
		SELECT `+frameColumns+`
		FROM trace_frames
		WHERE run_id = ? AND caller = ? AND caller_port = ?
		ORDER BY id ASC
	`, runID, caller, callerPort)
}

// FramesByCallee returns frames in a run whose callee side matches.
// Used for backward navigation toward sources. Results ordered by id ASC.
func (r reader) FramesByCallee(ctx context.Context, runID int64, callee, calleePort string) ([]model.TraceFrame, error) {
	return r.queryFrames(ctx, `
		SELECT `+frameColumns+`
		FROM trace_frames
		WHERE run_id = ? AND callee = ? AND callee_port = ?
		ORDER BY id ASC
	`, runID, callee, calleePort)
}

// FramesInRun returns every frame of a run ordered by id ASC.
func (r reader) FramesInRun(ctx context.Context, runID int64) ([]model.TraceFrame, error) {
	return r.queryFrames(ctx, `
		SELECT `+frameColumns+`
		FROM trace_frames
		WHERE run_id = ?
		ORDER BY id ASC
	`, runID)
}

func (r reader) queryFrames(ctx context.Context, query string, args ...any) ([]model.TraceFrame, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trace frames: %w", err)
	}
	defer rows.Close()

	var frames []model.TraceFrame
	for rows.Next() {
		f, err := scanFrame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trace frame: %w", err)
		}
		frames = append(frames, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trace frames: %w", err)
	}

	// Return empty slice instead of nil
	if frames == nil {
		frames = []model.TraceFrame{}
	}

	return frames, nil
}

// LeafAssociations returns the leaves a frame can reach with their trace
// lengths. Results ordered by trace_length ASC, leaf_id ASC.
func (r reader) LeafAssociations(ctx context.Context, frameID int64) ([]model.LeafAssoc, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT trace_frame_id, leaf_id, trace_length
		FROM trace_frame_leaf_assoc
		WHERE trace_frame_id = ?
		ORDER BY trace_length ASC, leaf_id ASC
	`, frameID)
	if err != nil {
		return nil, fmt.Errorf("query leaf associations: %w", err)
	}
	defer rows.Close()

	var assocs []model.LeafAssoc
	for rows.Next() {
		var a model.LeafAssoc
		if err := rows.Scan(&a.FrameID, &a.LeafID, &a.TraceLength); err != nil {
			return nil, fmt.Errorf("scan leaf association: %w", err)
		}
		assocs = append(assocs, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaf associations: %w", err)
	}

	if assocs == nil {
		assocs = []model.LeafAssoc{}
	}

	return assocs, nil
}

// LatestFinishedRunID returns the highest id among FINISHED runs.
// ok is false when no run has finished; that is not an error.
func (r reader) LatestFinishedRunID(ctx context.Context) (id int64, ok bool, err error) {
	var latest sql.NullInt64
	err = r.q.QueryRowContext(ctx, `
		SELECT MAX(id) FROM runs WHERE status = ?
	`, string(model.RunFinished)).Scan(&latest)
	if err != nil {
		return model.NoRun, false, fmt.Errorf("query latest finished run: %w", err)
	}
	if !latest.Valid {
		return model.NoRun, false, nil
	}
	return latest.Int64, true, nil
}

// ReadRun retrieves a single run by ID.
// Returns ErrNotFound if absent.
func (r reader) ReadRun(ctx context.Context, id int64) (model.Run, error) {
	var run model.Run
	var status string
	err := r.q.QueryRowContext(ctx, `
		SELECT id, status FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Run{}, fmt.Errorf("run %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Run{}, fmt.Errorf("read run: %w", err)
	}
	run.Status = model.RunStatus(status)
	return run, nil
}

// ListRuns returns every run ordered by id ASC.
func (r reader) ListRuns(ctx context.Context) ([]model.Run, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, status FROM runs ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []model.Run{}
	for rows.Next() {
		var run model.Run
		var status string
		if err := rows.Scan(&run.ID, &status); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Status = model.RunStatus(status)
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// ReadFrame retrieves a single trace frame by ID.
// Returns ErrNotFound if absent.
func (r reader) ReadFrame(ctx context.Context, id int64) (model.TraceFrame, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+frameColumns+`
		FROM trace_frames
		WHERE id = ?
	`, id)

	f, err := scanFrame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TraceFrame{}, fmt.Errorf("trace frame %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.TraceFrame{}, fmt.Errorf("read trace frame: %w", err)
	}
	return f, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanFrame scans one row selected with frameColumns.
func scanFrame(row rowScanner) (model.TraceFrame, error) {
	var f model.TraceFrame
	var kind string
	if err := row.Scan(
		&f.ID, &f.RunID, &kind,
		&f.Caller, &f.CallerPort, &f.Callee, &f.CalleePort,
		&f.Location.Line, &f.Location.BeginColumn, &f.Location.EndColumn,
	); err != nil {
		return model.TraceFrame{}, err
	}
	f.Kind = model.FrameKind(kind)
	return f, nil
}
