package store

import (
	"context"
	"fmt"

	"github.com/roach88/sapp/internal/model"
)

// The functions in this file populate a database on behalf of the loader
// and test fixtures. Trace navigation never calls them.

// writer holds the write queries shared by Store and WriteTx.
type writer struct {
	q execer
}

// WriteRun inserts a run and returns its assigned ID.
// A non-zero run.ID is used as given.
func (w writer) WriteRun(ctx context.Context, run model.Run) (int64, error) {
	if !model.ValidRunStatuses[run.Status] {
		return 0, fmt.Errorf("write run: invalid status %q", run.Status)
	}
	return w.insert(ctx, "write run", `
		INSERT INTO runs (id, status) VALUES (NULLIF(?, 0), ?)
	`, run.ID, string(run.Status))
}

// WriteLeaf interns a leaf string and returns its ID.
// Writing the same (kind, name) twice returns the existing ID.
func (w writer) WriteLeaf(ctx context.Context, leaf model.Leaf) (int64, error) {
	if _, err := model.ParseLeafKind(string(leaf.Kind)); err != nil {
		return 0, fmt.Errorf("write leaf: %w", err)
	}

	_, err := w.q.ExecContext(ctx, `
		INSERT INTO shared_texts (id, kind, contents)
		VALUES (NULLIF(?, 0), ?, ?)
		ON CONFLICT(kind, contents) DO NOTHING
	`, leaf.ID, string(leaf.Kind), leaf.Name)
	if err != nil {
		return 0, fmt.Errorf("write leaf: %w", err)
	}

	var id int64
	err = w.q.QueryRowContext(ctx, `
		SELECT id FROM shared_texts WHERE kind = ? AND contents = ?
	`, string(leaf.Kind), leaf.Name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("write leaf: select id: %w", err)
	}
	return id, nil
}

// WriteFrame inserts a trace frame and returns its assigned ID.
// The run referenced by frame.RunID must exist (foreign key constraint).
func (w writer) WriteFrame(ctx context.Context, frame model.TraceFrame) (int64, error) {
	kind := frame.Kind
	if kind == "" {
		kind = model.Precondition
	}
	return w.insert(ctx, "write trace frame", `
		INSERT INTO trace_frames
		(id, run_id, kind, caller, caller_port, callee, callee_port, line, begin_column, end_column)
		VALUES (NULLIF(?, 0), ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		frame.ID,
		frame.RunID,
		string(kind),
		frame.Caller,
		frame.CallerPort,
		frame.Callee,
		frame.CalleePort,
		frame.Location.Line,
		frame.Location.BeginColumn,
		frame.Location.EndColumn,
	)
}

// WriteLeafAssoc links a frame to a leaf.
// Uses ON CONFLICT DO NOTHING - the first trace length written wins.
func (w writer) WriteLeafAssoc(ctx context.Context, assoc model.LeafAssoc) error {
	_, err := w.q.ExecContext(ctx, `
		INSERT INTO trace_frame_leaf_assoc (trace_frame_id, leaf_id, trace_length)
		VALUES (?, ?, ?)
		ON CONFLICT(trace_frame_id, leaf_id) DO NOTHING
	`, assoc.FrameID, assoc.LeafID, assoc.TraceLength)
	if err != nil {
		return fmt.Errorf("write leaf association: %w", err)
	}
	return nil
}

func (w writer) insert(ctx context.Context, op, query string, args ...any) (int64, error) {
	result, err := w.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: last insert id: %w", op, err)
	}
	return id, nil
}
