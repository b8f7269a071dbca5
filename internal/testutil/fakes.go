package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/sapp/internal/model"
	"github.com/roach88/sapp/internal/store"
)

// OpenStore creates a temporary trace database closed at test cleanup.
func OpenStore(t testing.TB) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "sapp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

// Fakes writes runs, leaves, frames and associations for tests.
//
// Frames are written into the most recent run created with Run. Each frame
// gets the next line number so locations stay distinct and deterministic.
type Fakes struct {
	t     testing.TB
	st    *store.Store
	runID int64
	line  int // last source line handed out
}

// NewFakes creates a fixture writer over st.
func NewFakes(t testing.TB, st *store.Store) *Fakes {
	return &Fakes{t: t, st: st}
}

// Run writes a FINISHED run and makes it current.
func (f *Fakes) Run() int64 {
	return f.RunWithStatus(model.RunFinished)
}

// RunWithStatus writes a run with the given status and makes it current.
func (f *Fakes) RunWithStatus(status model.RunStatus) int64 {
	f.t.Helper()
	id, err := f.st.WriteRun(context.Background(), model.Run{Status: status})
	require.NoError(f.t, err)
	f.runID = id
	return id
}

// Precondition writes a frame flowing toward sinks in the current run.
func (f *Fakes) Precondition(caller, callerPort, callee, calleePort string) model.TraceFrame {
	f.t.Helper()
	return f.frame(model.Precondition, caller, callerPort, callee, calleePort)
}

// Postcondition writes a frame flowing from sources in the current run.
func (f *Fakes) Postcondition(caller, callerPort, callee, calleePort string) model.TraceFrame {
	f.t.Helper()
	return f.frame(model.Postcondition, caller, callerPort, callee, calleePort)
}

func (f *Fakes) frame(kind model.FrameKind, caller, callerPort, callee, calleePort string) model.TraceFrame {
	f.t.Helper()
	require.NotEqual(f.t, model.NoRun, f.runID, "call Run() before writing frames")

	f.line++
	line := f.line
	frame := model.TraceFrame{
		RunID:      f.runID,
		Kind:       kind,
		Caller:     caller,
		CallerPort: callerPort,
		Callee:     callee,
		CalleePort: calleePort,
		Location:   model.SourceLocation{Line: line, BeginColumn: 1, EndColumn: 1},
	}
	id, err := f.st.WriteFrame(context.Background(), frame)
	require.NoError(f.t, err)
	frame.ID = id
	return frame
}

// Sink interns a SINK leaf.
func (f *Fakes) Sink(name string) model.Leaf {
	f.t.Helper()
	return f.leaf(model.LeafSink, name)
}

// Source interns a SOURCE leaf.
func (f *Fakes) Source(name string) model.Leaf {
	f.t.Helper()
	return f.leaf(model.LeafSource, name)
}

// Feature interns a FEATURE leaf.
func (f *Fakes) Feature(name string) model.Leaf {
	f.t.Helper()
	return f.leaf(model.LeafFeature, name)
}

func (f *Fakes) leaf(kind model.LeafKind, name string) model.Leaf {
	f.t.Helper()
	leaf := model.Leaf{Kind: kind, Name: name}
	id, err := f.st.WriteLeaf(context.Background(), leaf)
	require.NoError(f.t, err)
	leaf.ID = id
	return leaf
}

// Assoc links frame to leaf at the given trace length.
func (f *Fakes) Assoc(frame model.TraceFrame, leaf model.Leaf, traceLength int) {
	f.t.Helper()
	err := f.st.WriteLeafAssoc(context.Background(), model.LeafAssoc{
		FrameID:     frame.ID,
		LeafID:      leaf.ID,
		TraceLength: traceLength,
	})
	require.NoError(f.t, err)
}
