package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/sapp/internal/model"
)

// createTestStore creates a new temporary store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// mustRun writes a run with the given status and returns its ID.
func mustRun(t *testing.T, s *Store, status model.RunStatus) int64 {
	t.Helper()
	id, err := s.WriteRun(context.Background(), model.Run{Status: status})
	if err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	return id
}

// mustFrame writes a precondition frame and returns it with its ID set.
func mustFrame(t *testing.T, s *Store, runID int64, caller, callerPort, callee, calleePort string) model.TraceFrame {
	t.Helper()
	f := model.TraceFrame{
		RunID:      runID,
		Kind:       model.Precondition,
		Caller:     caller,
		CallerPort: callerPort,
		Callee:     callee,
		CalleePort: calleePort,
	}
	id, err := s.WriteFrame(context.Background(), f)
	if err != nil {
		t.Fatalf("WriteFrame() failed: %v", err)
	}
	f.ID = id
	return f
}
