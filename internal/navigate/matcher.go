package navigate

import (
	"context"
	"fmt"
	"sort"

	"github.com/roach88/sapp/internal/model"
)

// Reader is the read-only store surface traversal depends on.
// *store.Store and *store.ReadTx both satisfy it.
type Reader interface {
	FramesByCaller(ctx context.Context, runID int64, caller, callerPort string) ([]model.TraceFrame, error)
	FramesByCallee(ctx context.Context, runID int64, callee, calleePort string) ([]model.TraceFrame, error)
	LeafAssociations(ctx context.Context, frameID int64) ([]model.LeafAssoc, error)
}

// Direction selects which side of the current frame is matched.
type Direction int

const (
	// Forward follows the callee side: candidates have
	// (caller, caller_port) == current (callee, callee_port).
	Forward Direction = iota
	// Backward follows the caller side: candidates have
	// (callee, callee_port) == current (caller, caller_port).
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// LeafKindFor returns the leaf category a frame's path leads to.
// Preconditions reach sinks, postconditions reach sources.
func LeafKindFor(kind model.FrameKind) model.LeafKind {
	if kind == model.Postcondition {
		return model.LeafSource
	}
	return model.LeafSink
}

// FindNextFrames returns the candidate continuations of current.
//
// A candidate is structurally adjacent in the given direction, belongs to
// runID, is not in visited, and is associated with at least one leaf of the
// current frame's category whose name is in targets. visited is only read.
//
// Candidates are ordered by their shortest relevant trace length, then by
// ID. An empty result covers dead ends, fully excluded candidates and
// model.NoRun alike. Store errors are returned unchanged in meaning.
func FindNextFrames(
	ctx context.Context,
	leaves LeafMappings,
	r Reader,
	runID int64,
	visited map[int64]bool,
	targets TargetSet,
	current model.TraceFrame,
	dir Direction,
) ([]model.TraceFrame, error) {
	if runID == model.NoRun {
		return []model.TraceFrame{}, nil
	}

	adjacent, err := adjacentFrames(ctx, r, runID, current, dir)
	if err != nil {
		return nil, err
	}

	kind := LeafKindFor(current.Kind)
	ranked := make([]rankedFrame, 0, len(adjacent))
	for _, candidate := range adjacent {
		if visited[candidate.ID] {
			continue
		}
		length, ok, err := relevantLength(ctx, leaves, r, kind, targets, candidate.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		ranked = append(ranked, rankedFrame{frame: candidate, length: length})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].length != ranked[j].length {
			return ranked[i].length < ranked[j].length
		}
		return ranked[i].frame.ID < ranked[j].frame.ID
	})

	next := make([]model.TraceFrame, len(ranked))
	for i, rf := range ranked {
		next[i] = rf.frame
	}
	return next, nil
}

type rankedFrame struct {
	frame  model.TraceFrame
	length int
}

func adjacentFrames(ctx context.Context, r Reader, runID int64, current model.TraceFrame, dir Direction) ([]model.TraceFrame, error) {
	var (
		frames []model.TraceFrame
		err    error
	)
	if dir == Backward {
		frames, err = r.FramesByCallee(ctx, runID, current.Caller, current.CallerPort)
	} else {
		frames, err = r.FramesByCaller(ctx, runID, current.Callee, current.CalleePort)
	}
	if err != nil {
		return nil, fmt.Errorf("find %s frames of %d: %w", dir, current.ID, err)
	}
	return frames, nil
}

// relevantLength reports whether frameID reaches a target leaf of kind, and
// the shortest trace length among such associations.
func relevantLength(
	ctx context.Context,
	leaves LeafMappings,
	r Reader,
	kind model.LeafKind,
	targets TargetSet,
	frameID int64,
) (int, bool, error) {
	assocs, err := r.LeafAssociations(ctx, frameID)
	if err != nil {
		return 0, false, fmt.Errorf("resolve leaves of frame %d: %w", frameID, err)
	}

	best, found := 0, false
	for _, a := range assocs {
		name, ok := leaves.Name(kind, a.LeafID)
		if !ok || !targets.Has(name) {
			continue
		}
		if !found || a.TraceLength < best {
			best, found = a.TraceLength, true
		}
	}
	return best, found, nil
}
