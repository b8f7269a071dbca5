package navigate

import (
	"context"

	"github.com/roach88/sapp/internal/model"
)

// Step is one frame of an assembled path together with every candidate
// that was available when it was chosen. Seed steps have no branches.
type Step struct {
	Frame    model.TraceFrame   `json:"frame"`
	Branches []model.TraceFrame `json:"branches"`
}

// Choice is the result of selecting a continuation from candidates.
type Choice struct {
	Chosen       model.TraceFrame
	Alternatives []model.TraceFrame
	OK           bool
}

// SelectBranch picks the first candidate and keeps the rest as
// alternatives. OK is false when candidates is empty.
func SelectBranch(candidates []model.TraceFrame) Choice {
	if len(candidates) == 0 {
		return Choice{}
	}
	return Choice{
		Chosen:       candidates[0],
		Alternatives: candidates[1:],
		OK:           true,
	}
}

// AssemblePath walks from the last seed until no continuation remains.
//
// The visited set starts with every seed ID and grows by one frame per
// step, so the path can never exceed the number of frames in the run even
// when the frame graph has cycles. Each appended step carries the full
// candidate list it was chosen from. Empty seeds or model.NoRun yield an
// empty path.
func AssemblePath(
	ctx context.Context,
	leaves LeafMappings,
	r Reader,
	runID int64,
	targets TargetSet,
	seeds []model.TraceFrame,
	dir Direction,
) ([]Step, error) {
	if runID == model.NoRun || len(seeds) == 0 {
		return []Step{}, nil
	}

	logger := loggerFrom(ctx)
	visited := make(map[int64]bool, len(seeds))
	path := make([]Step, 0, len(seeds))
	for _, seed := range seeds {
		visited[seed.ID] = true
		path = append(path, Step{Frame: seed, Branches: []model.TraceFrame{}})
	}

	for {
		current := path[len(path)-1].Frame
		candidates, err := FindNextFrames(ctx, leaves, r, runID, visited, targets, current, dir)
		if err != nil {
			return nil, err
		}

		choice := SelectBranch(candidates)
		if !choice.OK {
			logger.Debug("path complete",
				"run_id", runID,
				"frame_id", current.ID,
				"steps", len(path))
			return path, nil
		}

		logger.Debug("path step",
			"run_id", runID,
			"from", current.ID,
			"to", choice.Chosen.ID,
			"candidates", len(candidates))

		visited[choice.Chosen.ID] = true
		path = append(path, Step{Frame: choice.Chosen, Branches: candidates})
	}
}
