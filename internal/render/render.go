// Package render formats assembled trace paths for terminals and JSON
// consumers.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/sapp/internal/model"
	"github.com/roach88/sapp/internal/navigate"
)

// Path is the presentation form of one assembled path.
type Path struct {
	RunID     int64    `json:"run_id"`
	Direction string   `json:"direction"`
	Targets   []string `json:"targets"`
	Steps     []Step   `json:"steps"`
}

// Step is one frame of a rendered path.
type Step struct {
	Index        int     `json:"index"`
	FrameID      int64   `json:"frame_id"`
	Kind         string  `json:"kind"`
	Caller       string  `json:"caller"`
	CallerPort   string  `json:"caller_port"`
	Callee       string  `json:"callee"`
	CalleePort   string  `json:"callee_port"`
	Location     string  `json:"location"`
	Alternatives []int64 `json:"alternatives"`
}

// NewPath converts navigator output into its presentation form.
// Alternatives lists the candidates not taken at each step.
func NewPath(runID int64, dir navigate.Direction, targets navigate.TargetSet, steps []navigate.Step) Path {
	p := Path{
		RunID:     runID,
		Direction: dir.String(),
		Targets:   targets.Names(),
		Steps:     make([]Step, 0, len(steps)),
	}
	for i, s := range steps {
		alternatives := []int64{}
		for _, b := range s.Branches {
			if b.ID != s.Frame.ID {
				alternatives = append(alternatives, b.ID)
			}
		}
		p.Steps = append(p.Steps, Step{
			Index:        i + 1,
			FrameID:      s.Frame.ID,
			Kind:         string(s.Frame.Kind),
			Caller:       s.Frame.Caller,
			CallerPort:   s.Frame.CallerPort,
			Callee:       s.Frame.Callee,
			CalleePort:   s.Frame.CalleePort,
			Location:     s.Frame.Location.String(),
			Alternatives: alternatives,
		})
	}
	return p
}

// Text writes p as one line per step.
func Text(w io.Writer, p Path) error {
	targets := "(any)"
	if len(p.Targets) > 0 {
		targets = strings.Join(p.Targets, ", ")
	}
	if _, err := fmt.Fprintf(w, "Trace (%s, run %d) toward: %s\n", p.Direction, p.RunID, targets); err != nil {
		return err
	}

	if len(p.Steps) == 0 {
		_, err := fmt.Fprintln(w, "  (no frames)")
		return err
	}

	for _, s := range p.Steps {
		line := fmt.Sprintf("  [%d] #%d %s:%s -> %s:%s @%s",
			s.Index, s.FrameID, s.Caller, s.CallerPort, s.Callee, s.CalleePort, s.Location)
		if s.Kind == string(model.Postcondition) {
			line += " (post)"
		}
		if n := len(s.Alternatives); n > 0 {
			line += fmt.Sprintf("  +%d %s %s", n, plural(n, "branch", "branches"), formatIDs(s.Alternatives))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func formatIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("#%d", id)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
