package model

import (
	"fmt"
	"strings"
)

// NoRun is the run identifier used when no FINISHED run exists.
// Navigation over NoRun yields nothing.
const NoRun int64 = 0

// RunStatus is the lifecycle state of one analysis run.
type RunStatus string

const (
	RunStarted  RunStatus = "STARTED"
	RunFinished RunStatus = "FINISHED"
	RunSkipped  RunStatus = "SKIPPED"
	RunFailed   RunStatus = "FAILED"
)

// ValidRunStatuses defines allowed run statuses.
var ValidRunStatuses = map[RunStatus]bool{
	RunStarted:  true,
	RunFinished: true,
	RunSkipped:  true,
	RunFailed:   true,
}

// Run is one execution of the upstream analysis.
// Only FINISHED runs are eligible for navigation.
type Run struct {
	ID     int64     `json:"id" yaml:"id"`
	Status RunStatus `json:"status" yaml:"status"`
}

// LeafKind tags an interned leaf string with its category.
type LeafKind string

const (
	LeafSource  LeafKind = "SOURCE"
	LeafSink    LeafKind = "SINK"
	LeafFeature LeafKind = "FEATURE"
)

// LeafKinds lists every category in registry order.
var LeafKinds = []LeafKind{LeafSource, LeafSink, LeafFeature}

// ParseLeafKind accepts a category name in any case ("sink", "SINK").
func ParseLeafKind(s string) (LeafKind, error) {
	k := LeafKind(strings.ToUpper(strings.TrimSpace(s)))
	switch k {
	case LeafSource, LeafSink, LeafFeature:
		return k, nil
	}
	return "", fmt.Errorf("invalid leaf kind %q: must be one of source, sink, feature", s)
}

// Leaf is an interned callable name, taint kind, or feature label.
type Leaf struct {
	ID   int64    `json:"id" yaml:"id"`
	Kind LeafKind `json:"kind" yaml:"kind"`
	Name string   `json:"name" yaml:"name"`
}

// FrameKind distinguishes frames flowing toward sinks from frames flowing
// back from sources.
type FrameKind string

const (
	Precondition  FrameKind = "PRECONDITION"
	Postcondition FrameKind = "POSTCONDITION"
)

// SourceLocation is a position in analyzed source.
type SourceLocation struct {
	Line        int `json:"line" yaml:"line"`
	BeginColumn int `json:"begin_column" yaml:"begin_column"`
	EndColumn   int `json:"end_column" yaml:"end_column"`
}

// String renders the location in the pipeline's "line|begin|end" form.
func (l SourceLocation) String() string {
	return fmt.Sprintf("%d|%d|%d", l.Line, l.BeginColumn, l.EndColumn)
}

// ParseSourceLocation parses the "line|begin|end" form produced by String.
func ParseSourceLocation(s string) (SourceLocation, error) {
	var loc SourceLocation
	parts := strings.Split(s, "|")
	if len(parts) != 3 {
		return SourceLocation{}, fmt.Errorf("invalid source location %q: want line|begin|end", s)
	}
	fields := []*int{&loc.Line, &loc.BeginColumn, &loc.EndColumn}
	for i, p := range parts {
		if _, err := fmt.Sscanf(p, "%d", fields[i]); err != nil {
			return SourceLocation{}, fmt.Errorf("invalid source location %q: %w", s, err)
		}
	}
	return loc, nil
}

// TraceFrame is one directed propagation step within a single run.
//
// Frames link structurally: B continues A when B.Caller == A.Callee and
// B.CallerPort == A.CalleePort.
type TraceFrame struct {
	ID         int64          `json:"id" yaml:"id"`
	RunID      int64          `json:"run_id" yaml:"run_id"`
	Kind       FrameKind      `json:"kind" yaml:"kind"`
	Caller     string         `json:"caller" yaml:"caller"`
	CallerPort string         `json:"caller_port" yaml:"caller_port"`
	Callee     string         `json:"callee" yaml:"callee"`
	CalleePort string         `json:"callee_port" yaml:"callee_port"`
	Location   SourceLocation `json:"location" yaml:"location"`
}

// LeafAssoc links a frame to a SOURCE or SINK leaf it can reach.
//
// TraceLength is the pipeline's precomputed distance hint. Zero is
// overloaded: it means both "adjacent to the leaf" and, in some data,
// "the callee is the leaf". Readers must not branch on it.
type LeafAssoc struct {
	FrameID     int64 `json:"trace_frame_id" yaml:"trace_frame_id"`
	LeafID      int64 `json:"leaf_id" yaml:"leaf_id"`
	TraceLength int   `json:"trace_length" yaml:"trace_length"`
}
