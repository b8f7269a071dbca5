package navigate

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/sapp/internal/model"
)

// LeafLoader is the store capability needed to build LeafMappings.
type LeafLoader interface {
	LeavesByKind(ctx context.Context, kind model.LeafKind) (map[int64]string, error)
}

// LeafMappings is a read snapshot of the interned leaf table, one
// id -> name mapping per category.
//
// The zero value is valid and resolves nothing. A LeafMappings is never
// modified after construction and is safe to share between goroutines.
type LeafMappings struct {
	byKind map[model.LeafKind]map[int64]string
}

// NewLeafMappings builds a snapshot from caller-supplied maps.
// The maps are copied and names NFC-normalized; nil maps are empty.
func NewLeafMappings(sources, sinks, features map[int64]string) LeafMappings {
	return LeafMappings{byKind: map[model.LeafKind]map[int64]string{
		model.LeafSource:  normalized(sources),
		model.LeafSink:    normalized(sinks),
		model.LeafFeature: normalized(features),
	}}
}

// LoadLeafMappings issues one LeavesByKind query per category.
// A category with no rows yields an empty mapping, not an error.
func LoadLeafMappings(ctx context.Context, l LeafLoader) (LeafMappings, error) {
	loaded := make(map[model.LeafKind]map[int64]string, len(model.LeafKinds))
	for _, kind := range model.LeafKinds {
		m, err := l.LeavesByKind(ctx, kind)
		if err != nil {
			return LeafMappings{}, fmt.Errorf("load %s leaves: %w", kind, err)
		}
		loaded[kind] = m
	}
	return NewLeafMappings(loaded[model.LeafSource], loaded[model.LeafSink], loaded[model.LeafFeature]), nil
}

// Name resolves a leaf ID within one category.
func (m LeafMappings) Name(kind model.LeafKind, id int64) (string, bool) {
	name, ok := m.byKind[kind][id]
	return name, ok
}

// Len returns the number of leaves in a category.
func (m LeafMappings) Len(kind model.LeafKind) int {
	return len(m.byKind[kind])
}

// Leaves lists one category ordered by ID.
func (m LeafMappings) Leaves(kind model.LeafKind) []model.Leaf {
	leaves := make([]model.Leaf, 0, len(m.byKind[kind]))
	for id, name := range m.byKind[kind] {
		leaves = append(leaves, model.Leaf{ID: id, Kind: kind, Name: name})
	}
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].ID < leaves[j].ID })
	return leaves
}

func normalized(in map[int64]string) map[int64]string {
	out := make(map[int64]string, len(in))
	for id, name := range in {
		out[id] = norm.NFC.String(name)
	}
	return out
}

// TargetSet is the set of leaf names a path must still be able to reach.
// Names are NFC-normalized to compare equal with LeafMappings.
type TargetSet struct {
	names map[string]struct{}
}

// NewTargetSet builds a TargetSet from leaf names.
func NewTargetSet(names ...string) TargetSet {
	set := TargetSet{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		set.names[norm.NFC.String(n)] = struct{}{}
	}
	return set
}

// Has reports whether name, already normalized, is a target.
func (s TargetSet) Has(name string) bool {
	_, ok := s.names[name]
	return ok
}

// Len returns the number of target names.
func (s TargetSet) Len() int {
	return len(s.names)
}

// Names returns the targets in sorted order.
func (s TargetSet) Names() []string {
	names := make([]string, 0, len(s.names))
	for n := range s.names {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
