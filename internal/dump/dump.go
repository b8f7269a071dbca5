// Package dump imports a YAML description of runs, leaves, frames and leaf
// associations into a trace database. It stands in for the analysis
// pipeline when preparing local databases and demos.
package dump

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sapp/internal/model"
	"github.com/roach88/sapp/internal/store"
)

// Dump is the on-disk layout. IDs are explicit so associations can refer to
// frames and leaves.
type Dump struct {
	Runs   []model.Run        `yaml:"runs"`
	Leaves []model.Leaf       `yaml:"leaves"`
	Frames []model.TraceFrame `yaml:"frames"`
	Assocs []model.LeafAssoc  `yaml:"assocs"`
}

// Writer is the store surface the importer writes through.
// *store.WriteTx satisfies it.
type Writer interface {
	WriteRun(ctx context.Context, run model.Run) (int64, error)
	WriteLeaf(ctx context.Context, leaf model.Leaf) (int64, error)
	WriteFrame(ctx context.Context, frame model.TraceFrame) (int64, error)
	WriteLeafAssoc(ctx context.Context, assoc model.LeafAssoc) error
}

// Counts reports how many records were imported.
type Counts struct {
	Runs   int `json:"runs"`
	Leaves int `json:"leaves"`
	Frames int `json:"frames"`
	Assocs int `json:"assocs"`
}

// Decode parses a YAML dump. Unknown fields are rejected.
func Decode(r io.Reader) (Dump, error) {
	var d Dump
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		if err == io.EOF {
			return Dump{}, nil
		}
		return Dump{}, fmt.Errorf("decode dump: %w", err)
	}
	return d, nil
}

// Transactor runs a function inside one write transaction.
// *store.Store satisfies it.
type Transactor interface {
	InWriteTx(ctx context.Context, fn func(tx *store.WriteTx) error) error
}

// Import writes d in a single transaction, so a failed import leaves the
// database unchanged. Counts are zero unless the import committed.
func Import(ctx context.Context, t Transactor, d Dump) (Counts, error) {
	var c Counts
	err := t.InWriteTx(ctx, func(tx *store.WriteTx) error {
		var err error
		c, err = write(ctx, tx, d)
		return err
	})
	if err != nil {
		return Counts{}, err
	}
	return c, nil
}

// write stores d in dependency order: runs, leaves, frames, associations.
// Leaf kinds are accepted in any case. A leaf that interns to an existing
// (kind, name) gets that leaf's id, and associations naming the dump's id
// are redirected to it.
func write(ctx context.Context, w Writer, d Dump) (Counts, error) {
	var c Counts

	for _, run := range d.Runs {
		if _, err := w.WriteRun(ctx, run); err != nil {
			return c, fmt.Errorf("import run %d: %w", run.ID, err)
		}
		c.Runs++
	}

	leafIDs := make(map[int64]int64, len(d.Leaves))
	for _, leaf := range d.Leaves {
		kind, err := model.ParseLeafKind(string(leaf.Kind))
		if err != nil {
			return c, fmt.Errorf("import leaf %d: %w", leaf.ID, err)
		}
		leaf.Kind = kind
		id, err := w.WriteLeaf(ctx, leaf)
		if err != nil {
			return c, fmt.Errorf("import leaf %d: %w", leaf.ID, err)
		}
		if leaf.ID != 0 {
			if prev, ok := leafIDs[leaf.ID]; ok && prev != id {
				return c, fmt.Errorf("import leaf %d: id declared twice", leaf.ID)
			}
			leafIDs[leaf.ID] = id
		}
		c.Leaves++
	}

	for _, frame := range d.Frames {
		if _, err := w.WriteFrame(ctx, frame); err != nil {
			return c, fmt.Errorf("import frame %d: %w", frame.ID, err)
		}
		c.Frames++
	}

	for _, assoc := range d.Assocs {
		declared := assoc.LeafID
		if id, ok := leafIDs[declared]; ok {
			assoc.LeafID = id
		}
		if err := w.WriteLeafAssoc(ctx, assoc); err != nil {
			return c, fmt.Errorf("import assoc %d->%d: %w", assoc.FrameID, declared, err)
		}
		c.Assocs++
	}

	return c, nil
}
