package repo

import (
	"context"
	"fmt"

	"github.com/odvcencio/gitgraph/pkg/object"
	"github.com/sirupsen/logrus"
)

// Materialize lists the tree h through the provider and links its children,
// recursing into sub-trees. Children are rebuilt from scratch on every call,
// so materializing the same tree twice leaves it unchanged. name only labels
// log output; it is not stored on the shared entry.
func (r *Repo) Materialize(ctx context.Context, h object.Hash, name string) (*Tree, error) {
	rows, err := r.provider.ListTree(ctx, h)
	if err != nil {
		return nil, fmt.Errorf("materialize %s %s: %w", r.Abbrev(h), name, err)
	}
	t, err := r.Tree(h)
	if err != nil {
		return nil, err
	}

	children := make([]Child, 0, len(rows))
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tl, err := object.ParseTreeLine(row)
		if err != nil {
			r.log.WithFields(logrus.Fields{"tree": r.Abbrev(h), "row": row}).Warnf("skipping tree row: %v", err)
			continue
		}

		var child Entry
		switch tl.Type {
		case object.TypeTree:
			sub, err := r.Materialize(ctx, tl.Hash, tl.Name)
			if err != nil {
				return nil, err
			}
			child = sub
		case object.TypeBlob:
			b, err := r.Blob(ctx, tl.Hash)
			if err != nil {
				return nil, fmt.Errorf("materialize %s %s: %w", r.Abbrev(h), name, err)
			}
			child = b
		default:
			r.log.WithFields(logrus.Fields{"tree": r.Abbrev(h), "name": tl.Name, "kind": tl.Type}).Debug("skipping submodule entry")
			continue
		}
		children = append(children, Child{Name: tl.Name, Entry: child})
	}

	t.children = children
	t.listed = true
	return t, nil
}

// WalkFunc is called for each position visited by WalkTree. Returning an
// error stops the walk.
type WalkFunc func(p *Position) error

// WalkTree visits p and every position below it depth-first in listing
// order. Trees not yet materialized are listed on the way down.
func (r *Repo) WalkTree(ctx context.Context, p *Position, fn WalkFunc) error {
	if err := fn(p); err != nil {
		return err
	}
	var t *Tree
	switch e := p.Entry.(type) {
	case *Commit:
		root, err := r.CommitTree(ctx, e)
		if err != nil {
			return err
		}
		return r.WalkTree(ctx, p.At(Child{Name: RootTreeName, Entry: root}), fn)
	case *Tree:
		t = e
	default:
		return nil
	}
	if !t.listed {
		if _, err := r.Materialize(ctx, t.Hash, p.Name); err != nil {
			return err
		}
	}
	for _, c := range t.children {
		if err := r.WalkTree(ctx, p.At(c), fn); err != nil {
			return err
		}
	}
	return nil
}
