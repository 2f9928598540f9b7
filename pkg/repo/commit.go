package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/odvcencio/gitgraph/pkg/object"
	"github.com/sirupsen/logrus"
)

// LoadCommit returns the commit named by a full or abbreviated identifier,
// parsing its header from the raw bytes the first time it is asked for.
// A commit missing from the catalog is added.
func (r *Repo) LoadCommit(ctx context.Context, hashOrPrefix string) (*Commit, error) {
	h, err := r.expand(ctx, hashOrPrefix)
	if err != nil {
		return nil, err
	}

	var c *Commit
	if e, ok := r.objects[h]; ok {
		c, ok = e.(*Commit)
		if !ok {
			return nil, fmt.Errorf("commit %s is a %s: %w", r.Abbrev(h), e.header().Type, ErrKindMismatch)
		}
		if c.loaded {
			return c, nil
		}
	}

	data, err := r.provider.ObjectBytes(ctx, h)
	if err != nil {
		return nil, fmt.Errorf("load commit %s: %w", r.Abbrev(h), err)
	}
	hdr, err := object.ParseCommitHeader(data)
	if err != nil {
		return nil, fmt.Errorf("load commit %s: %w", r.Abbrev(h), err)
	}
	if hdr.ExtraParents > 0 {
		r.log.WithFields(logrus.Fields{"hash": r.Abbrev(h), "extra": hdr.ExtraParents}).Warn("ignoring parents beyond the second")
	}

	if c == nil {
		e, _ := r.insert(&Commit{Header: Header{Hash: h, Type: object.TypeCommit, Size: int64(len(data))}})
		c = e.(*Commit)
	}
	c.TreeHash = hdr.Tree
	c.Parent1 = hdr.Parent1
	c.Parent2 = hdr.Parent2
	c.Author = hdr.Author
	c.Time = hdr.TimeMillis
	c.Date = time.UnixMilli(hdr.TimeMillis).Format(r.dateLayout)
	c.Summary = hdr.Summary
	c.loaded = true

	r.log.WithFields(logrus.Fields{"hash": r.Abbrev(h), "author": c.Author}).Debugf("loaded commit %q", c.Summary)
	return c, nil
}

// Parent returns the first parent of c, or nil for a root commit.
func (r *Repo) Parent(ctx context.Context, c *Commit) (*Commit, error) {
	if err := r.ensureLoaded(ctx, c); err != nil {
		return nil, err
	}
	if c.Parent1 == "" {
		return nil, nil
	}
	return r.LoadCommit(ctx, string(c.Parent1))
}

// SecondParent returns the second parent of a merge commit, or nil.
func (r *Repo) SecondParent(ctx context.Context, c *Commit) (*Commit, error) {
	if err := r.ensureLoaded(ctx, c); err != nil {
		return nil, err
	}
	if c.Parent2 == "" {
		return nil, nil
	}
	return r.LoadCommit(ctx, string(c.Parent2))
}

func (r *Repo) ensureLoaded(ctx context.Context, c *Commit) error {
	if c.loaded {
		return nil
	}
	_, err := r.LoadCommit(ctx, string(c.Hash))
	return err
}

// CommitTree returns the root tree of c, materializing it on first use.
// The result is cached on the commit until InvalidateTree.
func (r *Repo) CommitTree(ctx context.Context, c *Commit) (*Tree, error) {
	if c.tree != nil {
		return c.tree, nil
	}
	if err := r.ensureLoaded(ctx, c); err != nil {
		return nil, err
	}
	if c.TreeHash == "" {
		return nil, fmt.Errorf("commit %s: %w", r.Abbrev(c.Hash), errors.New("no tree line"))
	}
	t, err := r.Materialize(ctx, c.TreeHash, RootTreeName)
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w", r.Abbrev(c.Hash), err)
	}
	c.tree = t
	return t, nil
}

// InvalidateTree drops the cached root tree of c.
func (r *Repo) InvalidateTree(c *Commit) { c.tree = nil }
