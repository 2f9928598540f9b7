package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/odvcencio/gitgraph/pkg/object"
	"github.com/sirupsen/logrus"
)

// Branch is a named pointer at a head commit.
type Branch struct {
	Name     string
	HeadHash object.Hash
	Head     *Commit

	Current  bool
	Remote   bool
	Detached bool
}

func (b *Branch) String() string {
	return b.Name + " " + b.HeadHash.Short()
}

// ResolveBranch builds a Branch from one branch listing row, loading the
// head commit it names.
func (r *Repo) ResolveBranch(ctx context.Context, line string) (*Branch, error) {
	bl, err := object.ParseBranchLine(line)
	if err != nil {
		return nil, err
	}
	return r.branch(ctx, bl)
}

func (r *Repo) branch(ctx context.Context, bl object.BranchLine) (*Branch, error) {
	head, err := r.LoadCommit(ctx, bl.Hash)
	if err != nil {
		return nil, fmt.Errorf("branch %s: %w", bl.Name, err)
	}
	return &Branch{
		Name:     bl.Name,
		HeadHash: head.Hash,
		Head:     head,
		Current:  bl.Current,
		Remote:   bl.Remote,
		Detached: bl.Detached,
	}, nil
}

// Branches returns every local and remote-tracking branch. Alias rows such
// as "origin/HEAD -> origin/main" and unparsable rows are skipped; a head
// commit that cannot be loaded is an error.
func (r *Repo) Branches(ctx context.Context) ([]*Branch, error) {
	rows, err := r.provider.ListBranches(ctx)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	var out []*Branch
	for _, row := range rows {
		if row == "" {
			continue
		}
		bl, err := object.ParseBranchLine(row)
		if errors.Is(err, object.ErrSymbolicBranch) {
			r.log.WithField("row", row).Debug("skipping branch alias")
			continue
		}
		if err != nil {
			r.log.WithField("row", row).Warnf("skipping branch row: %v", err)
			continue
		}
		b, err := r.branch(ctx, bl)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	r.log.Infof("%d branches", len(out))
	return out, nil
}

// CurrentBranch returns the checked-out branch, or the detached HEAD.
func (r *Repo) CurrentBranch(ctx context.Context) (*Branch, error) {
	row, err := r.provider.CurrentBranch(ctx)
	if err != nil {
		return nil, fmt.Errorf("current branch: %w", err)
	}
	if row == "" {
		return nil, fmt.Errorf("current branch: %w", ErrNotFound)
	}
	return r.ResolveBranch(ctx, row)
}

// FindBranch returns the branch with the given name. Local branches win
// over remote-tracking ones of the same name.
func (r *Repo) FindBranch(ctx context.Context, name string) (*Branch, error) {
	all, err := r.Branches(ctx)
	if err != nil {
		return nil, err
	}
	var remote *Branch
	for _, b := range all {
		if b.Name != name {
			continue
		}
		if !b.Remote {
			return b, nil
		}
		if remote == nil {
			remote = b
		}
	}
	if remote != nil {
		return remote, nil
	}
	return nil, fmt.Errorf("branch %q: %w", name, ErrNotFound)
}

// WalkAncestry returns the first-parent chain of b, newest first, ending
// at a root commit.
func (r *Repo) WalkAncestry(ctx context.Context, b *Branch) ([]*Commit, error) {
	if b.Head == nil {
		return nil, fmt.Errorf("branch %s: no head commit", b.Name)
	}
	return r.Log(ctx, b.Head, 0)
}

// Log follows first parents from c, newest first. limit <= 0 means no
// limit. A chain that revisits a commit is reported as an error.
func (r *Repo) Log(ctx context.Context, c *Commit, limit int) ([]*Commit, error) {
	seen := make(map[object.Hash]bool)
	var out []*Commit
	for c != nil {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if seen[c.Hash] {
			return out, fmt.Errorf("log: parent cycle at %s", r.Abbrev(c.Hash))
		}
		seen[c.Hash] = true
		out = append(out, c)
		if limit > 0 && len(out) >= limit {
			break
		}
		next, err := r.Parent(ctx, c)
		if err != nil {
			return out, err
		}
		c = next
	}
	if len(out) > 0 {
		r.log.WithFields(logrus.Fields{"head": r.Abbrev(out[0].Hash), "commits": len(out)}).Debug("walked ancestry")
	}
	return out, nil
}
