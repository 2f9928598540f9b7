// Package gogit reads repository data in process through go-git, without a
// git binary.
package gogit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	gitobj "github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/storage"
	"github.com/odvcencio/gitgraph/pkg/object"
)

// Provider implements repo.Provider over a go-git storage.
type Provider struct {
	st storage.Storer
}

// Open opens the repository containing path.
func Open(path string) (*Provider, error) {
	r, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", path, err)
	}
	return New(r.Storer), nil
}

// New wraps an existing storage, such as memory.NewStorage().
func New(st storage.Storer) *Provider { return &Provider{st: st} }

func toHash(h object.Hash) plumbing.Hash { return plumbing.NewHash(string(h)) }

func notFound(h object.Hash, err error) error {
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return fmt.Errorf("object %s: %w", h.Short(), object.ErrNotFound)
	}
	return fmt.Errorf("object %s: %w", h.Short(), err)
}

// ListObjects returns one catalog line per stored object.
func (p *Provider) ListObjects(ctx context.Context) ([]string, error) {
	iter, err := p.st.IterEncodedObjects(plumbing.AnyObject)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	defer iter.Close()

	var lines []string
	err = iter.ForEach(func(o plumbing.EncodedObject) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		lines = append(lines, object.FormatCatalogLine(object.Hash(o.Hash().String()), object.ObjectType(o.Type().String()), o.Size()))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	sort.Strings(lines)
	return lines, nil
}

// ObjectBytes returns the decompressed payload of h.
func (p *Provider) ObjectBytes(_ context.Context, h object.Hash) ([]byte, error) {
	o, err := p.st.EncodedObject(plumbing.AnyObject, toHash(h))
	if err != nil {
		return nil, notFound(h, err)
	}
	rc, err := o.Reader()
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", h.Short(), err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", h.Short(), err)
	}
	return data, nil
}

// ObjectSize returns the payload size of h.
func (p *Provider) ObjectSize(_ context.Context, h object.Hash) (int64, error) {
	n, err := p.st.EncodedObjectSize(toHash(h))
	if err != nil {
		return 0, notFound(h, err)
	}
	return n, nil
}

// ExpandHash resolves an abbreviated identifier by scanning the store.
func (p *Provider) ExpandHash(_ context.Context, prefix string) (object.Hash, error) {
	prefix = strings.ToLower(prefix)
	if object.IsFullHash(prefix) {
		h := object.Hash(prefix)
		if err := p.st.HasEncodedObject(toHash(h)); err != nil {
			return "", notFound(h, err)
		}
		return h, nil
	}

	iter, err := p.st.IterEncodedObjects(plumbing.AnyObject)
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", prefix, err)
	}
	defer iter.Close()
	var found []object.Hash
	err = iter.ForEach(func(o plumbing.EncodedObject) error {
		if s := o.Hash().String(); strings.HasPrefix(s, prefix) {
			found = append(found, object.Hash(s))
			if len(found) > 1 {
				return storer.ErrStop
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", prefix, err)
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("expand %s: %w", prefix, object.ErrNotFound)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("expand %s: %w", prefix, object.ErrAmbiguous)
	}
}

// HashObject computes identifiers with go-git's hasher.
func (p *Provider) HashObject(t object.ObjectType, data []byte) object.Hash {
	pt, err := plumbing.ParseObjectType(string(t))
	if err != nil {
		return object.HashObject(t, data)
	}
	return object.Hash(plumbing.ComputeHash(pt, data).String())
}

// ListTree renders tree h in `git ls-tree -l` layout.
func (p *Provider) ListTree(_ context.Context, h object.Hash) ([]string, error) {
	t, err := gitobj.GetTree(p.st, toHash(h))
	if err != nil {
		return nil, notFound(h, err)
	}
	rows := make([]string, 0, len(t.Entries))
	for _, e := range t.Entries {
		mode := fmt.Sprintf("%06o", uint32(e.Mode))
		eh := object.Hash(e.Hash.String())
		switch e.Mode {
		case filemode.Dir:
			rows = append(rows, object.FormatTreeLine(mode, object.TypeTree, eh, -1, e.Name))
		case filemode.Submodule:
			rows = append(rows, object.FormatTreeLine(mode, object.TypeCommit, eh, -1, e.Name))
		default:
			size, err := p.st.EncodedObjectSize(e.Hash)
			if err != nil {
				return nil, notFound(eh, err)
			}
			rows = append(rows, object.FormatTreeLine(mode, object.TypeBlob, eh, size, e.Name))
		}
	}
	return rows, nil
}

type ref struct {
	name   string
	hash   plumbing.Hash
	remote bool
}

func (p *Provider) refs() ([]ref, error) {
	iter, err := p.st.IterReferences()
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}
	defer iter.Close()
	var out []ref
	err = iter.ForEach(func(r *plumbing.Reference) error {
		if r.Type() != plumbing.HashReference {
			return nil
		}
		switch n := r.Name(); {
		case n.IsBranch():
			out = append(out, ref{name: n.Short(), hash: r.Hash()})
		case n.IsRemote():
			out = append(out, ref{name: n.Short(), hash: r.Hash(), remote: true})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].remote != out[j].remote {
			return !out[i].remote
		}
		return out[i].name < out[j].name
	})
	return out, nil
}

func (p *Provider) summary(h plumbing.Hash) string {
	c, err := gitobj.GetCommit(p.st, h)
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(c.Message, "\n")
	return line
}

// head returns the branch HEAD points at, or "" and the commit when HEAD is
// detached.
func (p *Provider) head() (string, plumbing.Hash, error) {
	h, err := p.st.Reference(plumbing.HEAD)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", plumbing.ZeroHash, nil
		}
		return "", plumbing.ZeroHash, fmt.Errorf("read HEAD: %w", err)
	}
	if h.Type() == plumbing.SymbolicReference {
		return h.Target().Short(), plumbing.ZeroHash, nil
	}
	return "", h.Hash(), nil
}

// ListBranches renders local then remote-tracking branches in
// `git branch -v -a` layout.
func (p *Provider) ListBranches(context.Context) ([]string, error) {
	refs, err := p.refs()
	if err != nil {
		return nil, err
	}
	current, detached, err := p.head()
	if err != nil {
		return nil, err
	}
	var rows []string
	if !detached.IsZero() {
		rows = append(rows, detachedRow(detached, p.summary(detached)))
	}
	for _, r := range refs {
		name := r.name
		if r.remote {
			name = object.RemotePrefix + name
		}
		rows = append(rows, object.FormatBranchLine(name, object.Hash(r.hash.String()), !r.remote && r.name == current, p.summary(r.hash)))
	}
	return rows, nil
}

// CurrentBranch returns the row of the branch HEAD points at.
func (p *Provider) CurrentBranch(context.Context) (string, error) {
	current, detached, err := p.head()
	if err != nil {
		return "", err
	}
	if !detached.IsZero() {
		return detachedRow(detached, p.summary(detached)), nil
	}
	if current == "" {
		return "", nil
	}
	r, err := p.st.Reference(plumbing.NewBranchReferenceName(current))
	if err != nil {
		// Unborn branch.
		return "", nil
	}
	return object.FormatBranchLine(current, object.Hash(r.Hash().String()), true, p.summary(r.Hash())), nil
}

func detachedRow(h plumbing.Hash, summary string) string {
	short := object.Abbrev(object.Hash(h.String()), 7)
	return fmt.Sprintf("* (HEAD detached at %s) %s %s", short, short, summary)
}
