// Package loose reads a repository's loose objects and refs directly from
// its git directory. Packed objects are not visible to it; run
// `git unpack-objects` or use another provider for packed repositories.
package loose

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/gitgraph/pkg/object"
)

// Provider implements repo.Provider over an object.Store.
type Provider struct {
	gitDir string
	store  *object.Store
}

// New returns a Provider for the git directory gitDir (the one holding
// objects/ and refs/).
func New(gitDir string) *Provider {
	return &Provider{gitDir: gitDir, store: object.NewStore(gitDir)}
}

// Open searches upward from path for a .git directory. A bare repository
// path is accepted as is.
func Open(path string) (*Provider, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}
	if isGitDir(abs) {
		return New(abs), nil
	}
	cur := abs
	for {
		gitDir := filepath.Join(cur, ".git")
		if isGitDir(gitDir) {
			return New(gitDir), nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("open: not a git repository (or any parent up to /): %s", path)
		}
		cur = parent
	}
}

func isGitDir(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, "objects"))
	if err != nil || !info.IsDir() {
		return false
	}
	_, err = os.Stat(filepath.Join(dir, "HEAD"))
	return err == nil
}

// Store exposes the underlying object store.
func (p *Provider) Store() *object.Store { return p.store }

// ListObjects returns a catalog line per loose object.
func (p *Provider) ListObjects(context.Context) ([]string, error) {
	entries, err := p.store.List()
	if err != nil {
		return nil, err
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = object.FormatCatalogLine(e.Hash, e.Type, e.Size)
	}
	return lines, nil
}

// ObjectBytes returns the inflated payload of h.
func (p *Provider) ObjectBytes(_ context.Context, h object.Hash) ([]byte, error) {
	_, data, err := p.store.Read(h)
	return data, err
}

// ObjectSize reads only the object envelope.
func (p *Provider) ObjectSize(_ context.Context, h object.Hash) (int64, error) {
	_, n, err := p.store.ReadHeader(h)
	return n, err
}

// ExpandHash resolves an abbreviation against the fan-out directories.
func (p *Provider) ExpandHash(_ context.Context, prefix string) (object.Hash, error) {
	return p.store.Expand(prefix)
}

// HashObject computes the identifier the store would assign.
func (p *Provider) HashObject(t object.ObjectType, data []byte) object.Hash {
	return object.HashObject(t, data)
}

// ListTree decodes tree h and renders it in `git ls-tree -l` layout.
func (p *Provider) ListTree(_ context.Context, h object.Hash) ([]string, error) {
	t, data, err := p.store.Read(h)
	if err != nil {
		return nil, err
	}
	if t != object.TypeTree {
		return nil, fmt.Errorf("ls-tree %s: is a %s", h.Short(), t)
	}
	entries, err := object.DecodeTree(data)
	if err != nil {
		return nil, fmt.Errorf("ls-tree %s: %w", h.Short(), err)
	}
	rows := make([]string, 0, len(entries))
	for _, e := range entries {
		size := int64(-1)
		if e.Type() == object.TypeBlob {
			if _, n, err := p.store.ReadHeader(e.Hash); err == nil {
				size = n
			}
		}
		rows = append(rows, object.FormatTreeLine(e.Mode, e.Type(), e.Hash, size, e.Name))
	}
	return rows, nil
}

// summary is the first message line of commit h, or "" when it cannot be
// read.
func (p *Provider) summary(h object.Hash) string {
	t, data, err := p.store.Read(h)
	if err != nil || t != object.TypeCommit {
		return ""
	}
	hdr, err := object.ParseCommitHeader(data)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(hdr.Summary)
}
