package loose

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/odvcencio/gitgraph/pkg/object"
)

const (
	headsPrefix   = "refs/heads/"
	remotesPrefix = "refs/remotes/"
)

// Head reads HEAD. A symbolic HEAD yields its target ref ("refs/heads/main");
// a detached HEAD yields the commit hash.
func (p *Provider) Head() (string, error) {
	data, err := os.ReadFile(filepath.Join(p.gitDir, "HEAD"))
	if err != nil {
		return "", fmt.Errorf("head: %w", err)
	}
	content := strings.TrimSpace(string(data))
	if target, ok := strings.CutPrefix(content, "ref: "); ok {
		return target, nil
	}
	return content, nil
}

// ListRefs returns every ref whose full name starts with prefix, from loose
// ref files and packed-refs. Loose refs win over packed ones.
func (p *Provider) ListRefs(prefix string) (map[string]object.Hash, error) {
	refs, err := p.packedRefs()
	if err != nil {
		return nil, err
	}
	for name := range refs {
		if !strings.HasPrefix(name, prefix) {
			delete(refs, name)
		}
	}

	root := p.gitDir
	dir := filepath.Join(root, filepath.FromSlash(prefix))
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || strings.HasSuffix(path, ".lock") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		content := strings.TrimSpace(string(data))
		if strings.HasPrefix(content, "ref: ") {
			return nil
		}
		h, err := object.ParseHash(content)
		if err != nil {
			return fmt.Errorf("%s: %w", rel, err)
		}
		refs[filepath.ToSlash(rel)] = h
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("list refs: %w", err)
	}
	return refs, nil
}

// packedRefs parses packed-refs, skipping the header and peeled lines.
func (p *Provider) packedRefs() (map[string]object.Hash, error) {
	refs := make(map[string]object.Hash)
	f, err := os.Open(filepath.Join(p.gitDir, "packed-refs"))
	if errors.Is(err, fs.ErrNotExist) {
		return refs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("packed-refs: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" || line[0] == '#' || line[0] == '^' {
			continue
		}
		hash, name, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		h, err := object.ParseHash(hash)
		if err != nil {
			continue
		}
		refs[name] = h
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("packed-refs: %w", err)
	}
	return refs, nil
}

// ResolveRef resolves HEAD, a full ref name, or a short branch name.
func (p *Provider) ResolveRef(name string) (object.Hash, error) {
	if name == "HEAD" {
		head, err := p.Head()
		if err != nil {
			return "", err
		}
		if strings.HasPrefix(head, "refs/") {
			return p.ResolveRef(head)
		}
		return object.ParseHash(head)
	}
	full := name
	if !strings.HasPrefix(name, "refs/") {
		full = headsPrefix + name
	}
	refs, err := p.ListRefs(full)
	if err != nil {
		return "", err
	}
	h, ok := refs[full]
	if !ok {
		return "", fmt.Errorf("resolve ref %q: %w", name, object.ErrNotFound)
	}
	return h, nil
}

// ListBranches renders local then remote-tracking branches in
// `git branch -v -a` layout.
func (p *Provider) ListBranches(context.Context) ([]string, error) {
	head, err := p.Head()
	if err != nil {
		return nil, err
	}
	var rows []string
	if object.IsFullHash(head) {
		rows = append(rows, p.detachedRow(object.Hash(head)))
	}
	for _, prefix := range []string{headsPrefix, remotesPrefix} {
		refs, err := p.ListRefs(prefix)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(refs))
		for name := range refs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			h := refs[name]
			short := strings.TrimPrefix(name, headsPrefix)
			if prefix == remotesPrefix {
				short = object.RemotePrefix + strings.TrimPrefix(name, remotesPrefix)
			}
			rows = append(rows, object.FormatBranchLine(short, h, name == head, p.summary(h)))
		}
	}
	return rows, nil
}

// CurrentBranch returns the row for the branch HEAD points at, the detached
// HEAD row, or "" on an unborn branch.
func (p *Provider) CurrentBranch(context.Context) (string, error) {
	head, err := p.Head()
	if err != nil {
		return "", err
	}
	if object.IsFullHash(head) {
		return p.detachedRow(object.Hash(head)), nil
	}
	h, err := p.ResolveRef(head)
	if errors.Is(err, object.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return object.FormatBranchLine(strings.TrimPrefix(head, headsPrefix), h, true, p.summary(h)), nil
}

func (p *Provider) detachedRow(h object.Hash) string {
	short := object.Abbrev(h, 7)
	return fmt.Sprintf("* (HEAD detached at %s) %s %s", short, short, p.summary(h))
}
