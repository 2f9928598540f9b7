package repo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/odvcencio/gitgraph/pkg/object"
	"github.com/sirupsen/logrus"
)

// Failure is one blob that did not pass verification.
type Failure struct {
	Path   string      `yaml:"path"`
	Hash   object.Hash `yaml:"hash"`
	Reason string      `yaml:"reason"`
}

// Report accumulates the outcome of one Verify or SaveTo call.
type Report struct {
	Root     object.Hash `yaml:"root"`
	Visited  int         `yaml:"visited"`
	OK       int         `yaml:"ok"`
	Written  int         `yaml:"written,omitempty"`
	Failures []Failure   `yaml:"failures,omitempty"`

	extract bool
}

// Passed reports whether every visited blob checked out.
func (rep *Report) Passed() bool { return len(rep.Failures) == 0 }

func (rep *Report) String() string {
	if rep.extract {
		return fmt.Sprintf("%d blobs written", rep.Written)
	}
	return fmt.Sprintf("%d blobs, %d OK", rep.Visited, rep.OK)
}

func (rep *Report) fail(p *Position, h object.Hash, format string, args ...any) {
	rep.Failures = append(rep.Failures, Failure{Path: p.Path(), Hash: h, Reason: fmt.Sprintf(format, args...)})
}

// Verify checks every blob reachable from e: its fetched length must equal
// the declared size and, for non-empty blobs, its recomputed identifier must
// match. Mismatches are recorded in the report and do not stop the walk.
// For a commit, the commit identifier itself is also confirmed with the
// provider.
func (r *Repo) Verify(ctx context.Context, e Entry) (*Report, error) {
	rep := &Report{Root: e.header().Hash}
	p := r.topPosition(e)
	if c, ok := e.(*Commit); ok {
		full, err := r.provider.ExpandHash(ctx, string(c.Hash))
		if err != nil {
			return rep, fmt.Errorf("verify %s: %w", r.Abbrev(c.Hash), err)
		}
		if full != c.Hash {
			rep.fail(p, c.Hash, "commit resolves to %s", full)
		}
		r.log.WithField("hash", r.Abbrev(c.Hash)).Infof("%s = %s", r.Abbrev(c.Hash), r.Abbrev(full))
	}
	if err := r.check(ctx, p, "", rep); err != nil {
		return rep, err
	}
	r.log.Info(rep.String())
	return rep, nil
}

// SaveTo extracts everything reachable from e under dir, checking each blob
// the same way Verify does. Each tree becomes a directory named after its
// position; a directory that already exists aborts the extraction with
// ErrTargetExists. Blob files are written whatever the check outcome.
func (r *Repo) SaveTo(ctx context.Context, e Entry, dir string) (*Report, error) {
	if dir == "" {
		return nil, errors.New("save: empty target directory")
	}
	rep := &Report{Root: e.header().Hash, extract: true}
	if err := r.check(ctx, r.topPosition(e), dir, rep); err != nil {
		return rep, err
	}
	r.log.Info(rep.String())
	return rep, nil
}

func (r *Repo) topPosition(e Entry) *Position {
	return &Position{Entry: e, Name: r.Abbrev(e.header().Hash)}
}

// check walks p, writing under dir when dir is non-empty.
func (r *Repo) check(ctx context.Context, p *Position, dir string, rep *Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch e := p.Entry.(type) {
	case *Commit:
		t, err := r.CommitTree(ctx, e)
		if err != nil {
			return err
		}
		return r.check(ctx, p.At(Child{Name: RootTreeName, Entry: t}), dir, rep)

	case *Tree:
		if !e.listed {
			if _, err := r.Materialize(ctx, e.Hash, p.Name); err != nil {
				return err
			}
		}
		sub := ""
		if dir != "" {
			sub = filepath.Join(dir, p.Name)
			r.log.WithField("hash", r.Abbrev(e.Hash)).Debugf("mkdir %s", sub)
			if err := r.sink.Mkdir(sub); err != nil {
				if errors.Is(err, fs.ErrExist) {
					return fmt.Errorf("save %s: %w", sub, ErrTargetExists)
				}
				return fmt.Errorf("save %s: %w", sub, err)
			}
		}
		for _, c := range e.children {
			if err := r.check(ctx, p.At(c), sub, rep); err != nil {
				return err
			}
		}
		return nil

	case *Blob:
		return r.checkBlob(ctx, p, e, dir, rep)
	}
	return nil
}

func (r *Repo) checkBlob(ctx context.Context, p *Position, b *Blob, dir string, rep *Report) error {
	rep.Visited++
	data, err := r.BlobData(ctx, b)
	if err != nil {
		rep.fail(p, b.Hash, "fetch: %v", err)
		r.log.WithFields(logrus.Fields{"hash": r.Abbrev(b.Hash), "path": p.Path()}).Warnf("blob fetch failed: %v", err)
		return nil
	}

	ok := true
	if int64(len(data)) != b.Size {
		ok = false
		rep.fail(p, b.Hash, "size mismatch (declared %d, actual %d)", b.Size, len(data))
	} else if b.Size > 0 {
		computed := r.provider.HashObject(object.TypeBlob, data)
		if !strings.HasPrefix(string(computed), string(b.Hash)) {
			ok = false
			rep.fail(p, b.Hash, "hash mismatch (computed %s)", computed)
		}
	}
	if ok {
		rep.OK++
	}
	r.log.WithFields(logrus.Fields{
		"hash": r.Abbrev(b.Hash),
		"ok":   ok,
		"size": b.Size,
	}).Debug(p.Path())

	if dir != "" {
		path := filepath.Join(dir, p.Name)
		if err := r.sink.WriteFile(path, data); err != nil {
			return fmt.Errorf("save %s: %w", path, err)
		}
		rep.Written++
	}

	if len(data) > r.largeObjectThreshold {
		b.Evict()
	}
	return nil
}

// BlobData returns the bytes of b, fetching them when they are not cached.
// The bytes stay cached until Evict. An empty payload declared with size 1
// is normalized to size 0.
func (r *Repo) BlobData(ctx context.Context, b *Blob) ([]byte, error) {
	if b.data != nil {
		return b.data, nil
	}
	data, err := r.provider.ObjectBytes(ctx, b.Hash)
	if err != nil {
		return nil, fmt.Errorf("blob %s: %w", r.Abbrev(b.Hash), err)
	}
	if data == nil {
		data = []byte{}
	}
	if len(data) == 0 && b.Size == 1 {
		b.Size = 0
	}
	b.data = data
	return data, nil
}
