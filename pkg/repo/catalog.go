package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/odvcencio/gitgraph/pkg/object"
	"github.com/sirupsen/logrus"
)

// Counts is the number of entries of each kind in the Repo.
type Counts struct {
	Commits int `yaml:"commits"`
	Trees   int `yaml:"trees"`
	Blobs   int `yaml:"blobs"`
}

// Total is the number of entries of all kinds.
func (c Counts) Total() int { return c.Commits + c.Trees + c.Blobs }

// Tally summarizes one catalog ingestion.
type Tally struct {
	Objects    int `yaml:"objects"`
	Commits    int `yaml:"commits"`
	Trees      int `yaml:"trees"`
	Blobs      int `yaml:"blobs"`
	Other      int `yaml:"other"`      // tags, not modeled
	Malformed  int `yaml:"malformed"`  // lines skipped
	Collisions int `yaml:"collisions"` // repeated identifiers, first entry kept
}

func (t Tally) String() string {
	return fmt.Sprintf("%d objects  %d commits  %d trees  %d blobs", t.Objects, t.Commits, t.Trees, t.Blobs)
}

// IngestCatalog replaces the Repo's contents with the provider's object
// catalog. Malformed lines and collisions are logged and counted; only a
// provider failure is returned as an error.
func (r *Repo) IngestCatalog(ctx context.Context) (Tally, error) {
	lines, err := r.provider.ListObjects(ctx)
	if err != nil {
		return Tally{}, fmt.Errorf("ingest catalog: %w", err)
	}
	return r.IngestLines(lines), nil
}

// IngestLines resets the Repo and inserts one empty typed entry per
// "<hash> <type> <size>" line.
func (r *Repo) IngestLines(lines []string) Tally {
	r.objects = make(map[object.Hash]Entry, len(lines))
	r.order = r.order[:0]
	r.counts = Counts{}

	var t Tally
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		ce, err := object.ParseCatalogLine(line)
		if err != nil {
			t.Malformed++
			r.log.WithField("line", line).Warnf("skipping catalog line: %v", err)
			continue
		}
		e := newEntry(ce.Type, ce.Hash, ce.Size)
		if e == nil {
			t.Other++
			r.log.WithFields(logrus.Fields{"hash": r.Abbrev(ce.Hash), "kind": ce.Type}).Debug("skipping unmodeled object kind")
			continue
		}
		if _, inserted := r.insert(e); !inserted {
			t.Collisions++
		}
	}

	t.Objects = len(r.order)
	t.Commits = r.counts.Commits
	t.Trees = r.counts.Trees
	t.Blobs = r.counts.Blobs
	r.log.Info(t.String())
	return t
}

func newEntry(t object.ObjectType, h object.Hash, size int64) Entry {
	hdr := Header{Hash: h, Type: t, Size: size}
	switch t {
	case object.TypeCommit:
		return &Commit{Header: hdr}
	case object.TypeTree:
		return &Tree{Header: hdr}
	case object.TypeBlob:
		return &Blob{Header: hdr}
	default:
		return nil
	}
}

// insert adds e unless its identifier is already taken, in which case the
// existing entry is kept and returned.
func (r *Repo) insert(e Entry) (Entry, bool) {
	h := e.header().Hash
	if prev, ok := r.objects[h]; ok {
		r.log.WithFields(logrus.Fields{
			"hash":     string(h),
			"existing": prev.header().Type,
			"incoming": e.header().Type,
		}).Warn("hash collision, keeping existing entry")
		return prev, false
	}
	r.objects[h] = e
	r.order = append(r.order, h)
	switch e.(type) {
	case *Commit:
		r.counts.Commits++
	case *Tree:
		r.counts.Trees++
	case *Blob:
		r.counts.Blobs++
	}
	return e, true
}

// Counts returns the current number of entries per kind.
func (r *Repo) Counts() Counts { return r.counts }

// Objects returns every entry in insertion order.
func (r *Repo) Objects() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, h := range r.order {
		out = append(out, r.objects[h])
	}
	return out
}

// Lookup returns the entry for a full identifier.
func (r *Repo) Lookup(h object.Hash) (Entry, bool) {
	e, ok := r.objects[h]
	return e, ok
}

// expand turns a full or abbreviated identifier into a full one. Only
// abbreviations go through the provider.
func (r *Repo) expand(ctx context.Context, s string) (object.Hash, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) >= object.HashLen {
		h, err := object.ParseHash(s)
		if err != nil {
			return "", fmt.Errorf("resolve %q: %w", s, err)
		}
		return h, nil
	}
	if !object.IsHexPrefix(s) {
		return "", fmt.Errorf("resolve %q: %w", s, ErrNotFound)
	}
	h, err := r.provider.ExpandHash(ctx, s)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", s, err)
	}
	return h, nil
}

// Resolve returns the entry named by a full or abbreviated identifier.
func (r *Repo) Resolve(ctx context.Context, hashOrPrefix string) (Entry, error) {
	h, err := r.expand(ctx, hashOrPrefix)
	if err != nil {
		return nil, err
	}
	e, ok := r.objects[h]
	if !ok {
		return nil, fmt.Errorf("resolve %s: %w", r.Abbrev(h), ErrNotFound)
	}
	return e, nil
}

// Blob returns the cataloged blob for h, creating it with a size fetched
// from the provider when the catalog did not list it.
func (r *Repo) Blob(ctx context.Context, h object.Hash) (*Blob, error) {
	if e, ok := r.objects[h]; ok {
		b, ok := e.(*Blob)
		if !ok {
			return nil, fmt.Errorf("blob %s is a %s: %w", r.Abbrev(h), e.header().Type, ErrKindMismatch)
		}
		return b, nil
	}
	size, err := r.provider.ObjectSize(ctx, h)
	if err != nil {
		return nil, fmt.Errorf("blob %s: size: %w", r.Abbrev(h), err)
	}
	r.log.WithField("hash", r.Abbrev(h)).Debug("blob missing from catalog, adding")
	e, _ := r.insert(&Blob{Header: Header{Hash: h, Type: object.TypeBlob, Size: size}})
	return e.(*Blob), nil
}

// Tree returns the cataloged tree for h, creating an empty one when the
// catalog did not list it. Tree sizes are not tracked.
func (r *Repo) Tree(h object.Hash) (*Tree, error) {
	if e, ok := r.objects[h]; ok {
		t, ok := e.(*Tree)
		if !ok {
			return nil, fmt.Errorf("tree %s is a %s: %w", r.Abbrev(h), e.header().Type, ErrKindMismatch)
		}
		return t, nil
	}
	r.log.WithField("hash", r.Abbrev(h)).Debug("tree missing from catalog, adding")
	e, _ := r.insert(&Tree{Header: Header{Hash: h, Type: object.TypeTree}})
	return e.(*Tree), nil
}
