package repo

import (
	"fmt"
	"strings"

	"github.com/odvcencio/gitgraph/pkg/object"
)

// Header is the identity shared by every entry kind.
type Header struct {
	Hash object.Hash
	Type object.ObjectType
	Size int64 // declared payload size
}

func (h *Header) header() *Header { return h }

// Entry is one of *Commit, *Tree or *Blob. The set is closed; dispatch on
// it with a type switch.
type Entry interface {
	header() *Header
	String() string
}

// HeaderOf returns the identity of e.
func HeaderOf(e Entry) Header { return *e.header() }

// Commit is a snapshot with authorship and up to two parent links. Its
// metadata is empty until the Repo loads it.
type Commit struct {
	Header

	TreeHash object.Hash
	Parent1  object.Hash
	Parent2  object.Hash
	Author   string
	Time     int64 // epoch milliseconds
	Date     string
	Summary  string

	loaded bool
	tree   *Tree
}

// Loaded reports whether the commit metadata has been parsed.
func (c *Commit) Loaded() bool { return c.loaded }

// IsRoot reports whether the commit has no parents.
func (c *Commit) IsRoot() bool { return c.Parent1 == "" }

// IsMerge reports whether the commit has a second parent.
func (c *Commit) IsMerge() bool { return c.Parent2 != "" }

func (c *Commit) String() string {
	return c.Hash.Short() + " -- " + c.Summary
}

// Child is a named entry inside a tree listing.
type Child struct {
	Name  string
	Entry Entry
}

// Tree is a directory. Children keep the provider's listing order.
type Tree struct {
	Header

	children []Child
	listed   bool
}

// Children returns the entries found by the last materialization.
func (t *Tree) Children() []Child { return t.children }

// Listed reports whether the tree has been materialized at least once.
func (t *Tree) Listed() bool { return t.listed }

func (t *Tree) String() string {
	return fmt.Sprintf("%s tree: %d", t.Hash.Short(), len(t.children))
}

// Blob is file content. Its bytes are fetched on demand and dropped again
// after use once they exceed the large-object threshold.
type Blob struct {
	Header

	data []byte
}

// Cached reports whether the blob bytes are held in memory.
func (b *Blob) Cached() bool { return b.data != nil }

// Evict drops the cached bytes.
func (b *Blob) Evict() { b.data = nil }

func (b *Blob) String() string {
	return fmt.Sprintf("%s blob (%d)", b.Hash.Short(), b.Size)
}

// Position is one occurrence of an entry during a traversal. The same
// entry can sit at many positions; names and parents live here, never on
// the shared entry.
type Position struct {
	Entry  Entry
	Name   string
	Parent *Position
}

// At returns the position of child c under p.
func (p *Position) At(c Child) *Position {
	return &Position{Entry: c.Entry, Name: c.Name, Parent: p}
}

// Root returns the outermost position, normally the commit.
func (p *Position) Root() *Position {
	for p.Parent != nil {
		p = p.Parent
	}
	return p
}

// Path joins the names from the top-most tree down to p with "/".
// Commit positions contribute no segment.
func (p *Position) Path() string {
	var parts []string
	for q := p; q != nil; q = q.Parent {
		if _, ok := q.Entry.(*Commit); ok {
			continue
		}
		parts = append(parts, q.Name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// Depth is the number of ancestors of p.
func (p *Position) Depth() int {
	d := 0
	for q := p.Parent; q != nil; q = q.Parent {
		d++
	}
	return d
}

// Describe renders a position the way listings show it:
//
//	commit  <hash> -- <summary>
//	tree    <hash> <name>: <children>
//	blob    <hash> <name> (<size>)
func (r *Repo) Describe(p *Position) string {
	switch e := p.Entry.(type) {
	case *Commit:
		return r.Abbrev(e.Hash) + " -- " + e.Summary
	case *Tree:
		return fmt.Sprintf("%s %s: %d", r.Abbrev(e.Hash), p.Name, len(e.children))
	case *Blob:
		return fmt.Sprintf("%s %s (%d)", r.Abbrev(e.Hash), p.Name, e.Size)
	default:
		return p.Name
	}
}
