package object

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// ---------------------------------------------------------------------------
// CommitObj
// ---------------------------------------------------------------------------

// CommitObj is the structured form of a git commit payload, used to build
// commit objects for stores and fixtures.
type CommitObj struct {
	TreeHash           Hash
	Parents            []Hash
	Author             string // "Name <email>"
	Timestamp          int64  // epoch seconds
	AuthorTimezone     string // "+hhmm"; empty means "+0000"
	Committer          string // empty means Author
	CommitterTimestamp int64  // zero means Timestamp
	CommitterTimezone  string
	Message            string
}

// EncodeCommit serializes a CommitObj in git's commit format:
//
//	tree H
//	parent H        (zero or more)
//	author A T Z
//	committer C T Z
//
//	message
func EncodeCommit(c *CommitObj) []byte {
	tz := orDefault(c.AuthorTimezone, "+0000")
	committer := orDefault(c.Committer, c.Author)
	cts := c.CommitterTimestamp
	if cts == 0 {
		cts = c.Timestamp
	}
	ctz := orDefault(c.CommitterTimezone, tz)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", c.TreeHash)
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", p)
	}
	fmt.Fprintf(&buf, "author %s %d %s\n", c.Author, c.Timestamp, tz)
	fmt.Fprintf(&buf, "committer %s %d %s\n", committer, cts, ctz)
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// ---------------------------------------------------------------------------
// TreeObj
// ---------------------------------------------------------------------------

// TreeEntry is one entry in a git tree object.
type TreeEntry struct {
	Mode string // six-digit mode as printed by ls-tree, e.g. 100644 or 040000
	Name string
	Hash Hash
}

// Type derives the object type of the entry from its mode.
func (e TreeEntry) Type() ObjectType {
	switch e.Mode {
	case TreeModeDir:
		return TypeTree
	case TreeModeSubmodule:
		return TypeCommit
	default:
		return TypeBlob
	}
}

// EncodeTree serializes entries in git's binary tree format
// ("<mode> <name>\0<20-byte hash>" per entry). Entries are sorted the way
// git sorts them: by name, with directories compared as if suffixed by '/'.
func EncodeTree(entries []TreeEntry) ([]byte, error) {
	sorted := make([]TreeEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return treeSortKey(sorted[i]) < treeSortKey(sorted[j])
	})

	var buf bytes.Buffer
	for _, e := range sorted {
		raw, err := hex.DecodeString(string(e.Hash))
		if err != nil || len(raw) != HashLen/2 {
			return nil, fmt.Errorf("encode tree: entry %q: invalid hash %q", e.Name, e.Hash)
		}
		if e.Name == "" || strings.ContainsAny(e.Name, "/\x00") {
			return nil, fmt.Errorf("encode tree: invalid entry name %q", e.Name)
		}
		fmt.Fprintf(&buf, "%s %s\x00", strings.TrimLeft(e.Mode, "0"), e.Name)
		buf.Write(raw)
	}
	return buf.Bytes(), nil
}

func treeSortKey(e TreeEntry) string {
	if e.Mode == TreeModeDir {
		return e.Name + "/"
	}
	return e.Name
}

// DecodeTree parses git's binary tree format, preserving entry order.
func DecodeTree(data []byte) ([]TreeEntry, error) {
	var out []TreeEntry
	for len(data) > 0 {
		sp := bytes.IndexByte(data, ' ')
		if sp < 0 {
			return nil, fmt.Errorf("decode tree: missing mode terminator")
		}
		mode := string(data[:sp])
		data = data[sp+1:]

		nul := bytes.IndexByte(data, 0)
		if nul < 0 {
			return nil, fmt.Errorf("decode tree: missing name terminator after mode %s", mode)
		}
		name := string(data[:nul])
		data = data[nul+1:]

		if len(data) < HashLen/2 {
			return nil, fmt.Errorf("decode tree: truncated hash for %q", name)
		}
		h := Hash(hex.EncodeToString(data[:HashLen/2]))
		data = data[HashLen/2:]

		if len(mode) < 6 {
			mode = strings.Repeat("0", 6-len(mode)) + mode
		}
		out = append(out, TreeEntry{Mode: mode, Name: name, Hash: h})
	}
	return out, nil
}
