package object

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// RemotePrefix marks remote-tracking branches in `git branch -a` output.
const RemotePrefix = "remotes/"

// ErrSymbolicBranch reports a branch listing row that is an alias
// ("origin/HEAD -> origin/main") rather than a branch with its own head.
var ErrSymbolicBranch = errors.New("symbolic branch line")

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

// CatalogEntry is one row of the object catalog: "<hash> <type> <size>".
type CatalogEntry struct {
	Hash Hash
	Type ObjectType
	Size int64
}

// FormatCatalogLine renders an entry the way `git cat-file --batch-check`
// prints it.
func FormatCatalogLine(h Hash, t ObjectType, size int64) string {
	return fmt.Sprintf("%s %s %d", h, t, size)
}

// ParseCatalogLine parses one catalog row. The row must hold exactly three
// space-separated fields, a known object type and a non-negative numeric
// size.
func ParseCatalogLine(line string) (CatalogEntry, error) {
	fields := strings.Split(strings.TrimRight(line, "\r"), " ")
	if len(fields) != 3 {
		return CatalogEntry{}, fmt.Errorf("catalog line: want 3 fields, got %d", len(fields))
	}
	h, err := ParseHash(fields[0])
	if err != nil {
		return CatalogEntry{}, fmt.Errorf("catalog line: %w", err)
	}
	t, err := ParseObjectType(fields[1])
	if err != nil {
		return CatalogEntry{}, fmt.Errorf("catalog line: %w", err)
	}
	size, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return CatalogEntry{}, fmt.Errorf("catalog line: bad size %q: %w", fields[2], err)
	}
	if size < 0 {
		return CatalogEntry{}, fmt.Errorf("catalog line: negative size %d", size)
	}
	return CatalogEntry{Hash: h, Type: t, Size: size}, nil
}

// ---------------------------------------------------------------------------
// Tree listing
// ---------------------------------------------------------------------------

// TreeLine is one row of a detailed tree listing (`git ls-tree -l`):
//
//	<mode> SP <type> SP <hash> <padding><size> TAB <name>
//
// Size is -1 when the listing prints "-" (sub-trees).
type TreeLine struct {
	Mode string
	Type ObjectType
	Hash Hash
	Size int64
	Name string
}

// FormatTreeLine renders a row in `git ls-tree -l` layout.
func FormatTreeLine(mode string, t ObjectType, h Hash, size int64, name string) string {
	sz := "-"
	if size >= 0 {
		sz = strconv.FormatInt(size, 10)
	}
	return fmt.Sprintf("%s %s %s %7s\t%s", mode, t, h, sz, name)
}

// ParseTreeLine parses a tree listing row by position: the type sits
// between the first and second space, the hash is the 40 characters after
// the second space, and the name follows the first TAB after that.
func ParseTreeLine(line string) (TreeLine, error) {
	k := strings.IndexByte(line, ' ')
	if k < 0 {
		return TreeLine{}, fmt.Errorf("tree line: no type field in %q", line)
	}
	i := strings.IndexByte(line[k+1:], ' ')
	if i < 0 {
		return TreeLine{}, fmt.Errorf("tree line: no hash field in %q", line)
	}
	i += k + 1
	t := strings.IndexByte(line[i+1:], '\t')
	if t < 0 {
		return TreeLine{}, fmt.Errorf("tree line: no name field in %q", line)
	}
	j := t + i + 1
	if i+1+HashLen > j {
		return TreeLine{}, fmt.Errorf("tree line: short hash in %q", line)
	}

	h, err := ParseHash(line[i+1 : i+1+HashLen])
	if err != nil {
		return TreeLine{}, fmt.Errorf("tree line: %w", err)
	}
	out := TreeLine{
		Mode: line[:k],
		Type: ObjectType(line[k+1 : i]),
		Hash: h,
		Size: -1,
		Name: line[j+1:],
	}
	if sz := strings.TrimSpace(line[i+1+HashLen : j]); sz != "" && sz != "-" {
		n, err := strconv.ParseInt(sz, 10, 64)
		if err != nil {
			return TreeLine{}, fmt.Errorf("tree line: bad size %q: %w", sz, err)
		}
		out.Size = n
	}
	if out.Name == "" {
		return TreeLine{}, fmt.Errorf("tree line: empty name in %q", line)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Branch listing
// ---------------------------------------------------------------------------

// BranchLine is one row of `git branch -v [-a]` output. Hash is usually
// abbreviated and must be expanded before lookup.
type BranchLine struct {
	Name     string
	Hash     string
	Current  bool
	Remote   bool
	Detached bool
}

// FormatBranchLine renders a row in `git branch -v` layout.
func FormatBranchLine(name string, h Hash, current bool, summary string) string {
	marker := "  "
	if current {
		marker = "* "
	}
	return fmt.Sprintf("%s%s %s %s", marker, name, Abbrev(h, 7), summary)
}

// ParseBranchLine parses a branch listing row. The first two characters
// are the marker column; the name runs to the next space and the hash is
// the next space-delimited field. A leading "remotes/" is stripped from the
// name.
func ParseBranchLine(line string) (BranchLine, error) {
	line = strings.TrimRight(line, "\r")
	if len(line) < 3 {
		return BranchLine{}, fmt.Errorf("branch line: too short: %q", line)
	}
	out := BranchLine{Current: line[0] == '*'}

	rest := line[2:]
	if strings.HasPrefix(rest, "(") {
		// "* (HEAD detached at 1a2b3c4) 1a2b3c4 subject"
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			return BranchLine{}, fmt.Errorf("branch line: unterminated detached marker: %q", line)
		}
		out.Name = "HEAD"
		out.Detached = true
		out.Hash = firstField(rest[end+1:])
		if out.Hash == "" {
			return BranchLine{}, fmt.Errorf("branch line: no hash: %q", line)
		}
		return out, nil
	}

	i := strings.IndexByte(rest, ' ')
	if i <= 0 {
		return BranchLine{}, fmt.Errorf("branch line: no hash: %q", line)
	}
	name := rest[:i]
	if strings.HasPrefix(name, RemotePrefix) {
		name = name[len(RemotePrefix):]
		out.Remote = true
	}
	out.Name = name

	out.Hash = firstField(rest[i:])
	switch out.Hash {
	case "":
		return BranchLine{}, fmt.Errorf("branch line: no hash: %q", line)
	case "->":
		return BranchLine{}, fmt.Errorf("branch line %q: %w", name, ErrSymbolicBranch)
	}
	return out, nil
}

func firstField(s string) string {
	j := 0
	for j < len(s) && s[j] == ' ' {
		j++
	}
	k := j
	for k < len(s) && s[k] != ' ' {
		k++
	}
	return s[j:k]
}
