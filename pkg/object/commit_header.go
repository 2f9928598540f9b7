package object

import (
	"fmt"
	"strconv"
	"strings"
)

// Header markers and the fixed offsets derived from them. The hash of a
// "tree " line starts right after the 5-byte marker, the hash of a
// "parent " line after the 7-byte marker, and the author display span
// after "author ".
const (
	treeMarker   = "tree"
	parentMarker = "parent"
	authorMarker = "author"

	treeHashStart   = len(treeMarker) + 1
	parentHashStart = len(parentMarker) + 1
	authorStart     = len(authorMarker) + 1

	// The timestamp is the token that ends 6 characters before the end of
	// the author line (" +hhmm") and starts at or after len-16.
	timezoneWidth = 6
	timestampTail = 16
)

// CommitHeader holds the metadata extracted from a raw commit payload.
type CommitHeader struct {
	Tree       Hash
	Parent1    Hash
	Parent2    Hash
	Author     string // "Name <email>" as written, or the whole span without an email
	TimeMillis int64
	Summary    string // first line of the message

	// ExtraParents counts parent lines beyond the second (octopus merges),
	// which are not modeled.
	ExtraParents int
}

// HeaderError is a structural failure while parsing a commit header.
type HeaderError struct {
	Line   int // zero-based line index
	Reason string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("commit header line %d: %s", e.Line, e.Reason)
}

// ParseCommitHeader extracts commit metadata from raw commit bytes by fixed
// position rather than by grammar:
//
//	tree <hash>           optional, hash at [5:45]
//	parent <hash>         zero or more, hash at [7:47]
//	author <span> <secs> <tz>
//	...                   committer and other headers are skipped
//	                      blank separator
//	<summary>             first message line
func ParseCommitHeader(data []byte) (CommitHeader, error) {
	lines := strings.Split(string(data), "\n")
	var out CommitHeader
	p := 0

	if p < len(lines) && strings.HasPrefix(lines[p], treeMarker) {
		h, err := hashAt(lines[p], treeHashStart)
		if err != nil {
			return CommitHeader{}, &HeaderError{Line: p, Reason: "tree: " + err.Error()}
		}
		out.Tree = h
		p++
	}

	for p < len(lines) && strings.HasPrefix(lines[p], parentMarker) {
		h, err := hashAt(lines[p], parentHashStart)
		if err != nil {
			return CommitHeader{}, &HeaderError{Line: p, Reason: "parent: " + err.Error()}
		}
		switch {
		case out.Parent1 == "":
			out.Parent1 = h
		case out.Parent2 == "":
			out.Parent2 = h
		default:
			out.ExtraParents++
		}
		p++
	}

	if p < len(lines) && strings.HasPrefix(lines[p], authorMarker) {
		author, millis, err := parseAuthorLine(lines[p])
		if err != nil {
			return CommitHeader{}, &HeaderError{Line: p, Reason: "author: " + err.Error()}
		}
		out.Author = author
		out.TimeMillis = millis
		p++
	}

	for p < len(lines) && lines[p] != "" {
		p++
	}
	if p >= len(lines) {
		return CommitHeader{}, &HeaderError{Line: p, Reason: "missing blank line before message"}
	}
	if p+1 < len(lines) {
		out.Summary = lines[p+1]
	}
	return out, nil
}

func hashAt(line string, start int) (Hash, error) {
	end := start + HashLen
	if len(line) < end {
		return "", fmt.Errorf("line too short for hash at [%d:%d] (len %d)", start, end, len(line))
	}
	return ParseHash(line[start:end])
}

// parseAuthorLine returns the display span and the timestamp in epoch
// milliseconds. The span runs from the marker up to and including the '>'
// closing the email, or to end of line when there is no email.
func parseAuthorLine(line string) (string, int64, error) {
	k := len(line)
	if k < timestampTail || k <= authorStart {
		return "", 0, fmt.Errorf("line too short (len %d)", k)
	}

	j := strings.IndexByte(line, '>') + 1
	if j <= authorStart {
		j = k
	}
	author := line[authorStart:j]

	i := k - timestampTail
	for i < k && line[i] == ' ' {
		i++
	}
	if i >= k-timezoneWidth {
		return "", 0, fmt.Errorf("no timestamp before timezone")
	}
	secs, err := strconv.ParseInt(line[i:k-timezoneWidth], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("bad timestamp %q: %w", line[i:k-timezoneWidth], err)
	}
	return author, secs * 1000, nil
}
