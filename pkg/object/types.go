package object

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Hash is a 40-character hex-encoded SHA-1 object identifier.
type Hash string

// HashLen is the length of a full hex identifier.
const HashLen = 40

// DefaultAbbrev is the number of hash characters shown in reports.
const DefaultAbbrev = 6

// ObjectType identifies the kind of object stored.
type ObjectType string

const (
	TypeCommit ObjectType = "commit"
	TypeTree   ObjectType = "tree"
	TypeBlob   ObjectType = "blob"
	TypeTag    ObjectType = "tag"
)

const (
	// Tree mode constants as printed by git ls-tree.
	TreeModeDir        = "040000"
	TreeModeFile       = "100644"
	TreeModeExecutable = "100755"
	TreeModeSymlink    = "120000"
	TreeModeSubmodule  = "160000"
)

var (
	// ErrNotFound reports an identifier or prefix that names no object.
	ErrNotFound = errors.New("object not found")
	// ErrAmbiguous reports a prefix that names more than one object.
	ErrAmbiguous = errors.New("ambiguous object prefix")
)

// ParseHash canonicalizes s (surrounding space removed, lower-cased) and
// checks that it is a full 40-character hex identifier.
func ParseHash(s string) (Hash, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != HashLen {
		return "", fmt.Errorf("invalid hash length %d: %q", len(s), s)
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", fmt.Errorf("invalid hash %q: %w", s, err)
	}
	return Hash(s), nil
}

// IsFullHash reports whether h is a full-length hex identifier.
func IsFullHash(h string) bool {
	if len(h) != HashLen {
		return false
	}
	_, err := hex.DecodeString(h)
	return err == nil
}

// IsHexPrefix reports whether s could be an abbreviated identifier.
func IsHexPrefix(s string) bool {
	if s == "" || len(s) > HashLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

// Abbrev shortens h to n characters for display. n <= 0 selects
// DefaultAbbrev. Hashes already shorter than n are returned unchanged.
func Abbrev(h Hash, n int) string {
	if n <= 0 {
		n = DefaultAbbrev
	}
	if len(h) > n {
		return string(h[:n])
	}
	return string(h)
}

// Short is Abbrev with the default length.
func (h Hash) Short() string { return Abbrev(h, DefaultAbbrev) }

// ParseObjectType maps a catalog type token to an ObjectType.
func ParseObjectType(s string) (ObjectType, error) {
	switch ObjectType(s) {
	case TypeCommit, TypeTree, TypeBlob, TypeTag:
		return ObjectType(s), nil
	default:
		return "", fmt.Errorf("unknown object type %q", s)
	}
}
