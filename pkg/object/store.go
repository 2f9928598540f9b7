package object

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zlib"
)

// Store is a loose-object store with git's 2-character fan-out layout:
// objects/ab/cdef0123... Each file holds the zlib-compressed envelope
// "type len\0content". Pack files are not read.
type Store struct {
	root string
}

// NewStore creates a Store rooted at a git directory (the directory that
// contains objects/). The objects/ subdirectory is created lazily on first
// write.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the git directory the store reads from.
func (s *Store) Root() string { return s.root }

// objectPath returns the filesystem path for a given hash.
func (s *Store) objectPath(h Hash) string {
	return filepath.Join(s.root, "objects", string(h[:2]), string(h[2:]))
}

// Has reports whether the store contains an object with the given hash.
func (s *Store) Has(h Hash) bool {
	if len(h) != HashLen {
		return false
	}
	_, err := os.Stat(s.objectPath(h))
	return err == nil
}

// Write stores an object and returns its content hash. Writes are atomic:
// data is written to a temp file and then renamed into place.
func (s *Store) Write(objType ObjectType, data []byte) (Hash, error) {
	h := HashObject(objType, data)

	// Fast path: already exists.
	if s.Has(h) {
		return h, nil
	}

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	fmt.Fprintf(zw, "%s %d\x00", objType, len(data))
	if _, err := zw.Write(data); err != nil {
		return "", fmt.Errorf("object write deflate: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("object write deflate: %w", err)
	}

	dir := filepath.Join(s.root, "objects", string(h[:2]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("object write mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("object write tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("object write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("object write close: %w", err)
	}

	dest := s.objectPath(h)
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("object write rename: %w", err)
	}

	return h, nil
}

func (s *Store) open(h Hash) (io.ReadCloser, *os.File, error) {
	if len(h) != HashLen {
		return nil, nil, fmt.Errorf("object read %s: %w", h, ErrNotFound)
	}
	f, err := os.Open(s.objectPath(h))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("object read %s: %w", h, ErrNotFound)
		}
		return nil, nil, fmt.Errorf("object read %s: %w", h, err)
	}
	zr, err := zlib.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("object read %s: inflate: %w", h, err)
	}
	return zr, f, nil
}

func parseEnvelope(h Hash, header string) (ObjectType, int64, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("object read %s: invalid header %q", h, header)
	}
	length, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("object read %s: invalid length %q: %w", h, parts[1], err)
	}
	t, err := ParseObjectType(parts[0])
	if err != nil {
		return "", 0, fmt.Errorf("object read %s: %w", h, err)
	}
	return t, length, nil
}

// Read retrieves an object by hash, returning its type and raw content.
func (s *Store) Read(h Hash) (ObjectType, []byte, error) {
	zr, f, err := s.open(h)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: %w", h, err)
	}

	nulIdx := bytes.IndexByte(raw, 0)
	if nulIdx < 0 {
		return "", nil, fmt.Errorf("object read %s: invalid format (no NUL)", h)
	}
	objType, length, err := parseEnvelope(h, string(raw[:nulIdx]))
	if err != nil {
		return "", nil, err
	}
	content := raw[nulIdx+1:]
	if int64(len(content)) != length {
		return "", nil, fmt.Errorf("object read %s: length mismatch (header=%d, actual=%d)", h, length, len(content))
	}
	return objType, content, nil
}

// ReadHeader returns the type and declared size of an object without
// inflating its content.
func (s *Store) ReadHeader(h Hash) (ObjectType, int64, error) {
	zr, f, err := s.open(h)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()
	defer zr.Close()

	header, err := bufio.NewReader(zr).ReadString(0)
	if err != nil {
		return "", 0, fmt.Errorf("object read %s: invalid format (no NUL): %w", h, err)
	}
	return parseEnvelope(h, strings.TrimSuffix(header, "\x00"))
}

// List enumerates every loose object with its type and size, ordered by
// hash. Fan-out entries that are not object files (temp files, pack/,
// info/) are skipped.
func (s *Store) List() ([]CatalogEntry, error) {
	hashes, err := s.hashes("")
	if err != nil {
		return nil, err
	}
	out := make([]CatalogEntry, 0, len(hashes))
	for _, h := range hashes {
		t, size, err := s.ReadHeader(h)
		if err != nil {
			return nil, fmt.Errorf("object list: %w", err)
		}
		out = append(out, CatalogEntry{Hash: h, Type: t, Size: size})
	}
	return out, nil
}

// Expand resolves an abbreviated hash to the unique full hash it prefixes.
func (s *Store) Expand(prefix string) (Hash, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if !IsHexPrefix(prefix) {
		return "", fmt.Errorf("expand %q: %w", prefix, ErrNotFound)
	}
	matches, err := s.hashes(prefix)
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("expand %q: %w", prefix, ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("expand %q: %d candidates: %w", prefix, len(matches), ErrAmbiguous)
	}
}

// hashes walks the fan-out directories and returns every object hash that
// starts with prefix. Only the matching fan-out directory is read when the
// prefix is at least two characters long.
func (s *Store) hashes(prefix string) ([]Hash, error) {
	objects := filepath.Join(s.root, "objects")
	var dirs []string
	if len(prefix) >= 2 {
		dirs = []string{prefix[:2]}
	} else {
		entries, err := os.ReadDir(objects)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("object list: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() && len(e.Name()) == 2 && IsHexPrefix(e.Name()) {
				dirs = append(dirs, e.Name())
			}
		}
	}

	var out []Hash
	for _, d := range dirs {
		entries, err := os.ReadDir(filepath.Join(objects, d))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("object list %s: %w", d, err)
		}
		for _, e := range entries {
			full := d + e.Name()
			if e.IsDir() || !IsFullHash(full) {
				continue
			}
			if strings.HasPrefix(full, prefix) {
				out = append(out, Hash(full))
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
