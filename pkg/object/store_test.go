package object

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const (
	emptyBlobHash = Hash("e69de29bb2d1d6434b8b29ae775ad8c2e48c5391")
	helloBlobHash = Hash("ce013625030ba8dba906f756967f9e9ca394464a") // "hello\n"
	emptyTreeHash = Hash("4b825dc642cb6eb9a060e54bf8d69288fbee4904")
)

func TestHashObjectMatchesGit(t *testing.T) {
	tests := []struct {
		typ  ObjectType
		data []byte
		want Hash
	}{
		{TypeBlob, nil, emptyBlobHash},
		{TypeBlob, []byte("hello\n"), helloBlobHash},
		{TypeTree, nil, emptyTreeHash},
	}
	for _, tt := range tests {
		if got := HashObject(tt.typ, tt.data); got != tt.want {
			t.Errorf("HashObject(%s, %q) = %s, want %s", tt.typ, tt.data, got, tt.want)
		}
	}
}

func TestHashObjectEnvelope(t *testing.T) {
	data := []byte("hello")
	if HashObject(TypeBlob, data) == HashBytes(data) {
		t.Error("HashObject should differ from HashBytes due to envelope")
	}
	if HashObject(TypeBlob, data) == HashObject(TypeTree, data) {
		t.Error("Different types should produce different hashes")
	}
}

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir())
}

func TestStoreWriteRead(t *testing.T) {
	s := tempStore(t)
	data := []byte("hello\n")
	h, err := s.Write(TypeBlob, data)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if h != helloBlobHash {
		t.Errorf("Hash: got %s, want %s", h, helloBlobHash)
	}

	gotType, gotData, err := s.Read(h)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if gotType != TypeBlob {
		t.Errorf("Type: got %q, want %q", gotType, TypeBlob)
	}
	if !bytes.Equal(gotData, data) {
		t.Errorf("Data: got %q, want %q", gotData, data)
	}
}

func TestStoreFanoutLayout(t *testing.T) {
	s := tempStore(t)
	h, err := s.Write(TypeBlob, []byte("fanout test"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	objPath := filepath.Join(s.root, "objects", string(h[:2]), string(h[2:]))
	if _, err := os.Stat(objPath); os.IsNotExist(err) {
		t.Errorf("Expected fan-out file at %s", objPath)
	}
}

func TestStoreReadHeader(t *testing.T) {
	s := tempStore(t)
	h, err := s.Write(TypeBlob, []byte("twelve bytes"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	typ, size, err := s.ReadHeader(h)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if typ != TypeBlob || size != 12 {
		t.Errorf("ReadHeader = (%s, %d), want (blob, 12)", typ, size)
	}
}

func TestStoreReadMissing(t *testing.T) {
	s := tempStore(t)
	_, _, err := s.Read(emptyTreeHash)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Read of missing object: got %v, want ErrNotFound", err)
	}
	if s.Has(emptyTreeHash) {
		t.Error("Has returned true for non-existing object")
	}
}

func TestStoreListSkipsStrayFiles(t *testing.T) {
	s := tempStore(t)
	blob, _ := s.Write(TypeBlob, []byte("a"))
	tree, _ := s.Write(TypeTree, nil)

	// Stray entries that must not show up in the listing.
	if err := os.MkdirAll(filepath.Join(s.root, "objects", "pack"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(s.root, "objects", string(blob[:2]), ".tmp-123"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("List returned %d entries, want 2: %+v", len(entries), entries)
	}
	seen := map[Hash]CatalogEntry{}
	for _, e := range entries {
		seen[e.Hash] = e
	}
	if seen[blob].Type != TypeBlob || seen[blob].Size != 1 {
		t.Errorf("blob entry = %+v", seen[blob])
	}
	if seen[tree].Type != TypeTree || seen[tree].Size != 0 {
		t.Errorf("tree entry = %+v", seen[tree])
	}
}

func TestStoreExpand(t *testing.T) {
	s := tempStore(t)
	h, err := s.Write(TypeBlob, []byte("hello\n"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	for _, n := range []int{1, 2, 4, 7, HashLen} {
		got, err := s.Expand(string(h[:n]))
		if err != nil {
			t.Fatalf("Expand(%d chars): %v", n, err)
		}
		if got != h {
			t.Errorf("Expand(%q) = %s, want %s", h[:n], got, h)
		}
	}
	if _, err := s.Expand("ffff"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expand unknown: got %v, want ErrNotFound", err)
	}
	if _, err := s.Expand("zz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expand non-hex: got %v, want ErrNotFound", err)
	}
}

func TestStoreExpandAmbiguous(t *testing.T) {
	s := tempStore(t)
	seen := map[byte]Hash{}
	var a, b Hash
	for i := 0; i < 64 && a == ""; i++ {
		h, err := s.Write(TypeBlob, []byte{byte(i)})
		if err != nil {
			t.Fatalf("Write: %v", err)
		}
		if prev, ok := seen[h[0]]; ok {
			a, b = prev, h
		}
		seen[h[0]] = h
	}
	if a == "" {
		t.Skip("no shared first character among fixture hashes")
	}
	if _, err := s.Expand(string(a[:1])); !errors.Is(err, ErrAmbiguous) {
		t.Errorf("Expand(%q) with %s and %s: got %v, want ErrAmbiguous", a[:1], a, b, err)
	}
}
