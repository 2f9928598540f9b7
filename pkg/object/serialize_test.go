package object

import (
	"strings"
	"testing"
)

func TestEncodeCommitParsesBack(t *testing.T) {
	c := &CommitObj{
		TreeHash:  emptyTreeHash,
		Parents:   []Hash{helloBlobHash, emptyBlobHash},
		Author:    "Ada Lovelace <ada@example.com>",
		Timestamp: 1700000000,
		Message:   "Merge topic\n\nlonger body\n",
	}
	hdr, err := ParseCommitHeader(EncodeCommit(c))
	if err != nil {
		t.Fatalf("ParseCommitHeader: %v", err)
	}
	if hdr.Tree != c.TreeHash {
		t.Errorf("Tree: got %s, want %s", hdr.Tree, c.TreeHash)
	}
	if hdr.Parent1 != c.Parents[0] || hdr.Parent2 != c.Parents[1] {
		t.Errorf("Parents: got %s/%s", hdr.Parent1, hdr.Parent2)
	}
	if hdr.Author != c.Author {
		t.Errorf("Author: got %q, want %q", hdr.Author, c.Author)
	}
	if hdr.TimeMillis != c.Timestamp*1000 {
		t.Errorf("TimeMillis: got %d", hdr.TimeMillis)
	}
	if hdr.Summary != "Merge topic" {
		t.Errorf("Summary: got %q", hdr.Summary)
	}
}

func TestEncodeCommitCommitterDefaults(t *testing.T) {
	data := string(EncodeCommit(&CommitObj{
		TreeHash:  emptyTreeHash,
		Author:    "A <a@x>",
		Timestamp: 42,
		Message:   "m",
	}))
	if !strings.Contains(data, "\ncommitter A <a@x> 42 +0000\n") {
		t.Errorf("committer line not defaulted from author:\n%s", data)
	}
}

func TestEncodeTreeEmptyMatchesGit(t *testing.T) {
	data, err := EncodeTree(nil)
	if err != nil {
		t.Fatalf("EncodeTree: %v", err)
	}
	if got := HashObject(TypeTree, data); got != emptyTreeHash {
		t.Errorf("empty tree hash = %s, want %s", got, emptyTreeHash)
	}
}

func TestEncodeDecodeTreeGitOrder(t *testing.T) {
	entries := []TreeEntry{
		{Mode: TreeModeFile, Name: "foo.txt", Hash: helloBlobHash},
		{Mode: TreeModeDir, Name: "foo", Hash: emptyTreeHash},
		{Mode: TreeModeFile, Name: "a", Hash: emptyBlobHash},
	}
	data, err := EncodeTree(entries)
	if err != nil {
		t.Fatalf("EncodeTree: %v", err)
	}
	got, err := DecodeTree(data)
	if err != nil {
		t.Fatalf("DecodeTree: %v", err)
	}
	// git compares directories as "foo/", which sorts after "foo.txt".
	want := []string{"a", "foo.txt", "foo"}
	if len(got) != len(want) {
		t.Fatalf("DecodeTree returned %d entries, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("entry %d: got %q, want %q", i, got[i].Name, name)
		}
	}
	if got[2].Mode != TreeModeDir || got[2].Type() != TypeTree {
		t.Errorf("dir entry mode/type = %s/%s", got[2].Mode, got[2].Type())
	}
	if got[0].Type() != TypeBlob || got[0].Hash != emptyBlobHash {
		t.Errorf("blob entry = %+v", got[0])
	}
}

func TestEncodeTreeRejectsBadEntries(t *testing.T) {
	if _, err := EncodeTree([]TreeEntry{{Mode: TreeModeFile, Name: "x", Hash: "abc"}}); err == nil {
		t.Error("short hash should be rejected")
	}
	if _, err := EncodeTree([]TreeEntry{{Mode: TreeModeFile, Name: "a/b", Hash: emptyBlobHash}}); err == nil {
		t.Error("name with slash should be rejected")
	}
}

func TestDecodeTreeTruncated(t *testing.T) {
	if _, err := DecodeTree([]byte("100644 a\x00\x01\x02")); err == nil {
		t.Error("truncated hash should fail")
	}
	if _, err := DecodeTree([]byte("100644")); err == nil {
		t.Error("missing mode terminator should fail")
	}
}
