package repo

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"strings"
	"testing"

	"github.com/odvcencio/gitgraph/pkg/object"
	"github.com/sirupsen/logrus"
)

type fakeObject struct {
	typ  object.ObjectType
	data []byte
}

// fakeProvider serves real git-format objects from memory and counts
// payload fetches.
type fakeProvider struct {
	objects map[object.Hash]fakeObject
	order   []object.Hash

	catalog  []string                 // overrides the generated catalog when non-nil
	trees    map[object.Hash][]string // listing overrides
	served   map[object.Hash][]byte   // payload overrides
	branches []string
	current  string

	fetches map[object.Hash]int
	lists   map[object.Hash]int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		objects: make(map[object.Hash]fakeObject),
		trees:   make(map[object.Hash][]string),
		served:  make(map[object.Hash][]byte),
		fetches: make(map[object.Hash]int),
		lists:   make(map[object.Hash]int),
	}
}

func (f *fakeProvider) add(t object.ObjectType, data []byte) object.Hash {
	h := object.HashObject(t, data)
	if _, ok := f.objects[h]; !ok {
		f.order = append(f.order, h)
	}
	f.objects[h] = fakeObject{typ: t, data: data}
	return h
}

func (f *fakeProvider) blob(content string) object.Hash {
	return f.add(object.TypeBlob, []byte(content))
}

func (f *fakeProvider) tree(t *testing.T, entries ...object.TreeEntry) object.Hash {
	t.Helper()
	data, err := object.EncodeTree(entries)
	if err != nil {
		t.Fatalf("EncodeTree: %v", err)
	}
	return f.add(object.TypeTree, data)
}

func (f *fakeProvider) commit(tree object.Hash, msg string, ts int64, parents ...object.Hash) object.Hash {
	return f.add(object.TypeCommit, object.EncodeCommit(&object.CommitObj{
		TreeHash:  tree,
		Parents:   parents,
		Author:    "Test Author <test@example.com>",
		Timestamp: ts,
		Message:   msg + "\n",
	}))
}

func file(name string, h object.Hash) object.TreeEntry {
	return object.TreeEntry{Mode: object.TreeModeFile, Name: name, Hash: h}
}

func dir(name string, h object.Hash) object.TreeEntry {
	return object.TreeEntry{Mode: object.TreeModeDir, Name: name, Hash: h}
}

func (f *fakeProvider) ListObjects(context.Context) ([]string, error) {
	if f.catalog != nil {
		return f.catalog, nil
	}
	lines := make([]string, 0, len(f.order))
	for _, h := range f.order {
		o := f.objects[h]
		lines = append(lines, object.FormatCatalogLine(h, o.typ, int64(len(o.data))))
	}
	return lines, nil
}

func (f *fakeProvider) ObjectBytes(_ context.Context, h object.Hash) ([]byte, error) {
	f.fetches[h]++
	if data, ok := f.served[h]; ok {
		return data, nil
	}
	o, ok := f.objects[h]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", h, object.ErrNotFound)
	}
	return append([]byte(nil), o.data...), nil
}

func (f *fakeProvider) ObjectSize(_ context.Context, h object.Hash) (int64, error) {
	if data, ok := f.served[h]; ok {
		return int64(len(data)), nil
	}
	o, ok := f.objects[h]
	if !ok {
		return 0, fmt.Errorf("object %s: %w", h, object.ErrNotFound)
	}
	return int64(len(o.data)), nil
}

func (f *fakeProvider) ExpandHash(_ context.Context, prefix string) (object.Hash, error) {
	var found []object.Hash
	for h := range f.objects {
		if strings.HasPrefix(string(h), prefix) {
			found = append(found, h)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("expand %s: %w", prefix, object.ErrNotFound)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("expand %s: %w", prefix, object.ErrAmbiguous)
	}
}

func (f *fakeProvider) HashObject(t object.ObjectType, data []byte) object.Hash {
	return object.HashObject(t, data)
}

func (f *fakeProvider) ListTree(_ context.Context, h object.Hash) ([]string, error) {
	f.lists[h]++
	if rows, ok := f.trees[h]; ok {
		return rows, nil
	}
	o, ok := f.objects[h]
	if !ok || o.typ != object.TypeTree {
		return nil, fmt.Errorf("tree %s: %w", h, object.ErrNotFound)
	}
	entries, err := object.DecodeTree(o.data)
	if err != nil {
		return nil, err
	}
	rows := make([]string, 0, len(entries))
	for _, e := range entries {
		size := int64(-1)
		if e.Type() == object.TypeBlob {
			size = int64(len(f.objects[e.Hash].data))
		}
		rows = append(rows, object.FormatTreeLine(e.Mode, e.Type(), e.Hash, size, e.Name))
	}
	return rows, nil
}

func (f *fakeProvider) ListBranches(context.Context) ([]string, error) { return f.branches, nil }

func (f *fakeProvider) CurrentBranch(context.Context) (string, error) { return f.current, nil }

// memSink records extraction output.
type memSink struct {
	dirs  map[string]bool
	files map[string][]byte
}

func newMemSink() *memSink {
	return &memSink{dirs: make(map[string]bool), files: make(map[string][]byte)}
}

func (s *memSink) Mkdir(path string) error {
	if s.dirs[path] {
		return fmt.Errorf("mkdir %s: %w", path, fs.ErrExist)
	}
	s.dirs[path] = true
	return nil
}

func (s *memSink) WriteFile(path string, data []byte) error {
	s.files[path] = append([]byte(nil), data...)
	return nil
}

func (s *memSink) paths() []string {
	var out []string
	for p := range s.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestRepo(t *testing.T, p *fakeProvider, opts ...Option) *Repo {
	t.Helper()
	r := New(p, append([]Option{WithLogger(quietLogger())}, opts...)...)
	if _, err := r.IngestCatalog(context.Background()); err != nil {
		t.Fatalf("IngestCatalog: %v", err)
	}
	return r
}

// sample builds C -> T1{a.txt: B1 (5 bytes), sub: T2{b.txt: B2 (empty)}}.
type sample struct {
	p              *fakeProvider
	b1, b2, t1, t2 object.Hash
	c              object.Hash
}

func newSample(t *testing.T) sample {
	t.Helper()
	p := newFakeProvider()
	s := sample{p: p}
	s.b1 = p.blob("hello")
	s.b2 = p.blob("")
	s.t2 = p.tree(t, file("b.txt", s.b2))
	s.t1 = p.tree(t, file("a.txt", s.b1), dir("sub", s.t2))
	s.c = p.commit(s.t1, "initial import", 1700000000)
	return s
}
