package treepatch

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"absorb/internal/owned"
	"absorb/internal/storeapi"
)

const (
	modeTree = 0o040000
	modeFile = 0o100644
)

// fakeTree and fakeStore are a minimal in-memory object store good enough
// to exercise the tree patcher's recursion and blob splicing without a
// real repository.
type fakeTree struct {
	id      storeapi.OID
	entries map[string]storeapi.TreeEntry
}

func (t *fakeTree) ID() storeapi.OID { return t.id }

func (t *fakeTree) Entry(name []byte) (storeapi.TreeEntry, bool) {
	e, ok := t.entries[string(name)]
	return e, ok
}

func (t *fakeTree) Entries() []storeapi.TreeEntry {
	out := make([]storeapi.TreeEntry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	return out
}

type fakeStore struct {
	trees  map[storeapi.OID]*fakeTree
	blobs  map[storeapi.OID][]byte
	nextID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{trees: map[storeapi.OID]*fakeTree{}, blobs: map[storeapi.OID][]byte{}}
}

func (s *fakeStore) allocID(prefix string) storeapi.OID {
	s.nextID++
	return storeapi.OID(fmt.Sprintf("%s%d", prefix, s.nextID))
}

func (s *fakeStore) putBlob(content []byte) storeapi.OID {
	id := s.allocID("blob")
	s.blobs[id] = content
	return id
}

func (s *fakeStore) putTree(entries map[string]storeapi.TreeEntry) storeapi.OID {
	id := s.allocID("tree")
	s.trees[id] = &fakeTree{id: id, entries: entries}
	return id
}

func (s *fakeStore) ReadTree(id storeapi.OID) (storeapi.TreeHandle, error) {
	t, ok := s.trees[id]
	if !ok {
		return nil, fmt.Errorf("no such tree: %s", id)
	}
	return t, nil
}

func (s *fakeStore) ReadBlob(id storeapi.OID) ([]byte, error) {
	b, ok := s.blobs[id]
	if !ok {
		return nil, fmt.Errorf("no such blob: %s", id)
	}
	return b, nil
}

type fakeBuilder struct {
	store   *fakeStore
	entries map[string]storeapi.TreeEntry
}

func (s *fakeStore) NewTreeBuilder(base storeapi.OID) (storeapi.Builder, error) {
	b := &fakeBuilder{store: s, entries: map[string]storeapi.TreeEntry{}}
	if base != storeapi.ZeroOID {
		base, ok := s.trees[base]
		if !ok {
			return nil, fmt.Errorf("no such tree: %s", base)
		}
		for name, e := range base.entries {
			b.entries[name] = e
		}
	}
	return b, nil
}

func (b *fakeBuilder) Insert(name []byte, id storeapi.OID, mode uint32) error {
	b.entries[string(name)] = storeapi.TreeEntry{Name: name, ID: id, Mode: mode, IsTree: mode == modeTree}
	return nil
}

func (b *fakeBuilder) Write() (storeapi.OID, error) {
	return b.store.putTree(b.entries), nil
}

type fakeBlobWriter struct {
	store *fakeStore
	buf   []byte
}

func (s *fakeStore) NewBlobWriter() (storeapi.BlobWriter, error) {
	return &fakeBlobWriter{store: s}, nil
}

func (w *fakeBlobWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

func (w *fakeBlobWriter) Commit() (storeapi.OID, error) {
	return w.store.putBlob(w.buf), nil
}

func hunkOf(removedStart int, removed []string, addedStart int, added []string) owned.Hunk {
	toLines := func(ss []string) []owned.Line {
		out := make([]owned.Line, len(ss))
		for i, s := range ss {
			out[i] = owned.Line(s)
		}
		return out
	}
	return owned.Hunk{
		Removed: owned.Block{Start: removedStart, Lines: toLines(removed)},
		Added:   owned.Block{Start: addedStart, Lines: toLines(added)},
	}
}

func TestSkipPastNth(t *testing.T) {
	buf := []byte("a\nb\nc\n")

	if got := SkipPastNth(buf, 0); got != 0 {
		t.Fatalf("SkipPastNth(_, 0) = %d, want 0", got)
	}

	for n := 1; n <= 3; n++ {
		got := SkipPastNth(buf, n)
		prefix := buf[:got]
		count := 0
		for _, b := range prefix {
			if b == '\n' {
				count++
			}
		}
		if count != n {
			t.Fatalf("prefix for n=%d contains %d newlines, want %d (prefix=%q)", n, count, n, prefix)
		}
	}

	if got := SkipPastNth(buf, 10); got != len(buf) {
		t.Fatalf("SkipPastNth with n beyond available newlines = %d, want %d", got, len(buf))
	}

	if got := SkipPastNth(nil, 1); got != 0 {
		t.Fatalf("SkipPastNth(nil, 1) = %d, want 0", got)
	}
}

// TestApply_SingleLineReplace mirrors scenario S1's shape: replacing the
// first line of a three-line file.
func TestApply_SingleLineReplace(t *testing.T) {
	store := newFakeStore()
	blob := store.putBlob([]byte("a\nb\nc\n"))
	root := store.putTree(map[string]storeapi.TreeEntry{
		"f": {Name: []byte("f"), ID: blob, Mode: modeFile},
	})

	h := hunkOf(1, []string{"a\n"}, 1, []string{"A\n"})
	newRoot, err := Apply(store, root, h, []byte("f"))
	require.NoError(t, err)

	tree, _ := store.ReadTree(newRoot)
	entry, ok := tree.Entry([]byte("f"))
	require.True(t, ok, "expected entry f in patched tree")
	got, _ := store.ReadBlob(entry.ID)
	assert.Equal(t, "A\nb\nc\n", string(got))
	assert.Equal(t, uint32(modeFile), entry.Mode, "expected filemode to be preserved")

	// the original tree and blob are untouched
	origTree, _ := store.ReadTree(root)
	origEntry, _ := origTree.Entry([]byte("f"))
	origBlob, _ := store.ReadBlob(origEntry.ID)
	assert.Equal(t, "a\nb\nc\n", string(origBlob), "original blob should not be mutated")
}

// TestApply_PureAppend mirrors scenario S2: a pure insertion past the end
// of the file (removed block empty).
func TestApply_PureAppend(t *testing.T) {
	store := newFakeStore()
	blob := store.putBlob([]byte("x\ny\n"))
	root := store.putTree(map[string]storeapi.TreeEntry{
		"f": {Name: []byte("f"), ID: blob, Mode: modeFile},
	})

	h := hunkOf(3, nil, 3, []string{"z\n"})
	newRoot, err := Apply(store, root, h, []byte("f"))
	if err != nil {
		t.Fatal(err)
	}

	tree, _ := store.ReadTree(newRoot)
	entry, _ := tree.Entry([]byte("f"))
	got, _ := store.ReadBlob(entry.ID)
	if string(got) != "x\ny\nz\n" {
		t.Fatalf("patched blob = %q, want %q", got, "x\ny\nz\n")
	}
}

// TestApply_NestedPath exercises the recursive case: a file two levels
// deep inside nested trees, with an untouched sibling at each level.
func TestApply_NestedPath(t *testing.T) {
	store := newFakeStore()
	blob := store.putBlob([]byte("one\ntwo\n"))
	siblingBlob := store.putBlob([]byte("sibling\n"))

	inner := store.putTree(map[string]storeapi.TreeEntry{
		"g":       {Name: []byte("g"), ID: blob, Mode: modeFile},
		"sibling": {Name: []byte("sibling"), ID: siblingBlob, Mode: modeFile},
	})
	topSiblingBlob := store.putBlob([]byte("top-sibling\n"))
	root := store.putTree(map[string]storeapi.TreeEntry{
		"dir":         {Name: []byte("dir"), ID: inner, Mode: modeTree},
		"top-sibling": {Name: []byte("top-sibling"), ID: topSiblingBlob, Mode: modeFile},
	})

	h := hunkOf(1, []string{"one\n"}, 1, []string{"ONE\n"})
	newRoot, err := Apply(store, root, h, []byte("dir/g"))
	if err != nil {
		t.Fatal(err)
	}

	topTree, _ := store.ReadTree(newRoot)
	dirEntry, ok := topTree.Entry([]byte("dir"))
	if !ok || !dirEntry.IsTree {
		t.Fatal("expected dir entry to remain a tree")
	}
	subTree, _ := store.ReadTree(dirEntry.ID)

	gEntry, _ := subTree.Entry([]byte("g"))
	gBlob, _ := store.ReadBlob(gEntry.ID)
	if string(gBlob) != "ONE\ntwo\n" {
		t.Fatalf("patched nested blob = %q, want %q", gBlob, "ONE\ntwo\n")
	}

	siblingEntry, ok := subTree.Entry([]byte("sibling"))
	if !ok || siblingEntry.ID != siblingBlob {
		t.Fatal("expected sibling entry inside dir to be carried over unchanged")
	}

	topSiblingEntry, ok := topTree.Entry([]byte("top-sibling"))
	if !ok || topSiblingEntry.ID != topSiblingBlob {
		t.Fatal("expected top-level sibling entry to be carried over unchanged")
	}
}

func TestApply_MissingPathComponent(t *testing.T) {
	store := newFakeStore()
	root := store.putTree(map[string]storeapi.TreeEntry{})

	h := hunkOf(1, []string{"a\n"}, 1, []string{"A\n"})
	if _, err := Apply(store, root, h, []byte("missing")); err == nil {
		t.Fatal("expected an error for a missing path component")
	}
}

func TestApply_NonTreeWhereTreeExpected(t *testing.T) {
	store := newFakeStore()
	blob := store.putBlob([]byte("not a tree\n"))
	root := store.putTree(map[string]storeapi.TreeEntry{
		"f": {Name: []byte("f"), ID: blob, Mode: modeFile},
	})

	h := hunkOf(1, []string{"a\n"}, 1, []string{"A\n"})
	if _, err := Apply(store, root, h, []byte("f/nested")); err == nil {
		t.Fatal("expected an error when a path component resolves to a blob, not a tree")
	}
}
