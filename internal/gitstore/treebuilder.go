package gitstore

import (
	"sort"

	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"absorb/internal/storeapi"
)

// builder is the go-git analog of libgit2's git_treebuilder: it starts from
// a base tree's entries and lets the caller overwrite or add entries before
// encoding a new tree object. go-git has no native equivalent, so this
// collects object.TreeEntry values itself.
type builder struct {
	store   *Store
	entries map[string]object.TreeEntry
}

func (s *Store) NewTreeBuilder(base storeapi.OID) (storeapi.Builder, error) {
	b := &builder{store: s, entries: map[string]object.TreeEntry{}}
	if base != storeapi.ZeroOID {
		tree, err := s.repo.TreeObject(s.hash(base))
		if err != nil {
			return nil, err
		}
		for _, e := range tree.Entries {
			b.entries[e.Name] = e
		}
	}
	return b, nil
}

func (b *builder) Insert(name []byte, id storeapi.OID, mode uint32) error {
	b.entries[string(name)] = object.TreeEntry{
		Name: string(name),
		Mode: filemode.FileMode(mode),
		Hash: b.store.hash(id),
	}
	return nil
}

func (b *builder) Write() (storeapi.OID, error) {
	entries := make([]object.TreeEntry, 0, len(b.entries))
	for _, e := range b.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return lessTreeEntryName(entries[i], entries[j]) })

	tree := &object.Tree{Entries: entries}
	obj := b.store.repo.Storer.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return storeapi.ZeroOID, err
	}
	h, err := b.store.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return storeapi.ZeroOID, err
	}
	return storeapi.OID(h.String()), nil
}

// lessTreeEntryName sorts the way git does: a directory name sorts as if it
// carried a trailing slash, so "foo.go" sorts before the directory "foo"
// even though "foo" < "foo.go" byte-wise.
func lessTreeEntryName(a, b object.TreeEntry) bool {
	an, bn := a.Name, b.Name
	if a.Mode == filemode.Dir {
		an += "/"
	}
	if b.Mode == filemode.Dir {
		bn += "/"
	}
	return an < bn
}
