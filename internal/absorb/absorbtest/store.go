// Package absorbtest provides an in-memory fake satisfying absorb.ObjectStore,
// adapted from nikola43-gogit's object/index/refs packages (content-addressed
// blobs and trees, a flat index, a HEAD pointer) and its cmd/diff.go LCS
// differ (here re-purposed to emit zero-context hunks instead of the
// original's three-line-context ones). It exists so internal/absorb's tests
// can build a commit stack and an index diff without a real repository.
package absorbtest

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"absorb/internal/storeapi"
	"absorb/internal/udiff"
)

const (
	modeTree = 0o040000
	modeFile = 0o100644
)

type treeEntries map[string]storeapi.TreeEntry

// Store is the fake object store. Zero value is not usable; use New.
type Store struct {
	blobs   map[storeapi.OID][]byte
	trees   map[storeapi.OID]treeEntries
	commits map[storeapi.OID]storeapi.CommitInfo
	index   map[string][]byte
	head    storeapi.OID
	sig     storeapi.Signature
	nextID  int
}

// New creates an empty store. sig is returned by Signature, standing in for
// the configured user identity a real adapter would read from git config.
func New(sig storeapi.Signature) *Store {
	return &Store{
		blobs:   map[storeapi.OID][]byte{},
		trees:   map[storeapi.OID]treeEntries{},
		commits: map[storeapi.OID]storeapi.CommitInfo{},
		index:   map[string][]byte{},
		sig:     sig,
	}
}

func (s *Store) allocID() storeapi.OID {
	s.nextID++
	return storeapi.OID(fmt.Sprintf("%040x", s.nextID))
}

// --- fixture construction ---------------------------------------------

type dirNode struct {
	files map[string][]byte
	dirs  map[string]*dirNode
}

func newDirNode() *dirNode {
	return &dirNode{files: map[string][]byte{}, dirs: map[string]*dirNode{}}
}

// BuildTree writes a tree object (and every subtree it needs) from a flat
// map of path -> file content and returns its id.
func (s *Store) BuildTree(files map[string][]byte) storeapi.OID {
	root := newDirNode()
	for path, content := range files {
		parts := strings.Split(path, "/")
		cur := root
		for _, p := range parts[:len(parts)-1] {
			child, ok := cur.dirs[p]
			if !ok {
				child = newDirNode()
				cur.dirs[p] = child
			}
			cur = child
		}
		cur.files[parts[len(parts)-1]] = content
	}
	return s.writeDirNode(root)
}

func (s *Store) writeDirNode(n *dirNode) storeapi.OID {
	entries := treeEntries{}
	for name, content := range n.files {
		entries[name] = storeapi.TreeEntry{
			Name: []byte(name), ID: s.putBlob(content), Mode: modeFile, IsTree: false,
		}
	}
	for name, child := range n.dirs {
		sub := s.writeDirNode(child)
		entries[name] = storeapi.TreeEntry{Name: []byte(name), ID: sub, Mode: modeTree, IsTree: true}
	}
	id := s.allocID()
	s.trees[id] = entries
	return id
}

func (s *Store) putBlob(content []byte) storeapi.OID {
	id := s.allocID()
	s.blobs[id] = append([]byte(nil), content...)
	return id
}

// Commit registers a commit with the given tree and parents under a fresh
// id, and returns it. message's first line becomes Summary.
func (s *Store) Commit(tree storeapi.OID, parents []storeapi.OID, author storeapi.Signature, message string) storeapi.OID {
	id, _ := s.CreateCommit(author, author, message, tree, parents)
	return id
}

// SetHead points HEAD directly at a commit without validating the
// transition.
func (s *Store) SetHead(id storeapi.OID) { s.head = id }

// Stage sets the index's full content for path, simulating `git add`.
func (s *Store) Stage(path string, content []byte) {
	s.index[path] = append([]byte(nil), content...)
}

// StageTree seeds the index with every blob in tree, so a test can start
// from "index matches HEAD" and then call Stage for the paths it actually
// wants to dirty.
func (s *Store) StageTree(tree storeapi.OID) error {
	files, err := s.flattenTree(tree)
	if err != nil {
		return err
	}
	for path, content := range files {
		s.index[path] = content
	}
	return nil
}

// --- storeapi.TreeHandle / Builder / BlobWriter ------------------------

type treeHandle struct {
	id      storeapi.OID
	entries treeEntries
}

func (t *treeHandle) ID() storeapi.OID { return t.id }

func (t *treeHandle) Entry(name []byte) (storeapi.TreeEntry, bool) {
	e, ok := t.entries[string(name)]
	return e, ok
}

func (t *treeHandle) Entries() []storeapi.TreeEntry {
	out := make([]storeapi.TreeEntry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	return out
}

func (s *Store) ReadTree(id storeapi.OID) (storeapi.TreeHandle, error) {
	if id == storeapi.ZeroOID {
		return &treeHandle{id: id, entries: treeEntries{}}, nil
	}
	entries, ok := s.trees[id]
	if !ok {
		return nil, fmt.Errorf("absorbtest: unknown tree %s", id)
	}
	return &treeHandle{id: id, entries: entries}, nil
}

func (s *Store) ReadBlob(id storeapi.OID) ([]byte, error) {
	b, ok := s.blobs[id]
	if !ok {
		return nil, fmt.Errorf("absorbtest: unknown blob %s", id)
	}
	return b, nil
}

type builder struct {
	store   *Store
	entries treeEntries
}

func (s *Store) NewTreeBuilder(base storeapi.OID) (storeapi.Builder, error) {
	entries := treeEntries{}
	if base != storeapi.ZeroOID {
		baseEntries, ok := s.trees[base]
		if !ok {
			return nil, fmt.Errorf("absorbtest: unknown tree %s", base)
		}
		for name, e := range baseEntries {
			entries[name] = e
		}
	}
	return &builder{store: s, entries: entries}, nil
}

func (b *builder) Insert(name []byte, id storeapi.OID, mode uint32) error {
	b.entries[string(name)] = storeapi.TreeEntry{
		Name: append([]byte(nil), name...), ID: id, Mode: mode, IsTree: mode == modeTree,
	}
	return nil
}

func (b *builder) Write() (storeapi.OID, error) {
	id := b.store.allocID()
	b.store.trees[id] = b.entries
	return id, nil
}

type blobWriter struct {
	store *Store
	buf   bytes.Buffer
}

func (s *Store) NewBlobWriter() (storeapi.BlobWriter, error) {
	return &blobWriter{store: s}, nil
}

func (w *blobWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *blobWriter) Commit() (storeapi.OID, error) {
	id := w.store.allocID()
	w.store.blobs[id] = append([]byte(nil), w.buf.Bytes()...)
	return id, nil
}

// --- absorb.ObjectStore --------------------------------------------------

func (s *Store) ReadCommit(id storeapi.OID) (storeapi.CommitInfo, error) {
	c, ok := s.commits[id]
	if !ok {
		return storeapi.CommitInfo{}, fmt.Errorf("absorbtest: unknown commit %s", id)
	}
	return c, nil
}

func (s *Store) Head() (storeapi.CommitInfo, storeapi.OID, error) {
	c, err := s.ReadCommit(s.head)
	if err != nil {
		return storeapi.CommitInfo{}, storeapi.ZeroOID, err
	}
	return c, c.TreeID, nil
}

func (s *Store) Signature() (storeapi.Signature, error) { return s.sig, nil }

func (s *Store) ResolveRevision(rev string) (storeapi.OID, error) {
	if rev == "HEAD" {
		return s.head, nil
	}
	if _, ok := s.commits[storeapi.OID(rev)]; ok {
		return storeapi.OID(rev), nil
	}
	return storeapi.ZeroOID, fmt.Errorf("absorbtest: cannot resolve revision %q", rev)
}

func (s *Store) CreateCommit(author, committer storeapi.Signature, message string, tree storeapi.OID, parents []storeapi.OID) (storeapi.OID, error) {
	summary := message
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		summary = message[:i]
	}
	id := s.allocID()
	s.commits[id] = storeapi.CommitInfo{
		ID: id, ParentIDs: append([]storeapi.OID(nil), parents...), TreeID: tree,
		Author: author, Committer: committer, Summary: summary, Message: message,
	}
	return id, nil
}

func (s *Store) UpdateHead(commit storeapi.OID) error {
	if _, ok := s.commits[commit]; !ok {
		return fmt.Errorf("absorbtest: unknown commit %s", commit)
	}
	s.head = commit
	return nil
}

func (s *Store) flattenTree(id storeapi.OID) (map[string][]byte, error) {
	out := map[string][]byte{}
	if id == storeapi.ZeroOID {
		return out, nil
	}
	if err := s.flattenInto(id, "", out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) flattenInto(id storeapi.OID, prefix string, out map[string][]byte) error {
	entries, ok := s.trees[id]
	if !ok {
		return fmt.Errorf("absorbtest: unknown tree %s", id)
	}
	for name, e := range entries {
		p := name
		if prefix != "" {
			p = prefix + "/" + name
		}
		if e.IsTree {
			if err := s.flattenInto(e.ID, p, out); err != nil {
				return err
			}
			continue
		}
		out[p] = s.blobs[e.ID]
	}
	return nil
}

func (s *Store) DiffTreeToTree(oldTree, newTree storeapi.OID) ([]byte, error) {
	oldFiles, err := s.flattenTree(oldTree)
	if err != nil {
		return nil, err
	}
	newFiles, err := s.flattenTree(newTree)
	if err != nil {
		return nil, err
	}
	return diffFileSets(oldFiles, newFiles), nil
}

func (s *Store) DiffTreeToIndex(tree storeapi.OID) ([]byte, error) {
	oldFiles, err := s.flattenTree(tree)
	if err != nil {
		return nil, err
	}
	return diffFileSets(oldFiles, s.index), nil
}


// --- zero-context diff synthesis ----------------------------------------
//
// diffFileSets compares two path->content snapshots and classifies them
// into udiff.FileChange values, which udiff.Render turns into the
// zero-context unified diff text a real object store is expected to honor.
// Renames are detected only by exact content match, good enough for
// hand-built fixtures and not a general similarity index.

func diffFileSets(oldFiles, newFiles map[string][]byte) []byte {
	var added, deleted []string
	for p := range oldFiles {
		if _, ok := newFiles[p]; !ok {
			deleted = append(deleted, p)
		}
	}
	for p := range newFiles {
		if _, ok := oldFiles[p]; !ok {
			added = append(added, p)
		}
	}
	sort.Strings(added)
	sort.Strings(deleted)

	renameTo := map[string]string{} // old path -> new path
	isRenameDest := map[string]bool{}
	for _, op := range deleted {
		for _, np := range added {
			if isRenameDest[np] {
				continue
			}
			if bytes.Equal(oldFiles[op], newFiles[np]) {
				renameTo[op] = np
				isRenameDest[np] = true
				break
			}
		}
	}

	seen := map[string]bool{}
	var allPaths []string
	for p := range oldFiles {
		allPaths = append(allPaths, p)
		seen[p] = true
	}
	for p := range newFiles {
		if !seen[p] {
			allPaths = append(allPaths, p)
		}
	}
	sort.Strings(allPaths)

	var changes []udiff.FileChange
	for _, path := range allPaths {
		if np, ok := renameTo[path]; ok {
			changes = append(changes, udiff.FileChange{
				OldPath: path, NewPath: np, Status: udiff.Renamed,
				OldContent: oldFiles[path], NewContent: newFiles[np],
			})
			continue
		}
		if isRenameDest[path] {
			continue
		}

		oldContent, hadOld := oldFiles[path]
		newContent, hasNew := newFiles[path]
		switch {
		case !hadOld:
			changes = append(changes, udiff.FileChange{NewPath: path, Status: udiff.Added, NewContent: newContent})
		case !hasNew:
			changes = append(changes, udiff.FileChange{OldPath: path, Status: udiff.Deleted, OldContent: oldContent})
		case !bytes.Equal(oldContent, newContent):
			changes = append(changes, udiff.FileChange{
				OldPath: path, NewPath: path, Status: udiff.Modified,
				OldContent: oldContent, NewContent: newContent,
			})
		}
	}
	return udiff.Render(changes)
}
