// Package storeapi defines the narrow set of object-store capabilities the
// core (owned diff model, commutation kernel, tree patcher, stack
// discovery, absorption driver) consumes. Nothing in this package talks to
// a real repository; concrete bindings live in internal/gitstore (backed by
// go-git) and internal/absorb/absorbtest (an in-memory fake for tests).
package storeapi

import "time"

// OID is a 40-hex object id. The zero value, ZeroOID, stands for "no tree" —
// used as the parent tree of a root commit when diffing it against nothing.
type OID string

// ZeroOID is the absence of a tree or commit, not a real object id.
const ZeroOID OID = ""

// Signature is a commit author or committer identity.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// CommitInfo is the subset of a commit's fields the core needs.
type CommitInfo struct {
	ID        OID
	ParentIDs []OID
	TreeID    OID
	Author    Signature
	Committer Signature
	Summary   string // first line of the commit message
	Message   string
}

// TreeEntry is one named entry of a tree object.
type TreeEntry struct {
	Name   []byte
	ID     OID
	Mode   uint32
	IsTree bool
}

// TreeHandle gives byte-exact lookup over a tree's entries. Lookup never
// path-cleans or case-folds — paths are raw bytes.
type TreeHandle interface {
	ID() OID
	Entry(name []byte) (TreeEntry, bool)
	Entries() []TreeEntry
}

// Builder incrementally rewrites a tree: it starts from a base tree's
// entries and lets the caller overwrite or add entries before writing a new
// tree object. This is the Go analog of libgit2's git_treebuilder.
type Builder interface {
	Insert(name []byte, id OID, mode uint32) error
	Write() (OID, error)
}

// BlobWriter accumulates bytes and commits them as a single blob object.
type BlobWriter interface {
	Write(p []byte) (int, error)
	Commit() (OID, error)
}
