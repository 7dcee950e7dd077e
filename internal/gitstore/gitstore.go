package gitstore

import (
	"io"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"absorb/internal/storeapi"
)

// Store adapts a go-git repository to absorb.ObjectStore.
type Store struct {
	repo *git.Repository
}

func (s *Store) hash(id storeapi.OID) plumbing.Hash {
	return plumbing.NewHash(string(id))
}

func signatureOf(sig object.Signature) storeapi.Signature {
	return storeapi.Signature{Name: sig.Name, Email: sig.Email, When: sig.When}
}

func commitInfo(c *object.Commit) storeapi.CommitInfo {
	parents := make([]storeapi.OID, len(c.ParentHashes))
	for i, h := range c.ParentHashes {
		parents[i] = storeapi.OID(h.String())
	}
	summary := c.Message
	if i := strings.IndexByte(summary, '\n'); i >= 0 {
		summary = summary[:i]
	}
	return storeapi.CommitInfo{
		ID:        storeapi.OID(c.Hash.String()),
		ParentIDs: parents,
		TreeID:    storeapi.OID(c.TreeHash.String()),
		Author:    signatureOf(c.Author),
		Committer: signatureOf(c.Committer),
		Summary:   summary,
		Message:   c.Message,
	}
}

func (s *Store) ReadCommit(id storeapi.OID) (storeapi.CommitInfo, error) {
	c, err := s.repo.CommitObject(s.hash(id))
	if err != nil {
		return storeapi.CommitInfo{}, err
	}
	return commitInfo(c), nil
}

func (s *Store) Head() (storeapi.CommitInfo, storeapi.OID, error) {
	ref, err := s.repo.Head()
	if err != nil {
		return storeapi.CommitInfo{}, storeapi.ZeroOID, err
	}
	ci, err := s.ReadCommit(storeapi.OID(ref.Hash().String()))
	if err != nil {
		return storeapi.CommitInfo{}, storeapi.ZeroOID, err
	}
	return ci, ci.TreeID, nil
}

func (s *Store) ResolveRevision(rev string) (storeapi.OID, error) {
	h, err := s.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return storeapi.ZeroOID, err
	}
	return storeapi.OID(h.String()), nil
}

// Signature reads user.name/user.email from the repository's merged config,
// the go-git analog of libgit2's repo.signature(). When is stamped at call
// time since go-git's config carries no timestamp of its own.
func (s *Store) Signature() (storeapi.Signature, error) {
	cfg, err := s.repo.ConfigScoped(gitconfig.SystemScope)
	if err != nil {
		return storeapi.Signature{}, err
	}
	return storeapi.Signature{Name: cfg.User.Name, Email: cfg.User.Email, When: time.Now()}, nil
}

type treeHandle struct {
	tree *object.Tree
}

func (t *treeHandle) ID() storeapi.OID {
	if t.tree == nil {
		return storeapi.ZeroOID
	}
	return storeapi.OID(t.tree.Hash.String())
}

// Entry does its own linear scan over Entries rather than Tree.FindEntry,
// which path-cleans; paths here are raw bytes (see internal/storeapi's
// "paths as raw bytes" note).
func (t *treeHandle) Entry(name []byte) (storeapi.TreeEntry, bool) {
	if t.tree == nil {
		return storeapi.TreeEntry{}, false
	}
	for _, e := range t.tree.Entries {
		if e.Name == string(name) {
			return toTreeEntry(e), true
		}
	}
	return storeapi.TreeEntry{}, false
}

func (t *treeHandle) Entries() []storeapi.TreeEntry {
	if t.tree == nil {
		return nil
	}
	out := make([]storeapi.TreeEntry, len(t.tree.Entries))
	for i, e := range t.tree.Entries {
		out[i] = toTreeEntry(e)
	}
	return out
}

func toTreeEntry(e object.TreeEntry) storeapi.TreeEntry {
	return storeapi.TreeEntry{
		Name:   []byte(e.Name),
		ID:     storeapi.OID(e.Hash.String()),
		Mode:   uint32(e.Mode),
		IsTree: e.Mode == filemode.Dir,
	}
}

func (s *Store) treeOrEmpty(id storeapi.OID) (*object.Tree, error) {
	if id == storeapi.ZeroOID {
		return &object.Tree{}, nil
	}
	return s.repo.TreeObject(s.hash(id))
}

func (s *Store) ReadTree(id storeapi.OID) (storeapi.TreeHandle, error) {
	tree, err := s.treeOrEmpty(id)
	if err != nil {
		return nil, err
	}
	return &treeHandle{tree: tree}, nil
}

func (s *Store) ReadBlob(id storeapi.OID) ([]byte, error) {
	blob, err := s.repo.BlobObject(s.hash(id))
	if err != nil {
		return nil, err
	}
	r, err := blob.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (s *Store) CreateCommit(author, committer storeapi.Signature, message string, tree storeapi.OID, parents []storeapi.OID) (storeapi.OID, error) {
	parentHashes := make([]plumbing.Hash, len(parents))
	for i, p := range parents {
		parentHashes[i] = s.hash(p)
	}

	commit := &object.Commit{
		Author:       object.Signature{Name: author.Name, Email: author.Email, When: author.When},
		Committer:    object.Signature{Name: committer.Name, Email: committer.Email, When: committer.When},
		Message:      message,
		TreeHash:     s.hash(tree),
		ParentHashes: parentHashes,
	}

	obj := s.repo.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return storeapi.ZeroOID, err
	}
	h, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return storeapi.ZeroOID, err
	}
	return storeapi.OID(h.String()), nil
}

// UpdateHead moves HEAD's current reference (branch or detached) to commit,
// matching the behavior of `git commit` on whatever ref HEAD points to.
func (s *Store) UpdateHead(commit storeapi.OID) error {
	ref, err := s.repo.Head()
	if err != nil {
		return err
	}
	return s.repo.Storer.SetReference(plumbing.NewHashReference(ref.Name(), s.hash(commit)))
}
