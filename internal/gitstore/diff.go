package gitstore

import (
	"sort"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"absorb/internal/storeapi"
	"absorb/internal/udiff"
)

// flattenTreeHashes walks a tree's files recursively (object.Tree.Files
// already does the directory recursion go-git's way) into a path->blob-hash
// map, letting DiffTreeToTree and DiffTreeToIndex classify adds, deletes,
// renames and modifications by hash comparison before reading any blob
// content, the same shortcut `git diff`'s own tree-to-tree walk takes.
func flattenTreeHashes(tree *object.Tree) (map[string]plumbing.Hash, error) {
	out := map[string]plumbing.Hash{}
	iter := tree.Files()
	defer iter.Close()
	err := iter.ForEach(func(f *object.File) error {
		out[f.Name] = f.Hash
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DiffTreeToTree renders the zero-context unified diff between two trees.
func (s *Store) DiffTreeToTree(oldTree, newTree storeapi.OID) ([]byte, error) {
	from, err := s.treeOrEmpty(oldTree)
	if err != nil {
		return nil, err
	}
	to, err := s.treeOrEmpty(newTree)
	if err != nil {
		return nil, err
	}

	oldHashes, err := flattenTreeHashes(from)
	if err != nil {
		return nil, err
	}
	newHashes, err := flattenTreeHashes(to)
	if err != nil {
		return nil, err
	}
	return s.renderDiff(oldHashes, newHashes)
}

// DiffTreeToIndex renders the zero-context unified diff between a tree and
// the repository's staged index. The index's own entry hashes already name
// blob objects (staging writes the blob before recording the entry), so
// this reads through the object store exactly as it does for a tree side,
// never the working directory — matching `git diff --cached`.
func (s *Store) DiffTreeToIndex(tree storeapi.OID) ([]byte, error) {
	from, err := s.treeOrEmpty(tree)
	if err != nil {
		return nil, err
	}
	oldHashes, err := flattenTreeHashes(from)
	if err != nil {
		return nil, err
	}

	idxStorer, ok := s.repo.Storer.(storer.IndexStorer)
	if !ok {
		return nil, errIndexUnsupported
	}
	idx, err := idxStorer.Index()
	if err != nil {
		return nil, err
	}
	newHashes := make(map[string]plumbing.Hash, len(idx.Entries))
	for _, e := range idx.Entries {
		newHashes[e.Name] = e.Hash
	}

	return s.renderDiff(oldHashes, newHashes)
}

// renderDiff classifies two path->hash snapshots by hash equality (add /
// delete / rename-by-identical-content / modify), reads blob content only
// for the paths that actually need rendering, and hands the result to
// udiff.Render.
func (s *Store) renderDiff(oldHashes, newHashes map[string]plumbing.Hash) ([]byte, error) {
	var added, deleted []string
	for p := range oldHashes {
		if _, ok := newHashes[p]; !ok {
			deleted = append(deleted, p)
		}
	}
	for p := range newHashes {
		if _, ok := oldHashes[p]; !ok {
			added = append(added, p)
		}
	}
	sort.Strings(added)
	sort.Strings(deleted)

	renameTo := map[string]string{}
	isRenameDest := map[string]bool{}
	for _, op := range deleted {
		for _, np := range added {
			if isRenameDest[np] {
				continue
			}
			if oldHashes[op] == newHashes[np] {
				renameTo[op] = np
				isRenameDest[np] = true
				break
			}
		}
	}

	seen := map[string]bool{}
	var allPaths []string
	for p := range oldHashes {
		allPaths = append(allPaths, p)
		seen[p] = true
	}
	for p := range newHashes {
		if !seen[p] {
			allPaths = append(allPaths, p)
		}
	}
	sort.Strings(allPaths)

	var changes []udiff.FileChange
	for _, path := range allPaths {
		if np, ok := renameTo[path]; ok {
			changes = append(changes, udiff.FileChange{OldPath: path, NewPath: np, Status: udiff.Renamed})
			continue
		}
		if isRenameDest[path] {
			continue
		}

		oldHash, hadOld := oldHashes[path]
		newHash, hasNew := newHashes[path]
		switch {
		case !hadOld:
			content, err := s.ReadBlob(storeapi.OID(newHash.String()))
			if err != nil {
				return nil, err
			}
			changes = append(changes, udiff.FileChange{NewPath: path, Status: udiff.Added, NewContent: content})
		case !hasNew:
			content, err := s.ReadBlob(storeapi.OID(oldHash.String()))
			if err != nil {
				return nil, err
			}
			changes = append(changes, udiff.FileChange{OldPath: path, Status: udiff.Deleted, OldContent: content})
		case oldHash != newHash:
			oldContent, err := s.ReadBlob(storeapi.OID(oldHash.String()))
			if err != nil {
				return nil, err
			}
			newContent, err := s.ReadBlob(storeapi.OID(newHash.String()))
			if err != nil {
				return nil, err
			}
			changes = append(changes, udiff.FileChange{
				OldPath: path, NewPath: path, Status: udiff.Modified,
				OldContent: oldContent, NewContent: newContent,
			})
		}
	}

	return udiff.Render(changes), nil
}
