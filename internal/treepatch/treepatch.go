// Package treepatch applies a single hunk to a file inside a (possibly
// nested) tree, producing a new tree object with every other entry
// untouched.
package treepatch

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"

	"absorb/internal/owned"
	"absorb/internal/storeapi"
)

// Store is the narrow object-store capability the tree patcher needs:
// reading trees and blobs, and writing new ones.
type Store interface {
	ReadTree(id storeapi.OID) (storeapi.TreeHandle, error)
	ReadBlob(id storeapi.OID) ([]byte, error)
	NewTreeBuilder(base storeapi.OID) (storeapi.Builder, error)
	NewBlobWriter() (storeapi.BlobWriter, error)
}

// Apply patches the file at path inside baseTree with hunk, returning the
// id of the resulting tree. Every ancestor directory on the way to path is
// rewritten; every sibling entry, at every level, is carried over
// unchanged.
func Apply(store Store, baseTree storeapi.OID, hunk owned.Hunk, path []byte) (storeapi.OID, error) {
	segments := bytes.Split(path, []byte("/"))
	return applyToTree(store, baseTree, segments, hunk)
}

func applyToTree(store Store, treeID storeapi.OID, segments [][]byte, hunk owned.Hunk) (storeapi.OID, error) {
	tree, err := store.ReadTree(treeID)
	if err != nil {
		return storeapi.ZeroOID, errors.Wrapf(err, "read tree %s", treeID)
	}

	name := segments[0]
	entry, ok := tree.Entry(name)
	if !ok {
		return storeapi.ZeroOID, fmt.Errorf("path component %q not found in tree %s", name, treeID)
	}

	builder, err := store.NewTreeBuilder(treeID)
	if err != nil {
		return storeapi.ZeroOID, errors.Wrap(err, "new tree builder")
	}

	if len(segments) > 1 {
		if !entry.IsTree {
			return storeapi.ZeroOID, fmt.Errorf("path component %q is not a tree", name)
		}
		newSubtree, err := applyToTree(store, entry.ID, segments[1:], hunk)
		if err != nil {
			return storeapi.ZeroOID, err
		}
		if err := builder.Insert(name, newSubtree, entry.Mode); err != nil {
			return storeapi.ZeroOID, errors.Wrap(err, "insert subtree")
		}
		return builder.Write()
	}

	if entry.IsTree {
		return storeapi.ZeroOID, fmt.Errorf("path component %q is a tree, expected a file", name)
	}

	blob, err := store.ReadBlob(entry.ID)
	if err != nil {
		return storeapi.ZeroOID, errors.Wrapf(err, "read blob %s", entry.ID)
	}

	newBlob, err := patchBlob(store, blob, hunk)
	if err != nil {
		return storeapi.ZeroOID, errors.Wrap(err, "patch blob")
	}

	if err := builder.Insert(name, newBlob, entry.Mode); err != nil {
		return storeapi.ZeroOID, errors.Wrap(err, "insert patched blob")
	}
	return builder.Write()
}

func patchBlob(store Store, content []byte, hunk owned.Hunk) (storeapi.OID, error) {
	w, err := store.NewBlobWriter()
	if err != nil {
		return storeapi.ZeroOID, err
	}

	prefixEnd := SkipPastNth(content, hunk.Removed.Start-1)
	if _, err := w.Write(content[:prefixEnd]); err != nil {
		return storeapi.ZeroOID, err
	}

	for _, line := range hunk.Added.Lines {
		if _, err := w.Write(line); err != nil {
			return storeapi.ZeroOID, err
		}
	}

	rest := content[prefixEnd:]
	skip := SkipPastNth(rest, len(hunk.Removed.Lines))
	if _, err := w.Write(rest[skip:]); err != nil {
		return storeapi.ZeroOID, err
	}

	return w.Commit()
}

// SkipPastNth returns the byte offset immediately after the n-th newline
// in buf, or len(buf) if buf contains fewer than n newlines. n == 0
// returns 0. This is the single primitive that encodes "line 1 is the
// first line" throughout the tree patcher.
func SkipPastNth(buf []byte, n int) int {
	if n <= 0 {
		return 0
	}
	count := 0
	for i, b := range buf {
		if b == '\n' {
			count++
			if count == n {
				return i + 1
			}
		}
	}
	return len(buf)
}
