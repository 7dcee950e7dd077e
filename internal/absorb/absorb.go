// Package absorb implements the absorption driver: for each hunk staged
// in the index, it walks the commit stack newest-first, commuting the
// hunk past each ancestor's patch until it can't go further, and emits a
// fixup commit targeting the commit it stopped at.
package absorb

import (
	"bytes"
	"fmt"

	"absorb/internal/absorberr"
	"absorb/internal/alog"
	"absorb/internal/commute"
	"absorb/internal/config"
	"absorb/internal/owned"
	"absorb/internal/rawdiff"
	"absorb/internal/stack"
	"absorb/internal/storeapi"
	"absorb/internal/treepatch"
)

// ObjectStore is every object-store capability the driver needs. It
// composes the narrower interfaces internal/stack and internal/treepatch
// already depend on, so a single concrete adapter (internal/gitstore, or
// internal/absorb/absorbtest's fake) satisfies the whole core.
type ObjectStore interface {
	stack.CommitReader
	treepatch.Store

	ResolveRevision(rev string) (storeapi.OID, error)
	Head() (storeapi.CommitInfo, storeapi.OID, error)
	DiffTreeToTree(oldTree, newTree storeapi.OID) ([]byte, error)
	DiffTreeToIndex(tree storeapi.OID) ([]byte, error)
	Signature() (storeapi.Signature, error)
	CreateCommit(author, committer storeapi.Signature, message string, tree storeapi.OID, parents []storeapi.OID) (storeapi.OID, error)
	UpdateHead(commit storeapi.OID) error
}

// FixupRecord describes one emitted (or, in dry-run mode, would-be)
// fixup commit.
type FixupRecord struct {
	Path        []byte
	DestID      storeapi.OID
	DestSummary string
	NewCommit   storeapi.OID // zero in dry-run mode
}

// Result summarizes a Run.
type Result struct {
	Fixups         []FixupRecord
	NoDestinations int
	SkippedHunks   int
}

// stackDiff pairs a stack commit with its own patch against its parent,
// computed once and reused across every hunk of every patch. Assembled
// here rather than inside internal/stack so that package stays decoupled
// from diffing.
type stackDiff struct {
	Commit storeapi.CommitInfo
	Diff   owned.Diff
}

// Run is the absorption driver's entry point.
func Run(store ObjectStore, cfg *config.Config, log alog.Logger) (*Result, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = alog.Nop{}
	}

	headCommit, headTree, err := store.Head()
	if err != nil {
		return nil, absorberr.WrapObjectStore("Head", err)
	}
	log.Debug("repository found", "head", string(headCommit.ID))

	rawIndexDiff, err := store.DiffTreeToIndex(headTree)
	if err != nil {
		return nil, absorberr.WrapObjectStore("DiffTreeToIndex", err)
	}
	indexDiff, err := rawdiff.Parse(rawIndexDiff)
	if err != nil {
		return nil, absorberr.WrapDiffParse(err)
	}
	log.Debug("parsed index", "patches", len(indexDiff.Patches))

	if len(indexDiff.Patches) == 0 {
		log.Info("index diff is empty, nothing to absorb")
		return &Result{}, nil
	}

	sig, err := store.Signature()
	if err != nil {
		return nil, absorberr.WrapObjectStore("Signature", err)
	}

	var base storeapi.OID
	if cfg.Base != "" {
		base, err = store.ResolveRevision(cfg.Base)
		if err != nil {
			return nil, absorberr.WrapObjectStore("ResolveRevision", err)
		}
	}

	entries, err := stack.Discover(store, headCommit.ID, stack.Options{
		Base:        base,
		Force:       cfg.Force,
		CurrentUser: sig,
	}, log)
	if err != nil {
		return nil, absorberr.WrapObjectStore("stack discovery", err)
	}

	stackDiffs, err := buildStackDiffs(store, entries)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	curHeadTree := headTree
	curHeadCommit := headCommit.ID

	for _, patch := range indexDiff.Patches {
		if patch.Status != owned.StatusModified {
			skip := &absorberr.StatusSkipped{Path: patch.NewPath, Status: patch.Status}
			log.Warn(skip.Error(), "path", string(patch.NewPath), "status", patch.Status.String())
			result.SkippedHunks += len(patch.Hunks)
			continue
		}

		log.Debug("parsed commit diff", "path", string(patch.NewPath), "hunks", len(patch.Hunks))

		for _, h := range patch.Hunks {
			dest, err := absorbHunk(h, patch.OldPath, stackDiffs, log)
			if err != nil {
				return result, err
			}

			if dest == nil {
				log.Info((&absorberr.NoDestination{Path: patch.NewPath}).Error(), "path", string(patch.NewPath))
				result.NoDestinations++
				continue
			}

			if cfg.DryRun {
				log.Info("would have committed", "dest", string(dest.Commit.ID), "path", string(patch.NewPath))
				result.Fixups = append(result.Fixups, FixupRecord{
					Path: patch.OldPath, DestID: dest.Commit.ID, DestSummary: dest.Commit.Summary,
				})
				continue
			}

			newTree, err := treepatch.Apply(store, curHeadTree, h, patch.OldPath)
			if err != nil {
				return result, absorberr.WrapObjectStore("Apply", err)
			}

			message := fixupMessage(dest.Commit)
			newCommit, err := store.CreateCommit(sig, sig, message, newTree, []storeapi.OID{curHeadCommit})
			if err != nil {
				return result, absorberr.WrapObjectStore("CreateCommit", err)
			}
			if err := store.UpdateHead(newCommit); err != nil {
				return result, absorberr.WrapObjectStore("UpdateHead", err)
			}

			curHeadTree = newTree
			curHeadCommit = newCommit

			log.Info("committed", "dest", string(dest.Commit.ID), "commit", string(newCommit), "path", string(patch.NewPath))
			result.Fixups = append(result.Fixups, FixupRecord{
				Path: patch.OldPath, DestID: dest.Commit.ID, DestSummary: dest.Commit.Summary, NewCommit: newCommit,
			})
		}
	}

	return result, nil
}

// absorbHunk walks the stack newest-first, commuting h past each ancestor
// it touches, until it finds the commit it cannot commute past (the
// destination) or exhausts the stack (nil, nil).
func absorbHunk(h owned.Hunk, path []byte, stackDiffs []stackDiff, log alog.Logger) (*stackDiff, error) {
	commuted := h
	curPath := path

	for i := range stackDiffs {
		entry := &stackDiffs[i]

		np, ok := entry.Diff.ByNew(curPath)
		if !ok {
			continue
		}

		if np.Status == owned.StatusAdded {
			log.Trace("found noncommutative commit by add", "commit", string(entry.Commit.ID), "path", string(curPath))
			return entry, nil
		}

		if !bytes.Equal(np.OldPath, curPath) {
			curPath = np.OldPath
		}

		next, ok := commute.CommuteDiffBefore(commuted, np.Hunks)
		if !ok {
			log.Trace("found noncommutative commit by conflict", "commit", string(entry.Commit.ID), "path", string(curPath))
			return entry, nil
		}

		log.Trace("commuted hunk with commit", "commit", string(entry.Commit.ID),
			"offset", next.Added.Start-commuted.Added.Start)
		commuted = next
	}

	log.Trace("could not find noncommutative commit", "path", string(path))
	return nil, nil
}

func buildStackDiffs(store ObjectStore, entries []stack.Entry) ([]stackDiff, error) {
	out := make([]stackDiff, 0, len(entries))
	for _, e := range entries {
		var parentTree storeapi.OID
		if len(e.Commit.ParentIDs) > 0 {
			parent, err := store.ReadCommit(e.Commit.ParentIDs[0])
			if err != nil {
				return nil, absorberr.WrapObjectStore("ReadCommit", err)
			}
			parentTree = parent.TreeID
		}

		raw, err := store.DiffTreeToTree(parentTree, e.Commit.TreeID)
		if err != nil {
			return nil, absorberr.WrapObjectStore("DiffTreeToTree", err)
		}
		d, err := rawdiff.Parse(raw)
		if err != nil {
			return nil, absorberr.WrapDiffParse(err)
		}

		out = append(out, stackDiff{Commit: e.Commit, Diff: d})
	}
	return out, nil
}

func fixupMessage(c storeapi.CommitInfo) string {
	summary := c.Summary
	if summary == "" {
		summary = "<no message>"
	}
	return fmt.Sprintf("fixup! %s %s", c.ID, summary)
}
