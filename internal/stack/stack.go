// Package stack discovers the ordered list of candidate ancestor commits
// between HEAD and an optional base revision, newest first.
//
// The stack includes HEAD itself as its newest entry. Read literally,
// the distilled description of this walk ("from HEAD's parent down to the
// base") would exclude HEAD, but the hunk that seeds the driver's walk is
// already expressed in HEAD's own tree coordinates — it has to be tested
// against HEAD's patch before anything else, or the first real commute
// attempt compares coordinates from two different trees. HEAD is
// therefore stack[0].
package stack

import (
	"absorb/internal/alog"
	"absorb/internal/storeapi"
)

// CommitReader is the narrow read capability stack discovery needs from
// an object store.
type CommitReader interface {
	ReadCommit(id storeapi.OID) (storeapi.CommitInfo, error)
}

// DefaultMaxDepth bounds the walk when no base is configured and every
// candidate's author matches the current signature, an empirically safe
// depth for a heuristic stop.
const DefaultMaxDepth = 10

// Options configures a single Discover call.
type Options struct {
	// Base, when non-zero, bounds the walk: the candidate whose id equals
	// Base is excluded and the walk stops there.
	Base storeapi.OID
	// Force allows the walk to proceed past an author mismatch; the
	// MaxDepth cap still applies. It has no effect when Base is set.
	Force bool
	// CurrentUser is the signature new fixups would be authored as; used
	// to detect the first commit authored by someone else when no Base
	// is configured.
	CurrentUser storeapi.Signature
	// MaxDepth caps how many commits the walk visits when no Base is
	// configured. Zero means DefaultMaxDepth.
	MaxDepth int
}

// Entry is one stack element: the commit itself (its ParentIDs are empty
// at a root commit).
type Entry struct {
	Commit storeapi.CommitInfo
}

// Discover walks from head toward opts.Base (or until a heuristic stops
// it), returning the stack newest-first. An empty result means HEAD
// itself was excluded (e.g. opts.Base == head) — no ancestor can absorb
// anything.
func Discover(store CommitReader, head storeapi.OID, opts Options, log alog.Logger) ([]Entry, error) {
	if log == nil {
		log = alog.Nop{}
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	var entries []Entry
	candidate := head

	for depth := 0; candidate != storeapi.ZeroOID; depth++ {
		if opts.Base != storeapi.ZeroOID && candidate == opts.Base {
			log.Debug("stack discovery reached base", "commit", string(candidate))
			break
		}

		commit, err := store.ReadCommit(candidate)
		if err != nil {
			return nil, err
		}

		if len(commit.ParentIDs) > 1 {
			log.Debug("stack discovery stopped at merge commit", "commit", string(candidate))
			break
		}

		if opts.Base == storeapi.ZeroOID {
			if depth > 0 && !opts.Force && !sameAuthor(commit.Author, opts.CurrentUser) {
				log.Debug("stack discovery stopped at author mismatch", "commit", string(candidate), "author", commit.Author.Email)
				break
			}
			if depth >= maxDepth {
				log.Debug("stack discovery stopped at max depth", "depth", depth)
				break
			}
		}

		entries = append(entries, Entry{Commit: commit})
		log.Trace("stack discovery included commit", "commit", string(candidate), "depth", depth)

		if len(commit.ParentIDs) == 0 {
			break
		}
		candidate = commit.ParentIDs[0]
	}

	return entries, nil
}

func sameAuthor(a, b storeapi.Signature) bool {
	return a.Email == b.Email
}
