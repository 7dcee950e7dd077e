// Package commute implements the commutation kernel: deciding whether two
// hunks on the same file can swap application order, and producing the
// coordinate-translated hunk when they can.
package commute

import "absorb/internal/owned"

// Commute decides whether h (the hunk being moved back in time) commutes
// past e (an earlier hunk, from an older commit, on the same file). When it
// does, it returns h with its coordinates translated to apply to the
// pre-e file, and ok is true. When the hunks conflict, ok is false and the
// returned Hunk is the zero value.
func Commute(h, e owned.Hunk) (result owned.Hunk, ok bool) {
	_, eRemovedLen, eAddedStart, eAddedLen := e.Anchors()
	hRemovedStart, hRemovedLen, _, _ := h.Anchors()

	above := hRemovedStart+hRemovedLen <= eAddedStart
	below := hRemovedStart >= eAddedStart+eAddedLen
	pureInsertAbove := hRemovedLen == 0 && hRemovedStart <= eAddedStart
	pureInsertBelow := hRemovedLen == 0 && hRemovedStart >= eAddedStart+eAddedLen

	if !(above || below || pureInsertAbove || pureInsertBelow) {
		return owned.Hunk{}, false
	}

	result = h
	if above || pureInsertAbove {
		// h sits entirely above e's added region; pre-e coordinates equal
		// post-e coordinates above e's anchor, so nothing shifts.
		return result, true
	}

	// h sits entirely below e's added region; translate both sides back by
	// the net lines e added.
	delta := eAddedLen - eRemovedLen
	result.Removed.Start = h.Removed.Start - delta
	result.Added.Start = h.Added.Start - delta
	return result, true
}

// CommuteDiffBefore commutes h past every hunk of a single commit's patch
// on the same file. es must be sorted by Removed.Start ascending and
// non-overlapping (invariant H1); they are visited bottom-up, so each
// step's e still has valid added-side coordinates (un-applying a lower
// hunk never moves the lines above it). A conflict on any step aborts the
// whole operation.
func CommuteDiffBefore(h owned.Hunk, es []owned.Hunk) (owned.Hunk, bool) {
	cur := h
	for i := len(es) - 1; i >= 0; i-- {
		next, ok := Commute(cur, es[i])
		if !ok {
			return owned.Hunk{}, false
		}
		cur = next
	}
	return cur, true
}
