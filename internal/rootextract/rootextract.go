// Package rootextract implements the OID-tree root extraction algorithm
// of spec §4.5: given an ordered OID set, compute a minimal list of OIDs
// such that every input OID has exactly one prefix in the result and no
// result element is a prefix of another. This is the algorithm the Agent
// Assembler uses to decide how many Managed Object groups to register for
// one context's bindings, generalizing the sorted-OID binary-search
// traversal the teacher's store.OIDIndexManager builds at startup.
package rootextract

import (
	"sort"

	"github.com/snmpfleet/snmpsim/internal/oid"
)

// Extract computes the maximal non-overlapping subtree roots of sorted,
// the input OID set in ascending order (as produced by a sorted walk).
// Extract is a pure function: it does not mutate sorted.
func Extract(sorted []oid.OID) []oid.OID {
	if len(sorted) == 0 {
		return nil
	}

	candidates := candidatesFrom(sorted)
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Less(candidates[j]) })
	candidates = dedupSorted(candidates)

	var result []oid.OID
	for _, c := range candidates {
		if isRoot(c, candidates) {
			result = appendDedup(result, c)
		}
	}

	// Degenerate inputs (a singleton set, or adjacent OIDs sharing no
	// common prefix at all) can leave an input OID uncovered by any
	// candidate; the universal invariant of §8 requires every input OID
	// to have exactly one prefix in the result, so such an OID becomes
	// its own root.
	for _, o := range sorted {
		if !coveredBy(result, o) {
			result = appendDedup(result, o)
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Less(result[j]) })
	return result
}

func coveredBy(result []oid.OID, o oid.OID) bool {
	for _, r := range result {
		if o.HasPrefix(r) {
			return true
		}
	}
	return false
}

// candidatesFrom emits, for each consecutive pair of OIDs in sorted, the
// longest common prefix of that pair as a root candidate, per §4.5 step 1.
func candidatesFrom(sorted []oid.OID) []oid.OID {
	var candidates []oid.OID
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		n := commonPrefixLen(prev, cur)
		if n > 0 {
			candidates = append(candidates, prev.Prefix(n))
		}
	}
	return candidates
}

func commonPrefixLen(a, b oid.OID) int {
	limit := a.Len()
	if b.Len() < limit {
		limit = b.Len()
	}
	aSub, bSub := a.SubIdentifiers(), b.SubIdentifiers()
	n := 0
	for n < limit && aSub[n] == bSub[n] {
		n++
	}
	return n
}

// isRoot walks c up toward the empty OID one subidentifier at a time. If a
// strictly shorter candidate is found present along the way (via binary
// search over the sorted candidate list), c is covered by that shorter
// candidate and is not itself a root. If the walk empties out without ever
// finding one, c is maximal and is a root, per §4.5 step 3.
func isRoot(c oid.OID, sortedCandidates []oid.OID) bool {
	for n := c.Len() - 1; n > 0; n-- {
		if containsOID(sortedCandidates, c.Prefix(n)) {
			return false
		}
	}
	return true
}

func containsOID(sorted []oid.OID, target oid.OID) bool {
	i := sort.Search(len(sorted), func(i int) bool { return !sorted[i].Less(target) })
	return i < len(sorted) && sorted[i].Equal(target)
}

func dedupSorted(sorted []oid.OID) []oid.OID {
	out := sorted[:0:0]
	for i, o := range sorted {
		if i == 0 || !o.Equal(sorted[i-1]) {
			out = append(out, o)
		}
	}
	return out
}

func appendDedup(result []oid.OID, c oid.OID) []oid.OID {
	for _, r := range result {
		if r.Equal(c) {
			return result
		}
	}
	return append(result, c)
}
