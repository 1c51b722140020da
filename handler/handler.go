// Package handler implements the IntervalHandler variants spec §4.9 names:
// pure policies that look only at a compare.Range's metadata and its two
// child-count vectors and decide which branches survive into the next
// compare.BackTracker cycle. Mirrors the teacher's markduplicates package in
// spirit -- a policy object deciding what survives based on counts -- with
// no shared code, since the domains don't overlap.
package handler

import "github.com/grailbio/beetl/compare"

// Discovery is one reportable finding a handler chose to surface: a
// breakpoint, a variant call, a taxonomic hit, or a somatic call,
// identified by the matched word the BackTracker had accumulated when the
// handler fired.
type Discovery struct {
	Word   []byte
	Kind   string
	CountA uint64
	CountB uint64
}

func cloneWord(w []byte) []byte {
	out := make([]byte, len(w))
	copy(out, w)
	return out
}

func totalOf(c compare.ChildCounts) uint64 {
	var sum uint64
	for _, v := range c {
		sum += v
	}
	return sum
}
