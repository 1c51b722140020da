// Package triple implements the InsertionTripleStore: one record per read,
// tracking the pile and in-pile rank at which the read's $-terminated
// suffix currently sits, plus the read's original sequence id. Triples are
// stored indexed by sequence id (so the cycle engine can update a read's
// triple in O(1) once its new position is known) with a separately
// maintained position-sorted order for pile-wise iteration.
package triple

import "sort"

// Triple is (pileN, posN, seqN): the pile and rank of a read's terminator
// within that pile, and the read's original sequence id.
type Triple struct {
	PileN uint32
	PosN  uint32
	SeqN  uint32
}

// Store holds exactly one Triple per read, indexed by sequence id.
type Store struct {
	bySeq []Triple // bySeq[seqN] is read seqN's current triple
	order []uint32 // permutation of seqN, maintained by Sort
}

// New allocates a store for n reads, with every triple zero-valued. Callers
// fill it in during cycle-0 bootstrap via Set.
func New(n int) *Store {
	return &Store{bySeq: make([]Triple, n)}
}

// Len returns the number of triples (== n, the read count).
func (s *Store) Len() int { return len(s.bySeq) }

// Set overwrites read seqN's triple.
func (s *Store) Set(seqN uint32, t Triple) { s.bySeq[seqN] = t }

// BySeq returns read seqN's current triple.
func (s *Store) BySeq(seqN uint32) Triple { return s.bySeq[seqN] }

// Sort orders the triples by (PileN, PosN), breaking ties by SeqN for a
// result independent of sort stability or iteration order, per invariant 6
// (idempotent re-sort) and the spec's determinism requirement. It does not
// move the underlying triples (which stay indexed by seqN); it recomputes
// the position-sorted traversal order.
func (s *Store) Sort() {
	if s.order == nil {
		s.order = make([]uint32, len(s.bySeq))
		for i := range s.order {
			s.order[i] = uint32(i)
		}
	}
	sort.Slice(s.order, func(i, j int) bool {
		a, b := s.bySeq[s.order[i]], s.bySeq[s.order[j]]
		if a.PileN != b.PileN {
			return a.PileN < b.PileN
		}
		if a.PosN != b.PosN {
			return a.PosN < b.PosN
		}
		return a.SeqN < b.SeqN
	})
}

// At returns the i-th triple in position order (valid only after Sort).
func (s *Store) At(i int) Triple { return s.bySeq[s.order[i]] }

// PileBounds returns, after Sort, the [start, end) index range (in position
// order) of triples belonging to pile p.
func (s *Store) PileBounds(p uint32) (start, end int) {
	n := len(s.order)
	start = sort.Search(n, func(i int) bool {
		return s.bySeq[s.order[i]].PileN >= p
	})
	end = sort.Search(n, func(i int) bool {
		return s.bySeq[s.order[i]].PileN > p
	})
	return start, end
}

// Clone returns a deep copy, used by tests checking invariant 6 (sorting
// twice is a no-op) without mutating the original.
func (s *Store) Clone() *Store {
	cp := &Store{bySeq: make([]Triple, len(s.bySeq))}
	copy(cp.bySeq, s.bySeq)
	if s.order != nil {
		cp.order = make([]uint32, len(s.order))
		copy(cp.order, s.order)
	}
	return cp
}

// OrderEqual reports whether two stores, both already Sort()-ed, visit
// triples in the same order.
func OrderEqual(a, b *Store) bool {
	if len(a.order) != len(b.order) {
		return false
	}
	for i := range a.order {
		if a.bySeq[a.order[i]] != b.bySeq[b.order[i]] {
			return false
		}
	}
	return true
}
