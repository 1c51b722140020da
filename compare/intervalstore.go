package compare

import "sort"

// bucketKey names one (pileN, firstPileOfWord) bucket per spec §4.8.
type bucketKey struct {
	pileN, firstPile int
}

// IntervalStore holds, per (pileN, firstPileOfWord) bucket, a FIFO of
// Range. BackTracker keeps one IntervalStore per side (A and B); ranges
// queued for the same bucket on both sides are drained together, oldest
// first, since the emission order of the previous cycle (source pile
// ascending, then alphabet order) already leaves them position-sorted.
type IntervalStore struct {
	buckets map[bucketKey][]Range
}

// NewIntervalStore returns an empty store.
func NewIntervalStore() *IntervalStore {
	return &IntervalStore{buckets: map[bucketKey][]Range{}}
}

// Push enqueues r into the (pileN, firstPile) bucket.
func (s *IntervalStore) Push(pileN, firstPile int, r Range) {
	k := bucketKey{pileN, firstPile}
	s.buckets[k] = append(s.buckets[k], r)
}

// Pop dequeues the oldest range in the (pileN, firstPile) bucket, if any.
func (s *IntervalStore) Pop(pileN, firstPile int) (Range, bool) {
	k := bucketKey{pileN, firstPile}
	q := s.buckets[k]
	if len(q) == 0 {
		return Range{}, false
	}
	r := q[0]
	s.buckets[k] = q[1:]
	return r, true
}

// PileNs returns, in ascending order, every pileN with at least one
// non-empty bucket -- the outer loop BackTracker.Step walks.
func (s *IntervalStore) PileNs() []int {
	seen := map[int]bool{}
	var out []int
	for k, q := range s.buckets {
		if len(q) > 0 && !seen[k.pileN] {
			seen[k.pileN] = true
			out = append(out, k.pileN)
		}
	}
	sort.Ints(out)
	return out
}

// FirstPiles returns, in ascending order, every firstPile with a non-empty
// bucket under pileN.
func (s *IntervalStore) FirstPiles(pileN int) []int {
	var out []int
	for k, q := range s.buckets {
		if k.pileN == pileN && len(q) > 0 {
			out = append(out, k.firstPile)
		}
	}
	sort.Ints(out)
	return out
}

// Empty reports whether every bucket is drained.
func (s *IntervalStore) Empty() bool {
	for _, q := range s.buckets {
		if len(q) > 0 {
			return false
		}
	}
	return true
}
