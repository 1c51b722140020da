package compare

import (
	"sort"

	"github.com/grailbio/beetl/alphabet"
	"github.com/grailbio/beetl/count"
	"github.com/grailbio/beetl/invert"
	"github.com/grailbio/beetl/pile"
)

// side bundles one compared BWT's pile set, its letter-count table, and a
// lazily-built, permanently-cached rank index per pile -- the finished
// segments never change once construction completes, so the index is built
// at most once per pile for the whole comparison.
type side struct {
	set   *pile.Set
	table *count.Table
	ranks []*invert.RankIndex
}

func newSide(set *pile.Set, table *count.Table) *side {
	return &side{set: set, table: table, ranks: make([]*invert.RankIndex, set.Alphabet().Size())}
}

func (s *side) rankIndex(p int) (*invert.RankIndex, error) {
	if s.ranks[p] != nil {
		return s.ranks[p], nil
	}
	r, err := s.set.OpenFinalReader(p)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	idx, err := invert.NewRankIndex(s.set.Alphabet(), r, invert.DefaultBlockSize)
	if err != nil {
		return nil, err
	}
	s.ranks[p] = idx
	return idx, nil
}

// childCounts tallies, per alphabet letter, how many of [pos, pos+num)
// within pile p carry that letter -- the "walk both sides' BWTs... counting
// num symbols inside the range per alphabet letter" step of spec §4.8,
// implemented via rank differences rather than a literal sequential walk.
func (s *side) childCounts(p int, pos, num uint64) (ChildCounts, error) {
	idx, err := s.rankIndex(p)
	if err != nil {
		return ChildCounts{}, err
	}
	var out ChildCounts
	for sym := range out {
		out[sym] = idx.Rank(sym, int(pos+num)) - idx.Rank(sym, int(pos))
	}
	return out, nil
}

// BackTracker co-traverses two completed BWTs, growing a shared matched
// word by one character per Step and consulting a Handler to decide which
// branches propagate, per spec §4.8.
type BackTracker struct {
	tbl     alphabet.Table
	a, b    *side
	handler Handler
	storeA  *IntervalStore
	storeB  *IntervalStore
}

// NewBackTracker builds a co-traversal over two finished constructions and
// seeds it with every single-letter word both sides have at least one
// occurrence of.
func NewBackTracker(tbl alphabet.Table, setA *pile.Set, tableA *count.Table, setB *pile.Set, tableB *count.Table, h Handler) *BackTracker {
	bt := &BackTracker{
		tbl:     tbl,
		a:       newSide(setA, tableA),
		b:       newSide(setB, tableB),
		handler: h,
		storeA:  NewIntervalStore(),
		storeB:  NewIntervalStore(),
	}
	bt.seed()
	return bt
}

func (bt *BackTracker) seed() {
	for p := 1; p < bt.tbl.Size(); p++ {
		numA := bt.a.table.PileLength(p)
		numB := bt.b.table.PileLength(p)
		if numA == 0 && numB == 0 {
			continue
		}
		letter := bt.tbl.SymbolAt(p)
		if numA > 0 {
			bt.storeA.Push(p, p, Range{Word: []byte{letter}, Pos: 0, Num: numA})
		}
		if numB > 0 {
			bt.storeB.Push(p, p, Range{Word: []byte{letter}, Pos: 0, Num: numB})
		}
	}
}

// Done reports whether both sides' IntervalStores are fully drained.
func (bt *BackTracker) Done() bool {
	return bt.storeA.Empty() && bt.storeB.Empty()
}

// Step runs one co-traversal cycle: every live range is extended by one
// more matched character (on whichever side still has it), the Handler
// decides which letters survive, and surviving children are queued for the
// next Step.
func (bt *BackTracker) Step() error {
	pileNs := unionSorted(bt.storeA.PileNs(), bt.storeB.PileNs())
	nextA := NewIntervalStore()
	nextB := NewIntervalStore()

	for _, p := range pileNs {
		firstPiles := unionSorted(bt.storeA.FirstPiles(p), bt.storeB.FirstPiles(p))
		for _, fp := range firstPiles {
			for {
				rangeA, okA := bt.storeA.Pop(p, fp)
				rangeB, okB := bt.storeB.Pop(p, fp)
				if !okA && !okB {
					break
				}

				var childA, childB ChildCounts
				var err error
				if okA {
					if childA, err = bt.a.childCounts(p, rangeA.Pos, rangeA.Num); err != nil {
						return err
					}
				}
				if okB {
					if childB, err = bt.b.childCounts(p, rangeB.Pos, rangeB.Num); err != nil {
						return err
					}
				}

				meta := rangeA
				if !okA {
					meta = rangeB
				}

				var propA, propB [alphabet.MaxSize]bool
				switch {
				case okA && okB:
					propA, propB = bt.handler.Handle(meta, childA, childB)
				case okA:
					propA = bt.handler.HandleAOnly(meta, childA)
				default:
					// Spec names only the A-only entry point; a B-only range
					// is handled symmetrically so a B-private branch is not
					// silently dropped.
					propB = bt.handler.HandleAOnly(meta, childB)
				}

				for l := 0; l < bt.tbl.Size(); l++ {
					if okA && propA[l] && childA[l] > 0 {
						pos := bt.a.table.ColumnPrefix(p, l) + bt.a.ranks[p].Rank(l, int(rangeA.Pos))
						nextA.Push(l, p, Range{Word: prepend(meta.Word, bt.tbl.SymbolAt(l)), Pos: pos, Num: childA[l]})
					}
					if okB && propB[l] && childB[l] > 0 {
						pos := bt.b.table.ColumnPrefix(p, l) + bt.b.ranks[p].Rank(l, int(rangeB.Pos))
						nextB.Push(l, p, Range{Word: prepend(meta.Word, bt.tbl.SymbolAt(l)), Pos: pos, Num: childB[l]})
					}
				}
			}
		}
	}

	bt.storeA, bt.storeB = nextA, nextB
	return nil
}

// Run drives the co-traversal for up to cycles further Steps, stopping
// early once both sides drain.
func (bt *BackTracker) Run(cycles int) error {
	for i := 0; i < cycles && !bt.Done(); i++ {
		if err := bt.Step(); err != nil {
			return err
		}
	}
	return nil
}

func prepend(word []byte, c byte) []byte {
	out := make([]byte, len(word)+1)
	out[0] = c
	copy(out[1:], word)
	return out
}

func unionSorted(a, b []int) []int {
	seen := make(map[int]bool, len(a)+len(b))
	out := make([]int, 0, len(a)+len(b))
	for _, v := range a {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range b {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}
