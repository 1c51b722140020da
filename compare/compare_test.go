package compare

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/beetl/alphabet"
	"github.com/grailbio/beetl/beetlcfg"
	"github.com/grailbio/beetl/codec"
	"github.com/grailbio/beetl/cyclesource"
	"github.com/grailbio/beetl/engine"
	"github.com/grailbio/beetl/pile"
)

func buildSet(t *testing.T, prefix string, bases []string) (*pile.Set, *engine.Engine) {
	t.Helper()
	tbl := alphabet.Standard()
	reads := make([]cyclesource.Read, len(bases))
	for i, b := range bases {
		reads[i] = cyclesource.Read{Bases: []byte(b), SourceID: i}
	}
	src, err := cyclesource.FromReads(reads)
	require.NoError(t, err)

	cfg, err := beetlcfg.Load(beetlcfg.Config{Alphabet: tbl, TempDir: t.TempDir()})
	require.NoError(t, err)

	paths := pile.Paths{Dir: t.TempDir(), Prefix: prefix}
	set := pile.NewSet(tbl, codec.ASCIIKind, paths)
	e := engine.New(cfg, set, src)
	require.NoError(t, e.Run(context.Background()))
	return set, e
}

// keepAll is a Handler that always propagates every letter on both sides --
// the identity policy, useful for asserting that BackTracker's own counting
// is correct independent of any real selection logic.
type keepAll struct {
	steps int
}

func allTrue() (out [alphabet.MaxSize]bool) {
	for i := range out {
		out[i] = true
	}
	return out
}

func (h *keepAll) Handle(meta Range, childCountsA, childCountsB ChildCounts) (propagateA, propagateB [alphabet.MaxSize]bool) {
	h.steps++
	return allTrue(), allTrue()
}

func (h *keepAll) HandleAOnly(meta Range, childCountsA ChildCounts) (propagateA [alphabet.MaxSize]bool) {
	h.steps++
	return allTrue()
}

func TestBackTrackerSeedsNonEmptyOnBothSides(t *testing.T) {
	tbl := alphabet.Standard()
	setA, eA := buildSet(t, "a", []string{"AAAA", "AAAC", "ACGT"})
	setB, eB := buildSet(t, "b", []string{"AAAA", "GGGG"})

	h := &keepAll{}
	bt := NewBackTracker(tbl, setA, eA.Table(), setB, eB.Table(), h)

	require.False(t, bt.Done())
	require.NotEmpty(t, bt.storeA.PileNs())
	require.NotEmpty(t, bt.storeB.PileNs())

	aIdx, err := tbl.MustIndexOf('A')
	require.NoError(t, err)
	require.Contains(t, bt.storeA.PileNs(), aIdx)
	require.Contains(t, bt.storeB.PileNs(), aIdx)
}

func sumTotal(s *IntervalStore) uint64 {
	var total uint64
	for _, p := range s.PileNs() {
		for _, fp := range s.FirstPiles(p) {
			for _, r := range s.buckets[bucketKey{p, fp}] {
				total += r.Num
			}
		}
	}
	return total
}

// TestBackTrackerKeepAllConservesTotalOccurrences checks that, when nothing
// is ever dropped, a Step redistributes ranges across buckets without
// losing or inventing occurrences: the rank-difference child counts of a
// range always sum back to that range's own Num.
func TestBackTrackerKeepAllConservesTotalOccurrences(t *testing.T) {
	tbl := alphabet.Standard()
	bases := []string{"AAAA", "AAAC", "ACGT", "TTTT"}
	setA, eA := buildSet(t, "a", bases)
	setB, eB := buildSet(t, "b", bases)

	h := &keepAll{}
	bt := NewBackTracker(tbl, setA, eA.Table(), setB, eB.Table(), h)

	wantA, wantB := sumTotal(bt.storeA), sumTotal(bt.storeB)
	require.NotZero(t, wantA)
	require.NotZero(t, wantB)

	for i := 0; i < len(bases[0])-1 && !bt.Done(); i++ {
		require.NoError(t, bt.Step())
		require.Equal(t, wantA, sumTotal(bt.storeA))
		require.Equal(t, wantB, sumTotal(bt.storeB))
	}
}

func TestBackTrackerRunStopsWhenHandlerDropsEverything(t *testing.T) {
	tbl := alphabet.Standard()
	setA, eA := buildSet(t, "a", []string{"AAAA", "ACGT"})
	setB, eB := buildSet(t, "b", []string{"AAAA", "GATC"})

	drop := &dropAll{}
	bt := NewBackTracker(tbl, setA, eA.Table(), setB, eB.Table(), drop)
	require.NoError(t, bt.Run(3))
	require.True(t, bt.Done())
}

// dropAll never propagates anything, so the traversal should terminate
// after a single Step.
type dropAll struct{}

func (dropAll) Handle(meta Range, childCountsA, childCountsB ChildCounts) (propagateA, propagateB [alphabet.MaxSize]bool) {
	return
}

func (dropAll) HandleAOnly(meta Range, childCountsA ChildCounts) (propagateA [alphabet.MaxSize]bool) {
	return
}
