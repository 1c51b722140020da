package handler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/beetl/compare"
)

func counts(vals ...uint64) compare.ChildCounts {
	var out compare.ChildCounts
	copy(out[:], vals)
	return out
}

func TestSpliceHandleRequiresDivergenceForBreakpoint(t *testing.T) {
	h := NewSplice(2)

	// Shared child at index 1: no breakpoint, since the sides agree.
	propA, propB := h.Handle(compare.Range{Word: []byte("AC")}, counts(0, 3, 0), counts(0, 1, 0))
	require.True(t, propA[1])
	require.True(t, propB[1])
	require.Empty(t, h.Discoveries())

	// Fully private, well-supported children on both sides: breakpoint.
	propA, propB = h.Handle(compare.Range{Word: []byte("AG")}, counts(0, 0, 5, 0), counts(0, 0, 0, 4))
	require.True(t, propA[2])
	require.True(t, propB[3])
	discoveries := h.Discoveries()
	require.Len(t, discoveries, 1)
	require.Equal(t, "breakpoint", discoveries[0].Kind)
	require.Equal(t, []byte("AG"), discoveries[0].Word)
}

func TestSpliceHandleAOnlyRespectsMinOcc(t *testing.T) {
	h := NewSplice(3)
	propA := h.HandleAOnly(compare.Range{Word: []byte("A")}, counts(0, 2, 5))
	require.False(t, propA[1])
	require.True(t, propA[2])
}

func TestReferencePropagatesSharedChildWhenMultiMapping(t *testing.T) {
	h := NewReference(2)
	propA, propB := h.Handle(compare.Range{Word: []byte("T")}, counts(0, 4, 0, 0), counts(0, 2, 0, 3))
	require.True(t, propA[1])
	require.True(t, propB[1])
	require.True(t, propB[3])
	require.False(t, propA[3])
	require.Empty(t, h.Discoveries())
}

func TestReferenceReportsVariantWhenUnambiguous(t *testing.T) {
	h := NewReference(2)
	propA, _ := h.Handle(compare.Range{Word: []byte("C")}, counts(0, 5, 0), counts(0, 0, 0))
	require.True(t, propA[1])
	discoveries := h.Discoveries()
	require.Len(t, discoveries, 1)
	require.Equal(t, "variant", discoveries[0].Kind)
	require.Equal(t, uint64(5), discoveries[0].CountA)
}

type fakeTaxonomy struct{ taxon string }

func (f fakeTaxonomy) Classify(word []byte) (string, bool) {
	if f.taxon == "" {
		return "", false
	}
	return f.taxon, true
}

func TestMetagenomicsPropagatesDominantBranchOnly(t *testing.T) {
	h := NewMetagenomics(fakeTaxonomy{taxon: "e.coli"}, 0.5)
	propA, _ := h.Handle(compare.Range{Word: []byte("G")}, counts(0, 1, 9, 0), counts())
	require.False(t, propA[1])
	require.True(t, propA[2])
	discoveries := h.Discoveries()
	require.Len(t, discoveries, 1)
	require.Equal(t, "e.coli", discoveries[0].Kind)
}

func TestMetagenomicsSkipsClassificationWhenTaxonomyMisses(t *testing.T) {
	h := NewMetagenomics(fakeTaxonomy{}, 0.5)
	propA := h.HandleAOnly(compare.Range{Word: []byte("T")}, counts(0, 10))
	require.True(t, propA[1])
	require.Empty(t, h.Discoveries())
}

func TestTumourNormalFlagsSomaticWhenNormalSupportIsLow(t *testing.T) {
	h := NewTumourNormal(3, 0.2)
	propA, _ := h.Handle(compare.Range{Word: []byte("A")}, counts(0, 10), counts(0, 1))
	require.True(t, propA[1])
	discoveries := h.Discoveries()
	require.Len(t, discoveries, 1)
	require.Equal(t, "somatic", discoveries[0].Kind)
}

func TestTumourNormalDoesNotFlagWellSupportedNormal(t *testing.T) {
	h := NewTumourNormal(3, 0.2)
	propA, _ := h.Handle(compare.Range{Word: []byte("A")}, counts(0, 10), counts(0, 5))
	require.True(t, propA[1])
	require.Empty(t, h.Discoveries())
}
