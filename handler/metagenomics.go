package handler

import (
	"sync"

	"github.com/grailbio/beetl/alphabet"
	"github.com/grailbio/beetl/compare"
)

// TaxonomyTable resolves a matched word to the taxon it identifies, the
// lookup Metagenomics consults once a branch clears the set-size ratio
// threshold. Injected at construction per spec §4.9.
type TaxonomyTable interface {
	Classify(word []byte) (taxon string, ok bool)
}

// Metagenomics propagates branches whose share of the current node's total
// count clears setSizeRatio, and classifies each one against taxonomy --
// spec §4.9's Metagenomics variant.
type Metagenomics struct {
	taxonomy     TaxonomyTable
	setSizeRatio float64

	mu          sync.Mutex
	discoveries []Discovery
}

// NewMetagenomics returns a Metagenomics handler backed by taxonomy,
// propagating only branches whose count is at least setSizeRatio of the
// node's total count.
func NewMetagenomics(taxonomy TaxonomyTable, setSizeRatio float64) *Metagenomics {
	return &Metagenomics{taxonomy: taxonomy, setSizeRatio: setSizeRatio}
}

func (h *Metagenomics) dominant(word []byte, counts compare.ChildCounts) (out [alphabet.MaxSize]bool) {
	total := totalOf(counts)
	if total == 0 {
		return out
	}
	for l, c := range counts {
		if c == 0 {
			continue
		}
		if float64(c)/float64(total) >= h.setSizeRatio {
			out[l] = true
			if taxon, ok := h.taxonomy.Classify(word); ok {
				h.record(word, taxon, c, 0)
			}
		}
	}
	return out
}

func (h *Metagenomics) Handle(meta compare.Range, a, b compare.ChildCounts) (propagateA, propagateB [alphabet.MaxSize]bool) {
	propagateA = h.dominant(meta.Word, a)
	for l, c := range b {
		if c > 0 {
			propagateB[l] = true
		}
	}
	return propagateA, propagateB
}

func (h *Metagenomics) HandleAOnly(meta compare.Range, a compare.ChildCounts) (propagateA [alphabet.MaxSize]bool) {
	return h.dominant(meta.Word, a)
}

func (h *Metagenomics) record(word []byte, taxon string, countA, countB uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.discoveries = append(h.discoveries, Discovery{Word: cloneWord(word), Kind: taxon, CountA: countA, CountB: countB})
}

// Discoveries returns every taxonomic hit surfaced so far.
func (h *Metagenomics) Discoveries() []Discovery {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Discovery(nil), h.discoveries...)
}
