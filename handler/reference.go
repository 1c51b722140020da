package handler

import (
	"sync"

	"github.com/grailbio/beetl/alphabet"
	"github.com/grailbio/beetl/compare"
)

// Reference propagates along the reference (B) side when it is unambiguous,
// falls back to tracking every shared child when B multi-maps at this word,
// and surfaces well-supported A-only children as non-reference variants --
// spec §4.9's Reference variant.
type Reference struct {
	minOcc uint64

	mu          sync.Mutex
	discoveries []Discovery
}

// NewReference returns a Reference handler requiring at least minOcc
// occurrences before an A-only child is reported as a variant.
func NewReference(minOcc int) *Reference {
	return &Reference{minOcc: uint64(minOcc)}
}

func (h *Reference) Handle(meta compare.Range, a, b compare.ChildCounts) (propagateA, propagateB [alphabet.MaxSize]bool) {
	multiMapping := totalOf(b) > 1
	for l := range b {
		if b[l] == 0 {
			continue
		}
		propagateB[l] = true
		if multiMapping {
			if a[l] > 0 {
				propagateA[l] = true
			}
			continue
		}
		if a[l] > 0 {
			propagateA[l] = true
		}
	}
	if !multiMapping {
		for l := range a {
			if a[l] > 0 && b[l] == 0 && a[l] >= h.minOcc {
				propagateA[l] = true
				h.record(meta.Word, "variant", a[l], 0)
			}
		}
	}
	return propagateA, propagateB
}

func (h *Reference) HandleAOnly(meta compare.Range, a compare.ChildCounts) (propagateA [alphabet.MaxSize]bool) {
	for l := range a {
		if a[l] >= h.minOcc {
			propagateA[l] = true
			h.record(meta.Word, "variant", a[l], 0)
		}
	}
	return propagateA
}

func (h *Reference) record(word []byte, kind string, countA, countB uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.discoveries = append(h.discoveries, Discovery{Word: cloneWord(word), Kind: kind, CountA: countA, CountB: countB})
}

// Discoveries returns every non-reference variant surfaced so far.
func (h *Reference) Discoveries() []Discovery {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Discovery(nil), h.discoveries...)
}
