package handler

import (
	"sync"

	"github.com/grailbio/beetl/alphabet"
	"github.com/grailbio/beetl/compare"
)

// Splice propagates branches well-supported on the spliced (A) side and
// any branch present at all on the reference (B) side, and surfaces a
// breakpoint when the two sides diverge completely on a well-supported
// child each -- spec §4.9's Splice variant.
type Splice struct {
	minOcc uint64

	mu          sync.Mutex
	discoveries []Discovery
}

// NewSplice returns a Splice handler requiring at least minOcc occurrences
// on the A side before a branch is considered well-supported.
func NewSplice(minOcc int) *Splice {
	return &Splice{minOcc: uint64(minOcc)}
}

func (h *Splice) Handle(meta compare.Range, a, b compare.ChildCounts) (propagateA, propagateB [alphabet.MaxSize]bool) {
	var sharedChild, aSignificant, bSignificant bool
	for l := range a {
		aHas, bHas := a[l] > 0, b[l] > 0
		if aHas && bHas {
			sharedChild = true
		}
		if aHas && a[l] >= h.minOcc {
			aSignificant = true
			propagateA[l] = true
		}
		if bHas {
			propagateB[l] = true
			if b[l] >= h.minOcc {
				bSignificant = true
			}
		}
	}
	if !sharedChild && aSignificant && bSignificant {
		h.record(meta.Word, "breakpoint", totalOf(a), totalOf(b))
	}
	return propagateA, propagateB
}

func (h *Splice) HandleAOnly(meta compare.Range, a compare.ChildCounts) (propagateA [alphabet.MaxSize]bool) {
	for l := range a {
		if a[l] >= h.minOcc {
			propagateA[l] = true
		}
	}
	return propagateA
}

func (h *Splice) record(word []byte, kind string, countA, countB uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.discoveries = append(h.discoveries, Discovery{Word: cloneWord(word), Kind: kind, CountA: countA, CountB: countB})
}

// Discoveries returns every breakpoint surfaced so far.
func (h *Splice) Discoveries() []Discovery {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Discovery(nil), h.discoveries...)
}
