package handler

import (
	"sync"

	"github.com/grailbio/beetl/alphabet"
	"github.com/grailbio/beetl/compare"
)

// TumourNormal propagates well-supported tumour (A) branches and surfaces a
// somatic call whenever a tumour branch's normal (B) support falls below
// minSomaticRatio of its tumour support -- spec §4.9's tumour-normal
// variant.
type TumourNormal struct {
	minOcc          uint64
	minSomaticRatio float64

	mu          sync.Mutex
	discoveries []Discovery
}

// NewTumourNormal returns a TumourNormal handler requiring minOcc tumour
// occurrences before a branch is considered, and flagging it somatic when
// normal support is below minSomaticRatio of tumour support.
func NewTumourNormal(minOcc int, minSomaticRatio float64) *TumourNormal {
	return &TumourNormal{minOcc: uint64(minOcc), minSomaticRatio: minSomaticRatio}
}

func (h *TumourNormal) somatic(a, b uint64) bool {
	if a < h.minOcc {
		return false
	}
	return float64(b) < h.minSomaticRatio*float64(a)
}

func (h *TumourNormal) Handle(meta compare.Range, a, b compare.ChildCounts) (propagateA, propagateB [alphabet.MaxSize]bool) {
	for l := range a {
		if a[l] < h.minOcc {
			continue
		}
		propagateA[l] = true
		if h.somatic(a[l], b[l]) {
			h.record(meta.Word, a[l], b[l])
		}
	}
	for l, c := range b {
		if c > 0 {
			propagateB[l] = true
		}
	}
	return propagateA, propagateB
}

func (h *TumourNormal) HandleAOnly(meta compare.Range, a compare.ChildCounts) (propagateA [alphabet.MaxSize]bool) {
	for l := range a {
		if a[l] < h.minOcc {
			continue
		}
		propagateA[l] = true
		if h.somatic(a[l], 0) {
			h.record(meta.Word, a[l], 0)
		}
	}
	return propagateA
}

func (h *TumourNormal) record(word []byte, countA, countB uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.discoveries = append(h.discoveries, Discovery{Word: cloneWord(word), Kind: "somatic", CountA: countA, CountB: countB})
}

// Discoveries returns every somatic call surfaced so far.
func (h *TumourNormal) Discoveries() []Discovery {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Discovery(nil), h.discoveries...)
}
