// Package compare implements the TwoBwtBackTracker: a co-traversal of two
// completed BWTs that, cycle by cycle, grows a shared matched word one
// character at a time and asks a pluggable IntervalHandler which branches
// are worth continuing into, per spec §4.8-4.9.
package compare

import "github.com/grailbio/beetl/alphabet"

// ChildCounts is a child-count vector indexed by alphabet index, the per-
// letter symbol tally BackTracker hands to a Handler every cycle.
type ChildCounts = [alphabet.MaxSize]uint64

// Range is one entry of an IntervalStore bucket: the interval
// [Pos, Pos+Num) of some completed BWT corresponds to every occurrence of
// Word (read as the characters matched so far, nearest-first). Flags is a
// policy-defined bitfield threaded through untouched by BackTracker itself.
type Range struct {
	Word  []byte
	Pos   uint64
	Num   uint64
	Flags uint8
}

// Handler is a pure policy: given the current range and both sides' child-
// count vectors, decide which letters are worth propagating into cycle
// k+1 on each side. Handlers never see BWT bytes, only counts and range
// metadata -- see spec §4.9.
type Handler interface {
	// Handle is called for a range present on both sides.
	Handle(meta Range, childCountsA, childCountsB ChildCounts) (propagateA, propagateB [alphabet.MaxSize]bool)
	// HandleAOnly is called when B has no counterpart range for meta.
	HandleAOnly(meta Range, childCountsA ChildCounts) (propagateA [alphabet.MaxSize]bool)
}
