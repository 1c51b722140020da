package invert

import (
	"github.com/grailbio/beetl/alphabet"
	"github.com/grailbio/beetl/beetlerrors"
	"github.com/grailbio/beetl/count"
	"github.com/grailbio/beetl/pile"
)

// BackwardInverter reconstructs reads by chasing the BWT's LF mapping
// backward from each entry of pile 0 (the terminator pile): at every step
// the BWT byte at the current (pile, pos) is the character immediately
// preceding the current (shrinking) suffix, so m steps rebuild a whole
// read, emitted in reverse. Reads surface in the lexicographic order of
// their rotations, i.e. pile 0's own on-disk order, since pile 0's entries
// are written in seqN order and the construction uses seqN as the
// tiebreak for the shared "$" prefix (see engine.RunCycle0).
type BackwardInverter struct {
	tbl       alphabet.Table
	set       *pile.Set
	table     *count.Table
	blockSize int
	indices   []*RankIndex
}

// NewBackwardInverter builds an inverter over set's finalized piles, using
// table as the source of rank/select arithmetic. blockSize <= 0 selects
// DefaultBlockSize.
func NewBackwardInverter(set *pile.Set, table *count.Table, blockSize int) *BackwardInverter {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	tbl := set.Alphabet()
	return &BackwardInverter{
		tbl:       tbl,
		set:       set,
		table:     table,
		blockSize: blockSize,
		indices:   make([]*RankIndex, tbl.Size()),
	}
}

func (b *BackwardInverter) rankIndex(pileIdx int) (*RankIndex, error) {
	if b.indices[pileIdx] != nil {
		return b.indices[pileIdx], nil
	}
	r, err := b.set.OpenFinalReader(pileIdx)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	idx, err := NewRankIndex(b.tbl, r, b.blockSize)
	if err != nil {
		return nil, rankIndexError(pileIdx, err)
	}
	b.indices[pileIdx] = idx
	return idx, nil
}

// NumReads returns n, the number of reads the construction covered, read
// off pile 0's length.
func (b *BackwardInverter) NumReads() (int, error) {
	idx, err := b.rankIndex(alphabet.Terminator)
	if err != nil {
		return 0, err
	}
	return idx.Len(), nil
}

// InvertAll reconstructs every read of length readLen, in pile-0 order
// (lexicographic order of rotations).
func (b *BackwardInverter) InvertAll(readLen int) ([]string, error) {
	n, err := b.NumReads()
	if err != nil {
		return nil, err
	}
	reads := make([]string, n)
	for i := 0; i < n; i++ {
		s, err := b.chase(alphabet.Terminator, i, readLen)
		if err != nil {
			return nil, err
		}
		reads[i] = s
	}
	return reads, nil
}

// chase performs readLen backward LF steps from (pileIdx, pos) and returns
// the reconstructed read.
func (b *BackwardInverter) chase(pileIdx, pos, readLen int) (string, error) {
	buf := make([]byte, readLen)
	curPile, curPos := pileIdx, pos
	for step := 0; step < readLen; step++ {
		idx, err := b.rankIndex(curPile)
		if err != nil {
			return "", err
		}
		if curPos >= idx.Len() {
			return "", beetlerrors.E(beetlerrors.InvariantViolation, beetlerrors.NoContext, curPile,
				"LF chase position %d out of range for pile of length %d", curPos, idx.Len())
		}
		symIdx := idx.SymbolIndexAt(curPos)
		buf[readLen-1-step] = b.tbl.SymbolAt(symIdx)

		rank := idx.Rank(symIdx, curPos)
		newPos := rank + b.table.ColumnPrefix(curPile, symIdx)
		curPile, curPos = symIdx, int(newPos)
	}
	return string(buf), nil
}
