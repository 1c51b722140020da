// Package invert implements the concatenator and the two inverters built on
// top of a finished pile.Set: Concatenate streams the finished segments into
// one output, BackwardInverter and ForwardInverter reconstruct the original
// reads by chasing LF steps through a block-sampled rank index over each
// pile, per spec §4.7.
package invert

import (
	"io"

	"github.com/grailbio/beetl/alphabet"
	"github.com/grailbio/beetl/beetlerrors"
	"github.com/grailbio/beetl/codec"
	"github.com/grailbio/beetl/count"
)

// DefaultBlockSize is the default rank-index sampling granularity: rank
// queries cost O(DefaultBlockSize) instead of O(pile size).
const DefaultBlockSize = 2048

// RankIndex accelerates rank(symbol, pos) queries -- "how many occurrences
// of symbol appear in [0, pos)" -- over one finished pile segment, plus the
// inverse select(symbol, occurrence) query.
// It decodes the segment once at construction and keeps every symbol in
// memory alongside a cumulative count snapshot every blockSize symbols, so a
// query only ever has to linearly rescan the partial block straddling its
// argument rather than the whole segment.
type RankIndex struct {
	blockSize int
	symbols   []int8
	blockRows []count.Row
}

// NewRankIndex decodes r fully and builds a RankIndex over it. r is
// consumed to EOF; the caller owns closing it.
func NewRankIndex(tbl alphabet.Table, r codec.Reader, blockSize int) (*RankIndex, error) {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	idx := &RankIndex{blockSize: blockSize, blockRows: []count.Row{{}}}
	var running count.Row
	buf := make([]byte, blockSize)
	for {
		n, err := r.ReadBytes(buf)
		for i := 0; i < n; i++ {
			si, ierr := tbl.MustIndexOf(buf[i])
			if ierr != nil {
				return nil, ierr
			}
			idx.symbols = append(idx.symbols, int8(si))
			running[si]++
		}
		if n > 0 {
			idx.blockRows = append(idx.blockRows, running)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
	}
	return idx, nil
}

// Len returns the number of symbols in the indexed pile segment.
func (idx *RankIndex) Len() int { return len(idx.symbols) }

// SymbolIndexAt returns the alphabet index of the symbol at pos.
func (idx *RankIndex) SymbolIndexAt(pos int) int { return int(idx.symbols[pos]) }

// Rank returns the number of occurrences of symbolIdx in [0, pos).
func (idx *RankIndex) Rank(symbolIdx, pos int) uint64 {
	block := pos / idx.blockSize
	if block >= len(idx.blockRows) {
		block = len(idx.blockRows) - 1
	}
	n := idx.blockRows[block][symbolIdx]
	start := block * idx.blockSize
	for i := start; i < pos && i < len(idx.symbols); i++ {
		if int(idx.symbols[i]) == symbolIdx {
			n++
		}
	}
	return n
}

// Select returns the position of the occurrence-th (0-indexed) occurrence
// of symbolIdx, or (0, false) if the pile does not have that many.
func (idx *RankIndex) Select(symbolIdx int, occurrence int) (int, bool) {
	lo, hi := 0, len(idx.blockRows)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if idx.blockRows[mid][symbolIdx] <= uint64(occurrence) {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	seen := int(idx.blockRows[lo][symbolIdx])
	for pos := lo * idx.blockSize; pos < len(idx.symbols); pos++ {
		if int(idx.symbols[pos]) == symbolIdx {
			if seen == occurrence {
				return pos, true
			}
			seen++
		}
	}
	return 0, false
}

func rankIndexError(pileIdx int, err error) error {
	return beetlerrors.Wrap(beetlerrors.IoError, beetlerrors.NoContext, pileIdx, beetlerrors.NoOffset,
		err, "build rank index for pile")
}
