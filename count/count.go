// Package count implements LetterCountEachPile: the |Σ|x|Σ| matrix of
// per-pile symbol counts that is the single source of truth for the BWT's
// C[] rank/select array, and the per-read-batch accumulators the cycle
// engine tallies while streaming a pile.
package count

import (
	"encoding/binary"
	"io"

	"github.com/grailbio/beetl/alphabet"
)

// Row is a per-pile vector of symbol counts, indexed by alphabet index.
type Row [alphabet.MaxSize]uint64

// Add accumulates other into r.
func (r *Row) Add(other Row) {
	for i := range r {
		r[i] += other[i]
	}
}

// Sum returns the total number of symbols tallied in the row.
func (r Row) Sum() uint64 {
	var s uint64
	for _, v := range r {
		s += v
	}
	return s
}

// Table is the |Σ|x|Σ| LetterCountEachPile matrix: Table[p][s] is the number
// of occurrences of symbol s in pile p.
type Table struct {
	size int
	rows [alphabet.MaxSize]Row
}

// NewTable allocates a zeroed count table for an alphabet of the given size.
func NewTable(size int) *Table {
	return &Table{size: size}
}

// Size returns |Σ|.
func (t *Table) Size() int { return t.size }

// Row returns a pointer to pile p's row, for direct accumulation.
func (t *Table) Row(p int) *Row { return &t.rows[p] }

// Add accumulates every entry of other into t (used to merge per-thread
// accumulators at a cycle boundary).
func (t *Table) Add(other *Table) {
	for p := 0; p < t.size; p++ {
		t.rows[p].Add(other.rows[p])
	}
}

// PileLength returns the total number of symbols recorded in pile p.
func (t *Table) PileLength(p int) uint64 {
	return t.rows[p].Sum()
}

// ColumnSum returns, for a fixed symbol s, the number of occurrences of s
// across every pile -- invariant 4 of the testable properties.
func (t *Table) ColumnSum(s int) uint64 {
	var sum uint64
	for p := 0; p < t.size; p++ {
		sum += t.rows[p][s]
	}
	return sum
}

// ColumnPrefix returns, for a fixed symbol s, the number of occurrences of
// s in piles before pile p (exclusive) -- the term the backward LF step
// needs (spec §4.7's "Σ_{k<pileN} tableOcc[k][indexOf(c)]"), distinct from
// Prefix which sums across symbols rather than piles.
func (t *Table) ColumnPrefix(p, s int) uint64 {
	var sum uint64
	for k := 0; k < p; k++ {
		sum += t.rows[k][s]
	}
	return sum
}

// Prefix returns C[]: for each symbol s, the number of symbols in the full
// BWT that are lexicographically smaller than s, i.e. the sum of
// ColumnSum(s') for s' < s.
func (t *Table) Prefix() Row {
	var c Row
	var running uint64
	for s := 0; s < t.size; s++ {
		c[s] = running
		running += t.ColumnSum(s)
	}
	return c
}

// MarshalBinary serialises the table as size followed by size*size
// little-endian uint64 counts, row-major.
func (t *Table) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 4+8*t.size*t.size)
	binary.LittleEndian.PutUint32(buf, uint32(t.size))
	off := 4
	for p := 0; p < t.size; p++ {
		for s := 0; s < t.size; s++ {
			binary.LittleEndian.PutUint64(buf[off:], t.rows[p][s])
			off += 8
		}
	}
	return buf, nil
}

// UnmarshalBinary is the inverse of MarshalBinary.
func (t *Table) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return io.ErrUnexpectedEOF
	}
	size := int(binary.LittleEndian.Uint32(data))
	if len(data) < 4+8*size*size {
		return io.ErrUnexpectedEOF
	}
	t.size = size
	off := 4
	for p := 0; p < size; p++ {
		for s := 0; s < size; s++ {
			t.rows[p][s] = binary.LittleEndian.Uint64(data[off:])
			off += 8
		}
	}
	return nil
}
