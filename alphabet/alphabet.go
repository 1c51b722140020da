// Package alphabet defines the fixed, small symbol set BEETL operates over
// and the single indexed-load lookup every hot loop uses to classify a byte.
package alphabet

import "github.com/grailbio/beetl/beetlerrors"

// NotInAlphabet is the sentinel index returned by Table.IndexOf for bytes
// that are not part of the alphabet.
const NotInAlphabet = -1

// Terminator is the alphabet index of the end-of-read symbol '$'. It is
// always index 0: pile 0 is the terminator pile for every Table.
const Terminator = 0

// MaxSize bounds |Σ|: pile indices and RLE-encoded symbol fields must fit in
// a nibble.
const MaxSize = 8

// Table is an immutable symbol<->index mapping. The zero Table is not valid;
// construct one with Standard or WithZ.
type Table struct {
	symbols [MaxSize]byte
	size    int
	index   [256]int8
}

// Standard returns the DNA alphabet Σ = {$, A, C, G, N, T}.
func Standard() Table {
	return build([]byte{'$', 'A', 'C', 'G', 'N', 'T'})
}

// WithZ returns Σ = {$, A, C, G, N, T, Z}, for callers that need an explicit
// padding/unknown symbol distinct from N.
func WithZ() Table {
	return build([]byte{'$', 'A', 'C', 'G', 'N', 'T', 'Z'})
}

func build(symbols []byte) Table {
	if len(symbols) == 0 || len(symbols) > MaxSize {
		panic("alphabet: symbol count out of range")
	}
	var t Table
	for i := range t.index {
		t.index[i] = NotInAlphabet
	}
	for i, s := range symbols {
		t.symbols[i] = s
		t.index[s] = int8(i)
	}
	t.size = len(symbols)
	return t
}

// Size returns |Σ|.
func (t Table) Size() int { return t.size }

// IndexOf maps a raw byte to its alphabet index, or (NotInAlphabet, false)
// if the byte is not part of this Table.
func (t Table) IndexOf(b byte) (int, bool) {
	idx := t.index[b]
	if idx < 0 {
		return NotInAlphabet, false
	}
	return int(idx), true
}

// MustIndexOf is IndexOf for call sites that have already validated the
// input belongs to the alphabet (e.g. re-reading a pile segment this engine
// wrote itself); it turns a violation into a FormatError instead of silently
// miscounting.
func (t Table) MustIndexOf(b byte) (int, error) {
	idx, ok := t.IndexOf(b)
	if !ok {
		return NotInAlphabet, beetlerrors.E(beetlerrors.FormatError, beetlerrors.NoContext, beetlerrors.NoContext,
			"byte %q (0x%02x) is not in the alphabet", b, b)
	}
	return idx, nil
}

// SymbolAt maps an alphabet index back to its byte.
func (t Table) SymbolAt(i int) byte {
	return t.symbols[i]
}

// Symbols returns the alphabet in index order. The returned slice must not
// be mutated.
func (t Table) Symbols() []byte {
	return t.symbols[:t.size]
}
