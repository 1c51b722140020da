package codec

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/beetl/alphabet"
	"github.com/grailbio/beetl/count"
)

// seekBuffer adapts a bytes.Buffer-backed byte slice into an io.ReadSeeker
// for the codec readers, the way an on-disk pile segment would behave.
type seekBuffer struct {
	*bytes.Reader
}

func newSeekBuffer(b []byte) *seekBuffer { return &seekBuffer{bytes.NewReader(b)} }

type closingBuffer struct {
	bytes.Buffer
}

func (c *closingBuffer) Close() error { return nil }

func allCodecs() []Kind { return []Kind{ASCIIKind, RLE44Kind, RLE53Kind} }

func encodeAll(t *testing.T, kind Kind, tbl alphabet.Table, s string) []byte {
	t.Helper()
	var buf closingBuffer
	w, err := NewWriter(kind, tbl, &buf)
	require.NoError(t, err)
	require.NoError(t, w.Write([]byte(s), len(s)))
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func decodeAll(t *testing.T, kind Kind, tbl alphabet.Table, encoded []byte, n int) string {
	t.Helper()
	r, err := NewReader(kind, tbl, newSeekBuffer(encoded))
	require.NoError(t, err)
	out := make([]byte, n)
	got, err := r.ReadBytes(out)
	require.True(t, err == nil || err == io.EOF)
	require.Equal(t, n, got)
	return string(out)
}

// TestRoundTrip verifies invariant 7: decode(encode(w)) == w for every codec.
func TestRoundTrip(t *testing.T) {
	tbl := alphabet.Standard()
	cases := []string{
		"",
		"A",
		"AAAAAAAAAAAAAAAAAAAAAAA",
		"ACGT$ACGT$ACGA",
		"AAAAAAAAAAAAAAAAAAAACCCCCCCCCCCCCCCCCCCCCCCCCCGGGGT",
	}
	for _, kind := range allCodecs() {
		for _, s := range cases {
			encoded := encodeAll(t, kind, tbl, s)
			got := decodeAll(t, kind, tbl, encoded, len(s))
			require.Equalf(t, s, got, "codec=%v input=%q", kind, s)
		}
	}
}

// TestRLE44SingleRunByte covers scenario S2: a run of 4 A's encodes as
// exactly one run byte whose high nibble holds count-1 (3) and whose low
// nibble holds A's alphabet index.
func TestRLE44SingleRunByte(t *testing.T) {
	tbl := alphabet.Standard()
	encoded := encodeAll(t, RLE44Kind, tbl, "AAAA")
	require.Len(t, encoded, 1)
	idx, runLen := rle44Decode(encoded[0])
	require.Equal(t, 3, runLen-1) // count-1 field
	require.Equal(t, 4, runLen)
	sym, _ := tbl.IndexOf('A')
	require.Equal(t, sym, idx)
}

// TestRLE44LongRunSplits verifies runs beyond 16 split into full max-count
// bytes plus a final shorter byte, per the frozen wire format.
func TestRLE44LongRunSplits(t *testing.T) {
	tbl := alphabet.Standard()
	s := make([]byte, 40)
	for i := range s {
		s[i] = 'A'
	}
	encoded := encodeAll(t, RLE44Kind, tbl, string(s))
	// 40 = 16 + 16 + 8 -> three run bytes.
	require.Len(t, encoded, 3)
	_, r1 := rle44Decode(encoded[0])
	_, r2 := rle44Decode(encoded[1])
	_, r3 := rle44Decode(encoded[2])
	require.Equal(t, 16, r1)
	require.Equal(t, 16, r2)
	require.Equal(t, 8, r3)
	got := decodeAll(t, RLE44Kind, tbl, encoded, 40)
	require.Equal(t, string(s), got)
}

func TestReadAndCount(t *testing.T) {
	tbl := alphabet.Standard()
	for _, kind := range allCodecs() {
		encoded := encodeAll(t, kind, tbl, "ACGTACGTACGA")
		r, err := NewReader(kind, tbl, newSeekBuffer(encoded))
		require.NoError(t, err)
		var counts count.Row
		got, err := r.ReadAndCount(&counts, 12)
		require.True(t, err == nil || err == io.EOF)
		require.Equal(t, 12, got)
		aIdx, _ := tbl.IndexOf('A')
		cIdx, _ := tbl.IndexOf('C')
		gIdx, _ := tbl.IndexOf('G')
		tIdx, _ := tbl.IndexOf('T')
		require.EqualValues(t, 4, counts[aIdx])
		require.EqualValues(t, 3, counts[cIdx])
		require.EqualValues(t, 3, counts[gIdx])
		require.EqualValues(t, 2, counts[tIdx])
	}
}

func TestReadAndSendStreamsThrough(t *testing.T) {
	tbl := alphabet.Standard()
	for _, kind := range allCodecs() {
		encoded := encodeAll(t, kind, tbl, "ACGTTTTTACG")
		r, err := NewReader(kind, tbl, newSeekBuffer(encoded))
		require.NoError(t, err)
		var out closingBuffer
		w, err := NewWriter(kind, tbl, &out)
		require.NoError(t, err)
		got, err := r.ReadAndSend(w, 11)
		require.True(t, err == nil || err == io.EOF)
		require.Equal(t, 11, got)
		require.NoError(t, w.Close())
		roundTripped := decodeAll(t, kind, tbl, out.Bytes(), 11)
		require.Equal(t, "ACGTTTTTACG", roundTripped)
	}
}

func TestRewind(t *testing.T) {
	tbl := alphabet.Standard()
	for _, kind := range allCodecs() {
		encoded := encodeAll(t, kind, tbl, "ACGT")
		r, err := NewReader(kind, tbl, newSeekBuffer(encoded))
		require.NoError(t, err)
		buf := make([]byte, 4)
		_, err = r.ReadBytes(buf)
		require.True(t, err == nil || err == io.EOF)
		require.NoError(t, r.Rewind())
		require.EqualValues(t, 0, r.Tell())
		buf2 := make([]byte, 4)
		_, err = r.ReadBytes(buf2)
		require.True(t, err == nil || err == io.EOF)
		require.Equal(t, buf, buf2)
	}
}

func TestInvalidSymbolIsFormatError(t *testing.T) {
	tbl := alphabet.Standard()
	var buf closingBuffer
	w, err := NewWriter(RLE44Kind, tbl, &buf)
	require.NoError(t, err)
	err = w.Write([]byte{'X'}, 1)
	require.Error(t, err)
}
