package cyclesource

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextBatchOrderAndDoneSignal(t *testing.T) {
	src, err := FromReads([]Read{
		{Bases: []byte("ACGT"), SourceID: 0},
		{Bases: []byte("ACGA"), SourceID: 1},
	})
	require.NoError(t, err)
	require.Equal(t, 2, src.Len())
	require.Equal(t, 4, src.ReadLength())

	symbols, _, done, err := src.NextBatch(4)
	require.NoError(t, err)
	require.False(t, done)
	require.Equal(t, []byte{'A', 'A'}, symbols)

	symbols, _, done, err = src.NextBatch(1)
	require.NoError(t, err)
	require.False(t, done)
	require.Equal(t, []byte{'T', 'A'}, symbols)

	_, _, done, err = src.NextBatch(0)
	require.NoError(t, err)
	require.True(t, done)

	_, _, done, err = src.NextBatch(5)
	require.NoError(t, err)
	require.True(t, done)
}

func TestFromReadsRejectsMixedLengths(t *testing.T) {
	_, err := FromReads([]Read{
		{Bases: []byte("ACGT")},
		{Bases: []byte("ACG")},
	})
	require.Error(t, err)
}

func TestFromFASTA(t *testing.T) {
	fasta := ">r1\nACGT\n>r2\nACGA\n"
	src, err := FromFASTA(strings.NewReader(fasta), 4)
	require.NoError(t, err)
	require.Equal(t, 2, src.Len())
	symbols, _, done, err := src.NextBatch(4)
	require.NoError(t, err)
	require.False(t, done)
	require.Equal(t, []byte{'A', 'A'}, symbols)
}

func TestFromFASTARejectsShortSequence(t *testing.T) {
	fasta := ">r1\nAC\n"
	_, err := FromFASTA(strings.NewReader(fasta), 4)
	require.Error(t, err)
}

func TestWithReverseComplementDoublesWithoutDedup(t *testing.T) {
	src, err := FromReads([]Read{{Bases: []byte("ACGT"), SourceID: 0}})
	require.NoError(t, err)
	doubled, err := WithReverseComplement(src)
	require.NoError(t, err)
	require.Equal(t, 2, doubled.Len())
	symbols, _, _, err := doubled.NextBatch(4)
	require.NoError(t, err)
	// Position m-j = 0: original's first base 'A', revcomp's first base is
	// the complement of the original's last base ('T' -> 'A').
	require.Equal(t, []byte{'A', 'A'}, symbols)
}
