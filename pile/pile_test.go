package pile

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/beetl/alphabet"
	"github.com/grailbio/beetl/codec"
)

func TestWriteThenReadPile(t *testing.T) {
	dir := t.TempDir()
	tbl := alphabet.Standard()
	set := NewSet(tbl, codec.RLE44Kind, Paths{Dir: dir, Prefix: "test"})

	w, err := set.OpenWriter(1, 2)
	require.NoError(t, err)
	require.NoError(t, w.Write([]byte("ACGTACGT"), 8))
	require.NoError(t, w.Close())

	r, err := set.OpenReader(1, 2)
	require.NoError(t, err)
	buf := make([]byte, 8)
	n, err := r.ReadBytes(buf)
	require.True(t, err == nil || err == io.EOF)
	require.Equal(t, 8, n)
	require.Equal(t, "ACGTACGT", string(buf))
	require.NoError(t, r.(io.Closer).Close())
}

func TestFinalizePublishesFrozenNames(t *testing.T) {
	dir := t.TempDir()
	tbl := alphabet.Standard()
	set := NewSet(tbl, codec.ASCIIKind, Paths{Dir: dir, Prefix: "sample"})

	for idx := 0; idx < tbl.Size(); idx++ {
		w, err := set.OpenWriter(3, idx)
		require.NoError(t, err)
		require.NoError(t, w.Write([]byte{'$'}, 1))
		require.NoError(t, w.Close())
	}
	require.NoError(t, set.Finalize(3))

	for idx := 0; idx < tbl.Size(); idx++ {
		_, err := os.Stat(set.Paths().FinalBWTPath(idx))
		require.NoError(t, err)
	}
	require.NoError(t, set.Paths().RemoveCycleDir(3))
	_, err := os.Stat(filepath.Join(dir, "cycle0003"))
	require.True(t, os.IsNotExist(err))
}

func TestEndPosRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample-end-pos")
	records := []EndPosRecord{{SeqN: 3, SubSequenceNum: 0}, {SeqN: 1, SubSequenceNum: 0}, {SeqN: 0, SubSequenceNum: 1}}
	require.NoError(t, WriteEndPos(path, records, 2, false))
	got, subSeqCount, hasRevComp, err := ReadEndPos(path)
	require.NoError(t, err)
	require.Equal(t, records, got)
	require.EqualValues(t, 2, subSeqCount)
	require.False(t, hasRevComp)
}
