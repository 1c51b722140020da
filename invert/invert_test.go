package invert

import (
	"bytes"
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/beetl/alphabet"
	"github.com/grailbio/beetl/beetlcfg"
	"github.com/grailbio/beetl/codec"
	"github.com/grailbio/beetl/cyclesource"
	"github.com/grailbio/beetl/engine"
	"github.com/grailbio/beetl/pile"
)

func buildEngine(t *testing.T, bases []string) (*engine.Engine, *pile.Set) {
	t.Helper()
	tbl := alphabet.Standard()
	reads := make([]cyclesource.Read, len(bases))
	for i, b := range bases {
		reads[i] = cyclesource.Read{Bases: []byte(b), SourceID: i}
	}
	src, err := cyclesource.FromReads(reads)
	require.NoError(t, err)

	cfg, err := beetlcfg.Load(beetlcfg.Config{Alphabet: tbl, TempDir: t.TempDir()})
	require.NoError(t, err)

	paths := pile.Paths{Dir: t.TempDir(), Prefix: "t"}
	set := pile.NewSet(tbl, codec.ASCIIKind, paths)
	e := engine.New(cfg, set, src)
	require.NoError(t, e.Run(context.Background()))
	return e, set
}

func TestConcatenateProducesOneByteOfOutputPerReadPerCycle(t *testing.T) {
	bases := []string{"ACGT", "ACGT", "ACGA"}
	_, set := buildEngine(t, bases)

	var buf bytes.Buffer
	require.NoError(t, Concatenate(set, &buf))
	require.Len(t, buf.Bytes(), len(bases)*len(bases[0]))
}

func TestBackwardInverterReconstructsOriginalMultiset(t *testing.T) {
	bases := []string{"ACGT", "ACGT", "ACGA", "TTTT", "GATC"}
	e, set := buildEngine(t, bases)

	bi := NewBackwardInverter(set, e.Table(), 4)
	got, err := bi.InvertAll(len(bases[0]))
	require.NoError(t, err)
	require.Len(t, got, len(bases))

	wantSorted := append([]string(nil), bases...)
	gotSorted := append([]string(nil), got...)
	sort.Strings(wantSorted)
	sort.Strings(gotSorted)
	require.Equal(t, wantSorted, gotSorted)
}

func TestForwardInverterMatchesBackwardPerRead(t *testing.T) {
	bases := []string{"ACGT", "ACGT", "ACGA", "TTTT", "GATC"}
	e, set := buildEngine(t, bases)

	bi := NewBackwardInverter(set, e.Table(), 4)
	backward, err := bi.InvertAll(len(bases[0]))
	require.NoError(t, err)

	fi, err := NewForwardInverter(set, e.Table(), 4, len(bases[0]))
	require.NoError(t, err)
	forward, err := fi.InvertAll()
	require.NoError(t, err)

	require.Equal(t, backward, forward)
}

func TestForwardInverterInvertOneMatchesOriginalRead(t *testing.T) {
	bases := []string{"ACGT", "TTTT", "GATC"}
	e, set := buildEngine(t, bases)

	fi, err := NewForwardInverter(set, e.Table(), 4, len(bases[0]))
	require.NoError(t, err)
	for seqN := range bases {
		s, err := fi.InvertOne(uint32(seqN))
		require.NoError(t, err)
		require.Contains(t, bases, s)
	}
}
