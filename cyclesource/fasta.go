package cyclesource

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/grailbio/beetl/beetlerrors"
)

// FromFASTA reads a minimal FASTA stream -- one or more ">name" headers
// each followed by sequence lines -- and builds an in-memory Source, the
// way the teacher's encoding/fasta package walks '>' records, but trimmed to
// this engine's needs: no random-access index, no faidx sidecar, just a
// linear pass that truncates or rejects reads against length.
//
// Reads shorter than length are rejected (per the spec, pre-padding is the
// adapter's job, not the engine's); reads longer than length are truncated
// to their first length bases, mirroring a fixed-cycle sequencer run.
func FromFASTA(r io.Reader, length int) (Source, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var reads []Read
	var cur bytes.Buffer
	seqID := 0
	flush := func() error {
		if cur.Len() == 0 {
			return nil
		}
		seq := cur.Bytes()
		if len(seq) < length {
			return beetlerrors.E(beetlerrors.FormatError, beetlerrors.NoContext, beetlerrors.NoContext,
				"cyclesource: sequence %d has length %d, shorter than the declared cycle length %d", seqID, len(seq), length)
		}
		bases := make([]byte, length)
		copy(bases, seq[:length])
		reads = append(reads, Read{Bases: bases, SourceID: seqID})
		seqID++
		cur.Reset()
		return nil
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		if line[0] == '>' {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		cur.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, beetlerrors.Wrap(beetlerrors.IoError, beetlerrors.NoContext, beetlerrors.NoContext,
			beetlerrors.NoOffset, err, "read FASTA stream")
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return FromReads(reads)
}

var complement = func() [256]byte {
	var t [256]byte
	for i := range t {
		t[i] = byte(i)
	}
	t['A'], t['T'] = 'T', 'A'
	t['C'], t['G'] = 'G', 'C'
	return t
}()

// WithReverseComplement doubles the collection by appending, for every read
// in src, its reverse complement as a new read with its own sequence id.
// Deduplication of identical reads and their reverse complements is
// explicitly not required, per the spec's inherited open question.
func WithReverseComplement(src Source) (Source, error) {
	n := src.Len()
	m := src.ReadLength()
	batches := make([][]byte, m)
	for pos := 0; pos < m; pos++ {
		j := m - pos
		symbols, _, done, err := src.NextBatch(j)
		if err != nil {
			return nil, err
		}
		if done {
			return nil, beetlerrors.E(beetlerrors.InvariantViolation, beetlerrors.NoContext, beetlerrors.NoContext,
				"cyclesource: source ended before its declared read length")
		}
		batches[pos] = symbols
	}
	reads := make([]Read, 0, 2*n)
	for i := 0; i < n; i++ {
		bases := make([]byte, m)
		for pos := 0; pos < m; pos++ {
			bases[pos] = batches[pos][i]
		}
		reads = append(reads, Read{Bases: bases, SourceID: i})
	}
	for i := 0; i < n; i++ {
		bases := make([]byte, m)
		for pos := 0; pos < m; pos++ {
			bases[pos] = complement[reads[i].Bases[m-1-pos]]
		}
		reads = append(reads, Read{Bases: bases, SourceID: n + i})
	}
	return FromReads(reads)
}
