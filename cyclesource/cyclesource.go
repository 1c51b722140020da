// Package cyclesource implements the CycleSource contract: for each cycle,
// the new symbol (and optional quality) for every read, in original read
// order. Rich format adapters (FASTA/FASTQ/BCL/run-folder) are external
// collaborators per the spec's scope; this package ships only the minimal
// in-memory adapter the engine's tests drive, plus one FASTA-backed adapter
// so cmd/beetl has a real, non-synthetic input path to exercise.
package cyclesource

import (
	"github.com/grailbio/beetl/beetlerrors"
)

// Read is a fixed-length string over Σ\{$}, implicitly $-terminated. Reads
// shorter than the collection's length m are expected to already be
// pre-padded by the adapter, per the spec's non-goals.
type Read struct {
	Bases    []byte
	Quals    []byte // optional; nil if qualities are not tracked
	SourceID int    // original sequence id, 0..n-1
}

// Source supplies, for each cycle j = 1..m, the new symbol (and optional
// quality) for every read, in original read order. Cycle j reads the base at
// position m-j of each read (the spec's character-at-position convention).
// NextBatch may be called for any j and more than once for the same j; the
// engine asks for j = 1 and 2 at bootstrap and for j and j+1 in each later
// cycle.
type Source interface {
	// Len returns n, the number of reads in the collection.
	Len() int
	// ReadLength returns m, the fixed read length.
	ReadLength() int
	// NextBatch returns, for cycle j, the new symbol and optional quality
	// for every read in original read order. done is true once j has
	// advanced past m (an explicit "done" signal, per the spec).
	NextBatch(j int) (symbols []byte, quals []byte, done bool, err error)
}

// memorySource is the in-memory Source backing FromReads.
type memorySource struct {
	reads      []Read
	readLength int
	hasQuals   bool
}

// FromReads builds an in-memory CycleSource over reads, all of which must
// share the same length. Engine tests use it directly, and FromFASTA builds
// its Source with it.
func FromReads(reads []Read) (Source, error) {
	if len(reads) == 0 {
		return nil, beetlerrors.E(beetlerrors.ConfigError, beetlerrors.NoContext, beetlerrors.NoContext,
			"cyclesource: empty read collection")
	}
	m := len(reads[0].Bases)
	hasQuals := reads[0].Quals != nil
	for i, r := range reads {
		if len(r.Bases) != m {
			return nil, beetlerrors.E(beetlerrors.FormatError, beetlerrors.NoContext, beetlerrors.NoContext,
				"cyclesource: read %d has length %d, want %d (pad reads before construction)", i, len(r.Bases), m)
		}
		if (r.Quals != nil) != hasQuals {
			return nil, beetlerrors.E(beetlerrors.FormatError, beetlerrors.NoContext, beetlerrors.NoContext,
				"cyclesource: read %d quality presence is inconsistent with the rest of the collection", i)
		}
	}
	return &memorySource{reads: reads, readLength: m, hasQuals: hasQuals}, nil
}

func (s *memorySource) Len() int        { return len(s.reads) }
func (s *memorySource) ReadLength() int { return s.readLength }

func (s *memorySource) NextBatch(j int) ([]byte, []byte, bool, error) {
	if j < 1 || j > s.readLength {
		return nil, nil, true, nil
	}
	pos := s.readLength - j
	symbols := make([]byte, len(s.reads))
	var quals []byte
	if s.hasQuals {
		quals = make([]byte, len(s.reads))
	}
	for i, r := range s.reads {
		symbols[i] = r.Bases[pos]
		if s.hasQuals {
			quals[i] = r.Quals[pos]
		}
	}
	return symbols, quals, false, nil
}
