// Package pile implements the PileSet: one BWT segment per alphabet index,
// opened for reading (the previous cycle's output) or writing (the current
// cycle's output), plus the optional quality side-stream and the final
// end-pos mapping. Segment and side-stream ownership follows the
// "EngineContext passed down" design: a Set is an explicit value threaded by
// callers, not package-level state.
package pile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/grailbio/beetl/alphabet"
	"github.com/grailbio/beetl/beetlerrors"
	"github.com/grailbio/beetl/codec"
)

// Paths names the on-disk layout frozen in the spec: {prefix}-B0{p} for a
// pile's BWT segment, {prefix}-end-pos for the terminator/sequence-id map,
// {prefix}-Q0{p} for the optional quality side-stream. Intermediate,
// not-yet-final cycles are kept in a private "cycleNNNN" subdirectory of Dir
// so a crash mid-cycle never corrupts the previous cycle's intact output (the failure
// model requires cycle j to be restartable from cycle j-1's piles).
type Paths struct {
	Dir    string
	Prefix string
}

func (p Paths) cycleDir(cycle int) string {
	return filepath.Join(p.Dir, fmt.Sprintf("cycle%04d", cycle))
}

// BWTPath returns the path of pile idx's BWT segment for the given cycle.
// Cycle 0 is the bootstrap output (length-1 suffixes).
func (p Paths) BWTPath(cycle, idx int) string {
	return filepath.Join(p.cycleDir(cycle), fmt.Sprintf("%s-B0%d", p.Prefix, idx))
}

// QualityPath returns the path of pile idx's quality side-stream for the
// given cycle.
func (p Paths) QualityPath(cycle, idx int) string {
	return filepath.Join(p.cycleDir(cycle), fmt.Sprintf("%s-Q0%d", p.Prefix, idx))
}

// FragmentPath returns the path of the scratch segment holding one source
// pile's contribution to one destination pile's new BWT segment, before the
// per-pile fragments are concatenated into the cycle's published output. Per
// source-pile workers never share a fragment file, so they need no locking.
func (p Paths) FragmentPath(cycle, pSrc, pDst int) string {
	return filepath.Join(p.cycleDir(cycle), fmt.Sprintf("%s-frag-%d-%d", p.Prefix, pSrc, pDst))
}

// FinalBWTPath returns the frozen, published path of pile idx's BWT segment
// -- the name a completed construction leaves behind.
func (p Paths) FinalBWTPath(idx int) string {
	return filepath.Join(p.Dir, fmt.Sprintf("%s-B0%d", p.Prefix, idx))
}

// FinalEndPosPath returns the frozen, published path of the end-pos map.
func (p Paths) FinalEndPosPath() string {
	return filepath.Join(p.Dir, fmt.Sprintf("%s-end-pos", p.Prefix))
}

// EnsureCycleDir creates the scratch directory for a cycle's output
// segments.
func (p Paths) EnsureCycleDir(cycle int) error {
	if err := os.MkdirAll(p.cycleDir(cycle), 0o755); err != nil {
		return beetlerrors.Wrap(beetlerrors.IoError, cycle, beetlerrors.NoContext, beetlerrors.NoOffset,
			err, "create cycle scratch directory")
	}
	return nil
}

// RemoveCycleDir deletes a cycle's scratch directory once it is no longer
// needed (two cycles back, once the current cycle's reads are drained).
func (p Paths) RemoveCycleDir(cycle int) error {
	return os.RemoveAll(p.cycleDir(cycle))
}

// Reader is a codec.Reader bound to the file backing it. Every Reader this
// package opens is one of these, so callers always get a Close alongside
// the decode methods instead of having to track the file handle
// separately.
type Reader interface {
	codec.Reader
	io.Closer
}

// Set is the collection of per-alphabet-index piles for one cycle's worth
// of I/O. A Set only ever opens readers onto a previous, already-written
// cycle or writers onto the current, in-progress cycle; it never mixes the
// two for the same pile index.
type Set struct {
	tbl   alphabet.Table
	kind  codec.Kind
	paths Paths
}

// NewSet constructs a Set for the given alphabet, codec and on-disk layout.
func NewSet(tbl alphabet.Table, kind codec.Kind, paths Paths) *Set {
	return &Set{tbl: tbl, kind: kind, paths: paths}
}

// Alphabet returns the Set's alphabet table.
func (s *Set) Alphabet() alphabet.Table { return s.tbl }

// Codec returns the Set's codec kind.
func (s *Set) Codec() codec.Kind { return s.kind }

// OpenReader opens a fresh, independent Reader onto pile idx's BWT segment
// for the given (already-written) cycle. Callers needing both an rCount and
// an rCopy cursor on the same pile (per the cycle algorithm) call this
// twice: each Reader gets its own *os.File handle and cursor.
func (s *Set) OpenReader(cycle, idx int) (Reader, error) {
	path := s.paths.BWTPath(cycle, idx)
	f, err := os.Open(path)
	if err != nil {
		return nil, beetlerrors.Wrap(beetlerrors.IoError, cycle, idx, beetlerrors.NoOffset,
			err, "open pile segment for reading")
	}
	r, err := codec.NewReader(s.kind, s.tbl, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &closingReader{Reader: r, f: f}, nil
}

// OpenWriter opens a fresh Writer onto pile idx's BWT segment for the given
// (in-progress) cycle, creating the cycle's scratch directory if needed.
// Writers are always additive: the file is created fresh, never appended
// to an existing one from a different cycle.
func (s *Set) OpenWriter(cycle, idx int) (codec.Writer, error) {
	if err := s.paths.EnsureCycleDir(cycle); err != nil {
		return nil, err
	}
	path := s.paths.BWTPath(cycle, idx)
	f, err := os.Create(path)
	if err != nil {
		return nil, beetlerrors.Wrap(beetlerrors.IoError, cycle, idx, beetlerrors.NoOffset,
			err, "create pile segment for writing")
	}
	w, err := codec.NewWriter(s.kind, s.tbl, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

// PileLengthBytesOnDisk stats the raw file size of pile idx's segment at the
// given cycle -- used only for diagnostics, never for rank arithmetic
// (which always goes through count.Table).
func (s *Set) PileLengthBytesOnDisk(cycle, idx int) (int64, error) {
	info, err := os.Stat(s.paths.BWTPath(cycle, idx))
	if err != nil {
		return 0, beetlerrors.Wrap(beetlerrors.IoError, cycle, idx, beetlerrors.NoOffset, err, "stat pile segment")
	}
	return info.Size(), nil
}

// Finalize publishes cycle m's per-pile segments under the frozen
// {prefix}-B0{p} names, per §6. It does not remove the cycle directories;
// RemoveCycleDir does that.
func (s *Set) Finalize(finalCycle int) error {
	for idx := 0; idx < s.tbl.Size(); idx++ {
		src := s.paths.BWTPath(finalCycle, idx)
		dst := s.paths.FinalBWTPath(idx)
		if err := os.Rename(src, dst); err != nil {
			return beetlerrors.Wrap(beetlerrors.IoError, finalCycle, idx, beetlerrors.NoOffset,
				err, "publish final pile segment")
		}
	}
	return nil
}

// Paths exposes the Set's on-disk layout, e.g. so a caller can open the
// finalized segments directly (concatenation, inversion, compare).
func (s *Set) Paths() Paths { return s.paths }

// OpenFinalReader opens a Reader onto pile idx's finalized, published BWT
// segment -- the name Finalize leaves behind. Used by callers operating
// after construction completes: Concatenate, the inverters, and compare.
func (s *Set) OpenFinalReader(idx int) (Reader, error) {
	path := s.paths.FinalBWTPath(idx)
	f, err := os.Open(path)
	if err != nil {
		return nil, beetlerrors.Wrap(beetlerrors.IoError, beetlerrors.NoContext, idx, beetlerrors.NoOffset,
			err, "open final pile segment for reading")
	}
	r, err := codec.NewReader(s.kind, s.tbl, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &closingReader{Reader: r, f: f}, nil
}

// FinalPileLengthBytesOnDisk stats the raw file size of pile idx's
// finalized segment -- diagnostics only, never rank arithmetic.
func (s *Set) FinalPileLengthBytesOnDisk(idx int) (int64, error) {
	info, err := os.Stat(s.paths.FinalBWTPath(idx))
	if err != nil {
		return 0, beetlerrors.Wrap(beetlerrors.IoError, beetlerrors.NoContext, idx, beetlerrors.NoOffset, err, "stat final pile segment")
	}
	return info.Size(), nil
}

// OpenFragmentWriter opens a fresh Writer onto a per-source-pile scratch
// fragment (see Paths.FragmentPath), ensuring the cycle's scratch directory
// exists first.
func (s *Set) OpenFragmentWriter(cycle, pSrc, pDst int) (codec.Writer, error) {
	if err := s.paths.EnsureCycleDir(cycle); err != nil {
		return nil, err
	}
	path := s.paths.FragmentPath(cycle, pSrc, pDst)
	f, err := os.Create(path)
	if err != nil {
		return nil, beetlerrors.Wrap(beetlerrors.IoError, cycle, pDst, beetlerrors.NoOffset,
			err, "create destination fragment for writing")
	}
	w, err := codec.NewWriter(s.kind, s.tbl, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

// OpenFragmentReader opens a Reader onto a previously-written scratch
// fragment, for the cycle-end concatenation pass.
func (s *Set) OpenFragmentReader(cycle, pSrc, pDst int) (Reader, error) {
	path := s.paths.FragmentPath(cycle, pSrc, pDst)
	f, err := os.Open(path)
	if err != nil {
		return nil, beetlerrors.Wrap(beetlerrors.IoError, cycle, pDst, beetlerrors.NoOffset,
			err, "open destination fragment for reading")
	}
	r, err := codec.NewReader(s.kind, s.tbl, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &closingReader{Reader: r, f: f}, nil
}

// closingReader ties a codec.Reader's lifetime to the *os.File backing it,
// so callers get a single Close instead of having to remember the file
// handle separately.
type closingReader struct {
	codec.Reader
	f *os.File
}

func (c *closingReader) Close() error { return c.f.Close() }

var _ io.Closer = (*closingReader)(nil)
