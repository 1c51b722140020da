// Package engine implements the BCR cycle engine: the incremental
// construction that turns a CycleSource into a finished multi-string BWT,
// one character position per cycle, entirely through pile segments and an
// InsertionTripleStore held in memory. This is the hard kernel the rest of
// the module (invert, compare) builds on.
package engine

import (
	"context"
	"io"
	"os"

	"github.com/grailbio/beetl/alphabet"
	"github.com/grailbio/beetl/beetlcfg"
	"github.com/grailbio/beetl/beetlerrors"
	"github.com/grailbio/beetl/codec"
	"github.com/grailbio/beetl/count"
	"github.com/grailbio/beetl/cyclesource"
	"github.com/grailbio/beetl/pile"
	"github.com/grailbio/beetl/triple"

	"github.com/grailbio/base/traverse"
)

// Engine drives the cycle-by-cycle construction of a multi-string BWT for
// one fixed-length read collection.
type Engine struct {
	cfg beetlcfg.Config
	tbl alphabet.Table
	set *pile.Set
	src cyclesource.Source

	n int // read count
	m int // fixed read length

	triples *triple.Store
	dollars count.Row    // per spec: count of reads terminating at length 1, by pile
	table   *count.Table // LetterCountEachPile for the most recently completed cycle

	// terminatorRow is pile 0's row of the count table, fixed for good at
	// the bootstrap cycle since pile 0 is never a cycle destination again.
	// Every later cycle's freshly rebuilt table must still carry it forward.
	terminatorRow count.Row
}

// New constructs an Engine. cfg must already be validated (beetlcfg.Load).
func New(cfg beetlcfg.Config, set *pile.Set, src cyclesource.Source) *Engine {
	return &Engine{
		cfg: cfg,
		tbl: set.Alphabet(),
		set: set,
		src: src,
		n:   src.Len(),
		m:   src.ReadLength(),
	}
}

// Triples exposes the current InsertionTripleStore, e.g. for tests asserting
// invariant 2 (the pile-0 terminator invariant) or invariant 4 (count table
// consistency) between cycles.
func (e *Engine) Triples() *triple.Store { return e.triples }

// Table exposes the LetterCountEachPile table for the most recently
// completed cycle.
func (e *Engine) Table() *count.Table { return e.table }

// Run drives the full construction end to end: bootstrap, then every
// subsequent cycle, then publication of the frozen pile segments and the
// end-pos map. ctx is checked only at cycle boundaries, per the
// concurrency model -- a cycle in flight always runs to completion.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.RunCycle0(); err != nil {
		return err
	}
	for j := 2; j <= e.m; j++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := e.RunCycle(j); err != nil {
			return err
		}
	}
	return e.finalize()
}

// finalize publishes the frozen {prefix}-B0{p} segments and writes the
// end-pos map. Pile 0 is published from the bootstrap cycle (index 0); it
// is never rewritten afterwards. Piles 1..size-1 are published from the
// last cycle produced (index m-1), or from the bootstrap cycle itself when
// m == 1 and no further cycles ran. By the last cycle, each of those
// segments already holds every earlier cycle's content copied forward plus
// this cycle's own insertions -- the full cumulative eBWT segment for that
// pile, not just its newest slice -- so publishing is a plain rename.
func (e *Engine) finalize() error {
	lastCycle := e.m - 1
	if lastCycle < 0 {
		lastCycle = 0
	}
	paths := e.set.Paths()
	if err := renameOne(paths.BWTPath(0, alphabet.Terminator), paths.FinalBWTPath(alphabet.Terminator)); err != nil {
		return err
	}
	for idx := 1; idx < e.tbl.Size(); idx++ {
		if err := renameOne(paths.BWTPath(lastCycle, idx), paths.FinalBWTPath(idx)); err != nil {
			return err
		}
	}

	records := make([]pile.EndPosRecord, e.n)
	for seqN := 0; seqN < e.n; seqN++ {
		records[seqN] = pile.EndPosRecord{SeqN: uint32(seqN), SubSequenceNum: 0}
	}
	return pile.WriteEndPos(paths.FinalEndPosPath(), records, 1, false)
}

func renameOne(src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		return beetlerrors.Wrap(beetlerrors.IoError, beetlerrors.NoContext, beetlerrors.NoContext,
			beetlerrors.NoOffset, err, "publish final pile segment")
	}
	return nil
}

// RunCycle0 is the bootstrap: it builds the BWT of every read's length-1
// suffix ("last base + $") directly from the CycleSource, without reading
// any prior pile segment. Pile 0 receives, in read order, every read's last
// base -- the BWT byte for the unique rotation that starts at the
// terminator, which never changes again. Every other touched pile p
// receives, in ascending assigned rank, the base that precedes the read's
// last base (or '$' for single-base reads), which is exactly the "old
// segment" RunCycle(2) will read back.
func (e *Engine) RunCycle0() error {
	lastBase, _, _, err := e.src.NextBatch(1)
	if err != nil {
		return err
	}
	precedingBase, _, exhausted, err := e.src.NextBatch(2)
	if err != nil {
		return err
	}

	e.triples = triple.New(e.n)
	e.table = count.NewTable(e.tbl.Size())
	var dollars count.Row

	pile0, err := e.set.OpenWriter(0, alphabet.Terminator)
	if err != nil {
		return err
	}
	defer pile0.Close()

	writers := make([]codec.Writer, e.tbl.Size())
	defer func() {
		for _, w := range writers {
			if w != nil {
				w.Close()
			}
		}
	}()
	nextPos := make([]uint32, e.tbl.Size())

	for r := 0; r < e.n; r++ {
		pileR, ok := e.tbl.IndexOf(lastBase[r])
		if !ok {
			return beetlerrors.At(beetlerrors.FormatError, 0, alphabet.NotInAlphabet, int64(r),
				"read %d: last base %q is not in the configured alphabet", r, lastBase[r])
		}
		if err := pile0.Write(lastBase[r:r+1], 1); err != nil {
			return err
		}
		e.table.Row(alphabet.Terminator)[mustIndex(e.tbl, lastBase[r])]++

		prev := byte('$')
		if exhausted {
			dollars[pileR]++
		} else {
			prev = precedingBase[r]
		}
		prevIdx, ok := e.tbl.IndexOf(prev)
		if !ok {
			return beetlerrors.At(beetlerrors.FormatError, 0, pileR, int64(r),
				"read %d: preceding base %q is not in the configured alphabet", r, prev)
		}

		if writers[pileR] == nil {
			w, err := e.set.OpenWriter(0, pileR)
			if err != nil {
				return err
			}
			writers[pileR] = w
		}
		if err := writers[pileR].Write([]byte{prev}, 1); err != nil {
			return err
		}
		e.table.Row(pileR)[prevIdx]++

		posR := nextPos[pileR]
		nextPos[pileR]++
		e.triples.Set(uint32(r), triple.Triple{PileN: uint32(pileR), PosN: posR, SeqN: uint32(r)})
	}

	e.dollars = dollars
	e.terminatorRow = *e.table.Row(alphabet.Terminator)
	return nil
}

func mustIndex(tbl alphabet.Table, b byte) int {
	idx, _ := tbl.IndexOf(b)
	return idx
}

// fragEntry records, within one (source pile, destination pile) fragment,
// which read each appended "inserted symbol" belongs to, in append order --
// exactly the local rank concatenation needs to recover global position.
type fragEntry struct {
	seqN uint32
}

// pileResult is one source pile's contribution to a cycle: per destination
// pile, the fragment's total length and the reads appended to it in order,
// plus the portion of the new LetterCountEachPile table this source pile
// alone produced.
type pileResult struct {
	fragLen     [alphabet.MaxSize]int
	fragEntries [alphabet.MaxSize][]fragEntry
	table       *count.Table
}

// RunCycle runs cycle j (2 <= j <= m), extending every triple's suffix by
// one more base. Source piles are processed independently (traverse.Each),
// each writing its own per-destination scratch fragment for the symbols
// this cycle inserts; a single-threaded concatenation pass at the end
// rebuilds each destination's new segment as the destination's own prior
// segment (copied forward byte for byte, oldest cycle first) followed by
// the freshly inserted fragments in ascending source-pile order -- which is
// exactly the order the finished BWT requires (entries already settled in a
// pile stay there in their existing relative order; entries newly arriving
// this cycle sort first by the pile they came from, then by their rank
// within it).
//
// Cycle 2 is the one exception: its "prior segment" is cycle 0's bootstrap
// staging, which exists only to seed pile(r) bucket membership and is never
// itself part of a published BWT segment (cycle 0 publishes pile 0 alone),
// so cycle 2 starts every non-$ pile from empty. From cycle 3 on, the prior
// segment is a real, previously-published cycle output and is always
// copied forward in full -- the mechanism that makes per-pile segments
// grow monotonically rather than being replaced cycle over cycle.
func (e *Engine) RunCycle(j int) error {
	if j < 2 || j > e.m {
		return beetlerrors.E(beetlerrors.InvariantViolation, j, beetlerrors.NoContext,
			"RunCycle called with j=%d outside [2,%d]", j, e.m)
	}
	priorCycle := j - 2
	outCycle := j - 1

	symbolsThisCycle, _, _, err := e.src.NextBatch(j)
	if err != nil {
		return err
	}
	symbolsNextCycle, _, lastCycle, err := e.src.NextBatch(j + 1)
	if err != nil {
		return err
	}

	e.triples.Sort()
	size := e.tbl.Size()

	results := make([]*pileResult, size)
	err = traverse.Limit(e.cfg.Parallelism).Each(size-1, func(widx int) error {
		pSrc := widx + 1
		res, werr := e.runSourcePile(pSrc, outCycle, symbolsThisCycle, symbolsNextCycle, lastCycle)
		if werr != nil {
			return werr
		}
		results[pSrc] = res
		return nil
	})
	if err != nil {
		return err
	}

	// copyForward is false only for cycle 2, whose "prior segment" is cycle
	// 0's bootstrap staging -- input to this cycle's bucket assignment, but
	// never itself published BWT content (see RunCycle's doc comment).
	copyForward := priorCycle > 0

	newTable := count.NewTable(size)
	*newTable.Row(alphabet.Terminator) = e.terminatorRow
	if copyForward {
		for pDst := 1; pDst < size; pDst++ {
			*newTable.Row(pDst) = *e.table.Row(pDst)
		}
	}
	for pSrc := 1; pSrc < size; pSrc++ {
		if results[pSrc] != nil {
			newTable.Add(results[pSrc].table)
		}
	}

	for pDst := 1; pDst < size; pDst++ {
		w, werr := e.set.OpenWriter(outCycle, pDst)
		if werr != nil {
			return werr
		}
		running := uint32(0)
		if copyForward {
			oldLen := int(e.table.PileLength(pDst))
			if oldLen > 0 {
				old, oerr := e.set.OpenReader(priorCycle, pDst)
				if oerr != nil {
					w.Close()
					return oerr
				}
				_, serr := old.ReadAndSend(w, oldLen)
				old.Close()
				if serr != nil && serr != io.EOF {
					w.Close()
					return serr
				}
			}
			running = uint32(oldLen)
		}
		for pSrc := 1; pSrc < size; pSrc++ {
			res := results[pSrc]
			if res == nil || res.fragLen[pDst] == 0 {
				continue
			}
			fr, rerr := e.set.OpenFragmentReader(outCycle, pSrc, pDst)
			if rerr != nil {
				w.Close()
				return rerr
			}
			if _, rerr := fr.ReadAndSend(w, res.fragLen[pDst]); rerr != nil && rerr != io.EOF {
				fr.Close()
				w.Close()
				return rerr
			}
			fr.Close()
			for _, fe := range res.fragEntries[pDst] {
				e.triples.Set(fe.seqN, triple.Triple{PileN: uint32(pDst), PosN: running, SeqN: fe.seqN})
				running++
			}
		}
		if werr := w.Close(); werr != nil {
			return beetlerrors.Wrap(beetlerrors.IoError, outCycle, pDst, beetlerrors.NoOffset, werr, "close new pile segment")
		}
	}

	e.table = newTable
	// Cycle 0 is never removed: pile 0's segment lives there until finalize,
	// untouched by every later cycle.
	if priorCycle > 0 {
		if err := e.set.Paths().RemoveCycleDir(priorCycle); err != nil {
			return beetlerrors.Wrap(beetlerrors.IoError, priorCycle, beetlerrors.NoContext, beetlerrors.NoOffset,
				err, "remove superseded cycle directory")
		}
	}
	return nil
}

// runSourcePile handles one source pile's full contribution for cycle j: it
// walks every triple currently parked there, in ascending old rank (which is
// exactly the order the rest of each read's old suffix already sorts in),
// computes each one's destination pile from the fresh CycleSource symbol,
// and appends that symbol to the destination's scratch fragment for this
// source pile. Two triples landing in the same destination preserve their
// relative order because prepending the same new symbol to two suffixes
// never changes how the remainders compare.
func (e *Engine) runSourcePile(pSrc, outCycle int, symbolsThisCycle, symbolsNextCycle []byte, lastCycle bool) (*pileResult, error) {
	start, end := e.triples.PileBounds(uint32(pSrc))
	res := &pileResult{table: count.NewTable(e.tbl.Size())}
	if start == end {
		return res, nil
	}

	writers := map[int]codec.Writer{}
	defer func() {
		for _, w := range writers {
			w.Close()
		}
	}()

	writerFor := func(pDst int) (codec.Writer, error) {
		if w, ok := writers[pDst]; ok {
			return w, nil
		}
		w, err := e.set.OpenFragmentWriter(outCycle, pSrc, pDst)
		if err != nil {
			return nil, err
		}
		writers[pDst] = w
		return w, nil
	}

	for i := start; i < end; i++ {
		t := e.triples.At(i)

		cNew := symbolsThisCycle[t.SeqN]
		pDst, ok := e.tbl.IndexOf(cNew)
		if !ok {
			return nil, beetlerrors.At(beetlerrors.FormatError, outCycle, pSrc, int64(t.SeqN),
				"read %d: symbol %q is not in the configured alphabet", t.SeqN, cNew)
		}

		var inserted byte
		if lastCycle {
			inserted = '$'
		} else {
			inserted = symbolsNextCycle[t.SeqN]
		}
		insIdx, ok := e.tbl.IndexOf(inserted)
		if !ok {
			return nil, beetlerrors.At(beetlerrors.FormatError, outCycle, pSrc, int64(t.SeqN),
				"read %d: inserted symbol %q is not in the configured alphabet", t.SeqN, inserted)
		}

		w, err := writerFor(pDst)
		if err != nil {
			return nil, err
		}
		if err := w.WriteRun(inserted, 1); err != nil {
			return nil, err
		}
		res.table.Row(pDst)[insIdx]++

		res.fragLen[pDst]++
		res.fragEntries[pDst] = append(res.fragEntries[pDst], fragEntry{seqN: t.SeqN})
	}

	return res, nil
}
