package codec

import (
	"io"

	"github.com/grailbio/beetl/alphabet"
	"github.com/grailbio/beetl/count"
)

// RLE44 wire format (frozen, see spec §4.2/§6): one byte per run, low nibble
// = alphabet index (0..15), high nibble = count-1 (0..15), giving runs of
// 1..16 identical symbols. Runs longer than 16 are emitted as consecutive
// max-count (high nibble 0xF) bytes of the same symbol, followed by a final
// byte with the residual count-1. Do not swap the nibble order: it is part
// of the on-disk format.
const (
	rle44MaxRun = 16
)

func rle44Encode(symbolIdx int, runLen int) byte {
	return byte((runLen-1)<<4) | byte(symbolIdx)
}

func rle44Decode(b byte) (symbolIdx int, runLen int) {
	return int(b & 0x0F), int(b>>4) + 1
}

// RLE44Reader decodes an RLE-4/4 partial BWT segment. It keeps "current
// symbol, remaining run length" state so ReadAndCount over a partial run is
// O(1) in the run length, not in the number of symbols it represents.
type RLE44Reader struct {
	tbl alphabet.Table
	src io.ReadSeeker

	curSymbol byte
	curIdx    int
	remaining int // symbols left in the currently-decoded run
	pos       int64
	eof       bool

	pending     bool
	pendingByte byte
}

// NewRLE44Reader wraps src.
func NewRLE44Reader(tbl alphabet.Table, src io.ReadSeeker) *RLE44Reader {
	return &RLE44Reader{tbl: tbl, src: src}
}

// readRunByte returns the next raw run byte, honouring a one-byte pushback
// left over from advance() stitching split runs.
func (r *RLE44Reader) readRunByte() (byte, bool, error) {
	if r.pending {
		r.pending = false
		return r.pendingByte, true, nil
	}
	var b [1]byte
	n, err := r.src.Read(b[:])
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, false, err
	}
	return b[0], true, nil
}

func (r *RLE44Reader) ReadAndCount(counts *count.Row, n int) (int, error) {
	got := 0
	for got < n {
		if r.remaining == 0 {
			if err := r.advance(); err != nil {
				if err == io.EOF {
					return got, io.EOF
				}
				return got, err
			}
		}
		take := n - got
		if take > r.remaining {
			take = r.remaining
		}
		counts[r.curIdx] += uint64(take)
		r.remaining -= take
		got += take
		r.pos += int64(take)
	}
	return got, nil
}

func (r *RLE44Reader) ReadAndSend(w Writer, n int) (int, error) {
	got := 0
	for got < n {
		if r.remaining == 0 {
			if err := r.advance(); err != nil {
				if err == io.EOF {
					return got, io.EOF
				}
				return got, err
			}
		}
		take := n - got
		if take > r.remaining {
			take = r.remaining
		}
		if err := w.WriteRun(r.curSymbol, take); err != nil {
			return got, err
		}
		r.remaining -= take
		got += take
		r.pos += int64(take)
	}
	return got, nil
}

func (r *RLE44Reader) ReadBytes(buf []byte) (int, error) {
	got := 0
	for got < len(buf) {
		if r.remaining == 0 {
			if err := r.advance(); err != nil {
				if err == io.EOF {
					return got, io.EOF
				}
				return got, err
			}
		}
		take := len(buf) - got
		if take > r.remaining {
			take = r.remaining
		}
		for i := 0; i < take; i++ {
			buf[got+i] = r.curSymbol
		}
		r.remaining -= take
		got += take
		r.pos += int64(take)
	}
	return got, nil
}

func (r *RLE44Reader) Rewind() error {
	if _, err := r.src.Seek(0, io.SeekStart); err != nil {
		return err
	}
	r.remaining = 0
	r.pos = 0
	r.eof = false
	r.pending = false
	return nil
}

func (r *RLE44Reader) Tell() int64 { return r.pos }

// advance decodes the next run(s) into curSymbol/remaining, stitching split
// runs of the same symbol together.
func (r *RLE44Reader) advance() error {
	b, ok, err := r.readRunByte()
	if !ok {
		if err == io.EOF {
			return io.EOF
		}
		return beetlerrorsWrap(err)
	}
	idx, runLen := rle44Decode(b)
	if idx >= r.tbl.Size() {
		return formatErr(r.tbl, b)
	}
	r.curIdx = idx
	r.curSymbol = r.tbl.SymbolAt(idx)
	r.remaining = runLen
	for runLen == rle44MaxRun {
		b2, ok2, err2 := r.readRunByte()
		if !ok2 {
			break
		}
		idx2, runLen2 := rle44Decode(b2)
		if idx2 != idx {
			r.pending = true
			r.pendingByte = b2
			break
		}
		r.remaining += runLen2
		runLen = runLen2
		_ = err2
	}
	return nil
}

// RLE44Writer encodes symbols as RLE-4/4 runs. Writes are additive: a call
// whose symbol matches the run still buffered from the previous call extends
// that run, so adjacent Write/WriteRun calls of the same symbol coalesce into
// long runs.
type RLE44Writer struct {
	tbl alphabet.Table
	dst io.WriteCloser

	haveBuffered bool
	bufSymbol    byte
	bufIdx       int
	bufCount     int
}

// NewRLE44Writer wraps dst. dst is closed, after flushing any buffered run,
// by Close.
func NewRLE44Writer(tbl alphabet.Table, dst io.WriteCloser) *RLE44Writer {
	return &RLE44Writer{tbl: tbl, dst: dst}
}

func (w *RLE44Writer) Write(symbols []byte, n int) error {
	for i := 0; i < n; i++ {
		if err := w.writeOne(symbols[i]); err != nil {
			return err
		}
	}
	return nil
}

func (w *RLE44Writer) writeOne(symbol byte) error {
	idx, ok := w.tbl.IndexOf(symbol)
	if !ok {
		return formatErr(w.tbl, symbol)
	}
	return w.WriteRun(w.tbl.SymbolAt(idx), 1)
}

func (w *RLE44Writer) WriteRun(symbol byte, runLen int) error {
	if runLen == 0 {
		return nil
	}
	idx, ok := w.tbl.IndexOf(symbol)
	if !ok {
		return formatErr(w.tbl, symbol)
	}
	if w.haveBuffered && w.bufIdx == idx && w.bufCount < rle44MaxRun {
		room := rle44MaxRun - w.bufCount
		take := runLen
		if take > room {
			take = room
		}
		w.bufCount += take
		runLen -= take
		if w.bufCount == rle44MaxRun {
			if err := w.flushBuffered(); err != nil {
				return err
			}
		}
	}
	for runLen > 0 {
		if w.haveBuffered {
			if err := w.flushBuffered(); err != nil {
				return err
			}
		}
		take := runLen
		if take > rle44MaxRun {
			take = rle44MaxRun
		}
		w.haveBuffered = true
		w.bufSymbol = symbol
		w.bufIdx = idx
		w.bufCount = take
		runLen -= take
		if take == rle44MaxRun {
			if err := w.flushBuffered(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *RLE44Writer) flushBuffered() error {
	if !w.haveBuffered {
		return nil
	}
	b := rle44Encode(w.bufIdx, w.bufCount)
	if _, err := w.dst.Write([]byte{b}); err != nil {
		return beetlerrorsWrap(err)
	}
	w.haveBuffered = false
	w.bufCount = 0
	return nil
}

func (w *RLE44Writer) Close() error {
	if err := w.flushBuffered(); err != nil {
		return err
	}
	return w.dst.Close()
}
