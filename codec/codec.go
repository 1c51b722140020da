// Package codec implements the interchangeable partial-BWT segment formats:
// one byte per symbol (ASCII), 4-bit-count/4-bit-symbol run length (RLE44),
// and a wider-count variant (RLE53). All three satisfy the same Reader and
// Writer contracts so the cycle engine in package engine never needs to know
// which codec backs a given pile.
package codec

import (
	"io"

	"github.com/grailbio/beetl/alphabet"
	"github.com/grailbio/beetl/beetlerrors"
	"github.com/grailbio/beetl/count"
)

// Reader consumes a partial BWT segment. Implementations are not safe for
// concurrent use by multiple goroutines; each cursor over a pile needs its
// own Reader.
type Reader interface {
	// ReadAndCount consumes up to n symbols, tallying each into counts
	// (indexed by alphabet index) and returns the number actually consumed.
	// nRead < n is only valid at EOF.
	ReadAndCount(counts *count.Row, n int) (nRead int, err error)
	// ReadAndSend consumes up to n symbols and appends them to w.
	ReadAndSend(w Writer, n int) (nRead int, err error)
	// ReadBytes materialises up to len(buf) raw symbols into buf.
	ReadBytes(buf []byte) (nRead int, err error)
	// Rewind resets the reader to the start of the segment.
	Rewind() error
	// Tell returns the reader's logical position, in symbols consumed.
	Tell() int64
}

// Writer appends to a partial BWT segment. Writers are additive only:
// nothing is ever edited in place, so distinct Writers may safely target
// distinct piles concurrently.
type Writer interface {
	// Write appends n raw symbols from symbols[:n].
	Write(symbols []byte, n int) error
	// WriteRun appends a run of runLen copies of symbol. runLen may exceed
	// any single on-disk run-length field; implementations split as needed.
	WriteRun(symbol byte, runLen int) error
	// Close flushes and releases any resources the writer owns.
	Close() error
}

// Kind names a concrete codec, for configuration and on-disk metadata.
type Kind int

const (
	ASCIIKind Kind = iota
	RLE44Kind
	RLE53Kind
)

func (k Kind) String() string {
	switch k {
	case ASCIIKind:
		return "ascii"
	case RLE44Kind:
		return "rle44"
	case RLE53Kind:
		return "rle53"
	default:
		return "unknown codec"
	}
}

// shortRead turns an unexpected short read from the underlying stream into a
// structured beetlerrors.IoError, per the failure model: a codec read
// returning fewer than requested symbols is fatal unless it is EOF.
func shortRead(err error, got, want int) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return err
	}
	if err != nil {
		return beetlerrors.Wrap(beetlerrors.IoError, beetlerrors.NoContext, beetlerrors.NoContext,
			beetlerrors.NoOffset, err, "codec read")
	}
	if got < want {
		return beetlerrors.E(beetlerrors.IoError, beetlerrors.NoContext, beetlerrors.NoContext,
			"short read: got %d of %d requested symbols", got, want)
	}
	return nil
}

// formatErr reports a byte that is not part of the configured alphabet.
func formatErr(tbl alphabet.Table, b byte) error {
	return beetlerrors.E(beetlerrors.FormatError, beetlerrors.NoContext, beetlerrors.NoContext,
		"byte %q (0x%02x) is not in the configured alphabet (size %d)", b, b, tbl.Size())
}

// beetlerrorsWrap classifies an underlying I/O error from a writer.
func beetlerrorsWrap(err error) error {
	return beetlerrors.Wrap(beetlerrors.IoError, beetlerrors.NoContext, beetlerrors.NoContext,
		beetlerrors.NoOffset, err, "codec write")
}

// shortWrite reports a writer that accepted fewer bytes than requested.
func shortWrite(got, want int) error {
	return beetlerrors.E(beetlerrors.IoError, beetlerrors.NoContext, beetlerrors.NoContext,
		"short write: wrote %d of %d requested symbols", got, want)
}
