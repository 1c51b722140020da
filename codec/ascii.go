package codec

import (
	"bufio"
	"io"

	"github.com/grailbio/beetl/alphabet"
	"github.com/grailbio/beetl/count"
)

// ASCIIReader reads a partial BWT segment encoded one raw byte per symbol.
type ASCIIReader struct {
	tbl alphabet.Table
	src io.ReadSeeker
	r   *bufio.Reader
	pos int64
}

// NewASCIIReader wraps src, which must also implement io.Seeker so Rewind
// works between cycles.
func NewASCIIReader(tbl alphabet.Table, src io.ReadSeeker) *ASCIIReader {
	return &ASCIIReader{tbl: tbl, src: src, r: bufio.NewReader(src)}
}

func (a *ASCIIReader) ReadAndCount(counts *count.Row, n int) (int, error) {
	buf := make([]byte, n)
	got, err := io.ReadFull(a.r, buf)
	for i := 0; i < got; i++ {
		idx, ok := a.tbl.IndexOf(buf[i])
		if !ok {
			return i, formatErr(a.tbl, buf[i])
		}
		counts[idx]++
	}
	a.pos += int64(got)
	return got, normalizeEOF(err, got, n)
}

func (a *ASCIIReader) ReadAndSend(w Writer, n int) (int, error) {
	buf := make([]byte, n)
	got, err := io.ReadFull(a.r, buf)
	if got > 0 {
		if werr := w.Write(buf, got); werr != nil {
			return got, werr
		}
	}
	a.pos += int64(got)
	return got, normalizeEOF(err, got, n)
}

func (a *ASCIIReader) ReadBytes(buf []byte) (int, error) {
	got, err := io.ReadFull(a.r, buf)
	a.pos += int64(got)
	return got, normalizeEOF(err, got, len(buf))
}

func (a *ASCIIReader) Rewind() error {
	if _, err := a.src.Seek(0, io.SeekStart); err != nil {
		return err
	}
	a.r.Reset(a.src)
	a.pos = 0
	return nil
}

func (a *ASCIIReader) Tell() int64 { return a.pos }

func normalizeEOF(err error, got, want int) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		if got < want {
			return io.EOF
		}
		return nil
	}
	return err
}

// ASCIIWriter appends raw symbols to an underlying io.Writer.
type ASCIIWriter struct {
	tbl alphabet.Table
	dst io.WriteCloser
}

// NewASCIIWriter wraps dst. dst is closed by Close.
func NewASCIIWriter(tbl alphabet.Table, dst io.WriteCloser) *ASCIIWriter {
	return &ASCIIWriter{tbl: tbl, dst: dst}
}

func (a *ASCIIWriter) Write(symbols []byte, n int) error {
	if n == 0 {
		return nil
	}
	got, err := a.dst.Write(symbols[:n])
	if err != nil {
		return beetlerrorsWrap(err)
	}
	if got != n {
		return shortWrite(got, n)
	}
	return nil
}

func (a *ASCIIWriter) WriteRun(symbol byte, runLen int) error {
	if runLen == 0 {
		return nil
	}
	const chunk = 4096
	buf := make([]byte, chunk)
	for i := range buf {
		buf[i] = symbol
	}
	remaining := runLen
	for remaining > 0 {
		n := remaining
		if n > chunk {
			n = chunk
		}
		if err := a.Write(buf, n); err != nil {
			return err
		}
		remaining -= n
	}
	return nil
}

func (a *ASCIIWriter) Close() error { return a.dst.Close() }
