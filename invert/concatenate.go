package invert

import (
	"io"

	"github.com/grailbio/beetl/beetlerrors"
	"github.com/grailbio/beetl/pile"
)

// Concatenate walks piles 0..|Σ|-1 and streams their finalized BWT segments
// into w, in pile order, per spec §4.7. It always re-decodes through set's
// own codec and emits raw alphabet bytes, which doubles as the optional
// codec-conversion step: wrap w in a different codec.Writer upstream (or
// write raw if w is an io.Writer sink) to land in a different wire format
// than the one the construction used.
func Concatenate(set *pile.Set, w io.Writer) error {
	tbl := set.Alphabet()
	buf := make([]byte, 64*1024)
	for idx := 0; idx < tbl.Size(); idx++ {
		if err := concatenateOne(set, idx, w, buf); err != nil {
			return err
		}
	}
	return nil
}

func concatenateOne(set *pile.Set, idx int, w io.Writer, buf []byte) error {
	r, err := set.OpenFinalReader(idx)
	if err != nil {
		return err
	}
	defer r.Close()
	for {
		n, rerr := r.ReadBytes(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return beetlerrors.Wrap(beetlerrors.IoError, beetlerrors.NoContext, idx, beetlerrors.NoOffset,
					werr, "write concatenated pile segment")
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return rerr
		}
		if n == 0 {
			return nil
		}
	}
}
