package engine

import (
	"io"

	"github.com/grailbio/beetl/alphabet"
	"github.com/grailbio/beetl/codec"
)

// WalkPile streams every symbol of a finished pile segment, in order,
// invoking fn once per symbol with its alphabet index. Nothing in this
// module calls it; package compare counts symbols through invert.RankIndex.
func WalkPile(tbl alphabet.Table, r codec.Reader, fn func(symbolIdx int) error) error {
	buf := make([]byte, 4096)
	for {
		n, err := r.ReadBytes(buf)
		for i := 0; i < n; i++ {
			idx, ierr := tbl.MustIndexOf(buf[i])
			if ierr != nil {
				return ierr
			}
			if ferr := fn(idx); ferr != nil {
				return ferr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}
