package codec

import (
	"io"

	"github.com/grailbio/beetl/alphabet"
	"github.com/grailbio/beetl/beetlerrors"
)

// NewReader opens a Reader of the given kind over src.
func NewReader(kind Kind, tbl alphabet.Table, src io.ReadSeeker) (Reader, error) {
	switch kind {
	case ASCIIKind:
		return NewASCIIReader(tbl, src), nil
	case RLE44Kind:
		return NewRLE44Reader(tbl, src), nil
	case RLE53Kind:
		return NewRLE53Reader(tbl, src), nil
	default:
		return nil, beetlerrors.E(beetlerrors.ConfigError, beetlerrors.NoContext, beetlerrors.NoContext,
			"unknown codec kind %d", kind)
	}
}

// NewWriter opens a Writer of the given kind over dst.
func NewWriter(kind Kind, tbl alphabet.Table, dst io.WriteCloser) (Writer, error) {
	switch kind {
	case ASCIIKind:
		return NewASCIIWriter(tbl, dst), nil
	case RLE44Kind:
		return NewRLE44Writer(tbl, dst), nil
	case RLE53Kind:
		return NewRLE53Writer(tbl, dst), nil
	default:
		return nil, beetlerrors.E(beetlerrors.ConfigError, beetlerrors.NoContext, beetlerrors.NoContext,
			"unknown codec kind %d", kind)
	}
}
