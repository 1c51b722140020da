package pile

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/grailbio/beetl/beetlerrors"
)

// EndPosRecord is one record of the frozen {prefix}-end-pos layout: the
// original sequence id and sub-sequence number of the read whose
// terminator sits at a given rank within pile 0.
type EndPosRecord struct {
	SeqN           uint32
	SubSequenceNum uint8
}

// WriteEndPos serialises the end-pos mapping per §6: a 4-byte n, a 1-byte
// subSequenceCount, a 1-byte hasRevComp flag, followed by n
// (seqN uint32, subSequenceNum uint8) records in pile-0 rank order.
func WriteEndPos(path string, records []EndPosRecord, subSequenceCount uint8, hasRevComp bool) error {
	f, err := os.Create(path)
	if err != nil {
		return beetlerrors.Wrap(beetlerrors.IoError, beetlerrors.NoContext, 0, beetlerrors.NoOffset,
			err, "create end-pos file")
	}
	defer f.Close()

	var hdr [6]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(len(records)))
	hdr[4] = subSequenceCount
	if hasRevComp {
		hdr[5] = 1
	}
	if _, err := f.Write(hdr[:]); err != nil {
		return beetlerrors.Wrap(beetlerrors.IoError, beetlerrors.NoContext, 0, beetlerrors.NoOffset, err, "write end-pos header")
	}
	buf := make([]byte, 5*len(records))
	for i, r := range records {
		off := i * 5
		binary.LittleEndian.PutUint32(buf[off:], r.SeqN)
		buf[off+4] = r.SubSequenceNum
	}
	if _, err := f.Write(buf); err != nil {
		return beetlerrors.Wrap(beetlerrors.IoError, beetlerrors.NoContext, 0, beetlerrors.NoOffset, err, "write end-pos records")
	}
	return nil
}

// ReadEndPos parses a §6 end-pos file.
func ReadEndPos(path string) (records []EndPosRecord, subSequenceCount uint8, hasRevComp bool, err error) {
	f, ferr := os.Open(path)
	if ferr != nil {
		return nil, 0, false, beetlerrors.Wrap(beetlerrors.IoError, beetlerrors.NoContext, 0, beetlerrors.NoOffset,
			ferr, "open end-pos file")
	}
	defer f.Close()

	var hdr [6]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		return nil, 0, false, beetlerrors.Wrap(beetlerrors.FormatError, beetlerrors.NoContext, 0, beetlerrors.NoOffset,
			err, "read end-pos header")
	}
	n := binary.LittleEndian.Uint32(hdr[0:4])
	subSequenceCount = hdr[4]
	hasRevComp = hdr[5] != 0
	buf := make([]byte, 5*int(n))
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, 0, false, beetlerrors.Wrap(beetlerrors.FormatError, beetlerrors.NoContext, 0, beetlerrors.NoOffset,
			err, "read end-pos records")
	}
	records = make([]EndPosRecord, n)
	for i := range records {
		off := i * 5
		records[i].SeqN = binary.LittleEndian.Uint32(buf[off:])
		records[i].SubSequenceNum = buf[off+4]
	}
	return records, subSequenceCount, hasRevComp, nil
}
