package bloblog

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// HeaderSize is the fixed size of a record header.
const HeaderSize = 17

const (
	tagDead byte = 0
	tagLive byte = 1
)

// Handle locates a record: it is the record's start offset.
type Handle uint64

// Offset returns the record's start offset.
func (h Handle) Offset() int64 { return int64(h) }

type header struct {
	live   bool
	offset uint64
	length uint64
}

func (h header) encode(buf []byte) {
	buf[0] = tagDead
	if h.live {
		buf[0] = tagLive
	}

	binary.LittleEndian.PutUint64(buf[1:], h.offset)
	binary.LittleEndian.PutUint64(buf[9:], h.length)
}

// readHeader reads and validates the header of the record at off in a log
// whose logical end is end.
func readHeader(r io.ReaderAt, off, end int64) (header, error) {
	if off < 0 || off+HeaderSize > end {
		return header{}, fmt.Errorf("%w: header at %d beyond end %d", ErrCorruptRecord, off, end)
	}

	var buf [HeaderSize]byte
	if _, err := r.ReadAt(buf[:], off); err != nil {
		return header{}, ioError("read header", off, err)
	}

	h := header{
		live:   buf[0] == tagLive,
		offset: binary.LittleEndian.Uint64(buf[1:]),
		length: binary.LittleEndian.Uint64(buf[9:]),
	}

	switch {
	case buf[0] != tagLive && buf[0] != tagDead:
		return header{}, fmt.Errorf("%w: bad tag %#x at %d", ErrCorruptRecord, buf[0], off)
	case h.offset != uint64(off):
		return header{}, fmt.Errorf("%w: record at %d claims offset %d", ErrCorruptRecord, off, h.offset)
	case h.length < HeaderSize:
		return header{}, fmt.Errorf("%w: record at %d has length %d", ErrCorruptRecord, off, h.length)
	case h.length > uint64(end-off):
		return header{}, fmt.Errorf("%w: record at %d overruns end %d", ErrCorruptRecord, off, end)
	}

	return h, nil
}

// readPayload returns the stored payload bytes of the record described by h.
func readPayload(r io.ReaderAt, h header) ([]byte, error) {
	buf := make([]byte, h.length-HeaderSize)
	if len(buf) == 0 {
		return buf, nil
	}

	if _, err := r.ReadAt(buf, int64(h.offset)+HeaderSize); err != nil {
		return nil, ioError("read payload", int64(h.offset), err)
	}

	return buf, nil
}

func ioError(op string, off int64, err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}

	return fmt.Errorf("%w: %s at %d: %w", ErrIO, op, off, err)
}

// RecordInfo describes one record seen by a scan.
type RecordInfo struct {
	Handle Handle
	Live   bool
	// Length is the full record length including the header.
	Length uint64
}

// PayloadLen returns the stored payload size.
func (ri RecordInfo) PayloadLen() uint64 { return ri.Length - HeaderSize }

// scan walks the records in [0, end) and calls fn for each.
func scan(r io.ReaderAt, end int64, fn func(RecordInfo) error) error {
	for off := int64(0); off < end; {
		h, err := readHeader(r, off, end)
		if err != nil {
			return err
		}

		if err := fn(RecordInfo{Handle: Handle(off), Live: h.live, Length: h.length}); err != nil {
			return err
		}

		off += int64(h.length)
	}

	return nil
}
