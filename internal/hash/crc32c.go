package hash

import (
	"encoding/base64"
	"encoding/binary"
	"hash"
	"hash/crc32"
	"io"
)

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// NewCRC32C returns a new CRC32-Castagnoli hash.Hash32.
func NewCRC32C() hash.Hash32 {
	return crc32.New(crc32cTable)
}

// Base64CRC32C returns the big-endian checksum of data encoded in base64,
// the form object stores expect in checksum headers.
func Base64CRC32C(data []byte) string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], CRC32C(data))

	return base64.StdEncoding.EncodeToString(b[:])
}

// Writer checksums everything written through it.
type Writer struct {
	w io.Writer
	h hash.Hash32
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, h: NewCRC32C()}
}

func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.h.Write(p[:n])

	return n, err
}

// Sum32 returns the checksum of the bytes written so far.
func (w *Writer) Sum32() uint32 { return w.h.Sum32() }
