package blobkv

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/hupe1980/blobkv/bloblog"
	"github.com/hupe1980/blobkv/internal/hash"
)

// Key file layout, little endian:
//
//	{ [1][key1 i64][key2 i64][version u32][offset u64] }* [0][crc32c u32]
//
// The checksum covers every byte before it, including the end marker.
const (
	tagItem     = 1
	tagEnd      = 0
	keyRecSize  = 1 + 8 + 8 + 4 + 8
	trailerSize = 1 + 4
)

type keyRecord struct {
	key1, key2 int64
	version    uint32
	handle     bloblog.Handle
}

func encodeKeyFile(recs []keyRecord) []byte {
	var buf bytes.Buffer
	buf.Grow(len(recs)*keyRecSize + trailerSize)

	w := hash.NewWriter(&buf)

	var rec [keyRecSize]byte
	for _, r := range recs {
		rec[0] = tagItem
		binary.LittleEndian.PutUint64(rec[1:], uint64(r.key1))
		binary.LittleEndian.PutUint64(rec[9:], uint64(r.key2))
		binary.LittleEndian.PutUint32(rec[17:], r.version)
		binary.LittleEndian.PutUint64(rec[21:], uint64(r.handle))
		_, _ = w.Write(rec[:])
	}
	_, _ = w.Write([]byte{tagEnd})

	return binary.LittleEndian.AppendUint32(buf.Bytes(), w.Sum32())
}

// decodeKeyFile parses a key file. An empty input is an empty table.
func decodeKeyFile(data []byte) ([]keyRecord, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var recs []keyRecord

	off := 0
	for {
		if off >= len(data) {
			return nil, fmt.Errorf("%w: missing end marker", ErrCorruptKeyFile)
		}

		switch data[off] {
		case tagItem:
			if len(data)-off < keyRecSize {
				return nil, fmt.Errorf("%w: truncated record at %d", ErrCorruptKeyFile, off)
			}
			rec := data[off : off+keyRecSize]
			recs = append(recs, keyRecord{
				key1:    int64(binary.LittleEndian.Uint64(rec[1:])),
				key2:    int64(binary.LittleEndian.Uint64(rec[9:])),
				version: binary.LittleEndian.Uint32(rec[17:]),
				handle:  bloblog.Handle(binary.LittleEndian.Uint64(rec[21:])),
			})
			off += keyRecSize
		case tagEnd:
			if len(data)-off != trailerSize {
				return nil, fmt.Errorf("%w: %d bytes after end marker", ErrCorruptKeyFile, len(data)-off-1)
			}
			want := binary.LittleEndian.Uint32(data[off+1:])
			if got := hash.CRC32C(data[:off+1]); got != want {
				return nil, fmt.Errorf("%w: checksum %08x, want %08x", ErrCorruptKeyFile, got, want)
			}
			return recs, nil
		default:
			return nil, fmt.Errorf("%w: bad tag %d at %d", ErrCorruptKeyFile, data[off], off)
		}
	}
}
