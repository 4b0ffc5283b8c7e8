// Package compress frames blob payloads with an optional block codec.
//
// An encoded block is
//
//	[raw length u32][stored length u32][stored bytes]
//
// where a stored length of 0 means the bytes are kept uncompressed. The
// codec itself is not recorded; readers must be configured with the same
// Type the writer used.
package compress

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type selects a codec.
type Type uint8

const (
	None Type = iota
	LZ4
	ZSTD
)

func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compress.Type(%d)", uint8(t))
	}
}

// ParseType maps "none", "lz4" or "zstd" to a Type.
func ParseType(s string) (Type, error) {
	switch s {
	case "", "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return ZSTD, nil
	default:
		return None, fmt.Errorf("compress: unknown codec %q", s)
	}
}

// ErrCorrupt is returned when a block cannot be decoded.
var ErrCorrupt = errors.New("compress: corrupt block")

const headerSize = 8

// minSavings is the fraction a codec must shave off before its output is kept.
const minSavings = 0.9

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}

	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))

	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}

	dec, _ := zstd.NewReader(nil)

	return dec
}

// Encode frames data with codec t. With None the data is returned as is.
func Encode(t Type, data []byte) ([]byte, error) {
	if t == None {
		return data, nil
	}

	var packed []byte

	switch t {
	case LZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))

		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}

		packed = buf[:n]
	case ZSTD:
		enc := getZstdEncoder()
		packed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("compress: unsupported codec %v", t)
	}

	stored := uint32(len(packed))
	if len(packed) == 0 || float64(len(packed)) > float64(len(data))*minSavings {
		packed, stored = data, 0
	}

	out := make([]byte, headerSize+len(packed))
	binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[4:], stored)
	copy(out[headerSize:], packed)

	return out, nil
}

// Decode reverses Encode.
func Decode(t Type, block []byte) ([]byte, error) {
	if t == None {
		return block, nil
	}

	if len(block) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrCorrupt, len(block))
	}

	raw := binary.LittleEndian.Uint32(block[0:])
	stored := binary.LittleEndian.Uint32(block[4:])
	body := block[headerSize:]

	if stored == 0 {
		if uint64(len(body)) != uint64(raw) {
			return nil, fmt.Errorf("%w: stored length mismatch", ErrCorrupt)
		}

		return body, nil
	}

	if uint64(len(body)) != uint64(stored) {
		return nil, fmt.Errorf("%w: compressed length mismatch", ErrCorrupt)
	}

	out := make([]byte, raw)

	switch t {
	case LZ4:
		n, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}

		if uint32(n) != raw {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}

		return out, nil
	case ZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)

		decoded, err := dec.DecodeAll(body, out[:0])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}

		if uint32(len(decoded)) != raw {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}

		return decoded, nil
	default:
		return nil, fmt.Errorf("compress: unsupported codec %v", t)
	}
}
