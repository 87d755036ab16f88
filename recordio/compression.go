package recordio

import (
	"encoding/binary"
	"fmt"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects how record values are stored.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionLZ4  Compression = 1
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression parses "none", "lz4" or "zstd" (case-insensitive).
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCompression, s)
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithEncoderConcurrency(1))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	return dec
}

const blockHeaderSize = 8

// pack returns the stored form of value.
func pack(c Compression, value []byte) ([]byte, error) {
	if c == CompressionNone {
		return value, nil
	}

	var packed []byte
	switch c {
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(value)))
		n, err := lz4.CompressBlock(value, buf, nil)
		if err != nil {
			return nil, err
		}
		packed = buf[:n]
	case CompressionZSTD:
		enc := getZstdEncoder()
		packed = enc.EncodeAll(value, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, c)
	}

	// Incompressible input (lz4 reports n == 0) is stored raw.
	raw := len(packed) == 0 || len(packed) >= len(value)
	if raw {
		packed = value
	}

	out := make([]byte, blockHeaderSize+len(packed))
	binary.LittleEndian.PutUint32(out[0:], uint32(len(value)))
	if !raw {
		binary.LittleEndian.PutUint32(out[4:], uint32(len(packed)))
	}
	copy(out[blockHeaderSize:], packed)
	return out, nil
}

// unpack reverses pack.
func unpack(c Compression, stored []byte) ([]byte, error) {
	if c == CompressionNone {
		return stored, nil
	}
	if len(stored) < blockHeaderSize {
		return nil, fmt.Errorf("%w: block too small", ErrCorrupt)
	}

	rawLen := binary.LittleEndian.Uint32(stored[0:])
	packedLen := binary.LittleEndian.Uint32(stored[4:])
	data := stored[blockHeaderSize:]

	if packedLen == 0 {
		if uint32(len(data)) != rawLen {
			return nil, fmt.Errorf("%w: raw block size mismatch", ErrCorrupt)
		}
		return data, nil
	}
	if uint32(len(data)) != packedLen {
		return nil, fmt.Errorf("%w: packed block size mismatch", ErrCorrupt)
	}
	if rawLen > maxRecordSize {
		return nil, ErrRecordTooLarge
	}

	out := make([]byte, rawLen)
	switch c {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint32(n) != rawLen {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return out, nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		decoded, err := dec.DecodeAll(data, out[:0])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint32(len(decoded)) != rawLen {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, c)
	}
}
