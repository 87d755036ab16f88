package recordio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/xref/internal/hash"
)

const (
	fileMagic      = "XREFRECS"
	fileVersion    = 1
	fileHeaderSize = 16

	recordHeaderSize = 4 + 8 + 4 + 4
	maxRecordSize    = 64 << 20
)

var (
	ErrInvalidCRC          = errors.New("recordio: invalid record checksum")
	ErrInvalidHeader       = errors.New("recordio: invalid file header")
	ErrIncompatibleVersion = errors.New("recordio: incompatible file version")
	ErrRecordTooLarge      = errors.New("recordio: record too large")
	ErrUnknownCompression  = errors.New("recordio: unknown compression")
	ErrCorrupt             = errors.New("recordio: corrupt record")
	ErrClosed              = errors.New("recordio: closed")
)

// Record is one key/version/value entry of a record file.
type Record struct {
	Key     []byte
	Version uint64
	Value   []byte
}

func encodeFileHeader(c Compression) []byte {
	header := make([]byte, fileHeaderSize)
	copy(header[0:8], fileMagic)
	binary.LittleEndian.PutUint32(header[8:12], fileVersion)
	header[12] = byte(c)
	return header
}

func decodeFileHeader(header []byte) (Compression, error) {
	if string(header[0:8]) != fileMagic {
		return 0, fmt.Errorf("%w: magic %q", ErrInvalidHeader, header[0:8])
	}
	if v := binary.LittleEndian.Uint32(header[8:12]); v != fileVersion {
		return 0, fmt.Errorf("%w: version %d (expected %d)", ErrIncompatibleVersion, v, fileVersion)
	}
	c := Compression(header[12])
	if c > CompressionZSTD {
		return 0, fmt.Errorf("%w: %d", ErrUnknownCompression, c)
	}
	return c, nil
}

// encodeRecord writes a record whose value is already in stored form.
func encodeRecord(w io.Writer, key []byte, version uint64, stored []byte) (int, error) {
	if len(key)+len(stored) > maxRecordSize {
		return 0, ErrRecordTooLarge
	}

	var header [recordHeaderSize]byte
	binary.LittleEndian.PutUint64(header[4:], version)
	binary.LittleEndian.PutUint32(header[12:], uint32(len(key)))
	binary.LittleEndian.PutUint32(header[16:], uint32(len(stored)))

	crc := hash.ExtendCRC32C(0, header[4:])
	crc = hash.ExtendCRC32C(crc, key)
	crc = hash.ExtendCRC32C(crc, stored)
	binary.LittleEndian.PutUint32(header[0:], crc)

	if _, err := w.Write(header[:]); err != nil {
		return 0, err
	}
	if _, err := w.Write(key); err != nil {
		return 0, err
	}
	if _, err := w.Write(stored); err != nil {
		return 0, err
	}
	return recordHeaderSize + len(key) + len(stored), nil
}

// decodeRecord reads one record; the value is returned in stored form.
// io.EOF is returned only if r is exhausted before the first byte.
func decodeRecord(r io.Reader) (*Record, int64, error) {
	var header [recordHeaderSize]byte
	if n, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) && n == 0 {
			return nil, 0, io.EOF
		}
		return nil, int64(n), fmt.Errorf("%w: truncated header: %w", ErrCorrupt, err)
	}

	checksum := binary.LittleEndian.Uint32(header[0:])
	version := binary.LittleEndian.Uint64(header[4:])
	keyLen := binary.LittleEndian.Uint32(header[12:])
	valueLen := binary.LittleEndian.Uint32(header[16:])

	if uint64(keyLen)+uint64(valueLen) > maxRecordSize {
		return nil, recordHeaderSize, ErrRecordTooLarge
	}

	body := make([]byte, int(keyLen)+int(valueLen))
	if n, err := io.ReadFull(r, body); err != nil {
		return nil, recordHeaderSize + int64(n), fmt.Errorf("%w: truncated body: %w", ErrCorrupt, err)
	}
	size := int64(recordHeaderSize + len(body))

	crc := hash.ExtendCRC32C(0, header[4:])
	crc = hash.ExtendCRC32C(crc, body)
	if crc != checksum {
		return nil, size, ErrInvalidCRC
	}

	return &Record{
		Key:     body[:keyLen:keyLen],
		Version: version,
		Value:   body[keyLen:],
	}, size, nil
}
