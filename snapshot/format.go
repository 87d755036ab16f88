package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	magic      = "XSNP"
	version    = 1
	headerSize = 64

	symbolSize   = 16
	clusterSize  = 12
	memberSize   = 4
	slotSize     = 4
	mnemonicSize = 8

	noCluster = ^uint32(0)
)

var (
	ErrInvalidMagic   = errors.New("snapshot: invalid magic")
	ErrInvalidVersion = errors.New("snapshot: invalid version")
	ErrChecksum       = errors.New("snapshot: checksum mismatch")
	ErrCorrupt        = errors.New("snapshot: corrupt layout")
	ErrClosed         = errors.New("snapshot: closed")
)

type header struct {
	Symbols   uint32
	Clusters  uint32
	Members   uint32
	Mnemonics uint32
	Slots     uint32
	Checksum  uint32
	HeapSize  uint64
}

func (h *header) encode() []byte {
	b := make([]byte, headerSize)
	copy(b[0:4], magic)
	binary.LittleEndian.PutUint32(b[4:], version)
	binary.LittleEndian.PutUint32(b[8:], h.Symbols)
	binary.LittleEndian.PutUint32(b[12:], h.Clusters)
	binary.LittleEndian.PutUint32(b[16:], h.Members)
	binary.LittleEndian.PutUint32(b[20:], h.Mnemonics)
	binary.LittleEndian.PutUint32(b[24:], h.Slots)
	binary.LittleEndian.PutUint32(b[28:], h.Checksum)
	binary.LittleEndian.PutUint64(b[32:], h.HeapSize)
	return b
}

func decodeHeader(b []byte) (*header, error) {
	if len(b) < headerSize {
		return nil, fmt.Errorf("%w: file too small (%d < %d)", ErrCorrupt, len(b), headerSize)
	}
	if string(b[0:4]) != magic {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidMagic, b[0:4])
	}
	if v := binary.LittleEndian.Uint32(b[4:]); v != version {
		return nil, fmt.Errorf("%w: got %d (expected %d)", ErrInvalidVersion, v, version)
	}
	return &header{
		Symbols:   binary.LittleEndian.Uint32(b[8:]),
		Clusters:  binary.LittleEndian.Uint32(b[12:]),
		Members:   binary.LittleEndian.Uint32(b[16:]),
		Mnemonics: binary.LittleEndian.Uint32(b[20:]),
		Slots:     binary.LittleEndian.Uint32(b[24:]),
		Checksum:  binary.LittleEndian.Uint32(b[28:]),
		HeapSize:  binary.LittleEndian.Uint64(b[32:]),
	}, nil
}

func pad4(n uint64) uint64 { return (n + 3) &^ 3 }

// bodySize returns the expected body length for h.
func (h *header) bodySize() uint64 {
	return pad4(h.HeapSize) +
		uint64(h.Symbols)*symbolSize +
		uint64(h.Clusters)*clusterSize +
		uint64(h.Members)*memberSize +
		uint64(h.Slots)*slotSize +
		uint64(h.Mnemonics)*mnemonicSize
}

// indexSlots returns the next power of two >= 2*n (minimum 1).
func indexSlots(n int) uint32 {
	slots := uint32(1)
	for uint64(slots) < 2*uint64(n) {
		slots <<= 1
	}
	return slots
}
