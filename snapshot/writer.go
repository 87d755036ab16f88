package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hupe1980/xref/frame"
	"github.com/hupe1980/xref/internal/conv"
	"github.com/hupe1980/xref/internal/hash"
)

// Write lays out the frames of store as a snapshot and writes it to w.
//
// Every frame except the mnemonics frame is a cluster: its first id is the
// canonical id and all its ids are members. The symbol table starts with the
// store's symbols in order.
func Write(w io.Writer, store *frame.Store) error {
	b, err := Encode(store)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// Encode returns the snapshot bytes for store.
func Encode(store *frame.Store) ([]byte, error) {
	l := newLayout(store.Symbols())

	var mnemonics [][2]uint32
	for _, f := range store.Frames() {
		if f.ID() == frame.MnemonicsID {
			for _, slot := range f.Slots {
				if slot.Name == frame.SlotID {
					continue
				}
				if prop, ok := slot.Value.Text(); ok {
					mnemonics = append(mnemonics, [2]uint32{l.intern(slot.Name), l.intern(prop)})
				}
			}
			continue
		}

		ids := f.IDs()
		cluster := uint32(len(l.clusters))
		l.clusters = append(l.clusters, [3]uint32{l.intern(ids[0]), uint32(len(l.members)), uint32(len(ids))})
		for _, id := range ids {
			sym := l.intern(id)
			if l.cluster[sym] != noCluster {
				return nil, fmt.Errorf("%w: id %q in more than one cluster", ErrCorrupt, id)
			}
			l.cluster[sym] = cluster
			l.members = append(l.members, sym)
		}
	}

	// Index slots store sym+1 and table offsets are uint32.
	for _, n := range []int{len(l.names) + 1, len(l.members) * memberSize, len(l.names) * symbolSize} {
		if _, err := conv.IntToUint32(n); err != nil {
			return nil, fmt.Errorf("snapshot too large: %w", err)
		}
	}
	return l.encode(mnemonics), nil
}

type layout struct {
	names    []string
	syms     map[string]uint32
	cluster  []uint32
	clusters [][3]uint32
	members  []uint32
}

func newLayout(symbols []string) *layout {
	l := &layout{
		names:   make([]string, 0, len(symbols)),
		syms:    make(map[string]uint32, len(symbols)),
		cluster: make([]uint32, 0, len(symbols)),
	}
	for _, s := range symbols {
		l.intern(s)
	}
	return l
}

func (l *layout) intern(s string) uint32 {
	if sym, ok := l.syms[s]; ok {
		return sym
	}
	sym := uint32(len(l.names))
	l.syms[s] = sym
	l.names = append(l.names, s)
	l.cluster = append(l.cluster, noCluster)
	return sym
}

func (l *layout) encode(mnemonics [][2]uint32) []byte {
	var heapSize uint64
	for _, s := range l.names {
		heapSize += uint64(len(s))
	}

	h := &header{
		Symbols:   uint32(len(l.names)),
		Clusters:  uint32(len(l.clusters)),
		Members:   uint32(len(l.members)),
		Mnemonics: uint32(len(mnemonics)),
		Slots:     indexSlots(len(l.names)),
		HeapSize:  heapSize,
	}

	body := bytes.NewBuffer(make([]byte, 0, h.bodySize()))
	offsets := make([]uint64, len(l.names))
	var off uint64
	for i, s := range l.names {
		offsets[i] = off
		body.WriteString(s)
		off += uint64(len(s))
	}
	body.Write(make([]byte, pad4(heapSize)-heapSize))

	var scratch [16]byte
	for i, s := range l.names {
		binary.LittleEndian.PutUint64(scratch[0:], offsets[i])
		binary.LittleEndian.PutUint32(scratch[8:], uint32(len(s)))
		binary.LittleEndian.PutUint32(scratch[12:], l.cluster[i])
		body.Write(scratch[:symbolSize])
	}
	for _, c := range l.clusters {
		binary.LittleEndian.PutUint32(scratch[0:], c[0])
		binary.LittleEndian.PutUint32(scratch[4:], c[1])
		binary.LittleEndian.PutUint32(scratch[8:], c[2])
		body.Write(scratch[:clusterSize])
	}
	for _, m := range l.members {
		binary.LittleEndian.PutUint32(scratch[0:], m)
		body.Write(scratch[:memberSize])
	}

	slots := make([]uint32, h.Slots)
	mask := uint64(h.Slots - 1)
	for sym, s := range l.names {
		i := hash.Fingerprint(s) & mask
		for slots[i] != 0 {
			i = (i + 1) & mask
		}
		slots[i] = uint32(sym) + 1
	}
	for _, s := range slots {
		binary.LittleEndian.PutUint32(scratch[0:], s)
		body.Write(scratch[:slotSize])
	}

	for _, m := range mnemonics {
		binary.LittleEndian.PutUint32(scratch[0:], m[0])
		binary.LittleEndian.PutUint32(scratch[4:], m[1])
		body.Write(scratch[:mnemonicSize])
	}

	h.Checksum = hash.CRC32C(body.Bytes())
	return append(h.encode(), body.Bytes()...)
}
