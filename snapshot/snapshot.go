package snapshot

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/hupe1980/xref/internal/conv"
	"github.com/hupe1980/xref/internal/hash"
	"github.com/hupe1980/xref/internal/mmap"
)

// Mnemonic maps a short name to a property ref.
type Mnemonic struct {
	Name     string
	Property string
}

// Snapshot is a loaded, read-only cross-reference table.
type Snapshot struct {
	m      *mmap.Region
	h      *header
	heap   []byte
	closed atomic.Bool

	symbols   []byte
	clusters  []byte
	members   []byte
	index     []byte
	mnemonics []byte
}

// Open memory maps the snapshot at path and verifies it.
func Open(path string) (*Snapshot, error) {
	m, err := mmap.Open(path, mmap.Random)
	if err != nil {
		return nil, err
	}

	s, err := FromBytes(m.Bytes())
	if err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	s.m = m
	return s, nil
}

// FromBytes verifies data and returns a Snapshot aliasing it.
func FromBytes(data []byte) (*Snapshot, error) {
	h, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}
	// Table offsets are computed in uint32.
	for _, n := range []uint64{uint64(h.Symbols) * symbolSize, uint64(h.Members) * memberSize, uint64(h.Slots) * slotSize} {
		if _, err := conv.Uint64ToUint32(n); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
	}
	if _, err := conv.Uint64ToInt(h.bodySize()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	body := data[headerSize:]
	if uint64(len(body)) != h.bodySize() {
		return nil, fmt.Errorf("%w: body is %d bytes, expected %d", ErrCorrupt, len(body), h.bodySize())
	}
	if h.Slots == 0 || h.Slots&(h.Slots-1) != 0 || uint64(h.Slots) < uint64(h.Symbols) {
		return nil, fmt.Errorf("%w: bad index size %d", ErrCorrupt, h.Slots)
	}
	if crc := hash.CRC32C(body); crc != h.Checksum {
		return nil, fmt.Errorf("%w: got 0x%08x, expected 0x%08x", ErrChecksum, crc, h.Checksum)
	}

	r := &sliceReader{b: body}
	s := &Snapshot{h: h}
	s.heap = r.next(h.HeapSize)
	r.next(pad4(h.HeapSize) - h.HeapSize)
	s.symbols = r.next(uint64(h.Symbols) * symbolSize)
	s.clusters = r.next(uint64(h.Clusters) * clusterSize)
	s.members = r.next(uint64(h.Members) * memberSize)
	s.index = r.next(uint64(h.Slots) * slotSize)
	s.mnemonics = r.next(uint64(h.Mnemonics) * mnemonicSize)

	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// validate bounds-checks every table entry so lookups never panic.
func (s *Snapshot) validate() error {
	for i := uint32(0); i < s.h.Symbols; i++ {
		e := s.symbols[i*symbolSize:]
		off := binary.LittleEndian.Uint64(e)
		n := uint64(binary.LittleEndian.Uint32(e[8:]))
		c := binary.LittleEndian.Uint32(e[12:])
		if off > s.h.HeapSize || n > s.h.HeapSize-off || (c != noCluster && c >= s.h.Clusters) {
			return fmt.Errorf("%w: symbol %d", ErrCorrupt, i)
		}
	}
	for i := uint32(0); i < s.h.Clusters; i++ {
		canonical, first, n := s.cluster(i)
		if canonical >= s.h.Symbols || uint64(first)+uint64(n) > uint64(s.h.Members) {
			return fmt.Errorf("%w: cluster %d", ErrCorrupt, i)
		}
	}
	for i := uint32(0); i < s.h.Members; i++ {
		if binary.LittleEndian.Uint32(s.members[i*memberSize:]) >= s.h.Symbols {
			return fmt.Errorf("%w: member %d", ErrCorrupt, i)
		}
	}
	for i := uint32(0); i < s.h.Slots; i++ {
		if binary.LittleEndian.Uint32(s.index[i*slotSize:]) > s.h.Symbols {
			return fmt.Errorf("%w: index slot %d", ErrCorrupt, i)
		}
	}
	for i := uint32(0); i < s.h.Mnemonics; i++ {
		e := s.mnemonics[i*mnemonicSize:]
		if binary.LittleEndian.Uint32(e) >= s.h.Symbols || binary.LittleEndian.Uint32(e[4:]) >= s.h.Symbols {
			return fmt.Errorf("%w: mnemonic %d", ErrCorrupt, i)
		}
	}
	return nil
}

// Close releases the mapping. It is idempotent. Lookups on a closed
// snapshot find nothing.
func (s *Snapshot) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if s.m != nil {
		return s.m.Close()
	}
	return nil
}

// Len returns the number of symbols.
func (s *Snapshot) Len() int { return int(s.h.Symbols) }

// NumClusters returns the number of clusters.
func (s *Snapshot) NumClusters() int {
	if s.closed.Load() {
		return 0
	}
	return int(s.h.Clusters)
}

func (s *Snapshot) name(sym uint32) string {
	e := s.symbols[sym*symbolSize:]
	off := binary.LittleEndian.Uint64(e)
	n := binary.LittleEndian.Uint32(e[8:])
	if n == 0 {
		return ""
	}
	return unsafe.String(&s.heap[off], int(n))
}

func (s *Snapshot) clusterOf(sym uint32) uint32 {
	return binary.LittleEndian.Uint32(s.symbols[sym*symbolSize+12:])
}

func (s *Snapshot) cluster(i uint32) (canonical, first, n uint32) {
	e := s.clusters[i*clusterSize:]
	return binary.LittleEndian.Uint32(e), binary.LittleEndian.Uint32(e[4:]), binary.LittleEndian.Uint32(e[8:])
}

func (s *Snapshot) symbol(id string) (uint32, bool) {
	if s.closed.Load() {
		return 0, false
	}
	mask := uint64(s.h.Slots - 1)
	i := hash.Fingerprint(id) & mask
	for probes := uint32(0); probes < s.h.Slots; probes++ {
		v := binary.LittleEndian.Uint32(s.index[i*slotSize:])
		if v == 0 {
			return 0, false
		}
		if s.name(v-1) == id {
			return v - 1, true
		}
		i = (i + 1) & mask
	}
	return 0, false
}

// Lookup returns the canonical id of the cluster containing id.
func (s *Snapshot) Lookup(id string) (string, bool) {
	sym, ok := s.symbol(id)
	if !ok {
		return "", false
	}
	c := s.clusterOf(sym)
	if c == noCluster {
		return "", false
	}
	canonical, _, _ := s.cluster(c)
	return s.name(canonical), true
}

// Members returns the ids of the cluster whose canonical id is canonical,
// canonical id first.
func (s *Snapshot) Members(canonical string) ([]string, bool) {
	sym, ok := s.symbol(canonical)
	if !ok {
		return nil, false
	}
	c := s.clusterOf(sym)
	if c == noCluster {
		return nil, false
	}
	if root, _, _ := s.cluster(c); root != sym {
		return nil, false
	}
	_, members := s.Cluster(int(c))
	return members, true
}

// Cluster returns the canonical id and members of the i-th cluster. It
// returns nothing when i is out of range or the snapshot is closed.
func (s *Snapshot) Cluster(i int) (string, []string) {
	if s.closed.Load() || i < 0 || i >= int(s.h.Clusters) {
		return "", nil
	}
	canonical, first, n := s.cluster(uint32(i))
	members := make([]string, n)
	for j := uint32(0); j < n; j++ {
		members[j] = s.name(binary.LittleEndian.Uint32(s.members[(first+j)*memberSize:]))
	}
	return s.name(canonical), members
}

// ForEachCluster calls fn for every cluster in file order until fn returns false.
func (s *Snapshot) ForEachCluster(fn func(canonical string, members []string) bool) {
	for i := 0; i < s.NumClusters(); i++ {
		if !fn(s.Cluster(i)) {
			return
		}
	}
}

// Mnemonics returns the mnemonic table in configuration order.
func (s *Snapshot) Mnemonics() []Mnemonic {
	if s.closed.Load() {
		return nil
	}
	out := make([]Mnemonic, s.h.Mnemonics)
	for i := range out {
		e := s.mnemonics[i*mnemonicSize:]
		out[i] = Mnemonic{
			Name:     s.name(binary.LittleEndian.Uint32(e)),
			Property: s.name(binary.LittleEndian.Uint32(e[4:])),
		}
	}
	return out
}

// sliceReader hands out consecutive sub-slices of b. Sizes are validated
// against the header before use.
type sliceReader struct {
	b   []byte
	off uint64
}

func (r *sliceReader) next(n uint64) []byte {
	out := r.b[r.off : r.off+n : r.off+n]
	r.off += n
	return out
}
