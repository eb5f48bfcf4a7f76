package filter

import (
	"encoding/binary"
	"fmt"
)

// Serialized filter layout, little-endian:
//
//	Magic    (4 bytes)  "sbf1"
//	Version  (1 byte)
//	Ksize    (4 bytes)
//	NTables  (4 bytes)
//	Count    (8 bytes)
//	Sizes    (NTables * 8 bytes)  per-table size in bits
//	Tables   (sum of (size+7)/8 bytes each)  raw bitset bytes
//
// The round trip is bit-exact: UnmarshalBinary(MarshalBinary(f)) reproduces
// every table byte unchanged, which is what makes previously persisted trees
// interoperable.
const (
	blobMagic   = "sbf1"
	blobVersion = 1

	fixedHeaderSize = 4 + 1 + 4 + 4 + 8
)

// MarshalBinary serializes the filter.
func (f *Filter) MarshalBinary() ([]byte, error) {
	size := fixedHeaderSize + 8*len(f.sizes)
	for _, tab := range f.tables {
		size += len(tab)
	}
	buf := make([]byte, size)

	copy(buf[0:4], blobMagic)
	buf[4] = blobVersion
	binary.LittleEndian.PutUint32(buf[5:9], f.ksize)
	binary.LittleEndian.PutUint32(buf[9:13], uint32(len(f.sizes)))
	binary.LittleEndian.PutUint64(buf[13:21], f.count)

	off := fixedHeaderSize
	for _, m := range f.sizes {
		binary.LittleEndian.PutUint64(buf[off:off+8], m)
		off += 8
	}
	for _, tab := range f.tables {
		copy(buf[off:], tab)
		off += len(tab)
	}
	return buf, nil
}

// UnmarshalBinary deserializes a filter produced by MarshalBinary.
func UnmarshalBinary(data []byte) (*Filter, error) {
	if len(data) < fixedHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrInvalidData, len(data))
	}
	if string(data[0:4]) != blobMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrInvalidData, data[0:4])
	}
	if data[4] != blobVersion {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedVersion, data[4])
	}

	ksize := binary.LittleEndian.Uint32(data[5:9])
	ntables := binary.LittleEndian.Uint32(data[9:13])
	count := binary.LittleEndian.Uint64(data[13:21])
	if ksize == 0 {
		return nil, fmt.Errorf("%w: zero ksize", ErrInvalidData)
	}
	if ntables == 0 {
		return nil, fmt.Errorf("%w: zero table count", ErrInvalidData)
	}
	// Bound before allocating anything from attacker-controlled sizes.
	const maxTables = 1 << 16
	if ntables > maxTables {
		return nil, fmt.Errorf("%w: table count %d too large", ErrInvalidData, ntables)
	}

	off := fixedHeaderSize
	if len(data) < off+8*int(ntables) {
		return nil, fmt.Errorf("%w: truncated table sizes", ErrInvalidData)
	}
	sizes := make([]uint64, ntables)
	var want uint64
	for i := range sizes {
		m := binary.LittleEndian.Uint64(data[off : off+8])
		if m == 0 {
			return nil, fmt.Errorf("%w: table %d has zero size", ErrInvalidData, i)
		}
		if m > 1<<40 {
			return nil, fmt.Errorf("%w: table %d size %d too large", ErrInvalidData, i, m)
		}
		sizes[i] = m
		want += (m + 7) / 8
		off += 8
	}
	if uint64(len(data)-off) != want {
		return nil, fmt.Errorf("%w: have %d table bytes, want %d", ErrInvalidData, len(data)-off, want)
	}

	tables := make([][]byte, ntables)
	for i, m := range sizes {
		n := int((m + 7) / 8)
		tables[i] = make([]byte, n)
		copy(tables[i], data[off:off+n])
		off += n
	}
	return &Filter{ksize: ksize, sizes: sizes, tables: tables, count: count}, nil
}
