// Package block implements the packed, sorted key/value container that is
// the smallest unit of read and cache in the LSM tree: Block, BlockBuilder
// and BlockIterator.
//
// Wire layout of an encoded Block:
//
//	data                                   (variable)
//	  entry_0 .. entry_{n-1}
//	offsets                                (2*n bytes)
//	  u16_le offset_0 .. offset_{n-1}
//	num_of_kvs                             (2 bytes)
//	  u16_le n
//
// Each entry: u16_le key_len | key_bytes | u16_le value_len | value_bytes.
package block

import (
	"encoding/binary"

	"github.com/flashlsm/lsmkit/key"
	"github.com/flashlsm/lsmkit/lsmerr"
)

// Block holds a contiguous data region of concatenated encoded entries and
// an offsets table giving the byte start of each entry within data.
type Block struct {
	data    []byte
	offsets []uint16
}

// New constructs a Block directly from its two regions; used by BlockBuilder
// and by tests that want to compare against hand-built expectations.
func New(data []byte, offsets []uint16) *Block {
	return &Block{data: data, offsets: offsets}
}

// Data exposes the raw data region (read-only by convention).
func (b *Block) Data() []byte { return b.data }

// Offsets exposes the raw offsets table (read-only by convention).
func (b *Block) Offsets() []uint16 { return b.offsets }

// NumEntries returns the number of key/value entries in the block.
func (b *Block) NumEntries() int { return len(b.offsets) }

// Encode serializes the block to the wire layout described above.
func (b *Block) Encode() []byte {
	buf := make([]byte, 0, len(b.data)+2*len(b.offsets)+2)
	buf = append(buf, b.data...)
	for _, off := range b.offsets {
		buf = binary.LittleEndian.AppendUint16(buf, off)
	}
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(b.offsets)))
	return buf
}

// Decode reconstructs a Block from bytes produced by Encode. It trusts the
// input to be builder-produced; it is tolerant of exactly the shape Encode
// emits and returns lsmerr.ErrBlockCorrupt rather than panicking when the
// trailing count would read past the slice.
func Decode(data []byte) (*Block, error) {
	if len(data) < 2 {
		return nil, lsmerr.ErrBlockCorrupt
	}
	n := int(binary.LittleEndian.Uint16(data[len(data)-2:]))

	// Scan n entries from offset 0 to recover the length of the data region.
	pos := 0
	for i := 0; i < n; i++ {
		if pos+2 > len(data) {
			return nil, lsmerr.ErrBlockCorrupt
		}
		keyLen := int(binary.LittleEndian.Uint16(data[pos : pos+2]))
		pos += 2 + keyLen
		if pos+2 > len(data) {
			return nil, lsmerr.ErrBlockCorrupt
		}
		valLen := int(binary.LittleEndian.Uint16(data[pos : pos+2]))
		pos += 2 + valLen
		if pos > len(data) {
			return nil, lsmerr.ErrBlockCorrupt
		}
	}
	dataLen := pos
	dataRegion := make([]byte, dataLen)
	copy(dataRegion, data[:dataLen])

	offsetsStart := dataLen
	offsetsEnd := offsetsStart + 2*n
	if offsetsEnd > len(data) {
		return nil, lsmerr.ErrBlockCorrupt
	}
	offsets := make([]uint16, n)
	for i := 0; i < n; i++ {
		offsets[i] = binary.LittleEndian.Uint16(data[offsetsStart+2*i : offsetsStart+2*i+2])
	}

	return &Block{data: dataRegion, offsets: offsets}, nil
}

// keyAtOffset reads the key stored at a given byte offset into data.
func (b *Block) keyAtOffset(offset int) key.Vec {
	keyLen := int(binary.LittleEndian.Uint16(b.data[offset : offset+2]))
	return key.VecFromBytes(append([]byte(nil), b.data[offset+2:offset+2+keyLen]...))
}

// Key returns the key stored at entry idx.
func (b *Block) Key(idx int) key.Vec {
	return b.keyAtOffset(int(b.offsets[idx]))
}

// ValueRange returns the [start, end) byte range into data holding the
// value of entry idx.
func (b *Block) ValueRange(idx int) (int, int) {
	offset := int(b.offsets[idx])
	keyLen := int(binary.LittleEndian.Uint16(b.data[offset : offset+2]))
	valOff := offset + 2 + keyLen
	valLen := int(binary.LittleEndian.Uint16(b.data[valOff : valOff+2]))
	start := valOff + 2
	return start, start + valLen
}

// Idx binary-searches the offsets table for the first entry whose key is
// >= target, returning len(offsets) if none exists (matching the "miss,
// insertion index" rule of BlockIterator.seek_to_key). Callers that need
// BlockMeta-style "largest index <= key" clamp the result themselves.
func (b *Block) Idx(target key.Slice) int {
	lo, hi := 0, len(b.offsets)
	for lo < hi {
		mid := (lo + hi) / 2
		if b.keyAtOffset(int(b.offsets[mid])).Compare(target.ToVec()) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
