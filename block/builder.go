package block

import (
	"encoding/binary"

	"github.com/flashlsm/lsmkit/key"
)

// Builder accumulates sorted key/value entries into a size-bounded Block.
// Keys fed to Add must be strictly greater than the previous key; the
// builder does not validate this (caller's responsibility, per spec).
type Builder struct {
	offsets   []uint16
	data      []byte
	blockSize int
	firstKey  key.Vec
}

// NewBuilder creates an empty builder with a target soft cap in bytes.
func NewBuilder(blockSize int) *Builder {
	return &Builder{blockSize: blockSize}
}

// size estimates the encoded size of the block as it currently stands, plus
// room for one more offset entry (mirrors the Rust builder's `size()`,
// which always budgets for offsets.len()+1 u16s).
func (b *Builder) size() int {
	return len(b.data) + 2*(len(b.offsets)+1)
}

// Add appends an entry, returning false when it would exceed the budget and
// the builder is already non-empty. The first entry is always accepted
// regardless of budget, so a single oversized entry still forms a valid
// one-entry block.
func (b *Builder) Add(k key.Slice, value []byte) bool {
	entrySize := 4 + k.Len() + len(value) // key_len(2) + key + value_len(2) + value
	if !b.firstKey.IsEmpty() && b.size()+entrySize > b.blockSize {
		return false
	}
	if b.firstKey.IsEmpty() {
		b.firstKey = k.ToVec()
	}

	b.offsets = append(b.offsets, uint16(len(b.data)))
	b.data = binary.LittleEndian.AppendUint16(b.data, uint16(k.Len()))
	b.data = append(b.data, k.Raw()...)
	b.data = binary.LittleEndian.AppendUint16(b.data, uint16(len(value)))
	b.data = append(b.data, value...)
	return true
}

// IsEmpty reports whether any entry has been accepted.
func (b *Builder) IsEmpty() bool { return len(b.offsets) == 0 }

// Build finalizes the builder into an immutable Block. The builder must not
// be reused afterward.
func (b *Builder) Build() *Block {
	return &Block{data: b.data, offsets: b.offsets}
}
