package sstable

import (
	"encoding/binary"

	"github.com/flashlsm/lsmkit/block"
	"github.com/flashlsm/lsmkit/blockcache"
	"github.com/flashlsm/lsmkit/bloom"
	"github.com/flashlsm/lsmkit/key"
)

// Builder streams entries into Blocks, records meta, and emits a single SST
// file on Build. Keys passed to Add must arrive in strictly ascending
// order; the builder does not validate this.
type Builder struct {
	inner     *block.Builder
	firstKey  []byte
	lastKey   []byte
	data      []byte
	meta      []BlockMeta
	blockSize int
	bloom     *bloom.Builder
}

// NewBuilder creates a builder targeting blockSize-byte blocks, with a
// bloom filter sized for expectedEntries keys.
func NewBuilder(blockSize int, expectedEntries uint) *Builder {
	return &Builder{
		inner:     block.NewBuilder(blockSize),
		blockSize: blockSize,
		bloom:     bloom.NewBuilder(expectedEntries, 0.01),
	}
}

// NewBuilderNoBloom creates a builder that emits no bloom filter section;
// SsTable.MayContain then always reports true.
func NewBuilderNoBloom(blockSize int) *Builder {
	return &Builder{inner: block.NewBuilder(blockSize), blockSize: blockSize}
}

// Add appends a key/value pair, splitting into a new block when the
// current one is full.
func (b *Builder) Add(k key.Slice, value []byte) {
	if b.firstKey == nil {
		b.firstKey = append([]byte(nil), k.Raw()...)
	}
	if b.inner.IsEmpty() {
		b.meta = append(b.meta, BlockMeta{
			Offset:   uint64(len(b.data)),
			FirstKey: key.BytesFromSlice(k.Raw()),
			LastKey:  key.BytesFromSlice(k.Raw()),
		})
	}

	if !b.inner.Add(k, value) {
		b.finishCurrentBlock()
		b.Add(k, value)
		return
	}

	b.lastKey = append(b.lastKey[:0], k.Raw()...)
	b.meta[len(b.meta)-1].LastKey = key.BytesFromSlice(k.Raw())
	if b.bloom != nil {
		b.bloom.Add(k.Raw())
	}
}

func (b *Builder) finishCurrentBlock() {
	blk := b.inner.Build()
	b.data = append(b.data, blk.Encode()...)
	b.inner = block.NewBuilder(b.blockSize)
}

// EstimatedSize returns the accumulated data-block size; meta and bloom
// sections are small relative to data, so this is a good proxy for when to
// stop feeding a builder and call Build.
func (b *Builder) EstimatedSize() int { return len(b.data) }

// Build finalizes the SSTable and writes it to path.
func (b *Builder) Build(id uint64, cache blockcache.Cache, path string) (*SsTable, error) {
	if !b.inner.IsEmpty() {
		b.finishCurrentBlock()
	}

	// metaOffset marks the start of the meta section; the footer always
	// points here, even though an optional bloom sub-block follows the meta
	// section — the bloom sub-block carries its own length prefix so a
	// reader can skip straight past it.
	metaOffset := len(b.data)
	b.data = encodeBlockMeta(b.meta, b.data)

	var filter *bloom.Filter
	if b.bloom != nil {
		f, encoded, err := b.bloom.Finish()
		if err != nil {
			return nil, err
		}
		filter = &f
		b.data = binary.LittleEndian.AppendUint32(b.data, uint32(len(encoded)))
		b.data = append(b.data, encoded...)
	}

	b.data = binary.LittleEndian.AppendUint32(b.data, uint32(metaOffset))

	fo, err := createFileObject(path, b.data)
	if err != nil {
		return nil, err
	}

	return &SsTable{
		file:            fo,
		blockMeta:       b.meta,
		blockMetaOffset: int64(metaOffset),
		id:              id,
		cache:           cache,
		firstKey:        key.BytesFromSlice(b.firstKey),
		lastKey:         key.BytesFromSlice(b.lastKey),
		bloom:           filter,
	}, nil
}
