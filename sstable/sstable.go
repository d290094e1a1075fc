// Package sstable implements the file-backed, immutable sequence of Blocks
// plus meta index that makes up a single SST: the on-disk format, its
// builder, and its cross-block iterator.
//
// File format:
//
//	block_0 | block_1 | ... | block_{m-1}   (each a block.Block encoding)
//	meta_section                             (variable, see meta.go)
//	bloom_section                            (optional, see bloom.go wiring)
//	u32_le meta_offset                       (footer)
//
// num_meta inside meta_section is u64_le while the meta_offset footer is
// u32_le — an intentional asymmetry preserved for file compatibility, not a
// bug to repair.
package sstable

import (
	"encoding/binary"
	"sort"

	"github.com/flashlsm/lsmkit/block"
	"github.com/flashlsm/lsmkit/blockcache"
	"github.com/flashlsm/lsmkit/bloom"
	"github.com/flashlsm/lsmkit/key"
	"github.com/flashlsm/lsmkit/lsmerr"
)

const footerSize = 4 // u32_le meta_offset

// SsTable is a file handle over an immutable, sorted, block-partitioned
// on-disk table plus its decoded meta index.
type SsTable struct {
	file            *fileObject
	blockMeta       []BlockMeta
	blockMetaOffset int64
	id              uint64
	cache           blockcache.Cache
	firstKey        key.Bytes
	lastKey         key.Bytes
	bloom           *bloom.Filter
	maxTS           uint64
}

// Open reads the final 4 bytes for the meta offset, decodes the meta
// section, and populates FirstKey/LastKey from the first/last meta records.
func Open(id uint64, cache blockcache.Cache, path string) (*SsTable, error) {
	fo, err := openFileObject(path)
	if err != nil {
		return nil, err
	}
	return openFromFile(id, cache, fo)
}

func openFromFile(id uint64, cache blockcache.Cache, fo *fileObject) (*SsTable, error) {
	if fo.Size() < footerSize {
		fo.Close()
		return nil, lsmerr.ErrFooterTruncated
	}

	footerBytes, err := fo.Read(fo.Size()-footerSize, footerSize)
	if err != nil {
		fo.Close()
		return nil, err
	}
	metaOffset := int64(binary.LittleEndian.Uint32(footerBytes))

	trailerBytes, err := fo.Read(metaOffset, fo.Size()-metaOffset-footerSize)
	if err != nil {
		fo.Close()
		return nil, err
	}
	metas, consumed, err := decodeBlockMeta(trailerBytes)
	if err != nil {
		fo.Close()
		return nil, err
	}
	if len(metas) == 0 {
		fo.Close()
		return nil, lsmerr.ErrEmptyTable
	}

	var filter *bloom.Filter
	if consumed < len(trailerBytes) {
		rest := trailerBytes[consumed:]
		if len(rest) >= 4 {
			bloomLen := int(binary.LittleEndian.Uint32(rest[:4]))
			if 4+bloomLen <= len(rest) {
				if f, err := bloom.Decode(rest[4 : 4+bloomLen]); err == nil {
					filter = &f
				}
			}
		}
	}

	return &SsTable{
		file:            fo,
		blockMeta:       metas,
		blockMetaOffset: metaOffset,
		id:              id,
		cache:           cache,
		firstKey:        metas[0].FirstKey,
		lastKey:         metas[len(metas)-1].LastKey,
		bloom:           filter,
	}, nil
}

// ReadBlock reads and decodes block_idx directly from the file, with no
// cache involved. The block's byte length is derived by differencing with
// the next block's offset, or with blockMetaOffset for the last block.
func (t *SsTable) ReadBlock(blockIdx int) (*block.Block, error) {
	if blockIdx < 0 || blockIdx >= len(t.blockMeta) {
		return nil, lsmerr.ErrBlockIndexOutOfRange
	}
	offset := int64(t.blockMeta[blockIdx].Offset)
	var length int64
	if blockIdx < len(t.blockMeta)-1 {
		length = int64(t.blockMeta[blockIdx+1].Offset) - offset
	} else {
		length = t.blockMetaOffset - offset
	}

	raw, err := t.file.Read(offset, length)
	if err != nil {
		return nil, err
	}
	return block.Decode(raw)
}

// ReadBlockCached delegates to ReadBlock when no cache is attached;
// otherwise it consults the cache under single-flight discipline, so
// concurrent misses for (sstID, blockIdx) coalesce into exactly one
// ReadBlock call.
func (t *SsTable) ReadBlockCached(blockIdx int) (*block.Block, error) {
	if t.cache == nil {
		return t.ReadBlock(blockIdx)
	}
	return t.cache.GetOrLoad(t.id, uint64(blockIdx), func() (*block.Block, error) {
		return t.ReadBlock(blockIdx)
	})
}

// FindBlockIdx binary-searches block_meta by FirstKey: on an exact match it
// returns that index, on a miss it returns insertionIndex-1 clamped to 0 —
// the rightmost block whose FirstKey <= key, the one that may contain it.
func (t *SsTable) FindBlockIdx(k key.Slice) int {
	idx := sort.Search(len(t.blockMeta), func(i int) bool {
		return key.CompareSliceBytes(k, t.blockMeta[i].FirstKey) <= 0
	})
	if idx < len(t.blockMeta) && key.CompareSliceBytes(k, t.blockMeta[idx].FirstKey) == 0 {
		return idx
	}
	if idx == 0 {
		return 0
	}
	return idx - 1
}

// MayContain reports whether key might be present, per the optional bloom
// filter attached at Open/Build time. With no filter attached it always
// returns true, so callers can use it as a pure optimization and never a
// correctness check.
func (t *SsTable) MayContain(k []byte) bool {
	if t.bloom == nil {
		return true
	}
	return t.bloom.MayContain(k)
}

func (t *SsTable) NumBlocks() int      { return len(t.blockMeta) }
func (t *SsTable) FirstKey() key.Bytes { return t.firstKey }
func (t *SsTable) LastKey() key.Bytes  { return t.lastKey }
func (t *SsTable) TableSize() int64    { return t.file.Size() }
func (t *SsTable) ID() uint64          { return t.id }
func (t *SsTable) MaxTS() uint64       { return t.maxTS }

// Close releases the underlying file handle. An SsTable owns its file
// handle for its lifetime.
func (t *SsTable) Close() error { return t.file.Close() }
