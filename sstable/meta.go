package sstable

import (
	"encoding/binary"

	"github.com/flashlsm/lsmkit/key"
	"github.com/flashlsm/lsmkit/lsmerr"
)

// BlockMeta is the per-block index record written at the tail of an SST:
// the block's byte offset inside the file plus its first and last key.
// Across an SST, meta[i].LastKey < meta[i+1].FirstKey.
type BlockMeta struct {
	Offset   uint64
	FirstKey key.Bytes
	LastKey  key.Bytes
}

// encodeBlockMeta appends the meta section to buf:
//
//	u64_le num_meta
//	repeat num_meta:
//	  u64_le block_offset
//	  u16_le len_first_key | first_key_bytes
//	  u16_le len_last_key  | last_key_bytes
//
// Note the asymmetry with the 4-byte meta-offset footer (see Builder.Build):
// this is part of the on-disk format, preserved bit-exactly for
// compatibility with existing files, not a bug to repair.
func encodeBlockMeta(meta []BlockMeta, buf []byte) []byte {
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(meta)))
	for _, m := range meta {
		buf = binary.LittleEndian.AppendUint64(buf, m.Offset)
		buf = binary.LittleEndian.AppendUint16(buf, uint16(m.FirstKey.Len()))
		buf = append(buf, m.FirstKey.Raw()...)
		buf = binary.LittleEndian.AppendUint16(buf, uint16(m.LastKey.Len()))
		buf = append(buf, m.LastKey.Raw()...)
	}
	return buf
}

// decodeBlockMeta decodes the meta section and also returns the number of
// bytes it consumed, so callers can locate an optional trailing section
// (the bloom sub-block) that follows it.
func decodeBlockMeta(buf []byte) ([]BlockMeta, int, error) {
	if len(buf) < 8 {
		return nil, 0, lsmerr.ErrFooterTruncated
	}
	numMeta := binary.LittleEndian.Uint64(buf[:8])
	pos := 8

	metas := make([]BlockMeta, 0, numMeta)
	for i := uint64(0); i < numMeta; i++ {
		if pos+8+2 > len(buf) {
			return nil, 0, lsmerr.ErrFooterTruncated
		}
		offset := binary.LittleEndian.Uint64(buf[pos : pos+8])
		pos += 8

		firstLen := int(binary.LittleEndian.Uint16(buf[pos : pos+2]))
		pos += 2
		if pos+firstLen+2 > len(buf) {
			return nil, 0, lsmerr.ErrFooterTruncated
		}
		firstKey := key.BytesFromSlice(buf[pos : pos+firstLen])
		pos += firstLen

		lastLen := int(binary.LittleEndian.Uint16(buf[pos : pos+2]))
		pos += 2
		if pos+lastLen > len(buf) {
			return nil, 0, lsmerr.ErrFooterTruncated
		}
		lastKey := key.BytesFromSlice(buf[pos : pos+lastLen])
		pos += lastLen

		metas = append(metas, BlockMeta{Offset: offset, FirstKey: firstKey, LastKey: lastKey})
	}

	return metas, pos, nil
}
