package sstable

import (
	"github.com/flashlsm/lsmkit/block"
	"github.com/flashlsm/lsmkit/key"
)

// Iterator iterates across the blocks of a single SsTable, presenting them
// as one ascending stream. It satisfies iter.StorageIterator.
type Iterator struct {
	table  *SsTable
	blkIdx int
	blkIt  *block.Iterator
}

// CreateAndSeekToFirst loads block 0 and positions at its first entry.
func CreateAndSeekToFirst(table *SsTable) (*Iterator, error) {
	blk, err := table.ReadBlockCached(0)
	if err != nil {
		return nil, err
	}
	return &Iterator{table: table, blkIdx: 0, blkIt: block.CreateAndSeekToFirst(blk)}, nil
}

// SeekToFirst repositions an existing iterator at block 0's first entry.
func (it *Iterator) SeekToFirst() error {
	blk, err := it.table.ReadBlockCached(0)
	if err != nil {
		return err
	}
	it.blkIdx = 0
	it.blkIt = block.CreateAndSeekToFirst(blk)
	return nil
}

// CreateAndSeekToKey locates the block that may contain target via
// FindBlockIdx, seeks within it, and if the block iterator lands invalid
// (every key in that block is < target), advances into the next block.
func CreateAndSeekToKey(table *SsTable, target key.Slice) (*Iterator, error) {
	it := &Iterator{table: table}
	if err := it.SeekToKey(target); err != nil {
		return nil, err
	}
	return it, nil
}

// SeekToKey repositions an existing iterator at the first key >= target.
func (it *Iterator) SeekToKey(target key.Slice) error {
	idx := it.table.FindBlockIdx(target)
	blk, err := it.table.ReadBlockCached(idx)
	if err != nil {
		return err
	}
	it.blkIdx = idx
	it.blkIt = block.CreateAndSeekToKey(blk, target)
	if !it.IsValid() {
		return it.Next()
	}
	return nil
}

func (it *Iterator) Key() key.Slice { return it.blkIt.Key() }
func (it *Iterator) Value() []byte  { return it.blkIt.Value() }
func (it *Iterator) IsValid() bool  { return it.blkIt.IsValid() }

// Next advances the inner block iterator; when it becomes invalid and more
// blocks follow, the next block is loaded and seeked to its first entry.
// Exhausting the final block makes the SsTable iterator invalid.
func (it *Iterator) Next() error {
	if it.blkIt.IsValid() {
		if err := it.blkIt.Next(); err != nil {
			return err
		}
	}
	if !it.blkIt.IsValid() && it.blkIdx < it.table.NumBlocks()-1 {
		it.blkIdx++
		blk, err := it.table.ReadBlockCached(it.blkIdx)
		if err != nil {
			return err
		}
		it.blkIt = block.CreateAndSeekToFirst(blk)
	}
	return nil
}
