package sstable

import (
	"github.com/flashlsm/lsmkit/blockcache"
	"github.com/flashlsm/lsmkit/memtable"
	"github.com/flashlsm/lsmkit/segmentmanager"
)

// FlushMemtable drains mt, in ascending key order, into a new on-disk SST.
// The id and file path are sourced from alloc, which owns the directory's
// id sequence, so callers never have to track the next free SST id
// themselves.
func FlushMemtable(mt *memtable.SkipList[[]byte], blockSize int, expectedEntries uint, alloc *segmentmanager.Allocator, cache blockcache.Cache) (*SsTable, error) {
	id, path := alloc.Next()

	b := NewBuilder(blockSize, expectedEntries)
	for rec := range mt.Iterator() {
		b.Add(rec.Key.AsSlice(), rec.Value)
	}
	return b.Build(id, cache, path)
}
