// Package memtable provides the in-memory, ordered store a write-ahead log
// record is applied into before it is durable in an SST: a skip list keyed
// on the same key.Bytes view the rest of the read path uses.
package memtable

import (
	"iter"

	"github.com/flashlsm/lsmkit/key"
)

// Record is one key/value pair held by a memtable.
type Record[V any] struct {
	Key   key.Bytes
	Value V
}

// Memtable is the contract a flush drains through sstable.FlushMemtable.
type Memtable[V any] interface {
	Put(k key.Bytes, value V)
	Get(k key.Bytes) (V, bool)
	Delete(k key.Bytes)
	Iterator() iter.Seq[Record[V]]
}
