// Package iter defines the StorageIterator contract shared by block
// iterators, SsTableIterator, and MergeIterator, and implements the k-way
// MergeIterator itself.
package iter

import "github.com/flashlsm/lsmkit/key"

// StorageIterator is satisfied by every ordered iterator in this module.
// When IsValid() is false, Key()/Value() may return empty sentinels and
// Next() is not called by convention.
type StorageIterator interface {
	Key() key.Slice
	Value() []byte
	IsValid() bool
	Next() error
}
