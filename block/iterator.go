package block

import "github.com/flashlsm/lsmkit/key"

// Iterator positions within a Block. An empty current key means invalid.
type Iterator struct {
	block      *Block
	k          key.Vec
	valueRange [2]int
	idx        int
	firstKey   key.Vec
}

func newIterator(b *Block) *Iterator {
	var first key.Vec
	if b.NumEntries() > 0 {
		first = b.Key(0)
	}
	return &Iterator{block: b, firstKey: first}
}

// CreateAndSeekToFirst positions a new iterator at index 0.
func CreateAndSeekToFirst(b *Block) *Iterator {
	it := newIterator(b)
	it.SeekToFirst()
	return it
}

// CreateAndSeekToKey positions a new iterator at the smallest index whose
// key is >= target.
func CreateAndSeekToKey(b *Block, target key.Slice) *Iterator {
	it := newIterator(b)
	it.SeekToKey(target)
	return it
}

// Key returns the key of the current entry.
func (it *Iterator) Key() key.Slice { return it.k.AsSlice() }

// Value returns the value of the current entry.
func (it *Iterator) Value() []byte {
	return it.block.data[it.valueRange[0]:it.valueRange[1]]
}

// IsValid reports whether the iterator is positioned on an entry.
func (it *Iterator) IsValid() bool { return !it.k.IsEmpty() }

// SeekToFirst repositions at index 0.
func (it *Iterator) SeekToFirst() {
	it.idx = 0
	if it.block.NumEntries() == 0 {
		it.k = key.NewVec()
		return
	}
	it.k = it.block.Key(0)
	s, e := it.block.ValueRange(0)
	it.valueRange = [2]int{s, e}
}

// SeekToKey binary-searches offsets for the smallest index whose key is
// >= target. If no such index exists, the iterator becomes invalid.
func (it *Iterator) SeekToKey(target key.Slice) {
	it.idx = it.block.Idx(target)
	if it.idx == it.block.NumEntries() {
		it.k = key.NewVec()
		return
	}
	it.k = it.block.Key(it.idx)
	s, e := it.block.ValueRange(it.idx)
	it.valueRange = [2]int{s, e}
}

// Next advances to the following entry. Calling Next when !IsValid() is a
// caller error, not one this method checks for. It returns error to satisfy
// the StorageIterator contract; a block iterator never itself fails.
func (it *Iterator) Next() error {
	if it.idx == it.block.NumEntries()-1 {
		it.k = key.NewVec()
		return nil
	}
	it.idx++
	it.k = it.block.Key(it.idx)
	s, e := it.block.ValueRange(it.idx)
	it.valueRange = [2]int{s, e}
	return nil
}
