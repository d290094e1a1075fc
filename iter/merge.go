package iter

import (
	"container/heap"

	"github.com/flashlsm/lsmkit/key"
)

// heapEntry pairs a child iterator with its input index. Ordering is by key
// ascending, then by index ascending — the lower-indexed source wins ties,
// which is the shadowing discipline MergeIterator enforces.
type heapEntry struct {
	index int
	it    StorageIterator
}

type entryHeap []*heapEntry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	c := h[i].it.Key().Compare(h[j].it.Key())
	if c != 0 {
		return c < 0
	}
	return h[i].index < h[j].index
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) { *h = append(*h, x.(*heapEntry)) }

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// MergeIterator merges N child iterators of the same contract into one
// ascending stream. When multiple children expose the same key, the child
// with the smallest input index wins.
type MergeIterator struct {
	heap    entryHeap
	current *heapEntry
}

// Create builds a MergeIterator over children, in input-index order. Invalid
// children are dropped immediately; an all-invalid input yields an
// immediately-invalid MergeIterator.
func Create(children []StorageIterator) *MergeIterator {
	m := &MergeIterator{}
	for idx, it := range children {
		if it.IsValid() {
			m.heap = append(m.heap, &heapEntry{index: idx, it: it})
		}
	}
	heap.Init(&m.heap)
	if len(m.heap) > 0 {
		m.current = heap.Pop(&m.heap).(*heapEntry)
	}
	return m
}

func (m *MergeIterator) Key() key.Slice {
	if m.current == nil {
		return key.FromSlice(nil)
	}
	return m.current.it.Key()
}

func (m *MergeIterator) Value() []byte {
	if m.current == nil {
		return nil
	}
	return m.current.it.Value()
}

func (m *MergeIterator) IsValid() bool { return m.current != nil }

// Next advances current's child, re-inserts it if still valid, then drains
// any heap-top duplicates of the key just consumed before picking the new
// current. Errors from any child abort and propagate; the erroring child is
// dropped.
func (m *MergeIterator) Next() error {
	oldKey := m.Key().ToVec()

	cur := m.current
	m.current = nil
	if cur != nil {
		if err := cur.it.Next(); err != nil {
			return err
		}
		if cur.it.IsValid() {
			heap.Push(&m.heap, cur)
		}
	}

	for len(m.heap) > 0 {
		top := m.heap[0]
		if top.it.Key().Compare(oldKey.AsSlice()) > 0 {
			m.current = heap.Pop(&m.heap).(*heapEntry)
			break
		}
		// Shadowed duplicate from a higher-indexed source: advance past it.
		if err := top.it.Next(); err != nil {
			heap.Pop(&m.heap)
			return err
		}
		if !top.it.IsValid() {
			heap.Pop(&m.heap)
			continue
		}
		heap.Fix(&m.heap, 0)
	}

	return nil
}
