// Package bloom implements the per-SST bloom filter that lets a read skip
// the block search entirely when a key is definitely absent: Builder
// optionally accumulates every key an SsTable.Builder writes, and the
// finished Filter backs SsTable.MayContain.
package bloom

import (
	"bytes"

	bbloom "github.com/bits-and-blooms/bloom/v3"
)

// Builder accumulates keys for a single SST via NewWithEstimates + Add per
// key.
type Builder struct {
	filter *bbloom.BloomFilter
}

// NewBuilder estimates filter size for expectedEntries keys at the given
// false-positive rate; both parameters are explicit so small test SSTs
// don't over-allocate.
func NewBuilder(expectedEntries uint, falsePositiveRate float64) *Builder {
	return &Builder{filter: bbloom.NewWithEstimates(expectedEntries, falsePositiveRate)}
}

func (b *Builder) Add(key []byte) { b.filter.Add(key) }

// Finish serializes the filter via the bloom library's own self-describing
// WriteTo format (bit count, hash count, bit array) and returns both the
// in-memory probe and its encoded bytes for the SST meta trailer.
func (b *Builder) Finish() (Filter, []byte, error) {
	var buf bytes.Buffer
	if _, err := b.filter.WriteTo(&buf); err != nil {
		return Filter{}, nil, err
	}
	return Filter{filter: b.filter}, buf.Bytes(), nil
}

// Filter is the read-side probe: MayContain(key)==false means the key is
// definitely absent from the SST; true means it may be present and the
// normal block search must run.
type Filter struct {
	filter *bbloom.BloomFilter
}

func (f Filter) MayContain(key []byte) bool {
	if f.filter == nil {
		return true
	}
	return f.filter.Test(key)
}

// Decode reconstructs a Filter from bytes written by Builder.Finish.
func Decode(data []byte) (Filter, error) {
	f := &bbloom.BloomFilter{}
	if _, err := f.ReadFrom(bytes.NewReader(data)); err != nil {
		return Filter{}, err
	}
	return Filter{filter: f}, nil
}
