// Package lsmerr collects the sentinel errors shared by block, sstable and
// wal. Decoding errors are returned rather than left to panic so that a
// reader of a truncated or foreign file fails predictably — callers are
// still expected to pass builder-produced bytes; nothing here recovers from
// a key/value stream that was never valid in the first place.
package lsmerr

import "errors"

var (
	// ErrBlockCorrupt is returned when a block's offset table would read
	// outside the decoded data region.
	ErrBlockCorrupt = errors.New("lsmkit: block data is corrupt")

	// ErrEmptyTable is returned by sstable.Open when the meta section
	// decodes to zero entries, violating the "block_meta non-empty"
	// invariant.
	ErrEmptyTable = errors.New("lsmkit: sstable has no blocks")

	// ErrBlockIndexOutOfRange is a programmer error: the caller asked for a
	// block index outside [0, NumBlocks()).
	ErrBlockIndexOutOfRange = errors.New("lsmkit: block index out of range")

	// ErrFooterTruncated is returned when a file is too small to even hold
	// the meta-offset footer.
	ErrFooterTruncated = errors.New("lsmkit: sstable file too small for footer")

	// ErrWALClosed is returned by WALWriter.Write once the writer has been
	// closed; no further records are accepted.
	ErrWALClosed = errors.New("lsmkit: wal writer is closed")
)
