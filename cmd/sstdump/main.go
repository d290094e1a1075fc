// Command sstdump inspects a single SST file: a summary line (block count,
// file size, first and last key) and the entry count of each block and,
// optionally, every key/value pair it contains. Per-block first/last keys
// and byte offsets from the block-meta index are not printed.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/flashlsm/lsmkit/block"
	"github.com/flashlsm/lsmkit/sstable"
)

func main() {
	printKeys := flag.Bool("keys", false, "print every key in the table, not just the block index")
	blockArg := flag.Int("block", -1, "print only the keys of this block index (requires -keys)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: sstdump [-keys] [-block N] <sst-file>")
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *printKeys, *blockArg); err != nil {
		fmt.Fprintln(os.Stderr, "sstdump:", err)
		os.Exit(1)
	}
}

func run(path string, printKeys bool, onlyBlock int) error {
	tbl, err := sstable.Open(0, nil, path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer tbl.Close()

	fmt.Printf("sst %s: %d blocks, %d bytes, first=%q last=%q\n",
		path, tbl.NumBlocks(), tbl.TableSize(), tbl.FirstKey().Raw(), tbl.LastKey().Raw())

	for i := 0; i < tbl.NumBlocks(); i++ {
		if onlyBlock >= 0 && i != onlyBlock {
			continue
		}

		blk, err := tbl.ReadBlock(i)
		if err != nil {
			return fmt.Errorf("read block %d: %w", i, err)
		}
		fmt.Printf("  block %d: %d entries\n", i, blk.NumEntries())

		if !printKeys {
			continue
		}
		it := block.CreateAndSeekToFirst(blk)
		for it.IsValid() {
			fmt.Printf("    %q = %q\n", it.Key().Raw(), it.Value())
			if err := it.Next(); err != nil {
				return err
			}
		}
	}

	return nil
}
