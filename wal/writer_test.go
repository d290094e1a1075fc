package wal

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/flashlsm/lsmkit/memtable"
)

func TestWALWriteBlocksUntilDurable(t *testing.T) {
	dirName := t.TempDir()
	wal, _ := NewWALWriter(1, dirName)
	defer wal.Close()

	l := NewLog(OperationPut, bk("a"), []byte("1"))

	start := time.Now()

	go func() {
		if err := wal.Write(l); err != nil {
			t.Error(err)
		}
	}()

	time.Sleep(10 * time.Millisecond)

	if time.Since(start) < 10*time.Millisecond {
		t.Fatal("Write returned before fsync")
	}
}

func TestWALConcurrentWrites(t *testing.T) {
	dir := t.TempDir()
	wal, err := NewWALWriter(1, dir)
	if err != nil {
		t.Fatal(err)
	}

	const N = 50
	var wg sync.WaitGroup

	for i := range N {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l := NewLog(OperationPut, bk(fmt.Sprintf("k-%d", i)), []byte(fmt.Sprintf("v-%d", i)))
			err := wal.Write(l)
			if err != nil {
				fmt.Println(err)
			}
		}(i)
	}

	wg.Wait()
	wal.Close() // Ensure all writes are flushed before reading

	reader, err := NewWALReader(dir)
	defer reader.Close()

	if err != nil {
		t.Fatal(err)
	}

	seen := map[string]bool{}
	for {
		l, err := reader.Read()
		if err != nil {
			break
		}

		seen[l.Key().String()] = true
	}

	if len(seen) != N {
		t.Fatalf("expected %d records, got %d", N, len(seen))
	}
}

func TestWALCloseUnblocksWriters(t *testing.T) {
	dirName := t.TempDir()
	wal, _ := NewWALWriter(1, dirName)
	defer wal.Close()

	go func() {
		_ = wal.Write(NewLog(OperationPut, bk("x"), []byte("1")))
	}()

	time.Sleep(5 * time.Millisecond)
	wal.Close()

	done := make(chan struct{})

	go func() {
		_ = wal.Write(NewLog(OperationPut, bk("y"), []byte("2")))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("writer blocked after Close")
	}
}

func TestWALReplayRebuildsMemtable(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWALWriter(1, dir)
	if err != nil {
		t.Fatal(err)
	}

	records := []*Log{
		NewLog(OperationPut, bk("a"), []byte("1")),
		NewLog(OperationPut, bk("b"), []byte("2")),
		NewLog(OperationPut, bk("c"), []byte("3")),
		NewLog(OperationDelete, bk("b"), nil),
	}
	for _, l := range records {
		if err := w.Write(l); err != nil {
			t.Fatal(err)
		}
	}
	w.Close()

	reader, err := NewWALReader(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	mt := memtable.NewSkipListMemtable[[]byte]()
	if err := reader.Replay(mt); err != nil {
		t.Fatalf("replay: %v", err)
	}

	if v, ok := mt.Get(bk("a")); !ok || string(v) != "1" {
		t.Fatalf("key a: got (%s,%v)", v, ok)
	}
	if v, ok := mt.Get(bk("c")); !ok || string(v) != "3" {
		t.Fatalf("key c: got (%s,%v)", v, ok)
	}
	if _, ok := mt.Get(bk("b")); ok {
		t.Fatal("key b should have been deleted on replay")
	}
}
