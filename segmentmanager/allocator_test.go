package segmentmanager

import (
	"os"
	"path/filepath"
	"testing"
)

func setupAllocatorTests(t *testing.T, options ...AllocatorOption) (a *Allocator, dir string) {
	dir = t.TempDir()
	a, err := NewAllocator(dir, options...)
	if err != nil {
		t.Fatal("failed to create allocator", err)
	}
	return a, dir
}

func TestWithFileExtOption(t *testing.T) {
	a, _ := setupAllocatorTests(t, WithFileExt(".dog"))

	if a.fileExt != ".dog" {
		t.Fatal("expected .dog", "got", a.fileExt)
	}
}

func TestNewAllocatorEmptyDirStartsAtOne(t *testing.T) {
	a, _ := setupAllocatorTests(t)

	id, path := a.Next()
	if id != 1 {
		t.Fatal("expected first id 1", "got", id)
	}

	if filepath.Base(path) != "00000000000000000001.sst" {
		t.Fatal("unexpected path", path)
	}
}

func TestNewAllocatorResumesFromExistingFiles(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"00000000000000000001.sst", "00000000000000000002.sst"} {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		f.Close()
	}

	a, err := NewAllocator(dir)
	if err != nil {
		t.Fatal(err)
	}

	id, _ := a.Next()
	if id != 3 {
		t.Fatal("expected next id 3", "got", id)
	}
}

func TestNewAllocatorRejectsGapInSequence(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"00000000000000000001.sst", "00000000000000000003.sst"} {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		f.Close()
	}

	if _, err := NewAllocator(dir); err == nil {
		t.Fatal("expected error on gapped id sequence")
	}
}

func TestAllocatorIgnoresNonMatchingFiles(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"notes.txt", "00000000000000000001.sst"} {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		f.Close()
	}

	a, err := NewAllocator(dir)
	if err != nil {
		t.Fatal(err)
	}

	id, _ := a.Next()
	if id != 2 {
		t.Fatal("expected next id 2", "got", id)
	}
}

func TestAllocatorNextIsConcurrencySafe(t *testing.T) {
	a, _ := setupAllocatorTests(t)

	const n = 100
	ids := make(chan uint64, n)
	for i := 0; i < n; i++ {
		go func() {
			id, _ := a.Next()
			ids <- id
		}()
	}

	seen := map[uint64]bool{}
	for i := 0; i < n; i++ {
		id := <-ids
		if seen[id] {
			t.Fatalf("id %d allocated twice", id)
		}
		seen[id] = true
	}
}
