// Package segmentmanager hands out file ids for the immutable, one-shot
// files an LSM tree accumulates on disk. It started life rotating
// append-only log segments; an SST is written whole by sstable.Builder
// rather than appended to, so this package now only tracks which ids are
// already on disk in a directory and allocates the next one, keeping the
// same directory-scan-and-validate shape.
package segmentmanager

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"sync"
)

const defaultFileExt = ".sst"

var fileNamePattern = regexp.MustCompile(`^(\d+)\.sst$`)

type fileEntry struct {
	id   uint64
	name string
}

type fileEntries []fileEntry

func (a fileEntries) Len() int           { return len(a) }
func (a fileEntries) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a fileEntries) Less(i, j int) bool { return a[i].id < a[j].id }

// Allocator assigns the next SST id within a directory and reports the
// path it should be written to. It does not create or hold open any
// file itself; sstable.Builder.Build owns the write.
type Allocator struct {
	mu      sync.Mutex
	dir     string
	fileExt string
	nextID  uint64
}

type AllocatorOption func(a *Allocator)

func WithFileExt(ext string) AllocatorOption {
	return func(a *Allocator) {
		a.fileExt = ext
	}
}

func isDirectoryValid(path string) error {
	fileInfo, err := os.Stat(path)
	if err == nil {
		if fileInfo.IsDir() {
			return nil
		}
		return fmt.Errorf("path exists but is not a directory: %s", path)
	}
	return err
}

// NewAllocator scans dir for existing "<id>.sst" files, validates their
// ids form a gapless sequence starting at 1 (or none at all), and starts
// allocation at one past the highest id found. A missing dir is created.
func NewAllocator(dir string, options ...AllocatorOption) (*Allocator, error) {
	a := &Allocator{dir: dir, fileExt: defaultFileExt}
	for _, opt := range options {
		opt(a)
	}

	if err := isDirectoryValid(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
			return a, nil
		}
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var found fileEntries
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if filepath.Ext(entry.Name()) != a.fileExt {
			continue
		}
		matches := fileNamePattern.FindStringSubmatch(entry.Name())
		if len(matches) != 2 {
			continue
		}
		id, err := strconv.ParseUint(matches[1], 10, 64)
		if err != nil {
			continue
		}
		found = append(found, fileEntry{id: id, name: entry.Name()})
	}

	if len(found) == 0 {
		return a, nil
	}

	sort.Sort(found)
	if !validateFileEntries(found) {
		return nil, errors.New("invalid sst id sequence in directory")
	}

	a.nextID = found[len(found)-1].id
	return a, nil
}

func validateFileEntries(entries fileEntries) bool {
	for i, e := range entries {
		if e.id != uint64(i+1) {
			return false
		}
	}
	return true
}

func (a *Allocator) idToPath(id uint64) string {
	return filepath.Join(a.dir, fmt.Sprintf("%020d%s", id, a.fileExt))
}

// Next returns the next unused id and the path it should be built at.
func (a *Allocator) Next() (id uint64, path string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextID++
	return a.nextID, a.idToPath(a.nextID)
}

// Dir reports the directory this allocator allocates within.
func (a *Allocator) Dir() string { return a.dir }
