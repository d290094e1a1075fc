package wal

import (
	"io"
	"iter"
	"os"
	"path/filepath"

	"github.com/flashlsm/lsmkit/memtable"
)

type WALReader struct {
	f *os.File
}

func NewWALReader(dir string) (*WALReader, error) {
	f, err := os.OpenFile(filepath.Join(dir, WalFilePath), os.O_RDONLY, 0o644)
	if err != nil {
		return nil, err
	}

	return &WALReader{f: f}, nil
}

func (w *WALReader) Read() (*Log, error) {
	return Decode(w.f)
}

func (w *WALReader) Iter() iter.Seq2[Log, error] {
	return func(yield func(Log, error) bool) {
		for {
			log, err := Decode(w.f)
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(Log{}, err)
				return
			}
			if !yield(*log, nil) {
				return
			}
		}
	}
}

func (w *WALReader) Reset() error {
	_, err := w.f.Seek(0, io.SeekStart)
	return err
}

// Replay applies every record in the log to mt, in the order written:
// OperationPut sets the key, OperationDelete removes it. This is how a
// memtable is rebuilt after a crash, before any SST flush for the segment
// it was backing has happened.
func (w *WALReader) Replay(mt *memtable.SkipList[[]byte]) error {
	for l, err := range w.Iter() {
		if err != nil {
			return err
		}
		switch l.Op() {
		case OperationPut:
			mt.Put(l.Key(), l.Value())
		case OperationDelete:
			mt.Delete(l.Key())
		}
	}
	return nil
}

func (w *WALReader) Close() error {
	return w.f.Close()
}
