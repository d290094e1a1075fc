// Package wal provides an append-only, crash-safe log of Put/Delete
// operations backing a memtable: every mutation is durably recorded here
// before it is visible, so a crash can replay the log to rebuild state.
package wal

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/flashlsm/lsmkit/key"
)

const (
	InvalidCRC   = uint32(0xFFFFFFFF)
	MaxEntrySize = 16 << 20 // 16MB
)

var ErrCorruptWAL = fmt.Errorf("corrupt WAL")

type Operation int

const (
	OperationPut Operation = iota
	OperationDelete
)

// Log is a single WAL record: an operation plus the key/value it applies to.
// The key is a key.Bytes, the same immutable view a flushed memtable record
// carries, so a replayed Log can be applied to a memtable without converting
// between key representations.
type Log struct {
	op    Operation
	key   key.Bytes
	value []byte
}

func NewLog(op Operation, k key.Bytes, value []byte) *Log {
	return &Log{op: op, key: k, value: value}
}

func (l *Log) Op() Operation  { return l.op }
func (l *Log) Key() key.Bytes { return l.key }
func (l *Log) Value() []byte  { return l.value }

func (l *Log) String() string {
	return fmt.Sprintf("[operation: %d] [key: %s] [value: %s]", l.op, l.key.String(), l.value)
}

// Encode writes a record to w. Binary format:
//
//	| CRC (4) | TOTAL_LEN (4) | TYPE (1) | KEY_LEN (4) | KEY | VAL_LEN (4) | VALUE |
//
// CRC covers TOTAL_LEN and everything after it. w must also implement
// io.Seeker: the CRC field is written as a placeholder, the payload is
// streamed through a hash, then Encode seeks back to patch in the real
// checksum rather than buffering the whole record in memory first.
func (l *Log) Encode(w io.Writer) error {
	seeker, ok := w.(io.Seeker)
	if !ok {
		return fmt.Errorf("wal writer must be seekable")
	}

	crc := crc32.NewIEEE()
	mw := io.MultiWriter(w, crc)

	keyLen := uint32(l.key.Len())
	valLen := uint32(len(l.value))

	payloadLen := 1 + 4 + keyLen + 4 + valLen
	totalLen := 4 + payloadLen

	if totalLen > MaxEntrySize {
		return fmt.Errorf("entry too large")
	}

	if err := binary.Write(w, binary.LittleEndian, InvalidCRC); err != nil {
		return err
	}

	if err := binary.Write(mw, binary.LittleEndian, totalLen); err != nil {
		return err
	}

	if err := binary.Write(mw, binary.LittleEndian, byte(l.op)); err != nil {
		return err
	}

	if err := binary.Write(mw, binary.LittleEndian, keyLen); err != nil {
		return err
	}

	if _, err := mw.Write(l.key.Raw()); err != nil {
		return err
	}

	if err := binary.Write(mw, binary.LittleEndian, valLen); err != nil {
		return err
	}

	if _, err := mw.Write(l.value); err != nil {
		return err
	}

	pos, err := seeker.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}

	if _, err := seeker.Seek(pos-int64(totalLen)-4, io.SeekStart); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, crc.Sum32()); err != nil {
		return err
	}

	_, err = seeker.Seek(pos, io.SeekStart)
	return err
}

func cleanEOF(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return io.EOF
	}
	return err
}

// Decode reads one record from r. A CRC field equal to InvalidCRC (the
// placeholder Encode seeks over before the checksum is patched in) is
// treated as end-of-log, not corruption, so a reader can stop cleanly at
// a record interrupted by a crash mid-write.
func Decode(r io.Reader) (*Log, error) {
	var storedCRC uint32
	if err := binary.Read(r, binary.LittleEndian, &storedCRC); err != nil {
		return nil, cleanEOF(err)
	}

	if storedCRC == InvalidCRC {
		return nil, io.EOF
	}

	var totalLen uint32
	if err := binary.Read(r, binary.LittleEndian, &totalLen); err != nil {
		return nil, cleanEOF(err)
	}

	if totalLen > MaxEntrySize || totalLen < 5 {
		return nil, ErrCorruptWAL
	}

	payload := make([]byte, totalLen)
	binary.LittleEndian.PutUint32(payload[0:4], totalLen)

	if _, err := io.ReadFull(r, payload[4:]); err != nil {
		return nil, cleanEOF(err)
	}

	if crc32.ChecksumIEEE(payload) != storedCRC {
		return nil, ErrCorruptWAL
	}

	pos := 4

	var l Log
	l.op = Operation(payload[pos])
	pos++

	keyLen := binary.LittleEndian.Uint32(payload[pos:])
	pos += 4

	if keyLen > uint32(len(payload))-uint32(pos) {
		return nil, ErrCorruptWAL
	}

	l.key = key.BytesFromSlice(payload[pos : pos+int(keyLen)])
	pos += int(keyLen)

	valLen := binary.LittleEndian.Uint32(payload[pos:])
	pos += 4

	if valLen > uint32(len(payload))-uint32(pos) {
		return nil, ErrCorruptWAL
	}

	l.value = make([]byte, valLen)
	copy(l.value, payload[pos:pos+int(valLen)])

	return &l, nil
}
