package store

import (
	"encoding/json"
	"errors"
	"fmt"
)

// logEntryObjectType namespaces the composite keys of log entries.
const logEntryObjectType = "LogEntry"

// seqWidth zero-pads sequence numbers so composite keys sort in append order.
const seqWidth = 20

var (
	// ErrCorruptLog is returned when a head or entry record cannot be read back.
	ErrCorruptLog = errors.New("corrupt append log")
	// ErrOutOfRange is returned when reading a position past the end of a log.
	ErrOutOfRange = errors.New("log position out of range")
)

// logHead is stored under the log's own name and carries its length.
type logHead struct {
	Name   string `json:"name"`
	Length uint64 `json:"length"`
}

// AppendLog is an append-only ordered log kept in the world state. The head
// key holds the length; every entry is stored under its own sequence key, so
// an append touches two keys regardless of how long the log is.
type AppendLog struct {
	store *StateStore
	name  string
}

// NewAppendLog returns the log stored under name.
func NewAppendLog(s *StateStore, name string) *AppendLog {
	return &AppendLog{store: s, name: name}
}

// Name returns the head key of the log.
func (l *AppendLog) Name() string {
	return l.name
}

func (l *AppendLog) entryKey(seq uint64) (string, error) {
	return l.store.CompositeKey(logEntryObjectType, l.name, fmt.Sprintf("%0*d", seqWidth, seq))
}

func (l *AppendLog) writeHead(length uint64) error {
	headBytes, err := json.Marshal(logHead{Name: l.name, Length: length})
	if err != nil {
		return fmt.Errorf("failed to marshal head of log '%s': %w", l.name, err)
	}
	return l.store.Put(l.name, headBytes)
}

// Reset writes an empty head. Entries beyond the new length become unreachable.
func (l *AppendLog) Reset() error {
	if err := l.writeHead(0); err != nil {
		return err
	}
	logger.Infof("Log '%s' reset to empty", l.name)
	return nil
}

// Len returns the number of entries. A log whose head was never written is empty.
func (l *AppendLog) Len() (uint64, error) {
	headBytes, err := l.store.Get(l.name)
	if err != nil {
		return 0, err
	}
	if headBytes == nil {
		return 0, nil
	}
	var head logHead
	if err := json.Unmarshal(headBytes, &head); err != nil {
		return 0, fmt.Errorf("head of log '%s' is unreadable: %v: %w", l.name, err, ErrCorruptLog)
	}
	return head.Length, nil
}

// Append stores value as the next entry and returns its sequence number.
func (l *AppendLog) Append(value []byte) (uint64, error) {
	seq, err := l.Len()
	if err != nil {
		return 0, err
	}
	key, err := l.entryKey(seq)
	if err != nil {
		return 0, fmt.Errorf("failed to create entry key %d for log '%s': %w", seq, l.name, err)
	}
	if err := l.store.Put(key, value); err != nil {
		return 0, err
	}
	if err := l.writeHead(seq + 1); err != nil {
		return 0, err
	}
	logger.Debugf("Appended entry %d to log '%s'", seq, l.name)
	return seq, nil
}

// Get returns the entry at seq.
func (l *AppendLog) Get(seq uint64) ([]byte, error) {
	length, err := l.Len()
	if err != nil {
		return nil, err
	}
	if seq >= length {
		return nil, fmt.Errorf("log '%s' has %d entries, requested %d: %w", l.name, length, seq, ErrOutOfRange)
	}
	return l.get(seq)
}

func (l *AppendLog) get(seq uint64) ([]byte, error) {
	key, err := l.entryKey(seq)
	if err != nil {
		return nil, fmt.Errorf("failed to create entry key %d for log '%s': %w", seq, l.name, err)
	}
	value, err := l.store.Get(key)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, fmt.Errorf("entry %d of log '%s' is missing: %w", seq, l.name, ErrCorruptLog)
	}
	return value, nil
}

// Iterator returns a lazy iterator over entries [from, Len()). The end is
// fixed when the iterator is created.
func (l *AppendLog) Iterator(from uint64) (*Iterator, error) {
	length, err := l.Len()
	if err != nil {
		return nil, err
	}
	if from > length {
		from = length
	}
	return &Iterator{log: l, start: from, next: from, end: length}, nil
}

// Iterator walks a log one entry at a time, reading each entry on demand.
type Iterator struct {
	log   *AppendLog
	start uint64
	next  uint64
	end   uint64
}

// HasNext reports whether another entry is available.
func (it *Iterator) HasNext() bool {
	return it.next < it.end
}

// Next returns the sequence number and value of the next entry.
func (it *Iterator) Next() (uint64, []byte, error) {
	if !it.HasNext() {
		return 0, nil, fmt.Errorf("log '%s' iterator exhausted at %d: %w", it.log.name, it.next, ErrOutOfRange)
	}
	seq := it.next
	value, err := it.log.get(seq)
	if err != nil {
		return 0, nil, err
	}
	it.next++
	return seq, value, nil
}

// Reset rewinds the iterator to where it started.
func (it *Iterator) Reset() {
	it.next = it.start
}

// Position returns the sequence number Next will read.
func (it *Iterator) Position() uint64 {
	return it.next
}
