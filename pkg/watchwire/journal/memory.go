package journal

import (
	"sync"
	"time"

	"github.com/kmorrisey/watchwire/pkg/watchwire/event"
)

// MemoryJournal is an in-memory journal for testing.
// Records are lost when the process exits.
type MemoryJournal struct {
	mu      sync.RWMutex
	records []Record
	nextSeq int64
	closed  bool
}

// NewMemoryJournal creates a new in-memory journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{nextSeq: 1}
}

// Append implements Journal.
func (m *MemoryJournal) Append(msg event.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrJournalClosed
	}

	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	// Copy the payload to avoid retaining the caller's map
	data := make(map[string]any, len(msg.Data))
	for k, v := range msg.Data {
		data[k] = v
	}

	m.records = append(m.records, Record{
		Sequence:  m.nextSeq,
		Kind:      msg.Kind,
		Data:      data,
		Timestamp: ts,
	})
	m.nextSeq++
	return nil
}

// Recent implements Journal.
func (m *MemoryJournal) Recent(kind event.Kind, limit int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrJournalClosed
	}

	result := make([]Record, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(result) < limit; i-- {
		if kind != "" && m.records[i].Kind != kind {
			continue
		}
		result = append(result, m.records[i])
	}
	return result, nil
}

// Prune implements Journal.
func (m *MemoryJournal) Prune(before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrJournalClosed
	}

	kept := m.records[:0]
	removed := 0
	for _, rec := range m.records {
		if rec.Timestamp.Before(before) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	m.records = kept
	return removed, nil
}

// Close implements Journal.
func (m *MemoryJournal) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.records = nil
	return nil
}

// Len returns the number of journaled records.
// Useful for testing.
func (m *MemoryJournal) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
