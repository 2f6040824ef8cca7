package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/kmorrisey/watchwire/pkg/watchwire/event"
)

// SQLiteJournal persists events to SQLite.
// It is suitable for single-process production use.
type SQLiteJournal struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteJournal creates a new SQLite event journal.
// The path should be a file path (e.g., "./events.db") or ":memory:" for testing.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			sequence INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			data BLOB NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_events_kind
		ON events(kind, sequence)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteJournal{db: db}, nil
}

// Append implements Journal.
func (s *SQLiteJournal) Append(msg event.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrJournalClosed
	}

	data, err := json.Marshal(msg.Data)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	if _, err := s.db.Exec(`
		INSERT INTO events (kind, timestamp, data)
		VALUES (?, ?, ?)
	`, string(msg.Kind), ts.UTC().Format(time.RFC3339Nano), data); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// Recent implements Journal.
func (s *SQLiteJournal) Recent(kind event.Kind, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrJournalClosed
	}

	query := `
		SELECT sequence, kind, timestamp, data
		FROM events
		WHERE (? = '' OR kind = ?)
		ORDER BY sequence DESC
		LIMIT ?
	`
	rows, err := s.db.Query(query, string(kind), string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0, limit)
	for rows.Next() {
		var rec Record
		var kindStr, timestamp string
		var data []byte
		if err := rows.Scan(&rec.Sequence, &kindStr, &timestamp, &data); err != nil {
			return nil, fmt.Errorf("scan event record: %w", err)
		}
		rec.Kind = event.Kind(kindStr)
		rec.Timestamp, _ = time.Parse(time.RFC3339Nano, timestamp)
		if err := json.Unmarshal(data, &rec.Data); err != nil {
			return nil, fmt.Errorf("unmarshal event payload: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return records, nil
}

// Prune implements Journal.
func (s *SQLiteJournal) Prune(before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrJournalClosed
	}

	res, err := s.db.Exec(`
		DELETE FROM events WHERE timestamp < ?
	`, before.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return int(n), nil
}

// Close implements Journal.
func (s *SQLiteJournal) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
