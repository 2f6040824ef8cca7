package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmorrisey/watchwire/pkg/watchwire/event"
)

// journalFactories builds each implementation fresh per subtest so the
// interface contract is verified against both backends.
func journalFactories(t *testing.T) map[string]func(t *testing.T) Journal {
	return map[string]func(t *testing.T) Journal{
		"memory": func(t *testing.T) Journal {
			return NewMemoryJournal()
		},
		"sqlite": func(t *testing.T) Journal {
			path := filepath.Join(t.TempDir(), "events.db")
			j, err := NewSQLiteJournal(path)
			require.NoError(t, err)
			return j
		},
	}
}

func msgAt(kind event.Kind, ts time.Time, data map[string]any) event.Message {
	return event.Message{Kind: kind, Data: data, Timestamp: ts}
}

func TestAppendAndRecent(t *testing.T) {
	for name, factory := range journalFactories(t) {
		t.Run(name, func(t *testing.T) {
			j := factory(t)
			defer j.Close()

			base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
			require.NoError(t, j.Append(msgAt(event.KindAlertCreated, base, map[string]any{"id": "a1"})))
			require.NoError(t, j.Append(msgAt(event.KindCameraOffline, base.Add(time.Minute), map[string]any{"camera_id": "c1"})))
			require.NoError(t, j.Append(msgAt(event.KindAlertCreated, base.Add(2*time.Minute), map[string]any{"id": "a2"})))

			records, err := j.Recent("", 10)
			require.NoError(t, err)
			require.Len(t, records, 3)
			// Newest first.
			assert.Equal(t, "a2", records[0].Data["id"])
			assert.Equal(t, event.KindCameraOffline, records[1].Kind)
			assert.Equal(t, "a1", records[2].Data["id"])
		})
	}
}

func TestRecentFiltersByKind(t *testing.T) {
	for name, factory := range journalFactories(t) {
		t.Run(name, func(t *testing.T) {
			j := factory(t)
			defer j.Close()

			base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
			require.NoError(t, j.Append(msgAt(event.KindAlertCreated, base, map[string]any{"id": "a1"})))
			require.NoError(t, j.Append(msgAt(event.KindCameraOffline, base.Add(time.Minute), map[string]any{"camera_id": "c1"})))

			records, err := j.Recent(event.KindAlertCreated, 10)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, event.KindAlertCreated, records[0].Kind)
		})
	}
}

func TestRecentRespectsLimit(t *testing.T) {
	for name, factory := range journalFactories(t) {
		t.Run(name, func(t *testing.T) {
			j := factory(t)
			defer j.Close()

			base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
			for i := 0; i < 5; i++ {
				require.NoError(t, j.Append(msgAt(event.KindDetectionNew, base.Add(time.Duration(i)*time.Second), map[string]any{"id": "d", "camera_id": "c", "label": "person"})))
			}

			records, err := j.Recent("", 2)
			require.NoError(t, err)
			assert.Len(t, records, 2)
		})
	}
}

func TestRecentEmpty(t *testing.T) {
	for name, factory := range journalFactories(t) {
		t.Run(name, func(t *testing.T) {
			j := factory(t)
			defer j.Close()

			records, err := j.Recent("", 10)
			require.NoError(t, err)
			assert.Empty(t, records)
		})
	}
}

func TestPrune(t *testing.T) {
	for name, factory := range journalFactories(t) {
		t.Run(name, func(t *testing.T) {
			j := factory(t)
			defer j.Close()

			base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
			require.NoError(t, j.Append(msgAt(event.KindAlertCreated, base, map[string]any{"id": "old"})))
			require.NoError(t, j.Append(msgAt(event.KindAlertCreated, base.Add(time.Hour), map[string]any{"id": "new"})))

			removed, err := j.Prune(base.Add(30 * time.Minute))
			require.NoError(t, err)
			assert.Equal(t, 1, removed)

			records, err := j.Recent("", 10)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, "new", records[0].Data["id"])
		})
	}
}

func TestClosedJournalRejectsOperations(t *testing.T) {
	for name, factory := range journalFactories(t) {
		t.Run(name, func(t *testing.T) {
			j := factory(t)
			require.NoError(t, j.Close())

			err := j.Append(msgAt(event.KindAlertCreated, time.Now(), map[string]any{"id": "x"}))
			assert.ErrorIs(t, err, ErrJournalClosed)

			_, err = j.Recent("", 1)
			assert.ErrorIs(t, err, ErrJournalClosed)

			_, err = j.Prune(time.Now())
			assert.ErrorIs(t, err, ErrJournalClosed)

			// Close twice is fine.
			assert.NoError(t, j.Close())
		})
	}
}

func TestAttachJournalsDispatchedEvents(t *testing.T) {
	j := NewMemoryJournal()
	defer j.Close()

	d := event.NewDispatcher(event.DispatcherConfig{})
	detach := Attach(d, j)

	d.DispatchMessage(context.Background(), event.WireMessage{
		Type:      "alert.created",
		Data:      map[string]any{"id": "a1", "risk_level": "critical", "created_at": "2026-08-25T10:00:00Z"},
		Timestamp: "2026-08-25T10:00:00Z",
	})
	assert.Equal(t, 1, j.Len())

	// Dropped messages never reach the journal.
	d.DispatchMessage(context.Background(), event.WireMessage{Type: "nonsense"})
	assert.Equal(t, 1, j.Len())

	detach()
	d.DispatchMessage(context.Background(), event.WireMessage{
		Type:      "alert.created",
		Data:      map[string]any{"id": "a2", "risk_level": "high", "created_at": "2026-08-25T10:01:00Z"},
		Timestamp: "2026-08-25T10:01:00Z",
	})
	assert.Equal(t, 1, j.Len())
}

func TestSQLiteJournalSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")

	j, err := NewSQLiteJournal(path)
	require.NoError(t, err)
	require.NoError(t, j.Append(msgAt(event.KindAlertCreated, time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC), map[string]any{"id": "a1"})))
	require.NoError(t, j.Close())

	j, err = NewSQLiteJournal(path)
	require.NoError(t, err)
	defer j.Close()

	records, err := j.Recent("", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a1", records[0].Data["id"])
}
