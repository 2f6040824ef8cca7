package alerts

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kmorrisey/watchwire/pkg/watchwire/event"
)

// TrustMatrix is the client-side per-zone trust view, folded from
// zone.trust_changed events. The backend sends per-zone updates; the
// matrix keeps the latest state per zone.
type TrustMatrix struct {
	mu    sync.RWMutex
	zones map[string]ZoneTrust
}

// NewTrustMatrix creates an empty trust matrix.
func NewTrustMatrix() *TrustMatrix {
	return &TrustMatrix{zones: make(map[string]ZoneTrust)}
}

// Apply folds one zone.trust_changed dispatch into the matrix.
// Other kinds are ignored.
func (m *TrustMatrix) Apply(_ context.Context, msg event.Message) error {
	if msg.Kind != event.KindZoneTrustChanged {
		return nil
	}

	update, err := event.DecodeData[struct {
		ZoneID string `json:"zone_id"`
		Trust  struct {
			Score float64 `json:"score"`
			Level string  `json:"level"`
		} `json:"trust"`
	}](msg)
	if err != nil {
		return fmt.Errorf("decode zone.trust_changed: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Out-of-order delivery: never replace newer state with older.
	if existing, ok := m.zones[update.ZoneID]; ok && existing.UpdatedAt.After(msg.Timestamp) {
		return nil
	}

	m.zones[update.ZoneID] = ZoneTrust{
		ZoneID:    update.ZoneID,
		Score:     update.Trust.Score,
		Level:     update.Trust.Level,
		UpdatedAt: msg.Timestamp,
	}
	return nil
}

// Zone returns the trust state for one zone.
func (m *TrustMatrix) Zone(zoneID string) (ZoneTrust, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	zt, ok := m.zones[zoneID]
	return zt, ok
}

// Zones returns every zone's trust state, ordered by zone id.
func (m *TrustMatrix) Zones() []ZoneTrust {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]ZoneTrust, 0, len(m.zones))
	for _, zt := range m.zones {
		out = append(out, zt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ZoneID < out[j].ZoneID })
	return out
}

// Bind subscribes the matrix to a dispatcher's trust updates.
func (m *TrustMatrix) Bind(d *event.Dispatcher) event.Unsubscribe {
	return d.Subscribe(event.KindZoneTrustChanged, m.Apply)
}
