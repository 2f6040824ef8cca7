// Package alerts assembles the dashboard's alert surface: domain types
// for the monitoring wire schema, a tiered dual-source alert feed, and
// the client-side zone trust view.
package alerts

import (
	"time"

	"github.com/google/uuid"
)

// RiskTier classifies alert severity.
type RiskTier string

// Risk tiers, lowest to highest.
const (
	TierInfo     RiskTier = "info"
	TierWarn     RiskTier = "warn"
	TierHigh     RiskTier = "high"
	TierCritical RiskTier = "critical"
)

// AllTiers lists every tier, lowest to highest.
var AllTiers = []RiskTier{TierInfo, TierWarn, TierHigh, TierCritical}

// Valid reports whether t is a known tier.
func (t RiskTier) Valid() bool {
	switch t {
	case TierInfo, TierWarn, TierHigh, TierCritical:
		return true
	}
	return false
}

// TierFilter selects which tiers a feed fetches. A nil or empty filter
// selects nothing.
type TierFilter map[RiskTier]bool

// NewTierFilter builds a filter enabling exactly the given tiers.
func NewTierFilter(tiers ...RiskTier) TierFilter {
	f := make(TierFilter, len(tiers))
	for _, t := range tiers {
		f[t] = true
	}
	return f
}

// ParseTierFilter builds a filter from config strings, ignoring
// unknown tier names.
func ParseTierFilter(names []string) TierFilter {
	f := make(TierFilter, len(names))
	for _, name := range names {
		if t := RiskTier(name); t.Valid() {
			f[t] = true
		}
	}
	return f
}

// Enabled reports whether the filter selects tier t.
func (f TierFilter) Enabled(t RiskTier) bool {
	return f[t]
}

// Alert is one raised alert.
type Alert struct {
	ID         uuid.UUID  `json:"id"`
	RiskLevel  RiskTier   `json:"risk_level"`
	Summary    string     `json:"summary,omitempty"`
	CameraID   string     `json:"camera_id,omitempty"`
	ZoneID     string     `json:"zone_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// Key implements feed.Item.
func (a Alert) Key() string { return a.ID.String() }

// EventTime implements feed.Item.
func (a Alert) EventTime() time.Time { return a.CreatedAt }

// Resolved reports whether the alert has been resolved.
func (a Alert) Resolved() bool { return a.ResolvedAt != nil }

// Detection is one detection from the analysis pipeline.
type Detection struct {
	ID         uuid.UUID `json:"id"`
	CameraID   string    `json:"camera_id"`
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	DetectedAt time.Time `json:"detected_at"`
}

// Key implements feed.Item.
func (d Detection) Key() string { return d.ID.String() }

// EventTime implements feed.Item.
func (d Detection) EventTime() time.Time { return d.DetectedAt }

// CameraStatus is one camera's connectivity state.
type CameraStatus struct {
	CameraID string    `json:"camera_id"`
	Online   bool      `json:"online"`
	SeenAt   time.Time `json:"seen_at"`
}

// SystemStatus is hub and service health telemetry.
type SystemStatus struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// ZoneTrust is one zone's trust state.
type ZoneTrust struct {
	ZoneID    string    `json:"zone_id"`
	Score     float64   `json:"score"`
	Level     string    `json:"level,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
