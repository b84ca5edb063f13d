// Package models defines the asset types the sync engine moves around and the
// mapping from heterogeneous backend payloads into them.
package models

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/fireguard/internal/timex"
)

// MaintenanceState classifies whether an asset's current inspection is done.
type MaintenanceState string

const (
	MaintenancePending MaintenanceState = "pending"
	MaintenanceDone    MaintenanceState = "done"
)

// DefaultIntervalDays is assumed when the backend does not supply an
// inspection interval.
const DefaultIntervalDays = 30

// AssetSummary is one row of the asset list as surfaced to list views.
type AssetSummary struct {
	ID                 string           `json:"id"`
	Code               string           `json:"code"`
	Location           string           `json:"location"`
	Category           string           `json:"category"`
	MaintenanceState   MaintenanceState `json:"maintenanceState"`
	IntervalDays       int              `json:"intervalDays"`
	NextDueDate        time.Time        `json:"nextDueDate"`
	LastInspectionDate time.Time        `json:"lastInspectionDate"`
	AssignedBadge      string           `json:"assignedBadge"`
	Token              string           `json:"token,omitempty"`
}

// DaysRemaining computes the calendar days until NextDueDate relative to now,
// with time-of-day zeroed on both sides. A zero NextDueDate yields 0. The
// value is derived on every read and never persisted.
func (a AssetSummary) DaysRemaining(now time.Time) int {
	if a.NextDueDate.IsZero() {
		return 0
	}
	due := timex.StartOfDay(a.NextDueDate)
	today := timex.StartOfDay(now.In(a.NextDueDate.Location()))
	return int(due.Sub(today) / (24 * time.Hour))
}

// ChecklistItem is one question of an inspection checklist.
type ChecklistItem struct {
	ChecklistID string `json:"checklistId"`
	Question    string `json:"question"`
	Condition   string `json:"condition"`
}

// AssetDetail is the full inspection record for one asset. It is stored under
// the canonical id key and, when a QR token exists, under the token key too.
type AssetDetail struct {
	AssetSummary
	Checklist []ChecklistItem `json:"checklist"`
	Photos    []string        `json:"photos"`
}

// IsRescueRole reports whether the technician role grants broader
// cross-location access, selecting the aggregate-then-detail list strategy.
// Derived from the role string on every call, never cached separately.
func IsRescueRole(role string) bool {
	return strings.Contains(strings.ToLower(role), "rescue")
}
