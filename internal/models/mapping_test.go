package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestExtractList_Shapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantIDs []string
	}{
		{"array directly", `[{"id":"A1"},{"id":"A2"}]`, []string{"A1", "A2"}},
		{"well-known field", `{"items":[{"id":"A1"}]}`, []string{"A1"}},
		{"data field", `{"data":[{"id":"A1"}]}`, []string{"A1"}},
		{"unknown field falls back to first array", `{"extinguishers":[{"id":"A1"}],"total":2}`, []string{"A1"}},
		{"no array anywhere", `{"total":2}`, nil},
		{"scalar payload", `42`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raws := ExtractList(decode(t, tt.payload))
			var ids []string
			for _, r := range raws {
				ids = append(ids, stringField(r, idAliases))
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestSummaryFromRaw_AliasProbing(t *testing.T) {
	raw := decode(t, `{
		"asset_id": "A7",
		"serial": "FX-0042",
		"site": "Warehouse 3",
		"class": "CO2",
		"status": "Completed",
		"interval_days": 90,
		"next_due_date": "2026-06-01",
		"lastCheckDate": "2026-03-03T10:00:00Z",
		"badge": "B100",
		"qr_token": "tok-77"
	}`).(map[string]any)

	s, ok := SummaryFromRaw(raw)
	require.True(t, ok)
	assert.Equal(t, "A7", s.ID)
	assert.Equal(t, "FX-0042", s.Code)
	assert.Equal(t, "Warehouse 3", s.Location)
	assert.Equal(t, "CO2", s.Category)
	assert.Equal(t, MaintenanceDone, s.MaintenanceState)
	assert.Equal(t, 90, s.IntervalDays)
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), s.NextDueDate)
	assert.Equal(t, "B100", s.AssignedBadge)
	assert.Equal(t, "tok-77", s.Token)
}

func TestSummaryFromRaw_FirstAliasWins(t *testing.T) {
	raw := decode(t, `{"id":"canonical","assetId":"legacy"}`).(map[string]any)
	s, ok := SummaryFromRaw(raw)
	require.True(t, ok)
	assert.Equal(t, "canonical", s.ID)
}

func TestSummaryFromRaw_EmptyIDDropped(t *testing.T) {
	_, ok := SummaryFromRaw(map[string]any{"code": "FX-1"})
	assert.False(t, ok)

	_, ok = SummaryFromRaw(map[string]any{"id": ""})
	assert.False(t, ok)
}

func TestSummaryFromRaw_DefaultsAndBounds(t *testing.T) {
	s, ok := SummaryFromRaw(map[string]any{"id": "A1"})
	require.True(t, ok)
	assert.Equal(t, DefaultIntervalDays, s.IntervalDays)
	assert.Equal(t, MaintenancePending, s.MaintenanceState)
	assert.True(t, s.NextDueDate.IsZero())

	s, ok = SummaryFromRaw(map[string]any{"id": "A1", "intervalDays": float64(0)})
	require.True(t, ok)
	assert.Equal(t, DefaultIntervalDays, s.IntervalDays, "interval below 1 falls back to default")
}

func TestSummaryFromRaw_NumericID(t *testing.T) {
	s, ok := SummaryFromRaw(map[string]any{"id": float64(1024)})
	require.True(t, ok)
	assert.Equal(t, "1024", s.ID)
}

func TestDetailFromRaw_ChecklistAndPhotos(t *testing.T) {
	raw := decode(t, `{
		"id": "A1",
		"checklist": [
			{"checklistId": "c1", "question": "Pressure gauge in green zone?", "condition": "ok"},
			{"id": "c2", "text": "Seal intact?", "state": "damaged"}
		],
		"photos": ["file:///p1.jpg", {"url": "https://cdn.example/p2.jpg"}]
	}`).(map[string]any)

	d, ok := DetailFromRaw(raw)
	require.True(t, ok)
	require.Len(t, d.Checklist, 2)
	assert.Equal(t, ChecklistItem{ChecklistID: "c1", Question: "Pressure gauge in green zone?", Condition: "ok"}, d.Checklist[0])
	assert.Equal(t, ChecklistItem{ChecklistID: "c2", Question: "Seal intact?", Condition: "damaged"}, d.Checklist[1])
	assert.Equal(t, []string{"file:///p1.jpg", "https://cdn.example/p2.jpg"}, d.Photos)
}

func TestDetailFromRaw_EmptyIDDropped(t *testing.T) {
	_, ok := DetailFromRaw(map[string]any{"checklist": []any{}})
	assert.False(t, ok)
}
