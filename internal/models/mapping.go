package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// The backend has gone through several naming conventions; each logical
// attribute is probed against an ordered alias list and the first present
// alias wins.
var (
	idAliases       = []string{"id", "assetId", "asset_id", "equipmentId"}
	codeAliases     = []string{"code", "assetCode", "asset_code", "serial"}
	locationAliases = []string{"location", "place", "site", "building"}
	categoryAliases = []string{"category", "type", "assetType", "class"}
	stateAliases    = []string{"maintenanceState", "status", "state", "maintenance_status"}
	intervalAliases = []string{"intervalDays", "interval_days", "checkIntervalDays", "interval"}
	nextDueAliases  = []string{"nextDueDate", "next_due_date", "dueDate", "nextCheckDate"}
	lastDoneAliases = []string{"lastInspectionDate", "last_inspection_date", "lastCheckDate", "lastChecked"}
	badgeAliases    = []string{"assignedBadge", "badge", "technicianBadge", "assignee"}
	tokenAliases    = []string{"qrToken", "token", "qr_token", "qr"}

	listFieldNames = []string{"items", "data", "assets", "results", "rows", "list"}
)

// ExtractList normalizes the decoded payload of a list endpoint into a slice
// of raw records. Accepted shapes: an array directly, an object with one of
// the well-known list field names, or failing that the first array-valued
// top-level field.
func ExtractList(payload any) []map[string]any {
	switch v := payload.(type) {
	case []any:
		return rawRecords(v)
	case map[string]any:
		for _, name := range listFieldNames {
			if arr, ok := v[name].([]any); ok {
				return rawRecords(arr)
			}
		}
		for _, val := range v {
			if arr, ok := val.([]any); ok {
				return rawRecords(arr)
			}
		}
	}
	return nil
}

func rawRecords(arr []any) []map[string]any {
	out := make([]map[string]any, 0, len(arr))
	for _, item := range arr {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// SummaryFromRaw maps one raw record into an AssetSummary. Records without a
// usable id are rejected (ok=false) and dropped by callers.
func SummaryFromRaw(raw map[string]any) (AssetSummary, bool) {
	id := stringField(raw, idAliases)
	if id == "" {
		return AssetSummary{}, false
	}

	s := AssetSummary{
		ID:                 id,
		Code:               stringField(raw, codeAliases),
		Location:           stringField(raw, locationAliases),
		Category:           stringField(raw, categoryAliases),
		MaintenanceState:   stateFromRaw(stringField(raw, stateAliases)),
		IntervalDays:       intField(raw, intervalAliases, DefaultIntervalDays),
		NextDueDate:        dateField(raw, nextDueAliases),
		LastInspectionDate: dateField(raw, lastDoneAliases),
		AssignedBadge:      stringField(raw, badgeAliases),
		Token:              stringField(raw, tokenAliases),
	}
	if s.IntervalDays < 1 {
		s.IntervalDays = DefaultIntervalDays
	}
	return s, true
}

// TokenFromRaw probes a raw record for a QR token. Unlike SummaryFromRaw it
// does not require an id: minimal manifest records carry only the token.
func TokenFromRaw(raw map[string]any) string {
	return stringField(raw, tokenAliases)
}

// IDFromRaw probes a raw record for the canonical asset id.
func IDFromRaw(raw map[string]any) string {
	return stringField(raw, idAliases)
}

// DetailFromRaw maps one raw record into an AssetDetail, including checklist
// items and photo references.
func DetailFromRaw(raw map[string]any) (AssetDetail, bool) {
	summary, ok := SummaryFromRaw(raw)
	if !ok {
		return AssetDetail{}, false
	}

	d := AssetDetail{AssetSummary: summary}

	for _, name := range []string{"checklist", "checklistItems", "items"} {
		arr, ok := raw[name].([]any)
		if !ok {
			continue
		}
		for _, item := range arr {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			d.Checklist = append(d.Checklist, ChecklistItem{
				ChecklistID: stringField(m, []string{"checklistId", "checklist_id", "id"}),
				Question:    stringField(m, []string{"question", "text", "title"}),
				Condition:   stringField(m, []string{"condition", "state", "answer"}),
			})
		}
		break
	}

	for _, name := range []string{"photos", "images", "photoUrls"} {
		arr, ok := raw[name].([]any)
		if !ok {
			continue
		}
		for _, item := range arr {
			switch p := item.(type) {
			case string:
				d.Photos = append(d.Photos, p)
			case map[string]any:
				if url := stringField(p, []string{"url", "uri", "path"}); url != "" {
					d.Photos = append(d.Photos, url)
				}
			}
		}
		break
	}

	return d, true
}

func stateFromRaw(v string) MaintenanceState {
	switch strings.ToLower(v) {
	case "done", "completed", "ok", "1", "true":
		return MaintenanceDone
	default:
		return MaintenancePending
	}
}

func stringField(raw map[string]any, aliases []string) string {
	for _, a := range aliases {
		v, ok := raw[a]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64)
		case json.Number:
			return s.String()
		}
	}
	return ""
}

func intField(raw map[string]any, aliases []string, def int) int {
	for _, a := range aliases {
		v, ok := raw[a]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int(n)
		case string:
			if parsed, err := strconv.Atoi(n); err == nil {
				return parsed
			}
		case json.Number:
			if parsed, err := n.Int64(); err == nil {
				return int(parsed)
			}
		}
	}
	return def
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02.01.2006",
}

func dateField(raw map[string]any, aliases []string) time.Time {
	s := stringField(raw, aliases)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
