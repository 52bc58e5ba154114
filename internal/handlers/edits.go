package handlers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sjperalta/timecard-api/internal/models"
	"github.com/sjperalta/timecard-api/internal/services"
)

// EditsPayload accepts daily edits in either client shape:
//
//	desktop: {"edits": {"2024-01-15": {"check_in_time": "09:30:00"}}}
//	mobile:  {"entries": [{"work_date": "2024-01-15", "checkIn": "09:30"}]}
//
// A null or empty value clears the field.
type EditsPayload struct {
	Edits   map[string]map[string]*string `json:"edits"`
	Entries []map[string]json.RawMessage  `json:"entries"`
}

// Keys the mobile client echoes back that are not editable
var readOnlyEntryKeys = map[string]bool{
	"id":          true,
	"timecard_id": true,
	"timecardid":  true,
	"hours":       true,
	"pay":         true,
}

var workDateKeys = []string{"work_date", "workDate", "date"}

// IsEmpty reports whether no edits were sent
func (p *EditsPayload) IsEmpty() bool {
	return len(p.Edits) == 0 && len(p.Entries) == 0
}

// DailyEdits converts the payload into canonical edits keyed by work date
func (p *EditsPayload) DailyEdits() (models.DailyEdits, error) {
	edits := models.DailyEdits{}

	for rawDate, fields := range p.Edits {
		date, err := models.ParseDate(strings.TrimSpace(rawDate))
		if err != nil {
			return nil, &services.ValidationError{Field: "edits", Message: fmt.Sprintf("fecha inválida %q", rawDate)}
		}
		for key, value := range fields {
			field, ok := models.ParseDailyField(key)
			if !ok {
				return nil, &services.ValidationError{Field: key, Message: "campo desconocido"}
			}
			if !put(edits, date, field, value) {
				return nil, &services.ValidationError{Field: key, Message: fmt.Sprintf("%s repetido para %s", field, date)}
			}
		}
	}

	for i, entry := range p.Entries {
		date, err := entryDate(entry)
		if err != nil {
			return nil, &services.ValidationError{Field: fmt.Sprintf("entries[%d].work_date", i), Message: err.Error()}
		}
		for key, raw := range entry {
			if isWorkDateKey(key) || readOnlyEntryKeys[strings.ToLower(key)] {
				continue
			}
			field, ok := models.ParseDailyField(key)
			if !ok {
				return nil, &services.ValidationError{Field: fmt.Sprintf("entries[%d].%s", i, key), Message: "campo desconocido"}
			}
			var value *string
			if err := json.Unmarshal(raw, &value); err != nil {
				return nil, &services.ValidationError{Field: fmt.Sprintf("entries[%d].%s", i, key), Message: "debe ser texto o null"}
			}
			if !put(edits, date, field, value) {
				return nil, &services.ValidationError{Field: fmt.Sprintf("entries[%d].%s", i, key), Message: fmt.Sprintf("%s repetido para %s", field, date)}
			}
		}
	}

	return edits, nil
}

// put reports false when the field already has a value for date, which
// happens when aliases of one column arrive together.
func put(edits models.DailyEdits, date models.Date, field models.AuditField, value *string) bool {
	if edits[date] == nil {
		edits[date] = map[models.AuditField]*string{}
	}
	if _, dup := edits[date][field]; dup {
		return false
	}
	edits[date][field] = value
	return true
}

func isWorkDateKey(key string) bool {
	for _, k := range workDateKeys {
		if key == k {
			return true
		}
	}
	return false
}

func entryDate(entry map[string]json.RawMessage) (models.Date, error) {
	for _, k := range workDateKeys {
		raw, ok := entry[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return models.Date{}, fmt.Errorf("debe ser una fecha AAAA-MM-DD")
		}
		d, err := models.ParseDate(strings.TrimSpace(s))
		if err != nil {
			return models.Date{}, fmt.Errorf("fecha inválida %q", s)
		}
		return d, nil
	}
	return models.Date{}, fmt.Errorf("es requerido")
}
