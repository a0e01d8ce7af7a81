package shared

import (
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"

	"timepay/internal/domain/timetrack"
	"timepay/internal/transport/http/api"
)

type ValidationIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Validator collects every problem of one payload so the client gets them
// in a single 400 response. The zero value is not usable; use NewValidator.
type Validator struct {
	byField map[string][]string
}

func NewValidator() *Validator {
	return &Validator{byField: make(map[string][]string)}
}

func (v *Validator) Add(field, reason string) {
	reason = strings.TrimSpace(reason)
	if v == nil || reason == "" {
		return
	}
	field = strings.TrimSpace(field)
	if slices.Contains(v.byField[field], reason) {
		return
	}
	v.byField[field] = append(v.byField[field], reason)
}

func (v *Validator) Required(field, value, reason string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, reason)
	}
}

// Enum accepts empty values; combine with Required when the field is mandatory.
func (v *Validator) Enum(field, value string, allowed []string, reason string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	ok := slices.ContainsFunc(allowed, func(candidate string) bool {
		return strings.EqualFold(strings.TrimSpace(candidate), value)
	})
	if !ok {
		v.Add(field, reason)
	}
}

// Date parses YYYY-MM-DD (or RFC3339) and keeps it within the years payroll
// periods accept.
func (v *Validator) Date(field, raw string) (time.Time, bool) {
	parsed, err := ParseDate(strings.TrimSpace(raw))
	switch {
	case err != nil || parsed.IsZero():
		v.Add(field, "must be a valid date in YYYY-MM-DD format")
	case parsed.Year() < 2000 || parsed.Year() > 2100:
		v.Add(field, "must be between 2000 and 2100")
	default:
		return parsed, true
	}
	return time.Time{}, false
}

func (v *Validator) Clock(field, raw string) {
	if _, err := timetrack.ParseClock(raw); err != nil {
		v.Add(field, "must be a time in HH:MM format")
	}
}

func (v *Validator) NonNegative(field string, value int) {
	if value < 0 {
		v.Add(field, "must not be negative")
	}
}

func (v *Validator) MaxLength(field, value string, limit int) {
	if len([]rune(value)) > limit {
		v.Add(field, "is too long")
	}
}

func (v *Validator) DateOrder(startField string, start time.Time, endField string, end time.Time) {
	if start.IsZero() || end.IsZero() || !end.Before(start) {
		return
	}
	v.Add(startField, "must be on or before "+endField)
	v.Add(endField, "must be on or after "+startField)
}

func (v *Validator) HasIssues() bool {
	return v != nil && len(v.byField) > 0
}

// Issues are ordered by field, then reason.
func (v *Validator) Issues() []ValidationIssue {
	if !v.HasIssues() {
		return nil
	}
	var out []ValidationIssue
	for _, field := range slices.Sorted(maps.Keys(v.byField)) {
		reasons := slices.Clone(v.byField[field])
		slices.Sort(reasons)
		for _, reason := range reasons {
			out = append(out, ValidationIssue{Field: field, Reason: reason})
		}
	}
	return out
}

// Reject writes the collected issues and reports whether it did.
func (v *Validator) Reject(w http.ResponseWriter, requestID string) bool {
	if !v.HasIssues() {
		return false
	}
	FailValidation(w, requestID, v.Issues())
	return true
}

func FailValidation(w http.ResponseWriter, requestID string, issues []ValidationIssue) {
	api.FailWithDetails(w, http.StatusBadRequest, "validation_error", "payload validation failed",
		map[string]any{"fields": issues}, requestID)
}
