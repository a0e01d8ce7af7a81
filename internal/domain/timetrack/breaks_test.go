package timetrack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggestBreak(t *testing.T) {
	tests := []struct {
		start, end  string
		wantGross   float64
		wantMinutes int
	}{
		{"09:00", "14:00", 5, 0},
		{"09:00", "15:00", 6, 0},
		{"09:00", "15:01", 6.02, 30},
		{"09:00", "17:00", 8, 30},
		{"09:00", "18:00", 9, 30},
		{"08:00", "18:00", 10, 45},
		{"22:00", "08:00", 10, 45},
	}
	for _, tt := range tests {
		gross, minutes := DefaultBreakPolicy.Suggest(clock(t, tt.start), clock(t, tt.end))
		assert.InDelta(t, tt.wantGross, gross, 1e-9, tt.start+"-"+tt.end)
		assert.Equal(t, tt.wantMinutes, minutes, tt.start+"-"+tt.end)
	}
}

func TestBreakPolicyParameterised(t *testing.T) {
	policy := BreakPolicy{ShortThresholdHours: 4, LongThresholdHours: 8, ShortMinutes: 15, LongMinutes: 60}
	assert.Equal(t, 0, policy.MinutesFor(4))
	assert.Equal(t, 15, policy.MinutesFor(5))
	assert.Equal(t, 60, policy.MinutesFor(8.5))
}
