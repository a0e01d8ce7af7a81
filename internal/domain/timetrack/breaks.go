package timetrack

// BreakPolicy maps a gross shift span to the statutory minimum break.
type BreakPolicy struct {
	ShortThresholdHours float64
	LongThresholdHours  float64
	ShortMinutes        int
	LongMinutes         int
}

// DefaultBreakPolicy follows §4 ArbZG.
var DefaultBreakPolicy = BreakPolicy{
	ShortThresholdHours: 6,
	LongThresholdHours:  9,
	ShortMinutes:        30,
	LongMinutes:         45,
}

// Suggest returns the gross hours between start and end and the break the
// policy requires for them. Advisory only.
func (p BreakPolicy) Suggest(start, end ClockTime) (float64, int) {
	gross := SpanHours(start, end)
	return Round2(gross), p.MinutesFor(gross)
}

func (p BreakPolicy) MinutesFor(grossHours float64) int {
	switch {
	case grossHours > p.LongThresholdHours:
		return p.LongMinutes
	case grossHours > p.ShortThresholdHours:
		return p.ShortMinutes
	default:
		return 0
	}
}
