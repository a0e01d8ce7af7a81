package timetrack

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const secondsPerDay = 24 * 60 * 60

// ClockTime is a wall-clock time of day without date or zone.
type ClockTime struct {
	Hour   int
	Minute int
	Second int
}

// ParseClock accepts "HH:MM" and "HH:MM:SS".
func ParseClock(value string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	fields := make([]int, 3)
	limits := []int{23, 59, 59}
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > limits[i] || len(part) > 2 {
			return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidClock, value)
		}
		fields[i] = n
	}
	return ClockTime{Hour: fields[0], Minute: fields[1], Second: fields[2]}, nil
}

func (c ClockTime) String() string {
	if c.Second != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
	}
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c ClockTime) seconds() int {
	return c.Hour*3600 + c.Minute*60 + c.Second
}

// SpanHours is the gross duration from start to end. An end before start is
// read as the next day.
func SpanHours(start, end ClockTime) float64 {
	diff := end.seconds() - start.seconds()
	if diff < 0 {
		diff += secondsPerDay
	}
	return float64(diff) / 3600
}

// NetHours returns the worked hours between start and end minus the break,
// clamped at zero and rounded to two decimals.
func NetHours(start, end ClockTime, breakMinutes int) float64 {
	net := SpanHours(start, end) - float64(breakMinutes)/60
	if net < 0 {
		net = 0
	}
	return Round2(net)
}

// NetHoursText is NetHours over stored "HH:MM[:SS]" values.
func NetHoursText(start, end string, breakMinutes int) (float64, error) {
	s, err := ParseClock(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return 0, err
	}
	return NetHours(s, e, breakMinutes), nil
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
