package shared

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ParseDate accepts RFC3339 or YYYY-MM-DD.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	return time.Parse(time.DateOnly, value)
}

var ErrInvalidPeriod = errors.New("month must be 1-12 and year 2000-2100")

// ParsePeriod reads a month and year. Empty values fall back to the month of now.
func ParsePeriod(month, year string, now time.Time) (int, int, error) {
	m, y := int(now.Month()), now.Year()
	if v := strings.TrimSpace(month); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, ErrInvalidPeriod
		}
		m = parsed
	}
	if v := strings.TrimSpace(year); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, ErrInvalidPeriod
		}
		y = parsed
	}
	if m < 1 || m > 12 || y < 2000 || y > 2100 {
		return 0, 0, ErrInvalidPeriod
	}
	return m, y, nil
}
