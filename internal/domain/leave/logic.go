package leave

import (
	"time"

	"github.com/shopspring/decimal"

	"timepay/internal/domain/calendar"
)

// AvailableLeaveDays is entitlement plus carryover minus taken, never below
// zero, rounded to two decimals.
func AvailableLeaveDays(entitlement, carryover, taken decimal.Decimal) decimal.Decimal {
	available := entitlement.Add(carryover).Sub(taken)
	if available.IsNegative() {
		return decimal.Zero
	}
	return available.Round(2)
}

// LeaveDaysInRange counts the leave-consuming days in [start, end]. Monday
// and Tuesday never count.
func LeaveDaysInRange(start, end time.Time) decimal.Decimal {
	return decimal.NewFromInt(int64(calendar.CountBusinessDays(start, end, calendar.DefaultBusinessWeek)))
}

// TakenDays sums the day counts of approved requests.
func TakenDays(requests []Request) decimal.Decimal {
	taken := decimal.Zero
	for _, r := range requests {
		if r.Status == StatusApproved {
			taken = taken.Add(r.DayCount)
		}
	}
	return taken
}
