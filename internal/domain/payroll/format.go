package payroll

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var monthNames = [...]string{
	"Januar", "Februar", "März", "April", "Mai", "Juni",
	"Juli", "August", "September", "Oktober", "November", "Dezember",
}

// MonthName returns the German month name, or "" outside 1..12.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}

// FormatHours renders decimal hours as HH:MM, truncating partial minutes.
func FormatHours(hours decimal.Decimal) string {
	sign := ""
	if hours.IsNegative() {
		sign = "-"
		hours = hours.Neg()
	}
	whole := hours.Truncate(0)
	minutes := hours.Sub(whole).Mul(decimal.NewFromInt(60)).Truncate(0)
	return fmt.Sprintf("%s%02d:%02d", sign, whole.IntPart(), minutes.IntPart())
}

// FormatEuro renders an amount the German way, e.g. "1.234,56 €".
func FormatEuro(amount decimal.Decimal) string {
	return formatGerman(amount, true) + " €"
}

// FormatDecimalComma renders two decimals with a comma and no grouping.
func FormatDecimalComma(value decimal.Decimal) string {
	return formatGerman(value, false)
}

func formatGerman(value decimal.Decimal, group bool) string {
	fixed := value.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}
	intPart, frac, _ := strings.Cut(fixed, ".")
	if group {
		intPart = groupThousands(intPart)
	}
	return sign + intPart + "," + frac
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
