package reports

import "github.com/shopspring/decimal"

// NewTimeAccount computes the monthly balance. A zero balance counts as
// surplus.
func NewTimeAccount(target, worked decimal.Decimal) TimeAccount {
	balance := worked.Sub(target).Round(2)
	return TimeAccount{
		TargetHours:  target.Round(2),
		WorkedHours:  worked.Round(2),
		BalanceHours: balance,
		Surplus:      !balance.IsNegative(),
	}
}
