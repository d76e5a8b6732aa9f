package types

import "github.com/shopspring/decimal"

// Amount is a plain decimal monetary value. Fee and payment amounts are
// arbitrary-precision decimals so that partial payments never lose cents;
// currency and locale formatting are the caller's concern.
type Amount = decimal.Decimal

// NewAmount creates an Amount from an integer value and exponent,
// e.g. NewAmount(150050, -2) = 1500.50.
func NewAmount(value int64, exp int32) Amount {
	return decimal.New(value, exp)
}

// AmountFromInt creates a whole-unit Amount, e.g. AmountFromInt(1500) = 1500.
func AmountFromInt(v int64) Amount {
	return decimal.NewFromInt(v)
}

// ParseAmount parses a decimal string such as "1500.50".
func ParseAmount(s string) (Amount, error) {
	return decimal.NewFromString(s)
}

// ZeroAmount is the zero monetary value.
func ZeroAmount() Amount {
	return decimal.Zero
}

// SumAmounts adds up a slice of amounts.
func SumAmounts(values ...Amount) Amount {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
