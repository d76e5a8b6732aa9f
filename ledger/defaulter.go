package ledger

import (
	"github.com/fibernet/cablebill/customer"
	"github.com/fibernet/cablebill/payment"
	"github.com/fibernet/cablebill/types"
)

// Defaulter flags one customer with outstanding balance as of a target
// month. Derived on demand, never persisted.
type Defaulter struct {
	CustomerID         string       `json:"customer_id"`
	Name               string       `json:"name"`
	ConnectionNumber   string       `json:"connection_number,omitempty"`
	UnpaidMonths       int          `json:"unpaid_months"`
	AccumulatedBalance types.Amount `json:"accumulated_balance"`
}

// ScanDefaulters returns every customer with outstanding balance as of
// the target month. paymentsByCustomer maps CustomerID.String() to that
// customer's payment records. The result is unordered; callers sort
// for display.
//
// A month counts as paid when at least one payment record is tagged to
// it, regardless of amount — a customer who underpaid a month is not
// flagged for it. Likewise, any payment tagged to the target month
// itself excludes the customer from the scan entirely. Both rules are
// long-standing billing-desk behavior, kept on purpose.
func ScanDefaulters(customers []*customer.Customer, paymentsByCustomer map[string][]*payment.Payment, target types.Month) []Defaulter {
	var defaulters []Defaulter

	for _, cust := range customers {
		pays := paymentsByCustomer[cust.ID.String()]

		paidMonths := make(map[types.Month]bool, len(pays))
		for _, p := range pays {
			if m := p.ResolvedMonth(); !m.IsZero() {
				paidMonths[m] = true
			}
		}
		if paidMonths[target] {
			continue
		}

		start := cust.StartMonth()
		if start.IsZero() {
			start = earliestMonth(pays)
		}
		if start.IsZero() {
			start = target
		}
		// Not yet billable as of the target month.
		if start.After(target) {
			continue
		}

		unpaid := 0
		for _, m := range start.Range(target) {
			if !paidMonths[m] {
				unpaid++
			}
		}

		balance := cust.MonthlyFee.Mul(types.AmountFromInt(int64(unpaid)))
		if !balance.IsPositive() {
			continue
		}

		defaulters = append(defaulters, Defaulter{
			CustomerID:         cust.ID.String(),
			Name:               cust.Name,
			ConnectionNumber:   cust.ConnectionNumber,
			UnpaidMonths:       unpaid,
			AccumulatedBalance: balance,
		})
	}

	return defaulters
}
