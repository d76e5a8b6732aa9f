// Package ledger is the monthly balance computation core. It derives
// per-month expected/paid/pending amounts, cumulative running balances,
// defaulter lists and transaction timelines from customer and payment
// records the caller has already fetched. Everything here is a pure
// function: no I/O, no shared state, identical inputs give identical
// outputs.
package ledger

import (
	"errors"
	"time"

	"github.com/fibernet/cablebill/customer"
	"github.com/fibernet/cablebill/id"
	"github.com/fibernet/cablebill/payment"
	"github.com/fibernet/cablebill/types"
)

// ErrNilCustomer is returned when a computation is invoked without a
// customer record.
var ErrNilCustomer = errors.New("ledger: customer is required")

// BalanceRow is the derived ledger line for one customer and one
// calendar month. Never persisted.
type BalanceRow struct {
	Month types.Month `json:"month"`
	// Expected is the flat monthly fee for this month alone, without
	// prior carry-forward.
	Expected types.Amount `json:"expected"`
	// Paid is the sum of all payments resolved to this month.
	Paid types.Amount `json:"paid"`
	// Pending is Expected - Paid for this month alone. Negative on
	// overpayment.
	Pending types.Amount `json:"pending"`
	// CumulativePending is the running balance through this month,
	// accumulated unfloored across the whole sequence.
	CumulativePending types.Amount `json:"cumulative_pending"`
	// LastPaidAt is the latest payment timestamp within the month,
	// zero when nothing was paid.
	LastPaidAt time.Time `json:"last_paid_at,omitempty"`
}

// Anomaly reports a payment record that was excluded from aggregation
// because its month could not be resolved. Data-quality signal, never
// fatal.
type Anomaly struct {
	PaymentID id.PaymentID `json:"payment_id"`
	Reason    string       `json:"reason"`
}

// Statement is the full month-by-month ledger for one customer.
type Statement struct {
	CustomerID id.CustomerID `json:"customer_id"`
	AsOf       types.Month   `json:"as_of"`
	// Rows are strictly ordered oldest to newest, one row per calendar
	// month, no gaps.
	Rows      []BalanceRow `json:"rows"`
	Anomalies []Anomaly    `json:"anomalies,omitempty"`
}

// Balance returns the unfloored running balance through the as-of
// month. Negative means the customer is in credit. This is the
// authoritative balance-due signal.
func (s *Statement) Balance() types.Amount {
	if len(s.Rows) == 0 {
		return types.ZeroAmount()
	}
	return s.Rows[len(s.Rows)-1].CumulativePending
}

// BalanceDue returns the running balance floored at zero, for display
// and aggregate reporting. Flooring happens only here, never during
// accumulation, so historical debt is never erased mid-sequence.
func (s *Statement) BalanceDue() types.Amount {
	b := s.Balance()
	if b.IsNegative() {
		return types.ZeroAmount()
	}
	return b
}

// Row returns the balance row for a single month, if it is in range.
func (s *Statement) Row(m types.Month) (BalanceRow, bool) {
	for _, r := range s.Rows {
		if r.Month.Equal(m) {
			return r, true
		}
	}
	return BalanceRow{}, false
}

// monthTotal is the per-month aggregation bucket.
type monthTotal struct {
	paid       types.Amount
	lastPaidAt time.Time
}

// groupByMonth sums payment amounts per resolved month and tracks the
// latest payment timestamp per month. Unresolvable records are
// reported as anomalies and excluded.
func groupByMonth(payments []*payment.Payment) (map[types.Month]monthTotal, []Anomaly) {
	byMonth := make(map[types.Month]monthTotal, len(payments))
	var anomalies []Anomaly

	for _, p := range payments {
		m := p.ResolvedMonth()
		if m.IsZero() {
			anomalies = append(anomalies, Anomaly{
				PaymentID: p.ID,
				Reason:    "no month tag and no usable creation timestamp",
			})
			continue
		}

		bucket := byMonth[m]
		bucket.paid = bucket.paid.Add(p.Amount)
		if p.CreatedAt.After(bucket.lastPaidAt) {
			bucket.lastPaidAt = p.CreatedAt
		}
		byMonth[m] = bucket
	}

	return byMonth, anomalies
}

// earliestMonth returns the earliest resolved month among the payments,
// or the zero Month when nothing resolves.
func earliestMonth(payments []*payment.Payment) types.Month {
	var earliest types.Month
	for _, p := range payments {
		m := p.ResolvedMonth()
		if m.IsZero() {
			continue
		}
		if earliest.IsZero() || m.Before(earliest) {
			earliest = m
		}
	}
	return earliest
}

// startMonth picks the first month of the ledger sequence: the
// customer's creation month, falling back to the earliest payment,
// falling back to the as-of month itself (single-row sequence).
// A start later than asOf means nothing is owed yet; the caller gets
// an empty row sequence.
func startMonth(cust *customer.Customer, payments []*payment.Payment, asOf types.Month) types.Month {
	start := cust.StartMonth()
	if start.IsZero() {
		start = earliestMonth(payments)
	}
	if start.IsZero() {
		start = asOf
	}
	return start
}

// Compute derives the ordered monthly balance sequence for one
// customer from its monthly fee, start month and payment records,
// covering every calendar month from the start month through asOf
// inclusive. A zero asOf means the current month.
//
// It fails fast on malformed input shape (nil customer, negative fee)
// and is lenient about everything optional.
func Compute(cust *customer.Customer, payments []*payment.Payment, asOf types.Month) (*Statement, error) {
	if cust == nil {
		return nil, ErrNilCustomer
	}
	if cust.MonthlyFee.IsNegative() {
		return nil, customer.ErrNegativeFee
	}
	if asOf.IsZero() {
		asOf = types.MonthOf(time.Now())
	}

	byMonth, anomalies := groupByMonth(payments)
	start := startMonth(cust, payments, asOf)

	st := &Statement{
		CustomerID: cust.ID,
		AsOf:       asOf,
		Rows:       make([]BalanceRow, 0, start.Span(asOf)),
		Anomalies:  anomalies,
	}

	cumulative := types.ZeroAmount()
	for _, m := range start.Range(asOf) {
		bucket := byMonth[m]
		pending := cust.MonthlyFee.Sub(bucket.paid)
		cumulative = cumulative.Add(pending)
		st.Rows = append(st.Rows, BalanceRow{
			Month:             m,
			Expected:          cust.MonthlyFee,
			Paid:              bucket.paid,
			Pending:           pending,
			CumulativePending: cumulative,
			LastPaidAt:        bucket.lastPaidAt,
		})
	}

	return st, nil
}

// AllTimeBalance is the aggregate figure shown on the report screens:
// total expected since the start month against total paid.
type AllTimeBalance struct {
	// Months is the inclusive calendar-month count from the start
	// month through now (same month counts as 1).
	Months   int          `json:"months"`
	Expected types.Amount `json:"expected"`
	Paid     types.Amount `json:"paid"`
	// Balance is Expected - Paid, unfloored.
	Balance types.Amount `json:"balance"`
}

// ComputeAllTime derives the all-time balance for one customer as of
// now. A zero now means the current time. The start date falls back to
// the earliest payment when the customer's creation timestamp is
// unset; with neither, the count degenerates to a single month.
func ComputeAllTime(cust *customer.Customer, payments []*payment.Payment, now time.Time) (AllTimeBalance, error) {
	if cust == nil {
		return AllTimeBalance{}, ErrNilCustomer
	}
	if cust.MonthlyFee.IsNegative() {
		return AllTimeBalance{}, customer.ErrNegativeFee
	}
	if now.IsZero() {
		now = time.Now()
	}

	start := cust.StartMonth()
	if start.IsZero() {
		start = earliestMonth(payments)
	}

	months := 1
	if !start.IsZero() {
		// Zero for customers whose start month is still in the future.
		months = start.Span(types.MonthOf(now))
	}

	paid := types.ZeroAmount()
	for _, p := range payments {
		if p.ResolvedMonth().IsZero() {
			continue
		}
		paid = paid.Add(p.Amount)
	}

	expected := cust.MonthlyFee.Mul(types.AmountFromInt(int64(months)))
	return AllTimeBalance{
		Months:   months,
		Expected: expected,
		Paid:     paid,
		Balance:  expected.Sub(paid),
	}, nil
}
