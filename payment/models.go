// Package payment defines payment ("debit") records: one cash receipt
// applied toward a customer's obligation for a calendar month.
package payment

import (
	"errors"

	"github.com/fibernet/cablebill/id"
	"github.com/fibernet/cablebill/types"
)

// Validation errors for payment records.
var (
	ErrNonPositiveAmount = errors.New("payment: amount must be positive")
	ErrNoCustomer        = errors.New("payment: customer id is required")
	ErrNoArea            = errors.New("payment: area id is required")
	ErrNoMonth           = errors.New("payment: month is required")
)

// Payment is one cash receipt. Records are immutable once created:
// corrections are made by deleting and re-recording. Multiple payments
// may target the same customer and month (partial payments).
type Payment struct {
	types.Entity
	ID         id.PaymentID  `json:"id"`
	AreaID     id.AreaID     `json:"area_id"`
	CustomerID id.CustomerID `json:"customer_id"`
	// CustomerName is a snapshot of the customer's name at payment
	// time, kept so receipts survive later renames.
	CustomerName string `json:"customer_name,omitempty"`
	// Month the payment is applied to. May be zero for legacy records;
	// the ledger then falls back to the creation timestamp.
	Month  types.Month  `json:"month"`
	Amount types.Amount `json:"amount"`
}

// Validate checks the payment's own fields before it is persisted.
func (p *Payment) Validate() error {
	if p.CustomerID.IsNil() {
		return ErrNoCustomer
	}
	if p.AreaID.IsNil() {
		return ErrNoArea
	}
	if p.Month.IsZero() {
		return ErrNoMonth
	}
	if !p.Amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	return nil
}

// ResolvedMonth returns the month this payment counts toward: the
// explicit Month field when set, otherwise the month of the creation
// timestamp. The zero Month means the record cannot be resolved and
// must be excluded from aggregation.
func (p *Payment) ResolvedMonth() types.Month {
	if !p.Month.IsZero() {
		return p.Month
	}
	return types.MonthOf(p.CreatedAt)
}
