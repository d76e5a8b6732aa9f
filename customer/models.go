// Package customer defines customer records: one billable internet
// connection per customer, owned by a service area.
package customer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fibernet/cablebill/id"
	"github.com/fibernet/cablebill/types"
)

// Validation errors for customer records.
var (
	ErrEmptyName             = errors.New("customer: name cannot be empty")
	ErrEmptyConnectionNumber = errors.New("customer: connection number cannot be empty")
	ErrNoArea                = errors.New("customer: area id is required")
	ErrNegativeFee           = errors.New("customer: monthly fee cannot be negative")
)

// Customer is one billable service connection. The creation timestamp
// defines the customer's billing start month.
type Customer struct {
	types.Entity
	ID     id.CustomerID `json:"id"`
	AreaID id.AreaID     `json:"area_id"`
	Name   string        `json:"name"`
	// ConnectionNumber is the human-facing identifier printed on
	// receipts. Unique across all customers.
	ConnectionNumber string `json:"connection_number"`
	FatherName       string `json:"father_name,omitempty"`
	CNIC             string `json:"cnic,omitempty"`
	Phone            string `json:"phone,omitempty"`
	Address          string `json:"address,omitempty"`
	RouterNo         string `json:"router_no,omitempty"`
	// MonthlyFee is the flat amount expected for every month from the
	// start month onward. Zero is valid (free connection).
	MonthlyFee types.Amount `json:"monthly_fee"`
}

// Validate checks the customer's own fields before it is persisted.
// Uniqueness of the connection number is the store owner's concern.
func (c *Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(c.ConnectionNumber) == "" {
		return ErrEmptyConnectionNumber
	}
	if c.AreaID.IsNil() {
		return ErrNoArea
	}
	if c.MonthlyFee.IsNegative() {
		return fmt.Errorf("%w: %s", ErrNegativeFee, c.MonthlyFee)
	}
	return nil
}

// StartMonth is the first month the customer owes a fee for.
// Returns the zero Month when the creation timestamp is unset.
func (c *Customer) StartMonth() types.Month {
	return types.MonthOf(c.CreatedAt)
}

// Matches reports whether the customer matches a case-insensitive
// substring query over name, CNIC and connection number. This is the
// real-time search used by the record lookup screens.
func (c *Customer) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	return strings.Contains(strings.ToLower(c.Name), q) ||
		strings.Contains(strings.ToLower(c.CNIC), q) ||
		strings.Contains(strings.ToLower(c.ConnectionNumber), q)
}
