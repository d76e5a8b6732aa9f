package ledger

import (
	"sort"
	"time"

	"github.com/fibernet/cablebill/customer"
	"github.com/fibernet/cablebill/id"
	"github.com/fibernet/cablebill/payment"
	"github.com/fibernet/cablebill/types"
)

// EventKind tags one entry in the merged transaction timeline.
type EventKind string

const (
	EventPayment         EventKind = "payment"
	EventCustomerCreated EventKind = "customer-created"
	EventCustomerUpdated EventKind = "customer-updated"
)

// Event is one entry in the merged feed. Exactly one of Payment and
// Customer is set, depending on Kind.
type Event struct {
	Kind EventKind `json:"kind"`
	// At is the event timestamp. The zero time sorts last (treated as
	// epoch 0).
	At       time.Time          `json:"at"`
	Payment  *payment.Payment   `json:"payment,omitempty"`
	Customer *customer.Customer `json:"customer,omitempty"`
}

// Scope filters the timeline. Nil-ID fields match everything.
type Scope struct {
	AreaID     id.AreaID
	CustomerID id.CustomerID
}

func (s Scope) matchesArea(areaID id.AreaID) bool {
	return s.AreaID.IsNil() || s.AreaID.String() == areaID.String()
}

func (s Scope) matchesCustomer(custID id.CustomerID) bool {
	return s.CustomerID.IsNil() || s.CustomerID.String() == custID.String()
}

// MergeTimeline merges payment events and customer lifecycle events
// for one target month into a single reverse-chronological feed.
// Customers contribute a created event when their creation timestamp
// falls in the target month, and an updated event when their update
// timestamp does and differs from creation.
func MergeTimeline(customers []*customer.Customer, payments []*payment.Payment, scope Scope, target types.Month) []Event {
	var events []Event

	for _, p := range payments {
		if !scope.matchesArea(p.AreaID) || !scope.matchesCustomer(p.CustomerID) {
			continue
		}
		if !p.ResolvedMonth().Equal(target) {
			continue
		}
		events = append(events, Event{Kind: EventPayment, At: p.CreatedAt, Payment: p})
	}

	for _, c := range customers {
		if !scope.matchesArea(c.AreaID) || !scope.matchesCustomer(c.ID) {
			continue
		}
		if types.MonthOf(c.CreatedAt).Equal(target) {
			events = append(events, Event{Kind: EventCustomerCreated, At: c.CreatedAt, Customer: c})
		}
		if !c.UpdatedAt.Equal(c.CreatedAt) && types.MonthOf(c.UpdatedAt).Equal(target) {
			events = append(events, Event{Kind: EventCustomerUpdated, At: c.UpdatedAt, Customer: c})
		}
	}

	// Newest first; the zero time naturally sinks to the end.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].At.After(events[j].At)
	})

	return events
}
