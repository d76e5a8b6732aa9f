package ledger

import (
	"testing"
	"time"

	"github.com/fibernet/cablebill/customer"
	"github.com/fibernet/cablebill/payment"
	"github.com/fibernet/cablebill/types"
)

func TestMergeTimelineOrdering(t *testing.T) {
	c := testCustomer(t, "500", time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC))
	early := testPayment(t, c, "2024-03", "100", time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC))
	late := testPayment(t, c, "2024-03", "200", time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC))

	got := MergeTimeline(nil, []*payment.Payment{early, late}, Scope{}, types.MustParseMonth("2024-03"))
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if !got[0].At.After(got[1].At) {
		t.Errorf("events not in reverse-chronological order: %v then %v", got[0].At, got[1].At)
	}
	if got[0].Payment.ID.String() != late.ID.String() {
		t.Errorf("the 10:00 event must come first")
	}
}

func TestMergeTimelineMixesKinds(t *testing.T) {
	created := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	c := testCustomer(t, "500", created)
	p := testPayment(t, c, "2024-03", "500", time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC))

	got := MergeTimeline([]*customer.Customer{c}, []*payment.Payment{p}, Scope{}, types.MustParseMonth("2024-03"))
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].Kind != EventPayment || got[1].Kind != EventCustomerCreated {
		t.Errorf("unexpected kinds: %s, %s", got[0].Kind, got[1].Kind)
	}
}

func TestMergeTimelineEmitsUpdateEvents(t *testing.T) {
	created := time.Date(2024, time.February, 1, 8, 0, 0, 0, time.UTC)
	c := testCustomer(t, "500", created)
	c.UpdatedAt = time.Date(2024, time.March, 3, 8, 0, 0, 0, time.UTC)

	got := MergeTimeline([]*customer.Customer{c}, nil, Scope{}, types.MustParseMonth("2024-03"))
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	if got[0].Kind != EventCustomerUpdated {
		t.Errorf("Kind = %s, want %s", got[0].Kind, EventCustomerUpdated)
	}

	// An untouched customer contributes no update event for its
	// creation month.
	fresh := testCustomer(t, "500", time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC))
	got = MergeTimeline([]*customer.Customer{fresh}, nil, Scope{}, types.MustParseMonth("2024-03"))
	if len(got) != 1 || got[0].Kind != EventCustomerCreated {
		t.Fatalf("expected a single created event, got %+v", got)
	}
}

func TestMergeTimelineScopeFilters(t *testing.T) {
	a := testCustomer(t, "500", time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	b := testCustomer(t, "500", time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC))
	payA := testPayment(t, a, "2024-03", "500", time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC))
	payB := testPayment(t, b, "2024-03", "500", time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC))

	customers := []*customer.Customer{a, b}
	payments := []*payment.Payment{payA, payB}
	target := types.MustParseMonth("2024-03")

	// Area filter.
	got := MergeTimeline(customers, payments, Scope{AreaID: a.AreaID}, target)
	for _, ev := range got {
		if ev.Payment != nil && ev.Payment.AreaID.String() != a.AreaID.String() {
			t.Errorf("area filter leaked payment from %s", ev.Payment.AreaID)
		}
		if ev.Customer != nil && ev.Customer.AreaID.String() != a.AreaID.String() {
			t.Errorf("area filter leaked customer from %s", ev.Customer.AreaID)
		}
	}
	if len(got) != 2 { // a's creation + a's payment
		t.Errorf("got %d events for area scope, want 2", len(got))
	}

	// Customer filter.
	got = MergeTimeline(customers, payments, Scope{CustomerID: b.ID}, target)
	if len(got) != 2 { // b's creation + b's payment
		t.Errorf("got %d events for customer scope, want 2", len(got))
	}
	for _, ev := range got {
		if ev.Payment != nil && ev.Payment.CustomerID.String() != b.ID.String() {
			t.Errorf("customer filter leaked payment for %s", ev.Payment.CustomerID)
		}
	}
}

func TestMergeTimelineMissingTimestampSortsLast(t *testing.T) {
	c := testCustomer(t, "500", time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	dated := testPayment(t, c, "2024-03", "100", time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC))
	undated := testPayment(t, c, "2024-03", "100", time.Time{})

	got := MergeTimeline(nil, []*payment.Payment{undated, dated}, Scope{}, types.MustParseMonth("2024-03"))
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if !got[1].At.IsZero() {
		t.Error("the undated event must sort last")
	}
}

func TestMergeTimelineExcludesOtherMonths(t *testing.T) {
	c := testCustomer(t, "500", time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	feb := testPayment(t, c, "2024-02", "100", time.Date(2024, time.February, 5, 0, 0, 0, 0, time.UTC))

	got := MergeTimeline([]*customer.Customer{c}, []*payment.Payment{feb}, Scope{}, types.MustParseMonth("2024-03"))
	if len(got) != 0 {
		t.Fatalf("expected no events for 2024-03, got %+v", got)
	}
}
