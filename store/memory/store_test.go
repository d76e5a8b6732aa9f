package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fibernet/cablebill"
	"github.com/fibernet/cablebill/area"
	"github.com/fibernet/cablebill/customer"
	"github.com/fibernet/cablebill/id"
	"github.com/fibernet/cablebill/payment"
	"github.com/fibernet/cablebill/store"
	"github.com/fibernet/cablebill/store/memory"
	"github.com/fibernet/cablebill/types"
)

func newArea(name string) *area.Area {
	return &area.Area{
		Entity: types.NewEntity(),
		ID:     id.NewAreaID(),
		Name:   name,
	}
}

func newCustomer(areaID id.AreaID, conn string) *customer.Customer {
	return &customer.Customer{
		Entity:           types.NewEntity(),
		ID:               id.NewCustomerID(),
		AreaID:           areaID,
		Name:             "Customer " + conn,
		ConnectionNumber: conn,
		MonthlyFee:       types.AmountFromInt(1000),
	}
}

func TestAreaRoundTrip(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	a := newArea("Sector 7")
	if err := s.CreateArea(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateArea(ctx, a); !errors.Is(err, cablebill.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	got, err := s.GetArea(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Sector 7" {
		t.Fatalf("expected name round trip, got %q", got.Name)
	}

	if err := s.DeleteArea(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetArea(ctx, a.ID); !errors.Is(err, cablebill.ErrAreaNotFound) {
		t.Fatalf("expected ErrAreaNotFound, got %v", err)
	}
}

func TestSearchCustomersMatchesFields(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	a := newArea("Sector 8")
	if err := s.CreateArea(ctx, a); err != nil {
		t.Fatal(err)
	}

	c := newCustomer(a.ID, "SEC8-001")
	c.Name = "Imran Khan"
	c.CNIC = "35202-1234567-1"
	if err := s.CreateCustomer(ctx, c); err != nil {
		t.Fatal(err)
	}

	for _, query := range []string{"imran", "35202", "sec8-001", ""} {
		got, err := s.SearchCustomers(ctx, query)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 {
			t.Fatalf("query %q: expected 1 match, got %d", query, len(got))
		}
	}

	got, err := s.SearchCustomers(ctx, "no-such-customer")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no matches, got %d", len(got))
	}
}

func TestRecordsAreCopiedOnReadAndWrite(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	a := newArea("Sector 10")
	c := newCustomer(a.ID, "SEC10-001")
	if err := s.CreateCustomer(ctx, c); err != nil {
		t.Fatal(err)
	}

	// Mutating the struct the caller handed in must not leak into the
	// store after creation.
	c.ConnectionNumber = "MUTATED"
	got, err := s.GetCustomer(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ConnectionNumber != "SEC10-001" {
		t.Fatalf("stored record aliased the caller's struct: %q", got.ConnectionNumber)
	}

	// Nor must mutating a fetched record change stored state.
	got.Name = "Tampered"
	again, err := s.GetCustomer(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.Name == "Tampered" {
		t.Fatal("fetched record aliased stored state")
	}
}

func TestDeletePaymentsByCustomer(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	a := newArea("Sector 9")
	c := newCustomer(a.ID, "SEC9-001")
	other := newCustomer(a.ID, "SEC9-002")

	for i, cust := range []*customer.Customer{c, c, other} {
		p := &payment.Payment{
			Entity:     types.NewEntity(),
			ID:         id.NewPaymentID(),
			AreaID:     a.ID,
			CustomerID: cust.ID,
			Month:      types.Month{Year: 2026, Mon: time.Month(i + 1)},
			Amount:     types.AmountFromInt(500),
		}
		if err := s.CreatePayment(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.DeletePaymentsByCustomer(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deleted, got %d", n)
	}

	left, err := s.ListPayments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 1 {
		t.Fatalf("expected 1 remaining payment, got %d", len(left))
	}
}

func TestWatchStopsOnCancel(t *testing.T) {
	s := memory.New()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := s.Watch(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.CreateArea(context.Background(), newArea("Watched")); err != nil {
		t.Fatal(err)
	}

	select {
	case change := <-ch:
		if change.Op != store.OpCreate {
			t.Fatalf("expected create op, got %q", change.Op)
		}
	case <-time.After(time.Second):
		t.Fatal("no change delivered")
	}

	cancel()

	// Channel closes once the cancellation is observed.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after cancel")
		}
	}
}

func TestWatchClosedStore(t *testing.T) {
	s := memory.New()
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Watch(context.Background()); !errors.Is(err, cablebill.ErrStoreClosed) {
		t.Fatalf("expected ErrStoreClosed, got %v", err)
	}
}
