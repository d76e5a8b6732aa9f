package cablebill_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/fibernet/cablebill"
	"github.com/fibernet/cablebill/area"
	"github.com/fibernet/cablebill/customer"
	"github.com/fibernet/cablebill/id"
	"github.com/fibernet/cablebill/ledger"
	"github.com/fibernet/cablebill/payment"
	"github.com/fibernet/cablebill/store"
	"github.com/fibernet/cablebill/store/memory"
	"github.com/fibernet/cablebill/types"
	"github.com/fibernet/cablebill/user"
)

func newTestEngine(t *testing.T, opts ...cablebill.Option) *cablebill.Engine {
	t.Helper()

	opts = append(opts, cablebill.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	eng := cablebill.New(memory.New(), opts...)
	if err := eng.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := eng.Stop(); err != nil {
			t.Fatal(err)
		}
	})
	return eng
}

func seedCustomer(t *testing.T, eng *cablebill.Engine, connectionNumber string, fee int64) *customer.Customer {
	t.Helper()

	ctx := context.Background()
	a := &area.Area{Name: "Test Area " + connectionNumber}
	if err := eng.CreateArea(ctx, a); err != nil {
		t.Fatal(err)
	}

	c := &customer.Customer{
		AreaID:           a.ID,
		Name:             "Customer " + connectionNumber,
		ConnectionNumber: connectionNumber,
		MonthlyFee:       cablebill.AmountFromInt(fee),
	}
	if err := eng.CreateCustomer(ctx, c); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestCreateCustomerRejectsDuplicateConnectionNumber(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	c := seedCustomer(t, eng, "CN-100", 1000)

	dup := &customer.Customer{
		AreaID:           c.AreaID,
		Name:             "Someone Else",
		ConnectionNumber: "CN-100",
		MonthlyFee:       cablebill.AmountFromInt(500),
	}
	err := eng.CreateCustomer(ctx, dup)
	if !errors.Is(err, cablebill.ErrDuplicateConnectionNumber) {
		t.Fatalf("expected ErrDuplicateConnectionNumber, got %v", err)
	}
}

func TestUpdateCustomerChecksConnectionNumberUniqueness(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	c1 := seedCustomer(t, eng, "CN-200", 1000)
	c2 := seedCustomer(t, eng, "CN-201", 1000)

	c2.ConnectionNumber = c1.ConnectionNumber
	err := eng.UpdateCustomer(ctx, c2)
	if !errors.Is(err, cablebill.ErrDuplicateConnectionNumber) {
		t.Fatalf("expected ErrDuplicateConnectionNumber, got %v", err)
	}

	// Keeping the own number is fine.
	c1.Name = "Renamed"
	if err := eng.UpdateCustomer(ctx, c1); err != nil {
		t.Fatal(err)
	}

	got, err := eng.GetCustomer(ctx, c1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Renamed" {
		t.Fatalf("expected updated name, got %q", got.Name)
	}
}

func TestCreateCustomerRequiresExistingArea(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	c := &customer.Customer{
		AreaID:           id.NewAreaID(),
		Name:             "Orphan",
		ConnectionNumber: "CN-300",
		MonthlyFee:       cablebill.AmountFromInt(800),
	}
	err := eng.CreateCustomer(ctx, c)
	if !errors.Is(err, cablebill.ErrAreaNotFound) {
		t.Fatalf("expected ErrAreaNotFound, got %v", err)
	}
}

func TestDeleteAreaRefusesWhenCustomersRemain(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	c := seedCustomer(t, eng, "CN-400", 1000)

	err := eng.DeleteArea(ctx, c.AreaID)
	if !errors.Is(err, cablebill.ErrAreaNotEmpty) {
		t.Fatalf("expected ErrAreaNotEmpty, got %v", err)
	}

	if _, err := eng.DeleteCustomer(ctx, c.ID); err != nil {
		t.Fatal(err)
	}
	if err := eng.DeleteArea(ctx, c.AreaID); err != nil {
		t.Fatal(err)
	}
}

func TestDeleteCustomerCascadesPayments(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	c := seedCustomer(t, eng, "CN-500", 1000)

	for _, m := range []string{"2026-01", "2026-02", "2026-03"} {
		err := eng.RecordPayment(ctx, &payment.Payment{
			CustomerID: c.ID,
			Month:      cablebill.MustParseMonth(m),
			Amount:     cablebill.AmountFromInt(1000),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	deleted, err := eng.DeleteCustomer(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 3 {
		t.Fatalf("expected 3 payments deleted, got %d", deleted)
	}

	if _, err := eng.GetCustomer(ctx, c.ID); !errors.Is(err, cablebill.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestRecordPaymentSnapshotsCustomer(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	c := seedCustomer(t, eng, "CN-600", 1500)

	p := &payment.Payment{
		CustomerID: c.ID,
		Month:      cablebill.MustParseMonth("2026-05"),
		Amount:     cablebill.AmountFromInt(1500),
	}
	if err := eng.RecordPayment(ctx, p); err != nil {
		t.Fatal(err)
	}

	got, err := eng.GetPayment(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CustomerName != c.Name {
		t.Fatalf("expected snapshot name %q, got %q", c.Name, got.CustomerName)
	}
	if got.AreaID.String() != c.AreaID.String() {
		t.Fatalf("expected payment tagged to area %s, got %s", c.AreaID, got.AreaID)
	}
}

func TestRecordPaymentUnknownCustomer(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	err := eng.RecordPayment(ctx, &payment.Payment{
		CustomerID: id.NewCustomerID(),
		Month:      cablebill.MustParseMonth("2026-05"),
		Amount:     cablebill.AmountFromInt(100),
	})
	if !errors.Is(err, cablebill.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestMonthlyBalancesThroughEngine(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	c := seedCustomer(t, eng, "CN-700", 1000)

	start := types.MonthOf(c.CreatedAt)
	if err := eng.RecordPayment(ctx, &payment.Payment{
		CustomerID: c.ID,
		Month:      start,
		Amount:     cablebill.AmountFromInt(400),
	}); err != nil {
		t.Fatal(err)
	}

	stmt, err := eng.MonthlyBalances(ctx, c.ID, start)
	if err != nil {
		t.Fatal(err)
	}
	if len(stmt.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(stmt.Rows))
	}

	row := stmt.Rows[0]
	if !row.Paid.Equal(cablebill.AmountFromInt(400)) {
		t.Fatalf("expected paid 400, got %s", row.Paid)
	}
	if !row.Pending.Equal(cablebill.AmountFromInt(600)) {
		t.Fatalf("expected pending 600, got %s", row.Pending)
	}
}

func TestDefaultersThroughEngine(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	payer := seedCustomer(t, eng, "CN-800", 1000)
	nonPayer := seedCustomer(t, eng, "CN-801", 1000)

	target := types.MonthOf(payer.CreatedAt)
	if err := eng.RecordPayment(ctx, &payment.Payment{
		CustomerID: payer.ID,
		Month:      target,
		Amount:     cablebill.AmountFromInt(1000),
	}); err != nil {
		t.Fatal(err)
	}

	defaulters, err := eng.Defaulters(ctx, id.AreaID{}, target)
	if err != nil {
		t.Fatal(err)
	}
	if len(defaulters) != 1 {
		t.Fatalf("expected 1 defaulter, got %d", len(defaulters))
	}
	if defaulters[0].CustomerID != nonPayer.ID.String() {
		t.Fatalf("expected defaulter %s, got %s", nonPayer.ID, defaulters[0].CustomerID)
	}

	scoped, err := eng.Defaulters(ctx, nonPayer.AreaID, target)
	if err != nil {
		t.Fatal(err)
	}
	if len(scoped) != 1 {
		t.Fatalf("expected 1 defaulter in area, got %d", len(scoped))
	}

	clear, err := eng.Defaulters(ctx, payer.AreaID, target)
	if err != nil {
		t.Fatal(err)
	}
	if len(clear) != 0 {
		t.Fatalf("expected no defaulters in payer area, got %d", len(clear))
	}
}

func TestTimelineThroughEngine(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	c := seedCustomer(t, eng, "CN-900", 1000)
	other := seedCustomer(t, eng, "CN-901", 1000)

	month := types.MonthOf(c.CreatedAt)
	for _, cust := range []*customer.Customer{c, other} {
		if err := eng.RecordPayment(ctx, &payment.Payment{
			CustomerID: cust.ID,
			Month:      month,
			Amount:     cablebill.AmountFromInt(500),
		}); err != nil {
			t.Fatal(err)
		}
	}

	events, err := eng.Timeline(ctx, ledger.Scope{AreaID: c.AreaID}, month)
	if err != nil {
		t.Fatal(err)
	}

	// One created event plus one payment for the scoped area only.
	var payments, created int
	for _, ev := range events {
		switch ev.Kind {
		case ledger.EventPayment:
			payments++
		case ledger.EventCustomerCreated:
			created++
		}
	}
	if payments != 1 || created != 1 {
		t.Fatalf("expected 1 payment and 1 created event, got %d and %d", payments, created)
	}
}

func TestUserLifecycle(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	if _, err := eng.CreateUser(ctx, "operator1", "hunter2secret", user.RoleOperator); err != nil {
		t.Fatal(err)
	}

	if _, err := eng.CreateUser(ctx, "operator1", "other", user.RoleOperator); !errors.Is(err, cablebill.ErrDuplicateUser) {
		t.Fatalf("expected ErrDuplicateUser, got %v", err)
	}

	u, err := eng.Authenticate(ctx, "operator1", "hunter2secret")
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != user.RoleOperator {
		t.Fatalf("expected operator role, got %q", u.Role)
	}

	if _, err := eng.Authenticate(ctx, "operator1", "wrong"); !errors.Is(err, cablebill.ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials, got %v", err)
	}
	if _, err := eng.Authenticate(ctx, "nobody", "whatever"); !errors.Is(err, cablebill.ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials, got %v", err)
	}
}

func TestWatchDeliversChanges(t *testing.T) {
	eng := newTestEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := eng.Watch(ctx)
	if err != nil {
		t.Fatal(err)
	}

	a := &area.Area{Name: "Watched Area"}
	if err := eng.CreateArea(ctx, a); err != nil {
		t.Fatal(err)
	}

	select {
	case change := <-ch:
		if change.Op != store.OpCreate || change.Collection != "areas" {
			t.Fatalf("unexpected change %+v", change)
		}
		if change.ID != a.ID.String() {
			t.Fatalf("expected change for %s, got %s", a.ID, change.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("no change delivered")
	}
}
