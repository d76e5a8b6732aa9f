package audithook_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/fibernet/cablebill"
	"github.com/fibernet/cablebill/area"
	"github.com/fibernet/cablebill/audithook"
	"github.com/fibernet/cablebill/customer"
	"github.com/fibernet/cablebill/payment"
	"github.com/fibernet/cablebill/store/memory"
	"github.com/fibernet/cablebill/types"
	"github.com/fibernet/cablebill/user"
)

// captureRecorder keeps recorded events for assertions.
type captureRecorder struct {
	events []*audithook.AuditEvent
}

func (r *captureRecorder) Record(_ context.Context, event *audithook.AuditEvent) error {
	r.events = append(r.events, event)
	return nil
}

func (r *captureRecorder) find(action string) *audithook.AuditEvent {
	for _, evt := range r.events {
		if evt.Action == action {
			return evt
		}
	}
	return nil
}

func TestAuditTrailThroughEngine(t *testing.T) {
	rec := &captureRecorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	eng := cablebill.New(memory.New(),
		cablebill.WithLogger(logger),
		cablebill.WithPlugin(audithook.New(rec, audithook.WithLogger(logger))),
	)

	ctx := context.Background()
	if err := eng.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = eng.Stop() })

	a := &area.Area{Name: "Sector 12"}
	if err := eng.CreateArea(ctx, a); err != nil {
		t.Fatal(err)
	}

	c := &customer.Customer{
		AreaID:           a.ID,
		Name:             "Bilal Ahmed",
		ConnectionNumber: "S12-001",
		MonthlyFee:       types.AmountFromInt(1200),
	}
	if err := eng.CreateCustomer(ctx, c); err != nil {
		t.Fatal(err)
	}

	p := &payment.Payment{
		CustomerID: c.ID,
		Month:      types.Month{Year: 2026, Mon: 9},
		Amount:     types.AmountFromInt(1200),
	}
	if err := eng.RecordPayment(ctx, p); err != nil {
		t.Fatal(err)
	}

	if _, err := eng.CreateUser(ctx, "op1", "s3cret", user.RoleOperator); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Authenticate(ctx, "op1", "wrong"); err == nil {
		t.Fatal("expected auth failure")
	}

	evt := rec.find(audithook.ActionAreaCreated)
	if evt == nil {
		t.Fatal("no area.created event recorded")
	}
	if evt.ResourceID != a.ID.String() {
		t.Fatalf("expected resource id %s, got %s", a.ID, evt.ResourceID)
	}

	evt = rec.find(audithook.ActionPaymentRecorded)
	if evt == nil {
		t.Fatal("no payment.recorded event recorded")
	}
	if evt.Metadata["amount"] != "1200" {
		t.Fatalf("expected amount metadata, got %v", evt.Metadata["amount"])
	}
	if evt.Category != audithook.CategoryBilling {
		t.Fatalf("expected billing category, got %s", evt.Category)
	}

	evt = rec.find(audithook.ActionAuthFailed)
	if evt == nil {
		t.Fatal("no auth.failed event recorded")
	}
	if evt.Outcome != audithook.OutcomeFailure {
		t.Fatalf("expected failure outcome, got %s", evt.Outcome)
	}
}

func TestDisabledActionsAreSkipped(t *testing.T) {
	rec := &captureRecorder{}
	ext := audithook.New(rec, audithook.WithDisabledActions(audithook.ActionAreaCreated))

	ctx := context.Background()
	if err := ext.OnAreaCreated(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if err := ext.OnAreaDeleted(ctx, "area_01h2x"); err != nil {
		t.Fatal(err)
	}

	if rec.find(audithook.ActionAreaCreated) != nil {
		t.Fatal("disabled action was recorded")
	}
	if rec.find(audithook.ActionAreaDeleted) == nil {
		t.Fatal("enabled action was not recorded")
	}
}
