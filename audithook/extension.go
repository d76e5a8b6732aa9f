// Package audithook bridges engine lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit store. Callers inject a RecorderFunc adapter that
// bridges to their backend at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fibernet/cablebill/area"
	"github.com/fibernet/cablebill/customer"
	"github.com/fibernet/cablebill/payment"
	"github.com/fibernet/cablebill/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin              = (*Extension)(nil)
	_ plugin.OnAreaCreated       = (*Extension)(nil)
	_ plugin.OnAreaDeleted       = (*Extension)(nil)
	_ plugin.OnCustomerCreated   = (*Extension)(nil)
	_ plugin.OnCustomerUpdated   = (*Extension)(nil)
	_ plugin.OnCustomerDeleted   = (*Extension)(nil)
	_ plugin.OnPaymentRecorded   = (*Extension)(nil)
	_ plugin.OnPaymentDeleted    = (*Extension)(nil)
	_ plugin.OnDefaulterScan     = (*Extension)(nil)
	_ plugin.OnUserAuthenticated = (*Extension)(nil)
	_ plugin.OnAuthFailed        = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges engine lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Area lifecycle hooks
// ──────────────────────────────────────────────────

// OnAreaCreated implements plugin.OnAreaCreated.
func (e *Extension) OnAreaCreated(ctx context.Context, a interface{}) error {
	resourceID := ""
	if ar, ok := a.(*area.Area); ok {
		resourceID = ar.ID.String()
	}
	return e.record(ctx, ActionAreaCreated, SeverityInfo, OutcomeSuccess,
		ResourceArea, resourceID, CategoryRegistry, nil,
		"event", "area_created",
	)
}

// OnAreaDeleted implements plugin.OnAreaDeleted.
func (e *Extension) OnAreaDeleted(ctx context.Context, areaID string) error {
	return e.record(ctx, ActionAreaDeleted, SeverityWarning, OutcomeSuccess,
		ResourceArea, areaID, CategoryRegistry, nil,
		"area_id", areaID,
	)
}

// ──────────────────────────────────────────────────
// Customer lifecycle hooks
// ──────────────────────────────────────────────────

// OnCustomerCreated implements plugin.OnCustomerCreated.
func (e *Extension) OnCustomerCreated(ctx context.Context, c interface{}) error {
	resourceID := ""
	if cust, ok := c.(*customer.Customer); ok {
		resourceID = cust.ID.String()
	}
	return e.record(ctx, ActionCustomerCreated, SeverityInfo, OutcomeSuccess,
		ResourceCustomer, resourceID, CategoryRegistry, nil,
		"event", "customer_created",
	)
}

// OnCustomerUpdated implements plugin.OnCustomerUpdated.
func (e *Extension) OnCustomerUpdated(ctx context.Context, _, newCust interface{}) error {
	resourceID := ""
	if cust, ok := newCust.(*customer.Customer); ok {
		resourceID = cust.ID.String()
	}
	return e.record(ctx, ActionCustomerUpdated, SeverityInfo, OutcomeSuccess,
		ResourceCustomer, resourceID, CategoryRegistry, nil,
		"event", "customer_updated",
	)
}

// OnCustomerDeleted implements plugin.OnCustomerDeleted.
func (e *Extension) OnCustomerDeleted(ctx context.Context, custID string, paymentsDeleted int) error {
	return e.record(ctx, ActionCustomerDeleted, SeverityWarning, OutcomeSuccess,
		ResourceCustomer, custID, CategoryRegistry, nil,
		"customer_id", custID,
		"payments_deleted", paymentsDeleted,
	)
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnPaymentRecorded implements plugin.OnPaymentRecorded.
func (e *Extension) OnPaymentRecorded(ctx context.Context, p interface{}) error {
	resourceID := ""
	meta := []any{"event", "payment_recorded"}
	if pay, ok := p.(*payment.Payment); ok {
		resourceID = pay.ID.String()
		meta = append(meta,
			"customer_id", pay.CustomerID.String(),
			"month", pay.Month.String(),
			"amount", pay.Amount.String(),
		)
	}
	return e.record(ctx, ActionPaymentRecorded, SeverityInfo, OutcomeSuccess,
		ResourcePayment, resourceID, CategoryBilling, nil, meta...)
}

// OnPaymentDeleted implements plugin.OnPaymentDeleted.
func (e *Extension) OnPaymentDeleted(ctx context.Context, p interface{}) error {
	resourceID := ""
	if pay, ok := p.(*payment.Payment); ok {
		resourceID = pay.ID.String()
	}
	return e.record(ctx, ActionPaymentDeleted, SeverityWarning, OutcomeSuccess,
		ResourcePayment, resourceID, CategoryBilling, nil,
		"event", "payment_deleted",
	)
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnDefaulterScan implements plugin.OnDefaulterScan.
func (e *Extension) OnDefaulterScan(ctx context.Context, month string, flagged int) error {
	return e.record(ctx, ActionDefaulterScan, SeverityInfo, OutcomeSuccess,
		ResourceLedger, month, CategoryBilling, nil,
		"month", month,
		"flagged", flagged,
	)
}

// ──────────────────────────────────────────────────
// Auth hooks
// ──────────────────────────────────────────────────

// OnUserAuthenticated implements plugin.OnUserAuthenticated.
func (e *Extension) OnUserAuthenticated(ctx context.Context, username string) error {
	return e.record(ctx, ActionAuthLogin, SeverityInfo, OutcomeSuccess,
		ResourceUser, username, CategoryAccess, nil,
		"username", username,
	)
}

// OnAuthFailed implements plugin.OnAuthFailed.
func (e *Extension) OnAuthFailed(ctx context.Context, username string) error {
	return e.record(ctx, ActionAuthFailed, SeverityWarning, OutcomeFailure,
		ResourceUser, username, CategoryAccess, nil,
		"username", username,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audithook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
