// Package plugin provides an extensible plugin system for the billing engine.
// Plugins can hook into various lifecycle events to extend functionality.
package plugin

import (
	"context"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Area lifecycle hooks
// ──────────────────────────────────────────────────

// OnAreaCreated is called when a new area is created.
type OnAreaCreated interface {
	Plugin
	OnAreaCreated(ctx context.Context, area interface{}) error
}

// OnAreaDeleted is called when an area is deleted.
type OnAreaDeleted interface {
	Plugin
	OnAreaDeleted(ctx context.Context, areaID string) error
}

// ──────────────────────────────────────────────────
// Customer lifecycle hooks
// ──────────────────────────────────────────────────

// OnCustomerCreated is called when a new customer is registered.
type OnCustomerCreated interface {
	Plugin
	OnCustomerCreated(ctx context.Context, cust interface{}) error
}

// OnCustomerUpdated is called when a customer record changes.
type OnCustomerUpdated interface {
	Plugin
	OnCustomerUpdated(ctx context.Context, oldCust, newCust interface{}) error
}

// OnCustomerDeleted is called when a customer and its payments are removed.
type OnCustomerDeleted interface {
	Plugin
	OnCustomerDeleted(ctx context.Context, custID string, paymentsDeleted int) error
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnPaymentRecorded is called when a payment is recorded.
type OnPaymentRecorded interface {
	Plugin
	OnPaymentRecorded(ctx context.Context, pay interface{}) error
}

// OnPaymentDeleted is called when a payment is removed.
type OnPaymentDeleted interface {
	Plugin
	OnPaymentDeleted(ctx context.Context, pay interface{}) error
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnStatementComputed is called after a monthly statement is computed.
type OnStatementComputed interface {
	Plugin
	OnStatementComputed(ctx context.Context, stmt interface{}) error
}

// OnDefaulterScan is called after a defaulter scan completes.
type OnDefaulterScan interface {
	Plugin
	OnDefaulterScan(ctx context.Context, month string, flagged int) error
}

// ──────────────────────────────────────────────────
// Auth hooks
// ──────────────────────────────────────────────────

// OnUserAuthenticated is called after a successful login.
type OnUserAuthenticated interface {
	Plugin
	OnUserAuthenticated(ctx context.Context, username string) error
}

// OnAuthFailed is called after a failed login attempt.
type OnAuthFailed interface {
	Plugin
	OnAuthFailed(ctx context.Context, username string) error
}
