package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit              []OnInit
	onShutdown          []OnShutdown
	onAreaCreated       []OnAreaCreated
	onAreaDeleted       []OnAreaDeleted
	onCustomerCreated   []OnCustomerCreated
	onCustomerUpdated   []OnCustomerUpdated
	onCustomerDeleted   []OnCustomerDeleted
	onPaymentRecorded   []OnPaymentRecorded
	onPaymentDeleted    []OnPaymentDeleted
	onStatementComputed []OnStatementComputed
	onDefaulterScan     []OnDefaulterScan
	onUserAuthenticated []OnUserAuthenticated
	onAuthFailed        []OnAuthFailed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnAreaCreated); ok {
		r.onAreaCreated = append(r.onAreaCreated, v)
	}
	if v, ok := p.(OnAreaDeleted); ok {
		r.onAreaDeleted = append(r.onAreaDeleted, v)
	}
	if v, ok := p.(OnCustomerCreated); ok {
		r.onCustomerCreated = append(r.onCustomerCreated, v)
	}
	if v, ok := p.(OnCustomerUpdated); ok {
		r.onCustomerUpdated = append(r.onCustomerUpdated, v)
	}
	if v, ok := p.(OnCustomerDeleted); ok {
		r.onCustomerDeleted = append(r.onCustomerDeleted, v)
	}
	if v, ok := p.(OnPaymentRecorded); ok {
		r.onPaymentRecorded = append(r.onPaymentRecorded, v)
	}
	if v, ok := p.(OnPaymentDeleted); ok {
		r.onPaymentDeleted = append(r.onPaymentDeleted, v)
	}
	if v, ok := p.(OnStatementComputed); ok {
		r.onStatementComputed = append(r.onStatementComputed, v)
	}
	if v, ok := p.(OnDefaulterScan); ok {
		r.onDefaulterScan = append(r.onDefaulterScan, v)
	}
	if v, ok := p.(OnUserAuthenticated); ok {
		r.onUserAuthenticated = append(r.onUserAuthenticated, v)
	}
	if v, ok := p.(OnAuthFailed); ok {
		r.onAuthFailed = append(r.onAuthFailed, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	// List all interfaces to check
	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnAreaCreated)(nil)).Elem(), "OnAreaCreated")
	checkInterface(reflect.TypeOf((*OnAreaDeleted)(nil)).Elem(), "OnAreaDeleted")
	checkInterface(reflect.TypeOf((*OnCustomerCreated)(nil)).Elem(), "OnCustomerCreated")
	checkInterface(reflect.TypeOf((*OnCustomerUpdated)(nil)).Elem(), "OnCustomerUpdated")
	checkInterface(reflect.TypeOf((*OnCustomerDeleted)(nil)).Elem(), "OnCustomerDeleted")
	checkInterface(reflect.TypeOf((*OnPaymentRecorded)(nil)).Elem(), "OnPaymentRecorded")
	checkInterface(reflect.TypeOf((*OnPaymentDeleted)(nil)).Elem(), "OnPaymentDeleted")
	checkInterface(reflect.TypeOf((*OnStatementComputed)(nil)).Elem(), "OnStatementComputed")
	checkInterface(reflect.TypeOf((*OnDefaulterScan)(nil)).Elem(), "OnDefaulterScan")
	checkInterface(reflect.TypeOf((*OnUserAuthenticated)(nil)).Elem(), "OnUserAuthenticated")
	checkInterface(reflect.TypeOf((*OnAuthFailed)(nil)).Elem(), "OnAuthFailed")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitAreaCreated emits an area created event.
func (r *Registry) EmitAreaCreated(ctx context.Context, area interface{}) {
	r.mu.RLock()
	plugins := r.onAreaCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnAreaCreated(ctx, area)
		}); err != nil {
			r.logger.Warn("plugin OnAreaCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitAreaDeleted emits an area deleted event.
func (r *Registry) EmitAreaDeleted(ctx context.Context, areaID string) {
	r.mu.RLock()
	plugins := r.onAreaDeleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnAreaDeleted(ctx, areaID)
		}); err != nil {
			r.logger.Warn("plugin OnAreaDeleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCustomerCreated emits a customer created event.
func (r *Registry) EmitCustomerCreated(ctx context.Context, cust interface{}) {
	r.mu.RLock()
	plugins := r.onCustomerCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCustomerCreated(ctx, cust)
		}); err != nil {
			r.logger.Warn("plugin OnCustomerCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCustomerUpdated emits a customer updated event.
func (r *Registry) EmitCustomerUpdated(ctx context.Context, oldCust, newCust interface{}) {
	r.mu.RLock()
	plugins := r.onCustomerUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCustomerUpdated(ctx, oldCust, newCust)
		}); err != nil {
			r.logger.Warn("plugin OnCustomerUpdated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCustomerDeleted emits a customer deleted event.
func (r *Registry) EmitCustomerDeleted(ctx context.Context, custID string, paymentsDeleted int) {
	r.mu.RLock()
	plugins := r.onCustomerDeleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCustomerDeleted(ctx, custID, paymentsDeleted)
		}); err != nil {
			r.logger.Warn("plugin OnCustomerDeleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPaymentRecorded emits a payment recorded event.
func (r *Registry) EmitPaymentRecorded(ctx context.Context, pay interface{}) {
	r.mu.RLock()
	plugins := r.onPaymentRecorded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPaymentRecorded(ctx, pay)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentRecorded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPaymentDeleted emits a payment deleted event.
func (r *Registry) EmitPaymentDeleted(ctx context.Context, pay interface{}) {
	r.mu.RLock()
	plugins := r.onPaymentDeleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPaymentDeleted(ctx, pay)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentDeleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitStatementComputed emits a statement computed event.
func (r *Registry) EmitStatementComputed(ctx context.Context, stmt interface{}) {
	r.mu.RLock()
	plugins := r.onStatementComputed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnStatementComputed(ctx, stmt)
		}); err != nil {
			r.logger.Warn("plugin OnStatementComputed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitDefaulterScan emits a defaulter scan event.
func (r *Registry) EmitDefaulterScan(ctx context.Context, month string, flagged int) {
	r.mu.RLock()
	plugins := r.onDefaulterScan
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnDefaulterScan(ctx, month, flagged)
		}); err != nil {
			r.logger.Warn("plugin OnDefaulterScan failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitUserAuthenticated emits a successful login event.
func (r *Registry) EmitUserAuthenticated(ctx context.Context, username string) {
	r.mu.RLock()
	plugins := r.onUserAuthenticated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnUserAuthenticated(ctx, username)
		}); err != nil {
			r.logger.Warn("plugin OnUserAuthenticated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitAuthFailed emits a failed login event.
func (r *Registry) EmitAuthFailed(ctx context.Context, username string) {
	r.mu.RLock()
	plugins := r.onAuthFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnAuthFailed(ctx, username)
		}); err != nil {
			r.logger.Warn("plugin OnAuthFailed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the billing pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
