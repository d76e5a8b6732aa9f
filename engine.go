package cablebill

import (
	"context"
	"log/slog"
	"time"

	"github.com/fibernet/cablebill/area"
	"github.com/fibernet/cablebill/customer"
	"github.com/fibernet/cablebill/id"
	"github.com/fibernet/cablebill/ledger"
	"github.com/fibernet/cablebill/payment"
	"github.com/fibernet/cablebill/plugin"
	"github.com/fibernet/cablebill/store"
	"github.com/fibernet/cablebill/types"
	"github.com/fibernet/cablebill/user"
)

// Engine is the main billing engine for a cable operator. It owns the
// customer registry, the payment ledger and the balance computations
// built on top of them.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	// now is injectable for deterministic balance computations in tests.
	now func() time.Time
}

// New creates a new Engine instance.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:   s,
		plugins: plugin.NewRegistry(),
		logger:  slog.Default(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithClock sets the time source used for balance computations.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Start migrates the store and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("engine started", "plugins", e.plugins.Count())
	return nil
}

// Stop shuts down the Engine.
func (e *Engine) Stop() error {
	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

// ──────────────────────────────────────────────────
// Area Management
// ──────────────────────────────────────────────────

// CreateArea creates a new service area.
func (e *Engine) CreateArea(ctx context.Context, a *area.Area) error {
	if err := a.Validate(); err != nil {
		return err
	}

	if a.ID == (id.AreaID{}) {
		a.ID = id.NewAreaID()
	}
	a.Entity = types.NewEntity()

	if err := e.store.CreateArea(ctx, a); err != nil {
		return err
	}

	e.plugins.EmitAreaCreated(ctx, a)
	return nil
}

// GetArea retrieves an area by ID.
func (e *Engine) GetArea(ctx context.Context, areaID id.AreaID) (*area.Area, error) {
	return e.store.GetArea(ctx, areaID)
}

// ListAreas lists all service areas.
func (e *Engine) ListAreas(ctx context.Context) ([]*area.Area, error) {
	return e.store.ListAreas(ctx)
}

// UpdateArea updates an area's details.
func (e *Engine) UpdateArea(ctx context.Context, a *area.Area) error {
	if err := a.Validate(); err != nil {
		return err
	}

	a.Touch()
	return e.store.UpdateArea(ctx, a)
}

// DeleteArea removes an area. Areas that still have customers are
// refused with ErrAreaNotEmpty.
func (e *Engine) DeleteArea(ctx context.Context, areaID id.AreaID) error {
	n, err := e.store.CountCustomersInArea(ctx, areaID)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrAreaNotEmpty
	}

	if err := e.store.DeleteArea(ctx, areaID); err != nil {
		return err
	}

	e.plugins.EmitAreaDeleted(ctx, areaID.String())
	return nil
}

// ──────────────────────────────────────────────────
// Customer Management
// ──────────────────────────────────────────────────

// CreateCustomer registers a new customer connection. Connection numbers
// are unique across all areas.
func (e *Engine) CreateCustomer(ctx context.Context, c *customer.Customer) error {
	if err := c.Validate(); err != nil {
		return err
	}

	if _, err := e.store.GetArea(ctx, c.AreaID); err != nil {
		return err
	}

	existing, err := e.store.GetCustomerByConnectionNumber(ctx, c.ConnectionNumber)
	if err != nil && !IsNotFound(err) {
		return err
	}
	if existing != nil {
		return ErrDuplicateConnectionNumber
	}

	if c.ID == (id.CustomerID{}) {
		c.ID = id.NewCustomerID()
	}
	c.Entity = types.NewEntity()

	if err := e.store.CreateCustomer(ctx, c); err != nil {
		return err
	}

	e.logger.Info("customer created",
		"customer_id", c.ID,
		"connection", c.ConnectionNumber,
		"area_id", c.AreaID,
	)

	e.plugins.EmitCustomerCreated(ctx, c)
	return nil
}

// GetCustomer retrieves a customer by ID.
func (e *Engine) GetCustomer(ctx context.Context, custID id.CustomerID) (*customer.Customer, error) {
	return e.store.GetCustomer(ctx, custID)
}

// GetCustomerByConnectionNumber retrieves a customer by connection number.
func (e *Engine) GetCustomerByConnectionNumber(ctx context.Context, connectionNumber string) (*customer.Customer, error) {
	return e.store.GetCustomerByConnectionNumber(ctx, connectionNumber)
}

// ListCustomersByArea lists the customers of an area.
func (e *Engine) ListCustomersByArea(ctx context.Context, areaID id.AreaID) ([]*customer.Customer, error) {
	return e.store.ListCustomersByArea(ctx, areaID)
}

// SearchCustomers finds customers by name, CNIC or connection number.
// An empty query matches every customer.
func (e *Engine) SearchCustomers(ctx context.Context, query string) ([]*customer.Customer, error) {
	return e.store.SearchCustomers(ctx, query)
}

// UpdateCustomer updates a customer record. Changing the connection
// number re-checks uniqueness.
func (e *Engine) UpdateCustomer(ctx context.Context, c *customer.Customer) error {
	if err := c.Validate(); err != nil {
		return err
	}

	old, err := e.store.GetCustomer(ctx, c.ID)
	if err != nil {
		return err
	}

	if old.ConnectionNumber != c.ConnectionNumber {
		existing, err := e.store.GetCustomerByConnectionNumber(ctx, c.ConnectionNumber)
		if err != nil && !IsNotFound(err) {
			return err
		}
		if existing != nil && existing.ID != c.ID {
			return ErrDuplicateConnectionNumber
		}
	}

	c.CreatedAt = old.CreatedAt
	c.Touch()

	if err := e.store.UpdateCustomer(ctx, c); err != nil {
		return err
	}

	e.plugins.EmitCustomerUpdated(ctx, old, c)
	return nil
}

// DeleteCustomer removes a customer and all their payments. It returns
// the number of payments deleted alongside the customer.
func (e *Engine) DeleteCustomer(ctx context.Context, custID id.CustomerID) (int, error) {
	if _, err := e.store.GetCustomer(ctx, custID); err != nil {
		return 0, err
	}

	deleted, err := e.store.DeletePaymentsByCustomer(ctx, custID)
	if err != nil {
		return 0, err
	}

	if err := e.store.DeleteCustomer(ctx, custID); err != nil {
		return deleted, err
	}

	e.logger.Info("customer deleted",
		"customer_id", custID,
		"payments_deleted", deleted,
	)

	e.plugins.EmitCustomerDeleted(ctx, custID.String(), deleted)
	return deleted, nil
}

// ──────────────────────────────────────────────────
// Payment Recording
// ──────────────────────────────────────────────────

// RecordPayment records a payment against a customer. The customer name
// and area are snapshotted onto the payment so receipts survive later
// edits to the customer record.
func (e *Engine) RecordPayment(ctx context.Context, p *payment.Payment) error {
	c, err := e.store.GetCustomer(ctx, p.CustomerID)
	if err != nil {
		return err
	}

	p.AreaID = c.AreaID
	p.CustomerName = c.Name

	if err := p.Validate(); err != nil {
		return err
	}

	if p.ID == (id.PaymentID{}) {
		p.ID = id.NewPaymentID()
	}
	p.Entity = types.NewEntity()

	if err := e.store.CreatePayment(ctx, p); err != nil {
		return err
	}

	e.logger.Info("payment recorded",
		"payment_id", p.ID,
		"customer_id", p.CustomerID,
		"month", p.Month,
		"amount", p.Amount,
	)

	e.plugins.EmitPaymentRecorded(ctx, p)
	return nil
}

// GetPayment retrieves a payment by ID.
func (e *Engine) GetPayment(ctx context.Context, payID id.PaymentID) (*payment.Payment, error) {
	return e.store.GetPayment(ctx, payID)
}

// ListPaymentsByCustomer lists a customer's payments.
func (e *Engine) ListPaymentsByCustomer(ctx context.Context, custID id.CustomerID) ([]*payment.Payment, error) {
	return e.store.ListPaymentsByCustomer(ctx, custID)
}

// ListPaymentsByArea lists all payments recorded in an area.
func (e *Engine) ListPaymentsByArea(ctx context.Context, areaID id.AreaID) ([]*payment.Payment, error) {
	return e.store.ListPaymentsByArea(ctx, areaID)
}

// DeletePayment removes a payment record.
func (e *Engine) DeletePayment(ctx context.Context, payID id.PaymentID) error {
	p, err := e.store.GetPayment(ctx, payID)
	if err != nil {
		return err
	}

	if err := e.store.DeletePayment(ctx, payID); err != nil {
		return err
	}

	e.plugins.EmitPaymentDeleted(ctx, p)
	return nil
}

// ──────────────────────────────────────────────────
// Balance Queries
// ──────────────────────────────────────────────────

// MonthlyBalances computes a customer's month-by-month statement from
// their start month through asOf. A zero asOf means the current month.
func (e *Engine) MonthlyBalances(ctx context.Context, custID id.CustomerID, asOf types.Month) (*ledger.Statement, error) {
	c, err := e.store.GetCustomer(ctx, custID)
	if err != nil {
		return nil, err
	}

	payments, err := e.store.ListPaymentsByCustomer(ctx, custID)
	if err != nil {
		return nil, err
	}

	if asOf.IsZero() {
		asOf = types.MonthOf(e.now())
	}

	stmt, err := ledger.Compute(c, payments, asOf)
	if err != nil {
		return nil, err
	}

	e.plugins.EmitStatementComputed(ctx, stmt)
	return stmt, nil
}

// AllTimeBalance computes a customer's lifetime expected dues, total
// paid and outstanding balance.
func (e *Engine) AllTimeBalance(ctx context.Context, custID id.CustomerID) (ledger.AllTimeBalance, error) {
	c, err := e.store.GetCustomer(ctx, custID)
	if err != nil {
		return ledger.AllTimeBalance{}, err
	}

	payments, err := e.store.ListPaymentsByCustomer(ctx, custID)
	if err != nil {
		return ledger.AllTimeBalance{}, err
	}

	return ledger.ComputeAllTime(c, payments, e.now())
}

// Defaulters scans the customers of an area and reports those with no
// payment tagged to the target month, along with their accumulated
// balances. A nil areaID scans every area. A zero target means the
// current month.
func (e *Engine) Defaulters(ctx context.Context, areaID id.AreaID, target types.Month) ([]ledger.Defaulter, error) {
	if target.IsZero() {
		target = types.MonthOf(e.now())
	}

	var (
		customers []*customer.Customer
		payments  []*payment.Payment
		err       error
	)
	if areaID.IsNil() {
		customers, err = e.store.SearchCustomers(ctx, "")
		if err != nil {
			return nil, err
		}
		payments, err = e.store.ListPayments(ctx)
	} else {
		customers, err = e.store.ListCustomersByArea(ctx, areaID)
		if err != nil {
			return nil, err
		}
		payments, err = e.store.ListPaymentsByArea(ctx, areaID)
	}
	if err != nil {
		return nil, err
	}

	byCustomer := make(map[string][]*payment.Payment, len(customers))
	for _, p := range payments {
		key := p.CustomerID.String()
		byCustomer[key] = append(byCustomer[key], p)
	}

	defaulters := ledger.ScanDefaulters(customers, byCustomer, target)

	e.plugins.EmitDefaulterScan(ctx, target.String(), len(defaulters))

	e.logger.Info("defaulter scan complete",
		"month", target,
		"customers", len(customers),
		"flagged", len(defaulters),
	)

	return defaulters, nil
}

// Timeline merges payments and customer record events for a month into
// a single feed, newest first. Scope narrows the feed to an area or a
// single customer.
func (e *Engine) Timeline(ctx context.Context, scope ledger.Scope, target types.Month) ([]ledger.Event, error) {
	if target.IsZero() {
		target = types.MonthOf(e.now())
	}

	var (
		customers []*customer.Customer
		payments  []*payment.Payment
		err       error
	)

	switch {
	case !scope.CustomerID.IsNil():
		var c *customer.Customer
		c, err = e.store.GetCustomer(ctx, scope.CustomerID)
		if err != nil {
			return nil, err
		}
		customers = []*customer.Customer{c}
		payments, err = e.store.ListPaymentsByCustomer(ctx, scope.CustomerID)
		if err != nil {
			return nil, err
		}
	case !scope.AreaID.IsNil():
		customers, err = e.store.ListCustomersByArea(ctx, scope.AreaID)
		if err != nil {
			return nil, err
		}
		payments, err = e.store.ListPaymentsByArea(ctx, scope.AreaID)
		if err != nil {
			return nil, err
		}
	default:
		customers, err = e.store.SearchCustomers(ctx, "")
		if err != nil {
			return nil, err
		}
		payments, err = e.store.ListPayments(ctx)
		if err != nil {
			return nil, err
		}
	}

	return ledger.MergeTimeline(customers, payments, scope, target), nil
}

// ──────────────────────────────────────────────────
// User Management
// ──────────────────────────────────────────────────

// CreateUser creates an operator account with a bcrypt-hashed password.
func (e *Engine) CreateUser(ctx context.Context, username, password string, role user.Role) (*user.User, error) {
	existing, err := e.store.GetUserByUsername(ctx, username)
	if err != nil && !IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateUser
	}

	u, err := user.New(username, password, role)
	if err != nil {
		return nil, err
	}

	if err := e.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	e.logger.Info("user created", "username", username, "role", role)
	return u, nil
}

// Authenticate verifies a username/password pair. Unknown users and
// wrong passwords both return ErrBadCredentials.
func (e *Engine) Authenticate(ctx context.Context, username, password string) (*user.User, error) {
	u, err := e.store.GetUserByUsername(ctx, username)
	if err != nil {
		if IsNotFound(err) {
			e.plugins.EmitAuthFailed(ctx, username)
			return nil, ErrBadCredentials
		}
		return nil, err
	}

	if !u.CheckPassword(password) {
		e.plugins.EmitAuthFailed(ctx, username)
		return nil, ErrBadCredentials
	}

	e.plugins.EmitUserAuthenticated(ctx, username)
	return u, nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// Plugins exposes the plugin registry, mainly for introspection.
func (e *Engine) Plugins() *plugin.Registry {
	return e.plugins
}

// Watch returns the store's live change feed, or ErrWatchUnsupported
// for stores without one.
func (e *Engine) Watch(ctx context.Context) (<-chan store.Change, error) {
	w, ok := e.store.(store.Watcher)
	if !ok {
		return nil, ErrWatchUnsupported
	}
	return w.Watch(ctx)
}
