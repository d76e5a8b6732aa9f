package store

import (
	"context"

	"github.com/fibernet/cablebill/area"
	"github.com/fibernet/cablebill/customer"
	"github.com/fibernet/cablebill/id"
	"github.com/fibernet/cablebill/payment"
	"github.com/fibernet/cablebill/user"
)

// Store is the unified storage interface for all billing entities.
// Instead of embedding sub-interfaces, all methods are declared explicitly
// to avoid naming conflicts.
type Store interface {
	// Area methods
	CreateArea(ctx context.Context, a *area.Area) error
	GetArea(ctx context.Context, areaID id.AreaID) (*area.Area, error)
	ListAreas(ctx context.Context) ([]*area.Area, error)
	UpdateArea(ctx context.Context, a *area.Area) error
	DeleteArea(ctx context.Context, areaID id.AreaID) error
	CountCustomersInArea(ctx context.Context, areaID id.AreaID) (int, error)

	// Customer methods
	CreateCustomer(ctx context.Context, c *customer.Customer) error
	GetCustomer(ctx context.Context, custID id.CustomerID) (*customer.Customer, error)
	GetCustomerByConnectionNumber(ctx context.Context, connectionNumber string) (*customer.Customer, error)
	ListCustomersByArea(ctx context.Context, areaID id.AreaID) ([]*customer.Customer, error)
	SearchCustomers(ctx context.Context, query string) ([]*customer.Customer, error)
	UpdateCustomer(ctx context.Context, c *customer.Customer) error
	DeleteCustomer(ctx context.Context, custID id.CustomerID) error

	// Payment methods
	CreatePayment(ctx context.Context, p *payment.Payment) error
	GetPayment(ctx context.Context, payID id.PaymentID) (*payment.Payment, error)
	ListPaymentsByCustomer(ctx context.Context, custID id.CustomerID) ([]*payment.Payment, error)
	ListPaymentsByArea(ctx context.Context, areaID id.AreaID) ([]*payment.Payment, error)
	ListPayments(ctx context.Context) ([]*payment.Payment, error)
	DeletePayment(ctx context.Context, payID id.PaymentID) error
	DeletePaymentsByCustomer(ctx context.Context, custID id.CustomerID) (int, error)

	// User methods
	CreateUser(ctx context.Context, u *user.User) error
	GetUser(ctx context.Context, userID id.UserID) (*user.User, error)
	GetUserByUsername(ctx context.Context, username string) (*user.User, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Op identifies the kind of mutation carried by a Change.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Change is a single document mutation observed on a store.
type Change struct {
	Op         Op
	Collection string
	// Doc holds the document after the mutation; for deletes only the ID
	// string is available.
	Doc interface{}
	ID  string
}

// Watcher is an optional capability for stores that can stream live
// document mutations. Callers must type-assert:
//
//	if w, ok := s.(store.Watcher); ok {
//	    ch, err := w.Watch(ctx)
//	    ...
//	}
type Watcher interface {
	Watch(ctx context.Context) (<-chan Change, error)
}
