// Package memory provides an in-memory store, useful for tests and demos.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/fibernet/cablebill"
	"github.com/fibernet/cablebill/area"
	"github.com/fibernet/cablebill/customer"
	"github.com/fibernet/cablebill/id"
	"github.com/fibernet/cablebill/payment"
	"github.com/fibernet/cablebill/store"
	"github.com/fibernet/cablebill/user"
)

// Store keeps records by value: every write stores a copy and every
// read returns one, so callers can mutate what they hold without
// touching stored state.
type Store struct {
	mu sync.RWMutex

	areas     map[string]*area.Area
	customers map[string]*customer.Customer
	payments  map[string]*payment.Payment
	users     map[string]*user.User

	watchers []chan store.Change
	closed   bool
}

func New() *Store {
	return &Store{
		areas:     make(map[string]*area.Area),
		customers: make(map[string]*customer.Customer),
		payments:  make(map[string]*payment.Payment),
		users:     make(map[string]*user.User),
	}
}

// notify fans a change out to all watchers. Callers hold s.mu.
func (s *Store) notify(c store.Change) {
	for _, ch := range s.watchers {
		select {
		case ch <- c:
		default:
			// Slow watcher, drop rather than block writes.
		}
	}
}

// Area Store implementation
func (s *Store) CreateArea(_ context.Context, a *area.Area) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.areas[a.ID.String()]; exists {
		return cablebill.ErrAlreadyExists
	}
	cp := *a
	s.areas[a.ID.String()] = &cp
	s.notify(store.Change{Op: store.OpCreate, Collection: "areas", Doc: &cp, ID: a.ID.String()})
	return nil
}

func (s *Store) GetArea(_ context.Context, areaID id.AreaID) (*area.Area, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.areas[areaID.String()]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, cablebill.ErrAreaNotFound
}

func (s *Store) ListAreas(_ context.Context) ([]*area.Area, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*area.Area, 0, len(s.areas))
	for _, a := range s.areas {
		cp := *a
		result = append(result, &cp)
	}
	return result, nil
}

func (s *Store) UpdateArea(_ context.Context, a *area.Area) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.areas[a.ID.String()]; !exists {
		return cablebill.ErrAreaNotFound
	}
	cp := *a
	s.areas[a.ID.String()] = &cp
	s.notify(store.Change{Op: store.OpUpdate, Collection: "areas", Doc: &cp, ID: a.ID.String()})
	return nil
}

func (s *Store) DeleteArea(_ context.Context, areaID id.AreaID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.areas[areaID.String()]; !exists {
		return cablebill.ErrAreaNotFound
	}
	delete(s.areas, areaID.String())
	s.notify(store.Change{Op: store.OpDelete, Collection: "areas", ID: areaID.String()})
	return nil
}

func (s *Store) CountCustomersInArea(_ context.Context, areaID id.AreaID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, c := range s.customers {
		if c.AreaID.String() == areaID.String() {
			n++
		}
	}
	return n, nil
}

// Customer Store implementation
func (s *Store) CreateCustomer(_ context.Context, c *customer.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customers[c.ID.String()]; exists {
		return cablebill.ErrAlreadyExists
	}
	cp := *c
	s.customers[c.ID.String()] = &cp
	s.notify(store.Change{Op: store.OpCreate, Collection: "customers", Doc: &cp, ID: c.ID.String()})
	return nil
}

func (s *Store) GetCustomer(_ context.Context, custID id.CustomerID) (*customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.customers[custID.String()]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, cablebill.ErrCustomerNotFound
}

func (s *Store) GetCustomerByConnectionNumber(_ context.Context, connectionNumber string) (*customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.customers {
		if c.ConnectionNumber == connectionNumber {
			cp := *c
			return &cp, nil
		}
	}
	return nil, cablebill.ErrCustomerNotFound
}

func (s *Store) ListCustomersByArea(_ context.Context, areaID id.AreaID) ([]*customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*customer.Customer, 0)
	for _, c := range s.customers {
		if c.AreaID.String() == areaID.String() {
			cp := *c
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (s *Store) SearchCustomers(_ context.Context, query string) ([]*customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query = strings.TrimSpace(query)
	result := make([]*customer.Customer, 0)
	for _, c := range s.customers {
		if query == "" || c.Matches(query) {
			cp := *c
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (s *Store) UpdateCustomer(_ context.Context, c *customer.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customers[c.ID.String()]; !exists {
		return cablebill.ErrCustomerNotFound
	}
	cp := *c
	s.customers[c.ID.String()] = &cp
	s.notify(store.Change{Op: store.OpUpdate, Collection: "customers", Doc: &cp, ID: c.ID.String()})
	return nil
}

func (s *Store) DeleteCustomer(_ context.Context, custID id.CustomerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customers[custID.String()]; !exists {
		return cablebill.ErrCustomerNotFound
	}
	delete(s.customers, custID.String())
	s.notify(store.Change{Op: store.OpDelete, Collection: "customers", ID: custID.String()})
	return nil
}

// Payment Store implementation
func (s *Store) CreatePayment(_ context.Context, p *payment.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payments[p.ID.String()]; exists {
		return cablebill.ErrAlreadyExists
	}
	cp := *p
	s.payments[p.ID.String()] = &cp
	s.notify(store.Change{Op: store.OpCreate, Collection: "payments", Doc: &cp, ID: p.ID.String()})
	return nil
}

func (s *Store) GetPayment(_ context.Context, payID id.PaymentID) (*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.payments[payID.String()]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, cablebill.ErrPaymentNotFound
}

func (s *Store) ListPaymentsByCustomer(_ context.Context, custID id.CustomerID) ([]*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*payment.Payment, 0)
	for _, p := range s.payments {
		if p.CustomerID.String() == custID.String() {
			cp := *p
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (s *Store) ListPaymentsByArea(_ context.Context, areaID id.AreaID) ([]*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*payment.Payment, 0)
	for _, p := range s.payments {
		if p.AreaID.String() == areaID.String() {
			cp := *p
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (s *Store) ListPayments(_ context.Context) ([]*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*payment.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		cp := *p
		result = append(result, &cp)
	}
	return result, nil
}

func (s *Store) DeletePayment(_ context.Context, payID id.PaymentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payments[payID.String()]; !exists {
		return cablebill.ErrPaymentNotFound
	}
	delete(s.payments, payID.String())
	s.notify(store.Change{Op: store.OpDelete, Collection: "payments", ID: payID.String()})
	return nil
}

func (s *Store) DeletePaymentsByCustomer(_ context.Context, custID id.CustomerID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key, p := range s.payments {
		if p.CustomerID.String() == custID.String() {
			delete(s.payments, key)
			s.notify(store.Change{Op: store.OpDelete, Collection: "payments", ID: key})
			n++
		}
	}
	return n, nil
}

// User Store implementation
func (s *Store) CreateUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[u.ID.String()]; exists {
		return cablebill.ErrAlreadyExists
	}
	cp := *u
	s.users[u.ID.String()] = &cp
	return nil
}

func (s *Store) GetUser(_ context.Context, userID id.UserID) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.users[userID.String()]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, cablebill.ErrUserNotFound
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, cablebill.ErrUserNotFound
}

// Watch implements store.Watcher. The channel is closed when the store
// is closed.
func (s *Store) Watch(ctx context.Context) (<-chan store.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, cablebill.ErrStoreClosed
	}

	ch := make(chan store.Change, 64)
	s.watchers = append(s.watchers, ch)

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, w := range s.watchers {
			if w == ch {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				close(ch)
				break
			}
		}
	}()

	return ch, nil
}

// Store management
func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	return nil // Always available
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	for _, ch := range s.watchers {
		close(ch)
	}
	s.watchers = nil
	return nil
}
