// Package postgres provides a PostgreSQL store backed by pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fibernet/cablebill"
	"github.com/fibernet/cablebill/area"
	"github.com/fibernet/cablebill/customer"
	"github.com/fibernet/cablebill/id"
	"github.com/fibernet/cablebill/payment"
	"github.com/fibernet/cablebill/store"
	"github.com/fibernet/cablebill/user"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL using the given connection string.
func New(ctx context.Context, connString string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewWithPool wraps an existing pool.
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Area Store implementation

func (s *Store) CreateArea(ctx context.Context, a *area.Area) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO cablebill_areas (id, name, connection_number, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)`,
		a.ID.String(), a.Name, a.ConnectionNumber, a.CreatedAt, a.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return cablebill.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetArea(ctx context.Context, areaID id.AreaID) (*area.Area, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, name, connection_number, created_at, updated_at
FROM cablebill_areas WHERE id = $1`, areaID.String())
	return scanArea(row)
}

func (s *Store) ListAreas(ctx context.Context) ([]*area.Area, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, name, connection_number, created_at, updated_at
FROM cablebill_areas ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*area.Area, 0)
	for rows.Next() {
		a, err := scanArea(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (s *Store) UpdateArea(ctx context.Context, a *area.Area) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE cablebill_areas
SET name = $2, connection_number = $3, updated_at = $4
WHERE id = $1`,
		a.ID.String(), a.Name, a.ConnectionNumber, a.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return cablebill.ErrAreaNotFound
	}
	return nil
}

func (s *Store) DeleteArea(ctx context.Context, areaID id.AreaID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM cablebill_areas WHERE id = $1`, areaID.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return cablebill.ErrAreaNotFound
	}
	return nil
}

func (s *Store) CountCustomersInArea(ctx context.Context, areaID id.AreaID) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM cablebill_customers WHERE area_id = $1`,
		areaID.String(),
	).Scan(&n)
	return n, err
}

// Customer Store implementation

const customerColumns = `id, area_id, name, connection_number, father_name, cnic,
phone, address, router_no, monthly_fee::text, created_at, updated_at`

func (s *Store) CreateCustomer(ctx context.Context, c *customer.Customer) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO cablebill_customers
    (id, area_id, name, connection_number, father_name, cnic, phone, address, router_no, monthly_fee, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID.String(), c.AreaID.String(), c.Name, c.ConnectionNumber,
		c.FatherName, c.CNIC, c.Phone, c.Address, c.RouterNo,
		c.MonthlyFee.String(), c.CreatedAt, c.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return cablebill.ErrDuplicateConnectionNumber
	}
	return err
}

func (s *Store) GetCustomer(ctx context.Context, custID id.CustomerID) (*customer.Customer, error) {
	row := s.pool.QueryRow(ctx, `
SELECT `+customerColumns+`
FROM cablebill_customers WHERE id = $1`, custID.String())
	return scanCustomer(row)
}

func (s *Store) GetCustomerByConnectionNumber(ctx context.Context, connectionNumber string) (*customer.Customer, error) {
	row := s.pool.QueryRow(ctx, `
SELECT `+customerColumns+`
FROM cablebill_customers WHERE connection_number = $1`, connectionNumber)
	return scanCustomer(row)
}

func (s *Store) ListCustomersByArea(ctx context.Context, areaID id.AreaID) ([]*customer.Customer, error) {
	rows, err := s.pool.Query(ctx, `
SELECT `+customerColumns+`
FROM cablebill_customers WHERE area_id = $1 ORDER BY name`, areaID.String())
	if err != nil {
		return nil, err
	}
	return collectCustomers(rows)
}

func (s *Store) SearchCustomers(ctx context.Context, query string) ([]*customer.Customer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		rows, err := s.pool.Query(ctx, `
SELECT `+customerColumns+`
FROM cablebill_customers ORDER BY name`)
		if err != nil {
			return nil, err
		}
		return collectCustomers(rows)
	}

	pattern := "%" + escapeLike(query) + "%"
	rows, err := s.pool.Query(ctx, `
SELECT `+customerColumns+`
FROM cablebill_customers
WHERE name ILIKE $1 OR cnic ILIKE $1 OR connection_number ILIKE $1
ORDER BY name`, pattern)
	if err != nil {
		return nil, err
	}
	return collectCustomers(rows)
}

func (s *Store) UpdateCustomer(ctx context.Context, c *customer.Customer) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE cablebill_customers
SET area_id = $2, name = $3, connection_number = $4, father_name = $5,
    cnic = $6, phone = $7, address = $8, router_no = $9, monthly_fee = $10,
    updated_at = $11
WHERE id = $1`,
		c.ID.String(), c.AreaID.String(), c.Name, c.ConnectionNumber,
		c.FatherName, c.CNIC, c.Phone, c.Address, c.RouterNo,
		c.MonthlyFee.String(), c.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return cablebill.ErrDuplicateConnectionNumber
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return cablebill.ErrCustomerNotFound
	}
	return nil
}

func (s *Store) DeleteCustomer(ctx context.Context, custID id.CustomerID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM cablebill_customers WHERE id = $1`, custID.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return cablebill.ErrCustomerNotFound
	}
	return nil
}

// Payment Store implementation

const paymentColumns = `id, area_id, customer_id, customer_name, month, amount::text, created_at, updated_at`

func (s *Store) CreatePayment(ctx context.Context, p *payment.Payment) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO cablebill_payments
    (id, area_id, customer_id, customer_name, month, amount, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID.String(), p.AreaID.String(), p.CustomerID.String(), p.CustomerName,
		p.Month.String(), p.Amount.String(), p.CreatedAt, p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return cablebill.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetPayment(ctx context.Context, payID id.PaymentID) (*payment.Payment, error) {
	row := s.pool.QueryRow(ctx, `
SELECT `+paymentColumns+`
FROM cablebill_payments WHERE id = $1`, payID.String())
	return scanPayment(row)
}

func (s *Store) ListPaymentsByCustomer(ctx context.Context, custID id.CustomerID) ([]*payment.Payment, error) {
	rows, err := s.pool.Query(ctx, `
SELECT `+paymentColumns+`
FROM cablebill_payments WHERE customer_id = $1 ORDER BY created_at DESC`, custID.String())
	if err != nil {
		return nil, err
	}
	return collectPayments(rows)
}

func (s *Store) ListPaymentsByArea(ctx context.Context, areaID id.AreaID) ([]*payment.Payment, error) {
	rows, err := s.pool.Query(ctx, `
SELECT `+paymentColumns+`
FROM cablebill_payments WHERE area_id = $1 ORDER BY created_at DESC`, areaID.String())
	if err != nil {
		return nil, err
	}
	return collectPayments(rows)
}

func (s *Store) ListPayments(ctx context.Context) ([]*payment.Payment, error) {
	rows, err := s.pool.Query(ctx, `
SELECT `+paymentColumns+`
FROM cablebill_payments ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collectPayments(rows)
}

func (s *Store) DeletePayment(ctx context.Context, payID id.PaymentID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM cablebill_payments WHERE id = $1`, payID.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return cablebill.ErrPaymentNotFound
	}
	return nil
}

func (s *Store) DeletePaymentsByCustomer(ctx context.Context, custID id.CustomerID) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM cablebill_payments WHERE customer_id = $1`, custID.String())
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// User Store implementation

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO cablebill_users (id, username, password_hash, role, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID.String(), u.Username, u.PasswordHash, string(u.Role), u.CreatedAt, u.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return cablebill.ErrDuplicateUser
	}
	return err
}

func (s *Store) GetUser(ctx context.Context, userID id.UserID) (*user.User, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, username, password_hash, role, created_at, updated_at
FROM cablebill_users WHERE id = $1`, userID.String())
	return scanUser(row)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*user.User, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, username, password_hash, role, created_at, updated_at
FROM cablebill_users WHERE username = $1`, username)
	return scanUser(row)
}

// Store management

func (s *Store) Migrate(ctx context.Context) error {
	return runMigrations(ctx, s.pool)
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", cablebill.ErrStoreNotReady, err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// escapeLike escapes LIKE metacharacters in a user-supplied search term.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
