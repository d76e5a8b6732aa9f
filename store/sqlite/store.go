// Package sqlite provides a SQLite store using the pure-Go driver from
// modernc.org, so no cgo is required.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/fibernet/cablebill"
	"github.com/fibernet/cablebill/area"
	"github.com/fibernet/cablebill/customer"
	"github.com/fibernet/cablebill/id"
	"github.com/fibernet/cablebill/payment"
	"github.com/fibernet/cablebill/store"
	"github.com/fibernet/cablebill/types"
	"github.com/fibernet/cablebill/user"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at the given path.
// Use ":memory:" for an ephemeral database.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)

	return &Store{db: db}, nil
}

// isUniqueViolation reports whether err is a SQLite unique constraint error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// checkAffected maps a zero-row write to the given not-found sentinel.
func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// Area Store implementation

func (s *Store) CreateArea(ctx context.Context, a *area.Area) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO cablebill_areas (id, name, connection_number, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`,
		a.ID.String(), a.Name, a.ConnectionNumber, a.CreatedAt, a.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return cablebill.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetArea(ctx context.Context, areaID id.AreaID) (*area.Area, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, name, connection_number, created_at, updated_at
FROM cablebill_areas WHERE id = ?`, areaID.String())
	a, err := scanArea(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cablebill.ErrAreaNotFound
	}
	return a, err
}

func (s *Store) ListAreas(ctx context.Context) ([]*area.Area, error) {
	rows, err := s.db.QueryContext(ctx, `
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
	res, err := s.db.ExecContext(ctx, `
UPDATE cablebill_areas
SET name = ?, connection_number = ?, updated_at = ?
WHERE id = ?`,
		a.Name, a.ConnectionNumber, a.UpdatedAt, a.ID.String(),
	)
	if err != nil {
		return err
	}
	return checkAffected(res, cablebill.ErrAreaNotFound)
}

func (s *Store) DeleteArea(ctx context.Context, areaID id.AreaID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cablebill_areas WHERE id = ?`, areaID.String())
	if err != nil {
		return err
	}
	return checkAffected(res, cablebill.ErrAreaNotFound)
}

func (s *Store) CountCustomersInArea(ctx context.Context, areaID id.AreaID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cablebill_customers WHERE area_id = ?`,
		areaID.String(),
	).Scan(&n)
	return n, err
}

// Customer Store implementation

const customerColumns = `id, area_id, name, connection_number, father_name, cnic,
phone, address, router_no, monthly_fee, created_at, updated_at`

func (s *Store) CreateCustomer(ctx context.Context, c *customer.Customer) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO cablebill_customers
    (id, area_id, name, connection_number, father_name, cnic, phone, address, router_no, monthly_fee, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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
	row := s.db.QueryRowContext(ctx, `
SELECT `+customerColumns+`
FROM cablebill_customers WHERE id = ?`, custID.String())
	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cablebill.ErrCustomerNotFound
	}
	return c, err
}

func (s *Store) GetCustomerByConnectionNumber(ctx context.Context, connectionNumber string) (*customer.Customer, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT `+customerColumns+`
FROM cablebill_customers WHERE connection_number = ?`, connectionNumber)
	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cablebill.ErrCustomerNotFound
	}
	return c, err
}

func (s *Store) ListCustomersByArea(ctx context.Context, areaID id.AreaID) ([]*customer.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+customerColumns+`
FROM cablebill_customers WHERE area_id = ? ORDER BY name`, areaID.String())
	if err != nil {
		return nil, err
	}
	return collectCustomers(rows)
}

func (s *Store) SearchCustomers(ctx context.Context, query string) ([]*customer.Customer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		rows, err := s.db.QueryContext(ctx, `
SELECT `+customerColumns+`
FROM cablebill_customers ORDER BY name`)
		if err != nil {
			return nil, err
		}
		return collectCustomers(rows)
	}

	pattern := "%" + escapeLike(query) + "%"
	rows, err := s.db.QueryContext(ctx, `
SELECT `+customerColumns+`
FROM cablebill_customers
WHERE name LIKE ? ESCAPE '\' OR cnic LIKE ? ESCAPE '\' OR connection_number LIKE ? ESCAPE '\'
ORDER BY name`, pattern, pattern, pattern)
	if err != nil {
		return nil, err
	}
	return collectCustomers(rows)
}

func (s *Store) UpdateCustomer(ctx context.Context, c *customer.Customer) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE cablebill_customers
SET area_id = ?, name = ?, connection_number = ?, father_name = ?,
    cnic = ?, phone = ?, address = ?, router_no = ?, monthly_fee = ?,
    updated_at = ?
WHERE id = ?`,
		c.AreaID.String(), c.Name, c.ConnectionNumber, c.FatherName,
		c.CNIC, c.Phone, c.Address, c.RouterNo, c.MonthlyFee.String(),
		c.UpdatedAt, c.ID.String(),
	)
	if isUniqueViolation(err) {
		return cablebill.ErrDuplicateConnectionNumber
	}
	if err != nil {
		return err
	}
	return checkAffected(res, cablebill.ErrCustomerNotFound)
}

func (s *Store) DeleteCustomer(ctx context.Context, custID id.CustomerID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cablebill_customers WHERE id = ?`, custID.String())
	if err != nil {
		return err
	}
	return checkAffected(res, cablebill.ErrCustomerNotFound)
}

// Payment Store implementation

const paymentColumns = `id, area_id, customer_id, customer_name, month, amount, created_at, updated_at`

func (s *Store) CreatePayment(ctx context.Context, p *payment.Payment) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO cablebill_payments
    (id, area_id, customer_id, customer_name, month, amount, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(), p.AreaID.String(), p.CustomerID.String(), p.CustomerName,
		p.Month.String(), p.Amount.String(), p.CreatedAt, p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return cablebill.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetPayment(ctx context.Context, payID id.PaymentID) (*payment.Payment, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT `+paymentColumns+`
FROM cablebill_payments WHERE id = ?`, payID.String())
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cablebill.ErrPaymentNotFound
	}
	return p, err
}

func (s *Store) ListPaymentsByCustomer(ctx context.Context, custID id.CustomerID) ([]*payment.Payment, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+paymentColumns+`
FROM cablebill_payments WHERE customer_id = ? ORDER BY created_at DESC`, custID.String())
	if err != nil {
		return nil, err
	}
	return collectPayments(rows)
}

func (s *Store) ListPaymentsByArea(ctx context.Context, areaID id.AreaID) ([]*payment.Payment, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+paymentColumns+`
FROM cablebill_payments WHERE area_id = ? ORDER BY created_at DESC`, areaID.String())
	if err != nil {
		return nil, err
	}
	return collectPayments(rows)
}

func (s *Store) ListPayments(ctx context.Context) ([]*payment.Payment, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+paymentColumns+`
FROM cablebill_payments ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collectPayments(rows)
}

func (s *Store) DeletePayment(ctx context.Context, payID id.PaymentID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cablebill_payments WHERE id = ?`, payID.String())
	if err != nil {
		return err
	}
	return checkAffected(res, cablebill.ErrPaymentNotFound)
}

func (s *Store) DeletePaymentsByCustomer(ctx context.Context, custID id.CustomerID) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cablebill_payments WHERE customer_id = ?`, custID.String())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// User Store implementation

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO cablebill_users (id, username, password_hash, role, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID.String(), u.Username, u.PasswordHash, string(u.Role), u.CreatedAt, u.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return cablebill.ErrDuplicateUser
	}
	return err
}

func (s *Store) GetUser(ctx context.Context, userID id.UserID) (*user.User, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, username, password_hash, role, created_at, updated_at
FROM cablebill_users WHERE id = ?`, userID.String())
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cablebill.ErrUserNotFound
	}
	return u, err
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*user.User, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, username, password_hash, role, created_at, updated_at
FROM cablebill_users WHERE username = ?`, username)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cablebill.ErrUserNotFound
	}
	return u, err
}

// Store management

func (s *Store) Migrate(ctx context.Context) error {
	return runMigrations(ctx, s.db)
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", cablebill.ErrStoreNotReady, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ──────────────────────────────────────────────────
// Row scanning
// ──────────────────────────────────────────────────

func scanArea(row rowScanner) (*area.Area, error) {
	var (
		rawID      string
		name       string
		connNumber string
		createdAt  time.Time
		updatedAt  time.Time
	)
	if err := row.Scan(&rawID, &name, &connNumber, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	areaID, err := id.ParseAreaID(rawID)
	if err != nil {
		return nil, err
	}

	return &area.Area{
		Entity: types.Entity{
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		},
		ID:               areaID,
		Name:             name,
		ConnectionNumber: connNumber,
	}, nil
}

func scanCustomer(row rowScanner) (*customer.Customer, error) {
	var (
		rawID      string
		rawAreaID  string
		name       string
		connNumber string
		fatherName string
		cnic       string
		phone      string
		address    string
		routerNo   string
		rawFee     string
		createdAt  time.Time
		updatedAt  time.Time
	)
	if err := row.Scan(&rawID, &rawAreaID, &name, &connNumber, &fatherName,
		&cnic, &phone, &address, &routerNo, &rawFee, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	custID, err := id.ParseCustomerID(rawID)
	if err != nil {
		return nil, err
	}
	areaID, err := id.ParseAreaID(rawAreaID)
	if err != nil {
		return nil, err
	}
	fee, err := types.ParseAmount(rawFee)
	if err != nil {
		return nil, err
	}

	return &customer.Customer{
		Entity: types.Entity{
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		},
		ID:               custID,
		AreaID:           areaID,
		Name:             name,
		ConnectionNumber: connNumber,
		FatherName:       fatherName,
		CNIC:             cnic,
		Phone:            phone,
		Address:          address,
		RouterNo:         routerNo,
		MonthlyFee:       fee,
	}, nil
}

func collectCustomers(rows *sql.Rows) ([]*customer.Customer, error) {
	defer rows.Close()

	result := make([]*customer.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func scanPayment(row rowScanner) (*payment.Payment, error) {
	var (
		rawID     string
		rawAreaID string
		rawCustID string
		custName  string
		rawMonth  string
		rawAmount string
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&rawID, &rawAreaID, &rawCustID, &custName, &rawMonth,
		&rawAmount, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	payID, err := id.ParsePaymentID(rawID)
	if err != nil {
		return nil, err
	}
	areaID, err := id.ParseAreaID(rawAreaID)
	if err != nil {
		return nil, err
	}
	custID, err := id.ParseCustomerID(rawCustID)
	if err != nil {
		return nil, err
	}
	amount, err := types.ParseAmount(rawAmount)
	if err != nil {
		return nil, err
	}

	var month types.Month
	if rawMonth != "" {
		month, err = types.ParseMonth(rawMonth)
		if err != nil {
			return nil, err
		}
	}

	return &payment.Payment{
		Entity: types.Entity{
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		},
		ID:           payID,
		AreaID:       areaID,
		CustomerID:   custID,
		CustomerName: custName,
		Month:        month,
		Amount:       amount,
	}, nil
}

func collectPayments(rows *sql.Rows) ([]*payment.Payment, error) {
	defer rows.Close()

	result := make([]*payment.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func scanUser(row rowScanner) (*user.User, error) {
	var (
		rawID     string
		username  string
		hash      []byte
		role      string
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&rawID, &username, &hash, &role, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	userID, err := id.ParseUserID(rawID)
	if err != nil {
		return nil, err
	}

	return &user.User{
		Entity: types.Entity{
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		},
		ID:           userID,
		Username:     username,
		PasswordHash: hash,
		Role:         user.Role(role),
	}, nil
}

// escapeLike escapes LIKE metacharacters in a user-supplied search term.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
