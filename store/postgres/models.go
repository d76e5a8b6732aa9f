package postgres

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fibernet/cablebill"
	"github.com/fibernet/cablebill/area"
	"github.com/fibernet/cablebill/customer"
	"github.com/fibernet/cablebill/id"
	"github.com/fibernet/cablebill/payment"
	"github.com/fibernet/cablebill/types"
	"github.com/fibernet/cablebill/user"
)

// Amount columns are NUMERIC in the schema and selected as ::text so
// decimals round-trip without a float conversion.

func scanArea(row pgx.Row) (*area.Area, error) {
	var (
		rawID      string
		name       string
		connNumber string
		createdAt  time.Time
		updatedAt  time.Time
	)
	err := row.Scan(&rawID, &name, &connNumber, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, cablebill.ErrAreaNotFound
	}
	if err != nil {
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

func scanCustomer(row pgx.Row) (*customer.Customer, error) {
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
	err := row.Scan(&rawID, &rawAreaID, &name, &connNumber, &fatherName,
		&cnic, &phone, &address, &routerNo, &rawFee, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, cablebill.ErrCustomerNotFound
	}
	if err != nil {
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

func collectCustomers(rows pgx.Rows) ([]*customer.Customer, error) {
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

func scanPayment(row pgx.Row) (*payment.Payment, error) {
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
	err := row.Scan(&rawID, &rawAreaID, &rawCustID, &custName, &rawMonth,
		&rawAmount, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, cablebill.ErrPaymentNotFound
	}
	if err != nil {
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

func collectPayments(rows pgx.Rows) ([]*payment.Payment, error) {
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

func scanUser(row pgx.Row) (*user.User, error) {
	var (
		rawID     string
		username  string
		hash      []byte
		role      string
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(&rawID, &username, &hash, &role, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, cablebill.ErrUserNotFound
	}
	if err != nil {
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
