package mongo

import (
	"time"

	"github.com/fibernet/cablebill/area"
	"github.com/fibernet/cablebill/customer"
	"github.com/fibernet/cablebill/id"
	"github.com/fibernet/cablebill/payment"
	"github.com/fibernet/cablebill/types"
	"github.com/fibernet/cablebill/user"
)

// Amounts are stored as decimal strings so no precision is lost in BSON.

// ==================== Area models ====================

type areaModel struct {
	ID               string    `bson:"_id"`
	Name             string    `bson:"name"`
	ConnectionNumber string    `bson:"connection_number,omitempty"`
	CreatedAt        time.Time `bson:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at"`
}

func toAreaModel(a *area.Area) *areaModel {
	return &areaModel{
		ID:               a.ID.String(),
		Name:             a.Name,
		ConnectionNumber: a.ConnectionNumber,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func fromAreaModel(m *areaModel) (*area.Area, error) {
	areaID, err := id.ParseAreaID(m.ID)
	if err != nil {
		return nil, err
	}

	return &area.Area{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:               areaID,
		Name:             m.Name,
		ConnectionNumber: m.ConnectionNumber,
	}, nil
}

// ==================== Customer models ====================

type customerModel struct {
	ID               string    `bson:"_id"`
	AreaID           string    `bson:"area_id"`
	Name             string    `bson:"name"`
	ConnectionNumber string    `bson:"connection_number"`
	FatherName       string    `bson:"father_name,omitempty"`
	CNIC             string    `bson:"cnic,omitempty"`
	Phone            string    `bson:"phone,omitempty"`
	Address          string    `bson:"address,omitempty"`
	RouterNo         string    `bson:"router_no,omitempty"`
	MonthlyFee       string    `bson:"monthly_fee"`
	CreatedAt        time.Time `bson:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at"`
}

func toCustomerModel(c *customer.Customer) *customerModel {
	return &customerModel{
		ID:               c.ID.String(),
		AreaID:           c.AreaID.String(),
		Name:             c.Name,
		ConnectionNumber: c.ConnectionNumber,
		FatherName:       c.FatherName,
		CNIC:             c.CNIC,
		Phone:            c.Phone,
		Address:          c.Address,
		RouterNo:         c.RouterNo,
		MonthlyFee:       c.MonthlyFee.String(),
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func fromCustomerModel(m *customerModel) (*customer.Customer, error) {
	custID, err := id.ParseCustomerID(m.ID)
	if err != nil {
		return nil, err
	}
	areaID, err := id.ParseAreaID(m.AreaID)
	if err != nil {
		return nil, err
	}
	fee, err := types.ParseAmount(m.MonthlyFee)
	if err != nil {
		return nil, err
	}

	return &customer.Customer{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:               custID,
		AreaID:           areaID,
		Name:             m.Name,
		ConnectionNumber: m.ConnectionNumber,
		FatherName:       m.FatherName,
		CNIC:             m.CNIC,
		Phone:            m.Phone,
		Address:          m.Address,
		RouterNo:         m.RouterNo,
		MonthlyFee:       fee,
	}, nil
}

// ==================== Payment models ====================

type paymentModel struct {
	ID           string    `bson:"_id"`
	AreaID       string    `bson:"area_id"`
	CustomerID   string    `bson:"customer_id"`
	CustomerName string    `bson:"customer_name"`
	Month        string    `bson:"month,omitempty"`
	Amount       string    `bson:"amount"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toPaymentModel(p *payment.Payment) *paymentModel {
	return &paymentModel{
		ID:           p.ID.String(),
		AreaID:       p.AreaID.String(),
		CustomerID:   p.CustomerID.String(),
		CustomerName: p.CustomerName,
		Month:        p.Month.String(),
		Amount:       p.Amount.String(),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func fromPaymentModel(m *paymentModel) (*payment.Payment, error) {
	payID, err := id.ParsePaymentID(m.ID)
	if err != nil {
		return nil, err
	}
	areaID, err := id.ParseAreaID(m.AreaID)
	if err != nil {
		return nil, err
	}
	custID, err := id.ParseCustomerID(m.CustomerID)
	if err != nil {
		return nil, err
	}
	amount, err := types.ParseAmount(m.Amount)
	if err != nil {
		return nil, err
	}

	var month types.Month
	if m.Month != "" {
		month, err = types.ParseMonth(m.Month)
		if err != nil {
			return nil, err
		}
	}

	return &payment.Payment{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:           payID,
		AreaID:       areaID,
		CustomerID:   custID,
		CustomerName: m.CustomerName,
		Month:        month,
		Amount:       amount,
	}, nil
}

// ==================== User models ====================

type userModel struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	PasswordHash []byte    `bson:"password_hash"`
	Role         string    `bson:"role"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toUserModel(u *user.User) *userModel {
	return &userModel{
		ID:           u.ID.String(),
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func fromUserModel(m *userModel) (*user.User, error) {
	userID, err := id.ParseUserID(m.ID)
	if err != nil {
		return nil, err
	}

	return &user.User{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:           userID,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		Role:         user.Role(m.Role),
	}, nil
}
