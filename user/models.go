// Package user defines login users for the admin application.
// Deliberately thin: the core never authorizes, it only stores
// credentials for the login screens.
package user

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/fibernet/cablebill/id"
	"github.com/fibernet/cablebill/types"
)

// Role distinguishes the two login kinds of the admin app.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
)

// Validation and authentication errors.
var (
	ErrEmptyUsername = errors.New("user: username cannot be empty")
	ErrEmptyPassword = errors.New("user: password cannot be empty")
	ErrBadRole       = errors.New("user: unknown role")
)

// User is one login account.
type User struct {
	types.Entity
	ID           id.UserID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash []byte    `json:"-"`
	Role         Role      `json:"role"`
}

// New creates a user with a bcrypt-hashed password.
func New(username, password string, role Role) (*User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, ErrEmptyUsername
	}
	if password == "" {
		return nil, ErrEmptyPassword
	}
	if role != RoleAdmin && role != RoleOperator {
		return nil, ErrBadRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &User{
		Entity:       types.NewEntity(),
		ID:           id.NewUserID(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	}, nil
}

// CheckPassword reports whether the supplied password matches the
// stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) == nil
}
