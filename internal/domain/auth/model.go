// Package auth provides users, password checks and JWT access tokens for
// the HTTP surface.
package auth

import (
	"context"
	"regexp"

	"onmuhasebe/internal/core/apperror"
	"onmuhasebe/internal/core/entity"
	"onmuhasebe/internal/core/id"
)

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// User is an application account.
type User struct {
	entity.BaseEntity

	Email string `db:"email" json:"email"`
	Name  string `db:"name" json:"name"`

	// PasswordHash is a bcrypt hash; never serialized
	PasswordHash string `db:"password_hash" json:"-"`

	IsAdmin bool `db:"is_admin" json:"isAdmin"`
	Active  bool `db:"active" json:"active"`
}

// NewUser creates a User with a generated id. The password hash is set by
// the service.
func NewUser(email, name string) *User {
	return &User{
		BaseEntity: entity.NewBaseEntity(),
		Email:      email,
		Name:       name,
		Active:     true,
	}
}

// Validate implements entity.Validatable interface.
func (u *User) Validate(ctx context.Context) error {
	if u.Email == "" || !emailRE.MatchString(u.Email) {
		return apperror.NewValidation("valid email is required").
			WithDetail("field", "email")
	}
	if u.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, userID id.ID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
}
