package model

import "time"

// Role is an explicit account role returned by the identity provider.
type Role string

const (
	RoleUser     Role = "user"
	RolePharmacy Role = "pharmacy"
)

// User represents an authenticated account.
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Phone      string    `json:"phone,omitempty"`
	Role       Role      `json:"role"`
	PharmacyID string    `json:"pharmacyId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DisplayName joins first and last name.
func (u User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// SignUpRequest represents the request payload for account creation.
type SignUpRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	FirstName  string `json:"firstName" validate:"required"`
	LastName   string `json:"lastName"`
	Phone      string `json:"phone"`
	Role       Role   `json:"role" validate:"omitempty,oneof=user pharmacy"`
	PharmacyID string `json:"pharmacyId" validate:"required_if=Role pharmacy"`
}

// SignInRequest represents the request payload for sign-in.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthSession is the result of a successful sign-in.
type AuthSession struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}
