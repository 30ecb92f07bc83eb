package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a bill creator. Payers never need an account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Email is the user's login address (unique, lower case).
	Email string

	// DisplayName is shown to payers as the person they are paying.
	DisplayName string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// PayoutAccountID is the user's connected account on the payment gateway.
	// Payments cannot be taken for a split until it is set.
	PayoutAccountID string

	CreatedAt int64
	UpdatedAt int64
}

// NewUser builds a user with a fresh ID and timestamps.
func NewUser(email, displayName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
