package auth

import (
	"context"

	"github.com/mmynk/zapsplit/internal/models"
)

// Authenticator defines the interface for authenticating bill creators.
// Payers never authenticate; they pay through a link.
type Authenticator interface {
	// Register creates a new creator account with the given email and credential.
	// Returns the created user or an error if registration fails.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user if successful.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
