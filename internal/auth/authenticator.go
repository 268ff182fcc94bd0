// Package auth implements credential checks and session tokens.
package auth

import (
	"context"

	"github.com/easyplit/easyplit/internal/models"
)

// Authenticator abstracts how users prove who they are.
type Authenticator interface {
	// Register creates a new user account with the given email and credential.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate verifies the credential and returns the matching user.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
