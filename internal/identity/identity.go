// Package identity is the identity adapter: account creation, credential
// verification and session invalidation. The service treats the provider
// as an external collaborator; LocalProvider is the bundled implementation
// that keeps credentials in the record store.
package identity

import (
	"context"
	"time"
)

// Session is the result of a successful authentication.
type Session struct {
	UID       string
	Token     string
	ExpiresAt time.Time
}

// Provider is the identity adapter contract.
type Provider interface {
	// CreateAccount registers email+password and returns the new uid.
	CreateAccount(ctx context.Context, email, password string) (string, error)
	// Authenticate verifies the credentials and opens a session.
	Authenticate(ctx context.Context, email, password string) (Session, error)
	// InvalidateSession revokes a previously issued session token.
	InvalidateSession(ctx context.Context, token string) error
}
