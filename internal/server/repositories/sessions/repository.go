package sessions

import (
	"context"

	"github.com/passtree/passtree/internal/server/models"
)

// Repository provides persistence for bearer-token sessions. Rows are never
// mutated after insertion: a session is created, looked up, and eventually
// deleted by revocation or user-cascade.
type Repository interface {
	// Create inserts a new session.
	Create(ctx context.Context, session *models.Session) error
	// Get loads a session by token, including the owning user's name.
	// Expiry is not evaluated here; the caller checks it at read time.
	Get(ctx context.Context, token string) (*models.Session, error)
	// Delete removes a session by token.
	Delete(ctx context.Context, token string) error
}
