package users

import (
	"context"

	"github.com/passtree/passtree/internal/server/models"
)

// Repository provides persistence for user accounts.
type Repository interface {
	// Create inserts a new user. A username collision yields
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) error
	// GetByUsername loads a user by username.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// UpdatePasswordHash replaces the stored digest, e.g. after a
	// parameterization upgrade.
	UpdatePasswordHash(ctx context.Context, userID string, passwordHash string) error
	// Delete removes a user; sessions, groups and entries go with it via
	// foreign-key cascades.
	Delete(ctx context.Context, userID string) error
}
