package groups

import (
	"context"

	"github.com/passtree/passtree/internal/server/models"
)

// Repository provides persistence for the per-user group tree. Every query
// is scoped by the owning user's ID; a group that exists but belongs to
// someone else behaves exactly like one that does not exist.
type Repository interface {
	// Create inserts a group. If ParentID names a missing group the insert
	// fails the parent foreign key and common.ErrorNotFound is returned; a
	// second root for the same user yields common.ErrRootAlreadyExists.
	Create(ctx context.Context, group *models.Group) error
	// GetByID loads one group owned by userID.
	GetByID(ctx context.Context, userID, groupID string) (*models.Group, error)
	// GetRoot loads the user's root group.
	GetRoot(ctx context.Context, userID string) (*models.Group, error)
	// Rename updates the display name of a group owned by userID.
	Rename(ctx context.Context, userID, groupID, name string) error
	// SetParent re-parents a group owned by userID. The caller has already
	// verified the target parent; the foreign key re-checks it at commit.
	SetParent(ctx context.Context, userID, groupID, parentID string) error
	// Delete removes a group owned by userID. Descendant groups and all
	// contained entries go with it via cascading foreign keys.
	Delete(ctx context.Context, userID, groupID string) error
	// ListChildren returns the direct children of parentID, ordered by name
	// then ID for a deterministic listing.
	ListChildren(ctx context.Context, userID, parentID string) ([]*models.Group, error)
}
