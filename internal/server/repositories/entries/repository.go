package entries

import (
	"context"

	"github.com/passtree/passtree/internal/server/models"
)

// Repository provides persistence for password entries. Ownership checks
// join through the containing group to its user, so queries never expose
// whether a foreign entry ID exists.
type Repository interface {
	// Create inserts an entry. A missing group fails the foreign key and
	// yields common.ErrorNotFound.
	Create(ctx context.Context, entry *models.Entry) error
	// GetByID loads one entry owned (through its group) by userID.
	GetByID(ctx context.Context, userID, entryID string) (*models.Entry, error)
	// ListByGroup pages entries of a group in insertion order, keyed by
	// (created_at, id) so limit/offset paging stays stable.
	ListByGroup(ctx context.Context, userID, groupID string, limit, offset int) ([]*models.Entry, error)
	// Replace overwrites the payload fields of an entry owned by userID.
	Replace(ctx context.Context, userID string, entry *models.Entry) error
	// Delete removes an entry owned by userID.
	Delete(ctx context.Context, userID, entryID string) error
}
