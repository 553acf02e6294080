package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/passtree/passtree/internal/common"
	"github.com/passtree/passtree/internal/dbx"
	"github.com/passtree/passtree/internal/server/models"
	"github.com/passtree/passtree/internal/server/repositories/repomanager"
)

// EntryFields carries the caller-supplied payload of an entry.
type EntryFields struct {
	Name     string
	UserName string
	Password string
	URL      string
}

// EntryService provides CRUD for password entries scoped to a group. Group
// ownership is re-checked inside the same transaction as every write, so a
// concurrently deleted group is caught by the store rather than assumed away.
type EntryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

// NewEntryService constructs an EntryService.
func NewEntryService(db *sql.DB, m repomanager.RepositoryManager) *EntryService {
	return &EntryService{db: db, repomanager: m, now: time.Now}
}

// Create stores a new entry under groupID. The group must exist and belong
// to userID; otherwise common.ErrorNotFound.
func (s *EntryService) Create(ctx context.Context, userID, groupID string, fields EntryFields) (*models.Entry, error) {
	if fields.Name == "" {
		return nil, common.ErrorInvalidInput
	}

	entry := &models.Entry{
		ID:        uuid.NewString(),
		GroupID:   groupID,
		Name:      fields.Name,
		UserName:  fields.UserName,
		Password:  fields.Password,
		URL:       fields.URL,
		CreatedAt: s.now().UTC(),
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Groups(tx).GetByID(ctx, userID, groupID); err != nil {
			return err
		}
		return s.repomanager.Entries(tx).Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// ListByGroup pages the entries of a group. limit must be positive and
// offset non-negative. A missing or foreign group is common.ErrorNotFound,
// distinct from a group that is merely empty.
func (s *EntryService) ListByGroup(ctx context.Context, userID, groupID string, limit, offset int) ([]*models.Entry, error) {
	if limit <= 0 || offset < 0 {
		return nil, common.ErrorInvalidInput
	}

	var result []*models.Entry
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Groups(tx).GetByID(ctx, userID, groupID); err != nil {
			return err
		}
		var err error
		result, err = s.repomanager.Entries(tx).ListByGroup(ctx, userID, groupID, limit, offset)
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Delete removes one entry. Ownership is verified by joining through the
// entry's group; a foreign entry ID is indistinguishable from a missing one.
func (s *EntryService) Delete(ctx context.Context, userID, entryID string) error {
	return s.repomanager.Entries(s.db).Delete(ctx, userID, entryID)
}

// Replace overwrites the payload fields of an entry in place and returns
// the updated record. Ownership check identical to Delete.
func (s *EntryService) Replace(ctx context.Context, userID, entryID string, fields EntryFields) (*models.Entry, error) {
	if fields.Name == "" {
		return nil, common.ErrorInvalidInput
	}

	var updated *models.Entry
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Entries(tx)

		entry := &models.Entry{
			ID:       entryID,
			Name:     fields.Name,
			UserName: fields.UserName,
			Password: fields.Password,
			URL:      fields.URL,
		}
		if err := repo.Replace(ctx, userID, entry); err != nil {
			return err
		}
		var err error
		updated, err = repo.GetByID(ctx, userID, entryID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}
