package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/passtree/passtree/internal/common"
	"github.com/passtree/passtree/internal/dbx"
	"github.com/passtree/passtree/internal/server/models"
	"github.com/passtree/passtree/internal/server/repositories/repomanager"
)

// RootGroupName is the display name given to every automatically created
// root group.
const RootGroupName = "Root"

// GroupService maintains each user's group tree: creation, rename, move,
// deletion and child listing, with the structural invariants enforced before
// anything is written:
//   - exactly one root per user, created with the user, never deleted or moved
//   - a non-root group always has a parent owned by the same user
//   - no cycles: a group cannot be moved under its own subtree
//
// All identifiers coming from callers are checked against the calling user;
// foreign groups are indistinguishable from missing ones.
type GroupService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// GroupWithChildren is a group together with its direct children only, the
// projection returned by listing operations.
type GroupWithChildren struct {
	Group    *models.Group
	Children []*models.Group
}

// NewGroupService constructs a GroupService.
func NewGroupService(db *sql.DB, m repomanager.RepositoryManager) *GroupService {
	return &GroupService{db: db, repomanager: m}
}

// CreateRoot inserts the root group for a freshly created user. It runs on
// the caller's transaction so user and root appear atomically. A second root
// is a provisioning bug and surfaces as an internal invariant violation,
// never as a user-facing error.
func (s *GroupService) CreateRoot(ctx context.Context, tx dbx.DBTX, userID string) (*models.Group, error) {
	group := &models.Group{
		ID:     uuid.NewString(),
		UserID: userID,
		Name:   RootGroupName,
		IsRoot: true,
	}

	if err := s.repomanager.Groups(tx).Create(ctx, group); err != nil {
		if errors.Is(err, common.ErrRootAlreadyExists) {
			return nil, fmt.Errorf("%w: user %s", common.ErrRootAlreadyExists, userID)
		}
		return nil, fmt.Errorf("error creating root group: %w", err)
	}

	return group, nil
}

// Create adds a group under parentID. The parent must exist and belong to
// userID; otherwise common.ErrorNotFound. Sibling names need not be unique,
// groups are disambiguated by ID.
func (s *GroupService) Create(ctx context.Context, userID, name, parentID string) (*models.Group, error) {
	if name == "" {
		return nil, common.ErrorInvalidInput
	}

	group := &models.Group{
		ID:       uuid.NewString(),
		UserID:   userID,
		Name:     name,
		ParentID: &parentID,
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Groups(tx)
		if _, err := repo.GetByID(ctx, userID, parentID); err != nil {
			return err
		}
		return repo.Create(ctx, group)
	})
	if err != nil {
		return nil, err
	}

	return group, nil
}

// Rename changes a group's display name. Applies to any group including the
// root; only the name changes, parent and children stay put.
func (s *GroupService) Rename(ctx context.Context, userID, groupID, newName string) (*models.Group, error) {
	if newName == "" {
		return nil, common.ErrorInvalidInput
	}

	var renamed *models.Group
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Groups(tx)
		if err := repo.Rename(ctx, userID, groupID, newName); err != nil {
			return err
		}
		var err error
		renamed, err = repo.GetByID(ctx, userID, groupID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return renamed, nil
}

// Move re-parents a group. The root is immovable (common.ErrorForbidden); a
// missing or foreign target parent is common.ErrorNotFound, deliberately the
// same signal in both cases; moving a group under itself or its own subtree
// would create a cycle and is rejected with common.ErrorForbidden.
func (s *GroupService) Move(ctx context.Context, userID, groupID, newParentID string) (*models.Group, error) {
	var moved *models.Group
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Groups(tx)

		group, err := repo.GetByID(ctx, userID, groupID)
		if err != nil {
			return err
		}
		if group.IsRoot {
			return common.ErrorForbidden
		}

		parent, err := repo.GetByID(ctx, userID, newParentID)
		if err != nil {
			return err
		}

		// reject cycles: the new parent must not sit in the moved subtree
		inSubtree, err := s.isSelfOrDescendant(ctx, tx, userID, groupID, parent)
		if err != nil {
			return err
		}
		if inSubtree {
			return common.ErrorForbidden
		}

		if err := repo.SetParent(ctx, userID, groupID, newParentID); err != nil {
			return err
		}
		moved, err = repo.GetByID(ctx, userID, groupID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return moved, nil
}

// isSelfOrDescendant walks parent links upward from candidate to the root
// and reports whether groupID is on that path. Runs inside the caller's
// transaction so the path cannot change underneath it.
func (s *GroupService) isSelfOrDescendant(ctx context.Context, tx dbx.DBTX, userID, groupID string, candidate *models.Group) (bool, error) {
	repo := s.repomanager.Groups(tx)
	for current := candidate; ; {
		if current.ID == groupID {
			return true, nil
		}
		if current.ParentID == nil {
			return false, nil
		}
		next, err := repo.GetByID(ctx, userID, *current.ParentID)
		if err != nil {
			return false, err
		}
		current = next
	}
}

// Delete removes a group, cascading to descendant groups and all entries
// they contain. The root group is never deletable.
func (s *GroupService) Delete(ctx context.Context, userID, groupID string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Groups(tx)

		group, err := repo.GetByID(ctx, userID, groupID)
		if err != nil {
			return err
		}
		if group.IsRoot {
			return common.ErrorForbidden
		}

		return repo.Delete(ctx, userID, groupID)
	})
}

// ListChildren returns groupID together with its direct children. For the
// root group's ID this is exactly equivalent to ListTopLevel.
func (s *GroupService) ListChildren(ctx context.Context, userID, groupID string) (*GroupWithChildren, error) {
	var result *GroupWithChildren
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		result, err = s.listChildren(ctx, tx, userID, groupID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListTopLevel returns the user's root group enriched with its direct
// children (not the full subtree).
func (s *GroupService) ListTopLevel(ctx context.Context, userID string) (*GroupWithChildren, error) {
	var result *GroupWithChildren
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		root, err := s.repomanager.Groups(tx).GetRoot(ctx, userID)
		if err != nil {
			return err
		}
		result, err = s.listChildren(ctx, tx, userID, root.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *GroupService) listChildren(ctx context.Context, tx dbx.DBTX, userID, groupID string) (*GroupWithChildren, error) {
	repo := s.repomanager.Groups(tx)

	group, err := repo.GetByID(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}
	children, err := repo.ListChildren(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}

	return &GroupWithChildren{Group: group, Children: children}, nil
}

// Exists reports whether groupID names a group owned by userID.
func (s *GroupService) Exists(ctx context.Context, userID, groupID string) (bool, error) {
	_, err := s.repomanager.Groups(s.db).GetByID(ctx, userID, groupID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// IsRoot reports whether groupID names the root group of userID.
func (s *GroupService) IsRoot(ctx context.Context, userID, groupID string) (bool, error) {
	group, err := s.repomanager.Groups(s.db).GetByID(ctx, userID, groupID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	return group.IsRoot, nil
}
