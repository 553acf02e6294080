// Package groups provides the PostgreSQL-backed repository for the
// self-referential group tree (groups.parent_id -> groups.id).
package groups

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/passtree/passtree/internal/common"
	"github.com/passtree/passtree/internal/dbx"
	"github.com/passtree/passtree/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, group *models.Group) error {
	query :=
		`INSERT INTO groups (id, user_id, name, parent_id, is_root)
		 VALUES ($1, $2, $3, $4, $5)
		 `

	_, err := r.db.ExecContext(ctx, query,
		group.ID, group.UserID, group.Name, group.ParentID, group.IsRoot)

	if err != nil {
		// the partial unique index on (user_id) WHERE is_root
		if dbx.IsUniqueViolation(err) {
			return common.ErrRootAlreadyExists
		}
		// parent deleted between the existence check and this insert
		if dbx.IsForeignKeyViolation(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, groupID string) (*models.Group, error) {
	query :=
		`SELECT id, user_id, name, parent_id, is_root FROM groups
		 WHERE id = $1 AND user_id = $2
		 `

	return r.scanOne(r.db.QueryRowContext(ctx, query, groupID, userID))
}

func (r *PostgresRepository) GetRoot(ctx context.Context, userID string) (*models.Group, error) {
	query :=
		`SELECT id, user_id, name, parent_id, is_root FROM groups
		 WHERE user_id = $1 AND is_root
		 `

	return r.scanOne(r.db.QueryRowContext(ctx, query, userID))
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Group, error) {
	group := &models.Group{}
	err := row.Scan(&group.ID, &group.UserID, &group.Name, &group.ParentID, &group.IsRoot)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return group, nil
}

func (r *PostgresRepository) Rename(ctx context.Context, userID, groupID, name string) error {
	query :=
		`UPDATE groups SET name = $3
		 WHERE id = $1 AND user_id = $2
		 `

	return r.execScoped(ctx, query, groupID, userID, name)
}

func (r *PostgresRepository) SetParent(ctx context.Context, userID, groupID, parentID string) error {
	query :=
		`UPDATE groups SET parent_id = $3
		 WHERE id = $1 AND user_id = $2 AND NOT is_root
		 `

	err := r.execScoped(ctx, query, groupID, userID, parentID)
	if dbx.IsForeignKeyViolation(err) {
		return common.ErrorNotFound
	}
	return err
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, groupID string) error {
	query :=
		`DELETE FROM groups
		 WHERE id = $1 AND user_id = $2
		 `

	return r.execScoped(ctx, query, groupID, userID)
}

func (r *PostgresRepository) execScoped(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) ListChildren(ctx context.Context, userID, parentID string) ([]*models.Group, error) {
	query :=
		`SELECT id, user_id, name, parent_id, is_root FROM groups
		 WHERE user_id = $1 AND parent_id = $2
		 ORDER BY name, id
		 `

	rows, err := r.db.QueryContext(ctx, query, userID, parentID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Group
	for rows.Next() {
		var item models.Group
		if err := rows.Scan(&item.ID, &item.UserID, &item.Name, &item.ParentID, &item.IsRoot); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
