// Package entries provides the PostgreSQL-backed repository for password
// entries stored inside groups.
package entries

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

func (r *PostgresRepository) Create(ctx context.Context, entry *models.Entry) error {
	query :=
		`INSERT INTO entries (id, group_id, name, username, password, url, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 `

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.GroupID, entry.Name, entry.UserName, entry.Password, entry.URL, entry.CreatedAt)

	if err != nil {
		// group deleted between the ownership check and this insert
		if dbx.IsForeignKeyViolation(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, entryID string) (*models.Entry, error) {
	query :=
		`SELECT e.id, e.group_id, e.name, e.username, e.password, e.url, e.created_at
		 FROM entries e
		 JOIN groups g ON g.id = e.group_id
		 WHERE e.id = $1 AND g.user_id = $2
		 `

	entry := &models.Entry{}
	err := r.db.QueryRowContext(ctx, query, entryID, userID).
		Scan(&entry.ID, &entry.GroupID, &entry.Name, &entry.UserName, &entry.Password, &entry.URL, &entry.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return entry, nil
}

func (r *PostgresRepository) ListByGroup(ctx context.Context, userID, groupID string, limit, offset int) ([]*models.Entry, error) {
	query :=
		`SELECT e.id, e.group_id, e.name, e.username, e.password, e.url, e.created_at
		 FROM entries e
		 JOIN groups g ON g.id = e.group_id
		 WHERE e.group_id = $1 AND g.user_id = $2
		 ORDER BY e.created_at, e.id
		 LIMIT $3 OFFSET $4
		 `

	rows, err := r.db.QueryContext(ctx, query, groupID, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Entry
	for rows.Next() {
		var item models.Entry
		if err := rows.Scan(
			&item.ID, &item.GroupID, &item.Name, &item.UserName, &item.Password, &item.URL, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Replace(ctx context.Context, userID string, entry *models.Entry) error {
	query :=
		`UPDATE entries e SET name = $3, username = $4, password = $5, url = $6
		 FROM groups g
		 WHERE e.id = $1 AND g.id = e.group_id AND g.user_id = $2
		 `

	return r.execOwned(ctx, query, entry.ID, userID, entry.Name, entry.UserName, entry.Password, entry.URL)
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, entryID string) error {
	query :=
		`DELETE FROM entries e
		 USING groups g
		 WHERE e.id = $1 AND g.id = e.group_id AND g.user_id = $2
		 `

	return r.execOwned(ctx, query, entryID, userID)
}

func (r *PostgresRepository) execOwned(ctx context.Context, query string, args ...any) error {
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
