package repomanager

import (
	"context"
	"database/sql"

	"github.com/passtree/passtree/internal/dbx"
	"github.com/passtree/passtree/internal/server/repositories/entries"
	"github.com/passtree/passtree/internal/server/repositories/groups"
	"github.com/passtree/passtree/internal/server/repositories/sessions"
	"github.com/passtree/passtree/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can run
// a set of repository calls over *sql.DB directly or over one *sql.Tx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Groups(db dbx.DBTX) groups.Repository
	Entries(db dbx.DBTX) entries.Repository
}
