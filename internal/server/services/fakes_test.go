package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/passtree/passtree/internal/common"
	"github.com/passtree/passtree/internal/dbx"
	"github.com/passtree/passtree/internal/server/models"
	entriesrepo "github.com/passtree/passtree/internal/server/repositories/entries"
	groupsrepo "github.com/passtree/passtree/internal/server/repositories/groups"
	sessionsrepo "github.com/passtree/passtree/internal/server/repositories/sessions"
	usersrepo "github.com/passtree/passtree/internal/server/repositories/users"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

// --- fake repositories ---

type fakeUsersRepo struct {
	createErr error
	created   *models.User

	getOut *models.User
	getErr error

	updateErr   error
	updatedHash string

	deleteErr error
	deletedID string
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) error {
	f.created = u
	return f.createErr
}
func (f *fakeUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}
func (f *fakeUsersRepo) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	f.updatedHash = passwordHash
	return f.updateErr
}
func (f *fakeUsersRepo) Delete(ctx context.Context, userID string) error {
	f.deletedID = userID
	return f.deleteErr
}

type fakeSessionsRepo struct {
	createErr error
	created   *models.Session

	getOut *models.Session
	getErr error

	deleteErr    error
	deletedToken string
}

func (f *fakeSessionsRepo) Create(ctx context.Context, s *models.Session) error {
	f.created = s
	return f.createErr
}
func (f *fakeSessionsRepo) Get(ctx context.Context, token string) (*models.Session, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}
func (f *fakeSessionsRepo) Delete(ctx context.Context, token string) error {
	f.deletedToken = token
	return f.deleteErr
}

// fakeGroupsRepo serves GetByID from a map so tests can lay out small trees.
type fakeGroupsRepo struct {
	byID map[string]*models.Group

	createErr error
	created   []*models.Group

	rootOut *models.Group
	rootErr error

	renameErr error
	renamedTo string

	setParentErr error
	setParentTo  string

	deleteErr error
	deletedID string

	children    []*models.Group
	childrenErr error
}

func (f *fakeGroupsRepo) Create(ctx context.Context, g *models.Group) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, g)
	return nil
}
func (f *fakeGroupsRepo) GetByID(ctx context.Context, userID, groupID string) (*models.Group, error) {
	g, ok := f.byID[groupID]
	if !ok || g.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return g, nil
}
func (f *fakeGroupsRepo) GetRoot(ctx context.Context, userID string) (*models.Group, error) {
	if f.rootErr != nil {
		return nil, f.rootErr
	}
	return f.rootOut, nil
}
func (f *fakeGroupsRepo) Rename(ctx context.Context, userID, groupID, name string) error {
	if f.renameErr != nil {
		return f.renameErr
	}
	f.renamedTo = name
	if g, ok := f.byID[groupID]; ok {
		g.Name = name
	}
	return nil
}
func (f *fakeGroupsRepo) SetParent(ctx context.Context, userID, groupID, parentID string) error {
	if f.setParentErr != nil {
		return f.setParentErr
	}
	f.setParentTo = parentID
	if g, ok := f.byID[groupID]; ok {
		p := parentID
		g.ParentID = &p
	}
	return nil
}
func (f *fakeGroupsRepo) Delete(ctx context.Context, userID, groupID string) error {
	f.deletedID = groupID
	return f.deleteErr
}
func (f *fakeGroupsRepo) ListChildren(ctx context.Context, userID, parentID string) ([]*models.Group, error) {
	if f.childrenErr != nil {
		return nil, f.childrenErr
	}
	return f.children, nil
}

type fakeEntriesRepo struct {
	createErr error
	created   *models.Entry

	getOut *models.Entry
	getErr error

	listOut   []*models.Entry
	listErr   error
	gotLimit  int
	gotOffset int

	replaceErr error
	replaced   *models.Entry

	deleteErr error
	deletedID string
}

func (f *fakeEntriesRepo) Create(ctx context.Context, e *models.Entry) error {
	f.created = e
	return f.createErr
}
func (f *fakeEntriesRepo) GetByID(ctx context.Context, userID, entryID string) (*models.Entry, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}
func (f *fakeEntriesRepo) ListByGroup(ctx context.Context, userID, groupID string, limit, offset int) ([]*models.Entry, error) {
	f.gotLimit = limit
	f.gotOffset = offset
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listOut, nil
}
func (f *fakeEntriesRepo) Replace(ctx context.Context, userID string, e *models.Entry) error {
	f.replaced = e
	return f.replaceErr
}
func (f *fakeEntriesRepo) Delete(ctx context.Context, userID, entryID string) error {
	f.deletedID = entryID
	return f.deleteErr
}

// --- fake repository manager ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	s *fakeSessionsRepo
	g *fakeGroupsRepo
	e *fakeEntriesRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository          { return m.u }
func (m *fakeRepoManager) Sessions(db dbx.DBTX) sessionsrepo.Repository    { return m.s }
func (m *fakeRepoManager) Groups(db dbx.DBTX) groupsrepo.Repository        { return m.g }
func (m *fakeRepoManager) Entries(db dbx.DBTX) entriesrepo.Repository      { return m.e }
