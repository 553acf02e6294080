package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/passtree/passtree/internal/common"
	"github.com/passtree/passtree/internal/cryptox"
	"github.com/passtree/passtree/internal/server/config"
	"github.com/passtree/passtree/internal/server/models"
	"golang.org/x/crypto/argon2"
)

func testConfig() *config.Config {
	return &config.Config{
		SessionTTL:        15 * 24 * time.Hour,
		FirstUserName:     "admin",
		FirstUserPassword: "helloworld",
	}
}

func testUser(id, username, hash string) *models.User {
	return &models.User{ID: id, UserName: username, PasswordHash: hash}
}

// outdatedDigest builds a valid digest with a weaker parameterization than
// the one Hash currently uses, to exercise the upgrade-on-login path.
func outdatedDigest(password string) string {
	salt := []byte("0123456789abcdef")
	key := argon2.IDKey([]byte(password), salt, 2, 32*1024, 2, 32)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, 32*1024, 2, 2,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))
}

func TestRegister_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}, g: &fakeGroupsRepo{}}
	gs := NewGroupService(db, rm)
	s := NewCredentialService(db, rm, gs, testConfig())

	user, err := s.Register(context.Background(), "alice", "s3cret")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if user.ID == "" || user.UserName != "alice" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if !strings.HasPrefix(user.PasswordHash, "$argon2id$") {
		t.Fatalf("password not hashed: %q", user.PasswordHash)
	}
	if len(rm.g.created) != 1 || !rm.g.created[0].IsRoot || rm.g.created[0].UserID != user.ID {
		t.Fatalf("root group not provisioned: %+v", rm.g.created)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}, g: &fakeGroupsRepo{}}
	s := NewCredentialService(db, rm, NewGroupService(db, rm), testConfig())

	cases := []struct {
		name     string
		username string
		password string
	}{
		{"empty username", "", "pw"},
		{"long username", strings.Repeat("a", common.MaxUsernameLength+1), "pw"},
		{"empty password", "alice", ""},
		{"long password", "alice", strings.Repeat("p", common.MaxPasswordLength+1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.Register(context.Background(), tc.username, tc.password); !errors.Is(err, common.ErrorInvalidInput) {
				t.Fatalf("want ErrorInvalidInput, got %v", err)
			}
		})
	}
}

func TestRegister_MultibyteUsernameAtLimit(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}, g: &fakeGroupsRepo{}}
	s := NewCredentialService(db, rm, NewGroupService(db, rm), testConfig())

	// 30 characters but 60 bytes; the bound counts characters.
	username := strings.Repeat("ё", common.MaxUsernameLength)
	user, err := s.Register(context.Background(), username, "s3cret")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if user.UserName != username {
		t.Fatalf("unexpected user: %+v", user)
	}

	if _, err := s.Register(context.Background(), username+"ё", "s3cret"); !errors.Is(err, common.ErrorInvalidInput) {
		t.Fatalf("want ErrorInvalidInput past the limit, got %v", err)
	}
}

func TestRegister_UsernameTaken(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := &fakeRepoManager{u: &fakeUsersRepo{createErr: common.ErrorAlreadyExists}, g: &fakeGroupsRepo{}}
	s := NewCredentialService(db, rm, NewGroupService(db, rm), testConfig())

	if _, err := s.Register(context.Background(), "alice", "pw"); !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want ErrorAlreadyExists, got %v", err)
	}
}

func TestRegister_RootCreateErr(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}, g: &fakeGroupsRepo{createErr: errBoom{}}}
	s := NewCredentialService(db, rm, NewGroupService(db, rm), testConfig())

	_, err := s.Register(context.Background(), "alice", "pw")
	if err == nil || !regexp.MustCompile(`error creating user: .*boom`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestVerify_Flows(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	digest := cryptox.Hash("right")

	// not found is unauthorized
	rmNF := &fakeRepoManager{u: &fakeUsersRepo{getErr: common.ErrorNotFound}}
	sNF := NewCredentialService(db, rmNF, nil, testConfig())
	if _, err := sNF.Verify(context.Background(), "ghost", "x"); !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("notfound: want ErrorUnauthorized, got %v", err)
	}

	// repository failure is internal
	rmIE := &fakeRepoManager{u: &fakeUsersRepo{getErr: errBoom{}}}
	sIE := NewCredentialService(db, rmIE, nil, testConfig())
	if _, err := sIE.Verify(context.Background(), "u", "x"); !errors.Is(err, common.ErrorInternal) {
		t.Fatalf("repo error: want ErrorInternal, got %v", err)
	}

	// wrong password is unauthorized, same as unknown user
	rmWP := &fakeRepoManager{u: &fakeUsersRepo{getOut: testUser("u1", "alice", digest)}}
	sWP := NewCredentialService(db, rmWP, nil, testConfig())
	if _, err := sWP.Verify(context.Background(), "alice", "wrong"); !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("wrong password: want ErrorUnauthorized, got %v", err)
	}

	// success
	rmOK := &fakeRepoManager{u: &fakeUsersRepo{getOut: testUser("u1", "alice", digest)}}
	sOK := NewCredentialService(db, rmOK, nil, testConfig())
	user, err := sOK.Verify(context.Background(), "alice", "right")
	if err != nil || user.ID != "u1" {
		t.Fatalf("success: got (%+v, %v)", user, err)
	}
	if rmOK.u.updatedHash != "" {
		t.Fatalf("current digest should not be rewritten")
	}
}

func TestVerify_UpgradesOutdatedDigest(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	outdated := outdatedDigest("right")
	rm := &fakeRepoManager{u: &fakeUsersRepo{getOut: testUser("u1", "alice", outdated)}}
	s := NewCredentialService(db, rm, nil, testConfig())

	user, err := s.Verify(context.Background(), "alice", "right")
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if rm.u.updatedHash == "" || rm.u.updatedHash == outdated {
		t.Fatalf("digest not upgraded")
	}
	if user.PasswordHash != rm.u.updatedHash {
		t.Fatalf("returned user should carry the upgraded digest")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestVerify_UpgradePersistErr(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	outdated := outdatedDigest("right")
	rm := &fakeRepoManager{u: &fakeUsersRepo{getOut: testUser("u1", "alice", outdated), updateErr: errBoom{}}}
	s := NewCredentialService(db, rm, nil, testConfig())

	_, err := s.Verify(context.Background(), "alice", "right")
	if err == nil || !regexp.MustCompile(`error upgrading password digest: .*boom`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped upgrade error, got %v", err)
	}
}

func TestDelete_FirstUserForbidden(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}}
	s := NewCredentialService(db, rm, nil, testConfig())

	if err := s.Delete(context.Background(), "admin"); !errors.Is(err, common.ErrorForbidden) {
		t.Fatalf("want ErrorForbidden, got %v", err)
	}
	if rm.u.deletedID != "" {
		t.Fatalf("nothing should be deleted")
	}
}

func TestDelete_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := &fakeRepoManager{u: &fakeUsersRepo{getOut: testUser("u2", "bob", "h")}}
	s := NewCredentialService(db, rm, nil, testConfig())

	if err := s.Delete(context.Background(), "bob"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if rm.u.deletedID != "u2" {
		t.Fatalf("deleted wrong user: %q", rm.u.deletedID)
	}
}

func TestDelete_NotFound(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := &fakeRepoManager{u: &fakeUsersRepo{getErr: common.ErrorNotFound}}
	s := NewCredentialService(db, rm, nil, testConfig())

	if err := s.Delete(context.Background(), "ghost"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestBootstrap_AlreadyProvisioned(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{getOut: testUser("u1", "admin", "h")}, g: &fakeGroupsRepo{}}
	s := NewCredentialService(db, rm, NewGroupService(db, rm), testConfig())

	if err := s.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap error: %v", err)
	}
	if rm.u.created != nil {
		t.Fatalf("no user should be created")
	}
}

func TestBootstrap_CreatesFirstUser(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := &fakeRepoManager{u: &fakeUsersRepo{getErr: common.ErrorNotFound}, g: &fakeGroupsRepo{}}
	s := NewCredentialService(db, rm, NewGroupService(db, rm), testConfig())

	if err := s.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap error: %v", err)
	}
	if rm.u.created == nil || rm.u.created.UserName != "admin" {
		t.Fatalf("first user not created: %+v", rm.u.created)
	}
}

func TestBootstrap_LostRaceIsFine(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := &fakeRepoManager{
		u: &fakeUsersRepo{getErr: common.ErrorNotFound, createErr: common.ErrorAlreadyExists},
		g: &fakeGroupsRepo{},
	}
	s := NewCredentialService(db, rm, NewGroupService(db, rm), testConfig())

	if err := s.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap should tolerate losing the race: %v", err)
	}
}
