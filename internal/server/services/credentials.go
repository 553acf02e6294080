// Package services contains server-side business logic. This file implements
// CredentialService, which manages account provisioning and password
// verification for the password-manager server.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/passtree/passtree/internal/common"
	"github.com/passtree/passtree/internal/cryptox"
	"github.com/passtree/passtree/internal/dbx"
	"github.com/passtree/passtree/internal/server/config"
	"github.com/passtree/passtree/internal/server/models"
	"github.com/passtree/passtree/internal/server/repositories/repomanager"
)

// CredentialService provides account-credential operations:
//   - Register: create users (and their root group)
//   - Verify: check a password, transparently upgrading outdated digests
//   - Delete: remove users, except the distinguished first user
//   - Bootstrap: provision the distinguished first user at startup
type CredentialService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	groups        *GroupService
	firstUserName string
	firstUserPass string
}

// NewCredentialService constructs a CredentialService using repositories,
// the group service (for root-group provisioning) and server config.
func NewCredentialService(db *sql.DB, m repomanager.RepositoryManager, g *GroupService, cfg *config.Config) *CredentialService {
	return &CredentialService{
		db:            db,
		repomanager:   m,
		groups:        g,
		firstUserName: cfg.FirstUserName,
		firstUserPass: cfg.FirstUserPassword,
	}
}

// Length bounds count characters, not bytes, so multi-byte usernames and
// passwords at the limit are accepted.
func validUsername(username string) bool {
	n := utf8.RuneCountInString(username)
	return n >= 1 && n <= common.MaxUsernameLength
}

func validPassword(password string) bool {
	n := utf8.RuneCountInString(password)
	return n >= 1 && n <= common.MaxPasswordLength
}

// Register creates a user and, in the same transaction, the user's root
// group. A taken username yields common.ErrorAlreadyExists. The digest is
// computed before the transaction opens: argon2id is deliberately slow and
// must never run while a transaction holds locks.
func (s *CredentialService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if !validUsername(username) {
		return nil, common.ErrorInvalidInput
	}
	if !validPassword(password) {
		return nil, common.ErrorInvalidInput
	}

	digest := cryptox.Hash(password)

	user := &models.User{
		ID:           uuid.NewString(),
		UserName:     username,
		PasswordHash: digest,
		CreatedAt:    time.Now().UTC(),
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).Create(ctx, user); err != nil {
			return err
		}
		if _, err := s.groups.CreateRoot(ctx, tx, user.ID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// Verify checks username/password and returns the account on success. A
// missing user and a wrong password are both common.ErrorUnauthorized. If
// the stored digest uses an outdated parameterization it is re-hashed and
// persisted before success is reported, so a persistence failure surfaces
// as an error rather than silently keeping the weak digest.
func (s *CredentialService) Verify(ctx context.Context, username, password string) (*models.User, error) {
	if !validUsername(username) || utf8.RuneCountInString(password) > common.MaxPasswordLength {
		return nil, common.ErrorInvalidInput
	}

	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	// CPU-bound; runs outside any transaction
	valid, upgraded, err := cryptox.VerifyAndUpgrade(password, user.PasswordHash)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if !valid {
		return nil, common.ErrorUnauthorized
	}

	if upgraded != "" {
		err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			return s.repomanager.Users(tx).UpdatePasswordHash(ctx, user.ID, upgraded)
		})
		if err != nil {
			return nil, fmt.Errorf("error upgrading password digest: %w", err)
		}
		user.PasswordHash = upgraded
	}

	return user, nil
}

// Delete removes a user account together with its sessions, groups and
// entries (cascading). The distinguished first user can never be deleted.
func (s *CredentialService) Delete(ctx context.Context, username string) error {
	if !validUsername(username) {
		return common.ErrorInvalidInput
	}
	if username == s.firstUserName {
		return common.ErrorForbidden
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		user, err := repo.GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		return repo.Delete(ctx, user.ID)
	})
}

// Bootstrap provisions the distinguished first user if it does not exist
// yet. Called once at startup before the server starts accepting requests.
func (s *CredentialService) Bootstrap(ctx context.Context) error {
	_, err := s.repomanager.Users(s.db).GetByUsername(ctx, s.firstUserName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return err
	}

	if _, err := s.Register(ctx, s.firstUserName, s.firstUserPass); err != nil {
		// a concurrent instance may have won the race
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil
		}
		return err
	}
	return nil
}
