package services

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/passtree/passtree/internal/common"
	"github.com/passtree/passtree/internal/dbx"
	"github.com/passtree/passtree/internal/server/config"
	"github.com/passtree/passtree/internal/server/models"
	"github.com/passtree/passtree/internal/server/repositories/repomanager"
)

// sessionTokenBytes is the entropy of an issued token: 32 bytes = 256 bits,
// encoded as 43 characters of URL-safe base64.
const sessionTokenBytes = 32

// SessionService manages the bearer-token session lifecycle: issue on
// successful login, resolve on each authenticated request, revoke on logout.
// Tokens are opaque lookup keys; nothing about the user or the expiry is
// encoded client-side.
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	ttl         time.Duration
	now         func() time.Time
}

// NewSessionService constructs a SessionService using repositories and
// server config.
func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *SessionService {
	return &SessionService{
		db:          db,
		repomanager: m,
		ttl:         cfg.SessionTTL,
		now:         time.Now,
	}
}

// TTL returns the configured session lifetime.
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Issue creates a session bound to userID with the given ttl and persists
// it. A non-positive ttl (an already-expired instant) is rejected with
// common.ErrorInvalidInput.
func (s *SessionService) Issue(ctx context.Context, userID string, ttl time.Duration) (*models.Session, error) {
	if ttl <= 0 {
		return nil, common.ErrorInvalidInput
	}

	token, err := common.MakeRandURLSafeString(sessionTokenBytes)
	if err != nil {
		return nil, common.ErrorInternal
	}

	now := s.now().UTC()
	session := &models.Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	if err := s.repomanager.Sessions(s.db).Create(ctx, session); err != nil {
		return nil, fmt.Errorf("error creating session: %w", err)
	}

	return session, nil
}

// Resolve maps a presented token to its session. Unknown, expired and
// malformed tokens all uniformly yield common.ErrInvalidToken; expired rows
// are left in place, expiry is a read-time fact.
func (s *SessionService) Resolve(ctx context.Context, token string) (*models.Session, error) {
	if !wellFormedToken(token) {
		return nil, common.ErrInvalidToken
	}

	session, err := s.repomanager.Sessions(s.db).Get(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, common.ErrorInternal
	}

	if !session.Valid(s.now()) {
		return nil, common.ErrInvalidToken
	}

	return session, nil
}

// Revoke deletes the session for token if it exists, is still valid, and is
// bound to requesterID. Any mismatch is a silent no-op: revocation sits in
// the authenticated path and must not leak whether a token exists or whom
// it belongs to. Only a malformed token string is an error.
func (s *SessionService) Revoke(ctx context.Context, token, requesterID string) error {
	if !wellFormedToken(token) {
		return common.ErrorInvalidInput
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Sessions(tx)

		session, err := repo.Get(ctx, token)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil
			}
			return err
		}
		if !session.Valid(s.now()) || session.UserID != requesterID {
			return nil
		}

		return repo.Delete(ctx, token)
	})
}

// wellFormedToken checks the shape of a presented token without touching
// the store: URL-safe base64 of the expected length.
func wellFormedToken(token string) bool {
	if len(token) != base64.RawURLEncoding.EncodedLen(sessionTokenBytes) {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(token)
	return err == nil
}
