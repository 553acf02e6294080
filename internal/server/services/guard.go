package services

import (
	"context"
	"errors"

	"github.com/passtree/passtree/internal/common"
	"github.com/passtree/passtree/internal/server/models"
)

// AccessGuard composes SessionService and GroupService to answer "does this
// caller own this group" before any mutation is allowed to run. It holds no
// state of its own; it exists to centralize the reject-before-mutate
// ordering so ownership is never checked after a write happened.
type AccessGuard struct {
	sessions *SessionService
	groups   *GroupService
}

// NewAccessGuard constructs an AccessGuard over the given services.
func NewAccessGuard(sessions *SessionService, groups *GroupService) *AccessGuard {
	return &AccessGuard{sessions: sessions, groups: groups}
}

// Authenticate resolves a bearer token to its session, failing closed:
// missing, malformed, unknown and expired tokens all yield
// common.ErrorUnauthorized.
func (g *AccessGuard) Authenticate(ctx context.Context, token string) (*models.Session, error) {
	session, err := g.sessions.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}
	return session, nil
}

// RequireGroup verifies that groupID names a group owned by userID before
// the caller proceeds to mutate it. Absence and foreign ownership are the
// same common.ErrorNotFound.
func (g *AccessGuard) RequireGroup(ctx context.Context, userID, groupID string) error {
	ok, err := g.groups.Exists(ctx, userID, groupID)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrorNotFound
	}
	return nil
}
