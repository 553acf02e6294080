// Package httpapi exposes the passtree services over HTTP+JSON. Request
// and response schemas, status mapping and bearer-token extraction live
// here; all authorization decisions are delegated to the services.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/passtree/passtree/internal/logging"
	"github.com/passtree/passtree/internal/server/models"
	"github.com/passtree/passtree/internal/server/services"
)

// CredentialService is the slice of the credential service the API needs.
type CredentialService interface {
	Verify(ctx context.Context, username, password string) (*models.User, error)
}

// SessionService issues and revokes bearer-token sessions.
type SessionService interface {
	Issue(ctx context.Context, userID string, ttl time.Duration) (*models.Session, error)
	Revoke(ctx context.Context, token, requesterID string) error
	TTL() time.Duration
}

// Guard resolves bearer tokens to sessions, failing closed, and verifies
// group ownership before group-scoped handlers run.
type Guard interface {
	Authenticate(ctx context.Context, token string) (*models.Session, error)
	RequireGroup(ctx context.Context, userID, groupID string) error
}

// GroupService is the group-tree surface exposed over HTTP.
type GroupService interface {
	Create(ctx context.Context, userID, name, parentID string) (*models.Group, error)
	Rename(ctx context.Context, userID, groupID, newName string) (*models.Group, error)
	Move(ctx context.Context, userID, groupID, newParentID string) (*models.Group, error)
	Delete(ctx context.Context, userID, groupID string) error
	ListChildren(ctx context.Context, userID, groupID string) (*services.GroupWithChildren, error)
	ListTopLevel(ctx context.Context, userID string) (*services.GroupWithChildren, error)
}

// EntryService is the entry-storage surface exposed over HTTP.
type EntryService interface {
	Create(ctx context.Context, userID, groupID string, fields services.EntryFields) (*models.Entry, error)
	ListByGroup(ctx context.Context, userID, groupID string, limit, offset int) ([]*models.Entry, error)
	Delete(ctx context.Context, userID, entryID string) error
	Replace(ctx context.Context, userID, entryID string, fields services.EntryFields) (*models.Entry, error)
}

// HTTPServer serves the public API.
type HTTPServer struct {
	address     string
	logger      logging.Logger
	guard       Guard
	credentials CredentialService
	sessions    SessionService
	groups      GroupService
	entries     EntryService
}

// NewHTTPServer constructs an HTTPServer over the given services.
func NewHTTPServer(
	address string,
	l logging.Logger,
	guard Guard,
	cs CredentialService,
	ss SessionService,
	gs GroupService,
	es EntryService,
) *HTTPServer {
	return &HTTPServer{
		address:     address,
		logger:      l.With("module", "http_server"),
		guard:       guard,
		credentials: cs,
		sessions:    ss,
		groups:      gs,
		entries:     es,
	}
}

// Router assembles the chi route tree.
func (s *HTTPServer) Router() http.Handler {
	r := chi.NewRouter()

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/token", s.handleToken)

		api.Group(func(authed chi.Router) {
			authed.Use(s.requireAuth)

			authed.Post("/auth/revoke", s.handleRevoke)
			authed.Get("/auth/session", s.handleSession)

			authed.Get("/groups", s.handleListTopLevel)
			authed.Post("/groups", s.handleCreateGroup)
			authed.Get("/groups/{groupID}/children", s.handleListChildren)
			authed.Put("/groups/{groupID}", s.handleRenameGroup)
			authed.Post("/groups/{groupID}/move", s.handleMoveGroup)
			authed.Delete("/groups/{groupID}", s.handleDeleteGroup)

			authed.Post("/groups/{groupID}/entries", s.handleCreateEntry)
			authed.Get("/groups/{groupID}/entries", s.handleListEntries)
			authed.Put("/entries/{entryID}", s.handleReplaceEntry)
			authed.Delete("/entries/{entryID}", s.handleDeleteEntry)
		})
	})

	return r
}

// Run starts the HTTP server and shuts it down gracefully when ctx is
// cancelled.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}
