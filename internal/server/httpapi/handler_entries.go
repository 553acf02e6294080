package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/passtree/passtree/internal/common"
	"github.com/passtree/passtree/internal/server/models"
	"github.com/passtree/passtree/internal/server/services"
)

// defaultListAmount matches the original service's page size when the
// client does not ask for one.
const defaultListAmount = 100

type entryRequest struct {
	Name     string `json:"entry_name"`
	UserName string `json:"username"`
	Password string `json:"password"`
	URL      string `json:"url"`
}

type entryResponse struct {
	ID       string `json:"entry_id"`
	GroupID  string `json:"group_id"`
	Name     string `json:"entry_name"`
	UserName string `json:"username"`
	Password string `json:"password"`
	URL      string `json:"url"`
}

func toEntryResponse(e *models.Entry) entryResponse {
	return entryResponse{
		ID: e.ID, GroupID: e.GroupID, Name: e.Name,
		UserName: e.UserName, Password: e.Password, URL: e.URL,
	}
}

func (r entryRequest) fields() services.EntryFields {
	return services.EntryFields{
		Name: r.Name, UserName: r.UserName, Password: r.Password, URL: r.URL,
	}
}

func (s *HTTPServer) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	groupID := chi.URLParam(r, "groupID")
	if err := s.guard.RequireGroup(r.Context(), session.UserID, groupID); err != nil {
		writeError(w, err)
		return
	}

	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, common.ErrorInvalidInput)
		return
	}

	entry, err := s.entries.Create(r.Context(), session.UserID, groupID, req.fields())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toEntryResponse(entry))
}

func (s *HTTPServer) handleListEntries(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	groupID := chi.URLParam(r, "groupID")
	if err := s.guard.RequireGroup(r.Context(), session.UserID, groupID); err != nil {
		writeError(w, err)
		return
	}

	amount, ok := queryInt(r, "amount", defaultListAmount)
	if !ok {
		writeError(w, common.ErrorInvalidInput)
		return
	}
	offset, ok := queryInt(r, "offset", 0)
	if !ok {
		writeError(w, common.ErrorInvalidInput)
		return
	}

	entries, err := s.entries.ListByGroup(r.Context(), session.UserID, groupID, amount, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]entryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, toEntryResponse(entry))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleReplaceEntry(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, common.ErrorInvalidInput)
		return
	}

	entry, err := s.entries.Replace(r.Context(), session.UserID, chi.URLParam(r, "entryID"), req.fields())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEntryResponse(entry))
}

func (s *HTTPServer) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	if err := s.entries.Delete(r.Context(), session.UserID, chi.URLParam(r, "entryID")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func queryInt(r *http.Request, name string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
