package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/passtree/passtree/internal/common"
	"github.com/passtree/passtree/internal/server/models"
	"github.com/passtree/passtree/internal/server/services"
)

type groupResponse struct {
	ID       string  `json:"group_id"`
	Name     string  `json:"group_name"`
	ParentID *string `json:"parent_id"`
	IsRoot   bool    `json:"is_root"`
}

type groupTreeResponse struct {
	groupResponse
	Children []groupResponse `json:"children"`
}

func toGroupResponse(g *models.Group) groupResponse {
	return groupResponse{ID: g.ID, Name: g.Name, ParentID: g.ParentID, IsRoot: g.IsRoot}
}

func toGroupTreeResponse(t *services.GroupWithChildren) groupTreeResponse {
	resp := groupTreeResponse{
		groupResponse: toGroupResponse(t.Group),
		Children:      make([]groupResponse, 0, len(t.Children)),
	}
	for _, child := range t.Children {
		resp.Children = append(resp.Children, toGroupResponse(child))
	}
	return resp
}

type createGroupRequest struct {
	Name     string `json:"group_name"`
	ParentID string `json:"parent_id"`
}

type renameGroupRequest struct {
	NewName string `json:"new_name"`
}

type moveGroupRequest struct {
	NewParentID string `json:"new_parent_id"`
}

func (s *HTTPServer) handleListTopLevel(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	tree, err := s.groups.ListTopLevel(r.Context(), session.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toGroupTreeResponse(tree))
}

func (s *HTTPServer) handleListChildren(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	tree, err := s.groups.ListChildren(r.Context(), session.UserID, chi.URLParam(r, "groupID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toGroupTreeResponse(tree))
}

func (s *HTTPServer) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, common.ErrorInvalidInput)
		return
	}

	group, err := s.groups.Create(r.Context(), session.UserID, req.Name, req.ParentID)
	if err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info(r.Context(), "group created", "group_id", group.ID)
	writeJSON(w, http.StatusCreated, toGroupResponse(group))
}

func (s *HTTPServer) handleRenameGroup(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	var req renameGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, common.ErrorInvalidInput)
		return
	}

	group, err := s.groups.Rename(r.Context(), session.UserID, chi.URLParam(r, "groupID"), req.NewName)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toGroupResponse(group))
}

func (s *HTTPServer) handleMoveGroup(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	var req moveGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, common.ErrorInvalidInput)
		return
	}

	group, err := s.groups.Move(r.Context(), session.UserID, chi.URLParam(r, "groupID"), req.NewParentID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toGroupResponse(group))
}

func (s *HTTPServer) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	groupID := chi.URLParam(r, "groupID")
	if err := s.groups.Delete(r.Context(), session.UserID, groupID); err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info(r.Context(), "group deleted", "group_id", groupID)
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
