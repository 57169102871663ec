package api

import "net/http"

// ── Request / Response types ────────────────────────────────────────────────

type SelectSessionRequest struct {
	ID string `json:"id" validate:"required" example:"session_1709647629000_k3j9x2a1b"`
}

type RenameRequest struct {
	Name string `json:"name" validate:"required,max=200" example:"পদার্থ - ch 1"`
}

type MoveToGroupRequest struct {
	GroupID string `json:"groupId" example:"group_1709647629000"`
}

type FavoriteResponse struct {
	Favorite bool `json:"favorite" example:"true"`
}

// ── Handlers ────────────────────────────────────────────────────────────────

// listSessions lists every session with the active id and derived groups.
// @Summary      List sessions
// @Tags         Sessions
// @Produce      json
// @Success      200  {object}  service.SessionList
// @Router       /sessions [get]
func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.workspace.Sessions())
}

// createSession adds an empty "Session N" and makes it active.
// @Summary      Create a session
// @Tags         Sessions
// @Produce      json
// @Success      201  {object}  session.Session
// @Failure      500  {object}  ErrorResponse
// @Router       /sessions [post]
func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.workspace.CreateSession(r.Context())
	h.quiz.Reconcile()
	if h.handleError(w, r, err) {
		return
	}
	respondJSON(w, http.StatusCreated, s)
}

// clearSessions wipes all stored state and starts over with one session.
// @Summary      Clear all data
// @Description  Removes every session and the AI configuration.
// @Tags         Sessions
// @Produce      json
// @Success      200  {object}  service.SessionList
// @Failure      500  {object}  ErrorResponse
// @Router       /sessions [delete]
func (h *Handler) clearSessions(w http.ResponseWriter, r *http.Request) {
	err := h.workspace.ClearAll(r.Context())
	h.quiz.Reconcile()
	if h.handleError(w, r, err) {
		return
	}
	respondJSON(w, http.StatusOK, h.workspace.Sessions())
}

// selectSession switches the active session.
// @Summary      Select the active session
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        body  body      SelectSessionRequest  true  "Session to activate"
// @Success      200   {object}  service.State
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /sessions/active [put]
func (h *Handler) selectSession(w http.ResponseWriter, r *http.Request) {
	var req SelectSessionRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if h.handleError(w, r, h.workspace.SelectSession(r.Context(), req.ID)) {
		return
	}
	h.quiz.Reconcile()
	respondJSON(w, http.StatusOK, h.workspace.State())
}

// renameSession renames a session.
// @Summary      Rename a session
// @Tags         Sessions
// @Accept       json
// @Param        sessionID  path  string         true  "Session ID"
// @Param        body       body  RenameRequest  true  "New name"
// @Success      204
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /sessions/{sessionID} [patch]
func (h *Handler) renameSession(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if h.handleError(w, r, h.workspace.RenameSession(r.Context(), r.PathValue("sessionID"), req.Name)) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deleteSession removes a session.
// @Summary      Delete a session
// @Tags         Sessions
// @Param        sessionID  path  string  true  "Session ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse
// @Router       /sessions/{sessionID} [delete]
func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	if h.handleError(w, r, h.workspace.DeleteSession(r.Context(), r.PathValue("sessionID"))) {
		return
	}
	h.quiz.Reconcile()
	w.WriteHeader(http.StatusNoContent)
}

// toggleSessionFavorite flips a session's favorite flag.
// @Summary      Toggle session favorite
// @Tags         Sessions
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {object}  FavoriteResponse
// @Failure      404        {object}  ErrorResponse
// @Router       /sessions/{sessionID}/favorite [post]
func (h *Handler) toggleSessionFavorite(w http.ResponseWriter, r *http.Request) {
	fav, err := h.workspace.ToggleFavorite(r.Context(), r.PathValue("sessionID"))
	if h.handleError(w, r, err) {
		return
	}
	respondJSON(w, http.StatusOK, FavoriteResponse{Favorite: fav})
}

// moveSessionToGroup tags a session with a group, or moves it back to the
// root when groupId is empty.
// @Summary      Move a session into a group
// @Tags         Sessions
// @Accept       json
// @Param        sessionID  path  string              true  "Session ID"
// @Param        body       body  MoveToGroupRequest  true  "Target group"
// @Success      204
// @Failure      404  {object}  ErrorResponse
// @Router       /sessions/{sessionID}/group [post]
func (h *Handler) moveSessionToGroup(w http.ResponseWriter, r *http.Request) {
	var req MoveToGroupRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if h.handleError(w, r, h.workspace.MoveToGroup(r.Context(), r.PathValue("sessionID"), req.GroupID)) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// backupSession downloads one session as a single-bundle backup.
// @Summary      Download a session backup
// @Tags         Sessions
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {object}  session.Backup
// @Failure      404        {object}  ErrorResponse
// @Router       /sessions/{sessionID}/backup [get]
func (h *Handler) backupSession(w http.ResponseWriter, r *http.Request) {
	backup, filename, err := h.workspace.Backup(r.PathValue("sessionID"))
	if h.handleError(w, r, err) {
		return
	}
	respondDownload(w, filename, backup)
}

// ── Groups ──────────────────────────────────────────────────────────────────

type CreateGroupRequest struct {
	SourceID string `json:"sourceId" validate:"required" example:"session_1709647629000_k3j9x2a1b"`
	TargetID string `json:"targetId" validate:"required" example:"session_1709647700000_p0q9r8s7t"`
}

// createGroup groups two sessions under a new "Session Group N".
// @Summary      Create a group
// @Tags         Groups
// @Accept       json
// @Produce      json
// @Param        body  body      CreateGroupRequest  true  "Sessions to group"
// @Success      201   {object}  group.Group
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /groups [post]
func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	g, err := h.workspace.CreateGroup(r.Context(), req.SourceID, req.TargetID)
	if h.handleError(w, r, err) {
		return
	}
	respondJSON(w, http.StatusCreated, g)
}

// renameGroup renames every member's group name.
// @Summary      Rename a group
// @Tags         Groups
// @Accept       json
// @Param        groupID  path  string         true  "Group ID"
// @Param        body     body  RenameRequest  true  "New name"
// @Success      204
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /groups/{groupID} [patch]
func (h *Handler) renameGroup(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if h.handleError(w, r, h.workspace.RenameGroup(r.Context(), r.PathValue("groupID"), req.Name)) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteGroupResponse lists the sessions removed with the group.
type DeleteGroupResponse struct {
	Removed []string `json:"removed"`
}

// deleteGroup deletes a group together with its member sessions.
// @Summary      Delete a group
// @Tags         Groups
// @Produce      json
// @Param        groupID  path      string  true  "Group ID"
// @Success      200      {object}  DeleteGroupResponse
// @Failure      404      {object}  ErrorResponse
// @Router       /groups/{groupID} [delete]
func (h *Handler) deleteGroup(w http.ResponseWriter, r *http.Request) {
	removed, err := h.workspace.DeleteGroup(r.Context(), r.PathValue("groupID"))
	if h.handleError(w, r, err) {
		return
	}
	h.quiz.Reconcile()
	respondJSON(w, http.StatusOK, DeleteGroupResponse{Removed: removed})
}

// toggleGroupFavorite favorites every member unless all already are.
// @Summary      Toggle group favorite
// @Tags         Groups
// @Produce      json
// @Param        groupID  path      string  true  "Group ID"
// @Success      200      {object}  FavoriteResponse
// @Failure      404      {object}  ErrorResponse
// @Router       /groups/{groupID}/favorite [post]
func (h *Handler) toggleGroupFavorite(w http.ResponseWriter, r *http.Request) {
	fav, err := h.workspace.ToggleGroupFavorite(r.Context(), r.PathValue("groupID"))
	if h.handleError(w, r, err) {
		return
	}
	respondJSON(w, http.StatusOK, FavoriteResponse{Favorite: fav})
}

// backupGroup downloads a group's sessions as an array.
// @Summary      Download a group backup
// @Tags         Groups
// @Produce      json
// @Param        groupID  path      string  true  "Group ID"
// @Success      200      {array}   session.Session
// @Failure      404      {object}  ErrorResponse
// @Router       /groups/{groupID}/backup [get]
func (h *Handler) backupGroup(w http.ResponseWriter, r *http.Request) {
	members, filename, err := h.workspace.ExportGroup(r.PathValue("groupID"))
	if h.handleError(w, r, err) {
		return
	}
	respondDownload(w, filename, members)
}
