package api

import (
	"errors"
	"io"
	"net/http"
)

// importSessions accepts either format produced by this service: a
// single-session backup or an array of sessions.
// @Summary      Import sessions
// @Description  A single backup merges into an empty active session or becomes a new session. An array is imported under a new group.
// @Tags         Import/Export
// @Accept       json
// @Produce      json
// @Param        body  body      session.Backup  true  "Backup file contents"
// @Success      201   {object}  service.ImportOutcome
// @Failure      400   {object}  ErrorResponse
// @Router       /import [post]
func (h *Handler) importSessions(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "import file too large")
			return
		}
		respondError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	outcome, err := h.workspace.Import(r.Context(), data)
	h.quiz.Reconcile()
	if h.handleError(w, r, err) {
		return
	}
	respondJSON(w, http.StatusCreated, outcome)
}

// exportAll downloads every session as one array.
// @Summary      Export all sessions
// @Tags         Import/Export
// @Produce      json
// @Success      200  {array}  session.Session
// @Router       /export [get]
func (h *Handler) exportAll(w http.ResponseWriter, r *http.Request) {
	sessions, filename := h.workspace.ExportAll()
	respondDownload(w, filename, sessions)
}
