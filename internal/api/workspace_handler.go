package api

import (
	"net/http"
	"strconv"

	"github.com/examai/backend/internal/domain/examresult"
	practicesession "github.com/examai/backend/internal/domain/practice_session"
	"github.com/examai/backend/internal/service"
)

// ── Request / Response types ────────────────────────────────────────────────

type RawInputRequest struct {
	RawInput *string `json:"rawInput" validate:"required" example:"***পদার্থ***\nপ্রশ্ন | ক | খ | গ | ঘ | ক ###"`
}

type UpdateResultRequest struct {
	NegativeMark *float64 `json:"negativeMark,omitempty" validate:"omitempty,gt=0" example:"0.5"`
	ExamName     *string  `json:"examName,omitempty" validate:"omitempty,max=200" example:"Midterm"`
}

type ReviewResponse struct {
	service.HistoryEntry
	Filter examresult.Filter       `json:"filter" example:"wrong"`
	Items  []examresult.ReviewItem `json:"items"`
}

func parseResultID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("resultID"), 10, 64)
	return id, err == nil
}

// ── Handlers ────────────────────────────────────────────────────────────────

// getWorkspace returns the active session's live bundle and parsed bank.
// @Summary      Get the workspace
// @Tags         Workspace
// @Produce      json
// @Success      200  {object}  service.State
// @Router       /workspace [get]
func (h *Handler) getWorkspace(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.workspace.State())
}

// setRawInput replaces the question-bank text.
// @Summary      Set the question-bank text
// @Tags         Workspace
// @Accept       json
// @Produce      json
// @Param        body  body      RawInputRequest  true  "Bank text"
// @Success      200   {object}  service.State
// @Failure      400   {object}  ErrorResponse
// @Router       /workspace/input [put]
func (h *Handler) setRawInput(w http.ResponseWriter, r *http.Request) {
	var req RawInputRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	state, err := h.workspace.SetRawInput(r.Context(), *req.RawInput)
	if h.handleError(w, r, err) {
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// setConfig updates the quiz configuration.
// @Summary      Set the quiz config
// @Description  Changing the mode re-applies suggested limits; changing only the question limit recomputes the time.
// @Tags         Workspace
// @Accept       json
// @Produce      json
// @Param        body  body      practicesession.QuizConfig  true  "Quiz config"
// @Success      200   {object}  service.State
// @Failure      400   {object}  ErrorResponse
// @Router       /workspace/config [put]
func (h *Handler) setConfig(w http.ResponseWriter, r *http.Request) {
	var req practicesession.QuizConfig
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	state, err := h.workspace.SetConfig(r.Context(), req)
	if h.handleError(w, r, err) {
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// resetWorkspace clears progress and history.
// @Summary      Reset progress and history
// @Tags         Workspace
// @Produce      json
// @Success      200  {object}  service.State
// @Router       /workspace/reset [post]
func (h *Handler) resetWorkspace(w http.ResponseWriter, r *http.Request) {
	state, err := h.workspace.Reset(r.Context())
	h.quiz.Reconcile()
	if h.handleError(w, r, err) {
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// getHistory lists results newest first with labels, scores and a summary.
// @Summary      Get exam history
// @Tags         Workspace
// @Produce      json
// @Success      200  {object}  service.History
// @Router       /workspace/history [get]
func (h *Handler) getHistory(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.workspace.History())
}

// reviewResult returns one result with its per-question review.
// @Summary      Review a result
// @Tags         Workspace
// @Produce      json
// @Param        resultID  path      int     true   "Result ID"
// @Param        filter    query     string  false  "all, correct, wrong or skipped"
// @Success      200       {object}  ReviewResponse
// @Failure      400       {object}  ErrorResponse
// @Failure      404       {object}  ErrorResponse
// @Router       /workspace/history/{resultID} [get]
func (h *Handler) reviewResult(w http.ResponseWriter, r *http.Request) {
	id, ok := parseResultID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid result id")
		return
	}
	filter := examresult.Filter(r.URL.Query().Get("filter"))
	if filter == "" {
		filter = examresult.FilterAll
	}
	if !filter.Valid() {
		respondError(w, http.StatusBadRequest, "invalid filter")
		return
	}

	entry, err := h.workspace.Result(id)
	if h.handleError(w, r, err) {
		return
	}
	items := entry.Review(filter)
	if items == nil {
		items = []examresult.ReviewItem{}
	}
	respondJSON(w, http.StatusOK, ReviewResponse{HistoryEntry: entry, Filter: filter, Items: items})
}

// updateResult changes a result's negative mark or name.
// @Summary      Update a result
// @Tags         Workspace
// @Accept       json
// @Produce      json
// @Param        resultID  path      int                  true  "Result ID"
// @Param        body      body      UpdateResultRequest  true  "Fields to change"
// @Success      200       {object}  service.HistoryEntry
// @Failure      400       {object}  ErrorResponse
// @Failure      404       {object}  ErrorResponse
// @Router       /workspace/history/{resultID} [patch]
func (h *Handler) updateResult(w http.ResponseWriter, r *http.Request) {
	id, ok := parseResultID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid result id")
		return
	}
	var req UpdateResultRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	entry, err := h.workspace.UpdateResult(r.Context(), id, req.NegativeMark, req.ExamName)
	if h.handleError(w, r, err) {
		return
	}
	respondJSON(w, http.StatusOK, entry)
}
