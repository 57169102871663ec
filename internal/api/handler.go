// internal/api/handler.go
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/examai/backend/internal/ai"
	"github.com/examai/backend/internal/domain/examresult"
	practicesession "github.com/examai/backend/internal/domain/practice_session"
	"github.com/examai/backend/internal/domain/session"
	"github.com/examai/backend/internal/service"
)

// maxBodyBytes bounds JSON bodies; uploads use maxUploadBytes.
const (
	maxBodyBytes   = 8 << 20
	maxUploadBytes = 32 << 20
)

// Handler holds all dependencies needed by HTTP handlers.
type Handler struct {
	workspace *service.Workspace
	quiz      *service.QuizRunner
	assistant *service.Assistant
	log       zerolog.Logger
	validate  *validator.Validate
	upgrader  websocket.Upgrader
}

// NewHandler creates a Handler. allowedOrigins limits websocket origins;
// empty allows all.
func NewHandler(ws *service.Workspace, quiz *service.QuizRunner, assistant *service.Assistant, log zerolog.Logger, allowedOrigins []string) *Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handler{
		workspace: ws,
		quiz:      quiz,
		assistant: assistant,
		log:       log.With().Str("component", "api").Logger(),
		validate:  v,
		upgrader:  buildUpgrader(allowedOrigins),
	}
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error" example:"session not found"`
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, ErrorResponse{Error: msg})
}

// respondDownload writes v as a JSON attachment.
func respondDownload(w http.ResponseWriter, filename string, v any) {
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	respondJSON(w, http.StatusOK, v)
}

// decodeAndValidate decodes the JSON body into dst and runs struct
// validation. It writes a 400 and returns false on failure.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Field()+" failed on "+fe.Tag())
	}
	return strings.Join(msgs, "; ")
}

// handleError maps service and domain errors to HTTP responses. Returns
// true if an error was handled (caller should return).
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) bool {
	if err == nil {
		return false
	}

	var apiErr *ai.APIError
	switch {
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, session.ErrGroupNotFound),
		errors.Is(err, service.ErrResultNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrEmptyName),
		errors.Is(err, session.ErrSelfGroup),
		errors.Is(err, session.ErrInvalidImport),
		errors.Is(err, examresult.ErrInvalidNegativeMark),
		errors.Is(err, service.ErrQuestionIndex),
		errors.Is(err, service.ErrInvalidLabel),
		errors.Is(err, service.ErrEmptyGeneration),
		errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, ai.ErrMissingBaseURL):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, new(validator.ValidationErrors)):
		respondError(w, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, practicesession.ErrNoQuestions):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrNoActiveQuiz),
		errors.Is(err, service.ErrBusy):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNoAIConfig):
		respondError(w, http.StatusPreconditionFailed, err.Error())
	case errors.As(err, &apiErr):
		h.log.Warn().Err(err).Str("path", r.URL.Path).Msg("AI provider error")
		respondError(w, http.StatusBadGateway, err.Error())
	default:
		h.log.Error().Err(err).Str("path", r.URL.Path).Str("request_id", RequestIDFrom(r.Context())).Msg("Request failed")
		respondError(w, http.StatusInternalServerError, "internal error")
	}
	return true
}
