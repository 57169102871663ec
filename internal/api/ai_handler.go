package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/examai/backend/internal/ai"
	"github.com/examai/backend/internal/service"
)

// ── Request / Response types ────────────────────────────────────────────────

type ValidateResponse struct {
	OK bool `json:"ok" example:"true"`
}

type GenerateRequest struct {
	Instruction string `json:"instruction" validate:"max=20000" example:"১০টি প্রশ্ন তৈরি করো"`
}

type ChatRequest struct {
	Message string `json:"message" validate:"required,max=4000" example:"আরও সহজ করে বোঝাও"`
}

type ConversationResponse struct {
	Turns []service.ChatTurn `json:"turns"`
}

type ExplanationsResponse struct {
	Explanations []service.Explanation `json:"explanations"`
}

// ── Configuration ───────────────────────────────────────────────────────────

// getAIConfig returns the active provider config with the key masked.
// @Summary      Get the AI config
// @Tags         AI
// @Produce      json
// @Success      200  {object}  ai.Config
// @Failure      412  {object}  ErrorResponse  "not configured"
// @Router       /ai/config [get]
func (h *Handler) getAIConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.assistant.Config(r.Context())
	if h.handleError(w, r, err) {
		return
	}
	respondJSON(w, http.StatusOK, cfg.Masked())
}

// setAIConfig stores the provider config.
// @Summary      Save the AI config
// @Tags         AI
// @Accept       json
// @Param        body  body  ai.Config  true  "Provider config"
// @Success      204
// @Failure      400  {object}  ErrorResponse
// @Router       /ai/config [put]
func (h *Handler) setAIConfig(w http.ResponseWriter, r *http.Request) {
	var cfg ai.Config
	if !h.decodeAndValidate(w, r, &cfg) {
		return
	}
	if h.handleError(w, r, h.assistant.SetConfig(r.Context(), cfg)) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deleteAIConfig removes the stored provider config.
// @Summary      Remove the AI config
// @Tags         AI
// @Success      204
// @Router       /ai/config [delete]
func (h *Handler) deleteAIConfig(w http.ResponseWriter, r *http.Request) {
	if h.handleError(w, r, h.assistant.RemoveConfig(r.Context())) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// validateAI probes the provider. Without a body the stored config is used.
// @Summary      Test the AI connection
// @Tags         AI
// @Accept       json
// @Produce      json
// @Param        body  body      ai.Config  false  "Config to test"
// @Success      200   {object}  ValidateResponse
// @Failure      502   {object}  ErrorResponse
// @Router       /ai/validate [post]
func (h *Handler) validateAI(w http.ResponseWriter, r *http.Request) {
	var cfg *ai.Config
	if r.ContentLength != 0 {
		cfg = new(ai.Config)
		if !h.decodeAndValidate(w, r, cfg) {
			return
		}
	}
	ok, err := h.assistant.Validate(r.Context(), cfg)
	if h.handleError(w, r, err) {
		return
	}
	respondJSON(w, http.StatusOK, ValidateResponse{OK: ok})
}

// ── Generation ──────────────────────────────────────────────────────────────

// generateQuestions asks the provider for questions and appends them to the
// active bank. Accepts multipart form data (instruction, files) or JSON.
// @Summary      Generate questions
// @Tags         AI
// @Accept       multipart/form-data
// @Accept       json
// @Produce      json
// @Param        instruction  formData  string  false  "What to generate"
// @Param        files        formData  file    false  "Source material"
// @Success      200  {object}  service.GenerateOutcome
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse  "another AI request is running"
// @Failure      412  {object}  ErrorResponse  "not configured"
// @Router       /ai/generate [post]
func (h *Handler) generateQuestions(w http.ResponseWriter, r *http.Request) {
	var (
		instruction string
		files       []service.Attachment
	)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				respondError(w, http.StatusRequestEntityTooLarge, "upload too large")
				return
			}
			respondError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		instruction = r.FormValue("instruction")
		var err error
		if files, err = readAttachments(r); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		var req GenerateRequest
		if !h.decodeAndValidate(w, r, &req) {
			return
		}
		instruction = req.Instruction
	}

	out, err := h.assistant.Generate(r.Context(), instruction, files)
	if h.handleError(w, r, err) {
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func readAttachments(r *http.Request) ([]service.Attachment, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File["files"]
	files := make([]service.Attachment, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		mimeType := fh.Header.Get("Content-Type")
		if mimeType == "" || mimeType == "application/octet-stream" {
			mimeType = http.DetectContentType(data)
		}
		files = append(files, service.Attachment{
			Name:     fh.Filename,
			MIMEType: strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]),
			Data:     data,
		})
	}
	return files, nil
}

// ── Tutor ───────────────────────────────────────────────────────────────────

// explainMistakes explains every wrongly answered question of a result.
// @Summary      Explain all mistakes
// @Tags         AI
// @Produce      json
// @Param        resultID  path      int  true  "Result ID"
// @Success      200       {object}  ExplanationsResponse
// @Failure      404       {object}  ErrorResponse
// @Failure      409       {object}  ErrorResponse
// @Router       /ai/explain/{resultID} [post]
func (h *Handler) explainMistakes(w http.ResponseWriter, r *http.Request) {
	id, ok := parseResultID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid result id")
		return
	}
	out, err := h.assistant.ExplainMistakes(r.Context(), id)
	if h.handleError(w, r, err) {
		return
	}
	respondJSON(w, http.StatusOK, ExplanationsResponse{Explanations: out})
}

// explainQuestion opens (or with reset=true restarts) the tutor
// conversation for one question.
// @Summary      Explain one question
// @Tags         AI
// @Produce      json
// @Param        resultID  path      int   true   "Result ID"
// @Param        index     path      int   true   "Question index"
// @Param        reset     query     bool  false  "Discard the cached conversation"
// @Success      200       {object}  ConversationResponse
// @Failure      404       {object}  ErrorResponse
// @Router       /ai/explain/{resultID}/{index} [post]
func (h *Handler) explainQuestion(w http.ResponseWriter, r *http.Request) {
	id, index, ok := parseQuestionRef(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid result id or question index")
		return
	}
	reset, _ := strconv.ParseBool(r.URL.Query().Get("reset"))
	turns, err := h.assistant.Explain(r.Context(), id, index, reset)
	if h.handleError(w, r, err) {
		return
	}
	respondJSON(w, http.StatusOK, ConversationResponse{Turns: turns})
}

// getConversation returns the cached tutor conversation, possibly empty.
// @Summary      Get a tutor conversation
// @Tags         AI
// @Produce      json
// @Param        resultID  path      int  true  "Result ID"
// @Param        index     path      int  true  "Question index"
// @Success      200       {object}  ConversationResponse
// @Router       /ai/chat/{resultID}/{index} [get]
func (h *Handler) getConversation(w http.ResponseWriter, r *http.Request) {
	id, index, ok := parseQuestionRef(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid result id or question index")
		return
	}
	turns := h.assistant.Conversation(id, index)
	if turns == nil {
		turns = []service.ChatTurn{}
	}
	respondJSON(w, http.StatusOK, ConversationResponse{Turns: turns})
}

// chat sends a follow-up message to the tutor.
// @Summary      Ask the tutor
// @Tags         AI
// @Accept       json
// @Produce      json
// @Param        resultID  path      int          true  "Result ID"
// @Param        index     path      int          true  "Question index"
// @Param        body      body      ChatRequest  true  "Message"
// @Success      200       {object}  ConversationResponse
// @Failure      400       {object}  ErrorResponse
// @Failure      409       {object}  ErrorResponse
// @Router       /ai/chat/{resultID}/{index} [post]
func (h *Handler) chat(w http.ResponseWriter, r *http.Request) {
	id, index, ok := parseQuestionRef(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid result id or question index")
		return
	}
	var req ChatRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	turns, err := h.assistant.Chat(r.Context(), id, index, req.Message)
	if h.handleError(w, r, err) {
		return
	}
	respondJSON(w, http.StatusOK, ConversationResponse{Turns: turns})
}

func parseQuestionRef(r *http.Request) (int64, int, bool) {
	id, ok := parseResultID(r)
	if !ok {
		return 0, 0, false
	}
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 {
		return 0, 0, false
	}
	return id, index, true
}
