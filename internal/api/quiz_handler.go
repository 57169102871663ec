package api

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/examai/backend/internal/service"
)

// ── Request / Response types ────────────────────────────────────────────────

type AnswerRequest struct {
	Label string `json:"label" example:"খ"`
}

// Stream actions sent by the client.
const (
	actionAnswer = "answer"
	actionSubmit = "submit"
	actionPing   = "ping"
)

// streamRequest is one client message on the quiz stream.
type streamRequest struct {
	Action string `json:"action"`
	Index  int    `json:"index"`
	Label  string `json:"label"`
}

// streamEvent is one server message on the quiz stream.
type streamEvent struct {
	service.QuizEvent
	Error string `json:"error,omitempty"`
}

const (
	streamWriteWait = 10 * time.Second
	streamPongWait  = 60 * time.Second
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty slice permits all origins.
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// ── Handlers ────────────────────────────────────────────────────────────────

// startQuiz draws the next batch and starts the countdown.
// @Summary      Start an exam
// @Tags         Quiz
// @Produce      json
// @Success      201  {object}  service.Attempt
// @Failure      422  {object}  ErrorResponse  "no questions"
// @Router       /quiz [post]
func (h *Handler) startQuiz(w http.ResponseWriter, r *http.Request) {
	a, err := h.quiz.Start(r.Context())
	if h.handleError(w, r, err) {
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

// retakeQuiz replays a result's questions in a new order.
// @Summary      Retake an exam
// @Tags         Quiz
// @Produce      json
// @Param        resultID  path      int  true  "Result ID"
// @Success      201       {object}  service.Attempt
// @Failure      404       {object}  ErrorResponse
// @Router       /quiz/retake/{resultID} [post]
func (h *Handler) retakeQuiz(w http.ResponseWriter, r *http.Request) {
	id, ok := parseResultID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid result id")
		return
	}
	a, err := h.quiz.Retake(r.Context(), id)
	if h.handleError(w, r, err) {
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

// getQuiz returns the running attempt.
// @Summary      Get the running exam
// @Tags         Quiz
// @Produce      json
// @Success      200  {object}  service.Attempt
// @Failure      409  {object}  ErrorResponse  "no exam running"
// @Router       /quiz [get]
func (h *Handler) getQuiz(w http.ResponseWriter, r *http.Request) {
	a, err := h.workspace.Attempt()
	if h.handleError(w, r, err) {
		return
	}
	respondJSON(w, http.StatusOK, a)
}

// answerQuestion records or clears the answer to one question.
// @Summary      Answer a question
// @Tags         Quiz
// @Accept       json
// @Param        index  path  int            true  "Question index"
// @Param        body   body  AnswerRequest  true  "Chosen label; empty clears"
// @Success      204
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /quiz/answers/{index} [put]
func (h *Handler) answerQuestion(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid question index")
		return
	}
	var req AnswerRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if h.handleError(w, r, h.workspace.Answer(index, req.Label)) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// submitQuiz grades the running exam and records it.
// @Summary      Submit the running exam
// @Tags         Quiz
// @Produce      json
// @Success      200  {object}  examresult.ExamResult
// @Failure      409  {object}  ErrorResponse
// @Router       /quiz/submit [post]
func (h *Handler) submitQuiz(w http.ResponseWriter, r *http.Request) {
	result, err := h.quiz.Submit(r.Context())
	if h.handleError(w, r, err) {
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// abandonQuiz discards the running exam.
// @Summary      Abandon the running exam
// @Tags         Quiz
// @Success      204
// @Failure      409  {object}  ErrorResponse
// @Router       /quiz [delete]
func (h *Handler) abandonQuiz(w http.ResponseWriter, r *http.Request) {
	if h.handleError(w, r, h.quiz.Abandon()) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// streamQuiz upgrades to a WebSocket that pushes countdown ticks and the
// auto-submitted result. Clients may answer, submit and ping over it.
// @Summary      Quiz countdown stream
// @Tags         Quiz
// @Success      101
// @Router       /quiz/stream [get]
func (h *Handler) streamQuiz(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("request_id", RequestIDFrom(r.Context())).Logger()
	wsLog.Debug().Msg("Quiz stream connected")

	events, unsubscribe := h.quiz.Subscribe()
	defer unsubscribe()

	var writeMu sync.Mutex
	write := func(ev streamEvent) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		return conn.WriteJSON(ev)
	}

	if a, err := h.workspace.Attempt(); err == nil {
		remaining := max(0, int(time.Until(a.Deadline)/time.Second))
		_ = write(streamEvent{QuizEvent: service.QuizEvent{Type: service.EventTick, AttemptID: a.ID, Remaining: remaining}})
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		h.readStream(r, conn, wsLog, write)
	}()

	for {
		select {
		case <-closed:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := write(streamEvent{QuizEvent: ev}); err != nil {
				wsLog.Debug().Err(err).Msg("Quiz stream write failed")
				return
			}
		}
	}
}

func (h *Handler) readStream(r *http.Request, conn *websocket.Conn, wsLog zerolog.Logger, write func(streamEvent) error) {
	conn.SetReadDeadline(time.Now().Add(streamPongWait))
	for {
		var msg streamRequest
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(streamPongWait))

		var reply streamEvent
		switch msg.Action {
		case actionPing:
			reply.Type = "pong"
		case actionAnswer:
			if err := h.workspace.Answer(msg.Index, msg.Label); err != nil {
				reply.Type, reply.Error = "error", err.Error()
			} else {
				reply.Type = "answered"
			}
		case actionSubmit:
			if _, err := h.quiz.Submit(r.Context()); err != nil {
				reply.Type, reply.Error = "error", err.Error()
			} else {
				continue
			}
		default:
			reply.Type, reply.Error = "error", "unknown action"
		}
		if err := write(reply); err != nil {
			return
		}
	}
}
