package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/examai/backend/internal/ai"
	"github.com/examai/backend/internal/api"
	"github.com/examai/backend/internal/service"
	"github.com/examai/backend/internal/store"
)

type echoProvider struct{}

func (echoProvider) Generate(_ context.Context, messages []ai.Message, _ string) (string, error) {
	return fmt.Sprintf("reply %d", len(messages)), nil
}

type testServer struct {
	*httptest.Server
	ws *service.Workspace
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	backend, err := store.NewSQLite(filepath.Join(t.TempDir(), "examai.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	st := store.New(backend, zerolog.Nop())
	t.Cleanup(func() { st.Close() })

	ws := service.NewWorkspace(st, zerolog.Nop(), service.WithRand(rand.New(rand.NewSource(1))))
	if err := ws.Init(ctx); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	quiz := service.NewQuizRunner(ws, zerolog.Nop(), time.Hour)
	t.Cleanup(quiz.Close)
	assistant := service.NewAssistant(ws, st, http.DefaultClient, zerolog.Nop(), 1,
		service.WithProviderFactory(func(context.Context, ai.Config, *http.Client) (ai.Provider, error) {
			return echoProvider{}, nil
		}),
	)
	t.Cleanup(assistant.Close)

	mux := http.NewServeMux()
	api.RegisterRoutes(mux, api.NewHandler(ws, quiz, assistant, zerolog.Nop(), nil))
	srv := httptest.NewServer(api.RequestID(api.Logging(zerolog.Nop())(api.CORS(nil)(mux))))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, ws: ws}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		if raw, ok := body.(string); ok {
			rd = strings.NewReader(raw)
		} else {
			b, _ := json.Marshal(body)
			rd = bytes.NewReader(b)
		}
	}
	req, _ := http.NewRequest(method, s.URL+path, rd)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status %d, got %d: %s", want, resp.StatusCode, body)
	}
}

const sampleBank = "***Physics***\n" +
	"Q1 | a | b | c | d | ক ###\n" +
	"Q2 | a | b | c | d | খ ###\n" +
	"Q3 | a | b | c | d | গ"

func loadBank(t *testing.T, s *testServer) {
	t.Helper()
	raw := sampleBank
	resp := s.do(t, http.MethodPut, "/workspace/input", api.RawInputRequest{RawInput: &raw})
	expectStatus(t, resp, http.StatusOK)
}

func TestRequestIDHeader(t *testing.T) {
	s := newServer(t)

	resp := s.do(t, http.MethodGet, "/sessions", nil)
	expectStatus(t, resp, http.StatusOK)
	if resp.Header.Get(api.HeaderRequestID) == "" {
		t.Error("expected a generated request id")
	}

	req, _ := http.NewRequest(http.MethodGet, s.URL+"/sessions", nil)
	req.Header.Set(api.HeaderRequestID, "abc-123")
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if got := resp2.Header.Get(api.HeaderRequestID); got != "abc-123" {
		t.Errorf("expected the caller's request id, got %q", got)
	}
}

func TestWorkspace_RawInputParsesBank(t *testing.T) {
	s := newServer(t)
	loadBank(t, s)

	state := decode[service.State](t, s.do(t, http.MethodGet, "/workspace", nil))
	if len(state.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(state.Questions))
	}
	if state.Title != "Physics" {
		t.Errorf("expected title Physics, got %q", state.Title)
	}
	if state.Bundle.Config.QuestionLimit != 3 {
		t.Errorf("expected smart default limit 3, got %d", state.Bundle.Config.QuestionLimit)
	}
}

func TestWorkspace_BadBodies(t *testing.T) {
	s := newServer(t)

	tests := []struct {
		name string
		path string
		body any
	}{
		{"malformed json", "/workspace/input", "{"},
		{"missing raw input", "/workspace/input", map[string]any{}},
		{"bad mode", "/workspace/config", map[string]any{"mode": "SHUFFLE"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.do(t, http.MethodPut, tt.path, tt.body)
			expectStatus(t, resp, http.StatusBadRequest)
			if e := decode[api.ErrorResponse](t, resp); e.Error == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestQuiz_EmptyBank(t *testing.T) {
	s := newServer(t)
	expectStatus(t, s.do(t, http.MethodPost, "/quiz", nil), http.StatusUnprocessableEntity)
	expectStatus(t, s.do(t, http.MethodGet, "/quiz", nil), http.StatusConflict)
}

func TestQuiz_FullFlow(t *testing.T) {
	s := newServer(t)
	loadBank(t, s)

	resp := s.do(t, http.MethodPost, "/quiz", nil)
	expectStatus(t, resp, http.StatusCreated)
	attempt := decode[service.Attempt](t, resp)
	if len(attempt.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(attempt.Questions))
	}

	for i, q := range attempt.Questions {
		label := q.Answer
		if i == 0 {
			label = "ঘ"
			if q.Answer == "ঘ" {
				label = "ক"
			}
		}
		expectStatus(t, s.do(t, http.MethodPut, fmt.Sprintf("/quiz/answers/%d", i), api.AnswerRequest{Label: label}), http.StatusNoContent)
	}
	expectStatus(t, s.do(t, http.MethodPut, "/quiz/answers/9", api.AnswerRequest{Label: "ক"}), http.StatusBadRequest)
	expectStatus(t, s.do(t, http.MethodPut, "/quiz/answers/0", api.AnswerRequest{Label: "x"}), http.StatusBadRequest)

	resp = s.do(t, http.MethodPost, "/quiz/submit", nil)
	expectStatus(t, resp, http.StatusOK)

	history := decode[service.History](t, s.do(t, http.MethodGet, "/workspace/history", nil))
	if len(history.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(history.Results))
	}
	entry := history.Results[0]
	if entry.Stats.Correct != 2 || entry.Stats.Wrong != 1 {
		t.Errorf("unexpected stats: %+v", entry.Stats)
	}
	if entry.Label != "Exam 1" {
		t.Errorf("expected label Exam 1, got %q", entry.Label)
	}

	review := decode[api.ReviewResponse](t, s.do(t, http.MethodGet, fmt.Sprintf("/workspace/history/%d?filter=wrong", entry.ID), nil))
	if len(review.Items) != 1 {
		t.Errorf("expected 1 wrong item, got %d", len(review.Items))
	}

	mark := 0.5
	updated := decode[service.HistoryEntry](t, s.do(t, http.MethodPatch, fmt.Sprintf("/workspace/history/%d", entry.ID), api.UpdateResultRequest{NegativeMark: &mark}))
	if updated.Score != 1.5 {
		t.Errorf("expected score 1.5, got %v", updated.Score)
	}

	expectStatus(t, s.do(t, http.MethodPost, "/quiz/submit", nil), http.StatusConflict)
	expectStatus(t, s.do(t, http.MethodGet, "/workspace/history/999", nil), http.StatusNotFound)
}

func TestQuiz_RetakeAndAbandon(t *testing.T) {
	s := newServer(t)
	loadBank(t, s)

	expectStatus(t, s.do(t, http.MethodPost, "/quiz", nil), http.StatusCreated)
	result := decode[map[string]any](t, s.do(t, http.MethodPost, "/quiz/submit", nil))
	id := int64(result["id"].(float64))

	resp := s.do(t, http.MethodPost, fmt.Sprintf("/quiz/retake/%d", id), nil)
	expectStatus(t, resp, http.StatusCreated)
	retake := decode[service.Attempt](t, resp)
	if retake.Label != "Exam 1.1" {
		t.Errorf("expected label Exam 1.1, got %q", retake.Label)
	}

	expectStatus(t, s.do(t, http.MethodDelete, "/quiz", nil), http.StatusNoContent)
	expectStatus(t, s.do(t, http.MethodDelete, "/quiz", nil), http.StatusConflict)
}

func TestSessions_NotFoundAndExport(t *testing.T) {
	s := newServer(t)

	expectStatus(t, s.do(t, http.MethodPatch, "/sessions/nope", api.RenameRequest{Name: "x"}), http.StatusNotFound)
	expectStatus(t, s.do(t, http.MethodPatch, "/sessions/nope", api.RenameRequest{}), http.StatusBadRequest)

	resp := s.do(t, http.MethodPost, "/sessions", nil)
	expectStatus(t, resp, http.StatusCreated)

	list := decode[service.SessionList](t, s.do(t, http.MethodGet, "/sessions", nil))
	if len(list.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(list.Sessions))
	}

	resp = s.do(t, http.MethodGet, "/export", nil)
	expectStatus(t, resp, http.StatusOK)
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("expected attachment disposition, got %q", cd)
	}
}

func TestImport_InvalidFile(t *testing.T) {
	s := newServer(t)
	expectStatus(t, s.do(t, http.MethodPost, "/import", `{"hello":"world"}`), http.StatusBadRequest)
}

func TestAI_ConfigLifecycle(t *testing.T) {
	s := newServer(t)

	expectStatus(t, s.do(t, http.MethodGet, "/ai/config", nil), http.StatusPreconditionFailed)
	expectStatus(t, s.do(t, http.MethodPut, "/ai/config", ai.Config{Provider: ai.ProviderCustom}), http.StatusBadRequest)

	cfg := ai.Config{Provider: ai.ProviderGemini, APIKey: "secret-key-1234"}
	expectStatus(t, s.do(t, http.MethodPut, "/ai/config", cfg), http.StatusNoContent)

	got := decode[ai.Config](t, s.do(t, http.MethodGet, "/ai/config", nil))
	if got.APIKey == cfg.APIKey || !strings.HasSuffix(got.APIKey, "1234") {
		t.Errorf("expected a masked key, got %q", got.APIKey)
	}

	expectStatus(t, s.do(t, http.MethodDelete, "/ai/config", nil), http.StatusNoContent)
	expectStatus(t, s.do(t, http.MethodGet, "/ai/config", nil), http.StatusPreconditionFailed)
}

func TestAI_TutorChat(t *testing.T) {
	s := newServer(t)
	expectStatus(t, s.do(t, http.MethodPut, "/ai/config", ai.Config{Provider: ai.ProviderGemini, APIKey: "k"}), http.StatusNoContent)
	loadBank(t, s)

	expectStatus(t, s.do(t, http.MethodPost, "/quiz", nil), http.StatusCreated)
	result := decode[map[string]any](t, s.do(t, http.MethodPost, "/quiz/submit", nil))
	id := int64(result["id"].(float64))

	conv := decode[api.ConversationResponse](t, s.do(t, http.MethodGet, fmt.Sprintf("/ai/chat/%d/0", id), nil))
	if len(conv.Turns) != 0 {
		t.Fatalf("expected an empty conversation, got %d turns", len(conv.Turns))
	}

	conv = decode[api.ConversationResponse](t, s.do(t, http.MethodPost, fmt.Sprintf("/ai/explain/%d/0", id), nil))
	if len(conv.Turns) == 0 {
		t.Fatal("expected an explanation")
	}

	resp := s.do(t, http.MethodPost, fmt.Sprintf("/ai/chat/%d/0", id), api.ChatRequest{Message: "why?"})
	expectStatus(t, resp, http.StatusOK)
	conv = decode[api.ConversationResponse](t, resp)
	if last := conv.Turns[len(conv.Turns)-1]; last.Role != ai.RoleModel {
		t.Errorf("expected the model to reply last, got %q", last.Role)
	}

	expectStatus(t, s.do(t, http.MethodPost, fmt.Sprintf("/ai/chat/%d/0", id), api.ChatRequest{}), http.StatusBadRequest)
	expectStatus(t, s.do(t, http.MethodPost, "/ai/chat/abc/0", api.ChatRequest{Message: "x"}), http.StatusBadRequest)
}

func TestQuizStream(t *testing.T) {
	s := newServer(t)
	loadBank(t, s)

	url := "ws" + strings.TrimPrefix(s.URL, "http") + "/quiz/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	// the handler subscribes before it reads, so a pong means it is listening
	if err := conn.WriteJSON(map[string]string{"action": "ping"}); err != nil {
		t.Fatal(err)
	}
	readUntil(t, conn, "pong")

	expectStatus(t, s.do(t, http.MethodPost, "/quiz", nil), http.StatusCreated)
	readUntil(t, conn, service.EventStarted)

	if err := conn.WriteJSON(map[string]string{"action": "submit"}); err != nil {
		t.Fatal(err)
	}
	ev := readUntil(t, conn, service.EventSubmitted)
	if ev["result"] == nil {
		t.Error("expected the submitted result")
	}
}

func readUntil(t *testing.T, conn *websocket.Conn, eventType string) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var ev map[string]any
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("waiting for %q: %v", eventType, err)
		}
		if ev["type"] == eventType {
			return ev
		}
	}
}
