// internal/service/assistant.go
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/examai/backend/internal/ai"
	"github.com/examai/backend/internal/store"
	"github.com/examai/backend/internal/worker"
)

var (
	ErrBusy            = errors.New("an AI request is already running")
	ErrNoAIConfig      = errors.New("no AI provider configured")
	ErrEmptyGeneration = errors.New("nothing to generate from")
	ErrEmptyMessage    = errors.New("message is empty")
)

// networkErrorReply is appended to a chat when the provider call fails.
const networkErrorReply = "নেটওয়ার্ক ত্রুটি।"

// ProviderFactory builds a provider from a config.
type ProviderFactory func(ctx context.Context, cfg ai.Config, client *http.Client) (ai.Provider, error)

// Attachment is an uploaded source file for question generation.
type Attachment struct {
	Name     string
	MIMEType string
	Data     []byte
}

// ChatTurn is one message of a tutor conversation.
type ChatTurn struct {
	Role    ai.Role `json:"role"`
	Text    string  `json:"text"`
	Initial bool    `json:"isInitial,omitempty"`
}

// Explanation is the outcome of explaining one question.
type Explanation struct {
	Index int    `json:"index"`
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// GenerateOutcome is the generated text and the bank after appending it.
type GenerateOutcome struct {
	Generated string `json:"generated"`
	State     State  `json:"state"`
}

// Assistant runs AI features against the configured provider. Only one
// request runs at a time; tutor conversations are cached per question.
type Assistant struct {
	ws          *Workspace
	store       *store.Store
	log         zerolog.Logger
	client      *http.Client
	newProvider ProviderFactory
	pool        *worker.Pool[Explanation]
	fallback    *ai.Config

	busy atomic.Bool

	mu    sync.Mutex
	chats map[string][]ChatTurn // "<resultID>-<index>" → conversation
}

// AssistantOption configures an Assistant.
type AssistantOption func(*Assistant)

// WithProviderFactory replaces ai.New.
func WithProviderFactory(f ProviderFactory) AssistantOption {
	return func(a *Assistant) { a.newProvider = f }
}

// WithFallbackConfig is used when nothing is stored.
func WithFallbackConfig(cfg *ai.Config) AssistantOption {
	return func(a *Assistant) { a.fallback = cfg }
}

func NewAssistant(ws *Workspace, st *store.Store, client *http.Client, log zerolog.Logger, workers int, opts ...AssistantOption) *Assistant {
	a := &Assistant{
		ws:          ws,
		store:       st,
		log:         log.With().Str("component", "assistant").Logger(),
		client:      client,
		newProvider: ai.New,
		pool:        worker.NewPool[Explanation](workers, workers*2),
		chats:       make(map[string][]ChatTurn),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Close stops the worker pool.
func (a *Assistant) Close() {
	a.pool.Close()
}

func (a *Assistant) acquire() error {
	if !a.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (a *Assistant) release() { a.busy.Store(false) }

// Busy reports whether a request is in flight.
func (a *Assistant) Busy() bool { return a.busy.Load() }

// ============================================================================
// Configuration
// ============================================================================

// Config returns the stored provider config, else the fallback.
func (a *Assistant) Config(ctx context.Context) (*ai.Config, error) {
	cfg, err := a.store.LoadAIConfig(ctx)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if a.fallback != nil {
		c := *a.fallback
		return &c, nil
	}
	return nil, ErrNoAIConfig
}

func (a *Assistant) SetConfig(ctx context.Context, cfg ai.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := a.store.SaveAIConfig(ctx, cfg); err != nil {
		return fmt.Errorf("save AI config: %w", err)
	}
	a.log.Info().Str("provider", string(cfg.Provider)).Str("model", cfg.Model).Msg("AI config saved")
	return nil
}

func (a *Assistant) RemoveConfig(ctx context.Context) error {
	return a.store.DeleteAIConfig(ctx)
}

// Validate sends a probe prompt using cfg, or the current config when cfg
// is nil.
func (a *Assistant) Validate(ctx context.Context, cfg *ai.Config) (bool, error) {
	if cfg == nil {
		current, err := a.Config(ctx)
		if err != nil {
			return false, err
		}
		cfg = current
	} else if err := cfg.Validate(); err != nil {
		return false, err
	}

	p, err := a.newProvider(ctx, *cfg, a.client)
	if err != nil {
		return false, err
	}
	return ai.ValidateConnection(ctx, p)
}

func (a *Assistant) provider(ctx context.Context) (ai.Provider, error) {
	cfg, err := a.Config(ctx)
	if err != nil {
		return nil, err
	}
	return a.newProvider(ctx, *cfg, a.client)
}

// ============================================================================
// Generation
// ============================================================================

// Generate asks the provider for questions from an instruction and/or
// files, then appends the reply to the bank.
func (a *Assistant) Generate(ctx context.Context, instruction string, files []Attachment) (*GenerateOutcome, error) {
	if strings.TrimSpace(instruction) == "" && len(files) == 0 {
		return nil, ErrEmptyGeneration
	}
	if err := a.acquire(); err != nil {
		return nil, err
	}
	defer a.release()

	p, err := a.provider(ctx)
	if err != nil {
		return nil, err
	}

	var parts []ai.Part
	for _, f := range files {
		if isInlineMIME(f.MIMEType) {
			parts = append(parts, ai.Part{InlineData: &ai.Blob{MIMEType: f.MIMEType, Data: f.Data}})
			continue
		}
		parts = append(parts, ai.FileText(f.Name, string(f.Data)))
	}

	withTitle := strings.TrimSpace(a.ws.State().Bundle.RawInput) == ""
	parts = append(parts, ai.Part{Text: ai.GenerationPrompt(instruction, withTitle)})

	text, err := p.Generate(ctx, []ai.Message{{Role: ai.RoleUser, Parts: parts}}, "")
	if err != nil {
		a.log.Error().Err(err).Msg("Question generation failed")
		return nil, err
	}

	generated := strings.TrimSpace(text)
	if generated == "" {
		return &GenerateOutcome{State: a.ws.State()}, nil
	}

	state, err := a.ws.AppendRawInput(ctx, generated)
	a.log.Info().Int("files", len(files)).Int("questions", len(state.Questions)).Msg("Questions generated")
	return &GenerateOutcome{Generated: generated, State: state}, err
}

func isInlineMIME(mime string) bool {
	return strings.HasPrefix(mime, "image/") || mime == "application/pdf"
}

// ============================================================================
// Tutor
// ============================================================================

func chatKey(resultID int64, index int) string {
	return strconv.FormatInt(resultID, 10) + "-" + strconv.Itoa(index)
}

func (a *Assistant) conversation(key string) ([]ChatTurn, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	turns, ok := a.chats[key]
	return append([]ChatTurn(nil), turns...), ok
}

func (a *Assistant) setConversation(key string, turns []ChatTurn) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.chats[key] = turns
}

// Conversation returns the cached tutor conversation for a question.
func (a *Assistant) Conversation(resultID int64, index int) []ChatTurn {
	turns, _ := a.conversation(chatKey(resultID, index))
	if turns == nil {
		return []ChatTurn{}
	}
	return turns
}

// Explain returns the tutor conversation for a reviewed question, asking
// for the initial explanation when none is cached or reset is set.
func (a *Assistant) Explain(ctx context.Context, resultID int64, index int, reset bool) ([]ChatTurn, error) {
	key := chatKey(resultID, index)
	if turns, _ := a.conversation(key); hasExplanation(turns) && !reset {
		return turns, nil
	}

	if err := a.acquire(); err != nil {
		return nil, err
	}
	defer a.release()

	p, err := a.provider(ctx)
	if err != nil {
		return nil, err
	}
	ex := a.explain(ctx, p, resultID, index)
	if ex.Error != "" {
		return nil, errors.New(ex.Error)
	}
	if reset {
		a.setConversation(key, nil)
	}
	return a.prependExplanation(key, ex.Text), nil
}

func hasExplanation(turns []ChatTurn) bool {
	return len(turns) > 0 && turns[0].Initial
}

// prependExplanation puts the initial explanation in front of any turns
// already chatted about the question.
func (a *Assistant) prependExplanation(key, text string) []ChatTurn {
	a.mu.Lock()
	defer a.mu.Unlock()

	rest := a.chats[key]
	if hasExplanation(rest) {
		rest = rest[1:]
	}
	turns := make([]ChatTurn, 0, len(rest)+1)
	turns = append(turns, ChatTurn{Role: ai.RoleModel, Text: text, Initial: true})
	turns = append(turns, rest...)
	a.chats[key] = turns
	return append([]ChatTurn(nil), turns...)
}

func (a *Assistant) explain(ctx context.Context, p ai.Provider, resultID int64, index int) Explanation {
	q, choice, err := a.ws.ReviewQuestion(resultID, index)
	if err != nil {
		return Explanation{Index: index, Error: err.Error()}
	}
	text, err := p.Generate(ctx, []ai.Message{ai.UserText(ai.ExplainPrompt(q, choice))}, "")
	if err != nil {
		a.log.Warn().Err(err).Int64("result", resultID).Int("index", index).Msg("Explanation failed")
		return Explanation{Index: index, Error: err.Error()}
	}
	if strings.TrimSpace(text) == "" {
		text = ai.FallbackExplanation
	}
	return Explanation{Index: index, Text: text}
}

// Chat sends a follow-up question about a reviewed question. Provider
// failures are recorded in the conversation as a short diagnostic.
func (a *Assistant) Chat(ctx context.Context, resultID int64, index int, message string) ([]ChatTurn, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	q, choice, err := a.ws.ReviewQuestion(resultID, index)
	if err != nil {
		return nil, err
	}

	if err := a.acquire(); err != nil {
		return nil, err
	}
	defer a.release()

	p, err := a.provider(ctx)
	if err != nil {
		return nil, err
	}

	key := chatKey(resultID, index)
	history, _ := a.conversation(key)

	messages := []ai.Message{ai.UserText(ai.TutorContext(q, choice))}
	for _, turn := range history {
		messages = append(messages, ai.Message{Role: turn.Role, Parts: []ai.Part{{Text: turn.Text}}})
	}
	messages = append(messages, ai.UserText(message))

	turns := append(history, ChatTurn{Role: ai.RoleUser, Text: message})

	reply, err := p.Generate(ctx, messages, "")
	switch {
	case err != nil:
		a.log.Warn().Err(err).Str("chat", key).Msg("Tutor reply failed")
		reply = networkErrorReply
	case strings.TrimSpace(reply) == "":
		reply = ai.FallbackChatReply
	}
	turns = append(turns, ChatTurn{Role: ai.RoleModel, Text: reply})

	a.setConversation(key, turns)
	return turns, nil
}

// ExplainMistakes explains every wrong answer of a result concurrently.
// Already cached explanations are reused.
func (a *Assistant) ExplainMistakes(ctx context.Context, resultID int64) ([]Explanation, error) {
	wrong, err := a.ws.WrongAnswers(resultID)
	if err != nil {
		return nil, err
	}

	if err := a.acquire(); err != nil {
		return nil, err
	}
	defer a.release()

	out := make([]Explanation, 0, len(wrong))
	var tasks []worker.Task[Explanation]
	for _, index := range wrong {
		if turns, _ := a.conversation(chatKey(resultID, index)); hasExplanation(turns) {
			out = append(out, Explanation{Index: index, Text: turns[0].Text})
			continue
		}
		tasks = append(tasks, worker.Task[Explanation]{ID: strconv.Itoa(index)})
	}
	if len(tasks) == 0 {
		return out, nil
	}

	p, err := a.provider(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		index, _ := strconv.Atoi(tasks[i].ID)
		tasks[i].Fn = func(ctx context.Context) Explanation {
			return a.explain(ctx, p, resultID, index)
		}
	}

	results, err := a.pool.Run(ctx, tasks)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		ex := r.Output
		if ex.Error == "" {
			a.prependExplanation(chatKey(resultID, ex.Index), ex.Text)
		}
		out = append(out, ex)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })

	a.log.Info().Int64("result", resultID).Int("explained", len(results)).Msg("Mistakes explained")
	return out, nil
}
