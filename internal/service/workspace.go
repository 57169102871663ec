// internal/service/workspace.go
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/examai/backend/internal/domain/examresult"
	"github.com/examai/backend/internal/domain/group"
	practicesession "github.com/examai/backend/internal/domain/practice_session"
	"github.com/examai/backend/internal/domain/questionbank"
	"github.com/examai/backend/internal/domain/session"
	"github.com/examai/backend/internal/store"
)

var (
	ErrNoActiveQuiz   = errors.New("no quiz in progress")
	ErrResultNotFound = errors.New("exam result not found")
	ErrQuestionIndex  = errors.New("question index out of range")
	ErrInvalidLabel   = errors.New("unknown option label")
)

// Workspace is the application-state controller. It owns the session
// registry and the live bundle of the active session; every mutation writes
// the live bundle back and persists the session list and active id.
type Workspace struct {
	store *store.Store
	log   zerolog.Logger
	rng   *rand.Rand
	now   func() time.Time

	mu       sync.Mutex
	registry *session.Registry
	live     session.Bundle
	attempt  *Attempt
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithRand fixes the random source used for draws and shuffles.
func WithRand(rng *rand.Rand) Option {
	return func(w *Workspace) { w.rng = rng }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *Workspace) { w.now = now }
}

func NewWorkspace(st *store.Store, log zerolog.Logger, opts ...Option) *Workspace {
	w := &Workspace{
		store:    st,
		log:      log.With().Str("component", "workspace").Logger(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
		registry: session.NewRegistry(nil, ""),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ============================================================================
// Lifecycle
// ============================================================================

// Init loads persisted state. Missing or malformed state starts empty; the
// legacy single-session layout is migrated when no session list exists.
func (w *Workspace) Init(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	sessions, err := w.store.LoadSessions(ctx)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrMalformed):
		w.log.Warn().Err(err).Msg("Stored sessions are malformed, starting empty")
		sessions = nil
	case errors.Is(err, store.ErrNotFound):
		sessions, err = w.migrateLegacy(ctx)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("load sessions: %w", err)
	}

	activeID, err := w.store.LoadActiveID(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("load active session: %w", err)
	}

	w.registry = session.NewRegistry(sessions, activeID)
	w.reloadLocked()

	w.log.Info().
		Int("sessions", w.registry.Len()).
		Str("active", w.registry.ActiveID()).
		Msg("Workspace loaded")

	return w.saveLocked(ctx)
}

func (w *Workspace) migrateLegacy(ctx context.Context) ([]*session.Session, error) {
	bundle, ok, err := w.store.LoadLegacy(ctx)
	if err != nil {
		return nil, fmt.Errorf("load legacy state: %w", err)
	}
	if !ok {
		return nil, nil
	}
	s := session.New("Session 1", w.now())
	s.Data = bundle
	w.log.Info().Msg("Migrated legacy single-session state")
	return []*session.Session{s}, nil
}

// reloadLocked repairs the active selection and loads its bundle.
func (w *Workspace) reloadLocked() {
	w.registry.EnsureActive(w.now())
	w.live = w.registry.Active().Data.Clone()
}

// switchLocked reloads after an operation that may have replaced the active
// session or its data. Any running quiz is abandoned.
func (w *Workspace) switchLocked() {
	w.attempt = nil
	w.reloadLocked()
}

func (w *Workspace) saveLocked(ctx context.Context) error {
	if err := w.store.SaveWorkspace(ctx, w.registry.Sessions(), w.registry.ActiveID()); err != nil {
		w.log.Error().Err(err).Msg("Failed to persist workspace")
		return err
	}
	return nil
}

// commitLocked writes the live bundle into the active session and saves.
func (w *Workspace) commitLocked(ctx context.Context) error {
	active := w.registry.Active()
	if active == nil {
		w.reloadLocked()
		active = w.registry.Active()
	}
	active.Apply(w.live, w.now())
	return w.saveLocked(ctx)
}

// ============================================================================
// Views
// ============================================================================

// SessionList is the sidebar: every session, the active id and the groups.
type SessionList struct {
	Sessions []session.Session  `json:"sessions"`
	ActiveID string             `json:"activeId"`
	Groups   []session.GroupView `json:"groups"`
}

// State is the live view of the active session.
type State struct {
	SessionID      string                  `json:"sessionId"`
	SessionName    string                  `json:"sessionName"`
	Title          string                  `json:"title,omitempty"`
	Bundle         session.Bundle          `json:"bundle"`
	Questions      []questionbank.Question `json:"questions"`
	InvalidAnswers []int                   `json:"invalidAnswers"`
	Stats          practicesession.Stats   `json:"stats"`
	NextLabel      string                  `json:"nextLabel"`
	QuizActive     bool                    `json:"quizActive"`
}

// HistoryEntry is a result with its derived label and scores.
type HistoryEntry struct {
	examresult.ExamResult
	Label          string  `json:"label"`
	Score          float64 `json:"score"`
	AlternateMark  float64 `json:"alternateMark"`
	AlternateScore float64 `json:"alternateScore"`
}

// History lists results newest first with a summary.
type History struct {
	Results []HistoryEntry            `json:"results"`
	Summary examresult.HistorySummary `json:"summary"`
}

func copySession(s *session.Session) session.Session {
	c := *s
	c.Data = s.Data.Clone()
	return c
}

func copySessions(list []*session.Session) []session.Session {
	out := make([]session.Session, len(list))
	for i, s := range list {
		out[i] = copySession(s)
	}
	return out
}

func (w *Workspace) Sessions() SessionList {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sessionListLocked()
}

func (w *Workspace) sessionListLocked() SessionList {
	groups := w.registry.Groups()
	if groups == nil {
		groups = []session.GroupView{}
	}
	return SessionList{
		Sessions: copySessions(w.registry.Sessions()),
		ActiveID: w.registry.ActiveID(),
		Groups:   groups,
	}
}

func (w *Workspace) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stateLocked()
}

func (w *Workspace) stateLocked() State {
	bank := questionbank.New(w.live.RawInput)
	active := w.registry.Active()

	invalid := bank.InvalidAnswers()
	if invalid == nil {
		invalid = []int{}
	}
	questions := bank.Questions
	if questions == nil {
		questions = []questionbank.Question{}
	}

	return State{
		SessionID:      active.ID,
		SessionName:    active.Name,
		Title:          bank.Title,
		Bundle:         w.live.Clone(),
		Questions:      questions,
		InvalidAnswers: invalid,
		Stats:          w.live.Progress.Coverage(len(questions), w.live.Config.Mode),
		NextLabel:      examresult.NextLabel(w.live.History, nil),
		QuizActive:     w.attempt != nil,
	}
}

func (w *Workspace) History() History {
	w.mu.Lock()
	defer w.mu.Unlock()

	labels := examresult.Labels(w.live.History)
	entries := make([]HistoryEntry, 0, len(w.live.History))
	for i := len(w.live.History) - 1; i >= 0; i-- {
		entries = append(entries, newHistoryEntry(w.live.History[i], labels))
	}
	return History{Results: entries, Summary: examresult.Summarize(w.live.History)}
}

func newHistoryEntry(r examresult.ExamResult, labels map[int64]string) HistoryEntry {
	alt := r.AlternateMark()
	return HistoryEntry{
		ExamResult:     r,
		Label:          labels[r.ID],
		Score:          r.Score(r.Mark()),
		AlternateMark:  alt,
		AlternateScore: r.Score(alt),
	}
}

// ============================================================================
// Sessions
// ============================================================================

func (w *Workspace) CreateSession(ctx context.Context) (session.Session, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := w.registry.Create(w.now())
	w.switchLocked()
	return copySession(s), w.saveLocked(ctx)
}

func (w *Workspace) SelectSession(ctx context.Context, sessionID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.registry.Select(sessionID); err != nil {
		return err
	}
	w.switchLocked()
	return w.saveLocked(ctx)
}

func (w *Workspace) DeleteSession(ctx context.Context, sessionID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	wasActive := w.registry.ActiveID() == sessionID
	if err := w.registry.Delete(sessionID); err != nil {
		return err
	}
	if wasActive || w.registry.Len() == 0 {
		w.switchLocked()
	}
	return w.saveLocked(ctx)
}

func (w *Workspace) RenameSession(ctx context.Context, sessionID, name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.registry.Rename(sessionID, name); err != nil {
		return err
	}
	return w.saveLocked(ctx)
}

func (w *Workspace) ToggleFavorite(ctx context.Context, sessionID string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	fav, err := w.registry.ToggleFavorite(sessionID)
	if err != nil {
		return false, err
	}
	return fav, w.saveLocked(ctx)
}

// ClearAll wipes every stored key, including the AI config, and starts
// over with a fresh "Session 1".
func (w *Workspace) ClearAll(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.registry.ClearAll()
	w.switchLocked()
	if err := w.store.ClearAll(ctx); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}
	return w.saveLocked(ctx)
}

// ============================================================================
// Groups
// ============================================================================

func (w *Workspace) CreateGroup(ctx context.Context, sourceID, targetID string) (group.Group, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	g, err := w.registry.CreateGroup(sourceID, targetID, w.now())
	if err != nil {
		return group.Group{}, err
	}
	return *g, w.saveLocked(ctx)
}

// MoveToGroup tags a session with groupID; an empty groupID moves it back
// to the root.
func (w *Workspace) MoveToGroup(ctx context.Context, sessionID, groupID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var err error
	if groupID == "" {
		err = w.registry.MoveToRoot(sessionID)
	} else {
		err = w.registry.MoveToGroup(sessionID, groupID)
	}
	if err != nil {
		return err
	}
	return w.saveLocked(ctx)
}

func (w *Workspace) RenameGroup(ctx context.Context, groupID, name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.registry.RenameGroup(groupID, name); err != nil {
		return err
	}
	return w.saveLocked(ctx)
}

// DeleteGroup deletes the group's member sessions.
func (w *Workspace) DeleteGroup(ctx context.Context, groupID string) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	activeID := w.registry.ActiveID()
	removed, err := w.registry.DeleteGroup(groupID)
	if err != nil {
		return nil, err
	}
	for _, id := range removed {
		if id == activeID {
			w.switchLocked()
			break
		}
	}
	if w.registry.Len() == 0 {
		w.switchLocked()
	}
	return removed, w.saveLocked(ctx)
}

func (w *Workspace) ToggleGroupFavorite(ctx context.Context, groupID string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	fav, err := w.registry.ToggleGroupFavorite(groupID)
	if err != nil {
		return false, err
	}
	return fav, w.saveLocked(ctx)
}

// ============================================================================
// Import / export
// ============================================================================

// ImportOutcome describes what an import did.
type ImportOutcome struct {
	Kind      string       `json:"kind"` // "single" or "batch"
	SessionID string       `json:"sessionId,omitempty"`
	Merged    bool         `json:"merged,omitempty"`
	Imported  int          `json:"imported"`
	Skipped   int          `json:"skipped,omitempty"`
	Group     *group.Group `json:"group,omitempty"`
	Message   string       `json:"message"`
}

// Import applies an uploaded backup. Invalid payloads are rejected whole.
func (w *Workspace) Import(ctx context.Context, data []byte) (*ImportOutcome, error) {
	payload, err := session.ParseImport(data)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	var outcome *ImportOutcome
	switch p := payload.(type) {
	case *session.SingleBackup:
		target, merged := w.registry.ImportSingle(p, w.now())
		w.switchLocked()
		msg := "Session imported as a new session."
		if merged {
			msg = "Session imported into current active session."
		}
		outcome = &ImportOutcome{Kind: "single", SessionID: target.ID, Merged: merged, Imported: 1, Message: msg}
	case *session.SessionBatch:
		g := w.registry.ImportBatch(p, w.now())
		outcome = &ImportOutcome{
			Kind:     "batch",
			Imported: len(p.Sessions),
			Skipped:  p.Skipped,
			Group:    g,
			Message:  fmt.Sprintf("%d sessions imported into %q.", len(p.Sessions), g.Name),
		}
	}

	w.log.Info().
		Str("kind", outcome.Kind).
		Int("imported", outcome.Imported).
		Int("skipped", outcome.Skipped).
		Msg("Import applied")

	return outcome, w.saveLocked(ctx)
}

// Backup returns a session's single-bundle backup and its file name.
func (w *Workspace) Backup(sessionID string) (session.Backup, string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	s, err := w.registry.Find(sessionID)
	if err != nil {
		return session.Backup{}, "", err
	}
	return session.NewBackup(s), session.BackupFilename(s.Name, w.now()), nil
}

// ExportAll returns every session as one array.
func (w *Workspace) ExportAll() ([]session.Session, string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return copySessions(w.registry.Sessions()), session.ExportFilename(w.now())
}

func (w *Workspace) ExportGroup(groupID string) ([]session.Session, string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	members, err := w.registry.Members(groupID)
	if err != nil {
		return nil, "", err
	}
	name := members[0].GroupName
	if name == "" {
		name = group.UnknownName
	}
	return copySessions(members), session.GroupBackupFilename(name), nil
}

// ============================================================================
// Live bundle
// ============================================================================

// SetRawInput replaces the bank text. A change in the parsed question count
// re-applies the suggested limits.
func (w *Workspace) SetRawInput(ctx context.Context, raw string) (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.setRawInputLocked(raw)
	return w.stateLocked(), w.commitLocked(ctx)
}

// AppendRawInput adds generated text on a new line after the current bank.
func (w *Workspace) AppendRawInput(ctx context.Context, text string) (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	raw := strings.TrimSpace(text)
	if strings.TrimSpace(w.live.RawInput) != "" {
		raw = w.live.RawInput + "\n" + raw
	}
	w.setRawInputLocked(raw)
	return w.stateLocked(), w.commitLocked(ctx)
}

func (w *Workspace) setRawInputLocked(raw string) {
	before := len(questionbank.Parse(w.live.RawInput))
	w.live.RawInput = raw
	after := len(questionbank.Parse(raw))
	if after != before {
		w.live.Config = practicesession.ApplySmartDefaults(w.live.Config, after, w.live.Progress)
	}
}

// SetConfig stores a new quiz config. Switching mode re-applies the
// suggested limits; changing only the question limit recomputes the time.
func (w *Workspace) SetConfig(ctx context.Context, cfg practicesession.QuizConfig) (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	prev := w.live.Config
	switch {
	case cfg.Mode != prev.Mode:
		total := len(questionbank.Parse(w.live.RawInput))
		cfg = practicesession.ApplySmartDefaults(cfg, total, w.live.Progress)
	case cfg.QuestionLimit != prev.QuestionLimit && cfg.TimeMinutes == prev.TimeMinutes && cfg.QuestionLimit > 0:
		cfg.TimeMinutes = practicesession.FlexInt(practicesession.TimeForLimit(int(cfg.QuestionLimit)))
	}
	w.live.Config = cfg
	return w.stateLocked(), w.commitLocked(ctx)
}

// Reset clears progress and history and restores the default config.
func (w *Workspace) Reset(ctx context.Context) (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.attempt = nil
	w.live.Progress.Reset()
	w.live.History = []examresult.ExamResult{}
	w.live.Config = practicesession.DefaultConfig()
	return w.stateLocked(), w.commitLocked(ctx)
}

func (w *Workspace) findResultLocked(resultID int64) (int, error) {
	for i := range w.live.History {
		if w.live.History[i].ID == resultID {
			return i, nil
		}
	}
	return -1, ErrResultNotFound
}

// Result returns one result with its label.
func (w *Workspace) Result(resultID int64) (HistoryEntry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	i, err := w.findResultLocked(resultID)
	if err != nil {
		return HistoryEntry{}, err
	}
	return newHistoryEntry(w.live.History[i], examresult.Labels(w.live.History)), nil
}

// UpdateResult changes a result's negative mark and/or name, the only
// fields that may change after submission.
func (w *Workspace) UpdateResult(ctx context.Context, resultID int64, negativeMark *float64, examName *string) (HistoryEntry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	i, err := w.findResultLocked(resultID)
	if err != nil {
		return HistoryEntry{}, err
	}
	updated := w.live.History[i]
	if negativeMark != nil {
		if err := updated.SetNegativeMark(*negativeMark); err != nil {
			return HistoryEntry{}, err
		}
	}
	if examName != nil {
		updated.Rename(*examName)
	}
	w.live.History[i] = updated

	entry := newHistoryEntry(updated, examresult.Labels(w.live.History))
	return entry, w.commitLocked(ctx)
}

// ReviewQuestion returns a reviewed question and the user's choice for it.
func (w *Workspace) ReviewQuestion(resultID int64, index int) (questionbank.Question, string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	i, err := w.findResultLocked(resultID)
	if err != nil {
		return questionbank.Question{}, "", err
	}
	r := w.live.History[i]
	if index < 0 || index >= len(r.Questions) {
		return questionbank.Question{}, "", ErrQuestionIndex
	}
	var choice string
	if index < len(r.UserChoices) {
		choice = r.UserChoices[index]
	}
	return r.Questions[index], choice, nil
}

// WrongAnswers lists the wrongly answered questions of a result.
func (w *Workspace) WrongAnswers(resultID int64) ([]int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	i, err := w.findResultLocked(resultID)
	if err != nil {
		return nil, err
	}
	return w.live.History[i].WrongIndices(), nil
}
