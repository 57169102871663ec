// internal/service/attempt.go
package service

import (
	"context"
	"time"

	"github.com/examai/backend/internal/domain/examresult"
	practicesession "github.com/examai/backend/internal/domain/practice_session"
	"github.com/examai/backend/internal/domain/questionbank"
)

// Attempt is the quiz currently being taken. Only one exists at a time.
type Attempt struct {
	ID               string                  `json:"id"`
	SessionID        string                  `json:"sessionId"`
	Label            string                  `json:"label"`
	Notice           practicesession.Notice  `json:"notice,omitempty"`
	Questions        []questionbank.Question `json:"questions"`
	Answers          examresult.Choices      `json:"answers"`
	TimeLimitSeconds int                     `json:"timeLimitSeconds"`
	StartedAt        time.Time               `json:"startedAt"`
	Deadline         time.Time               `json:"deadline"`
	ParentExamID     *int64                  `json:"parentExamId,omitempty"`
	ExamName         string                  `json:"examName,omitempty"`
}

func (a *Attempt) clone() *Attempt {
	c := *a
	c.Questions = append([]questionbank.Question(nil), a.Questions...)
	c.Answers = append(examresult.Choices(nil), a.Answers...)
	if a.ParentExamID != nil {
		root := *a.ParentExamID
		c.ParentExamID = &root
	}
	return &c
}

func (w *Workspace) newAttemptLocked(ps *practicesession.PracticeSession, notice practicesession.Notice) *Attempt {
	return &Attempt{
		ID:               ps.ID,
		SessionID:        w.registry.ActiveID(),
		Label:            examresult.NextLabel(w.live.History, ps.ParentExamID),
		Notice:           notice,
		Questions:        ps.Questions,
		Answers:          make(examresult.Choices, len(ps.Questions)),
		TimeLimitSeconds: int(ps.TimeLimit / time.Second),
		StartedAt:        ps.StartedAt,
		Deadline:         ps.StartedAt.Add(ps.TimeLimit),
		ParentExamID:     ps.ParentExamID,
		ExamName:         ps.ExamName,
	}
}

// StartExam draws the next batch from the bank and starts a quiz. Progress
// advances immediately; a failed draw leaves it unchanged.
func (w *Workspace) StartExam(ctx context.Context) (*Attempt, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	bank := questionbank.New(w.live.RawInput)
	sel, err := practicesession.Draw(bank.Questions, w.live.Config, w.live.Progress, w.rng)
	if err != nil {
		return nil, err
	}

	w.live.Progress = sel.Progress
	ps := practicesession.New(sel.Batch, w.live.Config, bank.Title, w.rng, w.now())
	w.attempt = w.newAttemptLocked(ps, sel.Notice)

	w.log.Info().
		Str("attempt", ps.ID).
		Int("questions", len(ps.Questions)).
		Str("mode", string(w.live.Config.Mode)).
		Msg("Exam started")

	return w.attempt.clone(), w.commitLocked(ctx)
}

// Retake replays a result's questions. The new attempt links to the root of
// the retake chain.
func (w *Workspace) Retake(ctx context.Context, resultID int64) (*Attempt, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	i, err := w.findResultLocked(resultID)
	if err != nil {
		return nil, err
	}
	r := w.live.History[i]
	if len(r.Questions) == 0 {
		return nil, practicesession.ErrNoQuestions
	}

	ps := practicesession.NewRetake(r.Questions, r.RootID(), r.ExamName, w.rng, w.now())
	w.attempt = w.newAttemptLocked(ps, practicesession.NoticeNone)

	w.log.Info().
		Str("attempt", ps.ID).
		Int64("root", r.RootID()).
		Msg("Retake started")

	return w.attempt.clone(), nil
}

// Attempt returns the running quiz.
func (w *Workspace) Attempt() (*Attempt, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.attempt == nil {
		return nil, ErrNoActiveQuiz
	}
	return w.attempt.clone(), nil
}

// AttemptID returns the running quiz id, or "" when none is running.
func (w *Workspace) AttemptID() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.attempt == nil {
		return ""
	}
	return w.attempt.ID
}

// Answer records the choice for question index. An empty label clears it.
func (w *Workspace) Answer(index int, label string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.attempt == nil {
		return ErrNoActiveQuiz
	}
	if index < 0 || index >= len(w.attempt.Answers) {
		return ErrQuestionIndex
	}
	if label != "" && !isOptionLabel(label) {
		return ErrInvalidLabel
	}
	w.attempt.Answers[index] = label
	return nil
}

func isOptionLabel(label string) bool {
	for _, l := range questionbank.OptionLabels {
		if l == label {
			return true
		}
	}
	return false
}

// Submit grades the running quiz and appends it to history.
func (w *Workspace) Submit(ctx context.Context) (*examresult.ExamResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.attempt == nil {
		return nil, ErrNoActiveQuiz
	}
	return w.submitLocked(ctx)
}

// SubmitAttempt submits only if attemptID is still the running quiz, so a
// late timer cannot submit a newer attempt.
func (w *Workspace) SubmitAttempt(ctx context.Context, attemptID string) (*examresult.ExamResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.attempt == nil || w.attempt.ID != attemptID {
		return nil, ErrNoActiveQuiz
	}
	return w.submitLocked(ctx)
}

func (w *Workspace) submitLocked(ctx context.Context) (*examresult.ExamResult, error) {
	a := w.attempt
	w.attempt = nil

	r := examresult.New(a.Questions, a.Answers, a.ParentExamID, a.ExamName, w.now())
	for w.resultIDTaken(r.ID) {
		r.ID++
	}
	w.live.History = append(w.live.History, *r)

	w.log.Info().
		Str("attempt", a.ID).
		Int64("result", r.ID).
		Int("correct", r.Stats.Correct).
		Int("wrong", r.Stats.Wrong).
		Int("skipped", r.Stats.Skipped).
		Msg("Exam submitted")

	return r, w.commitLocked(ctx)
}

func (w *Workspace) resultIDTaken(id int64) bool {
	_, err := w.findResultLocked(id)
	return err == nil
}

// Abandon discards the running quiz without recording it.
func (w *Workspace) Abandon() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.attempt == nil {
		return ErrNoActiveQuiz
	}
	w.log.Info().Str("attempt", w.attempt.ID).Msg("Exam abandoned")
	w.attempt = nil
	return nil
}
