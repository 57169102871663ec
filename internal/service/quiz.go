// internal/service/quiz.go
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/examai/backend/internal/domain/examresult"
)

// Event types pushed to quiz subscribers.
const (
	EventStarted   = "started"
	EventTick      = "tick"
	EventSubmitted = "submitted"
	EventAbandoned = "abandoned"
)

// deliveryTimeout bounds how long a lifecycle event waits on a full
// subscriber. Ticks are dropped instead.
const deliveryTimeout = time.Second

// QuizEvent is one update on the running quiz.
type QuizEvent struct {
	Type      string                 `json:"type"`
	AttemptID string                 `json:"attemptId"`
	Remaining int                    `json:"remaining"`
	Auto      bool                   `json:"auto,omitempty"`
	Result    *examresult.ExamResult `json:"result,omitempty"`
}

// QuizRunner drives the countdown of the running quiz and submits it when
// time runs out. Starting a new attempt supersedes the previous timer.
type QuizRunner struct {
	ws   *Workspace
	log  zerolog.Logger
	tick time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	current string
	subs    map[int]chan QuizEvent
	nextID  int
}

// NewQuizRunner creates a runner. tick is the length of one countdown
// second; tests shorten it.
func NewQuizRunner(ws *Workspace, log zerolog.Logger, tick time.Duration) *QuizRunner {
	if tick <= 0 {
		tick = time.Second
	}
	return &QuizRunner{
		ws:   ws,
		log:  log.With().Str("component", "quiz").Logger(),
		tick: tick,
		subs: make(map[int]chan QuizEvent),
	}
}

// Start draws a batch and starts its countdown.
func (q *QuizRunner) Start(ctx context.Context) (*Attempt, error) {
	a, err := q.ws.StartExam(ctx)
	if err != nil {
		return nil, err
	}
	q.run(a)
	return a, nil
}

// Retake replays a result and starts its countdown.
func (q *QuizRunner) Retake(ctx context.Context, resultID int64) (*Attempt, error) {
	a, err := q.ws.Retake(ctx, resultID)
	if err != nil {
		return nil, err
	}
	q.run(a)
	return a, nil
}

// Submit stops the countdown and submits the running quiz.
func (q *QuizRunner) Submit(ctx context.Context) (*examresult.ExamResult, error) {
	q.stop()
	id := q.ws.AttemptID()
	r, err := q.ws.Submit(ctx)
	if r != nil {
		q.publish(QuizEvent{Type: EventSubmitted, AttemptID: id, Result: r})
	}
	return r, err
}

// Abandon stops the countdown and discards the running quiz.
func (q *QuizRunner) Abandon() error {
	q.stop()
	id := q.ws.AttemptID()
	if err := q.ws.Abandon(); err != nil {
		return err
	}
	q.publish(QuizEvent{Type: EventAbandoned, AttemptID: id})
	return nil
}

// Subscribe returns a channel of quiz events and a function that ends the
// subscription. Slow subscribers miss ticks.
func (q *QuizRunner) Subscribe() (<-chan QuizEvent, func()) {
	q.mu.Lock()
	defer q.mu.Unlock()

	ch := make(chan QuizEvent, 16)
	id := q.nextID
	q.nextID++
	q.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			q.mu.Lock()
			delete(q.subs, id)
			q.mu.Unlock()
			close(ch)
		})
	}
}

func (q *QuizRunner) publish(ev QuizEvent) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, ch := range q.subs {
		if ev.Type == EventTick {
			select {
			case ch <- ev:
			default:
			}
			continue
		}
		select {
		case ch <- ev:
		case <-time.After(deliveryTimeout):
		}
	}
}

// Close stops any running countdown.
func (q *QuizRunner) Close() {
	q.stop()
}

// Reconcile stops the countdown when the workspace dropped its attempt,
// for example after switching sessions.
func (q *QuizRunner) Reconcile() {
	q.mu.Lock()
	id := q.current
	q.mu.Unlock()

	if id == "" || q.ws.AttemptID() == id {
		return
	}
	if prev := q.stop(); prev != "" {
		q.publish(QuizEvent{Type: EventAbandoned, AttemptID: prev})
	}
}

// stop cancels the countdown, waits for it to exit and returns the attempt
// it was timing.
func (q *QuizRunner) stop() string {
	q.mu.Lock()
	cancel, done, id := q.cancel, q.done, q.current
	q.cancel, q.done, q.current = nil, nil, ""
	q.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return id
}

// release is stop for the countdown goroutine itself. It reports whether
// attemptID was still the timed attempt.
func (q *QuizRunner) release(attemptID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.current != attemptID {
		return false
	}
	q.cancel()
	q.cancel, q.done, q.current = nil, nil, ""
	return true
}

func (q *QuizRunner) run(a *Attempt) {
	q.stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	q.mu.Lock()
	q.cancel, q.done, q.current = cancel, done, a.ID
	q.mu.Unlock()

	q.publish(QuizEvent{Type: EventStarted, AttemptID: a.ID, Remaining: a.TimeLimitSeconds})
	go q.countdown(ctx, done, a.ID, a.TimeLimitSeconds)
}

func (q *QuizRunner) countdown(ctx context.Context, done chan struct{}, attemptID string, remaining int) {
	defer close(done)

	ticker := time.NewTicker(q.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if q.ws.AttemptID() != attemptID {
			if q.release(attemptID) {
				q.publish(QuizEvent{Type: EventAbandoned, AttemptID: attemptID})
			}
			return
		}
		remaining--
		if remaining > 0 {
			q.publish(QuizEvent{Type: EventTick, AttemptID: attemptID, Remaining: remaining})
			continue
		}

		r, err := q.ws.SubmitAttempt(context.Background(), attemptID)
		owned := q.release(attemptID)
		if err != nil && !errors.Is(err, ErrNoActiveQuiz) {
			q.log.Error().Err(err).Str("attempt", attemptID).Msg("Auto-submit failed to persist")
		}
		switch {
		case r != nil:
			q.log.Info().Str("attempt", attemptID).Msg("Time up, exam auto-submitted")
			q.publish(QuizEvent{Type: EventSubmitted, AttemptID: attemptID, Auto: true, Result: r})
		case owned:
			q.publish(QuizEvent{Type: EventAbandoned, AttemptID: attemptID})
		}
		return
	}
}
