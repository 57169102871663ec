package practicesession

import (
	"math/rand"
	"time"

	"github.com/examai/backend/internal/domain/questionbank"
	"github.com/examai/backend/internal/id"
)

// PracticeSession is one quiz attempt: the exact batch presented, with any
// shuffled options baked in, and the limits it runs under.
type PracticeSession struct {
	ID           string
	Questions    []questionbank.Question
	TimeLimit    time.Duration
	ParentExamID *int64 // root exam id when this is a retake
	ExamName     string
	StartedAt    time.Time
}

// IsRetake reports whether the attempt replays an earlier exam.
func (ps *PracticeSession) IsRetake() bool {
	return ps.ParentExamID != nil
}

// New creates an attempt from a drawn batch. Options are shuffled when the
// config asks for it.
func New(batch []questionbank.Question, config QuizConfig, examName string, rng *rand.Rand, now time.Time) *PracticeSession {
	questions := batch
	if config.ShuffleOptions {
		questions = ShuffleBatch(batch, rng)
	}

	return &PracticeSession{
		ID:        id.GenerateID(),
		Questions: questions,
		TimeLimit: time.Duration(config.SafeTime()) * time.Minute,
		ExamName:  examName,
		StartedAt: now,
	}
}

// NewRetake replays questions in a new order with options always reshuffled.
// rootID must already be the root of the retake chain.
func NewRetake(questions []questionbank.Question, rootID int64, examName string, rng *rand.Rand, now time.Time) *PracticeSession {
	batch := ShuffleBatch(shuffleQuestions(questions, rng), rng)
	root := rootID

	return &PracticeSession{
		ID:           id.GenerateID(),
		Questions:    batch,
		TimeLimit:    time.Duration(TimeForLimit(len(batch))) * time.Minute,
		ParentExamID: &root,
		ExamName:     examName,
		StartedAt:    now,
	}
}

// shuffleQuestions returns a new slice with questions in random order.
func shuffleQuestions(questions []questionbank.Question, rng *rand.Rand) []questionbank.Question {
	shuffled := make([]questionbank.Question, len(questions))
	copy(shuffled, questions)

	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	return shuffled
}
