package practicesession

import (
	"errors"
	"math/rand"

	"github.com/examai/backend/internal/domain/questionbank"
)

// ErrNoQuestions is returned when a draw would produce an empty batch.
var ErrNoQuestions = errors.New("no questions available")

// Notice is a user-facing message raised while drawing a batch.
type Notice string

const (
	NoticeNone          Notice = ""
	NoticeSerialRestart Notice = "all questions done, restarting from the first"
	NoticePoolReset     Notice = "random pool exhausted, resetting"
)

// Selection is the outcome of a successful draw.
type Selection struct {
	Batch    []questionbank.Question
	Progress Progress
	Notice   Notice
}

// Draw picks the next batch according to cfg.Mode and returns the updated
// progress. On error the caller's progress must be left unchanged; Draw
// never mutates its inputs.
func Draw(all []questionbank.Question, cfg QuizConfig, progress Progress, rng *rand.Rand) (*Selection, error) {
	if len(all) == 0 {
		return nil, ErrNoQuestions
	}

	limit := cfg.SafeLimit()
	next := progress.Clone()
	notice := NoticeNone
	var batch []questionbank.Question

	switch cfg.Mode {
	case ModeSerial:
		start := next.NextSerialIndex
		if start < 0 || start >= len(all) {
			start = 0
			notice = NoticeSerialRestart
		}
		end := min(start+limit, len(all))
		batch = append([]questionbank.Question(nil), all[start:end]...)
		next.NextSerialIndex = start + len(batch)

	case ModeRandomLimited:
		used := next.usedSet()
		var available []questionbank.Question
		for _, q := range all {
			if _, ok := used[q.OriginalIndex]; !ok {
				available = append(available, q)
			}
		}
		if len(available) == 0 {
			next.UsedRandomIndices = []int{}
			available = append([]questionbank.Question(nil), all...)
			notice = NoticePoolReset
		}
		batch = sample(available, limit, rng)
		for _, q := range batch {
			next.UsedRandomIndices = append(next.UsedRandomIndices, q.OriginalIndex)
		}

	default:
		batch = sample(all, limit, rng)
	}

	if len(batch) == 0 {
		return nil, ErrNoQuestions
	}

	return &Selection{Batch: batch, Progress: next, Notice: notice}, nil
}

// ShuffleBatch shuffles the options of every question in batch, returning
// new values.
func ShuffleBatch(batch []questionbank.Question, rng *rand.Rand) []questionbank.Question {
	out := make([]questionbank.Question, len(batch))
	for i, q := range batch {
		out[i] = q.ShuffleOptions(rng)
	}
	return out
}

// sample returns up to n questions from pool in uniformly random order.
func sample(pool []questionbank.Question, n int, rng *rand.Rand) []questionbank.Question {
	shuffled := shuffleQuestions(pool, rng)
	if n < len(shuffled) {
		shuffled = shuffled[:n]
	}
	return shuffled
}
