package examresult

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/examai/backend/internal/domain/questionbank"
)

// Supported negative-marking weights.
const (
	MarkQuarter = 0.25
	MarkHalf    = 0.50

	DefaultNegativeMark = MarkQuarter
)

var ErrInvalidNegativeMark = errors.New("negative mark must be 0.25 or 0.50")

// Stats are the aggregate counts of one exam.
type Stats struct {
	Correct int `json:"correct"`
	Wrong   int `json:"wrong"`
	Skipped int `json:"skipped"`
	Total   int `json:"total"`
}

// Choices holds the chosen label per question; "" means skipped and is
// encoded as JSON null.
type Choices []string

func (c Choices) MarshalJSON() ([]byte, error) {
	out := make([]*string, len(c))
	for i := range c {
		if c[i] != "" {
			out[i] = &c[i]
		}
	}
	return json.Marshal(out)
}

func (c *Choices) UnmarshalJSON(b []byte) error {
	var raw []*string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Choices, len(raw))
	for i, v := range raw {
		if v != nil {
			out[i] = *v
		}
	}
	*c = out
	return nil
}

// ExamResult is created once at submission. Only NegativeMark and ExamName
// change afterwards.
type ExamResult struct {
	ID           int64                   `json:"id"`
	Timestamp    int64                   `json:"timestamp"`
	Questions    []questionbank.Question `json:"questions"`
	UserChoices  Choices                 `json:"userChoices"`
	Stats        Stats                   `json:"stats"`
	NegativeMark float64                 `json:"negativeMark"`
	ParentExamID *int64                  `json:"parentExamId,omitempty"`
	ExamName     string                  `json:"examName,omitempty"`
}

// Grade counts correct, wrong and skipped answers. Missing trailing
// choices count as skipped.
func Grade(batch []questionbank.Question, choices Choices) Stats {
	stats := Stats{Total: len(batch)}
	for i, q := range batch {
		var choice string
		if i < len(choices) {
			choice = choices[i]
		}
		switch {
		case choice == "":
			stats.Skipped++
		case choice == q.Answer:
			stats.Correct++
		default:
			stats.Wrong++
		}
	}
	return stats
}

// New grades a submitted batch. The id and timestamp are both the
// submission time in milliseconds.
func New(batch []questionbank.Question, choices Choices, parentExamID *int64, examName string, now time.Time) *ExamResult {
	normalized := make(Choices, len(batch))
	copy(normalized, choices)

	ms := now.UnixMilli()
	return &ExamResult{
		ID:           ms,
		Timestamp:    ms,
		Questions:    batch,
		UserChoices:  normalized,
		Stats:        Grade(batch, normalized),
		NegativeMark: DefaultNegativeMark,
		ParentExamID: parentExamID,
		ExamName:     strings.TrimSpace(examName),
	}
}

// Mark returns the result's negative mark, falling back to the default for
// records that predate the field.
func (r *ExamResult) Mark() float64 {
	if r.NegativeMark == 0 {
		return DefaultNegativeMark
	}
	return r.NegativeMark
}

// Score is correct minus wrong times mark, rounded to two decimals.
func (r *ExamResult) Score(mark float64) float64 {
	return ComputeScore(r.Stats, mark)
}

// ComputeScore applies negative marking to stats.
func ComputeScore(s Stats, mark float64) float64 {
	return roundScore(float64(s.Correct) - float64(s.Wrong)*mark)
}

func roundScore(v float64) float64 {
	return math.Round(v*100) / 100
}

// AlternateMark is the other supported weight.
func (r *ExamResult) AlternateMark() float64 {
	if r.Mark() == MarkQuarter {
		return MarkHalf
	}
	return MarkQuarter
}

// SetNegativeMark changes the weight used for this result's score.
func (r *ExamResult) SetNegativeMark(mark float64) error {
	if mark != MarkQuarter && mark != MarkHalf {
		return ErrInvalidNegativeMark
	}
	r.NegativeMark = mark
	return nil
}

// Rename sets the display name; a blank name clears it.
func (r *ExamResult) Rename(name string) {
	r.ExamName = strings.TrimSpace(name)
}

// RootID is the exam a retake of this result should point at.
func (r *ExamResult) RootID() int64 {
	if r.ParentExamID != nil && *r.ParentExamID != 0 {
		return *r.ParentExamID
	}
	return r.ID
}

// IsRetake reports whether the result replays an earlier exam.
func (r *ExamResult) IsRetake() bool {
	return r.ParentExamID != nil && *r.ParentExamID != 0
}
