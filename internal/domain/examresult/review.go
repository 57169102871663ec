package examresult

import "github.com/examai/backend/internal/domain/questionbank"

// Outcome classifies a single answered question.
type Outcome string

const (
	OutcomeCorrect Outcome = "correct"
	OutcomeWrong   Outcome = "wrong"
	OutcomeSkipped Outcome = "skipped"
)

// Filter selects which outcomes a review shows. FilterAll shows everything.
type Filter string

const (
	FilterAll     Filter = "all"
	FilterCorrect Filter = "correct"
	FilterWrong   Filter = "wrong"
	FilterSkipped Filter = "skipped"
)

func (f Filter) Valid() bool {
	switch f {
	case FilterAll, FilterCorrect, FilterWrong, FilterSkipped, "":
		return true
	}
	return false
}

func (f Filter) matches(o Outcome) bool {
	return f == FilterAll || f == "" || Outcome(f) == o
}

// ReviewItem is one question as shown on the review screen.
type ReviewItem struct {
	Index       int                   `json:"index"`
	Question    questionbank.Question `json:"question"`
	Choice      string                `json:"choice,omitempty"`
	Outcome     Outcome               `json:"outcome"`
	CorrectText string                `json:"correctText"`
}

// OutcomeAt reports how the question at index was answered.
func (r *ExamResult) OutcomeAt(index int) Outcome {
	var choice string
	if index < len(r.UserChoices) {
		choice = r.UserChoices[index]
	}
	switch {
	case choice == "":
		return OutcomeSkipped
	case choice == r.Questions[index].Answer:
		return OutcomeCorrect
	default:
		return OutcomeWrong
	}
}

// Review lists the result's questions matching filter, keeping their
// positions in the exam.
func (r *ExamResult) Review(filter Filter) []ReviewItem {
	items := make([]ReviewItem, 0, len(r.Questions))
	for i, q := range r.Questions {
		outcome := r.OutcomeAt(i)
		if !filter.matches(outcome) {
			continue
		}
		var choice string
		if i < len(r.UserChoices) {
			choice = r.UserChoices[i]
		}
		items = append(items, ReviewItem{
			Index:       i,
			Question:    q,
			Choice:      choice,
			Outcome:     outcome,
			CorrectText: q.CorrectText(),
		})
	}
	return items
}

// WrongIndices returns the positions of wrongly answered questions.
func (r *ExamResult) WrongIndices() []int {
	var out []int
	for i := range r.Questions {
		if r.OutcomeAt(i) == OutcomeWrong {
			out = append(out, i)
		}
	}
	return out
}
