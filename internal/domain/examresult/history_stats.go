package examresult

import "sort"

// QuestionStats tracks how one question has fared across the history.
type QuestionStats struct {
	QuestionID    string `json:"questionId"`
	Text          string `json:"text"`
	TimesAnswered int    `json:"timesAnswered"`
	TimesCorrect  int    `json:"timesCorrect"`
	TimesSkipped  int    `json:"timesSkipped"`
	LatestCorrect bool   `json:"latestCorrect"`
	Mastery       int    `json:"mastery"` // 0-100
}

// CalculateMastery weighs the latest attempt at 60% and the earlier
// attempts' accuracy at 40%.
func (qs *QuestionStats) CalculateMastery() int {
	if qs.TimesAnswered == 0 {
		return 0
	}

	latest := 0
	if qs.LatestCorrect {
		latest = 100
	}
	if qs.TimesAnswered == 1 {
		return latest
	}

	earlierCorrect := qs.TimesCorrect
	if qs.LatestCorrect {
		earlierCorrect--
	}
	historicalAvg := float64(earlierCorrect) * 100 / float64(qs.TimesAnswered-1)

	mastery := int(float64(latest)*0.6 + historicalAvg*0.4)
	if mastery > 100 {
		mastery = 100
	}
	if mastery < 0 {
		mastery = 0
	}
	return mastery
}

// HistorySummary aggregates a session's exam history.
type HistorySummary struct {
	Exams        int             `json:"exams"`
	Retakes      int             `json:"retakes"`
	Correct      int             `json:"correct"`
	Wrong        int             `json:"wrong"`
	Skipped      int             `json:"skipped"`
	AverageScore float64         `json:"averageScore"`
	BestScore    float64         `json:"bestScore"`
	Weakest      []QuestionStats `json:"weakest"`
}

// weakestLimit caps how many low-mastery questions a summary lists.
const weakestLimit = 10

// Summarize walks history oldest first so the latest attempt per question
// is the one that counts as "latest".
func Summarize(history []ExamResult) HistorySummary {
	var summary HistorySummary
	if len(history) == 0 {
		return summary
	}

	sorted := make([]ExamResult, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	perQuestion := make(map[string]*QuestionStats)
	var order []string
	var scoreSum float64

	for i, exam := range sorted {
		summary.Exams++
		if exam.IsRetake() {
			summary.Retakes++
		}
		summary.Correct += exam.Stats.Correct
		summary.Wrong += exam.Stats.Wrong
		summary.Skipped += exam.Stats.Skipped

		score := exam.Score(exam.Mark())
		scoreSum += score
		if i == 0 || score > summary.BestScore {
			summary.BestScore = score
		}

		for qi, q := range exam.Questions {
			qs, ok := perQuestion[q.ID]
			if !ok {
				qs = &QuestionStats{QuestionID: q.ID, Text: q.Text}
				perQuestion[q.ID] = qs
				order = append(order, q.ID)
			}
			var choice string
			if qi < len(exam.UserChoices) {
				choice = exam.UserChoices[qi]
			}
			if choice == "" {
				qs.TimesSkipped++
				continue
			}
			qs.TimesAnswered++
			qs.LatestCorrect = choice == q.Answer
			if qs.LatestCorrect {
				qs.TimesCorrect++
			}
		}
	}

	summary.AverageScore = roundScore(scoreSum / float64(summary.Exams))

	var answered []QuestionStats
	for _, id := range order {
		qs := perQuestion[id]
		if qs.TimesAnswered == 0 {
			continue
		}
		qs.Mastery = qs.CalculateMastery()
		answered = append(answered, *qs)
	}
	sort.SliceStable(answered, func(i, j int) bool {
		return answered[i].Mastery < answered[j].Mastery
	})
	for _, qs := range answered {
		if len(summary.Weakest) == weakestLimit || qs.Mastery == 100 {
			break
		}
		summary.Weakest = append(summary.Weakest, qs)
	}
	return summary
}
