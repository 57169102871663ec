package questionbank

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const (
	BlockDelimiter = "###"
	FieldDelimiter = "|"
	TitleMarker    = "***"

	// fieldCount is question, four options, correct label.
	fieldCount = 6
)

// OptionLabels is the fixed label set, in display order.
var OptionLabels = [4]string{"ক", "খ", "গ", "ঘ"}

var (
	titlePattern       = regexp.MustCompile(`^\s*\*\*\*(.+?)\*\*\*`)
	titleHeaderPattern = regexp.MustCompile(`^\s*\*\*\*.+?\*\*\*\s*`)
)

// QuestionBank is the parsed form of a session's raw input text.
type QuestionBank struct {
	Title     string
	Questions []Question
}

// New parses raw text into a bank. It never fails: malformed blocks are
// dropped and a missing title leaves Title empty.
func New(raw string) *QuestionBank {
	title, _ := ExtractTitle(raw)
	return &QuestionBank{
		Title:     title,
		Questions: Parse(raw),
	}
}

// InvalidAnswers returns the original indices of questions whose correct
// label does not name any of the four options.
func (qb *QuestionBank) InvalidAnswers() []int {
	var out []int
	for _, q := range qb.Questions {
		if !q.HasValidAnswer() {
			out = append(out, q.OriginalIndex)
		}
	}
	return out
}

// ExtractTitle returns the text between a leading ***...*** pair.
func ExtractTitle(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	m := titlePattern.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	title := strings.TrimSpace(m[1])
	if title == "" {
		return "", false
	}
	return title, true
}

// Parse converts delimited text into questions. Blocks with fewer than six
// fields are skipped; OriginalIndex counts surviving blocks only.
func Parse(raw string) []Question {
	if raw == "" {
		return []Question{}
	}

	body := titleHeaderPattern.ReplaceAllString(raw, "")

	questions := []Question{}
	for _, block := range strings.Split(body, BlockDelimiter) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		parts := strings.Split(block, FieldDelimiter)
		if len(parts) < fieldCount {
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		index := len(questions)
		opts := make(Options, len(OptionLabels))
		for i, label := range OptionLabels {
			opts[label] = parts[i+1]
		}

		questions = append(questions, Question{
			ID:            questionID(index, block),
			OriginalIndex: index,
			Text:          parts[0],
			Options:       opts,
			Answer:        parts[5],
		})
	}
	return questions
}

// Format renders questions back into the delimited text format.
func Format(title string, questions []Question) string {
	blocks := make([]string, 0, len(questions))
	for _, q := range questions {
		fields := make([]string, 0, fieldCount)
		fields = append(fields, q.Text)
		fields = append(fields, q.Options.Values()...)
		fields = append(fields, q.Answer)
		blocks = append(blocks, strings.Join(fields, " "+FieldDelimiter+" "))
	}
	if len(blocks) == 0 {
		return ""
	}

	var b strings.Builder
	if title != "" {
		b.WriteString(TitleMarker + title + TitleMarker + "\n")
	}
	b.WriteString(strings.Join(blocks, " "+BlockDelimiter+" "))
	b.WriteString(" " + BlockDelimiter)
	return b.String()
}

func questionID(index int, block string) string {
	return fmt.Sprintf("q-%d-%016x", index, xxhash.Sum64String(block))
}
