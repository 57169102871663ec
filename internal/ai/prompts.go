package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/examai/backend/internal/domain/questionbank"
)

// Fallback replies shown when the provider returns no text.
const (
	FallbackExplanation = "দুঃখিত, ব্যাখ্যা সম্ভব হয়নি।"
	FallbackChatReply   = "দুঃখিত।"
)

const defaultGenerationInstruction = "Analyze input and generate questions."

// GenerationPrompt asks for Bengali MCQs in the question-bank text format.
// A title line is requested only when the bank is still empty.
func GenerationPrompt(instruction string, withTitle bool) string {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		instruction = defaultGenerationInstruction
	}

	format := "List questions:"
	if withTitle {
		format = "1. The VERY FIRST line MUST be Exam Name wrapped in triple asterisks. Example: ***History***\n2. Then list questions:"
	}

	return fmt.Sprintf(`TASK: Generate Multiple Choice Questions (MCQs) in Bengali based on the provided content.
USER PROMPT: %s

VISUAL RULES:
1. ONLY use [icon:IconName] or [img:Source] if analyzing provided images or logic requires it.
2. DO NOT add decorative icons to standard text.

STRICT FORMAT:
%s
Question | Opt A | Opt B | Opt C | Opt D | CorrectKey ###
CorrectKey: %s, %s, %s, or %s.`,
		instruction, format,
		questionbank.OptionLabels[0], questionbank.OptionLabels[1], questionbank.OptionLabels[2], questionbank.OptionLabels[3])
}

// FileText wraps an uploaded text file for the generation request.
func FileText(name, content string) Part {
	return Part{Text: fmt.Sprintf("\n\n--- File: %s ---\n%s\n", name, content)}
}

// TutorContext describes one reviewed question and the user's answer.
func TutorContext(q questionbank.Question, choice string) string {
	opts, _ := json.Marshal(q.Options)

	userLabel, userText := "None", "Skipped"
	if choice != "" {
		userLabel = choice
		userText = q.Options[choice]
	}

	return fmt.Sprintf(
		`CONTEXT: Question: %q, Options: %s, Correct: %q (%s), User: %q (%s). ROLE: Expert Tutor. LANGUAGE: Bengali. FORMAT: No headers, use bold for keys, LaTeX math in single dollar signs.`,
		q.Text, opts, q.Answer, q.CorrectText(), userLabel, userText)
}

// ExplainPrompt requests the initial explanation of a reviewed question.
func ExplainPrompt(q questionbank.Question, choice string) string {
	return TutorContext(q, choice) + "\n\nProvide detailed explanation."
}
