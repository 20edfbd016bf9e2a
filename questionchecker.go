package topicquiz

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// QuestionChecker validates the structure of generated questions. It never
// calls an LLM: a question is accepted, revised when only whitespace needed
// normalising, or rejected when its shape cannot be repaired.
type QuestionChecker struct{}

// NewQuestionChecker creates a new question checker
func NewQuestionChecker() *QuestionChecker {
	return &QuestionChecker{}
}

// CheckQuestion validates a single question and returns the validation result
func (qc *QuestionChecker) CheckQuestion(question *QuizQuestion, logger *LLMLogger) *ValidationResult {
	result := qc.check(question)

	if logger != nil {
		logger.LogQuestionResult(question.ID, string(result.Action), result.Reason)
	}

	VerboseLog("Question %d: %s - %s", question.ID, result.Action, result.Reason)
	return result
}

func (qc *QuestionChecker) check(question *QuizQuestion) *ValidationResult {
	reject := func(format string, args ...interface{}) *ValidationResult {
		return &ValidationResult{
			QuestionID: question.ID,
			Action:     ActionReject,
			Reason:     fmt.Sprintf(format, args...),
		}
	}

	revised := &QuizQuestion{
		ID:        question.ID,
		Question:  strings.TrimSpace(question.Question),
		Options:   lo.Map(question.Options, trimString),
		Correct:   question.Correct,
		Reasoning: lo.Map(question.Reasoning, trimString),
	}

	if revised.Question == "" {
		return reject("question text is empty")
	}
	if len(revised.Options) != OptionsPerQuestion {
		return reject("expected %d options, got %d", OptionsPerQuestion, len(revised.Options))
	}
	if len(revised.Reasoning) != OptionsPerQuestion {
		return reject("expected %d reasoning strings, got %d", OptionsPerQuestion, len(revised.Reasoning))
	}
	if revised.Correct < 0 || revised.Correct >= OptionsPerQuestion {
		return reject("correct index %d out of range", revised.Correct)
	}
	if lo.Contains(revised.Options, "") {
		return reject("empty answer option")
	}
	if lo.Contains(revised.Reasoning, "") {
		return reject("empty reasoning string")
	}
	if len(lo.Uniq(lo.Map(revised.Options, lowerString))) != len(revised.Options) {
		return reject("answer options are not distinct")
	}

	if revised.Question != question.Question ||
		!slices.Equal(revised.Options, question.Options) ||
		!slices.Equal(revised.Reasoning, question.Reasoning) {
		return &ValidationResult{
			QuestionID:      question.ID,
			Action:          ActionRevise,
			Reason:          "normalised surrounding whitespace",
			RevisedQuestion: revised,
		}
	}

	return &ValidationResult{
		QuestionID: question.ID,
		Action:     ActionAccept,
		Reason:     "well-formed",
	}
}

func trimString(s string, _ int) string {
	return strings.TrimSpace(s)
}

func lowerString(s string, _ int) string {
	return strings.ToLower(s)
}

