package topicquiz

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// QuestionsPerQuiz is the number of questions in every generated quiz.
	QuestionsPerQuiz = 5
	// OptionsPerQuestion is the number of answer options (and reasoning strings) per question.
	OptionsPerQuestion = 4

	// NoAnswer is reported as the user's answer when no valid option index was submitted.
	NoAnswer = "No answer"
)

// QuizQuestion is a single multiple choice question of a generated quiz
type QuizQuestion struct {
	ID        int      `json:"id"` // 1-based position in the quiz
	Question  string   `json:"question"`
	Options   []string `json:"options"`
	Correct   int      `json:"correct"` // 0-based index into Options
	Reasoning []string `json:"reasoning"`
}

// QuizSet is the unit stored in a caller's session and returned from generation
type QuizSet struct {
	ID        string         `json:"id"`
	Topic     string         `json:"topic"`
	CreatedAt time.Time      `json:"created_at"`
	Questions []QuizQuestion `json:"questions"`
}

// GradeResult is the outcome for one question of a graded submission
type GradeResult struct {
	Question      string `json:"question"`
	Correct       bool   `json:"correct"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
	Reasoning     string `json:"reasoning"`
}

// GradeSummary is the aggregate outcome of a graded submission
type GradeSummary struct {
	Score      int           `json:"score"`
	Total      int           `json:"total"`
	Percentage float64       `json:"percentage"`
	Results    []GradeResult `json:"results"`
}

// Answers maps question ids (as strings) to the selected option index
type Answers map[string]AnswerValue

// AnswerValue is a submitted option index. Values that are not integers decode
// to an unanswered value instead of failing the whole submission.
type AnswerValue struct {
	index int
	valid bool
}

// Answer returns an AnswerValue selecting the given option index.
func Answer(index int) AnswerValue {
	return AnswerValue{index: index, valid: true}
}

// Index returns the selected index, or -1 when the value was not an integer.
func (a AnswerValue) Index() int {
	if !a.valid {
		return -1
	}
	return a.index
}

// UnmarshalJSON accepts integers, integral floats and numeric strings.
func (a *AnswerValue) UnmarshalJSON(data []byte) error {
	*a = AnswerValue{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}

	if n, err := strconv.Atoi(raw); err == nil {
		*a = Answer(n)
		return nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f == math.Trunc(f) && !math.IsInf(f, 0) {
		if f >= math.MinInt32 && f <= math.MaxInt32 {
			*a = Answer(int(f))
		}
	}
	return nil
}

// MarshalJSON writes the index, or null for an unanswered value.
func (a AnswerValue) MarshalJSON() ([]byte, error) {
	if !a.valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(a.index)), nil
}

// ValidationResult represents the result of checking a generated question
type ValidationResult struct {
	QuestionID      int              `json:"question_id"`
	Action          ValidationAction `json:"action"`
	Reason          string           `json:"reason"`
	RevisedQuestion *QuizQuestion    `json:"revised_question,omitempty"`
}

// ValidationAction represents what the checker decided to do
type ValidationAction string

const (
	ActionAccept ValidationAction = "accept"
	ActionReject ValidationAction = "reject"
	ActionRevise ValidationAction = "revise"
)

// GenerationRequest represents a request to generate a quiz
type GenerationRequest struct {
	CallerID string `json:"caller_id"`
	Topic    string `json:"topic"`
}
