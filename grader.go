package topicquiz

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// QuizGrader scores submitted answers against the caller's stored quiz
type QuizGrader struct {
	sessions SessionStore

	recorder  Recorder
	publisher Publisher
	metrics   *Metrics
}

// NewQuizGrader creates a new quiz grader
func NewQuizGrader(sessions SessionStore) *QuizGrader {
	return &QuizGrader{sessions: sessions}
}

// SetRecorder sets the audit recorder
func (g *QuizGrader) SetRecorder(r Recorder) {
	g.recorder = r
}

// SetPublisher sets the event publisher
func (g *QuizGrader) SetPublisher(p Publisher) {
	g.publisher = p
}

// SetMetrics sets the metrics collectors
func (g *QuizGrader) SetMetrics(m *Metrics) {
	g.metrics = m
}

// GradeQuiz grades answers against the quiz stored for callerID. It fails
// only with ErrNoActiveQuiz or a session store error; malformed or out of
// range answers count as unanswered. The session is never modified.
func (g *QuizGrader) GradeQuiz(ctx context.Context, callerID string, answers Answers) (*GradeSummary, error) {
	quiz, ok, err := g.sessions.Get(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz: %w", err)
	}
	if !ok || len(quiz.Questions) == 0 {
		return nil, ErrNoActiveQuiz
	}

	summary := Grade(quiz, answers)

	VerboseLog("Graded quiz %s for %s: %d/%d", quiz.ID, callerID, summary.Score, summary.Total)

	g.metrics.ObserveSubmission(summary.Percentage)
	if g.recorder != nil {
		err := g.recorder.RecordSubmission(ctx, &SubmissionRecord{
			QuizID:     quiz.ID,
			CallerID:   callerID,
			Score:      summary.Score,
			Total:      summary.Total,
			Percentage: summary.Percentage,
			CreatedAt:  time.Now().UTC(),
		})
		if err != nil {
			log.Printf("Failed to record submission for quiz %s: %v", quiz.ID, err)
		}
	}
	if g.publisher != nil {
		err := g.publisher.Publish(EventQuizGraded, QuizGradedPayload{
			QuizID:     quiz.ID,
			CallerID:   callerID,
			Score:      summary.Score,
			Total:      summary.Total,
			Percentage: summary.Percentage,
		})
		if err != nil {
			log.Printf("Failed to publish %s: %v", EventQuizGraded, err)
		}
	}

	return summary, nil
}

// Grade scores answers against quiz, in quiz order.
func Grade(quiz *QuizSet, answers Answers) *GradeSummary {
	summary := &GradeSummary{
		Total:   len(quiz.Questions),
		Results: make([]GradeResult, 0, len(quiz.Questions)),
	}

	for _, q := range quiz.Questions {
		selected := -1
		if answer, ok := answers[strconv.Itoa(q.ID)]; ok {
			selected = answer.Index()
		}

		result := GradeResult{
			Question:   q.Question,
			Correct:    selected == q.Correct,
			UserAnswer: NoAnswer,
		}
		if q.Correct >= 0 && q.Correct < len(q.Options) {
			result.CorrectAnswer = q.Options[q.Correct]
		}
		if selected >= 0 && selected < len(q.Options) {
			result.UserAnswer = q.Options[selected]
		}
		if selected >= 0 && selected < len(q.Reasoning) {
			result.Reasoning = q.Reasoning[selected]
		}

		if result.Correct {
			summary.Score++
		}
		summary.Results = append(summary.Results, result)
	}

	summary.Percentage = percentage(summary.Score, summary.Total)
	return summary
}

// percentage returns score/total*100 rounded to one decimal place
func percentage(score, total int) float64 {
	if total == 0 {
		return 0
	}
	return decimal.NewFromInt(int64(score)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(1).
		InexactFloat64()
}
