package topicquiz

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultGenerationTimeout bounds a single provider call.
const DefaultGenerationTimeout = 60 * time.Second

// QuizGenerator generates a quiz for a topic and stores it in the caller's session
type QuizGenerator struct {
	maker    *QuestionMaker
	sessions SessionStore
	timeout  time.Duration
	traceDir string

	recorder  Recorder
	publisher Publisher
	metrics   *Metrics
	now       func() time.Time
}

// NewQuizGenerator creates a new quiz generator
func NewQuizGenerator(maker *QuestionMaker, sessions SessionStore) *QuizGenerator {
	return &QuizGenerator{
		maker:    maker,
		sessions: sessions,
		timeout:  DefaultGenerationTimeout,
		now:      time.Now,
	}
}

// SetTimeout sets the bound of the provider call; d <= 0 restores the default.
func (qg *QuizGenerator) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultGenerationTimeout
	}
	qg.timeout = d
}

// SetTraceDir enables per-quiz LLM trace files in dir
func (qg *QuizGenerator) SetTraceDir(dir string) {
	qg.traceDir = dir
}

// SetRecorder sets the audit recorder
func (qg *QuizGenerator) SetRecorder(r Recorder) {
	qg.recorder = r
}

// SetPublisher sets the event publisher
func (qg *QuizGenerator) SetPublisher(p Publisher) {
	qg.publisher = p
}

// SetMetrics sets the metrics collectors
func (qg *QuizGenerator) SetMetrics(m *Metrics) {
	qg.metrics = m
}

// GenerateQuiz generates a quiz on topic for callerID and replaces the
// caller's stored quiz with it. An empty topic fails with ErrInvalidInput
// before any provider call; every later failure is a *GenerationError and
// leaves the session untouched.
func (qg *QuizGenerator) GenerateQuiz(ctx context.Context, callerID, topic string) (*QuizSet, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrInvalidInput
	}

	req := GenerationRequest{CallerID: callerID, Topic: topic}
	quizID := uuid.NewString()

	log.Printf("Starting quiz generation %s for topic: %s", quizID, topic)

	var logger *LLMLogger
	if qg.traceDir != "" {
		var err error
		logger, err = NewLLMLogger(qg.traceDir, quizID, req)
		if err != nil {
			log.Printf("Failed to create trace log for quiz %s: %v", quizID, err)
		} else {
			defer logger.Close()
		}
	}

	genCtx, cancel := context.WithTimeout(ctx, qg.timeout)
	defer cancel()

	started := qg.now()
	questions, err := qg.maker.GenerateQuestions(genCtx, req, logger)
	elapsed := qg.now().Sub(started)

	if err != nil {
		if errors.Is(genCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = transportError("provider did not respond within %s: %w", qg.timeout, err)
		}
		return nil, qg.fail(ctx, quizID, req, elapsed, err, logger)
	}

	quiz := &QuizSet{
		ID:        quizID,
		Topic:     topic,
		CreatedAt: qg.now().UTC(),
		Questions: questions,
	}
	for i := range quiz.Questions {
		quiz.Questions[i].ID = i + 1
	}

	if err := qg.sessions.Put(ctx, callerID, quiz); err != nil {
		return nil, qg.fail(ctx, quizID, req, elapsed, err, logger)
	}

	qg.metrics.ObserveGeneration(GenerationSucceeded, elapsed)
	qg.record(ctx, &GenerationRecord{
		QuizID:        quizID,
		CallerID:      callerID,
		Topic:         topic,
		Provider:      qg.maker.provider.Name(),
		Status:        GenerationSucceeded,
		QuestionCount: len(quiz.Questions),
		CreatedAt:     quiz.CreatedAt,
	})
	qg.publish(EventQuizGenerated, QuizGeneratedPayload{
		QuizID:    quizID,
		CallerID:  callerID,
		Topic:     topic,
		Questions: quiz.Questions,
	})

	log.Printf("Quiz generation complete: %s, %d questions for topic '%s' in %s", quizID, len(quiz.Questions), topic, elapsed.Round(time.Millisecond))
	return quiz, nil
}

func (qg *QuizGenerator) fail(ctx context.Context, quizID string, req GenerationRequest, elapsed time.Duration, err error, logger *LLMLogger) error {
	log.Printf("Error generating quiz %s for topic '%s': %+v", quizID, req.Topic, err)

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		log.Printf("Quiz %s: provider %s failure (%s)", quizID, qg.maker.provider.Name(), providerErr.Kind)
	}
	if logger != nil {
		logger.LogFailure(err)
	}

	qg.metrics.ObserveGeneration(GenerationFailed, elapsed)
	qg.record(ctx, &GenerationRecord{
		QuizID:    quizID,
		CallerID:  req.CallerID,
		Topic:     req.Topic,
		Provider:  qg.maker.provider.Name(),
		Status:    GenerationFailed,
		Error:     err.Error(),
		CreatedAt: qg.now().UTC(),
	})
	qg.publish(EventQuizGenerationFailed, QuizGenerationFailedPayload{
		QuizID:   quizID,
		CallerID: req.CallerID,
		Topic:    req.Topic,
		Error:    err.Error(),
	})

	return &GenerationError{Message: err.Error(), Err: err}
}

func (qg *QuizGenerator) record(ctx context.Context, rec *GenerationRecord) {
	if qg.recorder == nil {
		return
	}
	if err := qg.recorder.RecordGeneration(ctx, rec); err != nil {
		log.Printf("Failed to record generation %s: %v", rec.QuizID, err)
	}
}

func (qg *QuizGenerator) publish(eventType string, payload interface{}) {
	if qg.publisher == nil {
		return
	}
	if err := qg.publisher.Publish(eventType, payload); err != nil {
		log.Printf("Failed to publish %s: %v", eventType, err)
	}
}
