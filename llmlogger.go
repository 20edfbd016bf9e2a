package topicquiz

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LLMLogger writes the diagnostic trace of one quiz generation to its own file
type LLMLogger struct {
	file   *os.File
	mu     sync.Mutex
	quizID string
}

// NewLLMLogger creates <dir>/<quizID>.log and writes the request header
func NewLLMLogger(dir, quizID string, req GenerationRequest) (*LLMLogger, error) {
	// Ensure log directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("%s.log", quizID))
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	logger := &LLMLogger{
		file:   file,
		quizID: quizID,
	}

	logger.Logf("=== Quiz Generation Log ===\n")
	logger.Logf("Quiz ID: %s\n", quizID)
	logger.Logf("Caller: %s\n", req.CallerID)
	logger.Logf("Topic: %s\n", req.Topic)
	logger.Logf("Started: %s\n", time.Now().Format(time.RFC3339))
	logger.Logf("========================\n\n")

	return logger, nil
}

// Logf writes a formatted log entry with timestamp
func (ll *LLMLogger) Logf(format string, args ...interface{}) {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	ll.logf(format, args...)
}

func (ll *LLMLogger) logf(format string, args ...interface{}) {
	if ll.file == nil {
		return
	}

	timestamp := time.Now().Format("15:04:05.000")
	message := fmt.Sprintf(format, args...)

	fmt.Fprintf(ll.file, "[%s] %s", timestamp, message)
	ll.file.Sync()
}

// LogLLMRequest logs an LLM request
func (ll *LLMLogger) LogLLMRequest(provider, prompt string) {
	ll.Logf("=== LLM REQUEST (%s) ===\n", provider)
	ll.Logf("Prompt:\n%s\n", prompt)
	ll.Logf("=====================\n\n")
}

// LogLLMResponse logs the raw structured response
func (ll *LLMLogger) LogLLMResponse(provider, response string) {
	ll.Logf("=== LLM RESPONSE (%s) ===\n", provider)
	ll.Logf("Response:\n%s\n", response)
	ll.Logf("======================\n\n")
}

// LogQuestionResult logs the checker verdict for a question
func (ll *LLMLogger) LogQuestionResult(questionID int, action, reason string) {
	ll.Logf("Question %d: %s - %s\n", questionID, action, reason)
}

// LogFailure logs the error that ended the generation
func (ll *LLMLogger) LogFailure(err error) {
	ll.Logf("=== GENERATION FAILED ===\n")
	ll.Logf("Error: %+v\n", err)
	ll.Logf("=========================\n\n")
}

// Close closes the log file
func (ll *LLMLogger) Close() error {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	if ll.file == nil {
		return nil
	}

	ll.logf("=== Quiz Generation Complete ===\n")
	ll.logf("Completed: %s\n", time.Now().Format(time.RFC3339))
	ll.logf("=============================\n")
	err := ll.file.Close()
	ll.file = nil
	return err
}
