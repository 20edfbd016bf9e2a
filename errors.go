package topicquiz

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput     = errors.New("please provide a topic")
	ErrGenerationFailed = errors.New("quiz generation failed")
	ErrNoActiveQuiz     = errors.New("no quiz in session")
)

// GenerationError is returned by the generator for every failure after input
// validation. Message is safe to show to the caller.
type GenerationError struct {
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrGenerationFailed, e.Message)
}

func (e *GenerationError) Unwrap() []error {
	return []error{ErrGenerationFailed, e.Err}
}

// ErrorKind tags a failure reported by the provider integration
type ErrorKind string

const (
	KindTransport ErrorKind = "transport"
	KindSchema    ErrorKind = "schema"
)

// ProviderError is the non-Ok result of a structured generation call
type ProviderError struct {
	Kind ErrorKind
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func transportError(format string, args ...interface{}) error {
	return &ProviderError{Kind: KindTransport, Err: fmt.Errorf(format, args...)}
}

func schemaError(format string, args ...interface{}) error {
	return &ProviderError{Kind: KindSchema, Err: fmt.Errorf(format, args...)}
}
