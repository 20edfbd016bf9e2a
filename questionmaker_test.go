package topicquiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

// fakeProvider returns a canned response and counts calls
type fakeProvider struct {
	mu      sync.Mutex
	raw     string
	err     error
	block   bool
	calls   int
	prompts []string
}

func (f *fakeProvider) Name() string {
	return "fake"
}

func (f *fakeProvider) GenerateStructured(ctx context.Context, prompt string, schema *Schema) (string, error) {
	f.mu.Lock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return "", transportError("failed to generate quiz: %w", ctx.Err())
	}
	return f.raw, f.err
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type testQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex *int     `json:"correct_index,omitempty"`
	Reasoning    []string `json:"reasoning"`
}

func testQuestions(n int) []testQuestion {
	questions := make([]testQuestion, n)
	for i := range questions {
		correct := i % OptionsPerQuestion
		questions[i] = testQuestion{
			Question:     fmt.Sprintf("Question %d?", i+1),
			Options:      []string{"Alpha", "Beta", "Gamma", "Delta"},
			CorrectIndex: &correct,
			Reasoning:    []string{"Because alpha.", "Because beta.", "Because gamma.", "Because delta."},
		}
	}
	return questions
}

func toolArguments(t *testing.T, questions []testQuestion) string {
	t.Helper()
	data, err := json.Marshal(map[string]interface{}{"questions": questions})
	if err != nil {
		t.Fatalf("failed to marshal tool arguments: %v", err)
	}
	return string(data)
}

func assertProviderError(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("error %v is not a *ProviderError", err)
	}
	if providerErr.Kind != kind {
		t.Fatalf("error kind = %s, want %s (%v)", providerErr.Kind, kind, err)
	}
}

func TestGenerateQuestions(t *testing.T) {
	provider := &fakeProvider{raw: toolArguments(t, testQuestions(QuestionsPerQuiz))}
	maker := NewQuestionMaker(provider)

	questions, err := maker.GenerateQuestions(context.Background(), GenerationRequest{Topic: "Greek mythology"}, nil)
	if err != nil {
		t.Fatalf("GenerateQuestions failed: %v", err)
	}
	if len(questions) != QuestionsPerQuiz {
		t.Fatalf("len(questions) = %d, want %d", len(questions), QuestionsPerQuiz)
	}
	for i, q := range questions {
		if q.ID != i+1 {
			t.Fatalf("questions[%d].ID = %d, want %d", i, q.ID, i+1)
		}
		if q.Correct != i%OptionsPerQuestion {
			t.Fatalf("questions[%d].Correct = %d, want %d", i, q.Correct, i%OptionsPerQuestion)
		}
	}
	if !strings.Contains(provider.prompts[0], "Greek mythology") {
		t.Fatalf("prompt does not mention the topic: %q", provider.prompts[0])
	}
}

func TestGenerateQuestionsKeepsFirstFive(t *testing.T) {
	all := testQuestions(QuestionsPerQuiz + 2)
	maker := NewQuestionMaker(&fakeProvider{raw: toolArguments(t, all)})

	questions, err := maker.GenerateQuestions(context.Background(), GenerationRequest{Topic: "Rust"}, nil)
	if err != nil {
		t.Fatalf("GenerateQuestions failed: %v", err)
	}
	if len(questions) != QuestionsPerQuiz {
		t.Fatalf("len(questions) = %d, want %d", len(questions), QuestionsPerQuiz)
	}
	if questions[4].Question != all[4].Question {
		t.Fatalf("questions[4] = %q, want %q", questions[4].Question, all[4].Question)
	}
}

func TestGenerateQuestionsNormalisesWhitespace(t *testing.T) {
	questions := testQuestions(QuestionsPerQuiz)
	questions[0].Question = "  Question 1?  "

	maker := NewQuestionMaker(&fakeProvider{raw: toolArguments(t, questions)})
	got, err := maker.GenerateQuestions(context.Background(), GenerationRequest{Topic: "Rust"}, nil)
	if err != nil {
		t.Fatalf("GenerateQuestions failed: %v", err)
	}
	if got[0].Question != "Question 1?" {
		t.Fatalf("questions[0].Question = %q, want %q", got[0].Question, "Question 1?")
	}
}

func TestGenerateQuestionsSchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  func(t *testing.T) string
	}{
		{
			name: "not json",
			raw:  func(t *testing.T) string { return "here is your quiz" },
		},
		{
			name: "too few questions",
			raw:  func(t *testing.T) string { return toolArguments(t, testQuestions(3)) },
		},
		{
			name: "missing correct index",
			raw: func(t *testing.T) string {
				questions := testQuestions(QuestionsPerQuiz)
				questions[2].CorrectIndex = nil
				return toolArguments(t, questions)
			},
		},
		{
			name: "three options",
			raw: func(t *testing.T) string {
				questions := testQuestions(QuestionsPerQuiz)
				questions[1].Options = questions[1].Options[:3]
				return toolArguments(t, questions)
			},
		},
		{
			name: "correct index out of range",
			raw: func(t *testing.T) string {
				questions := testQuestions(QuestionsPerQuiz)
				bad := 7
				questions[3].CorrectIndex = &bad
				return toolArguments(t, questions)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			maker := NewQuestionMaker(&fakeProvider{raw: tt.raw(t)})
			_, err := maker.GenerateQuestions(context.Background(), GenerationRequest{Topic: "Rust"}, nil)
			assertProviderError(t, err, KindSchema)
		})
	}
}

func TestGenerateQuestionsWrapsPlainErrors(t *testing.T) {
	maker := NewQuestionMaker(&fakeProvider{err: errors.New("connection refused")})
	_, err := maker.GenerateQuestions(context.Background(), GenerationRequest{Topic: "Rust"}, nil)
	assertProviderError(t, err, KindTransport)
}

func TestGenerateQuestionsKeepsProviderErrorKind(t *testing.T) {
	maker := NewQuestionMaker(&fakeProvider{err: schemaError("no tool calls in response")})
	_, err := maker.GenerateQuestions(context.Background(), GenerationRequest{Topic: "Rust"}, nil)
	assertProviderError(t, err, KindSchema)
}
