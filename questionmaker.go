package topicquiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Provider turns a prompt plus a target schema into the raw JSON object the
// model produced for that schema. Implementations report failures as
// *ProviderError tagged KindTransport or KindSchema.
type Provider interface {
	Name() string
	GenerateStructured(ctx context.Context, prompt string, schema *Schema) (string, error)
}

// QuestionMaker generates quiz questions through a Provider
type QuestionMaker struct {
	provider Provider
	checker  *QuestionChecker
}

// NewQuestionMaker creates a new question maker
func NewQuestionMaker(provider Provider) *QuestionMaker {
	return &QuestionMaker{
		provider: provider,
		checker:  NewQuestionChecker(),
	}
}

// GenerateQuestions asks the provider for a quiz on req.Topic and returns
// exactly QuestionsPerQuiz well-formed questions with ids 1..n. Every failure
// is a *ProviderError.
func (qm *QuestionMaker) GenerateQuestions(ctx context.Context, req GenerationRequest, logger *LLMLogger) ([]QuizQuestion, error) {
	prompt := qm.buildPrompt(req.Topic)

	if logger != nil {
		logger.LogLLMRequest(qm.provider.Name(), prompt)
	}

	raw, err := qm.provider.GenerateStructured(ctx, prompt, QuizSetSchema)
	if err != nil {
		var providerErr *ProviderError
		if !errors.As(err, &providerErr) {
			err = transportError("%w", err)
		}
		return nil, err
	}

	if logger != nil {
		logger.LogLLMResponse(qm.provider.Name(), raw)
	}

	var toolArgs struct {
		Questions []struct {
			Question     string   `json:"question"`
			Options      []string `json:"options"`
			CorrectIndex *int     `json:"correct_index"`
			Reasoning    []string `json:"reasoning"`
		} `json:"questions"`
	}

	if err := json.Unmarshal([]byte(raw), &toolArgs); err != nil {
		return nil, schemaError("failed to parse tool arguments: %w", err)
	}

	if len(toolArgs.Questions) < QuestionsPerQuiz {
		return nil, schemaError("expected %d questions, got %d", QuestionsPerQuiz, len(toolArgs.Questions))
	}
	if len(toolArgs.Questions) > QuestionsPerQuiz {
		VerboseLog("Provider returned %d questions, keeping the first %d", len(toolArgs.Questions), QuestionsPerQuiz)
		toolArgs.Questions = toolArgs.Questions[:QuestionsPerQuiz]
	}

	questions := make([]QuizQuestion, 0, QuestionsPerQuiz)
	for i, q := range toolArgs.Questions {
		if q.CorrectIndex == nil {
			return nil, schemaError("question %d: missing correct_index", i+1)
		}

		question := QuizQuestion{
			ID:        i + 1,
			Question:  q.Question,
			Options:   q.Options,
			Correct:   *q.CorrectIndex,
			Reasoning: q.Reasoning,
		}

		validation := qm.checker.CheckQuestion(&question, logger)
		switch validation.Action {
		case ActionReject:
			return nil, schemaError("question %d: %s", question.ID, validation.Reason)
		case ActionRevise:
			question = *validation.RevisedQuestion
		}

		questions = append(questions, question)
	}

	return questions, nil
}

func (qm *QuestionMaker) buildPrompt(topic string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Create a multiple choice quiz about the topic: %s\n\n", topic))
	sb.WriteString(fmt.Sprintf("You must generate exactly %d quiz questions.\n\n", QuestionsPerQuiz))

	sb.WriteString("For each question, provide:\n")
	sb.WriteString("1. A clear, educational question text\n")
	sb.WriteString(fmt.Sprintf("2. Exactly %d answer options (as a list of strings)\n", OptionsPerQuestion))
	sb.WriteString("3. The correct_index (0, 1, 2, or 3) indicating which option is correct\n")
	sb.WriteString(fmt.Sprintf("4. Exactly %d reasoning explanations (as a list of strings) - one for each option explaining why it's correct or incorrect\n\n", OptionsPerQuestion))

	sb.WriteString("Example reasoning for an incorrect option: \"This is incorrect because...\"\n")
	sb.WriteString("Example reasoning for the correct option: \"This is correct because...\"\n\n")

	sb.WriteString("Requirements:\n")
	sb.WriteString("- The answer options of a question must all be different\n")
	sb.WriteString("- The reasoning list must follow the same order as the options\n")
	sb.WriteString(fmt.Sprintf("- Use the %s tool to return your quiz\n\n", QuizSetSchema.Name))

	sb.WriteString(fmt.Sprintf("Make the questions educational and appropriate difficulty for someone learning about %s.", topic))

	return sb.String()
}
