package topicquiz

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = "You are an expert quiz question generator. Generate educational multiple choice questions with exactly 4 options each, and explain every option."

// OpenAIProvider generates structured output with a forced function tool call
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates a provider for the OpenAI API. An empty baseURL
// uses the public endpoint; an empty model uses GPT-4o.
func NewOpenAIProvider(apiKey, baseURL, model string) *OpenAIProvider {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// GenerateStructured returns the raw JSON arguments of the schema's tool call
func (p *OpenAIProvider) GenerateStructured(ctx context.Context, prompt string, schema *Schema) (string, error) {
	resp, err := p.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: p.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Tools: []openai.Tool{
				{
					Type: openai.ToolTypeFunction,
					Function: &openai.FunctionDefinition{
						Name:        schema.Name,
						Description: schema.Description,
						Parameters:  schema.Definition,
					},
				},
			},
			ToolChoice: openai.ToolChoice{
				Type: openai.ToolTypeFunction,
				Function: openai.ToolFunction{
					Name: schema.Name,
				},
			},
		},
	)
	if err != nil {
		return "", transportError("failed to generate quiz: %w", err)
	}

	VerboseLog("Received response from %s with %d choices", p.model, len(resp.Choices))

	if len(resp.Choices) == 0 {
		return "", schemaError("no response from %s", p.model)
	}

	choice := resp.Choices[0]
	if len(choice.Message.ToolCalls) == 0 {
		return "", schemaError("no tool calls in response")
	}

	toolCall := choice.Message.ToolCalls[0]
	if toolCall.Function.Name != schema.Name {
		return "", schemaError("unexpected tool call: %s", toolCall.Function.Name)
	}

	return toolCall.Function.Arguments, nil
}
