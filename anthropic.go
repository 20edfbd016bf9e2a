package topicquiz

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-sonnet-4-5"

// AnthropicProvider generates structured output through a langchaingo model
// that is offered a single tool carrying the schema.
type AnthropicProvider struct {
	llm   llms.Model
	model string
}

// NewAnthropicProvider creates a provider for the Anthropic API
func NewAnthropicProvider(apiKey, baseURL, model string) (*AnthropicProvider, error) {
	if model == "" {
		model = DefaultAnthropicModel
	}

	opts := []anthropic.Option{
		anthropic.WithToken(apiKey),
		anthropic.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}

	llm, err := anthropic.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create anthropic client: %w", err)
	}
	return &AnthropicProvider{llm: llm, model: model}, nil
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// GenerateStructured returns the raw JSON arguments of the schema's tool call
func (p *AnthropicProvider) GenerateStructured(ctx context.Context, prompt string, schema *Schema) (string, error) {
	tools := []llms.Tool{
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        schema.Name,
				Description: schema.Description,
				Parameters:  schema.Definition,
			},
		},
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	resp, err := p.llm.GenerateContent(ctx, messages,
		llms.WithTools(tools),
		llms.WithMaxTokens(4096),
	)
	if err != nil {
		return "", transportError("failed to generate quiz: %w", err)
	}

	VerboseLog("Received response from %s with %d choices", p.model, len(resp.Choices))

	if len(resp.Choices) == 0 {
		return "", schemaError("no response from %s", p.model)
	}

	// the tool call is not necessarily on the first choice
	for _, choice := range resp.Choices {
		for _, call := range choice.ToolCalls {
			if call.FunctionCall == nil {
				continue
			}
			if call.FunctionCall.Name != schema.Name {
				return "", schemaError("unexpected tool call: %s", call.FunctionCall.Name)
			}
			return call.FunctionCall.Arguments, nil
		}
	}

	return "", schemaError("no tool calls in response")
}
