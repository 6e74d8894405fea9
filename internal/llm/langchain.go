package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Langchain backs the tabular analysis path with a langchaingo chat model.
type Langchain struct {
	client llms.Model
	model  string
}

func NewLangchain(model, apiKey string) (*Langchain, error) {
	client, err := openai.New(openai.WithToken(apiKey), openai.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("could not create OpenAI client: %w", err)
	}
	return &Langchain{client: client, model: model}, nil
}

func (l *Langchain) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := make([]llms.MessageContent, 0, 2)
	if len(systemPrompt) > 0 {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, userPrompt))

	resp, err := l.client.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("langchain generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("langchain generation returned no choices")
	}

	return resp.Choices[0].Content, nil
}
