package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
)

const requestTimeout = 50 * time.Second

// LLM is the chat-completion boundary. All analysis intelligence lives
// behind it; this package only shuttles prompts and replies.
type LLM interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

type OpenAI struct {
	client openai.Client
	model  string
	temp   float64
}

// NewOpenAI reads credentials from the environment (OPENAI_API_KEY), the
// client's default resolution.
func NewOpenAI(model string, temp float64) *OpenAI {
	return &OpenAI{
		client: openai.NewClient(),
		model:  model,
		temp:   temp,
	}
}

func (o *OpenAI) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if len(systemPrompt) > 0 {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	messages = append(messages, openai.UserMessage(userPrompt))

	chatOpts := openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       o.model,
		Temperature: openai.Float(o.temp),
	}

	res, err := o.client.Chat.Completions.New(ctx, chatOpts)
	if err != nil {
		slog.Error("openai error: chat completions failed", "error", err)
		return "", fmt.Errorf("openai generation failed: %w", err)
	}

	return res.Choices[0].Message.Content, nil
}
