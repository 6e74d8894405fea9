package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	resp     *llms.ContentResponse
	err      error
	messages []llms.MessageContent
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	return f.resp, f.err
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", nil
}

func TestLangchainGenerate(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "the answer"}},
	}}
	client := &Langchain{client: model, model: "gpt-4-turbo"}

	out, err := client.Generate(context.Background(), "be terse", "what drives revenue?")
	require.NoError(t, err)
	assert.Equal(t, "the answer", out)

	require.Len(t, model.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[1].Role)
}

func TestLangchainGenerateNoChoices(t *testing.T) {
	client := &Langchain{client: &fakeModel{resp: &llms.ContentResponse{}}, model: "gpt-4-turbo"}

	_, err := client.Generate(context.Background(), "", "anything")
	assert.ErrorContains(t, err, "no choices")
}
