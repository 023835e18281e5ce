package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moda-ai/moda-go/internal/conversation"
	"github.com/moda-ai/moda-go/pkg/tracing"
)

func TestStartChatSpanDerivesConversationID(t *testing.T) {
	recorder := tracing.NewRecorder()
	messages := []ChatMessage{
		{Role: "system", Content: "You are helpful."},
		{Role: "user", Content: "Hello"},
	}

	_, span := startChatSpan(context.Background(), recorder, "anthropic", messages)
	span.End()

	recorded := recorder.Find("anthropic.chat")
	require.NotNil(t, recorded)
	assert.Equal(t, "anthropic", recorded.Attributes["llm.vendor"])
	assert.Equal(t, "chat", recorded.Attributes["llm.request.type"])
	assert.Equal(t, "system", recorded.Attributes["llm.prompts.0.role"])
	assert.Equal(t, "You are helpful.", recorded.Attributes["llm.prompts.0.content"])
	assert.Equal(t, "user", recorded.Attributes["llm.prompts.1.role"])

	// The derived id matches what the identifier produces for the same
	// sequence, so spans from every turn of a session thread together.
	want := conversation.ComputeID(context.Background(), []conversation.Message{
		{Role: "system", Content: "You are helpful."},
		{Role: "user", Content: "Hello"},
	})
	assert.Equal(t, want, recorded.Attributes["moda.conversation_id"])
}

func TestStartChatSpanHonorsOverrides(t *testing.T) {
	recorder := tracing.NewRecorder()
	ctx := conversation.WithConversationID(context.Background(), "conv_fixed")
	ctx = conversation.WithUserID(ctx, "user_7")

	_, span := startChatSpan(ctx, recorder, "openai", []ChatMessage{{Role: "user", Content: "Hi"}})
	span.End()

	recorded := recorder.Find("openai.chat")
	require.NotNil(t, recorded)
	assert.Equal(t, "conv_fixed", recorded.Attributes["moda.conversation_id"])
	assert.Equal(t, "user_7", recorded.Attributes["moda.user_id"])
}

func TestFinishChatSpanSuccess(t *testing.T) {
	recorder := tracing.NewRecorder()
	_, span := recorder.StartSpan(context.Background(), "anthropic.chat")

	finishChatSpan(span, &CompletionResponse{
		Content:   "Hi there!",
		TokensIn:  12,
		TokensOut: 4,
	}, nil)

	recorded := recorder.Find("anthropic.chat")
	assert.Equal(t, "assistant", recorded.Attributes["llm.completions.0.role"])
	assert.Equal(t, "Hi there!", recorded.Attributes["llm.completions.0.content"])
	assert.Equal(t, 12, recorded.Attributes["llm.usage.prompt_tokens"])
	assert.Equal(t, 4, recorded.Attributes["llm.usage.completion_tokens"])
	assert.True(t, recorded.Success)
	assert.True(t, recorded.Ended)
}

func TestFinishChatSpanError(t *testing.T) {
	recorder := tracing.NewRecorder()
	_, span := recorder.StartSpan(context.Background(), "anthropic.chat")

	finishChatSpan(span, nil, errors.New("rate limited"))

	recorded := recorder.Find("anthropic.chat")
	assert.False(t, recorded.Success)
	assert.True(t, recorded.Ended)
	assert.NotContains(t, recorded.Attributes, "llm.completions.0.role")
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(ProviderAnthropic, "", nil)
	assert.Error(t, err)

	_, err = NewClient(ProviderOpenAI, "", nil)
	assert.Error(t, err)

	c, err := NewClient(ProviderOpenAI, "sk-test", nil)
	require.NoError(t, err)
	assert.Equal(t, "openai", c.Name())
}
