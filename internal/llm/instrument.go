package llm

import (
	"context"
	"fmt"

	"github.com/moda-ai/moda-go/internal/conversation"
	"github.com/moda-ai/moda-go/pkg/tracing"
)

// startChatSpan opens a chat span for an outbound completion and sets the
// association attributes. The conversation id comes from the active override
// when one is set, else from the first system+user content of the request, so
// every turn of the same session carries the same id.
func startChatSpan(ctx context.Context, sink tracing.Sink, vendor string, messages []ChatMessage) (context.Context, tracing.Span) {
	conversationID := conversation.ComputeID(ctx, toConversationMessages(messages))

	ctx, span := sink.StartSpan(ctx, vendor+".chat")
	span.SetAttribute("llm.vendor", vendor)
	span.SetAttribute("llm.request.type", "chat")
	span.SetAttribute("moda.conversation_id", conversationID)
	if userID, ok := conversation.UserID(ctx); ok {
		span.SetAttribute("moda.user_id", userID)
	}

	for i, msg := range messages {
		span.SetAttribute(fmt.Sprintf("llm.prompts.%d.role", i), msg.Role)
		if msg.Content != "" {
			span.SetAttribute(fmt.Sprintf("llm.prompts.%d.content", i), msg.Content)
		}
	}

	return ctx, span
}

// finishChatSpan records the completion and closes the span. Failed
// completions close the span without a success mark; the error itself
// propagates to the caller untouched.
func finishChatSpan(span tracing.Span, resp *CompletionResponse, err error) {
	if err != nil {
		span.End()
		return
	}

	span.SetAttribute("llm.completions.0.role", "assistant")
	if resp.Content != "" {
		span.SetAttribute("llm.completions.0.content", resp.Content)
	}
	if resp.TokensIn > 0 {
		span.SetAttribute("llm.usage.prompt_tokens", resp.TokensIn)
	}
	if resp.TokensOut > 0 {
		span.SetAttribute("llm.usage.completion_tokens", resp.TokensOut)
	}

	span.SetSuccess()
	span.End()
}

func toConversationMessages(messages []ChatMessage) []conversation.Message {
	out := make([]conversation.Message, len(messages))
	for i, msg := range messages {
		out[i] = conversation.Message{Role: msg.Role, Content: msg.Content}
	}
	return out
}
