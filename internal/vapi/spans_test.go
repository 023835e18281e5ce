package vapi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moda-ai/moda-go/pkg/logger"
	"github.com/moda-ai/moda-go/pkg/tracing"
)

func newTestProcessor(notifier Notifier) (*Processor, *tracing.Recorder) {
	recorder := tracing.NewRecorder()
	return NewProcessor(recorder, notifier, logger.NewNop()), recorder
}

func TestProcessSkipsNonEndOfCallReport(t *testing.T) {
	p, recorder := newTestProcessor(nil)

	p.Process(context.Background(), mustEnvelope(t, `{"type": "status-update", "call": {"id": "c1"}}`), nil)
	p.Process(context.Background(), mustEnvelope(t, `{"type": "end-of-call-report"}`), nil)

	assert.Empty(t, recorder.Spans())
}

func TestProcessRawInvalidPayload(t *testing.T) {
	p, recorder := newTestProcessor(nil)

	p.ProcessRaw(context.Background(), []byte(`[1, 2, 3]`), nil)
	p.ProcessRaw(context.Background(), []byte(`not json`), nil)

	assert.Empty(t, recorder.Spans())
}

func TestProcessEmitsFullSpanTree(t *testing.T) {
	p, recorder := newTestProcessor(nil)

	p.Process(context.Background(), mustEnvelope(t, sampleReport), nil)

	assert.Equal(t, []string{
		"vapi.call",
		"vapi.turn.0",
		"vapi.turn.1",
		"vapi.turn.2",
		"vapi.tool.lookup_order",
		"vapi.transfer",
	}, recorder.SpanNames())

	for _, span := range recorder.Spans() {
		assert.True(t, span.Ended, span.Name)
		assert.True(t, span.Success, span.Name)
		if span.Name != "vapi.call" {
			assert.Equal(t, "vapi.call", span.ParentName, span.Name)
		}
	}
}

func TestProcessCallSpanAttributes(t *testing.T) {
	p, recorder := newTestProcessor(nil)

	p.Process(context.Background(), mustEnvelope(t, sampleReport), nil)

	parent := recorder.Find("vapi.call")
	require.NotNil(t, parent)
	assert.Equal(t, "vapi", parent.Attributes["llm.vendor"])
	assert.Equal(t, "call_abc123", parent.Attributes["moda.conversation_id"])
	assert.Equal(t, "+15551234567", parent.Attributes["moda.user_id"])
	assert.Equal(t, 95.5, parent.Attributes["vapi.call.duration"])
	assert.Equal(t, "customer-ended-call", parent.Attributes["vapi.call.ended_reason"])
	assert.Equal(t, 0.42, parent.Attributes["vapi.call.cost"])
	assert.Equal(t, "asst_support", parent.Attributes["vapi.call.assistant_id"])
	assert.Equal(t, "ended", parent.Attributes["vapi.call.status"])
	assert.Equal(t, 0.25, parent.Attributes["vapi.cost.model"])
	assert.Equal(t, 0.07, parent.Attributes["vapi.cost.transcriber"])
	assert.Equal(t, 0.10, parent.Attributes["vapi.cost.voice"])
}

func TestProcessTurnSpanAttributes(t *testing.T) {
	p, recorder := newTestProcessor(nil)

	p.Process(context.Background(), mustEnvelope(t, sampleReport), nil)

	turn0 := recorder.Find("vapi.turn.0")
	require.NotNil(t, turn0)
	assert.Equal(t, "chat", turn0.Attributes["llm.request.type"])
	assert.Equal(t, "assistant", turn0.Attributes["llm.completions.0.role"])
	assert.Equal(t, "Of course, what's the order number?", turn0.Attributes["llm.completions.0.content"])
	assert.Equal(t, "user", turn0.Attributes["llm.prompts.0.role"])
	assert.Equal(t, "Hi, I need help with my order.", turn0.Attributes["llm.prompts.0.content"])
	assert.Equal(t, 450.0, turn0.Attributes["vapi.turn.model_latency_ms"])
	assert.Equal(t, 120.0, turn0.Attributes["vapi.turn.voice_latency_ms"])
	assert.Equal(t, 620.0, turn0.Attributes["vapi.turn.total_latency_ms"])
	assert.NotContains(t, turn0.Attributes, "vapi.turn.transcriber_latency_ms")

	// The final assistant message follows a tool exchange, so it has no prompt.
	turn2 := recorder.Find("vapi.turn.2")
	require.NotNil(t, turn2)
	assert.NotContains(t, turn2.Attributes, "llm.prompts.0.role")
	assert.Equal(t, 700.0, turn2.Attributes["vapi.turn.total_latency_ms"])
}

func TestProcessToolAndTransferSpanAttributes(t *testing.T) {
	p, recorder := newTestProcessor(nil)

	p.Process(context.Background(), mustEnvelope(t, sampleReport), nil)

	tool := recorder.Find("vapi.tool.lookup_order")
	require.NotNil(t, tool)
	assert.Equal(t, "lookup_order", tool.Attributes["tool.name"])
	assert.Equal(t, "tc_1", tool.Attributes["tool.call_id"])
	assert.Equal(t, `{"order_id": "8842"}`, tool.Attributes["tool.parameters"])
	assert.Equal(t, `{"status": "shipped"}`, tool.Attributes["tool.result"])

	transfer := recorder.Find("vapi.transfer")
	require.NotNil(t, transfer)
	assert.Equal(t, "support", transfer.Attributes["vapi.transfer.from_assistant"])
	assert.Equal(t, "billing", transfer.Attributes["vapi.transfer.to_assistant"])
	assert.Equal(t, "completed", transfer.Attributes["vapi.transfer.status"])
	assert.Equal(t, 0, transfer.Attributes["vapi.transfer.index"])
}

func TestProcessOptionsOverrideIDs(t *testing.T) {
	p, recorder := newTestProcessor(nil)

	p.Process(context.Background(), mustEnvelope(t, sampleReport), &Options{
		ConversationID: "conv_custom",
		UserID:         "user_custom",
	})

	parent := recorder.Find("vapi.call")
	require.NotNil(t, parent)
	assert.Equal(t, "conv_custom", parent.Attributes["moda.conversation_id"])
	assert.Equal(t, "user_custom", parent.Attributes["moda.user_id"])
}

func TestProcessWrappedTranscriptPayload(t *testing.T) {
	p, recorder := newTestProcessor(nil)

	p.Process(context.Background(), mustEnvelope(t, wrappedTranscriptReport), nil)

	require.Equal(t, []string{"vapi.call", "vapi.turn.0"}, recorder.SpanNames())

	parent := recorder.Find("vapi.call")
	assert.Equal(t, "call_wrapped", parent.Attributes["moda.conversation_id"])
	assert.Equal(t, "2024-03-01T10:00:00Z", parent.Attributes["vapi.call.started_at"])
	assert.Equal(t, "2024-03-01T10:01:35Z", parent.Attributes["vapi.call.ended_at"])
	assert.Equal(t, "Caller greeted the assistant.", parent.Attributes["vapi.analysis.summary"])
	assert.Equal(t, `{"intent":"greeting"}`, parent.Attributes["vapi.analysis.structured_data"])

	turn := recorder.Find("vapi.turn.0")
	assert.Equal(t, "Hi! How can I help?", turn.Attributes["llm.completions.0.content"])
	assert.Equal(t, "Hello there", turn.Attributes["llm.prompts.0.content"])
}

func TestProcessSuccessEvaluationVariants(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    any
	}{
		{
			"string rubric",
			`{"type": "end-of-call-report", "call": {"id": "c1", "analysis": {"successEvaluation": "pass"}}}`,
			"pass",
		},
		{
			"bool rubric",
			`{"type": "end-of-call-report", "call": {"id": "c1", "analysis": {"successEvaluation": true}}}`,
			"true",
		},
	}

	p, recorder := newTestProcessor(nil)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder.Reset()
			p.Process(context.Background(), mustEnvelope(t, tc.payload), nil)

			parent := recorder.Find("vapi.call")
			require.NotNil(t, parent)
			assert.Equal(t, tc.want, parent.Attributes["vapi.analysis.success_evaluation"])
		})
	}
}

type capturedNotification struct {
	summaries []CallSummary
}

func (c *capturedNotification) CallProcessed(_ context.Context, summary CallSummary) {
	c.summaries = append(c.summaries, summary)
}

func TestProcessNotifiesAfterEmission(t *testing.T) {
	notifier := &capturedNotification{}
	p, _ := newTestProcessor(notifier)

	p.Process(context.Background(), mustEnvelope(t, sampleReport), nil)

	require.Len(t, notifier.summaries, 1)
	summary := notifier.summaries[0]
	assert.Equal(t, "call_abc123", summary.CallID)
	assert.Equal(t, "call_abc123", summary.ConversationID)
	assert.Equal(t, "customer-ended-call", summary.EndedReason)
	assert.Equal(t, 3, summary.Turns)
	assert.Equal(t, 1, summary.Tools)
	assert.Equal(t, 1, summary.Transfers)
	assert.Equal(t, 0.42, summary.Cost)
}

func TestProcessNotifierSkippedForNonQualifyingPayload(t *testing.T) {
	notifier := &capturedNotification{}
	p, _ := newTestProcessor(notifier)

	p.Process(context.Background(), mustEnvelope(t, `{"type": "status-update"}`), nil)

	assert.Empty(t, notifier.summaries)
}
