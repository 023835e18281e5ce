package vapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// sampleReport is a legacy-shape end-of-call report with every extractable
// feature: turns, embedded tool calls with linked results, a transfer,
// per-turn latencies, and a cost breakdown.
const sampleReport = `{
	"type": "end-of-call-report",
	"call": {
		"id": "call_abc123",
		"duration": 95.5,
		"endedReason": "customer-ended-call",
		"cost": 0.42,
		"assistantId": "asst_support",
		"status": "ended",
		"customer": {"number": "+15551234567"},
		"costs": [
			{"type": "model", "cost": 0.25},
			{"type": "transcriber", "cost": 0.07},
			{"type": "voice", "cost": 0.10}
		],
		"artifact": {
			"messages": [
				{"role": "system", "content": "You are a support agent."},
				{"role": "user", "content": "Hi, I need help with my order."},
				{"role": "assistant", "content": "Of course, what's the order number?"},
				{"role": "user", "content": "It's 8842."},
				{
					"role": "assistant",
					"content": "Let me look that up.",
					"tool_calls": [
						{
							"id": "tc_1",
							"type": "function",
							"function": {"name": "lookup_order", "arguments": "{\"order_id\": \"8842\"}"}
						}
					]
				},
				{"role": "tool", "tool_call_id": "tc_1", "content": "{\"status\": \"shipped\"}"},
				{"role": "assistant", "content": "Your order has shipped."}
			],
			"transfers": [
				{"fromAssistant": "support", "toAssistant": "billing", "status": "completed"}
			],
			"performanceMetrics": {
				"turnLatencies": [
					{"turnIndex": 0, "modelLatency": 450.0, "voiceLatency": 120.0, "totalLatency": 620.0},
					{"turnIndex": 1, "modelLatency": 510.0, "transcriberLatency": 80.0},
					{"turnIndex": 2, "totalLatency": 700.0}
				]
			}
		}
	}
}`

// wrappedTranscriptReport is the wrapped shape with a transcript array and
// report-level analysis fields instead of a structured artifact.
const wrappedTranscriptReport = `{
	"message": {
		"type": "end-of-call-report",
		"call": {"id": "call_wrapped", "cost": 0.05},
		"transcript": [
			{"role": "user", "message": "Hello there"},
			{"role": "assistant", "message": "Hi! How can I help?"}
		],
		"summary": "Caller greeted the assistant.",
		"structuredData": {"intent": "greeting"},
		"startedAt": "2024-03-01T10:00:00Z",
		"endedAt": "2024-03-01T10:01:35Z"
	}
}`

func mustEnvelope(t *testing.T, raw string) *Envelope {
	t.Helper()
	var envelope Envelope
	require.NoError(t, json.Unmarshal([]byte(raw), &envelope))
	return &envelope
}
