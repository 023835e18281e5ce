package vapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLegacyShapePassesThrough(t *testing.T) {
	report := Normalize(mustEnvelope(t, sampleReport))

	require.True(t, report.Qualifies())
	assert.Equal(t, "call_abc123", report.Call.ID)
	require.NotNil(t, report.Call.Artifact)
	assert.Len(t, report.Call.Artifact.Messages, 7)
}

func TestNormalizeIdempotent(t *testing.T) {
	envelope := mustEnvelope(t, sampleReport)

	first := Normalize(envelope)
	second := Normalize(envelope)

	assert.Equal(t, first, second)
	// The input envelope is untouched.
	assert.Len(t, envelope.Call.Artifact.Messages, 7)
}

func TestNormalizeUnwrapsMessageEnvelope(t *testing.T) {
	report := Normalize(mustEnvelope(t, wrappedTranscriptReport))

	require.True(t, report.Qualifies())
	assert.Equal(t, EndOfCallReportType, report.Type)
	assert.Equal(t, "call_wrapped", report.Call.ID)
}

func TestNormalizeConvertsTranscript(t *testing.T) {
	report := Normalize(mustEnvelope(t, wrappedTranscriptReport))

	require.NotNil(t, report.Call.Artifact)
	msgs := report.Call.Artifact.Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, Message{Role: "user", Content: "Hello there"}, msgs[0])
	assert.Equal(t, Message{Role: "assistant", Content: "Hi! How can I help?"}, msgs[1])
}

func TestNormalizeArtifactMessagesBeatTranscript(t *testing.T) {
	envelope := mustEnvelope(t, `{
		"type": "end-of-call-report",
		"call": {
			"id": "c1",
			"artifact": {"messages": [{"role": "assistant", "content": "from artifact"}]}
		},
		"transcript": [{"role": "assistant", "message": "from transcript"}]
	}`)

	report := Normalize(envelope)

	require.Len(t, report.Call.Artifact.Messages, 1)
	assert.Equal(t, "from artifact", report.Call.Artifact.Messages[0].Content)
}

func TestNormalizeTranscriptPrefersMessageField(t *testing.T) {
	envelope := mustEnvelope(t, `{
		"type": "end-of-call-report",
		"call": {"id": "c1"},
		"transcript": [
			{"role": "user", "message": "from message", "content": "from content"},
			{"role": "assistant", "content": "content only"},
			{"message": "no role, dropped"}
		]
	}`)

	report := Normalize(envelope)

	msgs := report.Call.Artifact.Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, "from message", msgs[0].Content)
	assert.Equal(t, "content only", msgs[1].Content)
}

func TestNormalizeFlatStringTranscriptIgnored(t *testing.T) {
	envelope := mustEnvelope(t, `{
		"type": "end-of-call-report",
		"call": {"id": "c1"},
		"transcript": "User: hi\nAI: hello"
	}`)

	report := Normalize(envelope)

	require.True(t, report.Qualifies())
	assert.Nil(t, report.Call.Artifact)
}

func TestNormalizeSynthesizesAnalysis(t *testing.T) {
	report := Normalize(mustEnvelope(t, wrappedTranscriptReport))

	require.NotNil(t, report.Call.Analysis)
	assert.Equal(t, "Caller greeted the assistant.", report.Call.Analysis.Summary)
	assert.Equal(t, map[string]any{"intent": "greeting"}, report.Call.Analysis.StructuredData)
}

func TestNormalizeCallAnalysisNotOverwritten(t *testing.T) {
	envelope := mustEnvelope(t, `{
		"type": "end-of-call-report",
		"call": {
			"id": "c1",
			"analysis": {"summary": "call-level summary"}
		},
		"summary": "report-level summary"
	}`)

	report := Normalize(envelope)

	assert.Equal(t, "call-level summary", report.Call.Analysis.Summary)
}

func TestNormalizeCopiesTimingOntoCall(t *testing.T) {
	report := Normalize(mustEnvelope(t, wrappedTranscriptReport))

	assert.Equal(t, "2024-03-01T10:00:00Z", report.Call.StartedAt)
	assert.Equal(t, "2024-03-01T10:01:35Z", report.Call.EndedAt)
}

func TestNormalizeCallTimingWins(t *testing.T) {
	envelope := mustEnvelope(t, `{
		"type": "end-of-call-report",
		"call": {"id": "c1", "startedAt": "2024-01-01T00:00:00Z"},
		"startedAt": "2024-02-02T00:00:00Z",
		"endedAt": "2024-02-02T00:05:00Z"
	}`)

	report := Normalize(envelope)

	assert.Equal(t, "2024-01-01T00:00:00Z", report.Call.StartedAt)
	assert.Equal(t, "2024-02-02T00:05:00Z", report.Call.EndedAt)
}

func TestNormalizeNil(t *testing.T) {
	report := Normalize(nil)

	require.NotNil(t, report)
	assert.False(t, report.Qualifies())
}

func TestIsEndOfCallReport(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    bool
	}{
		{"legacy report", `{"type": "end-of-call-report", "call": {"id": "c1"}}`, true},
		{"wrapped report", `{"message": {"type": "end-of-call-report", "call": {"id": "c1"}}}`, true},
		{"status update", `{"type": "status-update", "call": {"id": "c1"}}`, false},
		{"missing call", `{"type": "end-of-call-report"}`, false},
		{"wrapped missing call", `{"message": {"type": "end-of-call-report"}}`, false},
		{"empty object", `{}`, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var envelope Envelope
			require.NoError(t, json.Unmarshal([]byte(tc.payload), &envelope))
			assert.Equal(t, tc.want, IsEndOfCallReport(&envelope))
		})
	}
}
