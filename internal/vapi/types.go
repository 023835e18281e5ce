// Package vapi turns Vapi end-of-call report webhooks into OpenTelemetry span
// trees: one parent span per call, child spans per LLM turn, tool invocation,
// and squad transfer.
package vapi

import (
	"encoding/json"
)

// EndOfCallReportType is the webhook type marker that qualifies a payload for
// span emission.
const EndOfCallReportType = "end-of-call-report"

// Envelope is a decoded webhook body. Vapi has shipped the same report in
// three shapes: a legacy flattened one ({type, call}), a wrapped one nesting
// everything under "message", and a transcript-only one without structured
// artifact messages. Envelope holds the union; Normalize resolves precedence.
type Envelope struct {
	Type string `json:"type,omitempty"`
	Call *Call  `json:"call,omitempty"`

	// Wrapped shape: the real payload lives one level down.
	Message *Envelope `json:"message,omitempty"`

	// Transcript-only shape. Kept raw because Vapi sends either an array of
	// {role, message} entries or a flat string; only the array form converts.
	Transcript json.RawMessage `json:"transcript,omitempty"`

	// Report-level analysis fields, present when call.analysis is not.
	Summary        string         `json:"summary,omitempty"`
	StructuredData map[string]any `json:"structuredData,omitempty"`

	// Report-level call timing.
	StartedAt string `json:"startedAt,omitempty"`
	EndedAt   string `json:"endedAt,omitempty"`
}

// Report is the canonical call record every downstream component consumes.
// It is built once per webhook by Normalize and not mutated afterwards.
type Report struct {
	Type string
	Call *Call
}

// Qualifies reports whether the record passes the span-emission guard.
func (r *Report) Qualifies() bool {
	return r != nil && r.Type == EndOfCallReportType && r.Call != nil
}

// Call is the Vapi call object.
type Call struct {
	ID          string      `json:"id,omitempty"`
	Duration    *float64    `json:"duration,omitempty"`
	EndedReason string      `json:"endedReason,omitempty"`
	Cost        *float64    `json:"cost,omitempty"`
	AssistantID string      `json:"assistantId,omitempty"`
	Status      string      `json:"status,omitempty"`
	StartedAt   string      `json:"startedAt,omitempty"`
	EndedAt     string      `json:"endedAt,omitempty"`
	Customer    *Customer   `json:"customer,omitempty"`
	Artifact    *Artifact   `json:"artifact,omitempty"`
	Analysis    *Analysis   `json:"analysis,omitempty"`
	Costs       []CostEntry `json:"costs,omitempty"`
}

// Customer identifies the caller.
type Customer struct {
	Number string `json:"number,omitempty"`
	Name   string `json:"name,omitempty"`
}

// Artifact carries the conversation data and metrics recorded for a call.
type Artifact struct {
	Messages           []Message           `json:"messages,omitempty"`
	Transfers          []Transfer          `json:"transfers,omitempty"`
	PerformanceMetrics *PerformanceMetrics `json:"performanceMetrics,omitempty"`
}

// Message is one entry of the conversation history.
type Message struct {
	Role       string     `json:"role,omitempty"`
	Content    string     `json:"content,omitempty"`
	Name       string     `json:"name,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall is a tool invocation requested by an assistant message.
type ToolCall struct {
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type,omitempty"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction holds the function name and raw JSON arguments.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
}

// Transfer is a squad transfer record, passed through opaquely.
type Transfer struct {
	FromAssistant string `json:"fromAssistant,omitempty"`
	ToAssistant   string `json:"toAssistant,omitempty"`
	Status        string `json:"status,omitempty"`
}

// PerformanceMetrics holds per-turn latency measurements.
type PerformanceMetrics struct {
	TurnLatencies []TurnLatency `json:"turnLatencies,omitempty"`
}

// TurnLatency is the latency breakdown for one turn. All fields are optional;
// TurnIndex distinguishes "index 0" from "no index".
type TurnLatency struct {
	TurnIndex          *int     `json:"turnIndex,omitempty"`
	ModelLatency       *float64 `json:"modelLatency,omitempty"`
	VoiceLatency       *float64 `json:"voiceLatency,omitempty"`
	TranscriberLatency *float64 `json:"transcriberLatency,omitempty"`
	TotalLatency       *float64 `json:"totalLatency,omitempty"`
}

// CostEntry is one raw cost breakdown entry.
type CostEntry struct {
	Type string  `json:"type"`
	Cost float64 `json:"cost"`
}

// Analysis is the post-call analysis block. SuccessEvaluation is untyped
// because Vapi sends either a bool or a string depending on the rubric.
type Analysis struct {
	Summary           string         `json:"summary,omitempty"`
	StructuredData    map[string]any `json:"structuredData,omitempty"`
	SuccessEvaluation any            `json:"successEvaluation,omitempty"`
}

// TranscriptEntry is one entry of the transcript-only shape.
type TranscriptEntry struct {
	Role    string `json:"role,omitempty"`
	Message string `json:"message,omitempty"`
	Content string `json:"content,omitempty"`
}

// Turn is one extracted LLM turn: an assistant message, the user message that
// prompted it (when one directly precedes it), and timing when available.
type Turn struct {
	Index            int
	AssistantMessage Message
	UserMessage      *Message
	Timing           *TurnLatency
}

// ExtractedToolCall is one tool invocation with its linked result.
type ExtractedToolCall struct {
	Index      int
	Name       string
	ID         string
	Parameters string
	Result     string
}

// Options overrides ids derived from the payload.
type Options struct {
	ConversationID string
	UserID         string
}
