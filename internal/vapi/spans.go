package vapi

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/moda-ai/moda-go/pkg/logger"
	"github.com/moda-ai/moda-go/pkg/metrics"
	"github.com/moda-ai/moda-go/pkg/tracing"
)

const (
	callSpanName     = "vapi.call"
	turnSpanPrefix   = "vapi.turn."
	toolSpanPrefix   = "vapi.tool."
	transferSpanName = "vapi.transfer"
)

// CallSummary describes one processed call for downstream notification.
type CallSummary struct {
	CallID         string  `json:"call_id"`
	ConversationID string  `json:"conversation_id,omitempty"`
	EndedReason    string  `json:"ended_reason,omitempty"`
	Turns          int     `json:"turns"`
	Tools          int     `json:"tools"`
	Transfers      int     `json:"transfers"`
	Cost           float64 `json:"cost,omitempty"`
}

// Notifier receives a summary after a call's span tree has been emitted.
// Implementations must not block span processing on delivery failures.
type Notifier interface {
	CallProcessed(ctx context.Context, summary CallSummary)
}

// Processor converts end-of-call reports into span trees on a Sink.
type Processor struct {
	sink     tracing.Sink
	notifier Notifier
	logger   *logger.Logger
}

// NewProcessor creates a processor. notifier may be nil.
func NewProcessor(sink tracing.Sink, notifier Notifier, log *logger.Logger) *Processor {
	if log == nil {
		log = logger.Global()
	}
	return &Processor{
		sink:     sink,
		notifier: notifier,
		logger:   log,
	}
}

// ProcessRaw decodes a webhook body and processes it. Anything that is not a
// JSON object is a logged no-op; malformed payloads never surface as errors
// to the webhook caller.
func (p *Processor) ProcessRaw(ctx context.Context, body []byte, opts *Options) {
	var envelope Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		p.logger.Debug("discarding structurally invalid webhook payload", zap.Error(err))
		metrics.CallsSkipped.WithLabelValues("invalid_payload").Inc()
		return
	}
	p.Process(ctx, &envelope, opts)
}

// Process normalizes a payload and, when it qualifies as an end-of-call
// report, emits the span tree: a vapi.call parent, then turn, tool, and
// transfer children in that fixed order. Non-qualifying payloads are a no-op.
func (p *Processor) Process(ctx context.Context, payload *Envelope, opts *Options) {
	start := time.Now()

	report := Normalize(payload)
	if !report.Qualifies() {
		p.logger.Debug("webhook payload skipped", zap.String("type", report.Type))
		metrics.CallsSkipped.WithLabelValues("not_end_of_call").Inc()
		metrics.RecordWebhook(report.Type, time.Since(start).Seconds())
		return
	}

	call := report.Call

	turns := ExtractTurns(call.Artifact)
	toolCalls := ExtractToolCalls(call.Artifact)
	transfers := ExtractTransfers(call.Artifact)

	// The parent stays open while children are created so they attach as its
	// descendants; children close immediately as point-in-time records.
	parentCtx, parent := p.startCallSpan(ctx, call, opts)

	for _, turn := range turns {
		_, span := p.sink.StartSpan(parentCtx, turnSpanPrefix+strconv.Itoa(turn.Index))
		setTurnAttributes(span, turn)
		span.SetSuccess()
		span.End()
	}

	for _, tc := range toolCalls {
		_, span := p.sink.StartSpan(parentCtx, toolSpanPrefix+tc.Name)
		setToolAttributes(span, tc)
		span.SetSuccess()
		span.End()
	}

	for index, transfer := range transfers {
		_, span := p.sink.StartSpan(parentCtx, transferSpanName)
		setTransferAttributes(span, transfer, index)
		span.SetSuccess()
		span.End()
	}

	parent.SetSuccess()
	parent.End()

	metrics.RecordSpans(len(turns), len(toolCalls), len(transfers))
	metrics.RecordWebhook(report.Type, time.Since(start).Seconds())

	p.logger.WithCall(call.ID, resolveConversationID(call, opts)).Info("end-of-call report processed",
		zap.Int("turns", len(turns)),
		zap.Int("tools", len(toolCalls)),
		zap.Int("transfers", len(transfers)),
	)

	if p.notifier != nil {
		summary := CallSummary{
			CallID:         call.ID,
			ConversationID: resolveConversationID(call, opts),
			EndedReason:    call.EndedReason,
			Turns:          len(turns),
			Tools:          len(toolCalls),
			Transfers:      len(transfers),
		}
		if call.Cost != nil {
			summary.Cost = *call.Cost
		}
		p.notifier.CallProcessed(ctx, summary)
	}
}

func (p *Processor) startCallSpan(ctx context.Context, call *Call, opts *Options) (context.Context, tracing.Span) {
	ctx, span := p.sink.StartSpan(ctx, callSpanName)

	span.SetAttribute("llm.vendor", "vapi")

	if id := resolveConversationID(call, opts); id != "" {
		span.SetAttribute("moda.conversation_id", id)
	}
	if id := resolveUserID(call, opts); id != "" {
		span.SetAttribute("moda.user_id", id)
	}

	if call.Duration != nil {
		span.SetAttribute("vapi.call.duration", *call.Duration)
	}
	if call.EndedReason != "" {
		span.SetAttribute("vapi.call.ended_reason", call.EndedReason)
	}
	if call.Cost != nil {
		span.SetAttribute("vapi.call.cost", *call.Cost)
	}

	costs := ExtractCosts(call.Costs)
	costTypes := make([]string, 0, len(costs))
	for costType := range costs {
		costTypes = append(costTypes, costType)
	}
	sort.Strings(costTypes)
	for _, costType := range costTypes {
		span.SetAttribute("vapi.cost."+costType, costs[costType])
	}

	if call.AssistantID != "" {
		span.SetAttribute("vapi.call.assistant_id", call.AssistantID)
	}
	if call.Status != "" {
		span.SetAttribute("vapi.call.status", call.Status)
	}
	if call.StartedAt != "" {
		span.SetAttribute("vapi.call.started_at", call.StartedAt)
	}
	if call.EndedAt != "" {
		span.SetAttribute("vapi.call.ended_at", call.EndedAt)
	}

	if call.Analysis != nil {
		if call.Analysis.Summary != "" {
			span.SetAttribute("vapi.analysis.summary", call.Analysis.Summary)
		}
		if s, ok := successEvaluationString(call.Analysis.SuccessEvaluation); ok {
			span.SetAttribute("vapi.analysis.success_evaluation", s)
		}
		if call.Analysis.StructuredData != nil {
			if data, err := json.Marshal(call.Analysis.StructuredData); err == nil {
				span.SetAttribute("vapi.analysis.structured_data", string(data))
			}
		}
	}

	return ctx, span
}

func setTurnAttributes(span tracing.Span, turn Turn) {
	span.SetAttribute("llm.request.type", "chat")
	span.SetAttribute("llm.completions.0.role", "assistant")
	if turn.AssistantMessage.Content != "" {
		span.SetAttribute("llm.completions.0.content", turn.AssistantMessage.Content)
	}

	if turn.UserMessage != nil && turn.UserMessage.Content != "" {
		span.SetAttribute("llm.prompts.0.role", "user")
		span.SetAttribute("llm.prompts.0.content", turn.UserMessage.Content)
	}

	if timing := turn.Timing; timing != nil {
		if timing.ModelLatency != nil {
			span.SetAttribute("vapi.turn.model_latency_ms", *timing.ModelLatency)
		}
		if timing.VoiceLatency != nil {
			span.SetAttribute("vapi.turn.voice_latency_ms", *timing.VoiceLatency)
		}
		if timing.TranscriberLatency != nil {
			span.SetAttribute("vapi.turn.transcriber_latency_ms", *timing.TranscriberLatency)
		}
		if timing.TotalLatency != nil {
			span.SetAttribute("vapi.turn.total_latency_ms", *timing.TotalLatency)
		}
	}
}

func setToolAttributes(span tracing.Span, tc ExtractedToolCall) {
	span.SetAttribute("tool.name", tc.Name)
	if tc.ID != "" {
		span.SetAttribute("tool.call_id", tc.ID)
	}
	if tc.Parameters != "" {
		span.SetAttribute("tool.parameters", tc.Parameters)
	}
	if tc.Result != "" {
		span.SetAttribute("tool.result", tc.Result)
	}
}

func setTransferAttributes(span tracing.Span, transfer Transfer, index int) {
	if transfer.FromAssistant != "" {
		span.SetAttribute("vapi.transfer.from_assistant", transfer.FromAssistant)
	}
	if transfer.ToAssistant != "" {
		span.SetAttribute("vapi.transfer.to_assistant", transfer.ToAssistant)
	}
	if transfer.Status != "" {
		span.SetAttribute("vapi.transfer.status", transfer.Status)
	}
	span.SetAttribute("vapi.transfer.index", index)
}

func resolveConversationID(call *Call, opts *Options) string {
	if opts != nil && opts.ConversationID != "" {
		return opts.ConversationID
	}
	return call.ID
}

func resolveUserID(call *Call, opts *Options) string {
	if opts != nil && opts.UserID != "" {
		return opts.UserID
	}
	if call.Customer != nil {
		return call.Customer.Number
	}
	return ""
}

func successEvaluationString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, t != ""
	case bool:
		return strconv.FormatBool(t), true
	default:
		return fmt.Sprint(t), true
	}
}
