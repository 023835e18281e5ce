package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/moda-ai/moda-go/internal/vapi"
	"github.com/moda-ai/moda-go/pkg/metrics"
)

const (
	// StreamName is the name of the processed-calls stream.
	StreamName = "VAPI_CALLS"

	// SubjectProcessed is the subject processed-call events are published to.
	SubjectProcessed = "vapi.calls.processed"
)

// processedEvent is the wire form of a processed-call notification.
type processedEvent struct {
	vapi.CallSummary
	ProcessedAt time.Time `json:"processed_at"`
}

// Publisher publishes processed-call events. It implements vapi.Notifier.
// A nil Publisher is a no-op, so callers can wire it unconditionally.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher on an established client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// EnsureStream ensures the processed-calls stream exists.
func (p *Publisher) EnsureStream(ctx context.Context) error {
	js := p.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{"vapi.calls.>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Description: "Processed Vapi call notifications",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// CallProcessed publishes a processed-call event. Delivery failures are
// logged and counted, never propagated: notifications must not affect
// webhook processing.
func (p *Publisher) CallProcessed(ctx context.Context, summary vapi.CallSummary) {
	if p == nil || p.client == nil {
		return
	}

	data, err := json.Marshal(processedEvent{
		CallSummary: summary,
		ProcessedAt: time.Now().UTC(),
	})
	if err != nil {
		p.client.logger.Error("failed to marshal call event", zap.Error(err))
		metrics.EventsPublished.WithLabelValues("error").Inc()
		return
	}

	if _, err := p.client.JetStream().Publish(ctx, SubjectProcessed, data); err != nil {
		p.client.logger.Warn("failed to publish call event",
			zap.String("call_id", summary.CallID),
			zap.Error(err),
		)
		metrics.EventsPublished.WithLabelValues("error").Inc()
		return
	}

	metrics.EventsPublished.WithLabelValues("ok").Inc()
}
