// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// WebhooksTotal tracks received Vapi webhooks by payload type.
	WebhooksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vapi_webhooks_total",
			Help: "Total Vapi webhook payloads received",
		},
		[]string{"type"},
	)

	// WebhookProcessingDuration tracks end-of-call report processing time.
	WebhookProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vapi_webhook_processing_seconds",
			Help:    "Time spent normalizing a report and emitting its span tree",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// SpansEmitted tracks spans emitted per kind (call, turn, tool, transfer).
	SpansEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vapi_spans_emitted_total",
			Help: "Total spans emitted from end-of-call reports",
		},
		[]string{"kind"},
	)

	// CallsSkipped tracks webhooks that failed the end-of-call guard.
	CallsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vapi_calls_skipped_total",
			Help: "Webhook payloads that did not qualify for span emission",
		},
		[]string{"reason"},
	)

	// LLMCompletionDuration tracks instrumented LLM completion duration.
	LLMCompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_completion_duration_seconds",
			Help:    "Instrumented LLM completion duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"vendor", "model", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"vendor", "model", "direction"},
	)

	// EventsPublished tracks processed-call events published to JetStream.
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "call_events_published_total",
			Help: "Processed-call events published to the event stream",
		},
		[]string{"status"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordWebhook records a received webhook and its processing outcome.
func RecordWebhook(payloadType string, duration float64) {
	if payloadType == "" {
		payloadType = "unknown"
	}
	WebhooksTotal.WithLabelValues(payloadType).Inc()
	WebhookProcessingDuration.Observe(duration)
}

// RecordSpans records emitted span counts for one processed call.
func RecordSpans(turns, tools, transfers int) {
	SpansEmitted.WithLabelValues("call").Inc()
	SpansEmitted.WithLabelValues("turn").Add(float64(turns))
	SpansEmitted.WithLabelValues("tool").Add(float64(tools))
	SpansEmitted.WithLabelValues("transfer").Add(float64(transfers))
}

// RecordLLMCompletion records metrics for an instrumented LLM completion.
func RecordLLMCompletion(vendor, model, status string, duration float64, tokensIn, tokensOut int) {
	LLMCompletionDuration.WithLabelValues(vendor, model, status).Observe(duration)
	LLMTokensTotal.WithLabelValues(vendor, model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(vendor, model, "out").Add(float64(tokensOut))
}
