// Package handler provides HTTP handlers for the webhook server.
package handler

import (
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/moda-ai/moda-go/internal/middleware"
	"github.com/moda-ai/moda-go/internal/vapi"
	"github.com/moda-ai/moda-go/pkg/logger"
)

// maxWebhookBody caps webhook payload size. Real end-of-call reports with
// full transcripts run well under 1MB.
const maxWebhookBody = 4 << 20

// WebhookHandler handles Vapi webhook deliveries.
type WebhookHandler struct {
	processor *vapi.Processor
	logger    *logger.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(processor *vapi.Processor, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		processor: processor,
		logger:    log,
	}
}

// Vapi handles POST /webhooks/vapi.
//
// Every delivered payload is acknowledged with 200 so Vapi does not retry;
// payloads that are not end-of-call reports are acknowledged no-ops. Optional
// conversation_id / user_id query parameters override ids derived from the
// payload.
func (h *WebhookHandler) Vapi(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Warn("failed to read webhook body",
			zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	var opts *vapi.Options
	query := r.URL.Query()
	if query.Get("conversation_id") != "" || query.Get("user_id") != "" {
		opts = &vapi.Options{
			ConversationID: query.Get("conversation_id"),
			UserID:         query.Get("user_id"),
		}
	}

	h.processor.ProcessRaw(r.Context(), body, opts)

	writeAck(w)
}
