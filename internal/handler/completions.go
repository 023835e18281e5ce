package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/moda-ai/moda-go/internal/conversation"
	"github.com/moda-ai/moda-go/internal/llm"
	"github.com/moda-ai/moda-go/pkg/logger"
)

// CompletionHandler handles chat completion requests through the configured
// LLM provider.
type CompletionHandler struct {
	client llm.Client
	logger *logger.Logger
}

// NewCompletionHandler creates a new completion handler. client may be nil
// when no provider is configured; requests are then rejected with 503.
func NewCompletionHandler(client llm.Client, log *logger.Logger) *CompletionHandler {
	return &CompletionHandler{
		client: client,
		logger: log,
	}
}

type completionRequest struct {
	Model       string            `json:"model,omitempty"`
	Messages    []llm.ChatMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
	Temperature float64           `json:"temperature,omitempty"`

	// Optional conversation threading overrides. Without them the span on the
	// completion carries an id derived from the message sequence itself.
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

type completionResponse struct {
	Content    string `json:"content"`
	Model      string `json:"model"`
	TokensIn   int    `json:"tokens_in"`
	TokensOut  int    `json:"tokens_out"`
	StopReason string `json:"stop_reason,omitempty"`
	LatencyMs  int64  `json:"latency_ms"`
}

// Chat handles POST /v1/chat/completions.
func (h *CompletionHandler) Chat(w http.ResponseWriter, r *http.Request) {
	if h.client == nil {
		writeError(w, http.StatusServiceUnavailable, "no LLM provider configured")
		return
	}

	var req completionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages are required")
		return
	}

	ctx := r.Context()
	if req.ConversationID != "" {
		ctx = conversation.WithConversationID(ctx, req.ConversationID)
	}
	if req.UserID != "" {
		ctx = conversation.WithUserID(ctx, req.UserID)
	}

	resp, err := h.client.Complete(ctx, &llm.CompletionRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		h.logger.Error("completion failed",
			zap.String("provider", h.client.Name()),
			zap.Error(err),
		)
		writeError(w, http.StatusBadGateway, "completion failed")
		return
	}

	writeJSON(w, http.StatusOK, completionResponse{
		Content:    resp.Content,
		Model:      resp.Model,
		TokensIn:   resp.TokensIn,
		TokensOut:  resp.TokensOut,
		StopReason: resp.StopReason,
		LatencyMs:  resp.LatencyMs,
	})
}
