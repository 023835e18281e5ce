// Package conversation provides conversation threading: request-scoped
// conversation/user id overrides and deterministic conversation id derivation
// from message history.
package conversation

import (
	"context"
	"sync"
)

type ctxKey int

const (
	conversationIDKey ctxKey = iota
	userIDKey
)

// Sticky process-wide defaults, used when no scoped override is present.
// Request-scoped overrides live on the context so concurrent requests never
// see each other's values.
var defaults struct {
	mu             sync.RWMutex
	conversationID string
	userID         string
}

// WithConversationID returns a context carrying a conversation id override.
// Discarding the returned context restores whatever was active before, which
// gives nested overrides LIFO semantics.
func WithConversationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, conversationIDKey, id)
}

// WithUserID returns a context carrying a user id override.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// ConversationID resolves the active conversation id: innermost context
// override first, then the sticky default. Empty values count as unset.
func ConversationID(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(conversationIDKey).(string); ok && v != "" {
		return v, true
	}
	defaults.mu.RLock()
	defer defaults.mu.RUnlock()
	if defaults.conversationID != "" {
		return defaults.conversationID, true
	}
	return "", false
}

// UserID resolves the active user id: innermost context override first, then
// the sticky default.
func UserID(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(userIDKey).(string); ok && v != "" {
		return v, true
	}
	defaults.mu.RLock()
	defer defaults.mu.RUnlock()
	if defaults.userID != "" {
		return defaults.userID, true
	}
	return "", false
}

// SetDefaultConversationID sets the sticky conversation id default used when
// no scoped override is active. Pass an empty string to clear it.
func SetDefaultConversationID(id string) {
	defaults.mu.Lock()
	defaults.conversationID = id
	defaults.mu.Unlock()
}

// SetDefaultUserID sets the sticky user id default. Pass an empty string to
// clear it.
func SetDefaultUserID(id string) {
	defaults.mu.Lock()
	defaults.userID = id
	defaults.mu.Unlock()
}
