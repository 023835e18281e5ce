package conversation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

const (
	idPrefix = "conv_"
	idHexLen = 16

	// Separator between system and user content in the digest input, so
	// ("ab","c") and ("a","bc") never collide.
	digestSeparator = "\x1f"
)

// Message is a chat message as seen by the identifier. Content carries plain
// text; Blocks carries multimodal content and takes precedence when non-empty.
type Message struct {
	Role    string
	Content string
	Blocks  []ContentBlock
}

// ContentBlock is one typed block of a multimodal message.
type ContentBlock struct {
	Type string
	Text string
}

// ComputeID derives a stable conversation id from a message sequence.
//
// An active override (scoped or sticky) is returned verbatim. Otherwise the id
// is a digest of the first system message content and the first user message
// content, so every turn of the same conversation maps to the same id. With no
// user message at all there is nothing stable to key on, and a fresh random id
// is returned on every call.
func ComputeID(ctx context.Context, messages []Message) string {
	if id, ok := ConversationID(ctx); ok {
		return id
	}

	var systemContent, userContent string
	haveSystem, haveUser := false, false
	for _, m := range messages {
		switch m.Role {
		case "system":
			if !haveSystem {
				systemContent = contentText(m)
				haveSystem = true
			}
		case "user":
			if !haveUser {
				userContent = contentText(m)
				haveUser = true
			}
		}
		if haveSystem && haveUser {
			break
		}
	}

	if !haveUser {
		return randomID()
	}

	sum := sha256.Sum256([]byte(systemContent + digestSeparator + userContent))
	return idPrefix + hex.EncodeToString(sum[:])[:idHexLen]
}

func randomID() string {
	u := uuid.New()
	return idPrefix + hex.EncodeToString(u[:])[:idHexLen]
}

// contentText flattens message content to plain text. Multimodal blocks
// contribute only their text parts, in order; non-text blocks are skipped.
func contentText(m Message) string {
	if len(m.Blocks) == 0 {
		return m.Content
	}
	var b strings.Builder
	for _, block := range m.Blocks {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}
