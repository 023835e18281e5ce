package vapi

import (
	"strings"
)

// ExtractTurns derives the LLM turns from a call's message history. Each
// assistant message starts a turn; the nearest preceding user message is
// bound to it, unless another assistant message sits in between.
func ExtractTurns(artifact *Artifact) []Turn {
	if artifact == nil || len(artifact.Messages) == 0 {
		return nil
	}

	var latencies []TurnLatency
	if artifact.PerformanceMetrics != nil {
		latencies = artifact.PerformanceMetrics.TurnLatencies
	}

	messages := artifact.Messages
	var turns []Turn
	turnIndex := 0

	for i, msg := range messages {
		if msg.Role != "assistant" {
			continue
		}

		var userMessage *Message
		for j := i - 1; j >= 0; j-- {
			if messages[j].Role == "user" {
				userMessage = &messages[j]
				break
			}
			if messages[j].Role == "assistant" {
				break
			}
		}

		turns = append(turns, Turn{
			Index:            turnIndex,
			AssistantMessage: msg,
			UserMessage:      userMessage,
			Timing:           turnTiming(latencies, turnIndex),
		})
		turnIndex++
	}

	return turns
}

// turnTiming finds the latency entry for a turn: a turnIndex field match
// first, array position as the fallback.
func turnTiming(latencies []TurnLatency, turnIndex int) *TurnLatency {
	for i := range latencies {
		if latencies[i].TurnIndex != nil && *latencies[i].TurnIndex == turnIndex {
			return &latencies[i]
		}
	}
	if turnIndex < len(latencies) {
		return &latencies[turnIndex]
	}
	return nil
}

// ExtractToolCalls derives tool invocations from the message history.
//
// Tool results are linked by id: tool/function messages carrying a
// tool_call_id are indexed first (last write wins on duplicates), then every
// tool_calls request embedded in an assistant message becomes one extracted
// call, picking up its result from the index. Standalone tool messages that
// have a name but no linking id are appended last, their content serving as
// the result. One sequential index counter runs across all passes.
func ExtractToolCalls(artifact *Artifact) []ExtractedToolCall {
	if artifact == nil || len(artifact.Messages) == 0 {
		return nil
	}

	messages := artifact.Messages

	results := make(map[string]string)
	for _, msg := range messages {
		if (msg.Role == "tool" || msg.Role == "function") && msg.ToolCallID != "" {
			results[msg.ToolCallID] = msg.Content
		}
	}

	var calls []ExtractedToolCall
	toolIndex := 0

	for _, msg := range messages {
		if msg.Role != "assistant" || len(msg.ToolCalls) == 0 {
			continue
		}
		for _, tc := range msg.ToolCalls {
			extracted := ExtractedToolCall{
				Index:      toolIndex,
				Name:       tc.Function.Name,
				Parameters: tc.Function.Arguments,
			}
			if tc.ID != "" {
				extracted.ID = tc.ID
				if result, ok := results[tc.ID]; ok {
					extracted.Result = result
				}
			}
			calls = append(calls, extracted)
			toolIndex++
		}
	}

	for _, msg := range messages {
		if msg.Role == "tool" && msg.Name != "" && msg.ToolCallID == "" {
			calls = append(calls, ExtractedToolCall{
				Index:  toolIndex,
				Name:   msg.Name,
				Result: msg.Content,
			})
			toolIndex++
		}
	}

	return calls
}

// ExtractTransfers passes through squad transfer records in original order.
func ExtractTransfers(artifact *Artifact) []Transfer {
	if artifact == nil {
		return nil
	}
	return artifact.Transfers
}

// ExtractCosts normalizes cost entries into accumulated totals per type.
// Type names are matched case-insensitively against keyword families, so
// "llm"/"chat" land under model, "stt"/"speech-to-text" under transcriber,
// and "tts"/"text-to-speech" under voice; anything else keeps its lower-cased
// original type.
func ExtractCosts(costs []CostEntry) map[string]float64 {
	totals := make(map[string]float64)
	for _, entry := range costs {
		totals[normalizeCostType(entry.Type)] += entry.Cost
	}
	return totals
}

func normalizeCostType(costType string) string {
	lower := strings.ToLower(costType)

	for _, term := range []string{"model", "llm", "chat"} {
		if strings.Contains(lower, term) {
			return "model"
		}
	}
	for _, term := range []string{"transcri", "stt", "speech-to-text"} {
		if strings.Contains(lower, term) {
			return "transcriber"
		}
	}
	for _, term := range []string{"voice", "tts", "text-to-speech"} {
		if strings.Contains(lower, term) {
			return "voice"
		}
	}

	return lower
}
