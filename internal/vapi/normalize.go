package vapi

import (
	"encoding/json"
)

// Normalize reshapes any accepted webhook shape into the canonical Report.
//
// Resolution order, each step a fallback only when the previous left the field
// unset:
//  1. unwrap a "message" envelope carrying its own type,
//  2. take the call record,
//  3. keep artifact messages when present, else convert the transcript array,
//  4. keep call-level analysis when present, else synthesize one from
//     report-level summary/structuredData,
//  5. copy report-level startedAt/endedAt onto the call when the call lacks them.
//
// The input envelope is never mutated; the returned report owns fresh copies
// of anything it rewrites. A nil envelope normalizes to an empty report that
// fails the guard.
func Normalize(raw *Envelope) *Report {
	if raw == nil {
		return &Report{}
	}

	working := raw
	if raw.Message != nil && raw.Message.Type != "" {
		working = raw.Message
	}

	if working.Call == nil {
		return &Report{Type: working.Type}
	}

	call := *working.Call

	if call.Artifact == nil || len(call.Artifact.Messages) == 0 {
		if msgs := transcriptMessages(working.Transcript); len(msgs) > 0 {
			artifact := Artifact{}
			if call.Artifact != nil {
				artifact = *call.Artifact
			}
			artifact.Messages = msgs
			call.Artifact = &artifact
		}
	}

	if isAnalysisEmpty(call.Analysis) {
		if working.Summary != "" || working.StructuredData != nil {
			call.Analysis = &Analysis{
				Summary:        working.Summary,
				StructuredData: working.StructuredData,
			}
		}
	}

	if call.StartedAt == "" {
		call.StartedAt = working.StartedAt
	}
	if call.EndedAt == "" {
		call.EndedAt = working.EndedAt
	}

	return &Report{Type: working.Type, Call: &call}
}

// IsEndOfCallReport reports whether a payload qualifies for span emission
// after normalization.
func IsEndOfCallReport(payload *Envelope) bool {
	return Normalize(payload).Qualifies()
}

// transcriptMessages converts a transcript array into canonical messages.
// Entries without a role are dropped; a transcript that is not an array of
// objects (Vapi also sends it as a flat string) yields nothing.
func transcriptMessages(raw json.RawMessage) []Message {
	if len(raw) == 0 {
		return nil
	}

	var entries []TranscriptEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}

	msgs := make([]Message, 0, len(entries))
	for _, e := range entries {
		if e.Role == "" {
			continue
		}
		content := e.Message
		if content == "" {
			content = e.Content
		}
		msgs = append(msgs, Message{Role: e.Role, Content: content})
	}
	if len(msgs) == 0 {
		return nil
	}
	return msgs
}

func isAnalysisEmpty(a *Analysis) bool {
	return a == nil || (a.Summary == "" && a.StructuredData == nil && a.SuccessEvaluation == nil)
}
