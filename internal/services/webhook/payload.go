package webhook

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoCandidateID is the one unrecoverable normalization failure:
// without a candidate id the event cannot be attributed to anyone.
var ErrNoCandidateID = errors.New("candidateId missing in dynamic variables")

// Event is the normalized form of a conversation webhook delivery.
type Event struct {
	CandidateID string
	CallID      string
	Transcript  string
	AudioURL    *string
}

// TranscriptEntry is one normalized utterance.
type TranscriptEntry struct {
	Role string
	Text string
}

// asObject coerces any value into a map, yielding an empty map for
// non-objects so probe chains never nil-check.
func asObject(value interface{}) map[string]interface{} {
	if m, ok := value.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

// asString returns the trimmed string value, or "" when the value is
// not a string or is whitespace-only.
func asString(value interface{}) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// firstString returns the first non-empty trimmed string among values.
func firstString(values ...interface{}) string {
	for _, value := range values {
		if s := asString(value); s != "" {
			return s
		}
	}
	return ""
}

// candidateIDProbes enumerates the known nesting paths for the
// dynamic-variables block across provider payload versions, in
// priority order. Each probe yields the values to inspect at one
// location, snake_case key before camelCase.
var candidateIDProbes = []func(body map[string]interface{}) []interface{}{
	func(body map[string]interface{}) []interface{} {
		dv := asObject(body["dynamic_variables"])
		return []interface{}{dv["candidate_id"], dv["candidateId"]}
	},
	func(body map[string]interface{}) []interface{} {
		dv := asObject(asObject(body["conversation_initiation_client_data"])["dynamic_variables"])
		return []interface{}{dv["candidate_id"], dv["candidateId"]}
	},
	func(body map[string]interface{}) []interface{} {
		dv := asObject(asObject(body["metadata"])["dynamic_variables"])
		return []interface{}{dv["candidate_id"], dv["candidateId"]}
	},
	func(body map[string]interface{}) []interface{} {
		return []interface{}{body["candidate_id"], body["candidateId"]}
	},
}

// callIDFields lists the alternate names providers have used for the
// conversation session id, in priority order.
var callIDFields = []string{"call_id", "conversation_id", "id", "event_id", "session_id"}

// transcriptContainers lists the locations a transcript has been seen
// at, in priority order. The first location yielding at least one
// entry wins.
var transcriptContainers = []func(body map[string]interface{}) interface{}{
	func(body map[string]interface{}) interface{} { return body["transcript"] },
	func(body map[string]interface{}) interface{} { return asObject(body["data"])["transcript"] },
	func(body map[string]interface{}) interface{} { return asObject(body["conversation"])["transcript"] },
	func(body map[string]interface{}) interface{} { return asObject(body["analysis"])["transcript"] },
	func(body map[string]interface{}) interface{} { return asObject(body["event"])["transcript"] },
}

// audioURLProbes mirrors the transcript container locations plus the
// legacy recording_url field.
var audioURLProbes = []func(body map[string]interface{}) interface{}{
	func(body map[string]interface{}) interface{} { return body["audio_url"] },
	func(body map[string]interface{}) interface{} { return asObject(body["data"])["audio_url"] },
	func(body map[string]interface{}) interface{} { return asObject(body["conversation"])["audio_url"] },
	func(body map[string]interface{}) interface{} { return asObject(body["analysis"])["audio_url"] },
	func(body map[string]interface{}) interface{} { return body["recording_url"] },
}

func pickCandidateID(body map[string]interface{}) string {
	for _, probe := range candidateIDProbes {
		if id := firstString(probe(body)...); id != "" {
			return id
		}
	}
	return ""
}

// pickCallID resolves the idempotency key for this delivery. When no
// id field is present at all a fallback id is synthesized; idempotency
// is knowingly lost for that degenerate case.
func pickCallID(body map[string]interface{}, candidateID string) string {
	for _, field := range callIDFields {
		if id := asString(body[field]); id != "" {
			return id
		}
	}
	return fmt.Sprintf("fallback-%s-%d", candidateID, time.Now().UnixMilli())
}

// extractTranscriptEntries normalizes one raw transcript value. A
// plain string becomes a single entry; a list is normalized row by
// row, keeping only rows that yield non-empty text.
func extractTranscriptEntries(raw interface{}) []TranscriptEntry {
	if s := asString(raw); s != "" {
		return []TranscriptEntry{{Role: "conversation", Text: s}}
	}

	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}

	var entries []TranscriptEntry
	for _, item := range items {
		row := asObject(item)
		role := firstString(row["role"], row["speaker"], row["source"], row["type"])
		if role == "" {
			role = "speaker"
		}
		text := firstString(
			row["text"],
			row["message"],
			row["content"],
			asObject(row["user_transcription_event"])["user_transcript"],
			asObject(row["agent_response_event"])["agent_response"],
		)
		if text != "" {
			entries = append(entries, TranscriptEntry{Role: role, Text: text})
		}
	}
	return entries
}

// transcriptToText joins entries into "role: text" lines in original
// order; this is the canonical stored transcript form.
func transcriptToText(entries []TranscriptEntry) string {
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, entry.Role+": "+entry.Text)
	}
	return strings.Join(lines, "\n")
}

func pickTranscript(body map[string]interface{}) string {
	for _, container := range transcriptContainers {
		if entries := extractTranscriptEntries(container(body)); len(entries) > 0 {
			return transcriptToText(entries)
		}
	}
	// Last resort: a pre-joined plain-text transcript field.
	return firstString(body["transcript_text"], asObject(body["analysis"])["transcript_text"])
}

func pickAudioURL(body map[string]interface{}) *string {
	for _, probe := range audioURLProbes {
		if url := asString(probe(body)); url != "" {
			return &url
		}
	}
	return nil
}

// Normalize extracts a candidate id, call id, transcript and audio URL
// from an arbitrary untyped event body. Missing or malformed optional
// fields never fail normalization; only an unattributable event (no
// candidate id on any known path) returns an error.
func Normalize(body map[string]interface{}) (*Event, error) {
	candidateID := pickCandidateID(body)
	if candidateID == "" {
		return nil, ErrNoCandidateID
	}

	return &Event{
		CandidateID: candidateID,
		CallID:      pickCallID(body, candidateID),
		Transcript:  pickTranscript(body),
		AudioURL:    pickAudioURL(body),
	}, nil
}
