// Package transcript holds the conversation transcript model and the
// normalization logic that reshapes session history into the flat
// role/content form expected by the memory service.
package transcript

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EventMessage is the only item type retained by normalization. Session
// history also carries other event kinds (agent handoffs and the like)
// which are dropped.
const EventMessage = "message"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Transcript is the full exchange history of one voice session. It is
// either an ordered sequence of timestamped turns or a single
// conversation object. The shape is decided once, at the decoding
// boundary, never re-sniffed downstream.
type Transcript interface {
	isTranscript()
}

// TurnSequence is the turn-by-turn transcript shape.
type TurnSequence []Turn

func (TurnSequence) isTranscript() {}

// Conversation is the single-object transcript shape. Timestamp is
// seconds since epoch, zero when absent. On the wire it may also
// arrive as an ISO-8601 string in TimeLayout; decoding resolves both
// forms to epoch seconds.
type Conversation struct {
	Timestamp float64   `json:"timestamp,omitempty"`
	Messages  []Message `json:"messages"`
}

func (*Conversation) isTranscript() {}

func (c *Conversation) UnmarshalJSON(data []byte) error {
	var raw struct {
		Timestamp json.RawMessage `json:"timestamp"`
		Messages  []Message       `json:"messages"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.Messages = raw.Messages
	c.Timestamp = 0

	if len(raw.Timestamp) == 0 || string(raw.Timestamp) == "null" {
		return nil
	}
	epoch, err := parseEpoch(raw.Timestamp)
	if err != nil {
		return err
	}
	c.Timestamp = epoch
	return nil
}

// parseEpoch accepts a conversation timestamp as either epoch seconds
// or an ISO-8601 string in TimeLayout, read in local time like every
// stored timestamp.
func parseEpoch(data json.RawMessage) (float64, error) {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		return n, nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return 0, fmt.Errorf("timestamp must be a number or %q string", TimeLayout)
	}
	t, err := time.ParseInLocation(TimeLayout, s, time.Local)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return float64(t.UnixNano()) / 1e9, nil
}

// Turn is one timestamped unit of a multi-turn transcript.
type Turn struct {
	Timestamp float64   `json:"timestamp,omitempty"`
	Messages  []Message `json:"messages"`
}

// Message is a single history item. An empty Type counts as a plain
// message; anything else that is not "message" is an event.
type Message struct {
	Type    string  `json:"type,omitempty"`
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

// Content is message content as delivered by the session: either a
// single scalar or an ordered list of fragments.
type Content struct {
	scalar    any
	fragments []any
	list      bool
}

// Text builds scalar string content.
func Text(s string) Content {
	return Content{scalar: s}
}

// Fragments builds list content from the given fragments.
func Fragments(parts ...any) Content {
	return Content{fragments: parts, list: true}
}

func (c *Content) UnmarshalJSON(data []byte) error {
	if isJSONArray(data) {
		var parts []any
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		*c = Content{fragments: parts, list: true}
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = Content{scalar: v}
	return nil
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.list {
		return json.Marshal(c.fragments)
	}
	return json.Marshal(c.scalar)
}

// Flatten renders the content as one trimmed string. Fragment lists are
// joined with a single space, skipping empty fragments.
func (c Content) Flatten() string {
	if !c.list {
		return strings.TrimSpace(coerceString(c.scalar))
	}
	parts := make([]string, 0, len(c.fragments))
	for _, f := range c.fragments {
		if isEmptyFragment(f) {
			continue
		}
		parts = append(parts, coerceString(f))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func coerceString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func isEmptyFragment(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case float64:
		return t == 0
	case int:
		return t == 0
	case bool:
		return !t
	default:
		return false
	}
}

// Parse decodes a raw transcript payload. A top-level array is a turn
// sequence, a top-level object a single conversation. This is the only
// place the transcript shape is detected.
func Parse(data []byte) (Transcript, error) {
	switch firstByte(data) {
	case '[':
		var turns TurnSequence
		if err := json.Unmarshal(data, &turns); err != nil {
			return nil, fmt.Errorf("failed to decode turn sequence: %w", err)
		}
		return turns, nil
	case '{':
		var conv Conversation
		if err := json.Unmarshal(data, &conv); err != nil {
			return nil, fmt.Errorf("failed to decode conversation: %w", err)
		}
		return &conv, nil
	default:
		return nil, fmt.Errorf("unknown transcript shape")
	}
}

func isJSONArray(data []byte) bool {
	return firstByte(data) == '['
}

func firstByte(data []byte) byte {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}
