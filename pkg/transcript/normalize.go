package transcript

import "time"

// TimeLayout is the timestamp format stored in memory metadata,
// ISO-8601 without a zone designator.
const TimeLayout = "2006-01-02T15:04:05"

// clock hook for tests
var now = time.Now

// NormalizedMessage is a role/content pair ready for persistence.
type NormalizedMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Result is the output of Normalize. Messages is never nil; an empty
// slice means there is nothing to persist and callers must treat that
// as a no-op rather than an error.
type Result struct {
	Messages  []NormalizedMessage
	Timestamp string
	TurnCount int
}

// Normalize flattens a transcript into an ordered sequence of
// role/content pairs, preserving the original relative order. Event
// items that are not plain messages are dropped, as are messages whose
// content is empty after coercion.
func Normalize(t Transcript) Result {
	raw, turnCount := flatten(t)

	messages := make([]NormalizedMessage, 0, len(raw))
	for _, m := range raw {
		if m.Type != "" && m.Type != EventMessage {
			continue
		}
		content := m.Content.Flatten()
		if content == "" {
			continue
		}
		messages = append(messages, NormalizedMessage{Role: m.Role, Content: content})
	}

	return Result{
		Messages:  messages,
		Timestamp: formatEpoch(representativeEpoch(t)),
		TurnCount: turnCount,
	}
}

func flatten(t Transcript) ([]Message, int) {
	switch v := t.(type) {
	case TurnSequence:
		var all []Message
		for _, turn := range v {
			all = append(all, turn.Messages...)
		}
		return all, len(v)
	case *Conversation:
		if v == nil {
			return nil, 0
		}
		return v.Messages, 1
	default:
		return nil, 0
	}
}

// representativeEpoch resolves the transcript's timestamp in seconds
// since epoch: an explicit conversation timestamp wins, then the
// maximum timestamp across turns. Zero means no timestamp was present.
func representativeEpoch(t Transcript) float64 {
	switch v := t.(type) {
	case TurnSequence:
		var max float64
		for _, turn := range v {
			if turn.Timestamp > max {
				max = turn.Timestamp
			}
		}
		return max
	case *Conversation:
		if v == nil {
			return 0
		}
		return v.Timestamp
	default:
		return 0
	}
}

// formatEpoch renders an epoch timestamp in TimeLayout, falling back to
// the current wall clock when the transcript carried none.
func formatEpoch(epoch float64) string {
	if epoch <= 0 {
		return now().Format(TimeLayout)
	}
	sec := int64(epoch)
	nsec := int64((epoch - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).Format(TimeLayout)
}
