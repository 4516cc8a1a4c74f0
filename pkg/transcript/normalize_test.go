package transcript

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_PreservesOrderAcrossTurns(t *testing.T) {
	seq := TurnSequence{
		{Timestamp: 100, Messages: []Message{
			{Type: EventMessage, Role: RoleUser, Content: Text("first")},
			{Type: EventMessage, Role: RoleAssistant, Content: Text("second")},
		}},
		{Timestamp: 200, Messages: []Message{
			{Type: EventMessage, Role: RoleUser, Content: Text("third")},
		}},
	}

	res := Normalize(seq)

	require.Len(t, res.Messages, 3)
	assert.Equal(t, "first", res.Messages[0].Content)
	assert.Equal(t, "second", res.Messages[1].Content)
	assert.Equal(t, "third", res.Messages[2].Content)
	assert.Equal(t, 2, res.TurnCount)
}

func TestNormalize_Filtering(t *testing.T) {
	tests := []struct {
		name     string
		message  Message
		expected []NormalizedMessage
	}{
		{
			name:     "empty string content dropped",
			message:  Message{Type: EventMessage, Role: RoleUser, Content: Text("")},
			expected: []NormalizedMessage{},
		},
		{
			name:     "whitespace content dropped",
			message:  Message{Type: EventMessage, Role: RoleUser, Content: Text("   ")},
			expected: []NormalizedMessage{},
		},
		{
			name:     "all empty fragments dropped",
			message:  Message{Type: EventMessage, Role: RoleUser, Content: Fragments("", nil, "")},
			expected: []NormalizedMessage{},
		},
		{
			name:     "non-message event excluded regardless of content",
			message:  Message{Type: "agent_handoff", Role: RoleAssistant, Content: Text("handing off")},
			expected: []NormalizedMessage{},
		},
		{
			name:     "missing type counts as message",
			message:  Message{Role: RoleUser, Content: Text("hello")},
			expected: []NormalizedMessage{{Role: RoleUser, Content: "hello"}},
		},
		{
			name:     "fragments joined with single space",
			message:  Message{Type: EventMessage, Role: RoleAssistant, Content: Fragments("Hi", "", "there")},
			expected: []NormalizedMessage{{Role: RoleAssistant, Content: "Hi there"}},
		},
		{
			name:     "surrounding whitespace trimmed",
			message:  Message{Type: EventMessage, Role: RoleUser, Content: Text("  padded  ")},
			expected: []NormalizedMessage{{Role: RoleUser, Content: "padded"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Normalize(&Conversation{Timestamp: 100, Messages: []Message{tt.message}})
			assert.Equal(t, tt.expected, res.Messages)
		})
	}
}

func TestNormalize_TimestampPrecedence(t *testing.T) {
	conv := &Conversation{
		Timestamp: 1700000000,
		Messages: []Message{
			{Type: EventMessage, Role: RoleUser, Content: Text("hello")},
		},
	}

	res := Normalize(conv)
	assert.Equal(t, time.Unix(1700000000, 0).Format(TimeLayout), res.Timestamp)
}

func TestNormalize_MaxTurnTimestampWhenNoExplicit(t *testing.T) {
	seq := TurnSequence{
		{Timestamp: 1700000100, Messages: []Message{{Role: RoleUser, Content: Text("a")}}},
		{Timestamp: 1700000300, Messages: []Message{{Role: RoleUser, Content: Text("b")}}},
		{Timestamp: 1700000200, Messages: []Message{{Role: RoleUser, Content: Text("c")}}},
	}

	res := Normalize(seq)
	assert.Equal(t, time.Unix(1700000300, 0).Format(TimeLayout), res.Timestamp)
}

func TestNormalize_WallClockFallback(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 10, 30, 0, 0, time.Local)
	restore := now
	now = func() time.Time { return fixed }
	defer func() { now = restore }()

	res := Normalize(&Conversation{Messages: []Message{
		{Role: RoleUser, Content: Text("no timestamp anywhere")},
	}})

	assert.Equal(t, "2024-03-01T10:30:00", res.Timestamp)
}

func TestNormalize_EmptyResultIsNeverNil(t *testing.T) {
	res := Normalize(TurnSequence{
		{Timestamp: 100, Messages: []Message{
			{Type: "agent_handoff", Role: RoleAssistant, Content: Text("skip")},
			{Type: EventMessage, Role: RoleUser, Content: Text("")},
		}},
	})

	require.NotNil(t, res.Messages)
	assert.Empty(t, res.Messages)
}

func TestNormalize_ExampleScenario(t *testing.T) {
	seq := TurnSequence{
		{Timestamp: 1700000000, Messages: []Message{
			{Type: EventMessage, Role: RoleUser, Content: Text("Hello")},
			{Type: EventMessage, Role: RoleAssistant, Content: Fragments("Hi", "there")},
		}},
	}

	res := Normalize(seq)

	assert.Equal(t, []NormalizedMessage{
		{Role: RoleUser, Content: "Hello"},
		{Role: RoleAssistant, Content: "Hi there"},
	}, res.Messages)
	assert.Equal(t, time.Unix(1700000000, 0).Format(TimeLayout), res.Timestamp)
	assert.Equal(t, 1, res.TurnCount)
}

func TestParse(t *testing.T) {
	t.Run("array decodes as turn sequence", func(t *testing.T) {
		raw := `[{"timestamp": 1700000000, "messages": [{"type": "message", "role": "user", "content": "Hello"}]}]`

		parsed, err := Parse([]byte(raw))
		require.NoError(t, err)

		seq, ok := parsed.(TurnSequence)
		require.True(t, ok)
		require.Len(t, seq, 1)
		assert.Equal(t, float64(1700000000), seq[0].Timestamp)
		assert.Equal(t, "Hello", seq[0].Messages[0].Content.Flatten())
	})

	t.Run("object decodes as conversation", func(t *testing.T) {
		raw := `{"timestamp": 1700000000, "messages": [{"role": "assistant", "content": ["Hi", "there"]}]}`

		parsed, err := Parse([]byte(raw))
		require.NoError(t, err)

		conv, ok := parsed.(*Conversation)
		require.True(t, ok)
		assert.Equal(t, "Hi there", conv.Messages[0].Content.Flatten())
	})

	t.Run("mixed fragment types coerced", func(t *testing.T) {
		raw := `{"messages": [{"role": "user", "content": ["part", 42, null, true]}]}`

		parsed, err := Parse([]byte(raw))
		require.NoError(t, err)

		res := Normalize(parsed)
		require.Len(t, res.Messages, 1)
		assert.Equal(t, "part 42 true", res.Messages[0].Content)
	})

	t.Run("unknown shape rejected", func(t *testing.T) {
		_, err := Parse([]byte(`"just a string"`))
		assert.Error(t, err)
	})
}

func TestParse_ConversationTimestampForms(t *testing.T) {
	t.Run("iso string timestamp resolves to epoch", func(t *testing.T) {
		raw := `{"timestamp": "2023-11-14T22:13:20", "messages": [{"role": "user", "content": "Hello"}]}`

		parsed, err := Parse([]byte(raw))
		require.NoError(t, err)

		conv, ok := parsed.(*Conversation)
		require.True(t, ok)

		want, err := time.ParseInLocation(TimeLayout, "2023-11-14T22:13:20", time.Local)
		require.NoError(t, err)
		assert.Equal(t, float64(want.Unix()), conv.Timestamp)

		// The stored form round-trips through normalization unchanged.
		assert.Equal(t, "2023-11-14T22:13:20", Normalize(parsed).Timestamp)
	})

	t.Run("numeric timestamp still accepted", func(t *testing.T) {
		raw := `{"timestamp": 1700000000.5, "messages": [{"role": "user", "content": "Hello"}]}`

		parsed, err := Parse([]byte(raw))
		require.NoError(t, err)

		conv := parsed.(*Conversation)
		assert.Equal(t, 1700000000.5, conv.Timestamp)
	})

	t.Run("null and absent timestamps mean absent", func(t *testing.T) {
		for _, raw := range []string{
			`{"timestamp": null, "messages": []}`,
			`{"messages": []}`,
		} {
			parsed, err := Parse([]byte(raw))
			require.NoError(t, err)
			assert.Zero(t, parsed.(*Conversation).Timestamp)
		}
	})

	t.Run("malformed timestamp string rejected", func(t *testing.T) {
		_, err := Parse([]byte(`{"timestamp": "yesterday evening", "messages": []}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid timestamp")
	})
}
