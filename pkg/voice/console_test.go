package voice

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleRoom_ReceiveAndSpeak(t *testing.T) {
	var out bytes.Buffer
	room := NewConsoleRoom(strings.NewReader("Hello Jarvis\n"), &out)

	line, err := room.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Hello Jarvis", line)

	require.NoError(t, room.Speak(context.Background(), "Namaste!"))
	assert.Contains(t, out.String(), "jarvis> Namaste!")
}

func TestConsoleRoom_ExitAndEOFCloseRoom(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "exit line", input: "exit\n"},
		{name: "quit line", input: "QUIT\n"},
		{name: "eof", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room := NewConsoleRoom(strings.NewReader(tt.input), io.Discard)

			_, err := room.Receive(context.Background())
			assert.ErrorIs(t, err, ErrRoomClosed)
		})
	}
}

func TestConsoleRoom_SkipsBlankLines(t *testing.T) {
	room := NewConsoleRoom(strings.NewReader("\n   \nreal input\n"), io.Discard)

	line, err := room.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "real input", line)
}

func TestConsoleRoom_CancellationUnblocksReceive(t *testing.T) {
	// A pipe with no writer models a terminal where nobody types.
	blocked, _ := io.Pipe()
	room := NewConsoleRoom(blocked, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := room.Receive(ctx)
		done <- err
	}()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Receive did not observe cancellation")
	}
}
