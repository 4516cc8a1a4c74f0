// Package voice models the realtime voice-session boundary. Audio
// capture, playback and room transport belong to the hosting platform;
// this package only sees the text side of each exchange and keeps the
// transcript.
package voice

import (
	"context"
	"errors"

	"github.com/gsachdeva/jarvis/pkg/llm"
)

// ErrRoomClosed is returned by a Room when the session has ended and
// no further utterances will arrive.
var ErrRoomClosed = errors.New("voice: room closed")

// Room is the transport the session runs against. Implementations
// bridge to the actual audio stack; Receive blocks until the user's
// next utterance and returns ErrRoomClosed on teardown.
type Room interface {
	Receive(ctx context.Context) (string, error)
	Speak(ctx context.Context, text string) error
}

// InputOptions configures room input processing.
type InputOptions struct {
	NoiseCancellation bool
}

// Persona is the configured instructions/voice/model bundle defining
// the assistant's behavior for one session.
type Persona struct {
	Instructions   string
	InitialContext []llm.Message
	ModelID        string
	VoiceID        string
}
