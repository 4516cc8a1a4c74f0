package voice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"

	"github.com/gsachdeva/jarvis/pkg/llm"
	"github.com/gsachdeva/jarvis/pkg/tools"
	"github.com/gsachdeva/jarvis/pkg/transcript"
)

// maxToolIterations bounds the tool-call loop within one reply.
const maxToolIterations = 10

// Session drives one voice conversation: it exchanges turns with the
// room, answers through the language model, executes requested tool
// calls, and records the transcript. The transcript is readable at any
// point via History and is consumed once at teardown.
type Session struct {
	ID string

	model   llm.LanguageModel
	toolset *tools.Toolset
	persona Persona

	mu      sync.Mutex
	history transcript.TurnSequence
	context []llm.Message

	done chan struct{}
	err  error
}

// NewSession creates a session bound to the given model and toolset.
// The toolset may be nil.
func NewSession(model llm.LanguageModel, toolset *tools.Toolset) *Session {
	return &Session{
		ID:      xid.New().String(),
		model:   model,
		toolset: toolset,
		done:    make(chan struct{}),
	}
}

// Start binds the session to a room and persona and begins the turn
// loop in the background. The session ends when the room closes; Wait
// or Done observe that.
func (s *Session) Start(ctx context.Context, room Room, persona Persona, opts InputOptions) error {
	if s.model == nil {
		return errors.New("voice: session requires a language model")
	}

	s.mu.Lock()
	s.persona = persona
	s.context = append([]llm.Message{}, persona.InitialContext...)
	s.mu.Unlock()

	log.Info().
		Str("session_id", s.ID).
		Str("model", s.model.ID()).
		Str("voice", persona.VoiceID).
		Bool("noise_cancellation", opts.NoiseCancellation).
		Msg("Voice session started")

	go s.loop(ctx, room)
	return nil
}

// GenerateReply issues one assistant turn following the given
// instructions, outside the normal request/response exchange. Used for
// the opening greeting.
func (s *Session) GenerateReply(ctx context.Context, room Room, instructions string) (string, error) {
	reply, err := s.generate(ctx, instructions)
	if err != nil {
		return "", err
	}

	s.record(transcript.RoleAssistant, reply)
	if err := room.Speak(ctx, reply); err != nil {
		return reply, fmt.Errorf("failed to deliver reply: %w", err)
	}
	return reply, nil
}

// History returns a copy of the transcript accumulated so far.
func (s *Session) History() transcript.TurnSequence {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(transcript.TurnSequence, len(s.history))
	copy(out, s.history)
	return out
}

// Done closes when the session has ended.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the session ends and returns its terminal error,
// nil for a normal room close.
func (s *Session) Wait() error {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) loop(ctx context.Context, room Room) {
	defer close(s.done)

	for {
		utterance, err := room.Receive(ctx)
		if err != nil {
			if !errors.Is(err, ErrRoomClosed) && !errors.Is(err, context.Canceled) {
				s.setErr(err)
			}
			log.Info().Str("session_id", s.ID).Msg("Voice session ended")
			return
		}

		s.record(transcript.RoleUser, utterance)

		reply, err := s.generate(ctx, "")
		if err != nil {
			// A failed turn should not kill the session; the user can
			// simply speak again.
			log.Error().Err(err).Str("session_id", s.ID).Msg("Failed to generate reply")
			continue
		}

		s.record(transcript.RoleAssistant, reply)
		if err := room.Speak(ctx, reply); err != nil {
			s.setErr(fmt.Errorf("failed to deliver reply: %w", err))
			return
		}
	}
}

// generate runs the model over the session context, resolving tool
// calls until the model settles on a text reply.
func (s *Session) generate(ctx context.Context, instructions string) (string, error) {
	system := s.persona.Instructions
	if instructions != "" {
		system += "\n\n" + instructions
	}

	messages := s.contextSnapshot()

	for iteration := 0; iteration < maxToolIterations; iteration++ {
		resp, err := s.model.Generate(ctx, llm.GenerateRequest{
			Messages: messages,
			System:   system,
			Tools:    s.toolset.Tools(),
		})
		if err != nil {
			return "", err
		}

		if len(resp.ToolCalls) == 0 {
			s.appendContext(llm.Message{Role: llm.RoleAssistant, Content: resp.Content})
			return resp.Content, nil
		}

		results := make([]llm.ToolResult, len(resp.ToolCalls))
		for i, call := range resp.ToolCalls {
			log.Debug().Str("tool", call.Name).Str("session_id", s.ID).Msg("Executing tool call")
			results[i] = s.toolset.Call(ctx, call)
		}

		messages = append(messages,
			llm.Message{Role: llm.RoleAssistant, Content: resp.Content, ToolCalls: resp.ToolCalls},
			llm.Message{Role: llm.RoleTool, ToolResults: results},
		)
	}

	return "", fmt.Errorf("tool-call loop exceeded %d iterations", maxToolIterations)
}

// record appends one message to both the transcript and the model
// context.
func (s *Session) record(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, transcript.Turn{
		Timestamp: float64(time.Now().UnixNano()) / 1e9,
		Messages: []transcript.Message{{
			Type:    transcript.EventMessage,
			Role:    role,
			Content: transcript.Text(content),
		}},
	})
	if role == transcript.RoleUser {
		s.context = append(s.context, llm.Message{Role: llm.RoleUser, Content: content})
	}
}

func (s *Session) appendContext(msg llm.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.context = append(s.context, msg)
}

func (s *Session) contextSnapshot() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llm.Message{}, s.context...)
}

func (s *Session) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
