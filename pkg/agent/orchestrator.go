// Package agent drives one voice session end to end: prime memory,
// build the persona, run the session, persist the transcript.
package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/gsachdeva/jarvis/pkg/clients/mem0"
	"github.com/gsachdeva/jarvis/pkg/llm"
	"github.com/gsachdeva/jarvis/pkg/memory"
	"github.com/gsachdeva/jarvis/pkg/prompts"
	"github.com/gsachdeva/jarvis/pkg/tools"
	"github.com/gsachdeva/jarvis/pkg/transcript"
	"github.com/gsachdeva/jarvis/pkg/voice"
)

// State is the orchestrator's position in the session lifecycle.
type State string

const (
	StateInit            State = "init"
	StateMemoryPrimed    State = "memory_primed"
	StateSessionActive   State = "session_active"
	StateSessionEnded    State = "session_ended"
	StateMemoryPersisted State = "memory_persisted"
)

// Memory priming sentinels. Recoverable memory failures are invisible
// to the user; the persona never announces them aloud.
const (
	noHistorySentinel   = "(No previous history found.)"
	unavailableSentinel = "(Memory system unavailable)"
)

// MemoryStore is the slice of the memory gateway the orchestrator
// needs for the terminal save.
type MemoryStore interface {
	Save(ctx context.Context, userID string, t transcript.Transcript) bool
}

var _ MemoryStore = (*memory.Gateway)(nil)

// ContextFetcher resolves the dynamic prompt context.
type ContextFetcher interface {
	Fetch(ctx context.Context) prompts.Context
}

// Hooks observe lifecycle transitions. All fields are optional.
type Hooks struct {
	OnStateChange  func(state State)
	OnMemoryPrimed func(memoryContext string)
	OnOpeningReply func(reply string)
	OnMemorySaved  func(saved bool)
}

// Deps carries the orchestrator's collaborators.
type Deps struct {
	Model   llm.LanguageModel
	Memory  mem0.API
	Store   MemoryStore
	Fetcher ContextFetcher
	Toolset *tools.Toolset
}

// Config identifies the user and the persona voice.
type Config struct {
	UserID            string
	DisplayName       string
	VoiceID           string
	NoiseCancellation bool
}

// Orchestrator runs one voice session as a single sequential flow with
// an explicit completion signal: Run returns only after the transcript
// save attempt has finished.
type Orchestrator struct {
	config Config
	deps   Deps
	hooks  Hooks

	mu    sync.Mutex
	state State
}

// New builds an orchestrator.
func New(config Config, deps Deps, hooks Hooks) *Orchestrator {
	return &Orchestrator{
		config: config,
		deps:   deps,
		hooks:  hooks,
		state:  StateInit,
	}
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Run executes the full session lifecycle against the given room. The
// room's close is the session end condition; this system only observes
// it. The terminal save is attempted once and its outcome logged, not
// retried.
func (o *Orchestrator) Run(ctx context.Context, room voice.Room) error {
	o.setState(StateInit)

	memoryContext := o.primeMemory(ctx)
	o.setState(StateMemoryPrimed)
	if o.hooks.OnMemoryPrimed != nil {
		o.hooks.OnMemoryPrimed(memoryContext)
	}

	values := o.deps.Fetcher.Fetch(ctx)
	personaPrompts, err := prompts.Build(values, o.config.DisplayName)
	if err != nil {
		return fmt.Errorf("failed to build persona prompts: %w", err)
	}

	persona := voice.Persona{
		Instructions: personaPrompts.Instructions,
		InitialContext: []llm.Message{{
			Role:    llm.RoleAssistant,
			Content: fmt.Sprintf("The user's name is %s.\n%s", o.config.UserID, memoryContext),
		}},
		ModelID: o.deps.Model.ID(),
		VoiceID: o.config.VoiceID,
	}

	session := voice.NewSession(o.deps.Model, o.deps.Toolset)
	if err := session.Start(ctx, room, persona, voice.InputOptions{
		NoiseCancellation: o.config.NoiseCancellation,
	}); err != nil {
		return fmt.Errorf("failed to start voice session: %w", err)
	}
	o.setState(StateSessionActive)

	reply, err := session.GenerateReply(ctx, room, personaPrompts.Reply)
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate opening reply")
	} else if o.hooks.OnOpeningReply != nil {
		o.hooks.OnOpeningReply(reply)
	}

	if err := session.Wait(); err != nil {
		log.Error().Err(err).Str("session_id", session.ID).Msg("Voice session ended with error")
	}
	o.setState(StateSessionEnded)

	saved := o.deps.Store.Save(ctx, o.config.UserID, session.History())
	log.Info().Bool("saved", saved).Str("session_id", session.ID).Msg("Transcript save attempted")
	if o.hooks.OnMemorySaved != nil {
		o.hooks.OnMemorySaved(saved)
	}
	o.setState(StateMemoryPersisted)

	return nil
}

// primeMemory fetches the user's stored memories and formats them for
// the initial model context. Failures degrade to a sentinel string;
// a memory outage must not block the session.
func (o *Orchestrator) primeMemory(ctx context.Context) string {
	log.Info().Str("user_id", o.config.UserID).Msg("Fetching initial memories")

	memories, err := o.deps.Memory.GetAll(ctx, o.config.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", o.config.UserID).Msg("Failed to fetch initial memories")
		return unavailableSentinel
	}

	var texts []string
	for _, m := range memories {
		if m.Memory != "" {
			texts = append(texts, m.Memory)
		}
	}

	if len(texts) == 0 {
		return noHistorySentinel
	}
	return "KNOWN USER HISTORY:\n" + strings.Join(texts, "\n")
}

func (o *Orchestrator) setState(state State) {
	o.mu.Lock()
	o.state = state
	o.mu.Unlock()

	log.Debug().Str("state", string(state)).Msg("Session state changed")
	if o.hooks.OnStateChange != nil {
		o.hooks.OnStateChange(state)
	}
}
