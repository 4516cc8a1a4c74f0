package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gsachdeva/jarvis/internal/config"
	"github.com/gsachdeva/jarvis/pkg/agent"
	"github.com/gsachdeva/jarvis/pkg/clients/mem0"
	"github.com/gsachdeva/jarvis/pkg/llm"
	"github.com/gsachdeva/jarvis/pkg/llm/anthropic"
	"github.com/gsachdeva/jarvis/pkg/llm/gemini"
	"github.com/gsachdeva/jarvis/pkg/llm/openai"
	"github.com/gsachdeva/jarvis/pkg/memory"
	"github.com/gsachdeva/jarvis/pkg/prompts"
	"github.com/gsachdeva/jarvis/pkg/tools"
	"github.com/gsachdeva/jarvis/pkg/voice"
)

func NewStartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start an assistant session on this terminal",
		Long: `Start a conversation session. The assistant primes itself with your
stored memories, greets you, and persists the transcript when you exit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return runStart()
		},
	}

	return cmd
}

func runStart() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log.Info().
		Str("user_id", cfg.UserID).
		Str("provider", cfg.LLMProvider).
		Str("model_id", cfg.ModelID).
		Msg("Starting assistant session")

	memoryClient, err := newMemoryClient(cfg)
	if err != nil {
		return err
	}

	model, err := newLanguageModel(ctx, cfg)
	if err != nil {
		return err
	}

	toolset, err := tools.Connect(ctx, tools.Config{
		ServerURL:     cfg.MCPServerURL,
		ServerCommand: cfg.MCPServerCommand,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect MCP tool server, continuing without tools")
		toolset = nil
	}
	defer toolset.Close()

	orchestrator := agent.New(
		agent.Config{
			UserID:            cfg.UserID,
			DisplayName:       cfg.UserName,
			VoiceID:           cfg.VoiceID,
			NoiseCancellation: cfg.NoiseCancellation,
		},
		agent.Deps{
			Model:   model,
			Memory:  memoryClient,
			Store:   memory.NewGateway(memoryClient),
			Fetcher: prompts.NewFetcher(nil),
			Toolset: toolset,
		},
		agent.Hooks{},
	)

	room := voice.NewConsoleRoom(os.Stdin, os.Stdout)

	if err := orchestrator.Run(ctx, room); err != nil {
		return fmt.Errorf("session failed: %w", err)
	}

	log.Info().Msg("Session ended")
	return nil
}

func newMemoryClient(cfg *config.Config) (*mem0.Client, error) {
	options := []mem0.ClientOption{
		mem0.WithAPIKey(cfg.Mem0APIKey),
		mem0.WithTimeout(cfg.HTTPTimeout),
	}
	if cfg.Mem0BaseURL != "" {
		options = append(options, mem0.WithBaseURL(cfg.Mem0BaseURL))
	}

	client, err := mem0.NewClient(options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory client: %w", err)
	}
	return client, nil
}

func newLanguageModel(ctx context.Context, cfg *config.Config) (llm.LanguageModel, error) {
	switch cfg.LLMProvider {
	case "gemini":
		return gemini.New(ctx, cfg.GeminiAPIKey, cfg.ModelID)
	case "openai":
		return openai.New(cfg.OpenAIAPIKey, cfg.ModelID), nil
	case "anthropic":
		return anthropic.New(cfg.AnthropicAPIKey, cfg.ModelID), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}
