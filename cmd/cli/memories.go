package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gsachdeva/jarvis/internal/config"
	"github.com/gsachdeva/jarvis/pkg/memory"
	"github.com/gsachdeva/jarvis/pkg/transcript"
)

func NewMemoriesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memories",
		Short: "Inspect and manage the user's stored memories",
	}

	cmd.AddCommand(newMemoriesImportCommand())
	cmd.AddCommand(newMemoriesListCommand())
	cmd.AddCommand(newMemoriesRecentCommand())
	cmd.AddCommand(newMemoriesSearchCommand())
	cmd.AddCommand(newMemoriesDeleteCommand())
	cmd.AddCommand(newMemoriesClearCommand())

	return cmd
}

// withGateway loads config, builds the memory gateway and hands it to fn.
func withGateway(fn func(ctx context.Context, cfg *config.Config, gw *memory.Gateway) error) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	client, err := newMemoryClient(cfg)
	if err != nil {
		return err
	}

	return fn(ctx, cfg, memory.NewGateway(client))
}

func newMemoriesImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <transcript.json>",
		Short: "Import a conversation transcript file into memory",
		Long: `Import a transcript exported from another session. The file holds
either a JSON array of timestamped turns or a single conversation
object; the transcript is normalized and saved through the same
duplicate check as a live session.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read transcript file: %w", err)
			}

			parsed, err := transcript.Parse(data)
			if err != nil {
				return fmt.Errorf("failed to parse transcript: %w", err)
			}

			return withGateway(func(ctx context.Context, cfg *config.Config, gw *memory.Gateway) error {
				if !gw.Save(ctx, cfg.UserID, parsed) {
					fmt.Println("Transcript not saved: empty, duplicate, or the memory service is unavailable.")
					return nil
				}
				fmt.Printf("Imported transcript for %s\n", cfg.UserID)
				return nil
			})
		},
	}
}

func newMemoriesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored conversation records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGateway(func(ctx context.Context, cfg *config.Config, gw *memory.Gateway) error {
				records := gw.Load(ctx, cfg.UserID)
				if len(records) == 0 {
					fmt.Println("No conversation records found.")
					return nil
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tTIMESTAMP\tMESSAGES\tSUMMARY")
				for _, r := range records {
					fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.MemoryID, r.Timestamp, r.MessageCount, r.MemoryText)
				}
				return w.Flush()
			})
		},
	}
}

func newMemoriesRecentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the most recent remembered messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return withGateway(func(ctx context.Context, cfg *config.Config, gw *memory.Gateway) error {
				messages := gw.GetRecent(ctx, cfg.UserID, limit)
				if len(messages) == 0 {
					fmt.Println("No recent messages found.")
					return nil
				}
				for _, m := range messages {
					fmt.Printf("[%s] %s\n", m.Role, m.Content)
				}
				return nil
			})
		},
	}
	cmd.Flags().Int("limit", 10, "Maximum number of messages to show")
	return cmd
}

func newMemoriesSearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search memories semantically",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return withGateway(func(ctx context.Context, cfg *config.Config, gw *memory.Gateway) error {
				results := gw.Search(ctx, cfg.UserID, args[0], limit)
				if len(results) == 0 {
					fmt.Println("No matching memories found.")
					return nil
				}
				for _, m := range results {
					fmt.Printf("%s  (score %.2f)\n  %s\n", m.ID, m.Score, m.Memory)
				}
				return nil
			})
		},
	}
	cmd.Flags().Int("limit", 5, "Maximum number of results")
	return cmd
}

func newMemoriesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <memory-id>",
		Short: "Delete a single memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGateway(func(ctx context.Context, cfg *config.Config, gw *memory.Gateway) error {
				if !gw.Delete(ctx, cfg.UserID, args[0]) {
					return fmt.Errorf("failed to delete memory %s", args[0])
				}
				fmt.Printf("Deleted memory %s\n", args[0])
				return nil
			})
		},
	}
}

func newMemoriesClearCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all memories for the configured user",
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			return withGateway(func(ctx context.Context, cfg *config.Config, gw *memory.Gateway) error {
				if !yes {
					fmt.Printf("This deletes all memories for %s. Re-run with --yes to confirm.\n", cfg.UserID)
					return nil
				}
				if !gw.ClearAll(ctx, cfg.UserID) {
					return fmt.Errorf("failed to clear memories for %s", cfg.UserID)
				}
				fmt.Printf("Cleared all memories for %s\n", cfg.UserID)
				return nil
			})
		},
	}
	cmd.Flags().Bool("yes", false, "Skip confirmation")
	return cmd
}
