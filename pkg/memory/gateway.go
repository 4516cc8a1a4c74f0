// Package memory is the gateway to the hosted memory service. Its
// value-add over the raw client is shape translation and error
// containment: a memory outage must never abort a live voice session,
// so every operation degrades to an empty or false result plus a log
// record instead of returning an error.
package memory

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/gsachdeva/jarvis/pkg/clients/mem0"
	"github.com/gsachdeva/jarvis/pkg/transcript"
)

// Record is one stored conversation summary, reshaped from the raw
// service response.
type Record struct {
	MemoryID     string
	Timestamp    string
	MessageCount int
	MemoryText   string
	Metadata     map[string]any
	Messages     []transcript.NormalizedMessage
}

// Gateway wraps the memory service API with per-user operations.
type Gateway struct {
	api mem0.API
}

// NewGateway builds a gateway over the given memory service API.
func NewGateway(api mem0.API) *Gateway {
	return &Gateway{api: api}
}

// Load returns all stored conversations for the user, oldest first as
// delivered by the service. Transport or service failures yield an
// empty slice.
func (g *Gateway) Load(ctx context.Context, userID string) []Record {
	memories, err := g.api.GetAll(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load memories")
		return []Record{}
	}

	records := make([]Record, 0, len(memories))
	for _, m := range memories {
		if len(m.Metadata) == 0 {
			continue
		}
		records = append(records, recordFromMemory(m))
	}

	log.Info().Str("user_id", userID).Int("count", len(records)).Msg("Loaded conversations from memory service")
	return records
}

// Save normalizes the transcript and writes it as one memory. It
// returns false, without calling the service, when normalization
// yields no messages or when the conversation already exists per the
// duplicate heuristic. A failed write also returns false; the error is
// logged, never propagated.
func (g *Gateway) Save(ctx context.Context, userID string, t transcript.Transcript) bool {
	result := transcript.Normalize(t)
	if len(result.Messages) == 0 {
		log.Warn().Str("user_id", userID).Msg("No messages with content to save, skipping")
		return false
	}

	existing := g.Load(ctx, userID)
	if transcript.IsDuplicate(t, snapshots(existing)) {
		log.Info().Str("user_id", userID).Msg("Conversation already stored, skipping save")
		return false
	}

	messages := make([]mem0.Message, len(result.Messages))
	for i, m := range result.Messages {
		messages[i] = mem0.Message{Role: m.Role, Content: m.Content}
	}

	err := g.api.Add(ctx, mem0.AddRequest{
		Messages: messages,
		UserID:   userID,
		Metadata: map[string]any{
			"timestamp":     result.Timestamp,
			"message_count": len(result.Messages),
			"total_turns":   result.TurnCount,
		},
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to save conversation")
		return false
	}

	log.Info().
		Str("user_id", userID).
		Int("message_count", len(result.Messages)).
		Int("total_turns", result.TurnCount).
		Msg("Saved conversation to memory service")
	return true
}

// Search runs a semantic search over the user's memories. Relevance
// order is defined by the service. Failures yield an empty slice.
func (g *Gateway) Search(ctx context.Context, userID, query string, limit int) []mem0.Memory {
	results, err := g.api.Search(ctx, mem0.SearchRequest{
		Query:  query,
		UserID: userID,
		Limit:  limit,
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("query", query).Msg("Failed to search memories")
		return []mem0.Memory{}
	}

	log.Info().Str("user_id", userID).Int("count", len(results)).Str("query", query).Msg("Searched memories")
	return results
}

// GetRecent returns the last maxMessages entries of the concatenation
// of all loaded conversations' messages. Records whose metadata does
// not carry the original messages contribute nothing.
func (g *Gateway) GetRecent(ctx context.Context, userID string, maxMessages int) []transcript.NormalizedMessage {
	var all []transcript.NormalizedMessage
	for _, record := range g.Load(ctx, userID) {
		all = append(all, record.Messages...)
	}

	if maxMessages > 0 && len(all) > maxMessages {
		all = all[len(all)-maxMessages:]
	}

	log.Info().Str("user_id", userID).Int("count", len(all)).Msg("Retrieved recent messages")
	return all
}

// ConversationCount returns the number of stored conversations.
func (g *Gateway) ConversationCount(ctx context.Context, userID string) int {
	return len(g.Load(ctx, userID))
}

// Delete removes one memory by ID.
func (g *Gateway) Delete(ctx context.Context, userID, memoryID string) bool {
	if err := g.api.Delete(ctx, memoryID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("memory_id", memoryID).Msg("Failed to delete memory")
		return false
	}
	log.Info().Str("user_id", userID).Str("memory_id", memoryID).Msg("Deleted memory")
	return true
}

// ClearAll removes every memory stored for the user.
func (g *Gateway) ClearAll(ctx context.Context, userID string) bool {
	if err := g.api.DeleteAll(ctx, userID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to clear memories")
		return false
	}
	log.Info().Str("user_id", userID).Msg("Cleared all memories")
	return true
}

func snapshots(records []Record) []transcript.Snapshot {
	out := make([]transcript.Snapshot, len(records))
	for i, r := range records {
		out[i] = transcript.Snapshot{
			Timestamp:    r.Timestamp,
			MessageCount: r.MessageCount,
		}
	}
	return out
}

func recordFromMemory(m mem0.Memory) Record {
	record := Record{
		MemoryID:   m.ID,
		MemoryText: m.Memory,
		Metadata:   m.Metadata,
	}

	if ts, ok := m.Metadata["timestamp"].(string); ok {
		record.Timestamp = ts
	}
	if count, ok := m.Metadata["message_count"].(float64); ok {
		record.MessageCount = int(count)
	}
	if raw, ok := m.Metadata["messages"].([]any); ok {
		for _, entry := range raw {
			fields, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			role, _ := fields["role"].(string)
			content, _ := fields["content"].(string)
			record.Messages = append(record.Messages, transcript.NormalizedMessage{
				Role:    role,
				Content: content,
			})
		}
	}

	return record
}
