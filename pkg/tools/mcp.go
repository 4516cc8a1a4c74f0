// Package tools connects the assistant to an MCP tool server and
// exposes its tools to the language model. Tool failures are reported
// back to the model as error results; a missing or unreachable tool
// server only means the session runs without tools.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/gsachdeva/jarvis/pkg/llm"
)

// Toolset is the live connection to one MCP server.
type Toolset struct {
	client  *mcp.Client
	session *mcp.ClientSession
	tools   []llm.Tool
}

// Config selects how to reach the MCP server: an SSE URL or a local
// command to spawn. URL wins when both are set.
type Config struct {
	ServerURL     string
	ServerCommand string
}

// Connect dials the MCP server and lists its tools. The returned
// toolset is nil (and usable as such) when no server is configured.
func Connect(ctx context.Context, cfg Config) (*Toolset, error) {
	if cfg.ServerURL == "" && cfg.ServerCommand == "" {
		return nil, nil
	}

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "jarvis",
		Version: "1.0.0",
	}, nil)

	var transport mcp.Transport
	if cfg.ServerURL != "" {
		transport = mcp.NewSSEClientTransport(cfg.ServerURL, nil)
	} else {
		parts := strings.Fields(cfg.ServerCommand)
		cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
		cmd.Env = os.Environ()
		transport = mcp.NewCommandTransport(cmd)
	}

	session, err := client.Connect(ctx, transport)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mcp server: %w", err)
	}

	ts := &Toolset{client: client, session: session}
	if err := ts.loadTools(ctx); err != nil {
		session.Close()
		return nil, err
	}

	log.Info().Int("tools", len(ts.tools)).Msg("Connected to MCP server")
	return ts, nil
}

// Close shuts down the server session.
func (t *Toolset) Close() error {
	if t == nil || t.session == nil {
		return nil
	}
	return t.session.Close()
}

// Tools returns the server's tools as model tool definitions.
func (t *Toolset) Tools() []llm.Tool {
	if t == nil {
		return nil
	}
	return t.tools
}

// Call executes one tool call requested by the model. Execution
// failures become error results for the model rather than errors for
// the caller.
func (t *Toolset) Call(ctx context.Context, call llm.ToolCall) llm.ToolResult {
	if t == nil || t.session == nil {
		return llm.ToolResult{
			ToolCallID: call.ID,
			Content:    "no tool server connected",
			IsError:    true,
		}
	}

	result, err := t.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      call.Name,
		Arguments: call.Arguments,
	})
	if err != nil {
		log.Error().Err(err).Str("tool", call.Name).Msg("Tool call failed")
		return llm.ToolResult{
			ToolCallID: call.ID,
			Content:    fmt.Sprintf("tool call failed: %v", err),
			IsError:    true,
		}
	}

	var text strings.Builder
	for _, content := range result.Content {
		if tc, ok := content.(*mcp.TextContent); ok {
			text.WriteString(tc.Text)
		}
	}

	return llm.ToolResult{
		ToolCallID: call.ID,
		Content:    text.String(),
		IsError:    result.IsError,
	}
}

func (t *Toolset) loadTools(ctx context.Context) error {
	listed, err := t.session.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		return fmt.Errorf("failed to list mcp tools: %w", err)
	}

	for _, tool := range listed.Tools {
		t.tools = append(t.tools, llm.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  schemaToMap(tool.InputSchema),
		})
	}
	return nil
}

// schemaToMap flattens the SDK's schema type through JSON into the
// plain map shape the model providers consume.
func schemaToMap(schema any) map[string]any {
	if schema == nil {
		return nil
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}
