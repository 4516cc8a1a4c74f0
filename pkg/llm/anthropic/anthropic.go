// Package anthropic backs the LanguageModel interface with the
// Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/gsachdeva/jarvis/pkg/llm"
)

// Provider implements llm.LanguageModel for Anthropic Claude.
type Provider struct {
	client anthropic.Client
	model  string

	RequestSettings RequestSettings
}

type RequestSettings struct {
	Temperature float32
	MaxTokens   int
}

// New creates an Anthropic provider.
func New(apiKey, model string) *Provider {
	return &Provider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (p *Provider) ID() string {
	return fmt.Sprintf("anthropic:%s", p.model)
}

func (p *Provider) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	messages, system := convertMessages(req.Messages, req.System)

	msgReq := anthropic.MessageNewParams{
		Model:    anthropic.Model(p.model),
		Messages: messages,
	}

	if len(system) > 0 {
		msgReq.System = system
	}

	if req.MaxTokens > 0 {
		msgReq.MaxTokens = int64(req.MaxTokens)
	} else if p.RequestSettings.MaxTokens > 0 {
		msgReq.MaxTokens = int64(p.RequestSettings.MaxTokens)
	} else {
		// max_tokens is mandatory for the Messages API
		msgReq.MaxTokens = 4096
	}

	if req.Temperature > 0 {
		msgReq.Temperature = anthropic.Float(float64(req.Temperature))
	} else if p.RequestSettings.Temperature > 0 {
		msgReq.Temperature = anthropic.Float(float64(p.RequestSettings.Temperature))
	}

	if tools := convertTools(req.Tools); len(tools) > 0 {
		msgReq.Tools = tools
	}

	resp, err := p.client.Messages.New(ctx, msgReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	response := &llm.GenerateResponse{
		Model:        string(resp.Model),
		FinishReason: string(resp.StopReason),
	}

	var text strings.Builder
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			args := make(map[string]any)
			if len(block.Input) > 0 {
				json.Unmarshal(block.Input, &args)
			}
			response.ToolCalls = append(response.ToolCalls, llm.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: args,
			})
		}
	}
	response.Content = text.String()

	return response, nil
}

// convertMessages converts llm messages to Anthropic params, folding
// system messages into the system prompt.
func convertMessages(messages []llm.Message, systemPrompt string) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	result := make([]anthropic.MessageParam, 0, len(messages))

	var systemTexts []string
	if systemPrompt != "" {
		systemTexts = append(systemTexts, systemPrompt)
	}

	for _, msg := range messages {
		if msg.Role == llm.RoleSystem {
			systemTexts = append(systemTexts, msg.Content)
			continue
		}

		var blocks []anthropic.ContentBlockParamUnion

		if msg.Content != "" {
			blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
		}

		if msg.Role == llm.RoleAssistant && len(msg.ToolCalls) > 0 {
			for _, tc := range msg.ToolCalls {
				input := tc.Arguments
				if input == nil {
					input = make(map[string]any)
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}
		}

		for _, tr := range msg.ToolResults {
			blocks = append(blocks, anthropic.NewToolResultBlock(tr.ToolCallID, tr.Content, tr.IsError))
		}

		role := anthropic.MessageParamRole(msg.Role)
		// Tool-role messages carry tool_result blocks on a user turn.
		if msg.Role == llm.RoleTool {
			role = anthropic.MessageParamRoleUser
		}

		if len(blocks) > 0 {
			result = append(result, anthropic.MessageParam{
				Role:    role,
				Content: blocks,
			})
		}
	}

	var system []anthropic.TextBlockParam
	if len(systemTexts) > 0 {
		system = []anthropic.TextBlockParam{{
			Text: strings.Join(systemTexts, "\n\n"),
			Type: "text",
		}}
	}

	return result, system
}

func convertTools(tools []llm.Tool) []anthropic.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}

	result := make([]anthropic.ToolUnionParam, len(tools))
	for i, tool := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: "object",
		}
		if properties, ok := tool.Parameters["properties"]; ok {
			inputSchema.Properties = properties
		}
		if required, ok := tool.Parameters["required"].([]any); ok {
			reqStrings := make([]string, 0, len(required))
			for _, r := range required {
				if s, ok := r.(string); ok {
					reqStrings = append(reqStrings, s)
				}
			}
			inputSchema.Required = reqStrings
		}

		result[i] = anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        tool.Name,
				Description: anthropic.String(tool.Description),
				InputSchema: inputSchema,
			},
		}
	}
	return result
}
