// Package gemini backs the LanguageModel interface with the Google
// Gemini API. This is the default backend: the Jarvis persona was
// built around a Gemini realtime voice model.
package gemini

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/gsachdeva/jarvis/pkg/llm"
)

// Provider implements llm.LanguageModel for Gemini.
type Provider struct {
	client *genai.Client

	RequestSettings RequestSettings
}

type RequestSettings struct {
	Model           string
	MaxOutputTokens int32
	Temperature     float32
}

// New creates a Gemini provider.
func New(ctx context.Context, apiKey, model string) (*Provider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Provider{
		client: client,
		RequestSettings: RequestSettings{
			Model:           model,
			MaxOutputTokens: 4096,
		},
	}, nil
}

func (p *Provider) ID() string {
	return fmt.Sprintf("gemini:%s", p.RequestSettings.Model)
}

func (p *Provider) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: p.RequestSettings.MaxOutputTokens,
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = p.RequestSettings.Temperature
	}
	if temperature > 0 {
		config.Temperature = genai.Ptr(temperature)
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(req.System)},
		}
	}

	if tools := convertTools(req.Tools); len(tools) > 0 {
		config.Tools = tools
	}

	contents := convertMessages(req.Messages)

	resp, err := p.client.Models.GenerateContent(ctx, p.RequestSettings.Model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini api error: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	candidate := resp.Candidates[0]
	response := &llm.GenerateResponse{
		FinishReason: string(candidate.FinishReason),
		Model:        p.RequestSettings.Model,
	}

	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				response.Content += part.Text
			}
			if part.FunctionCall != nil {
				// Gemini doesn't provide call IDs, generate one
				response.ToolCalls = append(response.ToolCalls, llm.ToolCall{
					ID:        uuid.New().String(),
					Name:      part.FunctionCall.Name,
					Arguments: part.FunctionCall.Args,
				})
			}
		}
	}

	return response, nil
}

// convertMessages converts llm messages to Gemini content. System
// messages are skipped; they travel via SystemInstruction.
func convertMessages(messages []llm.Message) []*genai.Content {
	var result []*genai.Content

	for _, msg := range messages {
		if msg.Role == llm.RoleSystem {
			continue
		}

		var parts []*genai.Part

		// Gemini uses "user" or "model"
		role := "user"
		if msg.Role == llm.RoleAssistant {
			role = "model"
		}

		if msg.Content != "" && msg.Role != llm.RoleTool {
			parts = append(parts, genai.NewPartFromText(msg.Content))
		}

		for _, tc := range msg.ToolCalls {
			parts = append(parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{
					Name: tc.Name,
					Args: tc.Arguments,
				},
			})
		}

		for _, tr := range msg.ToolResults {
			parts = append(parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					Name: tr.ToolCallID,
					Response: map[string]any{
						"result":   tr.Content,
						"is_error": tr.IsError,
					},
				},
			})
		}

		if len(parts) > 0 {
			result = append(result, &genai.Content{
				Role:  role,
				Parts: parts,
			})
		}
	}

	return result
}

func convertTools(tools []llm.Tool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}

	var declarations []*genai.FunctionDeclaration
	for _, tool := range tools {
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  convertSchema(tool.Parameters),
		})
	}

	return []*genai.Tool{{
		FunctionDeclarations: declarations,
	}}
}

// convertSchema converts a JSON schema map to genai.Schema.
func convertSchema(params map[string]any) *genai.Schema {
	if params == nil {
		return nil
	}

	schema := &genai.Schema{
		Type: genai.TypeObject,
	}

	if typeVal, ok := params["type"].(string); ok {
		schema.Type = mapSchemaType(typeVal)
	}
	if desc, ok := params["description"].(string); ok {
		schema.Description = desc
	}
	if props, ok := params["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema)
		for name, propVal := range props {
			if propMap, ok := propVal.(map[string]any); ok {
				schema.Properties[name] = convertSchema(propMap)
			}
		}
	}
	if required, ok := params["required"].([]any); ok {
		for _, r := range required {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}
	if items, ok := params["items"].(map[string]any); ok {
		schema.Items = convertSchema(items)
	}
	if enumVals, ok := params["enum"].([]any); ok {
		for _, e := range enumVals {
			if s, ok := e.(string); ok {
				schema.Enum = append(schema.Enum, s)
			}
		}
	}

	return schema
}

func mapSchemaType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}
