// Package mem0 is an HTTP client for the hosted mem0 semantic-memory
// API. All durable conversation state for the assistant lives there;
// this client only does shape translation and transport.
package mem0

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// API is the subset of the memory service consumed by this system.
type API interface {
	GetAll(ctx context.Context, userID string) ([]Memory, error)
	Add(ctx context.Context, req AddRequest) error
	Search(ctx context.Context, req SearchRequest) ([]Memory, error)
	Delete(ctx context.Context, memoryID string) error
	DeleteAll(ctx context.Context, userID string) error
}

// Client talks to the mem0 cloud API.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

var _ API = (*Client)(nil)

// NewClient creates a memory service client. A missing API key is a
// configuration error: every caller of this client requires the
// credential, so construction fails immediately rather than on first
// use.
func NewClient(options ...ClientOption) (*Client, error) {
	config := DefaultConfig()

	for _, option := range options {
		option(config)
	}

	if config.APIKey == "" {
		return nil, errors.New("mem0 api key is required: set MEM0_API_KEY or pass WithAPIKey")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: config.Timeout,
		}
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
	}, nil
}

// GetAll returns every memory stored for the user.
func (c *Client) GetAll(ctx context.Context, userID string) ([]Memory, error) {
	path := "/v1/memories/?user_id=" + url.QueryEscape(userID)

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get memories: %w", err)
	}

	memories, err := decodeMemoryList(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to decode memories: %w", err)
	}
	return memories, nil
}

// Add writes a new memory built from the given messages and metadata.
func (c *Client) Add(ctx context.Context, req AddRequest) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/memories/", req)
	if err != nil {
		return fmt.Errorf("failed to add memory: %w", err)
	}
	return drain(resp)
}

// Search runs a semantic search over the user's memories.
func (c *Client) Search(ctx context.Context, req SearchRequest) ([]Memory, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/memories/search/", req)
	if err != nil {
		return nil, fmt.Errorf("failed to search memories: %w", err)
	}

	memories, err := decodeMemoryList(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}
	return memories, nil
}

// Delete removes a single memory by ID.
func (c *Client) Delete(ctx context.Context, memoryID string) error {
	path := fmt.Sprintf("/v1/memories/%s/", url.PathEscape(memoryID))

	resp, err := c.doRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return fmt.Errorf("failed to delete memory: %w", err)
	}
	return drain(resp)
}

// DeleteAll removes every memory stored for the user.
func (c *Client) DeleteAll(ctx context.Context, userID string) error {
	path := "/v1/memories/?user_id=" + url.QueryEscape(userID)

	resp, err := c.doRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return fmt.Errorf("failed to delete memories: %w", err)
	}
	return drain(resp)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var requestBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		requestBody = bytes.NewBuffer(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Token "+c.config.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("memory service returned status %d: %s", resp.StatusCode, string(detail))
	}

	return resp, nil
}

// decodeMemoryList tolerates both response envelopes the service uses:
// a bare array and an object with a results field.
func decodeMemoryList(resp *http.Response) ([]Memory, error) {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	if bytes.TrimSpace(data)[0] == '[' {
		var memories []Memory
		if err := json.Unmarshal(data, &memories); err != nil {
			return nil, err
		}
		return memories, nil
	}

	var envelope struct {
		Results []Memory `json:"results"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	return envelope.Results, nil
}

func drain(resp *http.Response) error {
	defer resp.Body.Close()
	_, err := io.Copy(io.Discard, resp.Body)
	return err
}
