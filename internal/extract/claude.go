package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ClaudeClient calls the Anthropic Messages API.
type ClaudeClient struct {
	httpClient
	baseURL string
	apiKey  string
	params  Params
}

func NewClaudeClient(baseURL, apiKey string, params Params, timeout time.Duration, stats *CallStats, log *slog.Logger) *ClaudeClient {
	return &ClaudeClient{
		httpClient: newHTTPClient("anthropic", params.Model, timeout, stats, log),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		params:     params,
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete asks Claude to format the MCQs found in chunk.
func (c *ClaudeClient) Complete(ctx context.Context, chunk string) (string, error) {
	reqBody := anthropicRequest{
		Model:       c.params.Model,
		MaxTokens:   c.params.MaxTokens,
		System:      SystemPrompt,
		Temperature: c.params.Temperature,
		Messages: []anthropicMessage{
			{Role: "user", Content: BuildChunkPrompt(chunk)},
		},
	}

	respBody, err := c.postJSON(ctx, c.baseURL+"/messages", reqBody, map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": "2023-06-01",
	})
	if err != nil {
		return "", err
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("claude error: %s: %s", apiResp.Error.Type, apiResp.Error.Message)
	}

	var sb strings.Builder
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty response from claude")
	}
	if apiResp.StopReason == "max_tokens" {
		c.log.Warn("llm reply truncated at max_tokens", "provider", c.provider, "max_tokens", c.params.MaxTokens)
	}
	return stripCodeFence(sb.String()), nil
}
