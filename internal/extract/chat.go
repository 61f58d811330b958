package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ChatClient calls an OpenAI-compatible chat completions endpoint (Groq, OpenAI).
type ChatClient struct {
	httpClient
	baseURL string
	apiKey  string
	params  Params
}

func NewChatClient(provider, baseURL, apiKey string, params Params, timeout time.Duration, stats *CallStats, log *slog.Logger) *ChatClient {
	return &ChatClient{
		httpClient: newHTTPClient(provider, params.Model, timeout, stats, log),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		params:     params,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	TopP        float64       `json:"top_p"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete asks the model to format the MCQs found in chunk.
func (c *ChatClient) Complete(ctx context.Context, chunk string) (string, error) {
	reqBody := chatRequest{
		Model: c.params.Model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: BuildChunkPrompt(chunk)},
		},
		Temperature: c.params.Temperature,
		MaxTokens:   c.params.MaxTokens,
		TopP:        c.params.TopP,
	}

	respBody, err := c.postJSON(ctx, c.baseURL+"/chat/completions", reqBody, map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	})
	if err != nil {
		return "", err
	}

	var apiResp chatResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("%s error: %s: %s", c.provider, apiResp.Error.Type, apiResp.Error.Message)
	}
	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from %s", c.provider)
	}
	if apiResp.Choices[0].FinishReason == "length" {
		c.log.Warn("llm reply truncated at max_tokens", "provider", c.provider, "max_tokens", c.params.MaxTokens)
	}
	return stripCodeFence(apiResp.Choices[0].Message.Content), nil
}
