package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/mcqgest/internal/config"
)

// Completer sends one chunk of extracted text to a hosted model and returns its
// raw reply.
type Completer interface {
	Complete(ctx context.Context, chunk string) (string, error)
}

// StatsProvider is implemented by completers that record call outcomes.
type StatsProvider interface {
	Model() string
	Stats() *CallStats
}

// Params are the sampling settings sent with every request.
type Params struct {
	Model       string
	Temperature float64
	MaxTokens   int
	TopP        float64
}

const (
	DefaultGroqModel      = "llama-3.1-70b-versatile"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"

	GroqBaseURL      = "https://api.groq.com/openai/v1"
	OpenAIBaseURL    = "https://api.openai.com/v1"
	AnthropicBaseURL = "https://api.anthropic.com/v1"
)

// New builds the completer selected by cfg.LLMProvider, wrapped in retries.
func New(cfg config.Config, log *slog.Logger) (Completer, error) {
	if log == nil {
		log = slog.Default()
	}
	params := Params{
		Model:       cfg.LLMModel,
		Temperature: cfg.LLMTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
		TopP:        1,
	}
	stats := NewCallStats(time.Hour)

	var c Completer
	switch cfg.LLMProvider {
	case "groq", "":
		if params.Model == "" {
			params.Model = DefaultGroqModel
		}
		c = NewChatClient("groq", baseURLOr(cfg.LLMBaseURL, GroqBaseURL), cfg.LLMAPIKey, params, cfg.LLMTimeout, stats, log)
	case "openai":
		if params.Model == "" {
			params.Model = DefaultOpenAIModel
		}
		c = NewChatClient("openai", baseURLOr(cfg.LLMBaseURL, OpenAIBaseURL), cfg.LLMAPIKey, params, cfg.LLMTimeout, stats, log)
	case "anthropic":
		if params.Model == "" {
			params.Model = DefaultAnthropicModel
		}
		c = NewClaudeClient(baseURLOr(cfg.LLMBaseURL, AnthropicBaseURL), cfg.LLMAPIKey, params, cfg.LLMTimeout, stats, log)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
	return NewRetrying(c, cfg.LLMMaxRetries, log), nil
}

func baseURLOr(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
