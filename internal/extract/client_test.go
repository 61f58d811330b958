package extract

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/mcqgest/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testParams = Params{Model: "llama-test", Temperature: 0.25, MaxTokens: 1024, TopP: 1}

func TestChatClient_Complete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer gsk-test" {
			t.Errorf("unexpected authorization header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"1. Q?\nA) a\nB) b\nC) c\nD) d"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewChatClient("groq", srv.URL+"/", "gsk-test", testParams, time.Second, nil, testLogger())
	reply, err := c.Complete(context.Background(), "some scanned text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "1. Q?\nA) a\nB) b\nC) c\nD) d" {
		t.Errorf("unexpected reply %q", reply)
	}

	if got.Model != "llama-test" || got.Temperature != 0.25 || got.MaxTokens != 1024 || got.TopP != 1 {
		t.Errorf("unexpected sampling params: %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[0].Content != SystemPrompt {
		t.Fatalf("expected system prompt first, got %+v", got.Messages)
	}
	if !strings.Contains(got.Messages[1].Content, "some scanned text") {
		t.Error("expected chunk embedded in user message")
	}
	if snap := c.Stats().Snapshot(); snap.Calls != 1 || snap.OK != 1 {
		t.Errorf("expected one successful call recorded, got %+v", snap)
	}
	if c.Model() != "llama-test" {
		t.Errorf("unexpected model %q", c.Model())
	}
}

func TestChatClient_StatusHandling(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantRetryable bool
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"error":{"message":"slow down"}}`, wantRetryable: true},
		{name: "server error", status: http.StatusBadGateway, body: "bad gateway", wantRetryable: true},
		{name: "bad key", status: http.StatusUnauthorized, body: `{"error":{"message":"invalid api key"}}`, wantRetryable: false},
		{name: "api error body", status: http.StatusOK, body: `{"error":{"type":"invalid_request_error","message":"model not found"}}`, wantRetryable: false},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantRetryable: false},
		{name: "not json", status: http.StatusOK, body: `<html>`, wantRetryable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewChatClient("openai", srv.URL, "k", testParams, time.Second, nil, testLogger())
			_, err := c.Complete(context.Background(), "text")
			if err == nil {
				t.Fatal("expected error")
			}
			if IsRetryable(err) != tt.wantRetryable {
				t.Errorf("IsRetryable(%v) = %v, want %v", err, IsRetryable(err), tt.wantRetryable)
			}
		})
	}
}

func TestClaudeClient_Complete(t *testing.T) {
	var got anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "sk-ant" || r.Header.Get("anthropic-version") == "" {
			t.Errorf("missing anthropic headers: %v", r.Header)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte("{\"content\":[{\"type\":\"text\",\"text\":\"```\\n1. Q?\\nA) a\\nB) b\\nC) c\\nD) d\\n```\"}],\"stop_reason\":\"end_turn\"}"))
	}))
	defer srv.Close()

	c := NewClaudeClient(srv.URL, "sk-ant", testParams, time.Second, nil, testLogger())
	reply, err := c.Complete(context.Background(), "chunk text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "1. Q?\nA) a\nB) b\nC) c\nD) d\n" {
		t.Errorf("expected code fence stripped, got %q", reply)
	}
	if got.System != SystemPrompt {
		t.Errorf("expected system prompt in system field, got %q", got.System)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Errorf("expected one user message, got %+v", got.Messages)
	}
}

func TestClaudeClient_EmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[]}`))
	}))
	defer srv.Close()

	c := NewClaudeClient(srv.URL, "k", testParams, time.Second, nil, testLogger())
	if _, err := c.Complete(context.Background(), "x"); err == nil {
		t.Error("expected error for empty content")
	}
}

func TestBuildChunkPrompt(t *testing.T) {
	p := BuildChunkPrompt("QUESTION TEXT {{TEXT}}")
	if !strings.Contains(p, "Here's the text:\n\nQUESTION TEXT {{TEXT}}\n\nFormat the output as follows:") {
		t.Errorf("chunk not embedded where expected:\n%s", p)
	}
	if !strings.HasSuffix(p, "Respond only with the formatted questions and options, no additional text.") {
		t.Error("expected closing instruction at the end")
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := map[string]string{
		"plain":                  "plain",
		"```\nbody\n```":         "body\n",
		"```text\nbody\n```":     "body\n",
		"  ```\nbody```  ":       "body",
		"```":                    "```",
		"1. Q?\nD) ```inline```": "1. Q?\nD) ```inline```",
	}
	for in, want := range tests {
		if got := stripCodeFence(in); got != want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNew_SelectsProvider(t *testing.T) {
	base := config.Config{LLMAPIKey: "k", LLMTemperature: 0.25, LLMMaxTokens: 1024, LLMTimeout: time.Second, LLMMaxRetries: 2}

	tests := []struct {
		provider  string
		wantModel string
		wantErr   bool
	}{
		{provider: "groq", wantModel: DefaultGroqModel},
		{provider: "openai", wantModel: DefaultOpenAIModel},
		{provider: "anthropic", wantModel: DefaultAnthropicModel},
		{provider: "cohere", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := base
			cfg.LLMProvider = tt.provider
			c, err := New(cfg, testLogger())
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			r, ok := c.(*Retrying)
			if !ok {
				t.Fatalf("expected *Retrying, got %T", c)
			}
			if r.MaxRetries != 2 {
				t.Errorf("expected 2 retries, got %d", r.MaxRetries)
			}
			if r.Model() != tt.wantModel {
				t.Errorf("expected model %q, got %q", tt.wantModel, r.Model())
			}
			if r.Stats() == nil {
				t.Error("expected stats to be exposed")
			}
		})
	}
}
