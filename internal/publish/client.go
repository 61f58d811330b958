package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/mcqgest/internal/mcq"
)

// ErrNotConfigured is returned when no publish URL was set.
var ErrNotConfigured = errors.New("publish target not configured")

// Client sends finished tables to a downstream question bank.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(url, apiKey string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		url:    url,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// Configured reports whether a target URL is set.
func (c *Client) Configured() bool {
	return c != nil && c.url != ""
}

// Question is one published item. Line breaks are flattened to spaces.
type Question struct {
	Question string    `json:"question"`
	Options  [4]string `json:"options"`
}

var flatten = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// Payload converts a table into the published body.
func Payload(t mcq.Table) []Question {
	out := make([]Question, 0, t.Len())
	for _, r := range t.Records() {
		q := Question{Question: flatten.Replace(r.Question)}
		for i, o := range r.Options {
			q.Options[i] = flatten.Replace(o)
		}
		out = append(out, q)
	}
	return out
}

// Result describes an accepted publish.
type Result struct {
	StatusCode int    `json:"status_code"`
	Questions  int    `json:"questions"`
	RequestID  string `json:"request_id"`
}

// Publish POSTs the table as a JSON array. Any 2xx response is success.
func (c *Client) Publish(ctx context.Context, t mcq.Table) (Result, error) {
	if !c.Configured() {
		return Result{}, ErrNotConfigured
	}
	if err := t.Validate(); err != nil {
		return Result{}, fmt.Errorf("publish: %w", err)
	}

	body, err := json.Marshal(Payload(t))
	if err != nil {
		return Result{}, fmt.Errorf("marshal questions: %w", err)
	}
	reqID := uuid.NewString()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-Id", reqID)
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Error("publish.error", "req_id", reqID, "error", err)
		return Result{}, fmt.Errorf("publish: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.log.Error("publish.error", "req_id", reqID, "status", resp.StatusCode)
		return Result{}, fmt.Errorf("publish: status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	c.log.Info("publish.ok",
		"req_id", reqID,
		"status", resp.StatusCode,
		"questions", t.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return Result{StatusCode: resp.StatusCode, Questions: t.Len(), RequestID: reqID}, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
