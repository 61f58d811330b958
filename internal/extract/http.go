package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxResponseBytes = 1 << 20

// httpClient is shared by the provider clients: it posts one JSON request,
// records latency and classifies failures.
type httpClient struct {
	provider string
	model    string
	http     *http.Client
	stats    *CallStats
	log      *slog.Logger
}

func newHTTPClient(provider, model string, timeout time.Duration, stats *CallStats, log *slog.Logger) httpClient {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if stats == nil {
		stats = NewCallStats(time.Hour)
	}
	return httpClient{
		provider: provider,
		model:    model,
		http:     &http.Client{Timeout: timeout},
		stats:    stats,
		log:      log,
	}
}

// postJSON sends body to url and returns the response body of a 2xx reply.
// Every attempt is recorded in stats.
// 429 and 5xx become *RetryableError.
func (c *httpClient) postJSON(ctx context.Context, url string, body any, headers map[string]string) ([]byte, error) {
	reqID := uuid.New().String()
	start := time.Now()

	bs, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	c.log.Debug("llm.complete.start",
		"req_id", reqID,
		"provider", c.provider,
		"model", c.model,
		"content_length", len(bs),
	)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.stats.Record(time.Since(start), OutcomeFailed)
		c.log.Error("llm.complete.error", "req_id", reqID, "provider", c.provider, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("%s api: %w", c.provider, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	elapsed := time.Since(start)
	if err != nil {
		c.stats.Record(elapsed, OutcomeFailed)
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		c.stats.Record(elapsed, OutcomeThrottled)
		c.log.Warn("llm.complete.error", "req_id", reqID, "provider", c.provider, "status", resp.StatusCode, "elapsed_ms", elapsed.Milliseconds())
		return nil, &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode/100 != 2 {
		c.stats.Record(elapsed, OutcomeFailed)
		c.log.Error("llm.complete.error", "req_id", reqID, "provider", c.provider, "status", resp.StatusCode, "elapsed_ms", elapsed.Milliseconds())
		return nil, fmt.Errorf("%s api status %d: %s", c.provider, resp.StatusCode, truncate(string(respBody), 500))
	}

	c.stats.Record(elapsed, OutcomeOK)
	c.log.Info("llm.complete.ok",
		"req_id", reqID,
		"provider", c.provider,
		"model", c.model,
		"bytes", len(respBody),
		"elapsed_ms", elapsed.Milliseconds(),
	)
	return respBody, nil
}

// Model returns the model name sent with each request.
func (c *httpClient) Model() string { return c.model }

// Stats returns the call outcomes and latencies in the current window.
func (c *httpClient) Stats() *CallStats { return c.stats }

// Close releases idle connections.
func (c *httpClient) Close() {
	c.http.CloseIdleConnections()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// stripCodeFence removes a surrounding markdown code fence some models add
// despite being asked for plain text.
func stripCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") || !strings.HasSuffix(t, "```") || len(t) < 6 {
		return s
	}
	t = strings.TrimSuffix(t, "```")
	if nl := strings.IndexByte(t, '\n'); nl >= 0 {
		t = t[nl+1:]
	} else {
		t = strings.TrimPrefix(t, "```")
	}
	return t
}
