// Package backend talks to the retrieval-augmented chat server. Every call
// makes exactly one HTTP request, never retries, and reports how it settled
// as an Outcome instead of branching on ad hoc fields.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ragconsole/internal/logger"
)

const (
	DefaultBaseURL = "http://127.0.0.1:8000"
	DefaultTimeout = 120 * time.Second

	logModule    = "backend"
	maxBodyBytes = 8 << 20
)

type Client struct {
	baseURL string
	http    *http.Client
	log     logger.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
	}
}

func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	c := &Client{
		baseURL: base,
		http:    &http.Client{Timeout: DefaultTimeout},
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Chat posts the message to /chat. A non-2xx status, a body that is not JSON
// or a body without a response field is a transport failure; a truthy error
// field is an application failure.
func (c *Client) Chat(ctx context.Context, message string) ChatOutcome {
	body, err := json.Marshal(ChatRequest{Message: message})
	if err != nil {
		return failed[ChatResponse](err)
	}
	headers := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	}
	started := time.Now()
	status, payload, err := c.do(ctx, http.MethodPost, PathChat, body, headers)
	outcome := decodeChat(status, payload, err)
	c.logOutcome(PathChat, status, started, outcome.Kind, outcome.Err)
	return outcome
}

func decodeChat(status int, payload []byte, err error) ChatOutcome {
	if err != nil {
		return failed[ChatResponse](err)
	}
	if status < 200 || status >= 300 {
		return failed[ChatResponse](fmt.Errorf("chat http %d: %s", status, compact(payload, 200)))
	}
	var env chatEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return failed[ChatResponse](fmt.Errorf("chat returned non-json payload: %w", err))
	}
	if truthy(env.Error) {
		return rejected[ChatResponse](errorText(env.Error))
	}
	if env.Response == nil {
		return failed[ChatResponse](errors.New("chat payload has no response field"))
	}
	return succeeded(ChatResponse{
		Response: *env.Response,
		Context:  env.Context,
		Chunks:   env.Chunks,
	}, "")
}

// Scrape posts url and name to /scrape. The HTTP status is not inspected;
// only the status field of the decoded body decides the outcome.
func (c *Client) Scrape(ctx context.Context, url, name string) StatusOutcome {
	body, err := json.Marshal(ScrapeRequest{URL: url, Name: name})
	if err != nil {
		return failed[StatusReply](err)
	}
	started := time.Now()
	status, payload, err := c.do(ctx, http.MethodPost, PathScrape, body, map[string]string{
		"Content-Type": "application/json",
	})
	outcome := decodeStatusReply(PathScrape, payload, err)
	c.logOutcome(PathScrape, status, started, outcome.Kind, outcome.Err)
	return outcome
}

// Cleanup posts an empty body to /cleanup. Like Scrape, only the status field
// decides the outcome.
func (c *Client) Cleanup(ctx context.Context) StatusOutcome {
	started := time.Now()
	status, payload, err := c.do(ctx, http.MethodPost, PathClean, nil, map[string]string{
		"Content-Type": "application/json",
	})
	outcome := decodeStatusReply(PathClean, payload, err)
	c.logOutcome(PathClean, status, started, outcome.Kind, outcome.Err)
	return outcome
}

func decodeStatusReply(path string, payload []byte, err error) StatusOutcome {
	if err != nil {
		return failed[StatusReply](err)
	}
	var reply *StatusReply
	if err := json.Unmarshal(payload, &reply); err != nil {
		return failed[StatusReply](fmt.Errorf("%s returned non-json payload: %w", path, err))
	}
	if reply == nil {
		return failed[StatusReply](fmt.Errorf("%s returned an empty payload", path))
	}
	if reply.Status == StatusSuccess {
		return succeeded(*reply, reply.Message)
	}
	return Outcome[StatusReply]{Kind: ApplicationFailure, Payload: *reply, Message: reply.Message}
}

// VectorStoreStatus reads /vector-db-status.
func (c *Client) VectorStoreStatus(ctx context.Context) StoreOutcome {
	started := time.Now()
	status, payload, err := c.do(ctx, http.MethodGet, PathStatus, nil, map[string]string{
		"Accept": "application/json",
	})
	outcome := decodeStoreStatus(status, payload, err)
	c.logOutcome(PathStatus, status, started, outcome.Kind, outcome.Err)
	return outcome
}

func decodeStoreStatus(status int, payload []byte, err error) StoreOutcome {
	if err != nil {
		return failed[VectorStoreStatus](err)
	}
	if status < 200 || status >= 300 {
		return failed[VectorStoreStatus](fmt.Errorf("status http %d: %s", status, compact(payload, 200)))
	}
	var env *vectorStoreEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return failed[VectorStoreStatus](fmt.Errorf("status returned non-json payload: %w", err))
	}
	if env == nil {
		return failed[VectorStoreStatus](errors.New("status returned an empty payload"))
	}
	if env.Status != StatusSuccess {
		return rejected[VectorStoreStatus](env.Message)
	}
	return succeeded(env.Data, env.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, headers map[string]string) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed on %s: %w", path, err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read %s body: %w", path, err)
	}
	return resp.StatusCode, payload, nil
}

func (c *Client) logOutcome(path string, status int, started time.Time, kind Kind, err error) {
	details := map[string]interface{}{
		"endpoint":   path,
		"http":       status,
		"latency_ms": time.Since(started).Milliseconds(),
		"outcome":    kind.String(),
	}
	if err != nil {
		details["error"] = err
		c.log.Warn(logModule, "backend call failed", details)
		return
	}
	c.log.Info(logModule, "backend call settled", details)
}

func compact(payload []byte, limit int) string {
	text := strings.Join(strings.Fields(string(payload)), " ")
	if len(text) <= limit {
		return text
	}
	return text[:limit-3] + "..."
}
