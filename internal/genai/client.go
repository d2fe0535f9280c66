// Package genai is a client for the Gemini generateContent REST API.
//
// Every call is a single attempt: there are no retries. Failures come back
// as a failed fn.Result rather than an error return, and a panic anywhere in
// the call is recovered into one.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ecotrack/backend/internal/config"
	"github.com/ecotrack/backend/internal/fn"
)

var (
	// ErrDisabled is returned when no API key is configured.
	ErrDisabled = errors.New("genai: no api key configured")
	// ErrEmptyResponse is returned when the service answers without any text.
	ErrEmptyResponse = errors.New("genai: response contained no text")
)

// maxErrorBody caps how much of an error response ends up in the error text.
const maxErrorBody = 512

// Client provides access to the Gemini API.
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
	cb         *Breaker
	cfg        config.GeminiConfig
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default instrumented HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a new Gemini client.
func NewClient(cfg config.GeminiConfig, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cb:  NewBreaker(cfg.CircuitBreaker.MaxFailures, cfg.CircuitBreaker.ResetTimeout),
		cfg: cfg,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool { return c.apiKey != "" }

// BreakerState exposes the circuit breaker state for health reporting.
func (c *Client) BreakerState() BreakerState { return c.cb.State() }

// Complete sends prompt as a single user turn and returns the concatenated
// text of the first candidate, trimmed of surrounding whitespace. The call is
// bounded by the configured timeout and abandoned as soon as ctx is done.
func (c *Client) Complete(ctx context.Context, prompt string) (res fn.Result[string]) {
	defer func() {
		if r := recover(); r != nil {
			res = fn.Errf[string]("genai: panic during completion: %v", r)
		}
	}()

	if !c.Enabled() {
		return fn.Err[string](ErrDisabled)
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	return Do(c.cb, ctx, func(ctx context.Context) fn.Result[string] {
		return fn.FromPair(c.generate(ctx, prompt))
	})
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("genai: encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("genai: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("genai: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var apiErr errorResponse
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("genai: %s (%d %s)", apiErr.Error.Message, resp.StatusCode, apiErr.Error.Status)
		}
		return "", fmt.Errorf("genai: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("genai: decode response: %w", err)
	}
	if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("genai: prompt blocked: %s", out.PromptFeedback.BlockReason)
	}

	text := strings.TrimSpace(out.FirstText())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Request/Response types

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

type promptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

type generateResponse struct {
	Candidates     []candidate     `json:"candidates"`
	PromptFeedback *promptFeedback `json:"promptFeedback,omitempty"`
}

// FirstText joins the text parts of the first candidate.
func (r generateResponse) FirstText() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
