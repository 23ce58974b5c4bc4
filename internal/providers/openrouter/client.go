// Package openrouter wraps OpenRouter's OpenAI-compatible chat API with
// the two capability shapes the pipeline needs: free-text generation and
// schema-validated structured generation.
package openrouter

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
)

const defaultBaseURL = "https://openrouter.ai/api/v1"

// Structured is implemented by structured-generation targets. The model
// output is decoded into the target and then validated; a validation
// failure is a hard stage failure.
type Structured interface {
	Validate() error
}

// Options configures a Client.
type Options struct {
	APIKey     string
	BaseURL    string
	SiteURL    string
	AppName    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client talks to a single configured OpenRouter endpoint. Model
// identifiers are plain strings chosen per call.
type Client struct {
	apiKey  string
	baseURL string
	siteURL string
	appName string
	client  *http.Client
}

// NewClient validates the options and builds a client. The API key is
// required.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openrouter api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	appName := strings.TrimSpace(opts.AppName)
	if appName == "" {
		appName = "ArticleMaster"
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			// Long-form prose generations regularly run for minutes.
			timeout = 5 * time.Minute
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		apiKey:  strings.TrimSpace(opts.APIKey),
		baseURL: baseURL,
		siteURL: strings.TrimSpace(opts.SiteURL),
		appName: appName,
		client:  client,
	}, nil
}

// TextResult is the outcome of a free-text generation.
type TextResult struct {
	Text  string
	Usage Usage
}

// GenerateText runs one chat completion and returns the raw text.
func (c *Client) GenerateText(ctx context.Context, model, prompt string) (TextResult, error) {
	raw, usage, err := c.complete(ctx, model, prompt, false)
	if err != nil {
		return TextResult{}, err
	}
	return TextResult{Text: raw, Usage: usage}, nil
}

// GenerateObject runs one chat completion in JSON mode, decodes the
// output into out and validates it. Any decode or validation failure is
// returned as-is; the caller treats it as a stage failure and does not
// retry.
func (c *Client) GenerateObject(ctx context.Context, model, prompt string, out Structured) (Usage, error) {
	raw, usage, err := c.complete(ctx, model, prompt, true)
	if err != nil {
		return usage, err
	}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), out); err != nil {
		return usage, fmt.Errorf("decode structured output: %w", err)
	}
	if err := out.Validate(); err != nil {
		return usage, err
	}
	return usage, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Usage          *usageInclude   `json:"usage,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type usageInclude struct {
	Include bool `json:"include"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage wireUsage `json:"usage"`
}

func (c *Client) complete(ctx context.Context, model, prompt string, jsonMode bool) (string, Usage, error) {
	if strings.TrimSpace(model) == "" {
		return "", Usage{}, errors.New("model is required")
	}
	payload := chatRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		// Asks OpenRouter to attach the true line-item cost to the usage block.
		Usage: &usageInclude{Include: true},
	}
	if jsonMode {
		payload.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", Usage{}, fmt.Errorf("marshal openrouter payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(encoded))
	if err != nil {
		return "", Usage{}, fmt.Errorf("create openrouter request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.siteURL != "" {
		req.Header.Set("HTTP-Referer", c.siteURL)
	}
	req.Header.Set("X-Title", c.appName)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", Usage{}, fmt.Errorf("openrouter request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", Usage{}, fmt.Errorf("read openrouter response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := strings.TrimSpace(string(body))
		if len(message) > 700 {
			message = message[:700]
		}
		return "", Usage{}, &ProviderError{StatusCode: resp.StatusCode, Message: message}
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", Usage{}, fmt.Errorf("decode openrouter response: %w", err)
	}
	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		return "", normalizeUsage(decoded.Usage), errors.New("openrouter response without text output")
	}
	return strings.TrimSpace(decoded.Choices[0].Message.Content), normalizeUsage(decoded.Usage), nil
}

// stripCodeFence unwraps a fenced ```json block when the model insists on
// wrapping its JSON output.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// ProviderError carries a non-2xx provider response.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("openrouter status %d: %s", e.StatusCode, e.Message)
}
