// Package sentiment asks an OpenAI-compatible chat endpoint for the polarity
// of a text. The label is advisory and never feeds back into verdicts.
package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Label is a sentiment class.
type Label string

const (
	Negative Label = "negative"
	Neutral  Label = "neutral"
	Positive Label = "positive"
)

// ErrUnrecognized is returned when the model answer names no known label.
var ErrUnrecognized = errors.New("sentiment: unrecognized answer")

const systemPrompt = "あなたは日本語テキストの感情分析器です。" +
	"入力文の感情を negative, neutral, positive のいずれか一語だけで答えてください。"

// Client calls an OpenAI-compatible chat completion endpoint.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string

	HTTPClient *http.Client

	cache *lru.Cache[string, Label]
}

// Options configure New.
type Options struct {
	BaseURL   string
	APIKey    string
	Model     string
	Timeout   time.Duration
	CacheSize int
}

// New creates a client with a memo of CacheSize answers (default 100).
func New(opts Options) *Client {
	c := &Client{
		BaseURL: opts.BaseURL,
		APIKey:  opts.APIKey,
		Model:   opts.Model,
	}
	if opts.Timeout > 0 {
		c.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	size := opts.CacheSize
	if size <= 0 {
		size = 100
	}
	c.cache, _ = lru.New[string, Label](size)
	return c
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Classify returns the sentiment of text.
func (c *Client) Classify(ctx context.Context, text string) (Label, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Neutral, nil
	}
	if c.cache != nil {
		if l, ok := c.cache.Get(text); ok {
			return l, nil
		}
	}

	answer, err := c.Chat(ctx, systemPrompt, text)
	if err != nil {
		return "", err
	}
	label, err := ParseLabel(answer)
	if err != nil {
		return "", err
	}
	if c.cache != nil {
		c.cache.Add(text, label)
	}
	return label, nil
}

// ParseLabel maps a free-form model answer to a Label. English and Japanese
// class names are accepted.
func ParseLabel(answer string) (Label, error) {
	a := strings.ToLower(strings.TrimSpace(answer))
	switch {
	case strings.Contains(a, "negative"), strings.Contains(a, "ネガティブ"), strings.Contains(a, "否定"):
		return Negative, nil
	case strings.Contains(a, "positive"), strings.Contains(a, "ポジティブ"), strings.Contains(a, "肯定"):
		return Positive, nil
	case strings.Contains(a, "neutral"), strings.Contains(a, "ニュートラル"), strings.Contains(a, "中立"):
		return Neutral, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnrecognized, answer)
}

// Chat sends a single system/user exchange and returns the reply.
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	if c.BaseURL == "" || c.Model == "" {
		return "", fmt.Errorf("sentiment: base URL and model required")
	}
	messages := []chatMessage{{Role: "system", Content: system}, {Role: "user", Content: user}}
	payload, err := c.send(ctx, messages)
	if err != nil {
		return "", err
	}
	if len(payload.Choices) == 0 {
		return "", fmt.Errorf("sentiment: empty response")
	}
	return payload.Choices[0].Message.Content, nil
}

func (c *Client) send(ctx context.Context, messages []chatMessage) (*chatResponse, error) {
	reqBody, err := json.Marshal(chatRequest{Model: c.Model, Messages: messages})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var payload chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("sentiment: decode response (HTTP %d): %w", resp.StatusCode, err)
	}
	if payload.Error != nil {
		return nil, fmt.Errorf("sentiment error: %s", payload.Error.Message)
	}
	return &payload, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 15 * time.Second}
}
