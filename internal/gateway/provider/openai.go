// Package provider talks to OpenAI-compatible chat completion endpoints
// (OpenAI, OpenRouter, DeepSeek and friends all share the same wire shape).
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"polytrader/internal/logger"
)

// ChatClient is a minimal /chat/completions client with bounded retry on
// 429 and 5xx responses.
type ChatClient struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	// MaxRetries counts retries after the first attempt; 0 means default (2).
	MaxRetries int

	httpc *http.Client
}

func (c *ChatClient) client() *http.Client {
	if c.httpc == nil {
		timeout := c.Timeout
		if timeout == 0 {
			timeout = 60 * time.Second
		}
		c.httpc = &http.Client{Timeout: timeout}
	}
	return c.httpc
}

// endpoint normalizes the base URL so configs may carry either the bare API
// root or a full /chat/completions path.
func (c *ChatClient) endpoint() string {
	url := strings.TrimRight(c.BaseURL, "/")
	if url == "" {
		url = "https://api.openai.com/v1"
	}
	url = strings.TrimSuffix(url, "/chat/completions")
	return url + "/chat/completions"
}

// Call sends system and user prompts and returns the first choice content.
func (c *ChatClient) Call(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := make([]map[string]string, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, map[string]string{"role": "system", "content": systemPrompt})
	}
	messages = append(messages, map[string]string{"role": "user", "content": userPrompt})

	body := map[string]any{"model": c.Model, "messages": messages}
	if c.Temperature > 0 {
		body["temperature"] = c.Temperature
	}
	if c.MaxTokens > 0 {
		body["max_tokens"] = c.MaxTokens
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 2
	}
	url := c.endpoint()
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		out, retryable, err := c.doOnce(ctx, url, payload)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !retryable || attempt == maxRetries {
			break
		}
		wait := backoff(attempt, err)
		logger.Debugf("chat completion retry %d after %s: %v", attempt+1, wait, err)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}
	return "", lastErr
}

type retryAfterError struct {
	status int
	msg    string
	wait   time.Duration
}

func (e *retryAfterError) Error() string {
	return fmt.Sprintf("status=%d: %s", e.status, e.msg)
}

func (c *ChatClient) doOnce(ctx context.Context, url string, payload []byte) (out string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.client().Do(req)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 == 2 {
		var r struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		}
		if derr := json.NewDecoder(resp.Body).Decode(&r); derr != nil {
			return "", false, derr
		}
		if len(r.Choices) == 0 {
			return "", false, fmt.Errorf("empty choices in completion response")
		}
		return r.Choices[0].Message.Content, false, nil
	}

	var eresp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&eresp)
	msg := strings.TrimSpace(eresp.Error.Message)
	if msg == "" {
		msg = resp.Status
	}
	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		wait := time.Duration(0)
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, perr := strconv.Atoi(ra); perr == nil {
				wait = time.Duration(secs) * time.Second
			}
		}
		return "", true, &retryAfterError{status: resp.StatusCode, msg: msg, wait: wait}
	}
	return "", false, fmt.Errorf("status=%d: %s", resp.StatusCode, msg)
}

func backoff(attempt int, err error) time.Duration {
	if ra, ok := err.(*retryAfterError); ok && ra.wait > 0 {
		return ra.wait
	}
	wait := 800 * time.Millisecond << attempt
	if wait > 8*time.Second {
		wait = 8 * time.Second
	}
	return wait
}
