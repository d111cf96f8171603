// Package backend is the HTTP client for a custom chat backend. The
// contract is a single request carrying the user's message and the
// prior history, answered by a single assistant reply.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Message is one prior conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Message string    `json:"message"`
	History []Message `json:"history,omitempty"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// APIError is a non-success response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chat backend: status %d: %s", e.StatusCode, e.Message)
}

// Client posts user messages to the configured backend URL.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a backend client. The HTTP timeout is a transport
// ceiling; per-send deadlines come from the caller's context.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Send delivers one user message with the prior history and returns the
// assistant reply.
func (c *Client) Send(ctx context.Context, text string, history []Message) (string, error) {
	body, err := json.Marshal(chatRequest{Message: text, History: history})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(respBody))
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return "", &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	var reply chatResponse
	if err := json.Unmarshal(respBody, &reply); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	return reply.Reply, nil
}
