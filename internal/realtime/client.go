// Package realtime is the client for the realtime assistant service.
// It exchanges the embedder's public key for a call-session token over
// HTTP, maintains the call websocket, and exposes the service's chat
// capability for widgets without a custom backend.
package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// DefaultBaseURL is the hosted realtime service.
const DefaultBaseURL = "https://realtime.voxkit.dev"

const defaultConnectTimeout = 15 * time.Second

// Client talks to the realtime service on behalf of one public key.
type Client struct {
	baseURL    string
	publicKey  string
	httpClient *http.Client
	dialer     *websocket.Dialer
	log        logrus.FieldLogger
}

// CallConfig names the assistant a call or chat targets. Assistant and
// AssistantOverrides are opaque and forwarded unmodified.
type CallConfig struct {
	AssistantID        string
	Assistant          any
	AssistantOverrides any
}

// APIError is an error response from the realtime service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("realtime: status %d: %s", e.StatusCode, e.Message)
}

// NewClient creates a realtime client. An empty baseURL selects the
// hosted service.
func NewClient(baseURL, publicKey string, log logrus.FieldLogger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		publicKey: publicKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		dialer: &websocket.Dialer{
			HandshakeTimeout: defaultConnectTimeout,
		},
		log: log,
	}
}

type sessionRequest struct {
	PublicKey          string `json:"public_key"`
	AssistantID        string `json:"assistant_id,omitempty"`
	Assistant          any    `json:"assistant,omitempty"`
	AssistantOverrides any    `json:"assistant_overrides,omitempty"`
}

type sessionResponse struct {
	CallID       string `json:"call_id"`
	Token        string `json:"token"`
	WebsocketURL string `json:"websocket_url"`
}

// Dial creates a call session and opens its websocket. The returned
// call emits events until it ends or is stopped.
func (c *Client) Dial(ctx context.Context, cfg CallConfig) (*Call, error) {
	sess, err := c.createSession(ctx, cfg)
	if err != nil {
		return nil, err
	}

	wsURL := sess.WebsocketURL
	if wsURL == "" {
		wsURL = websocketURL(c.baseURL) + "/call/" + sess.CallID
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+sess.Token)

	conn, resp, err := c.dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: "websocket handshake rejected"}
		}
		return nil, fmt.Errorf("dial call websocket: %w", err)
	}

	call := newCall(sess.CallID, conn, c.log.WithField("call_id", sess.CallID))
	go call.readLoop()
	return call, nil
}

func (c *Client) createSession(ctx context.Context, cfg CallConfig) (*sessionResponse, error) {
	req := sessionRequest{
		PublicKey:          c.publicKey,
		AssistantID:        cfg.AssistantID,
		Assistant:          cfg.Assistant,
		AssistantOverrides: cfg.AssistantOverrides,
	}

	var resp sessionResponse
	if err := c.postJSON(ctx, "/session", req, &resp); err != nil {
		return nil, err
	}
	if resp.CallID == "" || resp.Token == "" {
		return nil, fmt.Errorf("realtime: session response missing call id or token")
	}
	return &resp, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(respBody))
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// websocketURL rewrites an http(s) base URL to its ws(s) form.
func websocketURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return base
	}
}
