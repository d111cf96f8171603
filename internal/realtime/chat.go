package realtime

import "context"

// ChatMessage is one prior conversation turn sent with a chat request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	PublicKey          string        `json:"public_key"`
	AssistantID        string        `json:"assistant_id,omitempty"`
	Assistant          any           `json:"assistant,omitempty"`
	AssistantOverrides any           `json:"assistant_overrides,omitempty"`
	Message            string        `json:"message"`
	History            []ChatMessage `json:"history,omitempty"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// SendChat sends one user message through the service's chat capability
// using the same assistant configuration a call would, and returns the
// assistant reply.
func (c *Client) SendChat(ctx context.Context, cfg CallConfig, text string, history []ChatMessage) (string, error) {
	req := chatRequest{
		PublicKey:          c.publicKey,
		AssistantID:        cfg.AssistantID,
		Assistant:          cfg.Assistant,
		AssistantOverrides: cfg.AssistantOverrides,
		Message:            text,
		History:            history,
	}

	var resp chatResponse
	if err := c.postJSON(ctx, "/chat", req, &resp); err != nil {
		return "", err
	}
	return resp.Reply, nil
}
