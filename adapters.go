package widget

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/voxkit/assistant-widget/internal/backend"
	"github.com/voxkit/assistant-widget/internal/realtime"
)

// realtimeVoiceClient adapts the realtime service client to the
// VoiceClient interface, classifying its failures into widget error
// kinds.
type realtimeVoiceClient struct {
	client *realtime.Client
}

func newRealtimeVoiceClient(cfg Config, log logrus.FieldLogger) VoiceClient {
	return &realtimeVoiceClient{
		client: realtime.NewClient(cfg.BaseURL, cfg.PublicKey, log),
	}
}

func (v *realtimeVoiceClient) Dial(ctx context.Context, cfg CallConfig) (Call, error) {
	call, err := v.client.Dial(ctx, realtime.CallConfig{
		AssistantID:        cfg.AssistantID,
		Assistant:          cfg.Assistant,
		AssistantOverrides: cfg.AssistantOverrides,
	})
	if err != nil {
		return nil, classifyRealtimeError("voice.start", err)
	}
	return newRealtimeCall(call), nil
}

// realtimeCall converts realtime wire events into widget call events.
type realtimeCall struct {
	call   *realtime.Call
	events chan CallEvent
}

func newRealtimeCall(call *realtime.Call) *realtimeCall {
	c := &realtimeCall{
		call:   call,
		events: make(chan CallEvent, 16),
	}
	go c.convert()
	return c
}

func (c *realtimeCall) convert() {
	defer close(c.events)
	for ev := range c.call.Events() {
		c.events <- convertCallEvent(ev)
	}
}

func (c *realtimeCall) Events() <-chan CallEvent {
	return c.events
}

func (c *realtimeCall) Stop() error {
	return c.call.Stop()
}

func convertCallEvent(ev realtime.Event) CallEvent {
	out := CallEvent{
		Role:   Role(ev.Role),
		Text:   ev.Text,
		Final:  ev.Final,
		Volume: ev.Level,
	}
	switch ev.Type {
	case realtime.EventCallStarted:
		out.Type = EventCallStarted
	case realtime.EventCallEnded:
		out.Type = EventCallEnded
	case realtime.EventTranscript:
		out.Type = EventTranscript
	case realtime.EventVolume:
		out.Type = EventVolume
	case realtime.EventError:
		out.Type = EventCallError
		out.Err = classifyRealtimeError("voice.call", ev.Err)
	default:
		// Unknown frame types pass through as volume-less no-ops; the
		// controller ignores types it does not know.
		out.Type = CallEventType(ev.Type)
	}
	return out
}

// sdkChatBackend routes chat through the realtime service's own chat
// capability, with the same assistant configuration a call would use.
type sdkChatBackend struct {
	client *realtime.Client
	cfg    realtime.CallConfig
}

func (b *sdkChatBackend) Send(ctx context.Context, text string, history []Message) (string, error) {
	turns := make([]realtime.ChatMessage, 0, len(history))
	for _, msg := range history {
		turns = append(turns, realtime.ChatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	reply, err := b.client.SendChat(ctx, b.cfg, text, turns)
	if err != nil {
		return "", classifyRealtimeError("chat.send", err)
	}
	return reply, nil
}

// apiChatBackend routes chat through the embedder's custom HTTP
// backend.
type apiChatBackend struct {
	client *backend.Client
}

func (b *apiChatBackend) Send(ctx context.Context, text string, history []Message) (string, error) {
	turns := make([]backend.Message, 0, len(history))
	for _, msg := range history {
		turns = append(turns, backend.Message{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	reply, err := b.client.Send(ctx, text, turns)
	if err != nil {
		return "", classifyBackendError("chat.send", err)
	}
	return reply, nil
}

// defaultChatBackend picks the custom backend when APIURL is set, the
// realtime chat capability otherwise.
func defaultChatBackend(cfg Config, log logrus.FieldLogger) ChatBackend {
	if cfg.APIURL != "" {
		return &apiChatBackend{client: backend.NewClient(cfg.APIURL, cfg.ChatTimeout)}
	}
	return &sdkChatBackend{
		client: realtime.NewClient(cfg.BaseURL, cfg.PublicKey, log),
		cfg: realtime.CallConfig{
			AssistantID:        cfg.AssistantID,
			Assistant:          cfg.Assistant,
			AssistantOverrides: cfg.AssistantOverrides,
		},
	}
}

func classifyRealtimeError(op string, err error) *Error {
	var apiErr *realtime.APIError
	if errors.As(err, &apiErr) {
		return newError(kindForStatus(apiErr.StatusCode), op, err)
	}
	return normalizeError(op, err)
}

func classifyBackendError(op string, err error) *Error {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return newError(kindForStatus(apiErr.StatusCode), op, err)
	}
	return normalizeError(op, err)
}

func kindForStatus(status int) ErrorKind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindPermission
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindConfiguration
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return KindTimeout
	default:
		return KindConnection
	}
}
