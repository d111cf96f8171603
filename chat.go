package widget

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ChatStatus is the lifecycle state of the chat channel.
type ChatStatus string

const (
	ChatIdle    ChatStatus = "idle"
	ChatSending ChatStatus = "sending"
	ChatError   ChatStatus = "error"
)

// ChatBackend produces one assistant reply for a user message given the
// prior conversation.
type ChatBackend interface {
	Send(ctx context.Context, text string, history []Message) (string, error)
}

// ChatSession wraps the chat backend with the single-flight contract:
// at most one send is outstanding, a second send fails with a busy
// error instead of queueing, and every send is bounded by a timeout.
type ChatSession struct {
	backend ChatBackend
	timeout time.Duration
	log     logrus.FieldLogger

	mu     sync.Mutex
	status ChatStatus
}

// NewChatSession creates a session over backend. A non-positive timeout
// selects the 30 second default.
func NewChatSession(backend ChatBackend, timeout time.Duration, log logrus.FieldLogger) *ChatSession {
	if timeout <= 0 {
		timeout = defaultChatTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ChatSession{
		backend: backend,
		timeout: timeout,
		log:     log,
		status:  ChatIdle,
	}
}

// Status returns the current chat status.
func (s *ChatSession) Status() ChatStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Send delivers one user message and blocks for the assistant reply.
// history is the conversation before this message.
func (s *ChatSession) Send(ctx context.Context, text string, history []Message) (string, error) {
	const op = "chat.send"

	if strings.TrimSpace(text) == "" {
		return "", errorf(KindConfiguration, op, "message is empty")
	}

	s.mu.Lock()
	if s.status == ChatSending {
		s.mu.Unlock()
		return "", errorf(KindBusy, op, "a send is already in flight")
	}
	s.status = ChatSending
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.backend.Send(ctx, text, history)

	s.mu.Lock()
	if err != nil {
		s.status = ChatError
	} else {
		s.status = ChatIdle
	}
	s.mu.Unlock()

	if err != nil {
		return "", normalizeError(op, err)
	}
	return reply, nil
}
