// Package assistant generates replies for the widgetd development
// harness. It is deliberately canned: widgetd exists to exercise the
// widget end to end locally, not to be a product backend.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Turn is one prior conversation turn.
type Turn struct {
	Role    string
	Content string
}

// Service produces assistant replies.
type Service struct {
	name   string
	delay  time.Duration
	logger logrus.FieldLogger
}

// NewService creates an assistant. delay simulates upstream latency so
// timeout and busy handling can be exercised.
func NewService(name string, delay time.Duration, logger logrus.FieldLogger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{name: name, delay: delay, logger: logger}
}

// Reply returns one assistant reply for message. It honors context
// cancellation during the simulated latency.
func (s *Service) Reply(ctx context.Context, message string, history []Turn) (string, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	s.logger.WithFields(logrus.Fields{
		"turns":   len(history),
		"message": message,
	}).Debug("generating reply")

	lower := strings.ToLower(strings.TrimSpace(message))
	switch {
	case lower == "":
		return "Say something and I will echo it back.", nil
	case strings.HasPrefix(lower, "hi"), strings.HasPrefix(lower, "hello"), strings.HasPrefix(lower, "hey"):
		return fmt.Sprintf("Hello! I am %s, a local development assistant. Everything you send is echoed back.", s.name), nil
	case strings.Contains(lower, "help"):
		return "This is the widgetd canned assistant. It echoes your messages so you can exercise the widget's chat loop without a real backend.", nil
	default:
		return fmt.Sprintf("You said: %q (turn %d)", message, len(history)/2+1), nil
	}
}
