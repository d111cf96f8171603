// Package api implements the widgetd HTTP surface: call-session
// creation, the custom chat-backend contract, and a simulated call
// websocket.
package api

import (
	"github.com/sirupsen/logrus"

	"github.com/voxkit/assistant-widget/internal/service"
	"github.com/voxkit/assistant-widget/internal/service/assistant"
)

// Server holds API dependencies.
type Server struct {
	sessions  *service.SessionService
	assistant *assistant.Service
	logger    *logrus.Logger
}

// NewServer creates a new API server.
func NewServer(sessions *service.SessionService, assistantService *assistant.Service, logger *logrus.Logger) *Server {
	return &Server{
		sessions:  sessions,
		assistant: assistantService,
		logger:    logger,
	}
}
