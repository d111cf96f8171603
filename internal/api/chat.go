package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/voxkit/assistant-widget/internal/service/assistant"
)

// ChatTurn is one prior conversation turn in a chat request.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the custom chat-backend contract the widget's APIURL
// option speaks: one user message plus the prior history.
type ChatRequest struct {
	Message string     `json:"message"`
	History []ChatTurn `json:"history,omitempty"`
}

// ChatResponse carries the single assistant reply.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// Chat handles POST /chat.
func (s *Server) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	if req.Message == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "message is required"})
	}

	history := make([]assistant.Turn, 0, len(req.History))
	for _, turn := range req.History {
		history = append(history, assistant.Turn{Role: turn.Role, Content: turn.Content})
	}

	reply, err := s.assistant.Reply(c.Request().Context(), req.Message, history)
	if err != nil {
		s.logger.WithError(err).Error("failed to generate reply")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to generate reply"})
	}

	return c.JSON(http.StatusOK, ChatResponse{Reply: reply})
}
