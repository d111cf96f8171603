package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// CreateSessionRequest is the request body for creating a call session.
// Assistant and AssistantOverrides are accepted opaquely, the way the
// widget forwards them; widgetd only checks presence.
type CreateSessionRequest struct {
	PublicKey          string `json:"public_key"`
	AssistantID        string `json:"assistant_id,omitempty"`
	Assistant          any    `json:"assistant,omitempty"`
	AssistantOverrides any    `json:"assistant_overrides,omitempty"`
}

// CreateSessionResponse carries the minted session.
type CreateSessionResponse struct {
	CallID       string `json:"call_id"`
	Token        string `json:"token"`
	WebsocketURL string `json:"websocket_url"`
}

// CreateSession handles POST /session.
func (s *Server) CreateSession(c echo.Context) error {
	var req CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	if req.PublicKey == "" {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "public key is required"})
	}
	if req.AssistantID == "" && req.Assistant == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "either assistant_id or assistant is required"})
	}

	callID := uuid.NewString()
	token, err := s.sessions.Mint(req.PublicKey, callID, req.AssistantID)
	if err != nil {
		s.logger.WithError(err).Error("failed to mint session token")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to create session"})
	}

	scheme := "ws"
	if c.Request().TLS != nil {
		scheme = "wss"
	}

	return c.JSON(http.StatusCreated, CreateSessionResponse{
		CallID:       callID,
		Token:        token,
		WebsocketURL: scheme + "://" + c.Request().Host + "/call/" + callID,
	})
}
