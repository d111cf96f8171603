package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/voxkit/assistant-widget/internal/service/assistant"
)

var upgrader = websocket.Upgrader{
	// widgetd is a local development harness; cross-origin embedding is
	// the whole point.
	CheckOrigin: func(*http.Request) bool { return true },
}

// callFrame is one wire frame of the simulated call, matching the
// realtime client's protocol.
type callFrame struct {
	Type    string  `json:"type"`
	Role    string  `json:"role,omitempty"`
	Text    string  `json:"text,omitempty"`
	Final   bool    `json:"final,omitempty"`
	Level   float64 `json:"level,omitempty"`
	Message string  `json:"message,omitempty"`
}

// Call handles GET /call/:id: a simulated voice call. The client's
// "text" frames stand in for spoken input; each one is answered with a
// user transcript, a few volume samples and an assistant transcript.
// A "hangup" frame ends the call cleanly.
func (s *Server) Call(c echo.Context) error {
	claims := GetClaims(c)
	log := s.logger.WithFields(logrus.Fields{
		"call_id":    c.Param("id"),
		"public_key": claims.PublicKey,
	})

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	log.Info("call connected")
	if err := conn.WriteJSON(callFrame{Type: "call-started"}); err != nil {
		return nil
	}

	var history []assistant.Turn
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.WithError(err).Debug("call read ended")
			return nil
		}

		var frame callFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.WithError(err).Warn("dropping malformed client frame")
			continue
		}

		switch frame.Type {
		case "hangup":
			_ = conn.WriteJSON(callFrame{Type: "call-ended"})
			log.Info("call hung up")
			return nil

		case "text":
			if frame.Text == "" {
				continue
			}
			if err := s.simulateTurn(conn, frame.Text, &history); err != nil {
				log.WithError(err).Debug("call write ended")
				return nil
			}

		case "audio":
			// Real audio is out of scope for the harness; frames are
			// accepted and ignored.

		default:
			log.WithField("type", frame.Type).Debug("ignoring client frame")
		}
	}
}

// simulateTurn plays one conversational turn over the websocket.
func (s *Server) simulateTurn(conn *websocket.Conn, text string, history *[]assistant.Turn) error {
	// Progressive user transcript: a partial fragment, then the final.
	if half := len(text) / 2; half > 0 {
		if err := conn.WriteJSON(callFrame{Type: "transcript", Role: "user", Text: text[:half]}); err != nil {
			return err
		}
	}
	if err := conn.WriteJSON(callFrame{Type: "transcript", Role: "user", Text: text, Final: true}); err != nil {
		return err
	}
	for _, level := range []float64{0.4, 0.7, 0.2} {
		if err := conn.WriteJSON(callFrame{Type: "volume", Level: level}); err != nil {
			return err
		}
	}

	*history = append(*history, assistant.Turn{Role: "user", Content: text})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	reply, err := s.assistant.Reply(ctx, text, *history)
	if err != nil {
		return conn.WriteJSON(callFrame{Type: "error", Message: "assistant unavailable"})
	}
	*history = append(*history, assistant.Turn{Role: "assistant", Content: reply})

	return conn.WriteJSON(callFrame{Type: "transcript", Role: "assistant", Text: reply, Final: true})
}
