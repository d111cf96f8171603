package realtime

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// EventType identifies a call wire event.
type EventType string

const (
	EventCallStarted EventType = "call-started"
	EventCallEnded   EventType = "call-ended"
	EventTranscript  EventType = "transcript"
	EventVolume      EventType = "volume"
	EventError       EventType = "error"
)

// Event is one decoded frame from the call websocket. Transcript
// fragments carry Role, Text and Final; volume samples carry Level.
type Event struct {
	Type  EventType `json:"type"`
	Role  string    `json:"role,omitempty"`
	Text  string    `json:"text,omitempty"`
	Final bool      `json:"final,omitempty"`
	Level float64   `json:"level,omitempty"`

	// Message is the service's description on error frames.
	Message string `json:"message,omitempty"`
	// Err is set on locally-detected failures (transport errors).
	Err error `json:"-"`
}

type hangupFrame struct {
	Type string `json:"type"`
}

// Call is an established call session. Events are delivered in wire
// order on a single channel, which closes when the call ends.
type Call struct {
	id   string
	conn *websocket.Conn
	log  logrus.FieldLogger

	events    chan Event
	done      chan struct{}
	writeMu   sync.Mutex
	closeOnce sync.Once
}

func newCall(id string, conn *websocket.Conn, log logrus.FieldLogger) *Call {
	return &Call{
		id:     id,
		conn:   conn,
		log:    log,
		events: make(chan Event, 16),
		done:   make(chan struct{}),
	}
}

// ID returns the service-assigned call identifier.
func (c *Call) ID() string {
	return c.id
}

// Events yields decoded call events in arrival order.
func (c *Call) Events() <-chan Event {
	return c.events
}

func (c *Call) readLoop() {
	defer close(c.events)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.emit(Event{Type: EventCallEnded})
				return
			}
			c.emit(Event{Type: EventError, Err: err})
			return
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			c.log.WithError(err).Warn("dropping malformed call frame")
			continue
		}
		if ev.Type == "" {
			continue
		}
		if ev.Type == EventError && ev.Err == nil {
			ev.Err = errors.New(ev.Message)
		}
		c.emit(ev)
		if ev.Type == EventCallEnded {
			return
		}
	}
}

func (c *Call) emit(ev Event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// Stop hangs up and closes the websocket. Safe to call any number of
// times, from any goroutine.
func (c *Call) Stop() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)

		c.writeMu.Lock()
		_ = c.conn.WriteJSON(hangupFrame{Type: "hangup"})
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.writeMu.Unlock()

		err = c.conn.Close()
	})
	return err
}
