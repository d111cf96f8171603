package widget

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// CallStatus is the lifecycle state of the voice channel.
type CallStatus string

const (
	CallIdle       CallStatus = "idle"
	CallConnecting CallStatus = "connecting"
	CallActive     CallStatus = "active"
	CallEnding     CallStatus = "ending"
	CallError      CallStatus = "error"
)

// CallEventType identifies a voice call event.
type CallEventType string

const (
	EventCallStarted CallEventType = "call-started"
	EventCallEnded   CallEventType = "call-ended"
	EventTranscript  CallEventType = "transcript"
	EventVolume      CallEventType = "volume"
	EventCallError   CallEventType = "error"
)

// CallEvent is one event from an active voice call.
type CallEvent struct {
	Type CallEventType

	// Transcript fragments. Final marks an utterance boundary.
	Role  Role
	Text  string
	Final bool

	// Volume is the current input level sample, 0..1. Samples never
	// enter the conversation history.
	Volume float64

	Err error
}

// Call is an established voice call. The event channel closes when the
// call ends.
type Call interface {
	Events() <-chan CallEvent
	Stop() error
}

// CallConfig is the assistant configuration forwarded to the voice
// client. Assistant and AssistantOverrides are opaque.
type CallConfig struct {
	AssistantID        string
	Assistant          any
	AssistantOverrides any
}

// VoiceClient establishes voice calls against the realtime service.
type VoiceClient interface {
	Dial(ctx context.Context, cfg CallConfig) (Call, error)
}

// VoiceSession wraps the voice client with the call lifecycle the
// controller depends on: start only from idle, idempotent stop, and
// discarding of dial results that complete after a stop.
type VoiceSession struct {
	client VoiceClient
	log    logrus.FieldLogger

	mu     sync.Mutex
	status CallStatus
	call   Call
	gen    uint64
}

// NewVoiceSession creates a session over client.
func NewVoiceSession(client VoiceClient, log logrus.FieldLogger) *VoiceSession {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &VoiceSession{
		client: client,
		log:    log,
		status: CallIdle,
	}
}

// Status returns the current call status.
func (s *VoiceSession) Status() CallStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Start dials a call. Valid only from idle (or a prior error); a
// concurrent start fails with a busy error. Dial failures reset the
// session to idle. If the session is stopped while the dial is in
// flight, the late call is hung up and discarded.
func (s *VoiceSession) Start(ctx context.Context, cfg CallConfig) (<-chan CallEvent, error) {
	const op = "voice.start"

	if cfg.AssistantID == "" && cfg.Assistant == nil {
		return nil, errorf(KindConfiguration, op, "either assistant_id or assistant is required")
	}

	s.mu.Lock()
	if s.status != CallIdle && s.status != CallError {
		s.mu.Unlock()
		return nil, errorf(KindBusy, op, "call already %s", s.status)
	}
	s.status = CallConnecting
	gen := s.gen
	s.mu.Unlock()

	call, err := s.client.Dial(ctx, cfg)

	s.mu.Lock()
	if gen != s.gen {
		// Stopped while dialing. Discard whatever came back.
		s.mu.Unlock()
		if call != nil {
			_ = call.Stop()
		}
		return nil, errorf(KindConnection, op, "call canceled")
	}
	if err != nil {
		s.status = CallIdle
		s.mu.Unlock()
		return nil, err
	}
	s.call = call
	s.status = CallActive
	s.mu.Unlock()

	return call.Events(), nil
}

// Stop ends the call. Calling stop when no call is active is a no-op.
func (s *VoiceSession) Stop() {
	s.mu.Lock()
	if s.status == CallIdle || s.status == CallError {
		s.mu.Unlock()
		return
	}
	s.gen++
	call := s.call
	s.call = nil
	s.status = CallEnding
	s.mu.Unlock()

	if call != nil {
		if err := call.Stop(); err != nil {
			s.log.WithError(err).Debug("hangup returned an error")
		}
	}

	s.mu.Lock()
	s.status = CallIdle
	s.mu.Unlock()
}

// finish ends the session after a remote event: any live call is hung
// up and the outcome recorded. A failed finish leaves the session in
// the error status; Start accepts that as a restart point.
func (s *VoiceSession) finish(failed bool) {
	s.mu.Lock()
	s.gen++
	call := s.call
	s.call = nil
	if failed {
		s.status = CallError
	} else {
		s.status = CallIdle
	}
	s.mu.Unlock()

	if call != nil {
		_ = call.Stop()
	}
}

// utterance is a finalized transcript entry ready to become a Message.
type utterance struct {
	Role Role
	Text string
}

// transcriptBuffer accumulates transcript fragments until a boundary —
// a fragment flagged final, or a speaker change. Partial fragments for
// one speaker are progressive rewrites of the same utterance, so each
// non-final fragment replaces the buffered text.
type transcriptBuffer struct {
	role Role
	text string
}

// Add records a fragment and returns any utterances it finalized, in
// order.
func (b *transcriptBuffer) Add(role Role, text string, final bool) []utterance {
	var out []utterance
	if b.text != "" && b.role != role {
		out = append(out, utterance{Role: b.role, Text: b.text})
		b.text = ""
	}
	b.role = role
	if final {
		if text == "" {
			text = b.text
		}
		if text != "" {
			out = append(out, utterance{Role: role, Text: text})
		}
		b.text = ""
		return out
	}
	b.text = text
	return out
}

// Flush returns the pending partial utterance, if any, and empties the
// buffer.
func (b *transcriptBuffer) Flush() (utterance, bool) {
	if b.text == "" {
		return utterance{}, false
	}
	u := utterance{Role: b.role, Text: b.text}
	b.text = ""
	return u, true
}
