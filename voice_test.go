package widget

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type fakeCall struct {
	events   chan CallEvent
	stopOnce sync.Once
	stopped  chan struct{}
}

func newFakeCall() *fakeCall {
	return &fakeCall{
		events:  make(chan CallEvent, 16),
		stopped: make(chan struct{}),
	}
}

func (c *fakeCall) Events() <-chan CallEvent { return c.events }

func (c *fakeCall) Stop() error {
	c.stopOnce.Do(func() { close(c.stopped) })
	return nil
}

type fakeVoiceClient struct {
	call    *fakeCall
	dialErr error
}

func (f *fakeVoiceClient) Dial(context.Context, CallConfig) (Call, error) {
	if f.dialErr != nil {
		return nil, f.dialErr
	}
	return f.call, nil
}

func TestVoiceSessionStopWhenIdleIsNoop(t *testing.T) {
	s := NewVoiceSession(&fakeVoiceClient{call: newFakeCall()}, nil)

	s.Stop()
	s.Stop()

	if got := s.Status(); got != CallIdle {
		t.Errorf("Status() = %q, want %q", got, CallIdle)
	}
}

func TestVoiceSessionStartRequiresAssistant(t *testing.T) {
	s := NewVoiceSession(&fakeVoiceClient{call: newFakeCall()}, nil)

	_, err := s.Start(context.Background(), CallConfig{})
	if KindOf(err) != KindConfiguration {
		t.Fatalf("Start with no assistant: kind = %q, want %q", KindOf(err), KindConfiguration)
	}
	if got := s.Status(); got != CallIdle {
		t.Errorf("Status() after config error = %q, want %q", got, CallIdle)
	}
}

func TestVoiceSessionStartStopLifecycle(t *testing.T) {
	call := newFakeCall()
	s := NewVoiceSession(&fakeVoiceClient{call: call}, nil)

	events, err := s.Start(context.Background(), CallConfig{AssistantID: "a-1"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if events == nil {
		t.Fatal("Start returned nil event channel")
	}
	if got := s.Status(); got != CallActive {
		t.Fatalf("Status() = %q, want %q", got, CallActive)
	}

	// A second start while active is rejected, not queued.
	if _, err := s.Start(context.Background(), CallConfig{AssistantID: "a-1"}); KindOf(err) != KindBusy {
		t.Errorf("second Start: kind = %q, want %q", KindOf(err), KindBusy)
	}

	s.Stop()
	select {
	case <-call.stopped:
	default:
		t.Error("Stop did not hang up the call")
	}
	if got := s.Status(); got != CallIdle {
		t.Errorf("Status() after Stop = %q, want %q", got, CallIdle)
	}
}

func TestVoiceSessionDialFailureResetsToIdle(t *testing.T) {
	s := NewVoiceSession(&fakeVoiceClient{dialErr: errors.New("boom")}, nil)

	if _, err := s.Start(context.Background(), CallConfig{AssistantID: "a-1"}); err == nil {
		t.Fatal("Start succeeded despite dial failure")
	}
	if got := s.Status(); got != CallIdle {
		t.Errorf("Status() = %q, want %q", got, CallIdle)
	}
}

func TestTranscriptBufferFinalFlag(t *testing.T) {
	var b transcriptBuffer

	if out := b.Add(RoleUser, "hel", false); len(out) != 0 {
		t.Fatalf("partial fragment finalized %d utterances", len(out))
	}
	out := b.Add(RoleUser, "hello there", true)
	if len(out) != 1 {
		t.Fatalf("final fragment finalized %d utterances, want 1", len(out))
	}
	if out[0].Role != RoleUser || out[0].Text != "hello there" {
		t.Errorf("finalized = %+v", out[0])
	}

	// Buffer is empty again.
	if _, ok := b.Flush(); ok {
		t.Error("buffer not empty after final fragment")
	}
}

func TestTranscriptBufferRoleChangeFlushes(t *testing.T) {
	var b transcriptBuffer

	b.Add(RoleUser, "how do I", false)
	out := b.Add(RoleAssistant, "You can", false)

	if len(out) != 1 {
		t.Fatalf("role change finalized %d utterances, want 1", len(out))
	}
	if out[0].Role != RoleUser || out[0].Text != "how do I" {
		t.Errorf("finalized = %+v", out[0])
	}

	u, ok := b.Flush()
	if !ok {
		t.Fatal("expected a pending assistant fragment")
	}
	if u.Role != RoleAssistant || u.Text != "You can" {
		t.Errorf("flushed = %+v", u)
	}
}

func TestTranscriptBufferPartialsReplace(t *testing.T) {
	var b transcriptBuffer

	b.Add(RoleUser, "what", false)
	b.Add(RoleUser, "what is", false)
	out := b.Add(RoleUser, "what is the time", true)

	if len(out) != 1 || out[0].Text != "what is the time" {
		t.Fatalf("finalized = %+v, want single full utterance", out)
	}
}

func TestTranscriptBufferFinalWithEmptyTextUsesBuffer(t *testing.T) {
	var b transcriptBuffer

	b.Add(RoleAssistant, "done now", false)
	out := b.Add(RoleAssistant, "", true)

	if len(out) != 1 || out[0].Text != "done now" {
		t.Fatalf("finalized = %+v, want buffered text", out)
	}
}
