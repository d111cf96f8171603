package widget

import (
	"context"
	"errors"
	"testing"
	"time"
)

// blockingBackend parks every send until the test releases it.
type blockingBackend struct {
	replies chan string
	errs    chan error
}

func newBlockingBackend() *blockingBackend {
	return &blockingBackend{
		replies: make(chan string),
		errs:    make(chan error),
	}
}

func (b *blockingBackend) Send(ctx context.Context, text string, history []Message) (string, error) {
	select {
	case reply := <-b.replies:
		return reply, nil
	case err := <-b.errs:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestChatSessionSecondSendIsBusy(t *testing.T) {
	backend := newBlockingBackend()
	s := NewChatSession(backend, time.Minute, nil)

	firstDone := make(chan error, 1)
	go func() {
		_, err := s.Send(context.Background(), "first", nil)
		firstDone <- err
	}()

	waitFor(t, func() bool { return s.Status() == ChatSending })

	if _, err := s.Send(context.Background(), "second", nil); KindOf(err) != KindBusy {
		t.Fatalf("second Send: kind = %q, want %q", KindOf(err), KindBusy)
	}

	backend.replies <- "ok"
	if err := <-firstDone; err != nil {
		t.Fatalf("first Send: %v", err)
	}
	if got := s.Status(); got != ChatIdle {
		t.Errorf("Status() = %q, want %q", got, ChatIdle)
	}
}

func TestChatSessionTimeout(t *testing.T) {
	s := NewChatSession(newBlockingBackend(), 20*time.Millisecond, nil)

	_, err := s.Send(context.Background(), "hello", nil)
	if KindOf(err) != KindTimeout {
		t.Fatalf("Send: kind = %q, want %q", KindOf(err), KindTimeout)
	}
	if got := s.Status(); got != ChatError {
		t.Errorf("Status() = %q, want %q", got, ChatError)
	}

	// The session accepts new sends after a failure.
	backend := newBlockingBackend()
	s = NewChatSession(backend, 20*time.Millisecond, nil)
	if _, err := s.Send(context.Background(), "again", nil); KindOf(err) != KindTimeout {
		t.Fatalf("retry Send: kind = %q, want %q", KindOf(err), KindTimeout)
	}
}

func TestChatSessionNormalizesBackendErrors(t *testing.T) {
	backend := newBlockingBackend()
	s := NewChatSession(backend, time.Minute, nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.Send(context.Background(), "hello", nil)
		done <- err
	}()
	waitFor(t, func() bool { return s.Status() == ChatSending })
	backend.errs <- errors.New("upstream exploded")

	err := <-done
	if KindOf(err) != KindConnection {
		t.Fatalf("Send: kind = %q, want %q", KindOf(err), KindConnection)
	}
}

func TestChatSessionRejectsEmptyMessage(t *testing.T) {
	s := NewChatSession(newBlockingBackend(), time.Minute, nil)

	if _, err := s.Send(context.Background(), "   ", nil); KindOf(err) != KindConfiguration {
		t.Fatalf("Send: kind = %q, want %q", KindOf(err), KindConfiguration)
	}
}
