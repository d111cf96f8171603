package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestReplyGreeting(t *testing.T) {
	svc := NewService("Testy", 0, nil)

	reply, err := svc.Reply(context.Background(), "hello there", nil)
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if !strings.Contains(reply, "Testy") {
		t.Errorf("greeting reply %q does not name the assistant", reply)
	}
}

func TestReplyEchoesWithTurnCount(t *testing.T) {
	svc := NewService("Testy", 0, nil)
	history := []Turn{
		{Role: "user", Content: "one"},
		{Role: "assistant", Content: "You said: \"one\" (turn 1)"},
	}

	reply, err := svc.Reply(context.Background(), "two", history)
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if !strings.Contains(reply, `"two"`) {
		t.Errorf("reply %q does not echo the message", reply)
	}
	if !strings.Contains(reply, "turn 2") {
		t.Errorf("reply %q does not carry the turn count", reply)
	}
}

func TestReplyHonorsCancellation(t *testing.T) {
	svc := NewService("Testy", time.Minute, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := svc.Reply(ctx, "hello", nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Reply error = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Reply blocked %v past its deadline", elapsed)
	}
}
