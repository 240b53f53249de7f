package mail

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/festapp/identity/internal/core/ports"
)

func TestLogSender_MasksRecipientAtInfo(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSender(zerolog.New(&buf).Level(zerolog.InfoLevel))

	err := s.Deliver(context.Background(), ports.ResetMail{
		To:       "alice@example.com",
		Name:     "Alice",
		ResetURL: "https://fest.example/reset-password?token=abc",
	})
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "a***@example.com") {
		t.Fatalf("expected masked recipient in %q", out)
	}
	if strings.Contains(out, "token=abc") {
		t.Fatalf("reset url leaked at info level: %q", out)
	}
}

func TestLogSender_CancelledContext(t *testing.T) {
	s := NewLogSender(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Deliver(ctx, ports.ResetMail{To: "a@b.c"}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
