package mailjet

import (
	"context"
	"errors"
	"testing"
	"time"

	mailjet "github.com/mailjet/mailjet-apiv3-go"
	"github.com/stoop-politics/stoop/internal/ports"
)

func TestDispatcher_NotConfigured(t *testing.T) {
	d := New(Config{FromEmail: "noreply@example.com"})
	if d.Configured() {
		t.Fatalf("dispatcher without keys must not be configured")
	}
	if err := d.Send(context.Background(), ports.Email{To: "a@example.com"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}

	d = New(Config{PublicKey: "pub", PrivateKey: "priv"})
	if !d.Configured() {
		t.Fatalf("dispatcher with keys must be configured")
	}
}

func TestDispatcher_Timeout(t *testing.T) {
	if d := New(Config{PublicKey: "pub", PrivateKey: "priv"}); d.timeout != DefaultTimeout {
		t.Fatalf("timeout = %v, want %v", d.timeout, DefaultTimeout)
	}
	if d := New(Config{PublicKey: "pub", PrivateKey: "priv", Timeout: 2 * time.Second}); d.timeout != 2*time.Second {
		t.Fatalf("timeout = %v, want 2s", d.timeout)
	}
}

func TestDispatcher_SenderFromMessageThenConfig(t *testing.T) {
	var got *mailjet.MessagesV31
	d := &Dispatcher{
		cfg: Config{FromEmail: "config@example.com", FromName: "Config"},
		send: func(ctx context.Context, msgs *mailjet.MessagesV31) error {
			got = msgs
			return nil
		},
	}

	if err := d.Send(context.Background(), ports.Email{To: "a@example.com", From: "hello@stoop.example", FromName: "The Stoop"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if from := got.Info[0].From; from.Email != "hello@stoop.example" || from.Name != "The Stoop" {
		t.Fatalf("expected message sender, got %+v", from)
	}

	if err := d.Send(context.Background(), ports.Email{To: "a@example.com"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if from := got.Info[0].From; from.Email != "config@example.com" || from.Name != "Config" {
		t.Fatalf("expected config sender as fallback, got %+v", from)
	}

	d.cfg = Config{}
	if err := d.Send(context.Background(), ports.Email{To: "a@example.com"}); err == nil {
		t.Fatalf("expected error without any sender")
	}
}

func TestDispatcher_BuildsMessage(t *testing.T) {
	var got *mailjet.MessagesV31
	d := &Dispatcher{
		cfg: Config{FromEmail: "noreply@example.com", FromName: "Stoop Politics"},
		send: func(ctx context.Context, msgs *mailjet.MessagesV31) error {
			got = msgs
			return nil
		},
	}
	err := d.Send(context.Background(), ports.Email{To: "jane@example.com", Subject: "Hi", HTML: "<p>Hi</p>", Text: "Hi"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got == nil || len(got.Info) != 1 {
		t.Fatalf("expected one message, got %+v", got)
	}
	m := got.Info[0]
	if m.From.Email != "noreply@example.com" || m.From.Name != "Stoop Politics" {
		t.Fatalf("unexpected sender: %+v", m.From)
	}
	if len(*m.To) != 1 || (*m.To)[0].Email != "jane@example.com" {
		t.Fatalf("unexpected recipients: %+v", m.To)
	}
	if m.Subject != "Hi" || m.HTMLPart != "<p>Hi</p>" || m.TextPart != "Hi" {
		t.Fatalf("unexpected content: %+v", m)
	}
}

func TestDispatcher_WrapsProviderError(t *testing.T) {
	boom := errors.New("quota exceeded")
	d := &Dispatcher{
		cfg:  Config{FromEmail: "noreply@example.com"},
		send: func(ctx context.Context, msgs *mailjet.MessagesV31) error { return boom },
	}
	if err := d.Send(context.Background(), ports.Email{To: "a@example.com"}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
}
