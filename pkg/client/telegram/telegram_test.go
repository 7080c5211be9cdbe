package telegram

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"haracho/pkg/client"
	"haracho/pkg/config"

	"github.com/mymmrac/telego"
)

func TestNewClientRequiresToken(t *testing.T) {
	if _, err := NewClient(config.TelegramConfig{}, nil); err == nil {
		t.Fatal("expected error without token")
	}
}

func TestAllowFromSet(t *testing.T) {
	allowed := allowFromSet([]string{" 123 ", "", "456", "123"})
	if len(allowed) != 2 {
		t.Fatalf("allowFromSet len = %d, want 2", len(allowed))
	}
	if _, ok := allowed["123"]; !ok {
		t.Fatal("allowFromSet missing 123")
	}
	if _, ok := allowed["456"]; !ok {
		t.Fatal("allowFromSet missing 456")
	}
	if got := allowFromSet([]string{" ", ""}); got != nil {
		t.Fatalf("allowFromSet blanks = %v, want nil", got)
	}
}

func TestSenderAllowed(t *testing.T) {
	c := &Client{allowFrom: map[string]struct{}{"1": {}}}
	if !c.senderAllowed("1") {
		t.Fatal("expected sender 1 to be allowed")
	}
	if c.senderAllowed("2") {
		t.Fatal("expected sender 2 to be denied")
	}

	c.allowFrom = nil
	if !c.senderAllowed("any") {
		t.Fatal("expected sender to be allowed when allowlist empty")
	}
}

func TestToMessage(t *testing.T) {
	c := &Client{log: slog.Default(), allowFrom: allowFromSet([]string{"7"})}

	in := &telego.Message{
		MessageID: 5,
		Text:      " g!ping ",
		Chat:      telego.Chat{ID: -100},
		From:      &telego.User{ID: 7, FirstName: "Ada", LastName: "L"},
	}

	got, ok := c.toMessage(in)
	if !ok {
		t.Fatal("expected message to convert")
	}
	want := client.Message{
		ID:      "5",
		Content: " g!ping ",
		Channel: client.TextChannel{ID: "-100"},
		Author:  client.User{ID: "7", Name: "Ada L"},
	}
	if got != want {
		t.Fatalf("toMessage = %+v, want %+v", got, want)
	}

	in.From = &telego.User{ID: 8, Username: "mallory"}
	if _, ok := c.toMessage(in); ok {
		t.Fatal("expected unauthorized sender to be skipped")
	}

	if _, ok := c.toMessage(&telego.Message{From: &telego.User{ID: 7}}); ok {
		t.Fatal("expected non-text message to be skipped")
	}
	if _, ok := c.toMessage(nil); ok {
		t.Fatal("expected nil message to be skipped")
	}
}

func TestControllerRejectsInvalidChatID(t *testing.T) {
	ctl := &Controller{}
	if _, err := ctl.SendMessage(context.Background(), client.TextChannel{ID: "general"}, "hi"); err == nil {
		t.Fatal("expected error for non-numeric chat id")
	}
}

func TestPreviewText(t *testing.T) {
	short := " hello "
	if got := previewText(short); got != "hello" {
		t.Fatalf("previewText short = %q, want %q", got, "hello")
	}

	long := strings.Repeat("a", messagePreviewLimit+20)
	got := previewText(long)
	if len(got) != messagePreviewLimit+3 {
		t.Fatalf("previewText long len = %d, want %d", len(got), messagePreviewLimit+3)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("previewText long = %q, want ellipsis suffix", got)
	}
}
