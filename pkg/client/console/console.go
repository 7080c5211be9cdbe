package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"haracho/pkg/client"
	"haracho/pkg/config"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

const clientName = "console"

// ChannelID is the single text channel every console message belongs to.
const ChannelID = "console"

// Client runs the dispatch engine against a local terminal chat.
type Client struct {
	cfg config.ConsoleConfig
	log *slog.Logger
}

func NewClient(cfg config.ConsoleConfig, log *slog.Logger) *Client {
	if strings.TrimSpace(cfg.Username) == "" {
		cfg.Username = "you"
	}
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		cfg: cfg,
		log: log.With("component", "client.console"),
	}
}

func (c *Client) Name() string {
	return clientName
}

// Run shows the chat UI until the user quits or ctx is cancelled. Every
// submitted line becomes one message event.
func (c *Client) Run(ctx context.Context, emit client.Emit) error {
	if emit == nil {
		return errors.New("emit is required")
	}

	author := client.User{ID: c.cfg.Username, Name: c.cfg.Username}
	m := newModel(func(content string) bool {
		return emit(ctx, client.MessageEvent(client.Message{
			ID:      uuid.NewString(),
			Content: content,
			Channel: client.TextChannel{ID: ChannelID},
			Author:  author,
		}))
	}, c.cfg.BotName)

	program := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
	)

	if !emit(ctx, client.ReadyEvent(&Controller{program: program})) {
		return nil
	}

	c.log.Info("Console client started", "user", c.cfg.Username)
	if _, err := program.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run console ui: %w", err)
	}
	return nil
}

// sender is the part of *tea.Program the controller needs.
type sender interface {
	Send(msg tea.Msg)
}

// Controller renders bot replies into the console transcript.
type Controller struct {
	program sender
}

func (c *Controller) SendMessage(_ context.Context, channel client.TextChannel, content string) (client.Message, error) {
	if channel.ID != ChannelID {
		return client.Message{}, fmt.Errorf("console has no channel %q", channel.ID)
	}

	c.program.Send(replyMsg{content: content})
	return client.Message{ID: uuid.NewString(), Content: content, Channel: channel}, nil
}
