package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"haracho/pkg/client"
	"haracho/pkg/config"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

const clientName = "telegram"
const messagePreviewLimit = 240

// Client feeds Telegram long-polling updates into the dispatch engine.
type Client struct {
	cfg       config.TelegramConfig
	allowFrom map[string]struct{}
	log       *slog.Logger
}

// NewClient validates Telegram configuration and constructs a client.
func NewClient(cfg config.TelegramConfig, log *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("clients.telegram.token is required")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		cfg:       cfg,
		allowFrom: allowFromSet(cfg.AllowFrom),
		log:       log.With("component", "client.telegram"),
	}, nil
}

func (c *Client) Name() string {
	return clientName
}

// Run starts long polling, announces readiness and forwards text messages
// until ctx is cancelled or the update stream ends.
func (c *Client) Run(ctx context.Context, emit client.Emit) error {
	if emit == nil {
		return errors.New("emit is required")
	}

	bot, err := telego.NewBot(strings.TrimSpace(c.cfg.Token))
	if err != nil {
		return fmt.Errorf("initialize telegram bot: %w", err)
	}

	updates, err := bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return fmt.Errorf("start long polling: %w", err)
	}

	c.log.Info("Telegram client started")
	if !emit(ctx, client.ReadyEvent(&Controller{bot: bot})) {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				if err := ctx.Err(); err != nil {
					return nil
				}
				return errors.New("telegram updates channel closed")
			}

			msg, ok := c.toMessage(update.Message)
			if !ok {
				continue
			}
			c.log.Debug("Received message", "chat_id", msg.Channel.ID, "sender_id", msg.Author.ID, "content", previewText(msg.Content))

			if !emit(ctx, client.MessageEvent(msg)) {
				return nil
			}
		}
	}
}

// toMessage converts a Telegram text message from an allowed sender.
func (c *Client) toMessage(message *telego.Message) (client.Message, bool) {
	if message == nil || message.Text == "" {
		return client.Message{}, false
	}
	if message.From == nil {
		c.log.Debug("Ignoring message without sender")
		return client.Message{}, false
	}

	senderID := strconv.FormatInt(message.From.ID, 10)
	if !c.senderAllowed(senderID) {
		c.log.Debug("Ignoring message from unauthorized sender", "sender_id", senderID)
		return client.Message{}, false
	}

	return client.Message{
		ID:      strconv.Itoa(message.MessageID),
		Content: message.Text,
		Channel: client.TextChannel{ID: strconv.FormatInt(message.Chat.ID, 10)},
		Author:  client.User{ID: senderID, Name: displayName(message.From)},
	}, true
}

// senderAllowed checks whether a sender is permitted by allow_from config.
//
// When no allow list is configured, all senders are accepted.
func (c *Client) senderAllowed(senderID string) bool {
	if len(c.allowFrom) == 0 {
		return true
	}

	_, ok := c.allowFrom[strings.TrimSpace(senderID)]
	return ok
}

func displayName(user *telego.User) string {
	if user.Username != "" {
		return user.Username
	}
	return strings.TrimSpace(user.FirstName + " " + user.LastName)
}

// allowFromSet normalizes allow_from values into a lookup set.
func allowFromSet(allowFrom []string) map[string]struct{} {
	allowed := make(map[string]struct{}, len(allowFrom))
	for _, value := range allowFrom {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			allowed[trimmed] = struct{}{}
		}
	}

	if len(allowed) == 0 {
		return nil
	}
	return allowed
}

// previewText returns a bounded log-safe preview of message text.
func previewText(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= messagePreviewLimit {
		return trimmed
	}

	return trimmed[:messagePreviewLimit] + "..."
}

// Controller sends messages through the Telegram Bot API.
type Controller struct {
	bot *telego.Bot
}

func (c *Controller) SendMessage(ctx context.Context, channel client.TextChannel, content string) (client.Message, error) {
	chatID, err := strconv.ParseInt(channel.ID, 10, 64)
	if err != nil {
		return client.Message{}, fmt.Errorf("telegram chat id %q: %w", channel.ID, err)
	}

	sent, err := c.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), content))
	if err != nil {
		return client.Message{}, fmt.Errorf("send telegram message: %w", err)
	}

	return client.Message{
		ID:      strconv.Itoa(sent.MessageID),
		Content: sent.Text,
		Channel: channel,
	}, nil
}
