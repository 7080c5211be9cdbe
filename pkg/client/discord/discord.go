package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"haracho/pkg/client"
	"haracho/pkg/config"

	"github.com/bwmarrin/discordgo"
)

const clientName = "discord"

const defaultIntents = discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

// Client connects the dispatch engine to the Discord gateway.
type Client struct {
	cfg config.DiscordConfig
	log *slog.Logger
}

// NewClient validates Discord configuration and constructs a client.
func NewClient(cfg config.DiscordConfig, log *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("clients.discord.token is required")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		cfg: cfg,
		log: log.With("component", "client.discord"),
	}, nil
}

func (c *Client) Name() string {
	return clientName
}

// Run opens a gateway session and forwards ready and message-create events
// until ctx is cancelled.
func (c *Client) Run(ctx context.Context, emit client.Emit) error {
	if emit == nil {
		return errors.New("emit is required")
	}

	session, err := discordgo.New("Bot " + strings.TrimSpace(c.cfg.Token))
	if err != nil {
		return fmt.Errorf("initialize discord session: %w", err)
	}
	session.Identify.Intents = defaultIntents
	// Handlers run on the gateway goroutine so messages keep their order.
	session.SyncEvents = true

	ctl := &Controller{session: session}

	removeReady := session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		if r.User != nil {
			c.log.Info("Discord session ready", "user", r.User.Username, "guilds", len(r.Guilds))
		}
		emit(ctx, client.ReadyEvent(ctl))
	})
	defer removeReady()

	removeMessage := session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		selfID := ""
		if s.State != nil && s.State.User != nil {
			selfID = s.State.User.ID
		}

		msg, ok := toMessage(m.Message, selfID)
		if !ok {
			return
		}
		emit(ctx, client.MessageEvent(msg))
	})
	defer removeMessage()

	if err := session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	c.log.Info("Discord client started")

	<-ctx.Done()

	if err := session.Close(); err != nil {
		c.log.Warn("Failed to close discord session", "error", err)
	}
	return nil
}

// toMessage converts a gateway message, skipping ones the bot itself wrote.
func toMessage(m *discordgo.Message, selfID string) (client.Message, bool) {
	if m == nil || m.Author == nil {
		return client.Message{}, false
	}
	if selfID != "" && m.Author.ID == selfID {
		return client.Message{}, false
	}

	return client.Message{
		ID:      m.ID,
		Content: m.Content,
		Channel: client.TextChannel{ID: m.ChannelID},
		Author:  client.User{ID: m.Author.ID, Name: m.Author.Username},
	}, true
}

// channelKind maps Discord channel types onto capability tags.
func channelKind(t discordgo.ChannelType) client.ChannelKind {
	switch t {
	case discordgo.ChannelTypeGuildVoice, discordgo.ChannelTypeGuildStageVoice:
		return client.KindVoice
	case discordgo.ChannelTypeGuildText,
		discordgo.ChannelTypeDM,
		discordgo.ChannelTypeGroupDM,
		discordgo.ChannelTypeGuildNews,
		discordgo.ChannelTypeGuildNewsThread,
		discordgo.ChannelTypeGuildPublicThread,
		discordgo.ChannelTypeGuildPrivateThread:
		return client.KindText
	default:
		return client.KindUnknown
	}
}
