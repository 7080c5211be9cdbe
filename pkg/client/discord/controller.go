package discord

import (
	"context"
	"fmt"

	"haracho/pkg/client"

	"github.com/bwmarrin/discordgo"
)

// Controller acts on Discord through the REST half of a gateway session.
type Controller struct {
	session *discordgo.Session
}

func (c *Controller) SendMessage(ctx context.Context, channel client.TextChannel, content string) (client.Message, error) {
	sent, err := c.session.ChannelMessageSend(channel.ID, content, discordgo.WithContext(ctx))
	if err != nil {
		return client.Message{}, fmt.Errorf("send discord message: %w", err)
	}

	msg, ok := toMessage(sent, "")
	if !ok {
		return client.Message{ID: sent.ID, Content: sent.Content, Channel: channel}, nil
	}
	return msg, nil
}

func (c *Controller) ResolveUser(ctx context.Context, id string) (client.User, error) {
	user, err := c.session.User(id, discordgo.WithContext(ctx))
	if err != nil {
		return client.User{}, fmt.Errorf("fetch discord user %s: %w", id, err)
	}
	return client.User{ID: user.ID, Name: user.Username}, nil
}

// ResolveChannel prefers the session state cache and falls back to REST.
func (c *Controller) ResolveChannel(ctx context.Context, id string) (client.Channel, error) {
	if c.session.State != nil {
		if ch, err := c.session.State.Channel(id); err == nil {
			return client.Channel{ID: ch.ID, Kind: channelKind(ch.Type)}, nil
		}
	}

	ch, err := c.session.Channel(id, discordgo.WithContext(ctx))
	if err != nil {
		return client.Channel{}, fmt.Errorf("fetch discord channel %s: %w", id, err)
	}
	return client.Channel{ID: ch.ID, Kind: channelKind(ch.Type)}, nil
}
