package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"haracho/pkg/client"
	"haracho/pkg/service"

	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	channel string
	content string
}

type recordingController struct {
	sent []sentMessage
	err  error
}

func (c *recordingController) SendMessage(_ context.Context, channel client.TextChannel, content string) (client.Message, error) {
	if c.err != nil {
		return client.Message{}, c.err
	}
	c.sent = append(c.sent, sentMessage{channel: channel.ID, content: content})
	return client.Message{ID: "reply", Content: content, Channel: channel}, nil
}

// launchCommand resolves tokens against the first timing of desc and runs it.
func launchCommand(t *testing.T, desc *service.Descriptor, ctl client.Controller, tokens ...string) error {
	t.Helper()

	cond := desc.Timings()[0]
	args, err := service.ResolveArgs(context.Background(), cond.Args(), tokens, ctl)
	require.NoError(t, err)

	svc := cond.NewService(service.LaunchArg{
		Kind:        cond.Kind(),
		CommandName: cond.Trigger(),
		Message:     client.Message{ID: "m1", Channel: client.TextChannel{ID: "c1"}},
		Args:        args,
	})
	require.NotNil(t, svc)
	return svc.Launch(context.Background(), ctl)
}

func TestPingRepliesPong(t *testing.T) {
	t.Parallel()

	desc := Ping()
	require.Equal(t, "PingService", desc.Name())
	require.True(t, desc.Timings()[0].Matches("ping", true, "g!ping"))

	ctl := &recordingController{}
	require.NoError(t, launchCommand(t, desc, ctl))
	require.Equal(t, []sentMessage{{channel: "c1", content: "pong!"}}, ctl.sent)
}

func TestPingSurfacesSendError(t *testing.T) {
	t.Parallel()

	ctl := &recordingController{err: errors.New("discord down")}
	err := launchCommand(t, Ping(), ctl)
	require.EqualError(t, err, "discord down")
}

func TestRoleSummarizesArguments(t *testing.T) {
	t.Parallel()

	ctl := &recordingController{}
	require.NoError(t, launchCommand(t, Role(), ctl, "mods", "<@42>", "#ff00aa"))
	require.Len(t, ctl.sent, 1)
	require.Equal(t, `role "mods" for 42 with color #ff00aa`, ctl.sent[0].content)

	ctl = &recordingController{}
	require.NoError(t, launchCommand(t, Role(), ctl, "mods", "@alice"))
	require.Equal(t, `role "mods" for @alice`, ctl.sent[0].content)
}

func TestRoleRejectsBadColor(t *testing.T) {
	t.Parallel()

	cond := Role().Timings()[0]
	_, err := service.ResolveArgs(context.Background(), cond.Args(), []string{"mods", "<@42>", "#12"}, nil)
	require.ErrorIs(t, err, service.ErrInvalidArg)

	require.Equal(t, "g!role <name> <target> [color]", cond.Usage("g!"))
}

func TestHelpListsServices(t *testing.T) {
	t.Parallel()

	var registered []*service.Descriptor
	registered = Builtin("g!", func() []*service.Descriptor { return registered })
	require.Len(t, registered, 3)

	ctl := &recordingController{}
	require.NoError(t, launchCommand(t, registered[1], ctl))
	require.Len(t, ctl.sent, 1)

	text := ctl.sent[0].content
	for _, want := range []string{"PingService", "g!ping", "HelpService", "g!help", "RoleService", "g!role <name> <target> [color]", "target (user)"} {
		if !strings.Contains(text, want) {
			t.Fatalf("help text missing %q:\n%s", want, text)
		}
	}
}

func TestRenderHelpEmpty(t *testing.T) {
	t.Parallel()

	require.Equal(t, "No services registered.", RenderHelp("g!", nil))
}
