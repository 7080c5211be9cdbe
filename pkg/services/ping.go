package services

import (
	"context"

	"haracho/pkg/client"
	"haracho/pkg/service"
)

const pongReply = "pong!"

// Ping replies "pong!" to the ping command. It is the smoke test for a new
// deployment.
func Ping() *service.Descriptor {
	return service.NewBuilder().
		Name("PingService").
		Description("Replies pong to the ping command. Useful for checking the bot is alive.").
		Timing(service.OnCommandCall("ping").Callback(func(arg service.LaunchArg) service.Service {
			channel := arg.Message.Channel
			return service.ServiceFunc(func(ctx context.Context, ctl client.Controller) error {
				_, err := ctl.SendMessage(ctx, channel, pongReply)
				return err
			})
		}).MustBuild()).
		MustBuild()
}
