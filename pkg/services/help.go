package services

import (
	"context"
	"fmt"
	"strings"

	"haracho/pkg/client"
	"haracho/pkg/service"
)

// Lister returns the services currently registered with the bot.
type Lister func() []*service.Descriptor

// Help lists every registered service with its description and usages.
func Help(prefix string, list Lister) *service.Descriptor {
	return service.NewBuilder().
		Name("HelpService").
		Description("Lists the available services and how to call them.").
		Timing(service.OnCommandCall("help").Callback(func(arg service.LaunchArg) service.Service {
			channel := arg.Message.Channel
			return service.ServiceFunc(func(ctx context.Context, ctl client.Controller) error {
				var descriptors []*service.Descriptor
				if list != nil {
					descriptors = list()
				}
				_, err := ctl.SendMessage(ctx, channel, RenderHelp(prefix, descriptors))
				return err
			})
		}).MustBuild()).
		MustBuild()
}

// RenderHelp formats descriptors as a plain text listing.
func RenderHelp(prefix string, descriptors []*service.Descriptor) string {
	if len(descriptors) == 0 {
		return "No services registered."
	}

	var b strings.Builder
	b.WriteString("Available services:")
	for _, desc := range descriptors {
		fmt.Fprintf(&b, "\n%s: %s", desc.Name(), desc.Description())
		for _, cond := range desc.Timings() {
			fmt.Fprintf(&b, "\n  %s", cond.Usage(prefix))
			for _, arg := range cond.Args() {
				fmt.Fprintf(&b, "\n    %s (%s)", arg.Name, arg.Type)
				if arg.Description != "" {
					fmt.Fprintf(&b, ": %s", arg.Description)
				}
			}
		}
	}
	return b.String()
}
