package services

import (
	"context"
	"fmt"
	"regexp"

	"haracho/pkg/client"
	"haracho/pkg/service"
)

var colorCode = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}){1,2}$`)

// Role accepts a role name, a target user and an optional color code, and
// replies with what it resolved. It exercises every argument flavour a
// command can declare.
func Role() *service.Descriptor {
	timing := service.OnCommandCall("role").
		Arg("name", "Name of the role to create", service.TypeString).
		Arg("target", "User the role is given to", service.TypeUser).
		OptionalArg("color", "Role color as #rgb or #rrggbb", service.TypeRegex(colorCode)).
		Callback(func(arg service.LaunchArg) service.Service {
			channel := arg.Message.Channel
			reply := describeRole(arg)
			return service.ServiceFunc(func(ctx context.Context, ctl client.Controller) error {
				_, err := ctl.SendMessage(ctx, channel, reply)
				return err
			})
		}).
		MustBuild()

	return service.NewBuilder().
		Name("RoleService").
		Description("Creates a role and assigns it to the given user.").
		Timing(timing).
		MustBuild()
}

func describeRole(arg service.LaunchArg) string {
	name, _ := arg.Arg("name")
	target, _ := arg.Arg("target")

	reply := fmt.Sprintf("role %q for %s", name.Text, mention(target.User))
	if color, ok := arg.Arg("color"); ok && color.Present {
		reply += " with color " + color.Text
	}
	return reply
}

func mention(u client.User) string {
	switch {
	case u.Name != "" && u.ID != "":
		return fmt.Sprintf("%s (%s)", u.Name, u.ID)
	case u.Name != "":
		return "@" + u.Name
	default:
		return u.ID
	}
}
