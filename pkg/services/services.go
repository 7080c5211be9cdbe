// Package services holds the services bundled with the bot.
package services

import "haracho/pkg/service"

// Builtin returns the bundled services in registration order. list feeds the
// help listing and is usually the bot's Services method.
func Builtin(prefix string, list Lister) []*service.Descriptor {
	return []*service.Descriptor{
		Ping(),
		Help(prefix, list),
		Role(),
	}
}
