package client

import "context"

// Emit hands one event to the dispatch engine. It returns false once the
// engine stopped accepting events or ctx is done.
type Emit func(context.Context, Event) bool

// Client bridges one external chat platform (for example Discord) into the
// dispatch engine.
//
// Run blocks until ctx is cancelled or the platform connection ends. It must
// emit exactly one ReadyEvent before any MessageEvent meant for dispatch, and
// must not call emit after it returns.
type Client interface {
	Name() string
	Run(ctx context.Context, emit Emit) error
}

// Controller is the control surface handlers use to act on the platform.
type Controller interface {
	SendMessage(ctx context.Context, channel TextChannel, content string) (Message, error)
}

// UserResolver is implemented by controllers that can look up users by id.
type UserResolver interface {
	ResolveUser(ctx context.Context, id string) (User, error)
}

// ChannelResolver is implemented by controllers that can look up a channel
// and report its capability.
type ChannelResolver interface {
	ResolveChannel(ctx context.Context, id string) (Channel, error)
}

// EventKind discriminates the two events a client may emit.
type EventKind int

const (
	EventReady EventKind = iota + 1
	EventMessage
)

func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "ready"
	case EventMessage:
		return "message"
	default:
		return "unknown"
	}
}

// Event is one inbound client event. Controller is set for EventReady,
// Message for EventMessage.
type Event struct {
	Kind       EventKind
	Controller Controller
	Message    Message
}

// ReadyEvent announces that the platform connection is usable through ctl.
func ReadyEvent(ctl Controller) Event {
	return Event{Kind: EventReady, Controller: ctl}
}

// MessageEvent wraps one inbound text message.
func MessageEvent(msg Message) Event {
	return Event{Kind: EventMessage, Message: msg}
}
