package service

import (
	"context"
	"fmt"
	"strings"

	"haracho/pkg/client"
)

// Service is one handler instance produced for a single launch.
type Service interface {
	Launch(ctx context.Context, ctl client.Controller) error
}

// ServiceFunc adapts a plain function to Service.
type ServiceFunc func(ctx context.Context, ctl client.Controller) error

func (f ServiceFunc) Launch(ctx context.Context, ctl client.Controller) error {
	return f(ctx, ctl)
}

// Factory builds a handler instance from the launch argument of a match.
type Factory func(LaunchArg) Service

// ConditionKind discriminates launch conditions.
type ConditionKind int

const (
	KindCommandCall ConditionKind = iota + 1
	KindMessageMatch
)

func (k ConditionKind) String() string {
	switch k {
	case KindCommandCall:
		return "command"
	case KindMessageMatch:
		return "message_match"
	default:
		return "unknown"
	}
}

// LaunchArg is the payload handed to a Factory for one match.
type LaunchArg struct {
	Kind ConditionKind
	// CommandName is set for command calls.
	CommandName string
	// MatchesTo is set for message matches.
	MatchesTo string
	Message   client.Message
	// Args holds one result per declared descriptor, nil when none were declared.
	Args []ArgResult
}

// Arg looks up a resolved argument by descriptor name.
func (a LaunchArg) Arg(name string) (ArgResult, bool) {
	for _, arg := range a.Args {
		if arg.Name == name {
			return arg, true
		}
	}
	return ArgResult{}, false
}

// Condition is a built, immutable launch condition.
type Condition struct {
	kind    ConditionKind
	trigger string
	args    []ArgDescriptor
	factory Factory
}

func (c *Condition) Kind() ConditionKind {
	return c.kind
}

// Trigger returns the command name or the exact content the condition fires on.
func (c *Condition) Trigger() string {
	return c.trigger
}

// Args returns a copy of the declared argument descriptors.
func (c *Condition) Args() []ArgDescriptor {
	return append([]ArgDescriptor(nil), c.args...)
}

// Matches reports whether the condition fires for a message. commandName is
// the parsed command (ok false when the message carries no prefix) and
// content is the raw message content.
func (c *Condition) Matches(commandName string, ok bool, content string) bool {
	switch c.kind {
	case KindCommandCall:
		return ok && commandName == c.trigger
	case KindMessageMatch:
		return content == c.trigger
	default:
		return false
	}
}

// NewService runs the factory for one launch.
func (c *Condition) NewService(arg LaunchArg) Service {
	return c.factory(arg)
}

// Usage renders the condition as a user-facing hint, e.g. "g!role <name> [color]".
func (c *Condition) Usage(prefix string) string {
	if c.kind == KindMessageMatch {
		return c.trigger
	}

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(c.trigger)
	for _, arg := range c.args {
		if arg.Optional {
			fmt.Fprintf(&b, " [%s]", arg.Name)
			continue
		}
		fmt.Fprintf(&b, " <%s>", arg.Name)
	}
	return b.String()
}

func (c *Condition) String() string {
	return describeCondition(c.kind, c.trigger)
}

func describeCondition(kind ConditionKind, trigger string) string {
	if kind == KindMessageMatch {
		return fmt.Sprintf("message %q", trigger)
	}
	return fmt.Sprintf("command %q", trigger)
}

// ConditionBuilder accumulates descriptors and a callback for one condition.
type ConditionBuilder struct {
	kind    ConditionKind
	trigger string
	args    []ArgDescriptor
	factory Factory
}

// OnCommandCall starts a condition that fires when a message invokes name
// with the configured prefix.
func OnCommandCall(name string) *ConditionBuilder {
	return &ConditionBuilder{kind: KindCommandCall, trigger: name}
}

// OnMessageMatch starts a condition that fires when a message content equals
// content exactly.
func OnMessageMatch(content string) *ConditionBuilder {
	return &ConditionBuilder{kind: KindMessageMatch, trigger: content}
}

// Arg appends a required argument.
func (b *ConditionBuilder) Arg(name, description string, typ ArgType) *ConditionBuilder {
	b.args = append(b.args, ArgDescriptor{Name: name, Description: description, Type: typ})
	return b
}

// OptionalArg appends an optional argument. Only optional arguments may follow it.
func (b *ConditionBuilder) OptionalArg(name, description string, typ ArgType) *ConditionBuilder {
	b.args = append(b.args, ArgDescriptor{Name: name, Description: description, Type: typ, Optional: true})
	return b
}

// Callback sets the handler factory. A later call replaces an earlier one.
func (b *ConditionBuilder) Callback(factory Factory) *ConditionBuilder {
	b.factory = factory
	return b
}

// Build validates the declaration and freezes it into a Condition.
func (b *ConditionBuilder) Build() (*Condition, error) {
	subject := describeCondition(b.kind, b.trigger)

	if b.factory == nil {
		return nil, &BuildError{Condition: subject, Err: ErrMissingCallback}
	}

	optionalSeen := ""
	for _, arg := range b.args {
		if arg.Optional {
			if optionalSeen == "" {
				optionalSeen = arg.Name
			}
			continue
		}
		if optionalSeen != "" {
			return nil, &BuildError{
				Condition: subject,
				Detail:    fmt.Sprintf("%q declared after optional %q", arg.Name, optionalSeen),
				Err:       ErrInvalidArgOrder,
			}
		}
	}

	return &Condition{
		kind:    b.kind,
		trigger: b.trigger,
		args:    append([]ArgDescriptor(nil), b.args...),
		factory: b.factory,
	}, nil
}

// MustBuild is Build for package-level declarations; it panics on error.
func (b *ConditionBuilder) MustBuild() *Condition {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}
