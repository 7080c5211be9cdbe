package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"haracho/pkg/client"
)

// ResolveArgs converts message tokens into one ArgResult per descriptor.
//
// Tokens are consumed one per descriptor in order; surplus tokens are
// ignored. ctl may be nil; when it implements client.UserResolver or
// client.ChannelResolver, references are looked up through it.
func ResolveArgs(ctx context.Context, descriptors []ArgDescriptor, tokens []string, ctl client.Controller) ([]ArgResult, error) {
	if len(descriptors) == 0 {
		return nil, nil
	}

	results := make([]ArgResult, 0, len(descriptors))
	for i, desc := range descriptors {
		if i >= len(tokens) {
			if !desc.Optional {
				return nil, &ArgError{Arg: desc.Name, Err: ErrMissingArg}
			}
			results = append(results, ArgResult{Name: desc.Name, Kind: desc.Type.Kind()})
			continue
		}

		result, err := resolveArg(ctx, desc, tokens[i], ctl)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, nil
}

func resolveArg(ctx context.Context, desc ArgDescriptor, token string, ctl client.Controller) (ArgResult, error) {
	result := ArgResult{Name: desc.Name, Kind: desc.Type.Kind(), Present: true, Raw: token}
	invalid := func(cause error) (ArgResult, error) {
		err := error(ErrInvalidArg)
		if cause != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidArg, cause)
		}
		return ArgResult{}, &ArgError{Arg: desc.Name, Value: token, Err: err}
	}

	switch desc.Type.Kind() {
	case ArgString:
		result.Text = token
	case ArgInt:
		value, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			return invalid(errors.New("not an integer"))
		}
		result.Int = value
	case ArgDouble:
		value, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return invalid(errors.New("not a number"))
		}
		result.Double = value
	case ArgUser:
		user, err := resolveUser(ctx, token, ctl)
		if err != nil {
			return invalid(err)
		}
		result.User = user
	case ArgTextChannel:
		ch, err := resolveChannel(ctx, token, client.KindText, ctl)
		if err != nil {
			return invalid(err)
		}
		result.TextChannel = client.TextChannel{ID: ch.ID}
	case ArgVoiceChannel:
		ch, err := resolveChannel(ctx, token, client.KindVoice, ctl)
		if err != nil {
			return invalid(err)
		}
		result.VoiceChannel = client.VoiceChannel{ID: ch.ID}
	case ArgRegex:
		pattern := desc.Type.Pattern()
		if pattern == nil {
			return invalid(errors.New("no pattern declared"))
		}
		match := pattern.FindStringSubmatch(token)
		if match == nil {
			return invalid(fmt.Errorf("does not match %s", pattern))
		}
		result.Match = match
		result.Text = token
	case ArgCustom:
		if desc.Type.predicate == nil || !desc.Type.predicate(token) {
			return invalid(nil)
		}
		result.Text = token
	default:
		return invalid(fmt.Errorf("unknown argument type %v", desc.Type.Kind()))
	}

	return result, nil
}

// resolveUser accepts <@id>, <@!id>, a bare numeric id or @name.
func resolveUser(ctx context.Context, token string, ctl client.Controller) (client.User, error) {
	var user client.User
	switch {
	case strings.HasPrefix(token, "<@") && strings.HasSuffix(token, ">"):
		user.ID = strings.TrimPrefix(strings.TrimSuffix(strings.TrimPrefix(token, "<@"), ">"), "!")
	case strings.HasPrefix(token, "@"):
		user.Name = strings.TrimPrefix(token, "@")
		if user.Name == "" {
			return client.User{}, errors.New("empty user name")
		}
		return user, nil
	default:
		user.ID = token
	}

	if !isSnowflake(user.ID) {
		return client.User{}, errors.New("not a user reference")
	}

	if resolver, ok := ctl.(client.UserResolver); ok {
		resolved, err := resolver.ResolveUser(ctx, user.ID)
		if err != nil {
			return client.User{}, fmt.Errorf("lookup user: %w", err)
		}
		return resolved, nil
	}

	return user, nil
}

// resolveChannel accepts <#id> or a bare numeric id.
func resolveChannel(ctx context.Context, token string, want client.ChannelKind, ctl client.Controller) (client.Channel, error) {
	id := token
	if strings.HasPrefix(token, "<#") && strings.HasSuffix(token, ">") {
		id = strings.TrimSuffix(strings.TrimPrefix(token, "<#"), ">")
	}
	if !isSnowflake(id) {
		return client.Channel{}, errors.New("not a channel reference")
	}

	resolver, ok := ctl.(client.ChannelResolver)
	if !ok {
		return client.Channel{ID: id, Kind: want}, nil
	}

	ch, err := resolver.ResolveChannel(ctx, id)
	if err != nil {
		return client.Channel{}, fmt.Errorf("lookup channel: %w", err)
	}
	if ch.Kind != want {
		return client.Channel{}, fmt.Errorf("channel is %s, want %s", ch.Kind, want)
	}
	return ch, nil
}

func isSnowflake(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
