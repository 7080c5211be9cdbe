package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"haracho/pkg/bus"
	"haracho/pkg/client"
	"haracho/pkg/metrics"
	"haracho/pkg/service"

	"github.com/google/uuid"
)

const messagePreviewLimit = 120

// ParseCommandName returns the command named by the first whitespace-delimited
// token of content when that token starts with prefix.
func ParseCommandName(prefix, content string) (string, bool) {
	fields := strings.Fields(content)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], prefix) {
		return "", false
	}
	return strings.TrimPrefix(fields[0], prefix), true
}

// dispatch launches every condition of every service that matches msg.
func (b *Bot) dispatch(ctx context.Context, services []*service.Descriptor, msg client.Message) {
	dispatchID := uuid.NewString()
	log := b.log.With("dispatch_id", dispatchID, "channel_id", msg.Channel.ID, "message_id", msg.ID)

	content := strings.TrimSpace(msg.Content)
	if content == "" {
		log.Debug("Blank message discarded")
		if m := b.opts.Metrics; m != nil {
			m.MessagesDiscarded.Inc()
		}
		b.publish(ctx, bus.Event{Type: bus.EventMessageDiscarded, DispatchID: dispatchID, ChannelID: msg.Channel.ID})
		return
	}

	log.Debug("Message received", "author_id", msg.Author.ID, "content", previewText(content))
	b.publish(ctx, bus.Event{Type: bus.EventMessageReceived, DispatchID: dispatchID, ChannelID: msg.Channel.ID})

	commandName, isCommand := ParseCommandName(b.opts.Prefix, content)
	var tokens []string
	if isCommand {
		tokens = strings.Fields(content)[1:]
	}

	matched := 0
	for _, desc := range services {
		for _, cond := range desc.Timings() {
			if !cond.Matches(commandName, isCommand, msg.Content) {
				continue
			}
			matched++
			if m := b.opts.Metrics; m != nil {
				m.Matches.WithLabelValues(desc.Name(), cond.Kind().String()).Inc()
			}
			b.launch(ctx, dispatchID, desc, cond, msg, tokens)
		}
	}

	if matched == 0 && isCommand {
		log.Debug("No service matched command", "command", commandName)
	}
}

// launch runs one matched condition. Failures stay local to this launch.
func (b *Bot) launch(ctx context.Context, dispatchID string, desc *service.Descriptor, cond *service.Condition, msg client.Message, tokens []string) {
	log := b.log.With("dispatch_id", dispatchID, "service", desc.Name(), "condition", cond.String())
	event := bus.Event{DispatchID: dispatchID, Service: desc.Name(), Condition: cond.String(), ChannelID: msg.Channel.ID}

	arg := service.LaunchArg{Kind: cond.Kind(), Message: msg}
	switch cond.Kind() {
	case service.KindCommandCall:
		arg.CommandName = cond.Trigger()
		args, err := service.ResolveArgs(ctx, cond.Args(), tokens, b.controller)
		if err != nil {
			log.Warn("Service arguments rejected", "error", err)
			b.opts.Metrics.ObserveLaunch(desc.Name(), metrics.StatusArgsFailed, 0)
			event.Type = bus.EventArgsRejected
			event.Error = err.Error()
			b.publish(ctx, event)
			b.replyUsage(ctx, log, cond, msg, err)
			return
		}
		arg.Args = args
	case service.KindMessageMatch:
		arg.MatchesTo = cond.Trigger()
	}

	start := time.Now()
	err := b.invoke(ctx, cond, arg)
	elapsed := time.Since(start)
	event.Duration = elapsed

	if err != nil {
		log.Error("Service failed", "error", err, "duration", elapsed)
		b.opts.Metrics.ObserveLaunch(desc.Name(), metrics.StatusFailed, elapsed)
		event.Type = bus.EventServiceFailed
		event.Error = err.Error()
		b.publish(ctx, event)
		return
	}

	log.Debug("Service launched", "duration", elapsed)
	b.opts.Metrics.ObserveLaunch(desc.Name(), metrics.StatusOK, elapsed)
	event.Type = bus.EventServiceLaunched
	b.publish(ctx, event)
}

// invoke builds the handler and launches it, turning panics into errors.
func (b *Bot) invoke(ctx context.Context, cond *service.Condition, arg service.LaunchArg) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("service panicked: %v", r)
		}
	}()

	svc := cond.NewService(arg)
	if svc == nil {
		return errors.New("callback returned no service")
	}
	return svc.Launch(ctx, b.controller)
}

func (b *Bot) replyUsage(ctx context.Context, log *slog.Logger, cond *service.Condition, msg client.Message, cause error) {
	if !b.opts.ReplyOnArgError {
		return
	}

	text := fmt.Sprintf("%v\nusage: %s", cause, cond.Usage(b.opts.Prefix))
	if _, err := b.controller.SendMessage(ctx, msg.Channel, text); err != nil {
		log.Warn("Failed to send usage hint", "error", err)
	}
}

// previewText returns a bounded log-safe preview of message text.
func previewText(text string) string {
	if len(text) <= messagePreviewLimit {
		return text
	}
	return text[:messagePreviewLimit] + "..."
}
