package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"haracho/pkg/bus"
	"haracho/pkg/client"
	"haracho/pkg/metrics"
	"haracho/pkg/service"
)

var (
	ErrNotReady         = errors.New("message event delivered before the client was ready")
	ErrAlreadyRunning   = errors.New("bot is already running")
	ErrDuplicateService = errors.New("duplicate service name")
)

// Options configures a Bot. Prefix is required.
type Options struct {
	// Prefix marks command calls, for example "g!".
	Prefix string
	// RejectDuplicateNames makes Register fail for a name already registered.
	RejectDuplicateNames bool
	// ReplyOnArgError sends the condition usage back when arguments do not resolve.
	ReplyOnArgError bool
	QueueSize       int
	Metrics         *metrics.Dispatch
	Events          *bus.EventBus
}

// Bot is the dispatch engine. It owns the client lifecycle, the service
// registry and the single event consumption loop.
type Bot struct {
	client client.Client
	opts   Options
	log    *slog.Logger
	queue  *bus.Queue[client.Event]

	mu       sync.RWMutex
	services []*service.Descriptor

	running atomic.Bool
	ready   atomic.Bool

	// controller is only touched by the consumption loop.
	controller client.Controller
}

func New(c client.Client, opts Options, log *slog.Logger) (*Bot, error) {
	if c == nil {
		return nil, errors.New("client is required")
	}
	if strings.TrimSpace(opts.Prefix) == "" {
		return nil, errors.New("command prefix is required")
	}
	if strings.ContainsAny(opts.Prefix, " \t\r\n") {
		return nil, fmt.Errorf("command prefix %q must not contain whitespace", opts.Prefix)
	}
	if log == nil {
		log = slog.Default()
	}

	return &Bot{
		client: c,
		opts:   opts,
		log:    log.With("component", "bot.engine", "client", c.Name()),
		queue:  bus.NewQueue[client.Event](opts.QueueSize),
	}, nil
}

// Register adds a built service to the registry. It must be called before Run.
func (b *Bot) Register(desc *service.Descriptor) error {
	if desc == nil {
		return errors.New("service descriptor is required")
	}
	if b.running.Load() {
		return fmt.Errorf("register %q: %w", desc.Name(), ErrAlreadyRunning)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.opts.RejectDuplicateNames {
		for _, existing := range b.services {
			if existing.Name() == desc.Name() {
				return fmt.Errorf("register %q: %w", desc.Name(), ErrDuplicateService)
			}
		}
	}

	b.services = append(b.services, desc)
	b.log.Debug("Service registered", "service", desc.Name(), "timings", len(desc.Timings()))
	return nil
}

// Services returns the registered services in registration order.
func (b *Bot) Services() []*service.Descriptor {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]*service.Descriptor(nil), b.services...)
}

// Prefix returns the configured command prefix.
func (b *Bot) Prefix() string {
	return b.opts.Prefix
}

// ClientName returns the name of the connected client.
func (b *Bot) ClientName() string {
	return b.client.Name()
}

// Ready reports whether the client has announced readiness.
func (b *Bot) Ready() bool {
	return b.ready.Load()
}

// Running reports whether Run is consuming events.
func (b *Bot) Running() bool {
	return b.running.Load()
}

// Run starts the client and consumes its events until the client returns or
// ctx is cancelled. Handlers run one at a time on the calling goroutine.
func (b *Bot) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !b.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer func() {
		b.ready.Store(false)
		if b.opts.Metrics != nil {
			b.opts.Metrics.Ready.Set(0)
		}
	}()

	b.mu.RLock()
	services := append([]*service.Descriptor(nil), b.services...)
	b.mu.RUnlock()

	clientDone := make(chan error, 1)
	go func() {
		err := b.client.Run(ctx, b.queue.Publish)
		b.queue.Close()
		clientDone <- err
	}()

	b.log.Info("Bot started", "prefix", b.opts.Prefix, "services", len(services))

	for {
		event, ok := b.queue.Consume(ctx)
		if !ok {
			break
		}
		b.handleEvent(ctx, services, event)
	}

	err := <-clientDone
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run %s client: %w", b.client.Name(), err)
	}

	b.log.Info("Bot stopped")
	return nil
}

func (b *Bot) handleEvent(ctx context.Context, services []*service.Descriptor, event client.Event) {
	if m := b.opts.Metrics; m != nil {
		m.EventsReceived.WithLabelValues(b.client.Name(), event.Kind.String()).Inc()
	}

	switch event.Kind {
	case client.EventReady:
		if event.Controller == nil {
			b.log.Error("Ready event without controller ignored")
			return
		}
		if b.controller != nil {
			b.log.Info("Client reconnected, controller replaced")
		} else {
			b.log.Info("Bot is ready")
		}
		b.controller = event.Controller
		b.ready.Store(true)
		if m := b.opts.Metrics; m != nil {
			m.Ready.Set(1)
		}
		b.publish(ctx, bus.Event{Type: bus.EventClientReady})

	case client.EventMessage:
		if b.controller == nil {
			err := fmt.Errorf("message %s in channel %s: %w", event.Message.ID, event.Message.Channel.ID, ErrNotReady)
			b.log.Error("Client broke the event contract", "error", err)
			if m := b.opts.Metrics; m != nil {
				m.ContractViolations.Inc()
			}
			b.publish(ctx, bus.Event{Type: bus.EventContractViolation, ChannelID: event.Message.Channel.ID, Error: err.Error()})
			return
		}
		b.dispatch(ctx, services, event.Message)

	default:
		b.log.Warn("Unknown client event ignored", "kind", int(event.Kind))
	}
}

func (b *Bot) publish(ctx context.Context, event bus.Event) {
	if b.opts.Events == nil {
		return
	}
	event.Client = b.client.Name()
	b.opts.Events.PublishEvent(ctx, event)
}
