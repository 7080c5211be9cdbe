package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"haracho/pkg/bot"
	"haracho/pkg/bus"
	"haracho/pkg/client"
	"haracho/pkg/client/console"
	"haracho/pkg/client/discord"
	"haracho/pkg/client/telegram"
	"haracho/pkg/config"
	"haracho/pkg/gateway"
	"haracho/pkg/logger"
	"haracho/pkg/metrics"
	"haracho/pkg/services"

	"github.com/spf13/cobra"
)

const (
	clientDiscord  = "discord"
	clientTelegram = "telegram"
	clientConsole  = "console"
)

var (
	runClient string
	runPrefix string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to a chat platform and dispatch messages to services",
	Long:  "Runs the bot against the configured client with health, readiness, metrics and service status endpoints.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		applyRunFlags(cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		// The console client owns the terminal, so logs go to a file.
		if cfg.Bot.Client == clientConsole && strings.TrimSpace(cfg.Logging.File) == "" {
			cfg.Logging.File = filepath.Join(os.TempDir(), "haracho.log")
			fmt.Fprintf(cmd.ErrOrStderr(), "logging to %s\n", cfg.Logging.File)
		}

		appLogger, err := logger.New(cfg.Logging)
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		slog.SetDefault(appLogger)
		log := slog.Default().With("component", "cmd.run")

		c, err := newClient(cfg, log)
		if err != nil {
			return err
		}

		registry := metrics.NewRegistry()
		events := bus.NewEventBus()
		defer events.Close()

		b, err := bot.New(c, bot.Options{
			Prefix:               cfg.Bot.Prefix,
			RejectDuplicateNames: cfg.Bot.RejectDuplicateNames,
			ReplyOnArgError:      cfg.Bot.ReplyOnArgError,
			QueueSize:            cfg.Bot.QueueSize,
			Metrics:              registry.Dispatch,
			Events:               events,
		}, log)
		if err != nil {
			return fmt.Errorf("initialize bot: %w", err)
		}
		if err := registerBuiltins(b); err != nil {
			return err
		}

		svc, err := gateway.NewService(cfg.Gateway, b, registry, events, log)
		if err != nil {
			return fmt.Errorf("initialize gateway service: %w", err)
		}

		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info("Bot starting", "client", c.Name(), "prefix", cfg.Bot.Prefix, "services", len(b.Services()))
		if err := svc.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Bot runtime failed", "error", err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runClient, "client", "", "client to connect with: discord, telegram or console")
	runCmd.Flags().StringVar(&runPrefix, "prefix", "", "command prefix, e.g. g!")
}

func applyRunFlags(cfg *config.Config) {
	if value := strings.ToLower(strings.TrimSpace(runClient)); value != "" {
		cfg.Bot.Client = value
	}
	if value := strings.TrimSpace(runPrefix); value != "" {
		cfg.Bot.Prefix = value
	}
}

func newClient(cfg *config.Config, log *slog.Logger) (client.Client, error) {
	switch cfg.Bot.Client {
	case clientDiscord:
		c, err := discord.NewClient(cfg.Clients.Discord, log)
		if err != nil {
			return nil, fmt.Errorf("configure %s client: %w", clientDiscord, err)
		}
		return c, nil
	case clientTelegram:
		c, err := telegram.NewClient(cfg.Clients.Telegram, log)
		if err != nil {
			return nil, fmt.Errorf("configure %s client: %w", clientTelegram, err)
		}
		return c, nil
	case clientConsole:
		return console.NewClient(cfg.Clients.Console, log), nil
	default:
		return nil, fmt.Errorf("unknown client %q (want %s, %s or %s)", cfg.Bot.Client, clientDiscord, clientTelegram, clientConsole)
	}
}

func registerBuiltins(b *bot.Bot) error {
	for _, desc := range services.Builtin(b.Prefix(), b.Services) {
		if err := b.Register(desc); err != nil {
			return fmt.Errorf("register built-in services: %w", err)
		}
	}
	return nil
}
