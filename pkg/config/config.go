package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	envConfigPath = "HARACHO_CONFIG"

	DefaultPrefix      = "g!"
	DefaultClient      = "discord"
	DefaultGatewayHost = "0.0.0.0"
	DefaultGatewayPort = 18790
	DefaultQueueSize   = 100
)

var configNames = []string{"config.json", "config.yaml", "config.yml"}

// ErrNotFound is returned when no config file exists at any search location.
var ErrNotFound = errors.New("config file not found")

// Config is the root runtime configuration.
type Config struct {
	Bot     BotConfig     `json:"bot" yaml:"bot"`
	Clients ClientsConfig `json:"clients" yaml:"clients"`
	Gateway GatewayConfig `json:"gateway" yaml:"gateway"`
	Logging LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// BotConfig holds dispatch engine settings.
type BotConfig struct {
	Prefix               string `json:"prefix" yaml:"prefix" env:"HARACHO_PREFIX"`
	Client               string `json:"client" yaml:"client" env:"HARACHO_CLIENT"`
	RejectDuplicateNames bool   `json:"reject_duplicate_names" yaml:"reject_duplicate_names"`
	ReplyOnArgError      bool   `json:"reply_on_arg_error" yaml:"reply_on_arg_error"`
	QueueSize            int    `json:"queue_size" yaml:"queue_size"`
}

// ClientsConfig stores per-platform connector settings.
type ClientsConfig struct {
	Discord  DiscordConfig  `json:"discord" yaml:"discord"`
	Telegram TelegramConfig `json:"telegram" yaml:"telegram"`
	Console  ConsoleConfig  `json:"console" yaml:"console"`
}

// DiscordConfig configures the Discord connector.
type DiscordConfig struct {
	Token string `json:"token" yaml:"token" env:"DISCORD_TOKEN"`
}

// TelegramConfig configures the Telegram connector.
type TelegramConfig struct {
	Token     string   `json:"token" yaml:"token" env:"TELEGRAM_BOT_TOKEN"`
	AllowFrom []string `json:"allow_from" yaml:"allow_from" env:"TELEGRAM_ALLOW_FROM" envSeparator:","`
}

// ConsoleConfig configures the local terminal connector.
type ConsoleConfig struct {
	Username string `json:"username" yaml:"username"`
	BotName  string `json:"bot_name" yaml:"bot_name"`
}

// GatewayConfig configures the HTTP status server.
type GatewayConfig struct {
	Enabled *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Host    string `json:"host" yaml:"host"`
	Port    int    `json:"port" yaml:"port"`
}

// IsEnabled reports whether the status server should run. It defaults to on.
func (g GatewayConfig) IsEnabled() bool {
	return g.Enabled == nil || *g.Enabled
}

// Addr returns the host:port bind address.
func (g GatewayConfig) Addr() string {
	return fmt.Sprintf("%s:%d", g.Host, g.Port)
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string `json:"format,omitempty" yaml:"format,omitempty"`
	Level     string `json:"level,omitempty" yaml:"level,omitempty"`
	AddSource bool   `json:"add_source,omitempty" yaml:"add_source,omitempty"`
	File      string `json:"file,omitempty" yaml:"file,omitempty"`
}

// Default returns a config with every default applied and no file loaded.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig resolves the config file, decodes it, applies environment
// overrides and fills in defaults. A missing file is not an error when
// HARACHO_CONFIG is unset; env and defaults still apply.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	configPath, err := findConfigPath()
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return nil, err
	default:
		if err := decodeFile(configPath, cfg); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment overrides: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late at startup.
func (c *Config) Validate() error {
	if strings.ContainsAny(c.Bot.Prefix, " \t\r\n") {
		return fmt.Errorf("bot.prefix %q must not contain whitespace", c.Bot.Prefix)
	}
	if c.Bot.QueueSize < 0 {
		return fmt.Errorf("bot.queue_size must not be negative, got %d", c.Bot.QueueSize)
	}
	if c.Gateway.Port < 0 || c.Gateway.Port > 65535 {
		return fmt.Errorf("gateway.port %d out of range", c.Gateway.Port)
	}
	return nil
}

func (c *Config) applyDefaults() {
	c.Bot.Prefix = strings.TrimSpace(c.Bot.Prefix)
	if c.Bot.Prefix == "" {
		c.Bot.Prefix = DefaultPrefix
	}
	c.Bot.Client = strings.ToLower(strings.TrimSpace(c.Bot.Client))
	if c.Bot.Client == "" {
		c.Bot.Client = DefaultClient
	}
	if c.Bot.QueueSize == 0 {
		c.Bot.QueueSize = DefaultQueueSize
	}
	if strings.TrimSpace(c.Gateway.Host) == "" {
		c.Gateway.Host = DefaultGatewayHost
	}
	if c.Gateway.Port == 0 {
		c.Gateway.Port = DefaultGatewayPort
	}
	c.Clients.Telegram.AllowFrom = compact(c.Clients.Telegram.AllowFrom)
}

func decodeFile(path string, cfg *Config) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, cfg); err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(content, cfg); err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	return nil
}

// compact trims values and drops empty ones.
func compact(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	clean := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		clean = append(clean, trimmed)
	}
	return slices.Clip(clean)
}

// findConfigPath resolves the active config file location.
//
// Precedence is HARACHO_CONFIG first, then cwd-local fallback paths.
func findConfigPath() (string, error) {
	if value := strings.TrimSpace(os.Getenv(envConfigPath)); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("%s does not point to a file: %s", envConfigPath, value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	var candidates []string
	for _, dir := range []string{cwd, filepath.Join(cwd, "config")} {
		for _, name := range configNames {
			candidates = append(candidates, filepath.Join(dir, name))
		}
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w (checked %s)", ErrNotFound, strings.Join(candidates, ", "))
}
