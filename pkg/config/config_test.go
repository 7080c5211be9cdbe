package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DISCORD_TOKEN", "TELEGRAM_BOT_TOKEN", "TELEGRAM_ALLOW_FROM", "HARACHO_PREFIX", "HARACHO_CLIENT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadConfigFromEnvPath(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "config.json", `{
	  "bot": {"prefix": "!", "client": "Telegram", "reply_on_arg_error": true},
	  "clients": {"telegram": {"token": "file-token", "allow_from": ["1", " ", "2"]}},
	  "gateway": {"enabled": false, "host": "127.0.0.1", "port": 9000},
	  "logging": {"format": "json", "level": "debug", "add_source": true}
	}`)
	t.Setenv(envConfigPath, path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if cfg.Bot.Prefix != "!" {
		t.Fatalf("bot.prefix = %q, want %q", cfg.Bot.Prefix, "!")
	}
	if cfg.Bot.Client != "telegram" {
		t.Fatalf("bot.client = %q, want %q", cfg.Bot.Client, "telegram")
	}
	if !cfg.Bot.ReplyOnArgError {
		t.Fatal("bot.reply_on_arg_error = false, want true")
	}
	if cfg.Bot.QueueSize != DefaultQueueSize {
		t.Fatalf("bot.queue_size = %d, want default %d", cfg.Bot.QueueSize, DefaultQueueSize)
	}
	if got := cfg.Clients.Telegram.AllowFrom; len(got) != 2 || got[0] != "1" || got[1] != "2" {
		t.Fatalf("allow_from = %#v", got)
	}
	if cfg.Gateway.IsEnabled() {
		t.Fatal("gateway enabled, want disabled")
	}
	if cfg.Gateway.Addr() != "127.0.0.1:9000" {
		t.Fatalf("gateway addr = %q", cfg.Gateway.Addr())
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" || !cfg.Logging.AddSource {
		t.Fatalf("logging = %#v", cfg.Logging)
	}
}

func TestLoadConfigYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "config.yaml", `
bot:
  prefix: "?"
  reject_duplicate_names: true
clients:
  discord:
    token: yaml-token
  console:
    username: alice
`)
	t.Setenv(envConfigPath, path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Bot.Prefix != "?" || !cfg.Bot.RejectDuplicateNames {
		t.Fatalf("bot = %#v", cfg.Bot)
	}
	if cfg.Clients.Discord.Token != "yaml-token" {
		t.Fatalf("discord token = %q", cfg.Clients.Discord.Token)
	}
	if cfg.Clients.Console.Username != "alice" {
		t.Fatalf("console username = %q", cfg.Clients.Console.Username)
	}
	if !cfg.Gateway.IsEnabled() {
		t.Fatal("gateway should default to enabled")
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "config.json", `{"bot": {"prefix": "!"}, "clients": {"discord": {"token": "file"}}}`)
	t.Setenv(envConfigPath, path)
	t.Setenv("DISCORD_TOKEN", "env-token")
	t.Setenv("HARACHO_PREFIX", "g!")
	t.Setenv("HARACHO_CLIENT", "console")
	t.Setenv("TELEGRAM_ALLOW_FROM", "10, 20")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Clients.Discord.Token != "env-token" {
		t.Fatalf("discord token = %q, want env-token", cfg.Clients.Discord.Token)
	}
	if cfg.Bot.Prefix != "g!" || cfg.Bot.Client != "console" {
		t.Fatalf("bot = %#v", cfg.Bot)
	}
	if got := cfg.Clients.Telegram.AllowFrom; len(got) != 2 || got[1] != "20" {
		t.Fatalf("allow_from = %#v", got)
	}
}

func TestLoadConfigWithoutFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv(envConfigPath, "")
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Bot.Prefix != DefaultPrefix || cfg.Bot.Client != DefaultClient {
		t.Fatalf("bot = %#v", cfg.Bot)
	}
	if cfg.Gateway.Addr() != "0.0.0.0:18790" {
		t.Fatalf("gateway addr = %q", cfg.Gateway.Addr())
	}
}

func TestLoadConfigFindsConfigDir(t *testing.T) {
	clearEnv(t)
	t.Setenv(envConfigPath, "")
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, filepath.Join(dir, "config"), "config.yml", "bot:\n  prefix: \"$\"\n")
	t.Chdir(dir)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Bot.Prefix != "$" {
		t.Fatalf("bot.prefix = %q, want $", cfg.Bot.Prefix)
	}
}

func TestLoadConfigInvalidEnvPath(t *testing.T) {
	t.Setenv(envConfigPath, filepath.Join(t.TempDir(), "missing.json"))

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing config path")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Bot.Prefix = "g !"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected whitespace prefix error")
	}

	cfg = Default()
	cfg.Gateway.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected port range error")
	}
}
