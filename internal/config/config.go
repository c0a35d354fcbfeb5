// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config provides configuration loading, merging, and persistence
// helpers for econbot. It uses Viper for file/env/flag parsing, loads an
// optional .env file first, and writes config files with go-yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/econbot/econbot/internal/security"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RuntimeOS is exposed for tests that need to select OS specific paths.
var RuntimeOS = runtime.GOOS

// Config is the full runtime configuration.
type Config struct {
	Discord   DiscordConfig   `mapstructure:"discord" yaml:"discord"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Transfer  TransferConfig  `mapstructure:"transfer" yaml:"transfer"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Language  string          `mapstructure:"language" yaml:"language"`
}

// DiscordConfig holds bot credentials and guild restrictions.
type DiscordConfig struct {
	// Token is read from the environment or flags only and never persisted.
	Token             string   `mapstructure:"token" yaml:"-"`
	GuildAllowlist    []string `mapstructure:"guild_allowlist" yaml:"guild_allowlist"`
	AnnounceChannelID string   `mapstructure:"announce_channel_id" yaml:"announce_channel_id"`
}

// DatabaseConfig selects the backend and pool sizing.
type DatabaseConfig struct {
	Type            string        `mapstructure:"type" yaml:"type"`
	URL             string        `mapstructure:"url" yaml:"url"`
	PoolMinSize     int           `mapstructure:"pool_min_size" yaml:"pool_min_size"`
	PoolMaxSize     int           `mapstructure:"pool_max_size" yaml:"pool_max_size"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`
}

// TransferConfig tunes transfer throttling and the event pool.
type TransferConfig struct {
	EventPoolEnabled bool          `mapstructure:"event_pool_enabled" yaml:"event_pool_enabled"`
	DailyLimit       int64         `mapstructure:"daily_limit" yaml:"daily_limit"`
	Cooldown         time.Duration `mapstructure:"cooldown" yaml:"cooldown"`
	PendingTTL       time.Duration `mapstructure:"pending_ttl" yaml:"pending_ttl"`
	RetryInterval    time.Duration `mapstructure:"retry_interval" yaml:"retry_interval"`
}

// TelemetryConfig configures the NOTIFY/LISTEN listener.
type TelemetryConfig struct {
	Channel       string  `mapstructure:"channel" yaml:"channel"`
	DedupSize     int     `mapstructure:"dedup_size" yaml:"dedup_size"`
	NotifyPerSec  float64 `mapstructure:"notify_per_sec" yaml:"notify_per_sec"`
	NotifyBurst   int     `mapstructure:"notify_burst" yaml:"notify_burst"`
	ListenEnabled bool    `mapstructure:"listen_enabled" yaml:"listen_enabled"`
}

// LogConfig selects log level and output format.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig enables the ops HTTP server when Addr is set.
type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// envBindings maps config keys to the environment variable names the bot
// has always used. Any key is additionally reachable as ECONBOT_<KEY>.
var envBindings = map[string][]string{
	"discord.token":               {"DISCORD_BOT_TOKEN"},
	"discord.guild_allowlist":     {"DISCORD_GUILD_ALLOWLIST"},
	"discord.announce_channel_id": {"DISCORD_ANNOUNCE_CHANNEL_ID"},
	"database.type":               {"DATABASE_TYPE"},
	"database.url":                {"DATABASE_URL"},
	"database.pool_min_size":      {"DB_POOL_MIN_SIZE"},
	"database.pool_max_size":      {"DB_POOL_MAX_SIZE"},
	"transfer.event_pool_enabled": {"TRANSFER_EVENT_POOL_ENABLED"},
	"transfer.daily_limit":        {"TRANSFER_DAILY_LIMIT"},
	"transfer.cooldown":           {"TRANSFER_COOLDOWN"},
	"telemetry.channel":           {"TELEMETRY_CHANNEL"},
	"log.level":                   {"LOG_LEVEL"},
	"log.format":                  {"LOG_FORMAT"},
	"metrics.addr":                {"METRICS_ADDR"},
	"language":                    {"LANGUAGE"},
}

// Defaults returns the built-in default values keyed by config key.
func Defaults() map[string]any {
	return map[string]any{
		"discord.guild_allowlist":     []string{},
		"database.type":               "postgres",
		"database.url":                "postgres://localhost:5432/econbot?sslmode=disable",
		"database.pool_min_size":      1,
		"database.pool_max_size":      10,
		"database.conn_max_lifetime":  5 * time.Minute,
		"transfer.event_pool_enabled": false,
		"transfer.daily_limit":        int64(0),
		"transfer.cooldown":           time.Duration(0),
		"transfer.pending_ttl":        10 * time.Minute,
		"transfer.retry_interval":     5 * time.Second,
		"telemetry.channel":           "economy_events",
		"telemetry.dedup_size":        4096,
		"telemetry.notify_per_sec":    5.0,
		"telemetry.notify_burst":      5,
		"telemetry.listen_enabled":    true,
		"log.level":                   "info",
		"log.format":                  "json",
		"language":                    "en",
	}
}

// GetConfigPath returns the full path for the configuration file.
func GetConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		switch RuntimeOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Econbot")
		default:
			configDir = "/etc/econbot"
		}
	} else {
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "econbot")
	}

	return filepath.Join(configDir, "econbot.yaml"), nil
}

// LoadDotEnv loads variables from .env files into the process environment.
// Variables that are already set win. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadConfig merges defaults, config files, environment and cobra flags into
// a value of type T. Precedence from low to high: defaults, user/system/cwd
// econbot.yaml, the explicit --config file, environment, flags.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, additionalConfigFilePath *string) (T, error) {
	var c T
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("econbot")
	v.SetConfigType("yaml")

	// An explicit --config file has the highest precedence among files.
	if additionalConfigFilePath != nil {
		v.SetConfigFile(*additionalConfigFilePath)
	}

	if userConfigPath, err := GetConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := GetConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine, the bot runs on env and defaults.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return c, err
		}
	}

	v.SetEnvPrefix("econbot")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envBindings {
		args := append([]string{key}, names...)
		args = append(args, "ECONBOT_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
		if err := v.BindEnv(args...); err != nil {
			return c, err
		}
	}

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	return c, nil
}

// Load is the typed convenience wrapper used by the CLI.
func Load(cmd *cobra.Command, configFile *string) (Config, error) {
	c, err := LoadConfig[Config](cmd, Defaults(), configFile)
	if err != nil {
		return c, err
	}
	c.Normalize()
	return c, nil
}

// Normalize trims list entries and lower-cases enum-like fields.
func (c *Config) Normalize() {
	var guilds []string
	for _, entry := range c.Discord.GuildAllowlist {
		for _, id := range strings.Split(entry, ",") {
			if id = strings.TrimSpace(id); id != "" {
				guilds = append(guilds, id)
			}
		}
	}
	c.Discord.GuildAllowlist = guilds
	c.Database.Type = strings.ToLower(strings.TrimSpace(c.Database.Type))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
}

// Validate checks cross-field constraints. The token is only required when
// the bot itself is started.
func (c Config) Validate(requireToken bool) error {
	var errs []error
	if requireToken && strings.TrimSpace(c.Discord.Token) == "" {
		errs = append(errs, errors.New("DISCORD_BOT_TOKEN is required"))
	}
	switch c.Database.Type {
	case "postgres", "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Errorf("unsupported database type %q", c.Database.Type))
	}
	if strings.TrimSpace(c.Database.URL) == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.Database.PoolMinSize < 0 || c.Database.PoolMaxSize < 0 {
		errs = append(errs, errors.New("pool sizes must not be negative"))
	}
	if c.Database.PoolMaxSize > 0 && c.Database.PoolMinSize > c.Database.PoolMaxSize {
		errs = append(errs, fmt.Errorf("DB_POOL_MIN_SIZE (%d) exceeds DB_POOL_MAX_SIZE (%d)", c.Database.PoolMinSize, c.Database.PoolMaxSize))
	}
	if c.Transfer.DailyLimit < 0 {
		errs = append(errs, errors.New("TRANSFER_DAILY_LIMIT must not be negative"))
	}
	if c.Transfer.Cooldown < 0 {
		errs = append(errs, errors.New("TRANSFER_COOLDOWN must not be negative"))
	}
	return errors.Join(errs...)
}

// BotToken returns the Discord token wrapped for safe logging.
func (c Config) BotToken() security.Secret {
	return security.FromString(strings.TrimSpace(c.Discord.Token))
}

// GuildAllowed reports whether guildID may use the bot. An empty allowlist
// allows every guild.
func (c Config) GuildAllowed(guildID string) bool {
	if len(c.Discord.GuildAllowlist) == 0 {
		return true
	}
	for _, id := range c.Discord.GuildAllowlist {
		if id == guildID {
			return true
		}
	}
	return false
}

// WriteConfigFile persists c to the user or system config path.
func WriteConfigFile[T any](c *T, system bool) error {
	path, err := GetConfigPath(system)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	// 0600: the database URL may carry a password.
	return os.WriteFile(path, data, 0o600)
}
