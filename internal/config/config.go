// Package config handles nanobridge configuration using Viper.
//
// Configuration sources (in priority order):
//  1. Environment variables (NANOBRIDGE_*)
//  2. Config file (~/.config/nanobridge/config.yaml)
//  3. Built-in defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nanobot-dev/nanobridge/internal/paths"
)

const (
	// DefaultSessionName is the tmux session the agent is expected in.
	DefaultSessionName = "claude"
	// DefaultPromptGlyph is the idle-prompt character of the agent's TUI.
	DefaultPromptGlyph = "❯"
	// DefaultResponseMarker is the glyph the agent prefixes responses with.
	DefaultResponseMarker = "●"
	// DefaultPeerURL is where the monitoring peer listens.
	DefaultPeerURL = "http://127.0.0.1:3200"
	// DefaultAPIAddr is where the HTTP bridge listens.
	DefaultAPIAddr = "127.0.0.1:3100"
)

// Config holds the nanobridge configuration.
type Config struct {
	v *viper.Viper
}

// Load reads configuration from all sources.
func Load() *Config {
	v := viper.New()

	// Set defaults
	v.SetDefault("session.name", DefaultSessionName)
	v.SetDefault("session.prompt_glyph", DefaultPromptGlyph)
	v.SetDefault("session.response_marker", DefaultResponseMarker)
	v.SetDefault("session.send_delay", "300ms")
	v.SetDefault("poll.interval", "2s")
	v.SetDefault("poll.debounce", 2)
	v.SetDefault("ask.timeout", "60s")
	v.SetDefault("ask.capture_lines", 200)
	v.SetDefault("peer.url", DefaultPeerURL)
	v.SetDefault("peer.timeout", "30s")
	v.SetDefault("api.addr", DefaultAPIAddr)
	v.SetDefault("digest.repos_dir", "")
	v.SetDefault("digest.services", []string{})
	v.SetDefault("history.dir", "")
	v.SetDefault("history.retention", "720h")
	v.SetDefault("skills.dir", "")

	// Config file location
	home, err := os.UserHomeDir()
	if err == nil {
		configDir := filepath.Join(home, ".config", "nanobridge")
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Environment variables
	v.SetEnvPrefix("NANOBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found, but warn on other errors)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Warning: error reading config file: %v\n", err)
		}
	}

	return &Config{v: v}
}

// Get returns a configuration value.
func (c *Config) Get(key string) interface{} {
	return c.v.Get(key)
}

// GetString returns a configuration value as string.
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt returns a configuration value as int.
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetDuration returns a configuration value as a duration.
func (c *Config) GetDuration(key string) time.Duration {
	return c.v.GetDuration(key)
}

// Set sets a configuration value and persists it.
func (c *Config) Set(key string, value interface{}) error {
	c.v.Set(key, value)

	// Ensure config directory exists
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configDir := filepath.Join(home, ".config", "nanobridge")
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return err
	}

	configFile := filepath.Join(configDir, "config.yaml")
	return c.v.WriteConfigAs(configFile)
}

// All returns all configuration as a map.
func (c *Config) All() map[string]interface{} {
	return c.v.AllSettings()
}

// SessionName returns the tmux session the agent runs in.
func (c *Config) SessionName() string {
	return c.GetString("session.name")
}

// PromptGlyph returns the idle-prompt character used for readiness detection.
func (c *Config) PromptGlyph() string {
	return c.GetString("session.prompt_glyph")
}

// ResponseMarker returns the response-marker glyph.
func (c *Config) ResponseMarker() string {
	return c.GetString("session.response_marker")
}

// SendDelay returns the paste-to-Enter debounce.
func (c *Config) SendDelay() time.Duration {
	return c.GetDuration("session.send_delay")
}

// PollInterval returns the stability-poll interval.
func (c *Config) PollInterval() time.Duration {
	return c.GetDuration("poll.interval")
}

// PollDebounce returns the consecutive-ready debounce count.
func (c *Config) PollDebounce() int {
	return c.GetInt("poll.debounce")
}

// AskTimeout returns the default per-request timeout.
func (c *Config) AskTimeout() time.Duration {
	return c.GetDuration("ask.timeout")
}

// CaptureLines returns how many transcript lines to capture for extraction.
func (c *Config) CaptureLines() int {
	return c.GetInt("ask.capture_lines")
}

// PeerURL returns the monitoring peer's base URL.
func (c *Config) PeerURL() string {
	return c.GetString("peer.url")
}

// PeerTimeout returns the peer message timeout.
func (c *Config) PeerTimeout() time.Duration {
	return c.GetDuration("peer.timeout")
}

// APIAddr returns the HTTP bridge listen address.
func (c *Config) APIAddr() string {
	return c.GetString("api.addr")
}

// ReposDir returns the directory scanned for git activity in the digest.
// Defaults to ~/repos when unset.
func (c *Config) ReposDir() string {
	if dir := c.GetString("digest.repos_dir"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "repos")
}

// DigestServices returns the systemd user services reported in the digest.
func (c *Config) DigestServices() []string {
	return c.v.GetStringSlice("digest.services")
}

// HistoryDir returns where conversation logs are stored.
func (c *Config) HistoryDir() string {
	if dir := c.GetString("history.dir"); dir != "" {
		return dir
	}
	if dir, err := paths.HistoryDir(); err == nil {
		return dir
	}
	return ""
}

// SkillsDir returns the directory of reusable skill definitions exposed
// over the bridge. Defaults to ~/.nanobridge/skills when unset.
func (c *Config) SkillsDir() string {
	if dir := c.GetString("skills.dir"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".nanobridge", "skills")
}

// HistoryRetention returns the default prune window for conversation logs.
func (c *Config) HistoryRetention() time.Duration {
	if d := c.GetDuration("history.retention"); d > 0 {
		return d
	}
	return 720 * time.Hour
}
