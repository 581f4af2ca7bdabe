package config

import (
	"time"

	"github.com/nibzard/tasktrack/internal/trackdir"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource

	// Files lists the config files that were read, in load order.
	Files []string
	// Warnings holds non-fatal problems such as unknown keys.
	Warnings []string
}

// Default values.
const (
	DefaultDataFile               = trackdir.Dir + "/" + trackdir.TasksFile
	DefaultLogDir                 = "~/.tasktrack/logs"
	DefaultListenAddr             = "127.0.0.1:8080"
	DefaultLogLevel               = "info"
	DefaultLogFormat              = "text"
	DefaultShutdownTimeoutSeconds = 10
	DefaultHookTimeoutSeconds     = 30
	DefaultTUIRefreshSeconds      = 2
)

// Config holds the full configuration for tasktrack.
type Config struct {
	// Paths
	DataFile   string `toml:"data_file"`
	SchemaFile string `toml:"schema_file"`
	LogDir     string `toml:"log_dir"`

	// Server
	ListenAddr             string `toml:"listen_addr"`
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout_seconds"`

	// Storage
	FileLock bool `toml:"file_lock"`

	// Journal and hooks
	Journal            bool   `toml:"journal"`
	HookCommand        string `toml:"hook_command"`
	HookTimeoutSeconds int    `toml:"hook_timeout_seconds"`

	// TUI
	TUIRefreshSeconds int `toml:"tui_refresh_seconds"`

	// Logging configuration
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Project root (computed)
	ProjectRoot string `toml:"-"`
}

// ShutdownTimeout returns the graceful shutdown budget for the server.
func (c *Config) ShutdownTimeout() time.Duration {
	if c.ShutdownTimeoutSeconds <= 0 {
		return DefaultShutdownTimeoutSeconds * time.Second
	}
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// HookTimeout returns the maximum run time of one hook invocation.
func (c *Config) HookTimeout() time.Duration {
	if c.HookTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.HookTimeoutSeconds) * time.Second
}

// TUIRefresh returns the TUI polling interval.
func (c *Config) TUIRefresh() time.Duration {
	if c.TUIRefreshSeconds <= 0 {
		return DefaultTUIRefreshSeconds * time.Second
	}
	return time.Duration(c.TUIRefreshSeconds) * time.Second
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	return []string{
		"data_file",
		"schema_file",
		"log_dir",
		"listen_addr",
		"shutdown_timeout_seconds",
		"file_lock",
		"journal",
		"hook_command",
		"hook_timeout_seconds",
		"tui_refresh_seconds",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
	}
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	cfg.DataFile = DefaultDataFile
	cfg.SchemaFile = ""
	cfg.LogDir = DefaultLogDir
	cfg.ListenAddr = DefaultListenAddr
	cfg.ShutdownTimeoutSeconds = DefaultShutdownTimeoutSeconds
	cfg.FileLock = true
	cfg.Journal = true
	cfg.HookTimeoutSeconds = DefaultHookTimeoutSeconds
	cfg.TUIRefreshSeconds = DefaultTUIRefreshSeconds
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
}
