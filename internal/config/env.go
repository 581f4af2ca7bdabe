package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// envBinding maps an environment variable onto a config field.
type envBinding struct {
	name  string
	field string
	apply func(cfg *Config, v string) error
}

func stringEnv(set func(*Config, string)) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		set(cfg, v)
		return nil
	}
}

func intEnv(set func(*Config, int)) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("not an integer: %q", v)
		}
		set(cfg, i)
		return nil
	}
}

func boolEnv(set func(*Config, bool)) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		set(cfg, boolFromString(v))
		return nil
	}
}

var envBindings = []envBinding{
	{"TASKTRACK_DATA_FILE", "data_file", stringEnv(func(c *Config, v string) { c.DataFile = v })},
	{"TASKTRACK_SCHEMA", "schema_file", stringEnv(func(c *Config, v string) { c.SchemaFile = v })},
	{"TASKTRACK_LOG_DIR", "log_dir", stringEnv(func(c *Config, v string) { c.LogDir = v })},
	{"TASKTRACK_LISTEN", "listen_addr", stringEnv(func(c *Config, v string) { c.ListenAddr = v })},
	{"TASKTRACK_SHUTDOWN_TIMEOUT", "shutdown_timeout_seconds", intEnv(func(c *Config, v int) { c.ShutdownTimeoutSeconds = v })},
	{"TASKTRACK_FILE_LOCK", "file_lock", boolEnv(func(c *Config, v bool) { c.FileLock = v })},
	{"TASKTRACK_JOURNAL", "journal", boolEnv(func(c *Config, v bool) { c.Journal = v })},
	{"TASKTRACK_HOOK", "hook_command", stringEnv(func(c *Config, v string) { c.HookCommand = v })},
	{"TASKTRACK_HOOK_TIMEOUT", "hook_timeout_seconds", intEnv(func(c *Config, v int) { c.HookTimeoutSeconds = v })},
	{"TASKTRACK_TUI_REFRESH", "tui_refresh_seconds", intEnv(func(c *Config, v int) { c.TUIRefreshSeconds = v })},
	{"TASKTRACK_LOG_LEVEL", "log_level", stringEnv(func(c *Config, v string) { c.LogLevel = v })},
	{"TASKTRACK_LOG_FORMAT", "log_format", stringEnv(func(c *Config, v string) { c.LogFormat = v })},
	{"TASKTRACK_LOG_TIMESTAMPS", "log_timestamps", boolEnv(func(c *Config, v bool) { c.LogTimestamps = v })},
	{"TASKTRACK_LOG_CALLER", "log_caller", boolEnv(func(c *Config, v bool) { c.LogCaller = v })},
}

// loadFromEnv overrides config from TASKTRACK_* environment variables and
// records their source. Malformed values are skipped and reported.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) []string {
	var warnings []string
	for _, b := range envBindings {
		v := os.Getenv(b.name)
		if v == "" {
			continue
		}
		if err := b.apply(cfg, v); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", b.name, err))
			continue
		}
		if sources != nil {
			sources[b.field] = SourceEnv
		}
	}
	return warnings
}

// EnvVars returns the supported environment variable names in binding order.
func EnvVars() []string {
	names := make([]string, len(envBindings))
	for i, b := range envBindings {
		names[i] = b.name
	}
	return names
}

func boolFromString(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}
