package config

import (
	"flag"
)

// parseFlags defines the global flags on fs, parses args and applies the
// flags that were explicitly set.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("tasktrack", flag.ContinueOnError)
	}

	// Bind to copies so only explicitly set flags override earlier layers.
	v := *cfg
	fs.StringVar(&v.DataFile, "data", cfg.DataFile, "Path to task file")
	fs.StringVar(&v.SchemaFile, "schema", cfg.SchemaFile, "Path to an external schema file")
	fs.StringVar(&v.LogDir, "log-dir", cfg.LogDir, "Journal directory")
	fs.StringVar(&v.ListenAddr, "listen", cfg.ListenAddr, "HTTP listen address for serve")
	fs.IntVar(&v.ShutdownTimeoutSeconds, "shutdown-timeout", cfg.ShutdownTimeoutSeconds, "Graceful shutdown timeout (seconds)")
	fs.BoolVar(&v.FileLock, "file-lock", cfg.FileLock, "Guard the task file with an advisory lock")
	fs.BoolVar(&v.Journal, "journal", cfg.Journal, "Record mutations in the JSONL journal")
	fs.StringVar(&v.HookCommand, "hook", cfg.HookCommand, "Command to run after each change")
	fs.IntVar(&v.HookTimeoutSeconds, "hook-timeout", cfg.HookTimeoutSeconds, "Hook timeout (seconds, 0 for none)")
	fs.IntVar(&v.TUIRefreshSeconds, "tui-refresh", cfg.TUIRefreshSeconds, "TUI refresh interval (seconds)")
	fs.StringVar(&v.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&v.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json, logfmt)")
	fs.BoolVar(&v.LogTimestamps, "log-timestamps", cfg.LogTimestamps, "Show timestamps in logs")
	fs.BoolVar(&v.LogCaller, "log-caller", cfg.LogCaller, "Show caller location in logs")

	if err := fs.Parse(args); err != nil {
		return err
	}

	flagToField := map[string]string{
		"data":             "data_file",
		"schema":           "schema_file",
		"log-dir":          "log_dir",
		"listen":           "listen_addr",
		"shutdown-timeout": "shutdown_timeout_seconds",
		"file-lock":        "file_lock",
		"journal":          "journal",
		"hook":             "hook_command",
		"hook-timeout":     "hook_timeout_seconds",
		"tui-refresh":      "tui_refresh_seconds",
		"log-level":        "log_level",
		"log-format":       "log_format",
		"log-timestamps":   "log_timestamps",
		"log-caller":       "log_caller",
	}

	fs.Visit(func(f *flag.Flag) {
		field, ok := flagToField[f.Name]
		if !ok {
			return
		}
		applyField(cfg, &v, field)
		if sources != nil {
			sources[field] = SourceFlag
		}
	})
	return nil
}

// applyField copies one field from src to dst.
func applyField(dst, src *Config, field string) {
	switch field {
	case "data_file":
		dst.DataFile = src.DataFile
	case "schema_file":
		dst.SchemaFile = src.SchemaFile
	case "log_dir":
		dst.LogDir = src.LogDir
	case "listen_addr":
		dst.ListenAddr = src.ListenAddr
	case "shutdown_timeout_seconds":
		dst.ShutdownTimeoutSeconds = src.ShutdownTimeoutSeconds
	case "file_lock":
		dst.FileLock = src.FileLock
	case "journal":
		dst.Journal = src.Journal
	case "hook_command":
		dst.HookCommand = src.HookCommand
	case "hook_timeout_seconds":
		dst.HookTimeoutSeconds = src.HookTimeoutSeconds
	case "tui_refresh_seconds":
		dst.TUIRefreshSeconds = src.TUIRefreshSeconds
	case "log_level":
		dst.LogLevel = src.LogLevel
	case "log_format":
		dst.LogFormat = src.LogFormat
	case "log_timestamps":
		dst.LogTimestamps = src.LogTimestamps
	case "log_caller":
		dst.LogCaller = src.LogCaller
	}
}
