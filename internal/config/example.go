package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# tasktrack configuration file
# Place in ./tasktrack.toml (project) or ~/.tasktrack/tasktrack.toml (user).
# Values can be overridden by TASKTRACK_* environment variables or CLI flags.

# Task file (relative to the working directory)
data_file = ".tasktrack/tasks.json"

# Optional external JSON schema; the built-in schema is used when empty
# schema_file = ".tasktrack/tasks.schema.json"

# Journal directory (supports ~ expansion and %VAR% on Windows)
log_dir = "~/.tasktrack/logs"

# Record every mutation as a JSONL line in the journal
journal = true

# HTTP server
listen_addr = "127.0.0.1:8080"
shutdown_timeout_seconds = 10

# Guard the task file with an advisory lock so the server and CLI can share it
file_lock = true

# Command run after each change with: <op> <index> <outcome> <data_file>
# hook_command = "~/.tasktrack/hooks/notify.sh"
hook_timeout_seconds = 30

# TUI refresh interval when file notifications are unavailable
tui_refresh_seconds = 2

# Console logging
log_level = "info"        # debug, info, warn, error
log_format = "text"       # text, json, logfmt
log_timestamps = false
log_caller = false
`
}
