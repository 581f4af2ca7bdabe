package config

import (
	"fmt"
	"net"

	"github.com/nibzard/tasktrack/internal/logging"
)

// Validate reports every invalid value in cfg. A nil result means the
// configuration is usable.
func (c *Config) Validate() []error {
	var errs []error
	if c.DataFile == "" {
		errs = append(errs, fmt.Errorf("data_file is empty"))
	}
	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		errs = append(errs, fmt.Errorf("listen_addr %q: %w", c.ListenAddr, err))
	}
	if c.ShutdownTimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("shutdown_timeout_seconds must not be negative"))
	}
	if c.HookTimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("hook_timeout_seconds must not be negative"))
	}
	if c.TUIRefreshSeconds < 0 {
		errs = append(errs, fmt.Errorf("tui_refresh_seconds must not be negative"))
	}
	if !logging.ValidLevel(c.LogLevel) {
		errs = append(errs, fmt.Errorf("log_level %q (expected debug|info|warn|error)", c.LogLevel))
	}
	if !logging.ValidFormat(c.LogFormat) {
		errs = append(errs, fmt.Errorf("log_format %q (expected text|json|logfmt)", c.LogFormat))
	}
	if c.Journal && c.LogDir == "" {
		errs = append(errs, fmt.Errorf("log_dir is empty but journal is enabled"))
	}
	return errs
}
