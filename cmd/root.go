// Package cmd implements the CLI command structure for tasktrack.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasktrack/internal/config"
	"github.com/nibzard/tasktrack/internal/hooks"
	"github.com/nibzard/tasktrack/internal/logging"
	"github.com/nibzard/tasktrack/internal/tracker"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Output streams, replaced in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Run executes the tasktrack CLI.
func Run(ctx context.Context, args []string) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet("tasktrack", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		printUsage(fs, stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	// Global flags
	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := cws.Config
	if *help {
		printUsage(fs, stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}

	// With no subcommand, serve the HTTP API.
	subcommand := "serve"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 {
		if !strings.HasPrefix(remainingArgs[0], "-") {
			subcommand = remainingArgs[0]
			remainingArgs = remainingArgs[1:]
		}
	}

	switch subcommand {
	case "serve":
		return serveCommand(ctx, cfg, remainingArgs)
	case "ls", "list":
		return lsCommand(ctx, cfg, remainingArgs)
	case "add":
		return addCommand(ctx, cfg, remainingArgs)
	case "rm", "remove":
		return rmCommand(ctx, cfg, remainingArgs)
	case "done", "complete":
		return doneCommand(ctx, cfg, remainingArgs)
	case "finished":
		return finishedCommand(ctx, cfg, remainingArgs)
	case "tui":
		return tuiCommand(ctx, cfg, remainingArgs)
	case "init":
		return initCommand(cfg, remainingArgs)
	case "validate":
		return validateCommand(cfg, remainingArgs)
	case "schema":
		return schemaCommand(remainingArgs)
	case "doctor":
		return doctorCommand(ctx, cws, remainingArgs)
	case "tail":
		return tailCommand(ctx, cfg, remainingArgs)
	case "version", "--version", "-v":
		return versionCommand()
	case "help", "--help", "-h":
		printUsage(fs, stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// newLogger builds the console logger from config.
func newLogger(cfg *config.Config) *log.Logger {
	return logging.NewLoggerFromConfig(stderr, cfg.LogLevel, cfg.LogFormat, cfg.LogTimestamps, cfg.LogCaller)
}

// openTracker creates the coordinator for the configured data file with the
// journal and hook wired in. The returned close func releases the journal.
func openTracker(cfg *config.Config, logger *log.Logger) (*tracker.Coordinator, func() error, error) {
	opts := []tracker.Option{
		tracker.WithLogger(logger),
		tracker.WithFileLock(cfg.FileLock),
	}

	closeFn := func() error { return nil }
	if cfg.Journal {
		journal, err := logging.NewJournal(cfg.LogDir, cfg.DataFile)
		if err != nil {
			// A missing journal should not block task operations.
			logger.Warn("journal disabled", "err", err)
		} else {
			logger.Debug("journal open", "path", journal.LogPath)
			opts = append(opts, tracker.WithJournal(journal))
			closeFn = journal.Close
		}
	}
	if cfg.HookCommand != "" {
		opts = append(opts, tracker.WithHook(hooks.Options{
			Command:  cfg.HookCommand,
			DataFile: cfg.DataFile,
			WorkDir:  cfg.ProjectRoot,
			Timeout:  cfg.HookTimeout(),
			Stdout:   stderr,
			Stderr:   stderr,
		}))
	}

	c, err := tracker.New(cfg.DataFile, opts...)
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	return c, closeFn, nil
}

// versionCommand prints version information.
func versionCommand() error {
	fmt.Fprintf(stdout, "tasktrack version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "tasktrack - a single-user task tracker")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  tasktrack [options] [command] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve                Serve the HTTP API (default command)")
	fmt.Fprintln(w, "  ls [bound]           List tasks 0 through bound (all when omitted)")
	fmt.Fprintln(w, "  add <title> <body>   Add a task")
	fmt.Fprintln(w, "  rm <index>           Remove a task")
	fmt.Fprintln(w, "  done <index>         Mark a task finished")
	fmt.Fprintln(w, "  finished             List finished tasks")
	fmt.Fprintln(w, "  tui                  Launch terminal UI")
	fmt.Fprintln(w, "  init                 Create the task file, schema and config")
	fmt.Fprintln(w, "  validate [file]      Validate a task file against the schema")
	fmt.Fprintln(w, "  schema               Print the task file JSON schema")
	fmt.Fprintln(w, "  doctor               Check config, task file and locking")
	fmt.Fprintln(w, "  tail                 Tail the latest journal")
	fmt.Fprintln(w, "  version              Show version information")
	fmt.Fprintln(w, "  help                 Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Doctor Options (use with 'doctor' command):")
	fmt.Fprintln(w, "  -v        Show config sources and every task")
	fmt.Fprintln(w, "  -example  Print an example config file and exit")
	fmt.Fprintln(w, "  -selftest Run the concurrency self-test (default true)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tail Options (use with 'tail' command):")
	fmt.Fprintln(w, "  -f, -follow")
	fmt.Fprintln(w, "        Follow the journal (like tail -f)")
	fmt.Fprintln(w, "  -n int")
	fmt.Fprintln(w, "        Number of lines to show (0 = all)")
	fmt.Fprintln(w, "  -list")
	fmt.Fprintln(w, "        List journal files instead of tailing")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintf(w, "  %s\n", strings.Join(config.EnvVars(), ", "))
}
