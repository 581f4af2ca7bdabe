package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/nibzard/tasktrack/internal/config"
	"github.com/nibzard/tasktrack/internal/logging"
	"github.com/nibzard/tasktrack/internal/parallel"
	"github.com/nibzard/tasktrack/internal/todo"
)

// doctorCommand checks config, the task file, the schema, the journal
// directory and the hook, then runs a concurrency self-test.
func doctorCommand(ctx context.Context, cws *config.ConfigWithSources, args []string) error {
	fs := flag.NewFlagSet("tasktrack doctor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "Verbose output")
	example := fs.Bool("example", false, "Print an example config file and exit")
	selfTest := fs.Bool("selftest", true, "Run the concurrency self-test")
	workers := fs.Int("workers", 8, "Self-test worker count")
	adds := fs.Int("adds", 50, "Self-test task count")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if *example {
		fmt.Fprint(stdout, config.ExampleConfig())
		return nil
	}

	cfg := cws.Config
	w := stdout
	fmt.Fprintln(w, "tasktrack doctor")
	fmt.Fprintln(w, "================")
	fmt.Fprintln(w)

	allOK := true

	// Project root
	fmt.Fprintf(w, "Project root: %s\n", cfg.ProjectRoot)
	if _, err := os.Stat(cfg.ProjectRoot); err != nil {
		fmt.Fprintf(w, "  ❌ Error: %v\n", err)
		allOK = false
	} else {
		fmt.Fprintln(w, "  ✅ OK")
	}
	fmt.Fprintln(w)

	// Config
	fmt.Fprintln(w, "Config:")
	if len(cws.Files) == 0 {
		fmt.Fprintln(w, "  Files: (none, using defaults)")
	}
	for _, f := range cws.Files {
		fmt.Fprintf(w, "  File: %s\n", f)
	}
	for _, warning := range cws.Warnings {
		fmt.Fprintf(w, "  ⚠️  %s\n", warning)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(w, "  ❌ %v\n", err)
		}
		allOK = false
	} else {
		fmt.Fprintln(w, "  ✅ Valid")
	}
	if *verbose {
		printSources(cws)
	}
	fmt.Fprintln(w)

	// Task file
	fmt.Fprintf(w, "Task file: %s\n", cfg.DataFile)
	if !checkTaskFile(cfg, *verbose) {
		allOK = false
	}
	fmt.Fprintln(w)

	// Schema file
	if cfg.SchemaFile != "" {
		fmt.Fprintf(w, "Schema file: %s\n", cfg.SchemaFile)
		if info, err := os.Stat(cfg.SchemaFile); err != nil {
			fmt.Fprintf(w, "  ❌ Error: %v\n", err)
			allOK = false
		} else if info.IsDir() {
			fmt.Fprintln(w, "  ❌ Error: path is a directory")
			allOK = false
		} else {
			fmt.Fprintln(w, "  ✅ OK")
		}
		fmt.Fprintln(w)
	}

	// Journal
	if cfg.Journal {
		logDir, err := logging.FindLogDir(cfg.LogDir, cfg.DataFile)
		if err != nil {
			fmt.Fprintf(w, "Journal directory: %s\n  ❌ Error: %v\n", cfg.LogDir, err)
			allOK = false
		} else {
			fmt.Fprintf(w, "Journal directory: %s\n", logDir)
			journals, err := logging.FindJournals(logDir)
			switch {
			case err != nil:
				fmt.Fprintf(w, "  ❌ Error: %v\n", err)
				allOK = false
			case len(journals) == 0:
				fmt.Fprintln(w, "  ⚠️  No journals yet (created on first change)")
			default:
				fmt.Fprintf(w, "  ✅ %d journal(s), latest %s\n", len(journals), journals[0].RunID)
			}
		}
	} else {
		fmt.Fprintln(w, "Journal: disabled")
	}
	fmt.Fprintln(w)

	// Hook
	if cfg.HookCommand != "" {
		fmt.Fprintln(w, "Hook:")
		if !checkBinary("command", cfg.HookCommand, true) {
			allOK = false
		}
		fmt.Fprintln(w)
	}

	// Concurrency
	if *selfTest {
		fmt.Fprintf(w, "Concurrency self-test (file lock: %t):\n", cfg.FileLock)
		report, err := parallel.SelfTest(ctx, parallel.SelfTestOptions{
			Workers:  *workers,
			Adds:     *adds,
			FileLock: cfg.FileLock,
		})
		switch {
		case err != nil:
			fmt.Fprintf(w, "  ❌ Error: %v\n", err)
			allOK = false
		case !report.OK():
			fmt.Fprintf(w, "  ❌ stored %d/%d tasks, finished %d/%d\n", report.Stored, report.Adds, report.Finished, report.Completed)
			for _, e := range report.Errors {
				fmt.Fprintf(w, "     - %v\n", e)
			}
			allOK = false
		default:
			fmt.Fprintf(w, "  ✅ %d concurrent adds and %d completions in %s\n", report.Adds, report.Completed, report.Elapsed.Round(time.Millisecond))
		}
		fmt.Fprintln(w)
	}

	if allOK {
		fmt.Fprintln(w, "✅ All checks passed!")
		return nil
	}
	fmt.Fprintln(w, "⚠️  Some checks failed.")
	return fmt.Errorf("doctor checks failed")
}

// checkTaskFile reports whether the task file is absent or valid.
func checkTaskFile(cfg *config.Config, verbose bool) bool {
	w := stdout
	info, err := os.Stat(cfg.DataFile)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(w, "  ⚠️  Not found (created on first add)")
			return true
		}
		fmt.Fprintf(w, "  ❌ Error: %v\n", err)
		return false
	}
	if info.IsDir() {
		fmt.Fprintln(w, "  ❌ Error: path is a directory")
		return false
	}

	result, err := todo.ValidateFile(cfg.DataFile, cfg.SchemaFile)
	if err != nil {
		fmt.Fprintf(w, "  ❌ Error: %v\n", err)
		return false
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "  ⚠️  %s\n", warning)
	}
	if !result.Valid {
		fmt.Fprintln(w, "  ❌ Validation failed:")
		for _, e := range result.Errors {
			fmt.Fprintf(w, "     - %v\n", e)
		}
		return false
	}
	fmt.Fprintf(w, "  ✅ Valid (%d tasks)\n", result.Tasks)

	if verbose {
		store, err := todo.Load(cfg.DataFile)
		if err != nil {
			fmt.Fprintf(w, "  ❌ Load error: %v\n", err)
			return false
		}
		for i, t := range store.Tasks() {
			mark := " "
			if t.IsFinished() {
				mark = "x"
			}
			fmt.Fprintf(w, "    - [%s] %d: %s\n", mark, i, t.Title)
		}
	}
	return true
}

func printSources(cws *config.ConfigWithSources) {
	fields := make([]string, 0, len(cws.Sources))
	for field := range cws.Sources {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	fmt.Fprintln(stdout, "  Sources:")
	for _, field := range fields {
		fmt.Fprintf(stdout, "    %-26s %s\n", field, cws.Sources[field])
	}
}

func checkBinary(label, binary string, required bool) bool {
	w := stdout
	fmt.Fprintf(w, "  %s: %s\n", label, binary)
	if strings.TrimSpace(binary) == "" {
		if required {
			fmt.Fprintln(w, "  ❌ Not configured")
			return false
		}
		fmt.Fprintln(w, "  ⚠️  Not configured")
		return true
	}
	if info, err := os.Stat(binary); err == nil {
		if info.IsDir() {
			fmt.Fprintln(w, "  ❌ Path is a directory")
			return !required
		}
		if !isExecutablePath(binary, info) {
			fmt.Fprintln(w, "  ❌ Not executable")
			return !required
		}
		fmt.Fprintln(w, "  ✅ OK")
		return true
	}

	resolved, err := exec.LookPath(binary)
	if err == nil {
		fmt.Fprintf(w, "  ✅ OK (found in PATH: %s)\n", resolved)
		return true
	}
	if required {
		fmt.Fprintf(w, "  ❌ Not found: %v\n", err)
		return false
	}
	fmt.Fprintf(w, "  ⚠️  Not found: %v\n", err)
	return true
}

func isExecutablePath(path string, info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if runtime.GOOS == "windows" {
		return isWindowsExecutable(path)
	}
	return info.Mode().Perm()&0111 != 0
}

func isWindowsExecutable(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	return windowsExecutableExts()[ext]
}

func windowsExecutableExts() map[string]bool {
	exts := map[string]bool{}
	pathext := os.Getenv("PATHEXT")
	if pathext == "" {
		pathext = ".COM;.EXE;.BAT;.CMD"
	}
	for _, ext := range strings.Split(pathext, ";") {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[strings.ToLower(ext)] = true
	}
	return exts
}
