// Package hooks invokes an external command after task mutations.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"time"
)

// Options configures a hook invocation.
type Options struct {
	Command  string
	DataFile string
	WorkDir  string
	Timeout  time.Duration
	Stdout   io.Writer
	Stderr   io.Writer
}

// Event describes the mutation the hook is reporting.
type Event struct {
	Op      string
	Index   int
	Outcome string
	Changed bool
}

// Result captures the outcome of a hook invocation.
type Result struct {
	Ran      bool
	Command  []string
	ExitCode int
}

// Invoke runs the hook command for ev. The command receives the operation,
// index, outcome kind and data file as arguments, and the same values in
// TASKTRACK_* environment variables. Nothing runs when no command is set or
// the mutation left the collection unchanged.
func Invoke(ctx context.Context, opts Options, ev Event) (Result, error) {
	if opts.Command == "" || !ev.Changed {
		return Result{}, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	index := strconv.Itoa(ev.Index)
	cmd := exec.CommandContext(ctx, opts.Command, ev.Op, index, ev.Outcome, opts.DataFile)
	if opts.WorkDir != "" {
		cmd.Dir = opts.WorkDir
	}
	cmd.Env = append(os.Environ(),
		"TASKTRACK_OP="+ev.Op,
		"TASKTRACK_INDEX="+index,
		"TASKTRACK_OUTCOME="+ev.Outcome,
		"TASKTRACK_DATA_FILE="+opts.DataFile,
	)
	cmd.Stdout = opts.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = opts.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	err := cmd.Run()
	result := Result{
		Ran:      true,
		Command:  cmd.Args,
		ExitCode: exitCodeFromError(err),
	}
	if err != nil {
		return result, fmt.Errorf("hook command failed: %w", err)
	}
	return result, nil
}

func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
