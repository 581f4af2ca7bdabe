package cmd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/nibzard/tasktrack/internal/config"
	"github.com/nibzard/tasktrack/internal/todo"
	"github.com/nibzard/tasktrack/internal/tracker"
)

// withTracker opens the coordinator for one CLI operation.
func withTracker(cfg *config.Config, fn func(*tracker.Coordinator) error) (err error) {
	c, closeFn, err := openTracker(cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(c)
}

// lsCommand lists tasks 0 through bound, or every task without a bound.
func lsCommand(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("unexpected arguments: %v", args[1:])
	}
	bound := math.MaxInt
	if len(args) == 1 {
		n, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		bound = n
	}

	c, err := readTracker(cfg)
	if err != nil {
		return err
	}
	entries, err := c.ListTasks(ctx, bound)
	if err != nil {
		return fmt.Errorf("listing tasks: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(stdout, "No tasks found.")
		return nil
	}
	fmt.Fprint(stdout, tracker.FormatList(entries))
	return nil
}

// addCommand appends a task.
func addCommand(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: tasktrack add <title> <body>")
	}
	return withTracker(cfg, func(c *tracker.Coordinator) error {
		out, err := c.AddTask(ctx, args[0], args[1])
		return report(out, err)
	})
}

// rmCommand removes the task at index.
func rmCommand(ctx context.Context, cfg *config.Config, args []string) error {
	index, err := singleIndex("rm", args)
	if err != nil {
		return err
	}
	return withTracker(cfg, func(c *tracker.Coordinator) error {
		out, err := c.RemoveTask(ctx, index)
		return report(out, err)
	})
}

// doneCommand marks the task at index finished.
func doneCommand(ctx context.Context, cfg *config.Config, args []string) error {
	index, err := singleIndex("done", args)
	if err != nil {
		return err
	}
	return withTracker(cfg, func(c *tracker.Coordinator) error {
		out, err := c.CompleteTask(ctx, index)
		return report(out, err)
	})
}

// finishedCommand lists finished tasks with their completion dates.
func finishedCommand(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	c, err := readTracker(cfg)
	if err != nil {
		return err
	}
	entries, err := c.ListFinished(ctx)
	if err != nil {
		return fmt.Errorf("listing finished tasks: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(stdout, "No finished tasks.")
		return nil
	}
	fmt.Fprint(stdout, tracker.FormatFinished(entries))
	return nil
}

// readTracker returns a coordinator for a read-only command. Reads never
// mutate, so no journal or hook is attached.
func readTracker(cfg *config.Config) (*tracker.Coordinator, error) {
	return tracker.New(cfg.DataFile, tracker.WithFileLock(cfg.FileLock))
}

// report prints the outcome message. On a PersistError the change was
// applied in memory, so the message is printed and the error returned.
func report(out todo.Outcome, err error) error {
	var pe *tracker.PersistError
	if errors.As(err, &pe) {
		fmt.Fprintln(stdout, out.Message())
		return err
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, out.Message())
	return nil
}

func singleIndex(name string, args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: tasktrack %s <index>", name)
	}
	return parseIndex(args[0])
}

// parseIndex parses a non-negative task index.
func parseIndex(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid index %q: must be a non-negative integer", raw)
	}
	return n, nil
}
