// Package tracker serializes access to the task store.
//
// A Coordinator is the single owner of a task file within a process. Every
// mutation runs as one critical section: acquire the in-process mutex and the
// advisory file lock, reload the file, mutate, persist with an atomic
// replace, release. Reads go straight to the file, which is only ever
// replaced whole, so they never observe a partial write.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasktrack/internal/todo"
	"github.com/nibzard/tasktrack/internal/trackdir"
)

// ErrInvalidTask is returned when a task is added without a title or body.
var ErrInvalidTask = errors.New("task title and body are required")

// ErrConflict is returned when changes held only in memory after a failed
// write meet a task file that another writer has since replaced. The
// unwritten changes are dropped and the coordinator resumes from the file.
var ErrConflict = errors.New("task file changed by another writer")

// PersistError reports a mutation that was applied in memory but could not
// be written to disk. The in-memory collection keeps the change and the next
// mutation retries the write.
type PersistError struct {
	Outcome todo.Outcome
	Err     error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%s applied in memory but not persisted: %v", e.Outcome.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *PersistError) Unwrap() error {
	return e.Err
}

// Event describes a finished mutating operation.
type Event struct {
	Op       string
	Index    int
	Outcome  todo.Outcome
	Err      error
	Duration time.Duration
}

// Listener is notified after every mutating operation, outside the critical
// section.
type Listener func(ctx context.Context, ev Event)

// Coordinator guarantees at most one in-flight mutation of a task file.
type Coordinator struct {
	mu        sync.Mutex
	path      string
	store     *todo.Store
	lock      *fileLock
	dirty     bool // last persist failed; memory is ahead of disk
	persist   func(*todo.Store) error
	logger    *log.Logger
	listeners []Listener
	now       func() time.Time
	useLock   bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger used for mutation diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithListener registers a listener for mutation events.
func WithListener(l Listener) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.listeners = append(c.listeners, l)
		}
	}
}

// WithClock sets the clock used for task timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithFileLock enables or disables the cross-process lock file.
func WithFileLock(enabled bool) Option {
	return func(c *Coordinator) {
		c.useLock = enabled
	}
}

// New creates a Coordinator for the task file at path and loads it. A missing
// file is an empty collection; an undecodable one fails construction.
func New(path string, opts ...Option) (*Coordinator, error) {
	c := &Coordinator{
		path:    path,
		logger:  log.New(io.Discard),
		now:     time.Now,
		useLock: true,
		persist: (*todo.Store).Save,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.useLock {
		c.lock = newFileLock(trackdir.LockPath(path))
	}

	store, err := todo.Load(path, todo.WithClock(c.now))
	if err != nil {
		return nil, fmt.Errorf("load task store: %w", err)
	}
	c.store = store
	return c, nil
}

// Path returns the task file path.
func (c *Coordinator) Path() string {
	return c.path
}

// WithExclusiveAccess runs fn with sole access to the store. The store is
// reloaded from disk first. After a failed write memory stays authoritative
// only while the file still holds what this coordinator last saw; if another
// writer replaced it, the unwritten changes are dropped, the store is
// reloaded and ErrConflict is returned without running fn. If fn changes the
// collection it is persisted before access is released. Access is released
// on every exit path.
func (c *Coordinator) WithExclusiveAccess(fn func(*todo.Store) (todo.Outcome, error)) (todo.Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lock != nil {
		if err := c.lock.Lock(); err != nil {
			return todo.Outcome{}, fmt.Errorf("acquire task file lock: %w", err)
		}
		defer func() {
			if err := c.lock.Unlock(); err != nil {
				c.logger.Warn("release task file lock", "path", c.path, "err", err)
			}
		}()
	}

	if c.dirty {
		if err := c.checkUnchanged(); err != nil {
			return todo.Outcome{}, err
		}
	} else if err := c.store.Reload(); err != nil {
		return todo.Outcome{}, err
	}

	out, err := fn(c.store)
	if err != nil {
		return out, err
	}
	if !out.Changed() && !c.dirty {
		return out, nil
	}

	if err := c.persist(c.store); err != nil {
		c.dirty = true
		return out, &PersistError{Outcome: out, Err: err}
	}
	c.dirty = false
	return out, nil
}

// checkUnchanged verifies that unwritten changes can still be written over
// the file. On conflict it resyncs the store with the file.
func (c *Coordinator) checkUnchanged() error {
	same, err := c.store.Unchanged()
	if err != nil {
		return err
	}
	if same {
		return nil
	}
	if err := c.store.Reload(); err != nil {
		return err
	}
	c.dirty = false
	c.logger.Warn("dropped unpersisted changes", "path", c.path, "reason", "file replaced by another writer")
	return fmt.Errorf("%w: unpersisted changes dropped", ErrConflict)
}

// AddTask appends a new pending task and persists it.
func (c *Coordinator) AddTask(ctx context.Context, title, body string) (todo.Outcome, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(body) == "" {
		return todo.Outcome{}, ErrInvalidTask
	}
	return c.mutate(ctx, "add", -1, func(s *todo.Store) todo.Outcome {
		return s.AddTask(title, body)
	})
}

// RemoveTask deletes the task at index. An out-of-range index is a benign
// no-op reported through the outcome.
func (c *Coordinator) RemoveTask(ctx context.Context, index int) (todo.Outcome, error) {
	return c.mutate(ctx, "remove", index, func(s *todo.Store) todo.Outcome {
		return s.RemoveAt(index)
	})
}

// CompleteTask marks the task at index as finished.
func (c *Coordinator) CompleteTask(ctx context.Context, index int) (todo.Outcome, error) {
	return c.mutate(ctx, "complete", index, func(s *todo.Store) todo.Outcome {
		return s.ToggleCompletion(index)
	})
}

func (c *Coordinator) mutate(ctx context.Context, op string, index int, fn func(*todo.Store) todo.Outcome) (todo.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return todo.Outcome{}, err
	}

	start := time.Now()
	out, err := c.WithExclusiveAccess(func(s *todo.Store) (todo.Outcome, error) {
		return fn(s), nil
	})
	if op == "add" {
		index = out.Index
	}
	ev := Event{Op: op, Index: index, Outcome: out, Err: err, Duration: time.Since(start)}

	if err != nil {
		c.logger.Error("task mutation failed", "op", op, "index", index, "err", err)
	} else {
		c.logger.Info(out.Message(), "op", op, "index", index, "outcome", out.Kind, "tasks", out.Len)
	}

	for _, l := range c.listeners {
		l(ctx, ev)
	}
	return out, err
}

// ListTasks returns the tasks at indices 0 through bound from the file.
func (c *Coordinator) ListTasks(ctx context.Context, bound int) ([]todo.Entry, error) {
	s, err := c.read(ctx)
	if err != nil {
		return nil, err
	}
	return s.ListThrough(bound), nil
}

// ListFinished returns the finished tasks from the file.
func (c *Coordinator) ListFinished(ctx context.Context) ([]todo.FinishedEntry, error) {
	s, err := c.read(ctx)
	if err != nil {
		return nil, err
	}
	return s.Finished(), nil
}

// Snapshot returns a copy of the coordinator's in-memory collection.
func (c *Coordinator) Snapshot() []todo.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Tasks()
}

func (c *Coordinator) read(ctx context.Context) (*todo.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return todo.Load(c.path, todo.WithClock(c.now))
}
