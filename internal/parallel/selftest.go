package parallel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nibzard/tasktrack/internal/todo"
	"github.com/nibzard/tasktrack/internal/trackdir"
	"github.com/nibzard/tasktrack/internal/tracker"
)

// SelfTestOptions configures SelfTest.
type SelfTestOptions struct {
	// Dir holds the scratch task file. A temp dir is created when empty.
	Dir      string
	Workers  int
	Adds     int
	FileLock bool
}

// SelfTestReport summarizes a SelfTest run.
type SelfTestReport struct {
	Path      string
	Adds      int
	Completed int
	Stored    int
	Finished  int
	InMemory  int
	Errors    []error
	Elapsed   time.Duration
}

// OK reports whether every operation succeeded and nothing was lost.
func (r *SelfTestReport) OK() bool {
	return len(r.Errors) == 0 && r.Stored == r.Adds && r.Finished == r.Completed && r.InMemory == r.Stored
}

// SelfTest adds opts.Adds tasks concurrently through a Coordinator, then
// completes every even index concurrently, and verifies the file on disk
// holds exactly what was written and matches the coordinator's memory. The
// add phase stops at the first failure.
func SelfTest(ctx context.Context, opts SelfTestOptions) (*SelfTestReport, error) {
	if opts.Adds <= 0 {
		opts.Adds = 50
	}
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	dir := opts.Dir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "tasktrack-selftest-")
		if err != nil {
			return nil, fmt.Errorf("create scratch dir: %w", err)
		}
		defer os.RemoveAll(tmp)
		dir = tmp
	}

	path := filepath.Join(dir, trackdir.TasksFile)
	c, err := tracker.New(path, tracker.WithFileLock(opts.FileLock))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	report := &SelfTestReport{Path: path, Adds: opts.Adds}

	adds := NewPool(ctx, opts.Workers, true)
	for i := 0; i < opts.Adds; i++ {
		n := i
		adds.Go(fmt.Sprintf("add-%d", n), func(ctx context.Context) (todo.Outcome, error) {
			return c.AddTask(ctx, fmt.Sprintf("selftest %d", n), "concurrency check")
		})
	}
	report.Errors = append(report.Errors, Failed(adds.Wait())...)

	completes := NewPool(ctx, opts.Workers, false)
	for i := 0; i < opts.Adds; i += 2 {
		n := i
		report.Completed++
		completes.Go(fmt.Sprintf("complete-%d", n), func(ctx context.Context) (todo.Outcome, error) {
			return c.CompleteTask(ctx, n)
		})
	}
	results := completes.Wait()
	report.Errors = append(report.Errors, Failed(results)...)
	for _, r := range results {
		if !r.Skipped && r.Error == nil && r.Outcome.Kind != todo.OutcomeCompleted {
			report.Errors = append(report.Errors, fmt.Errorf("%s: unexpected outcome %s", r.ID, r.Outcome.Kind))
		}
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	store, err := todo.Load(path)
	if err != nil {
		return report, err
	}
	report.Stored = store.Len()
	report.Finished = len(store.Finished())
	report.InMemory = len(c.Snapshot())
	report.Elapsed = time.Since(start)
	return report, nil
}
