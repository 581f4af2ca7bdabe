package tracker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/nibzard/tasktrack/internal/todo"
)

func newTestCoordinator(t *testing.T, opts ...Option) *Coordinator {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.json")
	c, err := New(path, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func loadTasks(t *testing.T, path string) []todo.Task {
	t.Helper()
	s, err := todo.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return s.Tasks()
}

func TestAddThenList(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator(t)

	out, err := c.AddTask(ctx, "Buy milk", "2%")
	if err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}
	if out.Kind != todo.OutcomeAdded || out.Index != 0 {
		t.Errorf("outcome: got %+v", out)
	}

	entries, err := c.ListTasks(ctx, 0)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries: got %d, want 1", len(entries))
	}
	task := entries[0].Task
	if task.Title != "Buy milk" {
		t.Errorf("Title: got %q", task.Title)
	}
	if !task.Pending {
		t.Error("new task should be pending")
	}
	if task.CompletedAt != nil {
		t.Error("new task should have no completion date")
	}
}

func TestCompleteThenFinished(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator(t)

	if _, err := c.AddTask(ctx, "Write report", "Q3"); err != nil {
		t.Fatal(err)
	}
	out, err := c.CompleteTask(ctx, 0)
	if err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}
	if out.Kind != todo.OutcomeCompleted {
		t.Errorf("Kind: got %q", out.Kind)
	}

	finished, err := c.ListFinished(ctx)
	if err != nil {
		t.Fatalf("ListFinished failed: %v", err)
	}
	if len(finished) != 1 {
		t.Fatalf("finished: got %d, want 1", len(finished))
	}
	if finished[0].Title != "Write report" || finished[0].CompletedAt == "" {
		t.Errorf("finished entry: got %+v", finished[0])
	}

	again, err := c.CompleteTask(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if again.Kind != todo.OutcomeAlreadyCompleted {
		t.Errorf("second completion: got %q", again.Kind)
	}
	finishedAgain, _ := c.ListFinished(ctx)
	if finishedAgain[0].CompletedAt != finished[0].CompletedAt {
		t.Error("completion date changed on second completion")
	}
}

func TestRemoveFromEmptyStore(t *testing.T) {
	c := newTestCoordinator(t)

	out, err := c.RemoveTask(context.Background(), 0)
	if err != nil {
		t.Fatalf("RemoveTask on empty store should not fail: %v", err)
	}
	if out.Kind != todo.OutcomeNothingToRemove {
		t.Errorf("Kind: got %q, want %q", out.Kind, todo.OutcomeNothingToRemove)
	}
	if out.Changed() {
		t.Error("removing from an empty store should not report a change")
	}
	if _, err := os.Stat(c.Path()); !os.IsNotExist(err) {
		t.Error("a no-op should not create the task file")
	}
}

func TestRemoveShiftsIndices(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator(t)
	for _, title := range []string{"a", "b", "c"} {
		if _, err := c.AddTask(ctx, title, "x"); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := c.RemoveTask(ctx, 0); err != nil {
		t.Fatal(err)
	}
	entries, err := c.ListTasks(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Task.Title != "b" || entries[1].Task.Title != "c" {
		t.Errorf("unexpected entries after removal: %+v", entries)
	}
}

func TestDurabilityAcrossLoad(t *testing.T) {
	c := newTestCoordinator(t)
	if _, err := c.AddTask(context.Background(), "A", "B"); err != nil {
		t.Fatal(err)
	}

	tasks := loadTasks(t, c.Path())
	if len(tasks) != 1 || tasks[0].Title != "A" || tasks[0].Body != "B" {
		t.Errorf("reloaded tasks: %+v", tasks)
	}

	reopened, err := New(c.Path())
	if err != nil {
		t.Fatal(err)
	}
	if got := reopened.Snapshot(); len(got) != 1 || got[0].Title != "A" {
		t.Errorf("reopened snapshot: %+v", got)
	}
}

func TestConcurrentAddsLoseNothing(t *testing.T) {
	const n = 50
	ctx := context.Background()
	c := newTestCoordinator(t)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := c.AddTask(ctx, fmt.Sprintf("task-%d", i), "body"); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("AddTask failed: %v", err)
	}

	tasks := loadTasks(t, c.Path())
	if len(tasks) != n {
		t.Fatalf("tasks on disk: got %d, want %d", len(tasks), n)
	}
	seen := make(map[string]bool)
	for _, task := range tasks {
		seen[task.Title] = true
	}
	if len(seen) != n {
		t.Errorf("distinct titles: got %d, want %d", len(seen), n)
	}
}

func TestConcurrentCoordinatorsShareFile(t *testing.T) {
	const perCoordinator = 20
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tasks.json")

	first, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	second, err := New(path)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for _, c := range []*Coordinator{first, second} {
		for i := 0; i < perCoordinator; i++ {
			wg.Add(1)
			go func(c *Coordinator, i int) {
				defer wg.Done()
				if _, err := c.AddTask(ctx, fmt.Sprintf("t%d", i), "b"); err != nil {
					t.Errorf("AddTask failed: %v", err)
				}
			}(c, i)
		}
	}
	wg.Wait()

	if got := len(loadTasks(t, path)); got != 2*perCoordinator {
		t.Errorf("tasks on disk: got %d, want %d", got, 2*perCoordinator)
	}
}

func TestAddTaskValidation(t *testing.T) {
	c := newTestCoordinator(t)
	tests := []struct {
		title, body string
	}{
		{"", "body"},
		{"   ", "body"},
		{"title", ""},
		{"title", " \t\n"},
	}
	for _, tt := range tests {
		_, err := c.AddTask(context.Background(), tt.title, tt.body)
		if !errors.Is(err, ErrInvalidTask) {
			t.Errorf("AddTask(%q, %q): got %v, want ErrInvalidTask", tt.title, tt.body, err)
		}
	}
}

func TestCancelledContext(t *testing.T) {
	c := newTestCoordinator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.AddTask(ctx, "a", "b"); !errors.Is(err, context.Canceled) {
		t.Errorf("AddTask: got %v, want context.Canceled", err)
	}
	if _, err := c.ListTasks(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("ListTasks: got %v, want context.Canceled", err)
	}
}

func TestNewRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := New(path)
	var fe *todo.FormatError
	if !errors.As(err, &fe) {
		t.Errorf("expected *todo.FormatError, got %T: %v", err, err)
	}
}

func TestMutationOnCorruptedFileFails(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator(t)
	if _, err := c.AddTask(ctx, "a", "b"); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.Path(), []byte(`{"tasks": [{"title": "x"}]}`), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := c.CompleteTask(ctx, 0)
	var fe *todo.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *todo.FormatError, got %T: %v", err, err)
	}
	var pe *PersistError
	if errors.As(err, &pe) {
		t.Error("a format error before mutation must not be reported as a persist error")
	}

	if _, err := c.ListFinished(ctx); err == nil {
		t.Error("ListFinished should surface the format error")
	}
}

// failWrites makes c's writes fail with a real *todo.IOError by targeting a
// path whose parent is a regular file. The returned func restores writes.
func failWrites(t *testing.T, c *Coordinator) func() {
	t.Helper()
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	c.persist = func(s *todo.Store) error {
		return s.SaveTo(filepath.Join(blocker, "tasks.json"))
	}
	return func() { c.persist = (*todo.Store).Save }
}

func titles(tasks []todo.Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.Title
	}
	return out
}

func TestPersistErrorKeepsMemoryAndRecovers(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator(t)
	if _, err := c.AddTask(ctx, "first", "b"); err != nil {
		t.Fatal(err)
	}

	restore := failWrites(t, c)
	out, err := c.AddTask(ctx, "second", "b")
	var pe *PersistError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *PersistError, got %T: %v", err, err)
	}
	if pe.Outcome.Kind != todo.OutcomeAdded || out.Kind != todo.OutcomeAdded {
		t.Errorf("persist error outcome: got %+v", pe.Outcome)
	}
	var ioErr *todo.IOError
	if !errors.As(err, &ioErr) || ioErr.Op != "write" {
		t.Errorf("expected wrapped write *todo.IOError, got %v", err)
	}
	if got := len(c.Snapshot()); got != 2 {
		t.Errorf("in-memory tasks: got %d, want 2", got)
	}
	if got := len(loadTasks(t, c.Path())); got != 1 {
		t.Errorf("on-disk tasks: got %d, want 1", got)
	}

	restore()
	if _, err := c.AddTask(ctx, "third", "b"); err != nil {
		t.Fatalf("AddTask after recovery: %v", err)
	}
	got := titles(loadTasks(t, c.Path()))
	if strings.Join(got, ",") != "first,second,third" {
		t.Errorf("on-disk tasks after recovery: got %v", got)
	}
}

func TestUnpersistedChangesNeverOverwriteOtherWriter(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tasks.json")
	first, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	second, err := New(path)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := first.AddTask(ctx, "a1", "b"); err != nil {
		t.Fatal(err)
	}
	restore := failWrites(t, first)
	var pe *PersistError
	if _, err := first.AddTask(ctx, "a2", "b"); !errors.As(err, &pe) {
		t.Fatalf("expected *PersistError, got %v", err)
	}
	restore()

	if _, err := second.AddTask(ctx, "b1", "b"); err != nil {
		t.Fatal(err)
	}

	_, err = first.CompleteTask(ctx, 0)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	tasks := loadTasks(t, path)
	if got := strings.Join(titles(tasks), ","); got != "a1,b1" {
		t.Fatalf("on-disk tasks after conflict: got %s, want a1,b1", got)
	}
	if tasks[0].IsFinished() {
		t.Error("the conflicting mutation must not be applied")
	}
	if got := strings.Join(titles(first.Snapshot()), ","); got != "a1,b1" {
		t.Errorf("in-memory tasks after conflict: got %s, want a1,b1", got)
	}

	// The coordinator is back in sync and the retried mutation lands.
	out, err := first.CompleteTask(ctx, 0)
	if err != nil || out.Kind != todo.OutcomeCompleted {
		t.Fatalf("CompleteTask after conflict: %v %v", out.Kind, err)
	}
	tasks = loadTasks(t, path)
	if len(tasks) != 2 || !tasks[0].IsFinished() || tasks[1].Title != "b1" {
		t.Errorf("on-disk tasks after retry: %+v", tasks)
	}
}

func TestWithExclusiveAccessReleasesOnError(t *testing.T) {
	c := newTestCoordinator(t)
	boom := errors.New("boom")

	_, err := c.WithExclusiveAccess(func(s *todo.Store) (todo.Outcome, error) {
		s.AddTask("discarded", "x")
		return todo.Outcome{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}

	// Access must be available again and the failed change must not persist.
	out, err := c.WithExclusiveAccess(func(s *todo.Store) (todo.Outcome, error) {
		return s.RemoveAt(5), nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Kind != todo.OutcomeNothingToRemove {
		t.Errorf("Kind: got %q; the discarded task should have been reloaded away", out.Kind)
	}
}

func TestListenersReceiveEvents(t *testing.T) {
	ctx := context.Background()
	var mu sync.Mutex
	var events []Event
	c := newTestCoordinator(t, WithListener(func(_ context.Context, ev Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	}))

	c.AddTask(ctx, "a", "b")
	c.CompleteTask(ctx, 0)
	c.RemoveTask(ctx, 3)

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 3 {
		t.Fatalf("events: got %d, want 3", len(events))
	}
	wantOps := []string{"add", "complete", "remove"}
	for i, ev := range events {
		if ev.Op != wantOps[i] {
			t.Errorf("event %d op: got %q, want %q", i, ev.Op, wantOps[i])
		}
	}
	if events[0].Index != 0 {
		t.Errorf("add event index: got %d, want 0", events[0].Index)
	}
	if events[2].Outcome.Kind != todo.OutcomeIndexOutOfRange {
		t.Errorf("remove event outcome: got %q", events[2].Outcome.Kind)
	}
}

func TestFormatList(t *testing.T) {
	done := "2024-01-02 10:00:00"
	entries := []todo.Entry{
		{Index: 0, Task: todo.Task{Title: "a", Body: "b", Pending: true, CreatedAt: "2024-01-01 09:00:00"}},
		{Index: 1, Task: todo.Task{Title: "c", Body: "d", Pending: false, CreatedAt: "2024-01-01 09:05:00", CompletedAt: &done}},
	}
	got := FormatList(entries)
	want := "Task 0: Title: a, Body: b, Completed: true, created at: 2024-01-01 09:00:00\n" +
		"Task 1: Title: c, Body: d, Completed: false, created at: 2024-01-01 09:05:00\n"
	if got != want {
		t.Errorf("FormatList:\ngot  %q\nwant %q", got, want)
	}

	finished := FormatFinished([]todo.FinishedEntry{{Index: 1, Title: "c", CompletedAt: done}})
	if finished != "Task: 1, title: c, Completion Date: 2024-01-02 10:00:00\n" {
		t.Errorf("FormatFinished: got %q", finished)
	}
	if FormatList(nil) != "" {
		t.Error("empty list should render as empty string")
	}
}

func TestFileLockLockUnlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "tasks.json.lock")
	fl := newFileLock(path)

	if err := fl.Unlock(); err != nil {
		t.Fatalf("Unlock without Lock should not error: %v", err)
	}
	if err := fl.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if err := fl.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
}
