// Package cmd provides tests for CLI command handlers.
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/nibzard/tasktrack/internal/config"
	"github.com/nibzard/tasktrack/internal/todo"
	"github.com/nibzard/tasktrack/internal/trackdir"
)

// setup isolates config lookup, moves into a fresh project dir and captures
// command output. It returns the project dir and the stdout buffer.
func setup(t *testing.T) (string, *bytes.Buffer) {
	t.Helper()
	home := t.TempDir()
	project := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, name := range config.EnvVars() {
		t.Setenv(name, "")
	}
	chdir(t, project)

	out := &bytes.Buffer{}
	oldOut, oldErr := stdout, stderr
	stdout, stderr = out, &bytes.Buffer{}
	t.Cleanup(func() {
		stdout, stderr = oldOut, oldErr
	})
	return project, out
}

func run(t *testing.T, out *bytes.Buffer, args ...string) string {
	t.Helper()
	out.Reset()
	if err := Run(context.Background(), args); err != nil {
		t.Fatalf("Run(%v): %v", args, err)
	}
	return out.String()
}

// TestRun tests the main Run function.
func TestRun(t *testing.T) {
	t.Run("shows help with --help flag", func(t *testing.T) {
		_, out := setup(t)
		got := run(t, out, "--help")
		if !strings.Contains(got, "add <title> <body>") {
			t.Errorf("help output missing commands: %q", got)
		}
	})

	t.Run("shows help with help command", func(t *testing.T) {
		_, out := setup(t)
		if got := run(t, out, "help"); !strings.Contains(got, "Global Options:") {
			t.Errorf("help output: %q", got)
		}
	})

	t.Run("shows version with -v flag", func(t *testing.T) {
		_, out := setup(t)
		if got := run(t, out, "-v"); got != "tasktrack version dev\n" {
			t.Errorf("version output: %q", got)
		}
	})

	t.Run("unknown command returns error", func(t *testing.T) {
		setup(t)
		err := Run(context.Background(), []string{"unknown-command"})
		if err == nil || !strings.Contains(err.Error(), "unknown command") {
			t.Errorf("expected 'unknown command' error, got %v", err)
		}
	})

	t.Run("bad config file is reported", func(t *testing.T) {
		project, _ := setup(t)
		if err := os.WriteFile(filepath.Join(project, trackdir.ConfigFile), []byte("data_file = ["), 0644); err != nil {
			t.Fatal(err)
		}
		err := Run(context.Background(), []string{"ls"})
		if err == nil || !strings.Contains(err.Error(), "loading config") {
			t.Errorf("expected config error, got %v", err)
		}
	})
}

func TestTaskCommands(t *testing.T) {
	project, out := setup(t)
	t.Setenv("TASKTRACK_JOURNAL", "false")

	if got := run(t, out, "ls"); got != "No tasks found.\n" {
		t.Errorf("empty ls: %q", got)
	}
	if got := run(t, out, "add", "Buy milk", "2%"); got != "Task added successfully\n" {
		t.Errorf("add: %q", got)
	}
	run(t, out, "add", "Walk dog", "twice")

	got := run(t, out, "ls", "0")
	if !strings.HasPrefix(got, "Task 0: Title: Buy milk, Body: 2%, Completed: true, created at: ") {
		t.Errorf("ls 0: %q", got)
	}
	if strings.Contains(got, "Walk dog") {
		t.Errorf("ls 0 included index 1: %q", got)
	}

	if got := run(t, out, "done", "1"); got != "Task completion status updated successfully\n" {
		t.Errorf("done: %q", got)
	}
	if got := run(t, out, "done", "1"); got != "Task at index 1 is already marked as completed.\n" {
		t.Errorf("second done: %q", got)
	}
	if got := run(t, out, "done", "9"); got != "Invalid index. No task found at index 9.\n" {
		t.Errorf("done out of range: %q", got)
	}
	if got := run(t, out, "finished"); !strings.HasPrefix(got, "Task: 1, title: Walk dog, Completion Date: ") {
		t.Errorf("finished: %q", got)
	}

	if got := run(t, out, "rm", "5"); got != "There are only 2 tasks in the file. Can't delete something that doesn't exist.\n" {
		t.Errorf("rm out of range: %q", got)
	}
	if got := run(t, out, "rm", "0"); got != "Task removed successfully. Now there are 1 tasks in the file.\n" {
		t.Errorf("rm: %q", got)
	}

	store, err := todo.Load(filepath.Join(project, config.DefaultDataFile))
	if err != nil {
		t.Fatal(err)
	}
	if store.Len() != 1 || store.Tasks()[0].Title != "Walk dog" {
		t.Errorf("stored tasks: %+v", store.Tasks())
	}
}

func TestTaskCommandArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"add without body", []string{"add", "title"}},
		{"add empty title", []string{"add", "", "body"}},
		{"rm without index", []string{"rm"}},
		{"rm negative index", []string{"rm", "-1"}},
		{"done non-numeric", []string{"done", "x"}},
		{"ls extra args", []string{"ls", "1", "2"}},
		{"finished extra args", []string{"finished", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setup(t)
			t.Setenv("TASKTRACK_JOURNAL", "false")
			if err := Run(context.Background(), tt.args); err == nil {
				t.Errorf("Run(%v): expected error", tt.args)
			}
		})
	}
}

func TestCorruptFileFails(t *testing.T) {
	project, _ := setup(t)
	path := filepath.Join(project, "tasks.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	for _, args := range [][]string{
		{"-data", path, "ls"},
		{"-data", path, "-journal=false", "add", "a", "b"},
	} {
		if err := Run(context.Background(), args); err == nil {
			t.Errorf("Run(%v): expected error", args)
		}
	}
}

func TestJournalAndTail(t *testing.T) {
	project, out := setup(t)
	logDir := filepath.Join(project, "logs")
	t.Setenv("TASKTRACK_LOG_DIR", logDir)

	run(t, out, "add", "a", "b")
	run(t, out, "done", "0")

	// Runs within the same second share a journal file.
	got := run(t, out, "tail", "-list")
	if !strings.Contains(got, ".jsonl") {
		t.Errorf("expected a journal, got %q", got)
	}

	got = run(t, out, "tail", "-n", "1")
	if !strings.Contains(got, `"op":"complete"`) || !strings.Contains(got, `"outcome":"completed"`) {
		t.Errorf("tail output: %q", got)
	}
}

func TestTailWithoutJournals(t *testing.T) {
	project, out := setup(t)
	t.Setenv("TASKTRACK_LOG_DIR", filepath.Join(project, "logs"))
	if got := run(t, out, "tail"); got != "No journal files found.\n" {
		t.Errorf("tail: %q", got)
	}
}

func TestHookRuns(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script hook")
	}
	project, out := setup(t)
	t.Setenv("TASKTRACK_JOURNAL", "false")

	marker := filepath.Join(project, "hook.out")
	script := filepath.Join(project, "hook.sh")
	content := "#!/bin/sh\necho \"$1 $3\" >> " + marker + "\n"
	if err := os.WriteFile(script, []byte(content), 0755); err != nil {
		t.Fatal(err)
	}

	run(t, out, "-hook", script, "add", "a", "b")
	run(t, out, "-hook", script, "rm", "3")
	run(t, out, "-hook", script, "rm", "0")

	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != "add added\nremove removed\n" {
		t.Errorf("hook calls: %q", got)
	}
}

func TestInitCommandCreatesFiles(t *testing.T) {
	project, out := setup(t)

	got := run(t, out, "init")
	if strings.Count(got, "Created ") != 3 {
		t.Errorf("init output: %q", got)
	}

	for _, path := range []string{
		filepath.Join(project, config.DefaultDataFile),
		trackdir.SchemaPath(project),
		filepath.Join(project, trackdir.ConfigFile),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to exist: %v", path, err)
		}
	}

	if got := run(t, out, "validate"); !strings.Contains(got, "valid (0 tasks)") {
		t.Errorf("validate after init: %q", got)
	}

	got = run(t, out, "init")
	if strings.Count(got, "skipped") != 3 {
		t.Errorf("second init should skip: %q", got)
	}
}

func TestValidateCommand(t *testing.T) {
	project, out := setup(t)
	path := filepath.Join(project, "tasks.json")

	t.Run("valid file passes validation", func(t *testing.T) {
		content := `{"tasks":[{"title":"a","body":"b","completed":true,"creation_date":"2024-01-01 00:00:00"}]}`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		if got := run(t, out, "validate", "tasks.json"); !strings.Contains(got, "valid (1 tasks)") {
			t.Errorf("validate: %q", got)
		}
	})

	t.Run("invalid file fails validation", func(t *testing.T) {
		if err := os.WriteFile(path, []byte(`{"tasks":[{"title":1}]}`), 0644); err != nil {
			t.Fatal(err)
		}
		if err := Run(context.Background(), []string{"validate", path}); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("non-existent file returns error", func(t *testing.T) {
		if err := Run(context.Background(), []string{"validate", "nonexistent.json"}); err == nil {
			t.Error("expected error for non-existent file")
		}
	})
}

func TestSchemaCommand(t *testing.T) {
	_, out := setup(t)
	if got := run(t, out, "schema"); got != todo.SchemaJSON() {
		t.Errorf("schema output differs from built-in schema")
	}
}

func TestDoctorCommand(t *testing.T) {
	t.Run("passes on a fresh project", func(t *testing.T) {
		_, out := setup(t)
		t.Setenv("TASKTRACK_JOURNAL", "false")
		got := run(t, out, "doctor", "-v", "-adds", "10", "-workers", "4")
		for _, want := range []string{"Not found (created on first add)", "Sources:", "10 concurrent adds", "All checks passed!"} {
			if !strings.Contains(got, want) {
				t.Errorf("doctor output missing %q:\n%s", want, got)
			}
		}
	})

	t.Run("fails on an invalid task file", func(t *testing.T) {
		project, out := setup(t)
		path := filepath.Join(project, config.DefaultDataFile)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(`{"tasks":"nope"}`), 0644); err != nil {
			t.Fatal(err)
		}
		err := Run(context.Background(), []string{"doctor", "-selftest=false"})
		if err == nil || !strings.Contains(err.Error(), "doctor checks failed") {
			t.Errorf("expected doctor failure, got %v", err)
		}
		if !strings.Contains(out.String(), "Validation failed") {
			t.Errorf("doctor output: %s", out.String())
		}
	})

	t.Run("fails on a missing hook", func(t *testing.T) {
		_, out := setup(t)
		err := Run(context.Background(), []string{"-hook", "/nonexistent/hook", "doctor", "-selftest=false"})
		if err == nil {
			t.Error("expected doctor failure for missing hook")
		}
		if !strings.Contains(out.String(), "Not found") {
			t.Errorf("doctor output: %s", out.String())
		}
	})

	t.Run("prints example config", func(t *testing.T) {
		_, out := setup(t)
		if got := run(t, out, "doctor", "-example"); got != config.ExampleConfig() {
			t.Errorf("example output differs")
		}
	})
}

func TestParseIndex(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"0", 0, false},
		{"42", 42, false},
		{"-1", 0, true},
		{"abc", 0, true},
		{"", 0, true},
		{"1.5", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseIndex(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseIndex(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseIndex(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsWindowsExecutable(t *testing.T) {
	t.Setenv("PATHEXT", ".EXE;cmd")
	tests := []struct {
		path string
		want bool
	}{
		{"hook.exe", true},
		{"hook.CMD", true},
		{"hook.sh", false},
		{"hook", false},
	}
	for _, tt := range tests {
		if got := isWindowsExecutable(tt.path); got != tt.want {
			t.Errorf("isWindowsExecutable(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestCheckBinary(t *testing.T) {
	_, out := setup(t)
	dir := t.TempDir()

	if !checkBinary("optional", "", false) {
		t.Error("empty optional binary should pass")
	}
	if checkBinary("required", "", true) {
		t.Error("empty required binary should fail")
	}
	if checkBinary("dir", dir, true) {
		t.Error("directory should fail")
	}
	if runtime.GOOS != "windows" {
		script := filepath.Join(dir, "hook.sh")
		if err := os.WriteFile(script, []byte("#!/bin/sh\n"), 0755); err != nil {
			t.Fatal(err)
		}
		if !checkBinary("script", script, true) {
			t.Errorf("executable script should pass: %s", out.String())
		}
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (stand-in for testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
