// Package ui provides the interactive terminal interface.
package ui

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/nibzard/tasktrack/internal/todo"
)

// Tracker is the subset of coordinator operations the TUI drives.
type Tracker interface {
	Path() string
	ListTasks(ctx context.Context, bound int) ([]todo.Entry, error)
	RemoveTask(ctx context.Context, index int) (todo.Outcome, error)
	CompleteTask(ctx context.Context, index int) (todo.Outcome, error)
}

// Options configures the TUI.
type Options struct {
	// Refresh is the polling interval used alongside file watching.
	Refresh time.Duration
	Logger  *log.Logger
}

// RunTUI starts the TUI and blocks until the user quits or ctx is done.
func RunTUI(ctx context.Context, t Tracker, opts Options) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}

	model := newTUIModel(ctx, t, opts)
	watcher, err := watchFile(t.Path())
	if err != nil {
		// Polling still works without a watcher.
		model.logger.Warn("file watch unavailable", "path", t.Path(), "err", err)
	} else {
		defer watcher.Close()
		model.changes = watcher.Events
	}

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = program.Run()
	return err
}

// watchFile watches the directory holding path, since the file is replaced
// by rename on every write.
func watchFile(path string) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

type tuiModel struct {
	ctx          context.Context
	tracker      Tracker
	logger       *log.Logger
	changes      <-chan fsnotify.Event
	tickInterval time.Duration

	entries  []todo.Entry
	cursor   int
	loadErr  error
	status   string
	showHelp bool
}

type tickMsg time.Time

type fileChangedMsg struct{}

type opDoneMsg struct {
	outcome todo.Outcome
	err     error
}

func newTUIModel(ctx context.Context, t Tracker, opts Options) *tuiModel {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	interval := opts.Refresh
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &tuiModel{
		ctx:          ctx,
		tracker:      t,
		logger:       logger,
		tickInterval: interval,
	}
}

func (m *tuiModel) Init() tea.Cmd {
	m.refresh()
	cmds := []tea.Cmd{tickCmd(m.tickInterval)}
	if m.changes != nil {
		cmds = append(cmds, waitForChange(m.changes, m.tracker.Path()))
	}
	return tea.Batch(cmds...)
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tickMsg:
		m.refresh()
		return m, tickCmd(m.tickInterval)
	case fileChangedMsg:
		m.refresh()
		return m, waitForChange(m.changes, m.tracker.Path())
	case opDoneMsg:
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.status = msg.outcome.Message()
		}
		m.refresh()
	}
	return m, nil
}

func (m *tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case "r", "f5":
		m.refresh()
	case "h", "?":
		m.showHelp = !m.showHelp
	case "c", "enter", " ":
		if len(m.entries) > 0 {
			return m, m.completeCmd(m.entries[m.cursor].Index)
		}
	case "d", "delete":
		if len(m.entries) > 0 {
			return m, m.removeCmd(m.entries[m.cursor].Index)
		}
	}
	return m, nil
}

func (m *tuiModel) completeCmd(index int) tea.Cmd {
	return func() tea.Msg {
		out, err := m.tracker.CompleteTask(m.ctx, index)
		return opDoneMsg{outcome: out, err: err}
	}
}

func (m *tuiModel) removeCmd(index int) tea.Cmd {
	return func() tea.Msg {
		out, err := m.tracker.RemoveTask(m.ctx, index)
		return opDoneMsg{outcome: out, err: err}
	}
}

func (m *tuiModel) refresh() {
	entries, err := m.tracker.ListTasks(m.ctx, math.MaxInt)
	if err != nil {
		m.loadErr = err
		m.entries = nil
		m.cursor = 0
		return
	}
	m.loadErr = nil
	m.entries = entries
	if m.cursor >= len(entries) {
		m.cursor = max(len(entries)-1, 0)
	}
}

func (m *tuiModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("tasktrack") + "\n\n")

	if m.showHelp {
		writeHelp(&b)
		writeFooter(&b, m.tickInterval)
		return b.String()
	}

	if m.loadErr != nil {
		b.WriteString(errorStyle.Render("Error loading task file:") + "\n")
		b.WriteString("  " + m.loadErr.Error() + "\n\n")
		writeFooter(&b, m.tickInterval)
		return b.String()
	}

	writeOverview(&b, m.entries)
	writeTasks(&b, m.entries, m.cursor)
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status) + "\n\n")
	}
	b.WriteString(mutedStyle.Render("File: "+m.tracker.Path()) + "\n")
	writeFooter(&b, m.tickInterval)
	return b.String()
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForChange blocks until an event touches path. A closed channel ends
// the watch; ticks keep the view fresh after that.
func waitForChange(events <-chan fsnotify.Event, path string) tea.Cmd {
	if events == nil {
		return nil
	}
	clean := filepath.Clean(path)
	return func() tea.Msg {
		for ev := range events {
			if filepath.Clean(ev.Name) == clean {
				return fileChangedMsg{}
			}
		}
		return nil
	}
}

func writeOverview(b *strings.Builder, entries []todo.Entry) {
	done := 0
	for _, e := range entries {
		if e.Task.IsFinished() {
			done++
		}
	}
	b.WriteString(headerStyle.Render("Task Overview") + "\n\n")
	b.WriteString(fmt.Sprintf("  Total: %d  Pending: %d  Finished: %d\n\n", len(entries), len(entries)-done, done))
}

func writeTasks(b *strings.Builder, entries []todo.Entry, cursor int) {
	b.WriteString(headerStyle.Render("Tasks") + "\n\n")
	if len(entries) == 0 {
		b.WriteString("  No tasks yet.\n\n")
		return
	}
	for i, e := range entries {
		line := formatEntry(e)
		if i == cursor {
			b.WriteString(cursorStyle.Render("> "+line) + "\n")
			continue
		}
		b.WriteString("  " + line + "\n")
	}
	b.WriteString("\n")
}

func writeHelp(b *strings.Builder) {
	b.WriteString(headerStyle.Render("Keyboard Shortcuts") + "\n\n")
	b.WriteString("  up/k, down/j    Move selection\n")
	b.WriteString("  c, enter        Complete selected task\n")
	b.WriteString("  d               Delete selected task\n")
	b.WriteString("  r, F5           Refresh\n")
	b.WriteString("  h, ?            Toggle this help screen\n")
	b.WriteString("  q, ctrl+c       Quit\n\n")
}

func writeFooter(b *strings.Builder, interval time.Duration) {
	b.WriteString(mutedStyle.Render(fmt.Sprintf("Press h for help | q to quit | Refreshing every %s", interval)) + "\n")
}

func formatEntry(e todo.Entry) string {
	icon := " "
	if e.Task.IsFinished() {
		icon = "x"
	}
	line := fmt.Sprintf("[%s] %d. %s", icon, e.Index, e.Task.Title)
	body := e.Task.Body
	if len(body) > 60 {
		body = body[:57] + "..."
	}
	if body != "" {
		line += " - " + body
	}
	if e.Task.CompletedAt != nil {
		line += " (done " + *e.Task.CompletedAt + ")"
	}
	return line
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
