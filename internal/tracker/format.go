package tracker

import (
	"fmt"
	"strings"

	"github.com/nibzard/tasktrack/internal/todo"
)

// FormatList renders list entries one per line. The "Completed" column keeps
// the historical meaning of the stored flag: true means still outstanding.
func FormatList(entries []todo.Entry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "Task %d: Title: %s, Body: %s, Completed: %t, created at: %s\n",
			e.Index, e.Task.Title, e.Task.Body, e.Task.Pending, e.Task.CreatedAt)
	}
	return b.String()
}

// FormatFinished renders finished entries one per line.
func FormatFinished(entries []todo.FinishedEntry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "Task: %d, title: %s, Completion Date: %s\n", e.Index, e.Title, e.CompletedAt)
	}
	return b.String()
}
