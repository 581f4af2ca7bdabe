package todo

import "time"

// TimeLayout is the timestamp format used for creation and completion dates.
const TimeLayout = "2006-01-02 15:04:05"

// Task represents a single task in the task file.
type Task struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	// Pending is true while the task is still outstanding. It is stored under
	// the historical "completed" key, which files written by earlier versions
	// used with this same inverted meaning.
	Pending     bool    `json:"completed"`
	CreatedAt   string  `json:"creation_date"`
	CompletedAt *string `json:"completion_date,omitempty"`
}

// NewTask creates an outstanding task stamped with the current local time.
func NewTask(title, body string) Task {
	return NewTaskAt(title, body, time.Now())
}

// NewTaskAt creates an outstanding task stamped with now.
func NewTaskAt(title, body string, now time.Time) Task {
	return Task{
		Title:     title,
		Body:      body,
		Pending:   true,
		CreatedAt: FormatTime(now),
	}
}

// IsFinished reports whether the task has a completion timestamp.
func (t Task) IsFinished() bool {
	return t.CompletedAt != nil
}

// FormatTime formats t with TimeLayout.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// File represents the task file structure.
type File struct {
	Tasks []Task `json:"tasks"`
}

// Entry is a task paired with its current position in the collection.
type Entry struct {
	Index int
	Task  Task
}

// FinishedEntry describes a finished task.
type FinishedEntry struct {
	Index       int
	Title       string
	CompletedAt string
}
