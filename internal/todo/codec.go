package todo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// wireTask mirrors Task with optional fields so that defaults can be applied
// to files written before those fields existed.
type wireTask struct {
	Title          string  `json:"title"`
	Body           string  `json:"body"`
	Completed      *bool   `json:"completed"`
	CreationDate   *string `json:"creation_date"`
	CompletionDate *string `json:"completion_date"`
}

type wireFile struct {
	Tasks []wireTask `json:"tasks"`
}

// Decode parses a task file. Missing "completed" and "creation_date" fields
// receive the same defaults NewTask uses.
func Decode(data []byte) (*File, error) {
	return decodeAt(data, time.Now())
}

func decodeAt(data []byte, now time.Time) (*File, error) {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &FormatError{Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	if err := compiledSchema().Validate(doc); err != nil {
		return nil, schemaErrors(err)[0]
	}

	var wf wireFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, &FormatError{Err: err}
	}

	f := &File{Tasks: make([]Task, 0, len(wf.Tasks))}
	for _, wt := range wf.Tasks {
		task := Task{
			Title:       wt.Title,
			Body:        wt.Body,
			Pending:     true,
			CreatedAt:   FormatTime(now),
			CompletedAt: wt.CompletionDate,
		}
		if wt.Completed != nil {
			task.Pending = *wt.Completed
		}
		if wt.CreationDate != nil {
			task.CreatedAt = *wt.CreationDate
		}
		f.Tasks = append(f.Tasks, task)
	}
	return f, nil
}

// Encode renders the task file with 2-space indentation and a trailing
// newline. An empty collection is written as an empty array, never null.
func Encode(f *File) ([]byte, error) {
	out := File{Tasks: []Task{}}
	if f != nil && f.Tasks != nil {
		out.Tasks = f.Tasks
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("marshal task file: %w", err)
	}
	return buf.Bytes(), nil
}
