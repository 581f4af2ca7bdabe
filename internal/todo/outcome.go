package todo

import "fmt"

// OutcomeKind classifies the result of a store operation.
type OutcomeKind string

const (
	OutcomeAdded            OutcomeKind = "added"
	OutcomeRemoved          OutcomeKind = "removed"
	OutcomeNothingToRemove  OutcomeKind = "nothing_to_remove"
	OutcomeIndexOutOfRange  OutcomeKind = "index_out_of_range"
	OutcomeCompleted        OutcomeKind = "completed"
	OutcomeAlreadyCompleted OutcomeKind = "already_completed"
	OutcomeInvalidIndex     OutcomeKind = "invalid_index"
)

// Outcome describes what a store operation did. Out-of-range indices and
// repeated completions are benign outcomes, not errors.
type Outcome struct {
	Kind  OutcomeKind
	Index int // index the operation addressed
	Len   int // collection length after the operation
}

// Changed reports whether the collection was modified and must be persisted.
func (o Outcome) Changed() bool {
	switch o.Kind {
	case OutcomeAdded, OutcomeRemoved, OutcomeCompleted:
		return true
	default:
		return false
	}
}

// Message returns the human-readable description shown to callers.
func (o Outcome) Message() string {
	switch o.Kind {
	case OutcomeAdded:
		return "Task added successfully"
	case OutcomeRemoved:
		return fmt.Sprintf("Task removed successfully. Now there are %d tasks in the file.", o.Len)
	case OutcomeNothingToRemove:
		return "There are no tasks in this file."
	case OutcomeIndexOutOfRange:
		return fmt.Sprintf("There are only %d tasks in the file. Can't delete something that doesn't exist.", o.Len)
	case OutcomeCompleted:
		return "Task completion status updated successfully"
	case OutcomeAlreadyCompleted:
		return fmt.Sprintf("Task at index %d is already marked as completed.", o.Index)
	case OutcomeInvalidIndex:
		return fmt.Sprintf("Invalid index. No task found at index %d.", o.Index)
	default:
		return string(o.Kind)
	}
}

func (o Outcome) String() string {
	return o.Message()
}
