package todo

import "fmt"

// FormatError reports task data that exists but cannot be decoded.
type FormatError struct {
	Path string // JSON path to the offending value, empty for whole-document errors
	Err  error  // Underlying error
}

func (e *FormatError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("invalid task file: %s: %s", e.Path, e.Err)
	}
	return fmt.Sprintf("invalid task file: %s", e.Err)
}

// Unwrap returns the underlying error.
func (e *FormatError) Unwrap() error {
	return e.Err
}

// IOError reports a failure reading or writing the task file.
type IOError struct {
	Op   string // "read" or "write"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s task file %s: %s", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *IOError) Unwrap() error {
	return e.Err
}
