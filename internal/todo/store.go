package todo

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"time"
)

// Store owns an ordered task collection and its backing file. A Store is not
// safe for concurrent use; callers serialize access (see package tracker).
type Store struct {
	path   string
	file   *File
	now    func() time.Time
	synced string // digest of the file as last read or written; "" when absent
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock sets the clock used for creation and completion timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns an empty store backed by path. Nothing is read or written.
func New(path string, opts ...StoreOption) *Store {
	s := &Store{
		path: path,
		file: &File{Tasks: []Task{}},
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the task file at path. A missing file yields an empty store.
// Undecodable data fails with *FormatError, read failures with *IOError.
func Load(path string, opts ...StoreOption) (*Store, error) {
	s := New(path, opts...)
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the in-memory collection with the current file contents.
// On error the collection is left untouched.
func (s *Store) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.file = &File{Tasks: []Task{}}
			s.synced = ""
			return nil
		}
		return &IOError{Op: "read", Path: s.path, Err: err}
	}

	f, err := decodeAt(data, s.now())
	if err != nil {
		return err
	}
	s.file = f
	s.synced = digest(data)
	return nil
}

// Unchanged reports whether the backing file still holds exactly what the
// store last read from it or wrote to it.
func (s *Store) Unchanged() (bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s.synced == "", nil
		}
		return false, &IOError{Op: "read", Path: s.path, Err: err}
	}
	return digest(data) == s.synced, nil
}

// Save writes the whole collection to the store's path.
func (s *Store) Save() error {
	return s.SaveTo(s.path)
}

// SaveTo writes the whole collection to path, atomically replacing any
// previous contents.
func (s *Store) SaveTo(path string) error {
	data, err := Encode(s.file)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(path, data, 0644); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if path == s.path {
		s.synced = digest(data)
	}
	return nil
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	return len(s.file.Tasks)
}

// Tasks returns a copy of the collection.
func (s *Store) Tasks() []Task {
	out := make([]Task, len(s.file.Tasks))
	copy(out, s.file.Tasks)
	return out
}

// Append adds task at the end of the collection. The change is in memory
// only until Save is called.
func (s *Store) Append(task Task) Outcome {
	s.file.Tasks = append(s.file.Tasks, task)
	return Outcome{Kind: OutcomeAdded, Index: len(s.file.Tasks) - 1, Len: len(s.file.Tasks)}
}

// AddTask creates a task stamped with the store clock and appends it.
func (s *Store) AddTask(title, body string) Outcome {
	return s.Append(NewTaskAt(title, body, s.now()))
}

// RemoveAt deletes the task at index, shifting later tasks down by one.
// An empty collection or out-of-range index leaves the collection unchanged.
func (s *Store) RemoveAt(index int) Outcome {
	n := len(s.file.Tasks)
	if n == 0 {
		return Outcome{Kind: OutcomeNothingToRemove, Index: index, Len: 0}
	}
	if index < 0 || index >= n {
		return Outcome{Kind: OutcomeIndexOutOfRange, Index: index, Len: n}
	}

	s.file.Tasks = append(s.file.Tasks[:index], s.file.Tasks[index+1:]...)
	return Outcome{Kind: OutcomeRemoved, Index: index, Len: len(s.file.Tasks)}
}

// ToggleCompletion marks the task at index as finished and stamps its
// completion time. The transition is one-way: a finished task is left as is.
func (s *Store) ToggleCompletion(index int) Outcome {
	n := len(s.file.Tasks)
	if index < 0 || index >= n {
		return Outcome{Kind: OutcomeInvalidIndex, Index: index, Len: n}
	}

	task := &s.file.Tasks[index]
	if !task.Pending {
		return Outcome{Kind: OutcomeAlreadyCompleted, Index: index, Len: n}
	}

	stamp := FormatTime(s.now())
	task.Pending = false
	if task.CompletedAt == nil {
		task.CompletedAt = &stamp
	}
	return Outcome{Kind: OutcomeCompleted, Index: index, Len: n}
}

// ListThrough returns the tasks at indices 0 through bound inclusive, in
// collection order. A negative bound yields nothing.
func (s *Store) ListThrough(bound int) []Entry {
	return listThrough(s.file.Tasks, bound)
}

// Finished returns every task with a completion timestamp, in order.
func (s *Store) Finished() []FinishedEntry {
	return finished(s.file.Tasks)
}

func listThrough(tasks []Task, bound int) []Entry {
	entries := make([]Entry, 0)
	for i, task := range tasks {
		if i > bound {
			break
		}
		entries = append(entries, Entry{Index: i, Task: task})
	}
	return entries
}

func finished(tasks []Task) []FinishedEntry {
	entries := make([]FinishedEntry, 0)
	for i, task := range tasks {
		if task.CompletedAt == nil {
			continue
		}
		entries = append(entries, FinishedEntry{
			Index:       i,
			Title:       task.Title,
			CompletedAt: *task.CompletedAt,
		})
	}
	return entries
}
