// Package logging provides the console logger and the JSONL mutation journal.
package logging

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Record is one journal line describing a mutating operation.
type Record struct {
	Time       time.Time `json:"time"`
	RunID      string    `json:"run_id"`
	RequestID  string    `json:"request_id,omitempty"`
	Op         string    `json:"op"`
	Index      int       `json:"index"`
	Outcome    string    `json:"outcome,omitempty"`
	Message    string    `json:"message,omitempty"`
	Changed    bool      `json:"changed"`
	Tasks      int       `json:"tasks"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
}

// Journal appends mutation records to a per-run JSONL file.
type Journal struct {
	Dir     string
	RunID   string
	LogPath string

	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewJournal creates the journal directory for dataFile under baseDir and
// opens a fresh JSONL file for this run.
func NewJournal(baseDir, dataFile string) (*Journal, error) {
	logDir, err := FindLogDir(baseDir, dataFile)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	id := runID()
	logPath := filepath.Join(logDir, id+".jsonl")
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	return &Journal{
		Dir:     logDir,
		RunID:   id,
		LogPath: logPath,
		file:    file,
		enc:     json.NewEncoder(file),
	}, nil
}

// Record appends rec to the journal. Time and RunID are filled in when unset.
func (j *Journal) Record(rec Record) error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return fmt.Errorf("journal closed")
	}
	if rec.Time.IsZero() {
		rec.Time = time.Now().UTC()
	}
	if rec.RunID == "" {
		rec.RunID = j.RunID
	}
	return j.enc.Encode(rec)
}

// Close closes the journal file.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	return err
}

// FindLogDir returns the journal directory for a data file. Each data file
// gets its own directory, named after its parent plus a short path hash.
func FindLogDir(baseDir, dataFile string) (string, error) {
	if baseDir == "" {
		return "", fmt.Errorf("log base dir is empty")
	}
	if dataFile == "" {
		return "", fmt.Errorf("data file is empty")
	}
	abs, err := filepath.Abs(dataFile)
	if err != nil {
		abs = filepath.Clean(dataFile)
	}
	baseDir = filepath.Clean(baseDir)
	if !filepath.IsAbs(baseDir) {
		if resolved, err := filepath.Abs(baseDir); err == nil {
			baseDir = resolved
		}
	}
	return filepath.Join(baseDir, projectSlug(abs)), nil
}

func projectSlug(dataFile string) string {
	name := filepath.Base(filepath.Dir(dataFile))
	if name == ".tasktrack" {
		name = filepath.Base(filepath.Dir(filepath.Dir(dataFile)))
	}
	return fmt.Sprintf("%s-%s", slugify(name), hashPath(dataFile))
}

func slugify(input string) string {
	if strings.TrimSpace(input) == "" {
		return "tasks"
	}

	var b strings.Builder
	lastUnderscore := false
	for i := 0; i < len(input); i++ {
		c := input[i]
		valid := (c >= 'A' && c <= 'Z') ||
			(c >= 'a' && c <= 'z') ||
			(c >= '0' && c <= '9') ||
			c == '.' || c == '_' || c == '-'
		if !valid {
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
			continue
		}
		b.WriteByte(c)
		lastUnderscore = false
	}

	slug := strings.Trim(b.String(), "_.")
	if slug == "" {
		return "tasks"
	}
	return slug
}

func hashPath(input string) string {
	sum := sha1.Sum([]byte(input))
	return hex.EncodeToString(sum[:])[:8]
}

func runID() string {
	return fmt.Sprintf("%s-%d", time.Now().UTC().Format("20060102-150405"), os.Getpid())
}

// JournalFile describes one run's journal on disk.
type JournalFile struct {
	RunID   string
	Path    string
	ModTime time.Time
	Size    int64
}

// FindJournals lists journal files in logDir, newest first. A missing
// directory yields no journals.
func FindJournals(logDir string) ([]JournalFile, error) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read log dir: %w", err)
	}

	var files []JournalFile
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, JournalFile{
			RunID:   strings.TrimSuffix(name, ".jsonl"),
			Path:    filepath.Join(logDir, name),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].RunID > files[j].RunID
		}
		return files[i].ModTime.After(files[j].ModTime)
	})
	return files, nil
}

// FindLatestLog returns the newest journal in logDir, or "" when none exist.
func FindLatestLog(logDir string) (string, error) {
	files, err := FindJournals(logDir)
	if err != nil || len(files) == 0 {
		return "", err
	}
	return files[0].Path, nil
}

type requestIDKey struct{}

// WithRequestID returns a context carrying a request ID for journal records.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request ID stored in ctx, if any.
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
