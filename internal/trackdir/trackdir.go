// Package trackdir provides constants and utilities for the .tasktrack directory structure.
package trackdir

import "path/filepath"

const (
	// Dir is the name of the per-project state directory.
	Dir = ".tasktrack"

	// TasksFile is the default task file name (inside .tasktrack).
	TasksFile = "tasks.json"

	// SchemaFile is the conventional external schema name (inside .tasktrack).
	SchemaFile = "tasks.schema.json"

	// ConfigFile is the config file name, used both in the project root and
	// in the user's ~/.tasktrack directory.
	ConfigFile = "tasktrack.toml"

	// LockSuffix is appended to a task file path to name its lock file.
	LockSuffix = ".lock"
)

// TasksPath returns the full path to the task file within a work directory.
func TasksPath(workDir string) string {
	return joinPath(workDir, TasksFile)
}

// SchemaPath returns the full path to the schema file within a work directory.
func SchemaPath(workDir string) string {
	return joinPath(workDir, SchemaFile)
}

// DirPath returns the full path to the .tasktrack directory within a work directory.
func DirPath(workDir string) string {
	if workDir == "." || workDir == "" {
		return Dir
	}
	return filepath.Join(workDir, Dir)
}

// LockPath returns the lock file path guarding dataFile.
func LockPath(dataFile string) string {
	return dataFile + LockSuffix
}

func joinPath(workDir, file string) string {
	return filepath.Join(DirPath(workDir), file)
}
