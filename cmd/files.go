package cmd

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nibzard/tasktrack/internal/config"
	"github.com/nibzard/tasktrack/internal/todo"
	"github.com/nibzard/tasktrack/internal/trackdir"
)

// initCommand creates an empty task file, the schema file and a project
// config. Existing files are left alone unless -force is given.
func initCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasktrack init", flag.ContinueOnError)
	fs.SetOutput(stderr)
	force := fs.Bool("force", false, "Overwrite existing files")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	root := cfg.ProjectRoot
	schemaPath := cfg.SchemaFile
	if schemaPath == "" {
		schemaPath = trackdir.SchemaPath(root)
	}
	configPath := filepath.Join(root, trackdir.ConfigFile)

	created, err := writeIfMissing(cfg.DataFile, *force, func(path string) error {
		return todo.New(path).Save()
	})
	if err != nil {
		return fmt.Errorf("creating task file: %w", err)
	}
	reportInit(cfg.DataFile, created)

	created, err = writeIfMissing(schemaPath, *force, func(path string) error {
		return writeFile(path, []byte(todo.SchemaJSON()))
	})
	if err != nil {
		return fmt.Errorf("creating schema file: %w", err)
	}
	reportInit(schemaPath, created)

	created, err = writeIfMissing(configPath, *force, func(path string) error {
		return writeFile(path, []byte(config.ExampleConfig()))
	})
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	reportInit(configPath, created)
	return nil
}

func writeIfMissing(path string, force bool, write func(string) error) (bool, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return false, err
		}
	}
	if err := write(path); err != nil {
		return false, err
	}
	return true, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func reportInit(path string, created bool) {
	if created {
		fmt.Fprintf(stdout, "Created %s\n", path)
		return
	}
	fmt.Fprintf(stdout, "Exists  %s (skipped)\n", path)
}

// validateCommand validates a task file against the schema and reports
// every violation.
func validateCommand(cfg *config.Config, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("unexpected arguments: %v", args[1:])
	}
	path := cfg.DataFile
	if len(args) == 1 {
		path = args[0]
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.ProjectRoot, path)
		}
	}

	result, err := todo.ValidateFile(path, cfg.SchemaFile)
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(stdout, "warning: %s\n", w)
	}
	if !result.Valid {
		for _, e := range result.Errors {
			fmt.Fprintf(stdout, "  - %v\n", e)
		}
		return fmt.Errorf("%s: %d validation error(s)", path, len(result.Errors))
	}
	fmt.Fprintf(stdout, "%s: valid (%d tasks)\n", path, result.Tasks)
	return nil
}

// schemaCommand prints the built-in JSON schema.
func schemaCommand(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	fmt.Fprint(stdout, todo.SchemaJSON())
	return nil
}
