package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/nibzard/tasktrack/internal/config"
	"github.com/nibzard/tasktrack/internal/logging"
)

// tailCommand tails the latest journal for the configured data file.
func tailCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasktrack tail", flag.ContinueOnError)
	fs.SetOutput(stderr)
	follow := fs.Bool("f", false, "Follow the journal (like tail -f)")
	fs.BoolVar(follow, "follow", false, "Follow the journal (like tail -f)")
	n := fs.Int("n", 0, "Number of lines to show (0 = all)")
	list := fs.Bool("list", false, "List journal files instead of tailing")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	logDir, err := logging.FindLogDir(cfg.LogDir, cfg.DataFile)
	if err != nil {
		return fmt.Errorf("finding log directory: %w", err)
	}

	if *list {
		files, err := logging.FindJournals(logDir)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Fprintln(stdout, "No journal files found.")
			return nil
		}
		for _, f := range files {
			fmt.Fprintf(stdout, "%s  %s  %6d bytes  %s\n", f.ModTime.Format("2006-01-02 15:04:05"), f.RunID, f.Size, f.Path)
		}
		return nil
	}

	logPath, err := logging.FindLatestLog(logDir)
	if err != nil {
		return fmt.Errorf("finding latest journal: %w", err)
	}
	if logPath == "" {
		fmt.Fprintln(stdout, "No journal files found.")
		return nil
	}

	fmt.Fprintf(stdout, "Tailing: %s\n", logPath)
	if *follow {
		fmt.Fprintln(stdout, "(Ctrl+C to stop)")
	}
	fmt.Fprintln(stdout)

	return logging.TailLog(ctx, stdout, logPath, *n, *follow)
}
