package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// pollInterval is the follow fallback when a file watcher is unavailable.
const pollInterval = 250 * time.Millisecond

// TailLog copies the last n lines of path to w (all lines when n <= 0). With
// follow it keeps copying appended data until ctx is cancelled.
func TailLog(ctx context.Context, w io.Writer, path string, n int, follow bool) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if n > 0 {
		if err := seekLastLines(file, n); err != nil {
			return fmt.Errorf("seek to tail position: %w", err)
		}
	}
	if _, err := io.Copy(w, file); err != nil {
		return err
	}
	if !follow {
		return nil
	}
	return followFile(ctx, w, file)
}

// seekLastLines positions file at the start of its last n lines.
func seekLastLines(file *os.File, n int) error {
	const chunk = 4096

	stat, err := file.Stat()
	if err != nil {
		return err
	}
	size := stat.Size()
	if size == 0 {
		return nil
	}

	// A trailing newline terminates the last line rather than starting a new one.
	end := size
	last := make([]byte, 1)
	if _, err := file.ReadAt(last, size-1); err != nil {
		return err
	}
	if last[0] == '\n' {
		end--
	}

	buf := make([]byte, chunk)
	newlines := 0
	pos := end
	for pos > 0 {
		readSize := int64(chunk)
		if pos < readSize {
			readSize = pos
		}
		pos -= readSize
		if _, err := file.ReadAt(buf[:readSize], pos); err != nil && err != io.EOF {
			return err
		}
		for i := readSize - 1; i >= 0; i-- {
			if buf[i] != '\n' {
				continue
			}
			newlines++
			if newlines == n {
				_, err := file.Seek(pos+i+1, io.SeekStart)
				return err
			}
		}
	}
	_, err = file.Seek(0, io.SeekStart)
	return err
}

func followFile(ctx context.Context, w io.Writer, file *os.File) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var events chan fsnotify.Event
	var errs chan error
	if watcher, err := fsnotify.NewWatcher(); err == nil {
		defer watcher.Close()
		if err := watcher.Add(file.Name()); err == nil {
			events = watcher.Events
			errs = watcher.Errors
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Op&fsnotify.Write == 0 {
				continue
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			return fmt.Errorf("watch log file: %w", err)
		case <-ticker.C:
		}
		if _, err := io.Copy(w, file); err != nil {
			return err
		}
	}
}
