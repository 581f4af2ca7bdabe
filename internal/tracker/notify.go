package tracker

import (
	"context"

	"github.com/nibzard/tasktrack/internal/hooks"
	"github.com/nibzard/tasktrack/internal/logging"
)

// WithJournal appends a record to j for every mutation. Journal write
// failures are logged and otherwise ignored.
func WithJournal(j *logging.Journal) Option {
	return func(c *Coordinator) {
		if j == nil {
			return
		}
		c.listeners = append(c.listeners, func(ctx context.Context, ev Event) {
			rec := logging.Record{
				RequestID:  logging.RequestID(ctx),
				Op:         ev.Op,
				Index:      ev.Index,
				Outcome:    string(ev.Outcome.Kind),
				Message:    ev.Outcome.Message(),
				Changed:    ev.Outcome.Changed(),
				Tasks:      ev.Outcome.Len,
				DurationMS: ev.Duration.Milliseconds(),
			}
			if ev.Err != nil {
				rec.Error = ev.Err.Error()
			}
			if err := j.Record(rec); err != nil {
				c.logger.Warn("write journal record", "path", j.LogPath, "err", err)
			}
		})
	}
}

// WithHook runs the configured hook command after every mutation that
// changed the collection.
func WithHook(opts hooks.Options) Option {
	return func(c *Coordinator) {
		if opts.Command == "" {
			return
		}
		if opts.DataFile == "" {
			opts.DataFile = c.path
		}
		c.listeners = append(c.listeners, func(ctx context.Context, ev Event) {
			if ev.Err != nil {
				return
			}
			_, err := hooks.Invoke(ctx, opts, hooks.Event{
				Op:      ev.Op,
				Index:   ev.Index,
				Outcome: string(ev.Outcome.Kind),
				Changed: ev.Outcome.Changed(),
			})
			if err != nil {
				c.logger.Warn("post-mutation hook", "command", opts.Command, "op", ev.Op, "err", err)
			}
		})
	}
}
