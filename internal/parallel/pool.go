package parallel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nibzard/tasktrack/internal/todo"
)

// Job is one tracker operation run by a Pool. It receives the pool context.
type Job func(ctx context.Context) (todo.Outcome, error)

// Result is the outcome of one submitted job. Skipped is set when the pool
// was cancelled before the job started.
type Result struct {
	ID       string
	Outcome  todo.Outcome
	Error    error
	Duration time.Duration
	Skipped  bool
}

// Pool runs jobs with bounded concurrency and keeps their results in
// submission order.
type Pool struct {
	ctx      context.Context
	cancel   context.CancelFunc
	slots    chan struct{} // nil when unbounded
	failFast bool

	wg      sync.WaitGroup
	mu      sync.Mutex
	results []Result
}

// NewPool creates a pool running at most workers jobs at once. Zero or a
// negative count means unbounded. With failFast the first failing job
// cancels every job that has not started yet.
func NewPool(ctx context.Context, workers int, failFast bool) *Pool {
	ctx, cancel := context.WithCancel(ctx)
	p := &Pool{ctx: ctx, cancel: cancel, failFast: failFast}
	if workers > 0 {
		p.slots = make(chan struct{}, workers)
	}
	return p
}

// Go schedules job under id. It reports false, and drops the job, once the
// pool has been cancelled.
func (p *Pool) Go(id string, job Job) bool {
	if p.ctx.Err() != nil {
		return false
	}

	p.mu.Lock()
	slot := len(p.results)
	p.results = append(p.results, Result{ID: id})
	p.mu.Unlock()

	p.wg.Add(1)
	go p.run(slot, job)
	return true
}

func (p *Pool) run(slot int, job Job) {
	defer p.wg.Done()

	if p.slots != nil {
		select {
		case p.slots <- struct{}{}:
			defer func() { <-p.slots }()
		case <-p.ctx.Done():
			p.skip(slot)
			return
		}
	}
	if p.ctx.Err() != nil {
		p.skip(slot)
		return
	}

	start := time.Now()
	out, err := job(p.ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	r := &p.results[slot]
	r.Outcome, r.Error, r.Duration = out, err, time.Since(start)
	if err != nil && p.failFast {
		p.cancel()
	}
}

func (p *Pool) skip(slot int) {
	p.mu.Lock()
	p.results[slot].Skipped = true
	p.mu.Unlock()
}

// Wait blocks until every scheduled job has finished or been skipped and
// returns the results in submission order. The pool cannot be reused.
func (p *Pool) Wait() []Result {
	p.wg.Wait()
	p.cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Result, len(p.results))
	copy(out, p.results)
	return out
}

// Failed returns the errors of failed results, each prefixed with its job ID.
func Failed(results []Result) []error {
	var errs []error
	for _, r := range results {
		if r.Error != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.ID, r.Error))
		}
	}
	return errs
}
