package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/critic-dev/critic/internal/analysis"
	"github.com/critic-dev/critic/internal/providers"
)

const (
	// KindCancelled marks units skipped because the job was cancelled
	// before they started.
	KindCancelled = providers.Kind("cancelled")
	// KindInternal marks units whose runner panicked.
	KindInternal = providers.Kind("internal")
)

// DefaultConcurrency bounds in-flight units when no limit is given.
const DefaultConcurrency = 4

// Runner executes a single analysis request and always returns a
// result, reporting failures through the result's error field.
type Runner func(ctx context.Context, unit int, req analysis.Request) analysis.Result

// ProgressFunc receives one call per completed unit. Calls are
// serialized and completed increases by exactly one per call.
type ProgressFunc func(completed, total int, res analysis.Result)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConcurrency sets the maximum number of units in flight.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) { o.limit = n }
}

// WithProgress registers a per-unit completion callback.
func WithProgress(fn ProgressFunc) Option {
	return func(o *Orchestrator) { o.progress = fn }
}

// Orchestrator fans analysis requests out to a bounded pool of workers.
type Orchestrator struct {
	runner   Runner
	limit    int
	progress ProgressFunc
}

// NewOrchestrator creates an orchestrator around the given runner.
func NewOrchestrator(runner Runner, opts ...Option) (*Orchestrator, error) {
	if runner == nil {
		return nil, fmt.Errorf("batch: runner is required")
	}
	o := &Orchestrator{runner: runner, limit: DefaultConcurrency}
	for _, opt := range opts {
		opt(o)
	}
	if o.limit < 1 {
		return nil, fmt.Errorf("batch: concurrency must be at least 1, got %d", o.limit)
	}
	return o, nil
}

// Job tracks one submitted batch until every unit has a recorded
// outcome.
type Job struct {
	ID       string
	requests []analysis.Request

	mu        sync.Mutex
	results   map[int]analysis.Result
	order     []int
	completed int

	cancelled atomic.Bool
	done      chan struct{}
}

// Submit starts a batch over the given requests and returns
// immediately. The batch keeps running until all units complete or ctx
// is cancelled.
func (o *Orchestrator) Submit(ctx context.Context, reqs []analysis.Request) (*Job, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("batch: no requests")
	}

	job := &Job{
		ID:       uuid.NewString(),
		requests: reqs,
		results:  make(map[int]analysis.Result, len(reqs)),
		done:     make(chan struct{}),
	}

	slog.Debug("batch submitted", "job", job.ID, "units", len(reqs), "concurrency", o.limit)

	events := make(chan analysis.Result)
	go o.collect(job, events)
	go o.dispatch(ctx, job, events)

	return job, nil
}

// dispatch walks the input in order, holding at most limit units in
// flight. Cancelled or unstarted units still produce a result so the
// collector sees exactly one event per unit.
func (o *Orchestrator) dispatch(ctx context.Context, job *Job, events chan<- analysis.Result) {
	sem := make(chan struct{}, o.limit)
	var wg sync.WaitGroup

	for i, req := range job.requests {
		if job.cancelled.Load() || ctx.Err() != nil {
			events <- skippedResult(i, req.Label)
			continue
		}

		sem <- struct{}{}

		// The flag may flip while waiting for a slot.
		if job.cancelled.Load() || ctx.Err() != nil {
			<-sem
			events <- skippedResult(i, req.Label)
			continue
		}

		wg.Add(1)
		go func(unit int, req analysis.Request) {
			defer wg.Done()
			defer func() { <-sem }()
			events <- o.runUnit(ctx, unit, req)
		}(i, req)
	}

	wg.Wait()
	close(events)
}

// runUnit invokes the runner with panic isolation. A panicking unit is
// recorded as failed without taking the batch down.
func (o *Orchestrator) runUnit(ctx context.Context, unit int, req analysis.Request) (res analysis.Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("unit panicked", "unit", unit, "label", req.Label, "panic", r)
			res = analysis.Result{
				Unit:   unit,
				Label:  req.Label,
				Status: analysis.StatusFailed,
				Err: &analysis.ErrorInfo{
					Kind:    KindInternal,
					Message: fmt.Sprintf("panic: %v", r),
				},
			}
		}
	}()
	return o.runner(ctx, unit, req)
}

// collect is the only goroutine that mutates job state, which keeps
// progress callbacks serialized.
func (o *Orchestrator) collect(job *Job, events <-chan analysis.Result) {
	for res := range events {
		job.mu.Lock()
		if _, dup := job.results[res.Unit]; dup {
			job.mu.Unlock()
			slog.Warn("duplicate result dropped", "job", job.ID, "unit", res.Unit)
			continue
		}
		job.results[res.Unit] = res
		job.order = append(job.order, res.Unit)
		job.completed++
		completed := job.completed
		job.mu.Unlock()

		if o.progress != nil {
			o.progress(completed, len(job.requests), res)
		}
	}
	close(job.done)
}

func skippedResult(unit int, label string) analysis.Result {
	return analysis.Result{
		Unit:   unit,
		Label:  label,
		Status: analysis.StatusFailed,
		Err: &analysis.ErrorInfo{
			Kind:    KindCancelled,
			Message: "job cancelled before unit started",
		},
	}
}

// Cancel requests cooperative cancellation. Units already in flight
// run to completion; unstarted units are recorded as cancelled.
// Cancel is idempotent.
func (j *Job) Cancel() {
	if j.cancelled.CompareAndSwap(false, true) {
		slog.Info("job cancelled", "job", j.ID)
	}
}

// Cancelled reports whether Cancel has been called.
func (j *Job) Cancelled() bool { return j.cancelled.Load() }

// Done returns a channel closed once every unit has a recorded result.
func (j *Job) Done() <-chan struct{} { return j.done }

// Wait blocks until the batch finishes or ctx expires.
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Progress returns the number of completed units and the total.
func (j *Job) Progress() (completed, total int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.completed, len(j.requests)
}

// Results returns one result per input unit, in input order. Call
// after Done; units still in flight are absent from the slice.
func (j *Job) Results() []analysis.Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]analysis.Result, 0, len(j.results))
	for i := range j.requests {
		if res, ok := j.results[i]; ok {
			out = append(out, res)
		}
	}
	return out
}

// CompletionOrder returns unit indexes in the order they finished.
func (j *Job) CompletionOrder() []int {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]int, len(j.order))
	copy(out, j.order)
	return out
}
