package batch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/critic-dev/critic/internal/analysis"
)

func testRequests(t *testing.T, n int) []analysis.Request {
	t.Helper()
	reqs := make([]analysis.Request, 0, n)
	for i := 0; i < n; i++ {
		req, err := analysis.NewRequest(
			"unit", "class C {}", []analysis.Category{analysis.CategorySecurity},
			analysis.Params{
				Provider:    "openai",
				Model:       "gpt-4o-mini",
				Temperature: 0.7,
				MaxTokens:   1024,
				Timeout:     time.Second,
			})
		if err != nil {
			t.Fatalf("NewRequest: %v", err)
		}
		reqs = append(reqs, req)
	}
	return reqs
}

func okRunner(ctx context.Context, unit int, req analysis.Request) analysis.Result {
	return analysis.Result{Unit: unit, Label: req.Label, Status: analysis.StatusSuccess}
}

func TestOrchestrator_Validation(t *testing.T) {
	if _, err := NewOrchestrator(nil); err == nil {
		t.Error("expected error for nil runner")
	}
	if _, err := NewOrchestrator(okRunner, WithConcurrency(0)); err == nil {
		t.Error("expected error for zero concurrency")
	}
	o, err := NewOrchestrator(okRunner)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	if _, err := o.Submit(context.Background(), nil); err == nil {
		t.Error("expected error for empty batch")
	}
}

func TestSubmit_AllUnitsComplete(t *testing.T) {
	const n = 12
	o, err := NewOrchestrator(okRunner, WithConcurrency(3))
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	job, err := o.Submit(context.Background(), testRequests(t, n))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := job.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	results := job.Results()
	if len(results) != n {
		t.Fatalf("expected %d results, got %d", n, len(results))
	}
	for i, res := range results {
		if res.Unit != i {
			t.Errorf("result %d out of input order: unit %d", i, res.Unit)
		}
		if res.Status != analysis.StatusSuccess {
			t.Errorf("unit %d not successful: %+v", i, res)
		}
	}
}

func TestSubmit_ProgressSerializedAndComplete(t *testing.T) {
	const n = 10
	var mu sync.Mutex
	var seen []int

	progress := func(completed, total int, res analysis.Result) {
		mu.Lock()
		defer mu.Unlock()
		if total != n {
			t.Errorf("total = %d, want %d", total, n)
		}
		seen = append(seen, completed)
	}

	o, err := NewOrchestrator(okRunner, WithConcurrency(4), WithProgress(progress))
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	job, err := o.Submit(context.Background(), testRequests(t, n))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := job.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != n {
		t.Fatalf("expected %d progress calls, got %d", n, len(seen))
	}
	for i, c := range seen {
		if c != i+1 {
			t.Fatalf("progress counter not monotone: %v", seen)
		}
	}
}

func TestSubmit_ConcurrencyCeiling(t *testing.T) {
	const n, limit = 20, 3
	var active, peak atomic.Int64

	runner := func(ctx context.Context, unit int, req analysis.Request) analysis.Result {
		cur := active.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		return analysis.Result{Unit: unit, Status: analysis.StatusSuccess}
	}

	o, err := NewOrchestrator(runner, WithConcurrency(limit))
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	job, err := o.Submit(context.Background(), testRequests(t, n))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := job.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if p := peak.Load(); p > limit {
		t.Errorf("observed %d units in flight, limit is %d", p, limit)
	}
}

func TestJob_Cancel(t *testing.T) {
	const n = 8
	started := make(chan int, n)
	release := make(chan struct{})

	runner := func(ctx context.Context, unit int, req analysis.Request) analysis.Result {
		started <- unit
		<-release
		return analysis.Result{Unit: unit, Status: analysis.StatusSuccess}
	}

	var progressCalls atomic.Int64
	progress := func(completed, total int, res analysis.Result) {
		progressCalls.Add(1)
	}

	o, err := NewOrchestrator(runner, WithConcurrency(2), WithProgress(progress))
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	job, err := o.Submit(context.Background(), testRequests(t, n))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// Wait for the first two units to be in flight, then cancel.
	<-started
	<-started
	job.Cancel()
	job.Cancel() // idempotent
	close(release)

	if err := job.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !job.Cancelled() {
		t.Error("Cancelled() = false after Cancel")
	}

	results := job.Results()
	if len(results) != n {
		t.Fatalf("expected %d results, got %d", n, len(results))
	}
	var ok, skipped int
	for _, res := range results {
		switch {
		case res.Status == analysis.StatusSuccess:
			ok++
		case res.Err != nil && res.Err.Kind == KindCancelled:
			skipped++
		default:
			t.Errorf("unexpected outcome: %+v", res)
		}
	}
	if ok < 2 {
		t.Errorf("in-flight units should finish, got %d successes", ok)
	}
	if skipped == 0 {
		t.Error("expected some units recorded as cancelled")
	}
	if ok+skipped != n {
		t.Errorf("outcomes do not cover the batch: %d + %d != %d", ok, skipped, n)
	}
	if c := progressCalls.Load(); c != n {
		t.Errorf("progress fired %d times, want %d (cancelled units included)", c, n)
	}
}

func TestSubmit_PanicIsolated(t *testing.T) {
	runner := func(ctx context.Context, unit int, req analysis.Request) analysis.Result {
		if unit == 1 {
			panic("boom")
		}
		return analysis.Result{Unit: unit, Status: analysis.StatusSuccess}
	}

	o, err := NewOrchestrator(runner, WithConcurrency(2))
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	job, err := o.Submit(context.Background(), testRequests(t, 3))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := job.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	results := job.Results()
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	bad := results[1]
	if bad.Status != analysis.StatusFailed || bad.Err == nil || bad.Err.Kind != KindInternal {
		t.Errorf("panicking unit not recorded as internal failure: %+v", bad)
	}
	if results[0].Status != analysis.StatusSuccess || results[2].Status != analysis.StatusSuccess {
		t.Error("panic leaked into neighboring units")
	}
}

func TestJob_WaitHonorsContext(t *testing.T) {
	release := make(chan struct{})
	runner := func(ctx context.Context, unit int, req analysis.Request) analysis.Result {
		<-release
		return analysis.Result{Unit: unit, Status: analysis.StatusSuccess}
	}
	o, err := NewOrchestrator(runner)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	job, err := o.Submit(context.Background(), testRequests(t, 1))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := job.Wait(ctx); err != context.DeadlineExceeded {
		t.Errorf("Wait error = %v, want deadline exceeded", err)
	}
	close(release)
	if err := job.Wait(context.Background()); err != nil {
		t.Fatalf("second Wait: %v", err)
	}
}

func TestJob_ProgressCounter(t *testing.T) {
	o, err := NewOrchestrator(okRunner)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	job, err := o.Submit(context.Background(), testRequests(t, 5))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := job.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	completed, total := job.Progress()
	if completed != 5 || total != 5 {
		t.Errorf("Progress() = %d/%d, want 5/5", completed, total)
	}
	if len(job.CompletionOrder()) != 5 {
		t.Errorf("completion order incomplete: %v", job.CompletionOrder())
	}
}
