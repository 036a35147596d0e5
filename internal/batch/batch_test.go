package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/speechfoundry/chorus/internal/tts"
)

func newRunner() *Runner {
	return NewRunner(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func makeJobs(texts ...string) []Job {
	jobs := make([]Job, len(texts))
	for i, text := range texts {
		jobs[i] = Job{Name: fmt.Sprintf("item_%04d", i), Request: tts.Request{Text: text}}
	}
	return jobs
}

func TestRunReturnsAllOrdinals(t *testing.T) {
	jobs := make([]Job, 50)
	for i := range jobs {
		jobs[i] = Job{Request: tts.Request{Text: fmt.Sprintf("text %d", i)}}
	}
	work := func(ctx context.Context, job Job) (Outcome, error) {
		// Vary completion order.
		time.Sleep(time.Duration(job.Ordinal%7) * time.Millisecond)
		return Outcome{Locator: fmt.Sprintf("out/%d", job.Ordinal)}, nil
	}

	results := newRunner().Run(context.Background(), jobs, work, Options{Concurrency: 8, ContinueOnError: true})
	if len(results) != 50 {
		t.Fatalf("expected 50 results, got %d", len(results))
	}
	for i, res := range results {
		if res.Ordinal != i {
			t.Fatalf("result %d carries ordinal %d", i, res.Ordinal)
		}
		if res.Status != StatusSuccess {
			t.Fatalf("result %d not successful: %+v", i, res)
		}
		if res.Outcome.Locator != fmt.Sprintf("out/%d", i) {
			t.Fatalf("result %d has wrong locator %q", i, res.Outcome.Locator)
		}
	}
}

func TestRunLeavesCallerJobsUntouched(t *testing.T) {
	jobs := makeJobs("one", "two", "three")
	for i := range jobs {
		jobs[i].Ordinal = 99
	}
	work := func(ctx context.Context, job Job) (Outcome, error) {
		return Outcome{}, nil
	}

	newRunner().Run(context.Background(), jobs, work, Options{Concurrency: 2, ContinueOnError: true})
	for i, job := range jobs {
		if job.Ordinal != 99 {
			t.Fatalf("job %d ordinal rewritten to %d", i, job.Ordinal)
		}
	}
}

func TestRunRespectsConcurrencyBound(t *testing.T) {
	const limit = 3
	var inFlight, peak int64
	var mu sync.Mutex

	work := func(ctx context.Context, job Job) (Outcome, error) {
		cur := atomic.AddInt64(&inFlight, 1)
		mu.Lock()
		if cur > peak {
			peak = cur
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return Outcome{}, nil
	}

	jobs := make([]Job, 20)
	for i := range jobs {
		jobs[i] = Job{Request: tts.Request{Text: "x"}}
	}
	newRunner().Run(context.Background(), jobs, work, Options{Concurrency: limit, ContinueOnError: true})

	mu.Lock()
	defer mu.Unlock()
	if peak > limit {
		t.Fatalf("concurrency bound violated: peak %d > limit %d", peak, limit)
	}
}

func TestRunEmptyInputRejectedWithoutAdapterCall(t *testing.T) {
	var calls atomic.Int32
	work := func(ctx context.Context, job Job) (Outcome, error) {
		calls.Add(1)
		return Outcome{}, nil
	}

	jobs := makeJobs("hello", "", "world")
	results := newRunner().Run(context.Background(), jobs, work, Options{Concurrency: 2, ContinueOnError: true})

	if results[1].Status != StatusFailure {
		t.Fatalf("expected failure for empty input, got %+v", results[1])
	}
	if results[1].ErrKind != tts.KindInvalidInput {
		t.Fatalf("expected InvalidInput kind, got %s", results[1].ErrKind)
	}
	if results[0].Status != StatusSuccess || results[2].Status != StatusSuccess {
		t.Fatalf("expected neighbours to succeed: %+v", results)
	}
	if calls.Load() != 2 {
		t.Fatalf("adapter should be called twice, got %d", calls.Load())
	}
}

func TestRunFailureIsolation(t *testing.T) {
	work := func(ctx context.Context, job Job) (Outcome, error) {
		if job.Ordinal == 3 {
			return Outcome{}, tts.NewError(tts.KindQuota, "quota exceeded", nil)
		}
		return Outcome{Locator: "ok"}, nil
	}

	jobs := makeJobs("a", "b", "c", "d", "e", "f")
	results := newRunner().Run(context.Background(), jobs, work, Options{Concurrency: 2, ContinueOnError: true})

	for i, res := range results {
		if i == 3 {
			if res.Status != StatusFailure || res.ErrKind != tts.KindQuota {
				t.Fatalf("expected quota failure at 3, got %+v", res)
			}
			continue
		}
		if res.Status != StatusSuccess {
			t.Fatalf("failure leaked into job %d: %+v", i, res)
		}
	}
}

func TestRunStopsOnFailure(t *testing.T) {
	var dispatched atomic.Int32
	work := func(ctx context.Context, job Job) (Outcome, error) {
		dispatched.Add(1)
		time.Sleep(2 * time.Millisecond)
		if job.Ordinal == 2 {
			return Outcome{}, tts.NewError(tts.KindAuth, "provider rejected credentials", nil)
		}
		return Outcome{}, nil
	}

	jobs := make([]Job, 10)
	for i := range jobs {
		jobs[i] = Job{Request: tts.Request{Text: "x"}}
	}
	results := newRunner().Run(context.Background(), jobs, work, Options{Concurrency: 2, ContinueOnError: false})

	if len(results) != 10 {
		t.Fatalf("expected a slot for every job, got %d", len(results))
	}
	var attempted, skipped int
	for _, res := range results {
		switch res.Status {
		case StatusSkipped:
			skipped++
			if res.ErrMessage != "not attempted" {
				t.Fatalf("skipped job missing marker: %+v", res)
			}
		default:
			attempted++
		}
	}
	if attempted < 3 {
		t.Fatalf("expected at least 3 attempted jobs, got %d", attempted)
	}
	if skipped == 0 {
		t.Fatal("expected undispatched jobs to be marked skipped")
	}
	if int(dispatched.Load()) != attempted {
		t.Fatalf("attempted count %d disagrees with dispatched %d", attempted, dispatched.Load())
	}
	if results[2].Status != StatusFailure || results[2].ErrKind != tts.KindAuth {
		t.Fatalf("expected auth failure at ordinal 2, got %+v", results[2])
	}
}

func TestRunTimeoutBecomesTimeoutResult(t *testing.T) {
	work := func(ctx context.Context, job Job) (Outcome, error) {
		select {
		case <-ctx.Done():
			return Outcome{}, ctx.Err()
		case <-time.After(time.Second):
			return Outcome{}, nil
		}
	}

	jobs := makeJobs("slow", "fast")
	fast := func(ctx context.Context, job Job) (Outcome, error) {
		if job.Ordinal == 1 {
			return Outcome{Locator: "ok"}, nil
		}
		return work(ctx, job)
	}

	results := newRunner().Run(context.Background(), jobs, fast, Options{
		Concurrency:     2,
		ContinueOnError: true,
		CallTimeout:     10 * time.Millisecond,
	})

	if results[0].Status != StatusFailure || results[0].ErrKind != tts.KindTimeout {
		t.Fatalf("expected timeout failure, got %+v", results[0])
	}
	if results[1].Status != StatusSuccess {
		t.Fatalf("timeout must not abort the batch: %+v", results[1])
	}
}

func TestRunProgressSeesEveryCompletion(t *testing.T) {
	var mu sync.Mutex
	seen := map[int]bool{}

	jobs := makeJobs("a", "b", "c", "d")
	work := func(ctx context.Context, job Job) (Outcome, error) {
		return Outcome{}, nil
	}
	newRunner().Run(context.Background(), jobs, work, Options{
		Concurrency:     4,
		ContinueOnError: true,
		Progress: func(res Result) {
			mu.Lock()
			seen[res.Ordinal] = true
			mu.Unlock()
		},
	})

	if len(seen) != 4 {
		t.Fatalf("expected progress for 4 jobs, got %d", len(seen))
	}
}

func TestRunEmptyBatch(t *testing.T) {
	results := newRunner().Run(context.Background(), nil, func(ctx context.Context, job Job) (Outcome, error) {
		return Outcome{}, nil
	}, Options{Concurrency: 2})
	if results != nil {
		t.Fatalf("expected nil results for empty batch, got %v", results)
	}
}
