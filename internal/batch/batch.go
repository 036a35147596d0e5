// Package batch schedules synthesis jobs across a bounded worker pool
// and collects per-job results in submission order.
package batch

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/speechfoundry/chorus/internal/tts"
)

// Status reports how a job ended.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	// StatusSkipped marks jobs the dispatcher never handed out after an
	// earlier failure stopped the run. Distinct from a failure.
	StatusSkipped Status = "skipped"
)

// Job is one unit of synthesis work. Ordinal is its zero-based position
// within the batch and determines result ordering.
type Job struct {
	Ordinal int
	Name    string
	Request tts.Request
}

// Outcome carries the artifact produced for a successful job.
type Outcome struct {
	Locator        string
	LocalPath      string
	Audio          []byte
	Duration       time.Duration
	CharacterCount int
	ProcessingTime time.Duration
}

// Result is the exactly-once record for one job.
type Result struct {
	Ordinal    int
	Name       string
	Status     Status
	Outcome    Outcome
	ErrKind    tts.Kind
	ErrMessage string
}

// WorkFunc synthesizes and stores one job, returning its outcome. The
// context carries the per-call timeout.
type WorkFunc func(ctx context.Context, job Job) (Outcome, error)

// Options controls scheduling for one run.
type Options struct {
	Concurrency     int
	ContinueOnError bool
	CallTimeout     time.Duration
	// Progress, when set, is called once per job as results arrive, in
	// completion order. Calls are serialized.
	Progress func(Result)
}

// Runner executes batches. Safe for concurrent use.
type Runner struct {
	log *slog.Logger
}

func NewRunner(log *slog.Logger) *Runner {
	return &Runner{log: log.With(slog.String("component", "batch"))}
}

// Run dispatches jobs to a pool of Options.Concurrency workers and
// returns one Result per job, ordered by ordinal. With
// ContinueOnError=false the dispatcher stops handing out jobs after the
// first observed failure; in-flight jobs still finish and undispatched
// jobs come back as StatusSkipped.
func (r *Runner) Run(ctx context.Context, jobs []Job, work WorkFunc, opts Options) []Result {
	n := len(jobs)
	if n == 0 {
		return nil
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > n {
		concurrency = n
	}

	// Ordinals are positional, assigned on a private copy so the
	// caller's slice is never written to.
	owned := make([]Job, n)
	copy(owned, jobs)

	// Pre-size the slot table; each worker writes only the slot for the
	// job it owns, so no two goroutines touch the same index.
	results := make([]Result, n)
	for i := range results {
		owned[i].Ordinal = i
		results[i] = Result{
			Ordinal:    i,
			Name:       owned[i].Name,
			Status:     StatusSkipped,
			ErrMessage: "not attempted",
		}
	}

	jobCh := make(chan int)
	var failed atomic.Bool
	var progressMu sync.Mutex
	var wg sync.WaitGroup

	report := func(res Result) {
		if opts.Progress == nil {
			return
		}
		progressMu.Lock()
		defer progressMu.Unlock()
		opts.Progress(res)
	}

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobCh {
				res := r.execute(ctx, owned[idx], work, opts.CallTimeout)
				results[idx] = res
				if res.Status == StatusFailure {
					failed.Store(true)
				}
				report(res)
			}
		}()
	}

dispatch:
	for i := range owned {
		if !opts.ContinueOnError && failed.Load() {
			r.log.Warn("stopping batch after failure",
				slog.Int("dispatched", i),
				slog.Int("total", n))
			break
		}
		select {
		case jobCh <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobCh)
	wg.Wait()

	return results
}

func (r *Runner) execute(ctx context.Context, job Job, work WorkFunc, timeout time.Duration) Result {
	if strings.TrimSpace(job.Request.Payload()) == "" {
		return Result{
			Ordinal:    job.Ordinal,
			Name:       job.Name,
			Status:     StatusFailure,
			ErrKind:    tts.KindInvalidInput,
			ErrMessage: "skipped: empty input",
		}
	}

	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	outcome, err := work(callCtx, job)
	if err != nil {
		kind := tts.KindOf(err)
		if errors.Is(err, context.DeadlineExceeded) {
			kind = tts.KindTimeout
		}
		r.log.Warn("job failed",
			slog.Int("ordinal", job.Ordinal),
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()))
		return Result{
			Ordinal:    job.Ordinal,
			Name:       job.Name,
			Status:     StatusFailure,
			ErrKind:    kind,
			ErrMessage: tts.MessageOf(err),
		}
	}

	return Result{
		Ordinal: job.Ordinal,
		Name:    job.Name,
		Status:  StatusSuccess,
		Outcome: outcome,
	}
}
