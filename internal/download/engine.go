package download

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/0xsi23/kumo/internal/httpx"
)

// Config configures an Engine. Zero-valued fields take their defaults;
// negative values are rejected by New.
type Config struct {
	// MaxConcurrent bounds the number of jobs in flight at once.
	// Default 3. Keep this low: against anti-bot-sensitive hosts, high
	// parallelism is a correctness risk, not just a resource cost.
	MaxConcurrent int

	// DelayRange draws the jittered pacing delay before attempts.
	// nil means the default 1–3s; a range with Max <= 0 disables pacing.
	DelayRange *DelayRange

	// MaxRetries is the total number of attempts per job. Default 3.
	MaxRetries int

	// Timeout is the per-request timeout. Default 60s.
	Timeout time.Duration

	// DefaultHeaders are applied to every request, overridden by
	// job-specific headers on collisions.
	DefaultHeaders map[string]string

	// UserAgent is merged into DefaultHeaders unless one is already set.
	UserAgent string

	// Backoff ranges per failure kind. Zero values take the defaults
	// (429: 5–10s, 403: 2–4s, transient: 2–5s).
	RateLimitedBackoff DelayRange
	ForbiddenBackoff   DelayRange
	TransientBackoff   DelayRange

	// OnProgress receives human-readable engine activity. Optional.
	OnProgress func(ProgressEvent)
}

// Stats is a snapshot of an engine's lifetime counters. Counters only
// grow; downloaded+failed equals the number of jobs that reached a
// terminal state, and every job is counted exactly once.
type Stats struct {
	Downloaded uint64
	Failed     uint64

	// Bytes is the total number of body bytes received, updated while
	// transfers are in flight. It includes bytes of attempts whose
	// write later failed.
	Bytes uint64
}

// Total returns the number of jobs that reached a terminal state.
func (s Stats) Total() uint64 {
	return s.Downloaded + s.Failed
}

// Engine drives batches of download jobs to completion with bounded
// concurrency, jittered pacing, retry with backoff and per-job callbacks.
//
// One limiter slot is held for a job's entire retry loop, first attempt to
// terminal state. This keeps the number of jobs the remote host ever sees
// at once bounded by MaxConcurrent, at the cost of throughput while a slow
// job backs off.
type Engine struct {
	maxConcurrent int
	fetcher       Fetcher
	pacer         Pacer
	retry         RetryPolicy
	sem           *semaphore.Weighted
	onProgress    func(ProgressEvent)

	downloaded atomic.Uint64
	failed     atomic.Uint64
	bytes      atomic.Uint64
}

// defaultDelayRange is the pacing window applied when none is configured.
var defaultDelayRange = DelayRange{Min: time.Second, Max: 3 * time.Second}

// New validates cfg and builds an Engine. Configuration mistakes are the
// only errors that surface here; individual job failures never do.
func New(cfg Config) (*Engine, error) {
	if cfg.MaxConcurrent < 0 {
		return nil, fmt.Errorf("download: MaxConcurrent must be >= 1, got %d", cfg.MaxConcurrent)
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("download: MaxRetries must be >= 1, got %d", cfg.MaxRetries)
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("download: Timeout must be positive, got %v", cfg.Timeout)
	}

	if cfg.MaxConcurrent == 0 {
		cfg.MaxConcurrent = 3
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	delayRange := defaultDelayRange
	if cfg.DelayRange != nil {
		delayRange = *cfg.DelayRange
	}

	retry := defaultRetryPolicy(cfg.MaxRetries)
	if cfg.RateLimitedBackoff != (DelayRange{}) {
		retry.RateLimitedBackoff = cfg.RateLimitedBackoff
	}
	if cfg.ForbiddenBackoff != (DelayRange{}) {
		retry.ForbiddenBackoff = cfg.ForbiddenBackoff
	}
	if cfg.TransientBackoff != (DelayRange{}) {
		retry.TransientBackoff = cfg.TransientBackoff
	}

	headers := make(map[string]string, len(cfg.DefaultHeaders)+1)
	for k, v := range cfg.DefaultHeaders {
		headers[k] = v
	}
	if _, ok := headers["User-Agent"]; !ok {
		ua := cfg.UserAgent
		if ua == "" {
			ua = httpx.DefaultUserAgent
		}
		headers["User-Agent"] = ua
	}

	e := &Engine{
		maxConcurrent: cfg.MaxConcurrent,
		pacer:         NewPacer(delayRange),
		retry:         retry,
		sem:           semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		onProgress:    cfg.OnProgress,
	}
	e.fetcher = &httpFetcher{
		client:         httpx.NewClient(cfg.Timeout),
		defaultHeaders: headers,
		onBytes: func(delta int64) {
			if delta > 0 {
				e.bytes.Add(uint64(delta))
			}
		},
	}
	return e, nil
}

// Stats returns a snapshot of the engine's lifetime counters. Safe to
// call at any time, including while a batch is running.
func (e *Engine) Stats() Stats {
	return Stats{
		Downloaded: e.downloaded.Load(),
		Failed:     e.failed.Load(),
		Bytes:      e.bytes.Load(),
	}
}

// DownloadOne runs a single job through the full lifecycle: limiter slot,
// pacing, attempts, retries, terminal accounting and callback. Job failure
// is reported in the result, never as a panic or returned error.
func (e *Engine) DownloadOne(ctx context.Context, job *Job) *JobResult {
	return e.run(ctx, job)
}

// DownloadBatch runs all jobs with bounded concurrency and returns the
// per-batch (downloaded, failed) counts once every job has reached a
// terminal state. Individual failures never abort the batch. Lifetime
// stats are updated cumulatively.
func (e *Engine) DownloadBatch(ctx context.Context, jobs []*Job) (downloaded, failed int) {
	if len(jobs) == 0 {
		return 0, 0
	}
	e.progress(LevelInfo, "starting batch: %d jobs, %d at a time", len(jobs), e.maxConcurrent)

	var ok, bad atomic.Int64

	var g errgroup.Group
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			if e.run(ctx, job).Succeeded {
				ok.Add(1)
			} else {
				bad.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	downloaded, failed = int(ok.Load()), int(bad.Load())
	if failed == 0 {
		e.progress(LevelSuccess, "batch complete: downloaded all %d jobs", downloaded)
	} else {
		e.progress(LevelWarning, "batch complete: %d downloaded, %d failed", downloaded, failed)
	}
	return downloaded, failed
}

// run drives one job to its terminal state. The limiter slot is released
// before stats and callbacks so completion handling never extends slot
// occupancy.
func (e *Engine) run(ctx context.Context, job *Job) *JobResult {
	result := &JobResult{Job: job}

	if err := e.sem.Acquire(ctx, 1); err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("%w: %v", ErrCancelled, err))
	} else {
		e.attemptLoop(ctx, job, result)
		e.sem.Release(1)
	}

	e.finish(result)
	return result
}

// attemptLoop runs the pacing → fetch → retry cycle while the caller
// holds a limiter slot. Attempts within one job are strictly sequential.
func (e *Engine) attemptLoop(ctx context.Context, job *Job, result *JobResult) {
	// The retry backoff replaces the pacing draw for the attempt that
	// follows it; the first attempt always paces.
	wait := e.pacer.Delay()

	for attempt := 0; attempt < e.retry.MaxRetries; attempt++ {
		if err := sleep(ctx, wait); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("%w: %v", ErrCancelled, err))
			return
		}

		result.Attempts++
		out := e.fetcher.Fetch(ctx, job)
		if out.Kind == KindSuccess {
			result.Succeeded = true
			e.progress(LevelVerbose, "downloaded %s (%d bytes, attempt %d)", job.URL, out.Bytes, result.Attempts)
			return
		}

		result.Errors = append(result.Errors, out.Err)
		if ctx.Err() != nil {
			return
		}

		retry, backoff := e.retry.Decide(out, attempt)
		if !retry {
			return
		}
		e.progress(LevelWarning, "retrying %s after %s failure (attempt %d/%d)", job.URL, out.Kind, result.Attempts, e.retry.MaxRetries)
		wait = backoff
	}
}

// finish performs terminal accounting and fires exactly one callback.
func (e *Engine) finish(result *JobResult) {
	if result.Succeeded {
		e.downloaded.Add(1)
		if result.Job.OnSuccess != nil {
			result.Job.OnSuccess()
		}
		return
	}

	e.failed.Add(1)
	err := result.Err()
	e.progress(LevelError, "%v", err)
	if result.Job.OnError != nil {
		result.Job.OnError(err)
	}
}
