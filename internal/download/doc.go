// Package download implements the concurrent, rate-limited download
// engine at the heart of kumo.
//
// # Engine
//
// The Engine accepts batches of independent Jobs and drives each one
// through a bounded-concurrency lifecycle:
//
//	Pending → Attempting → {Retrying → Attempting}* → Succeeded | Failed
//
// At most MaxConcurrent jobs are in flight at once; a job occupies its
// limiter slot from its first attempt until its terminal state. Before
// every attempt a jittered pacing delay is inserted so the request stream
// does not look machine-timed.
//
// # Basic Usage
//
//	engine, err := download.New(download.Config{MaxConcurrent: 3})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	jobs := chapter.Jobs("/comics/One Piece/Chapter 1")
//	downloaded, failed := engine.DownloadBatch(ctx, jobs)
//
// # Retry Behavior
//
// Failed attempts are classified (rate-limited, forbidden, transient,
// fatal) and retried with a backoff range keyed to the classification.
// Fatal outcomes give up immediately. Every attempt's cause is kept, in
// order, and surfaced through JobResult.Errors and the OnError hook.
//
// # Callbacks and Stats
//
// Exactly one of Job.OnSuccess / Job.OnError fires per job, after the
// job's limiter slot has been released and the engine's lifetime counters
// were bumped. Stats() may be read concurrently with running batches.
package download
