package download

import (
	"errors"
	"fmt"
)

// Job is a self-contained description of one file to fetch and save.
//
// Each job carries its own destination path, headers, cookies and referer,
// so jobs from different chapters (or different sites) can run in the same
// batch. The engine borrows a job for the duration of one DownloadOne or
// DownloadBatch call and never keeps a reference afterwards.
//
// OnSuccess and OnError are optional completion hooks. Each fires at most
// once, after the job has reached its terminal state. Hooks run on the
// job's worker goroutine; a caller that wants asynchronous handling can
// spawn inside the hook.
type Job struct {
	// URL is the remote resource to fetch.
	URL string

	// DestPath is the local file path to save the response body to.
	// Parent directories are created as needed.
	DestPath string

	// Headers are job-specific request headers. They override the
	// engine's default headers on key collisions.
	Headers map[string]string

	// Cookies are attached to every request for this job.
	Cookies map[string]string

	// Referer, when non-empty, is sent as the Referer header and also
	// synthesizes an Origin header from its scheme and host.
	Referer string

	// Extras carries caller metadata. The engine never reads it.
	Extras map[string]any

	// OnSuccess is called once if the job succeeds.
	OnSuccess func()

	// OnError is called once with a *JobError if the job fails.
	OnError func(error)
}

// JobResult is the terminal accounting for one job.
type JobResult struct {
	// Job is the job this result belongs to.
	Job *Job

	// Succeeded reports whether the file was downloaded.
	Succeeded bool

	// Attempts is the number of fetch attempts made.
	Attempts int

	// Errors holds the cause of every failed attempt, in order.
	// Empty when the first attempt succeeded.
	Errors []error
}

// Err returns the aggregated *JobError for a failed result, or nil if the
// job succeeded.
func (r *JobResult) Err() error {
	if r.Succeeded {
		return nil
	}
	return &JobError{URL: r.Job.URL, Errors: r.Errors}
}

// JobError aggregates every error a job hit before it was given up on.
// The ordered attempt history is preserved so callers can diagnose why
// retries were exhausted, not just that they were.
type JobError struct {
	// URL is the source that failed to download.
	URL string

	// Errors are the per-attempt causes, oldest first.
	Errors []error
}

// Error implements the error interface.
func (e *JobError) Error() string {
	msg := fmt.Sprintf("download %s failed after %d attempts", e.URL, len(e.Errors))
	if last := e.Last(); last != nil {
		msg += ": " + last.Error()
	}
	return msg
}

// Unwrap exposes the attempt causes to errors.Is and errors.As.
func (e *JobError) Unwrap() []error {
	return e.Errors
}

// Last returns the most recent attempt error, or nil if none was recorded.
func (e *JobError) Last() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[len(e.Errors)-1]
}

// ErrCancelled is recorded as an attempt cause when the batch context is
// cancelled before a job reaches a terminal state on its own.
var ErrCancelled = errors.New("download cancelled")
