package download

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// scriptedFetcher replays a per-URL queue of outcomes and instruments how
// many fetches are in flight at once.
type scriptedFetcher struct {
	mu          sync.Mutex
	outcomes    map[string][]Outcome
	calls       map[string]int
	inFlight    int
	maxInFlight int
	holdFor     time.Duration
}

func newScriptedFetcher() *scriptedFetcher {
	return &scriptedFetcher{
		outcomes: make(map[string][]Outcome),
		calls:    make(map[string]int),
	}
}

func (f *scriptedFetcher) script(url string, outs ...Outcome) {
	f.outcomes[url] = outs
}

func (f *scriptedFetcher) Fetch(ctx context.Context, job *Job) Outcome {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.calls[job.URL]++
	queue := f.outcomes[job.URL]
	out := Success(1)
	if len(queue) > 0 {
		out = queue[0]
		f.outcomes[job.URL] = queue[1:]
	}
	f.mu.Unlock()

	if f.holdFor > 0 {
		time.Sleep(f.holdFor)
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	return out
}

func (f *scriptedFetcher) attempts(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func (f *scriptedFetcher) peakConcurrency() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInFlight
}

// newTestEngine builds an engine with zero pacing and zero backoff so
// tests run deterministically and fast.
func newTestEngine(t *testing.T, maxConcurrent, maxRetries int, fetcher Fetcher) *Engine {
	t.Helper()
	engine, err := New(Config{
		MaxConcurrent: maxConcurrent,
		MaxRetries:    maxRetries,
		DelayRange:    &DelayRange{}, // disabled
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	engine.fetcher = fetcher
	engine.retry = RetryPolicy{MaxRetries: maxRetries} // zero backoffs
	return engine
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"negative concurrency", Config{MaxConcurrent: -1}},
		{"negative retries", Config{MaxRetries: -2}},
		{"negative timeout", Config{Timeout: -time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Error("New() should reject invalid config")
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	engine, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if engine.maxConcurrent != 3 {
		t.Errorf("maxConcurrent = %d, want 3", engine.maxConcurrent)
	}
	if engine.retry.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", engine.retry.MaxRetries)
	}
	if engine.retry.RateLimitedBackoff != defaultRateLimitedBackoff {
		t.Errorf("RateLimitedBackoff = %v, want %v", engine.retry.RateLimitedBackoff, defaultRateLimitedBackoff)
	}
}

func TestDownloadBatch_ConcurrencyBound(t *testing.T) {
	fetcher := newScriptedFetcher()
	fetcher.holdFor = 20 * time.Millisecond
	engine := newTestEngine(t, 2, 3, fetcher)

	jobs := make([]*Job, 8)
	for i := range jobs {
		jobs[i] = &Job{URL: fmt.Sprintf("https://example.com/%d", i)}
	}

	downloaded, failed := engine.DownloadBatch(context.Background(), jobs)
	if downloaded != 8 || failed != 0 {
		t.Fatalf("DownloadBatch = (%d, %d), want (8, 0)", downloaded, failed)
	}
	if peak := fetcher.peakConcurrency(); peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
}

func TestDownloadOne_FirstTrySuccess(t *testing.T) {
	fetcher := newScriptedFetcher()
	fetcher.script("https://example.com/a", Success(42))
	engine := newTestEngine(t, 3, 3, fetcher)

	var successes, failures atomic.Int32
	job := &Job{
		URL:       "https://example.com/a",
		OnSuccess: func() { successes.Add(1) },
		OnError:   func(error) { failures.Add(1) },
	}

	result := engine.DownloadOne(context.Background(), job)

	if !result.Succeeded {
		t.Fatal("job should have succeeded")
	}
	if result.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", result.Attempts)
	}
	if len(result.Errors) != 0 {
		t.Errorf("Errors = %v, want none", result.Errors)
	}
	if successes.Load() != 1 {
		t.Errorf("OnSuccess fired %d times, want 1", successes.Load())
	}
	if failures.Load() != 0 {
		t.Errorf("OnError fired %d times, want 0", failures.Load())
	}
	if stats := engine.Stats(); stats.Downloaded != 1 || stats.Failed != 0 {
		t.Errorf("Stats = %+v, want {1 0}", stats)
	}
}

func TestDownloadOne_TransientExhaustion(t *testing.T) {
	fetcher := newScriptedFetcher()
	fetcher.script("https://example.com/a",
		Transient(errors.New("boom 1")),
		Transient(errors.New("boom 2")),
		Transient(errors.New("boom 3")),
	)
	engine := newTestEngine(t, 3, 3, fetcher)

	var gotErr error
	job := &Job{
		URL:     "https://example.com/a",
		OnError: func(err error) { gotErr = err },
	}

	result := engine.DownloadOne(context.Background(), job)

	if result.Succeeded {
		t.Fatal("job should have failed")
	}
	if result.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", result.Attempts)
	}
	if len(result.Errors) != 3 {
		t.Fatalf("len(Errors) = %d, want 3", len(result.Errors))
	}
	if result.Errors[0].Error() != "boom 1" || result.Errors[2].Error() != "boom 3" {
		t.Errorf("errors out of order: %v", result.Errors)
	}

	var jobErr *JobError
	if !errors.As(gotErr, &jobErr) {
		t.Fatalf("OnError got %T, want *JobError", gotErr)
	}
	if len(jobErr.Errors) != 3 {
		t.Errorf("JobError holds %d causes, want 3", len(jobErr.Errors))
	}
	if stats := engine.Stats(); stats.Failed != 1 {
		t.Errorf("Stats.Failed = %d, want 1", stats.Failed)
	}
}

func TestDownloadOne_FatalShortCircuit(t *testing.T) {
	fetcher := newScriptedFetcher()
	fetcher.script("https://example.com/a", Fatal(errors.New("bad path")))
	engine := newTestEngine(t, 3, 3, fetcher)

	result := engine.DownloadOne(context.Background(), &Job{URL: "https://example.com/a"})

	if result.Succeeded {
		t.Fatal("job should have failed")
	}
	if result.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1 (fatal must not retry)", result.Attempts)
	}
	if len(result.Errors) != 1 {
		t.Errorf("len(Errors) = %d, want 1", len(result.Errors))
	}
}

func TestDownloadBatch_EmptyLeavesStatsUntouched(t *testing.T) {
	engine := newTestEngine(t, 2, 3, newScriptedFetcher())

	downloaded, failed := engine.DownloadBatch(context.Background(), nil)
	if downloaded != 0 || failed != 0 {
		t.Errorf("DownloadBatch = (%d, %d), want (0, 0)", downloaded, failed)
	}
	if stats := engine.Stats(); stats != (Stats{}) {
		t.Errorf("Stats = %+v, want zero", stats)
	}
}

func TestStats_AdditiveAcrossBatches(t *testing.T) {
	engine := newTestEngine(t, 2, 3, newScriptedFetcher())

	batch := func(n int, prefix string) []*Job {
		jobs := make([]*Job, n)
		for i := range jobs {
			jobs[i] = &Job{URL: fmt.Sprintf("https://example.com/%s/%d", prefix, i)}
		}
		return jobs
	}

	engine.DownloadBatch(context.Background(), batch(2, "a"))
	engine.DownloadBatch(context.Background(), batch(3, "b"))

	stats := engine.Stats()
	if stats.Downloaded != 5 {
		t.Errorf("Stats.Downloaded = %d, want 5", stats.Downloaded)
	}
	if stats.Total() != 5 {
		t.Errorf("Stats.Total() = %d, want 5", stats.Total())
	}
}

func TestDownloadBatch_MixedScenario(t *testing.T) {
	fetcher := newScriptedFetcher()
	fetcher.script("https://example.com/1", Success(10))
	fetcher.script("https://example.com/2",
		RateLimited(errors.New("HTTP 429: rate limited")),
		Success(10),
	)
	fetcher.script("https://example.com/3", Fatal(errors.New("bad destination")))
	engine := newTestEngine(t, 2, 3, fetcher)

	var mu sync.Mutex
	errorsByURL := make(map[string]error)

	jobs := []*Job{
		{URL: "https://example.com/1"},
		{URL: "https://example.com/2"},
		{URL: "https://example.com/3"},
	}
	for _, job := range jobs {
		job.OnError = func(err error) {
			mu.Lock()
			errorsByURL[job.URL] = err
			mu.Unlock()
		}
	}

	downloaded, failed := engine.DownloadBatch(context.Background(), jobs)

	if downloaded != 2 || failed != 1 {
		t.Fatalf("DownloadBatch = (%d, %d), want (2, 1)", downloaded, failed)
	}
	if got := fetcher.attempts("https://example.com/1"); got != 1 {
		t.Errorf("job1 attempts = %d, want 1", got)
	}
	if got := fetcher.attempts("https://example.com/2"); got != 2 {
		t.Errorf("job2 attempts = %d, want 2", got)
	}
	if got := fetcher.attempts("https://example.com/3"); got != 1 {
		t.Errorf("job3 attempts = %d, want 1", got)
	}

	var jobErr *JobError
	if !errors.As(errorsByURL["https://example.com/3"], &jobErr) {
		t.Fatalf("job3 error = %v, want *JobError", errorsByURL["https://example.com/3"])
	}
	if len(jobErr.Errors) != 1 {
		t.Errorf("job3 recorded %d causes, want 1", len(jobErr.Errors))
	}
	if stats := engine.Stats(); stats.Downloaded != 2 || stats.Failed != 1 {
		t.Errorf("Stats = %+v, want {2 1}", stats)
	}
}

// blockingFetcher parks until the context is cancelled.
type blockingFetcher struct{}

func (blockingFetcher) Fetch(ctx context.Context, job *Job) Outcome {
	<-ctx.Done()
	return Transient(ctx.Err())
}

func TestDownloadBatch_Cancellation(t *testing.T) {
	engine := newTestEngine(t, 1, 3, blockingFetcher{})

	var callbacks atomic.Int32
	jobs := make([]*Job, 3)
	for i := range jobs {
		jobs[i] = &Job{
			URL:     fmt.Sprintf("https://example.com/%d", i),
			OnError: func(error) { callbacks.Add(1) },
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	done := make(chan struct{})
	var downloaded, failed int
	go func() {
		downloaded, failed = engine.DownloadBatch(ctx, jobs)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("DownloadBatch did not return after cancellation")
	}

	if downloaded != 0 || failed != 3 {
		t.Errorf("DownloadBatch = (%d, %d), want (0, 3)", downloaded, failed)
	}
	if callbacks.Load() != 3 {
		t.Errorf("OnError fired %d times, want exactly 3", callbacks.Load())
	}
	if stats := engine.Stats(); stats.Total() != 3 {
		t.Errorf("Stats.Total() = %d, want 3", stats.Total())
	}
}

func TestStats_TracksReceivedBytes(t *testing.T) {
	body := make([]byte, 32*1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer server.Close()

	engine, err := New(Config{DelayRange: &DelayRange{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	dest := filepath.Join(t.TempDir(), "000.jpg")
	result := engine.DownloadOne(context.Background(), &Job{URL: server.URL, DestPath: dest})
	if !result.Succeeded {
		t.Fatalf("DownloadOne failed: %v", result.Err())
	}

	if stats := engine.Stats(); stats.Bytes != uint64(len(body)) {
		t.Errorf("Stats.Bytes = %d, want %d", stats.Bytes, len(body))
	}
}

func TestDownloadBatch_EmitsBatchEvents(t *testing.T) {
	fetcher := newScriptedFetcher()
	fetcher.script("https://host/a.jpg", Success(10))
	fetcher.script("https://host/b.jpg", Success(10))

	engine := newTestEngine(t, 2, 3, fetcher)

	var mu sync.Mutex
	var events []ProgressEvent
	engine.onProgress = func(e ProgressEvent) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}

	engine.DownloadBatch(context.Background(), []*Job{
		{URL: "https://host/a.jpg"},
		{URL: "https://host/b.jpg"},
	})

	if len(events) < 2 {
		t.Fatalf("got %d events, want at least 2", len(events))
	}
	if events[0].Level != LevelInfo {
		t.Errorf("first event level = %v, want info", events[0].Level)
	}
	if last := events[len(events)-1]; last.Level != LevelSuccess {
		t.Errorf("final event level = %v, want success", last.Level)
	}
}

func TestDownloadBatch_FailureDowngradesCompletionEvent(t *testing.T) {
	fetcher := newScriptedFetcher()
	fetcher.script("https://host/a.jpg", Success(10))
	fetcher.script("https://host/b.jpg", Fatal(errors.New("410 gone")))

	engine := newTestEngine(t, 2, 3, fetcher)

	var mu sync.Mutex
	var last ProgressEvent
	engine.onProgress = func(e ProgressEvent) {
		mu.Lock()
		last = e
		mu.Unlock()
	}

	engine.DownloadBatch(context.Background(), []*Job{
		{URL: "https://host/a.jpg"},
		{URL: "https://host/b.jpg"},
	})

	if last.Level != LevelWarning {
		t.Errorf("final event level = %v, want warning", last.Level)
	}
}

func TestJobError_Message(t *testing.T) {
	err := &JobError{
		URL:    "https://example.com/x",
		Errors: []error{errors.New("first"), errors.New("second")},
	}

	want := "download https://example.com/x failed after 2 attempts: second"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, err.Errors[0]) {
		t.Error("errors.Is should match wrapped attempt causes")
	}
}
