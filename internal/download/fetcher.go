package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/0xsi23/kumo/internal/fsutil"
	"github.com/0xsi23/kumo/internal/httpx"
)

// Fetcher performs exactly one network attempt for one job and classifies
// the result. Fetchers never retry internally; retry is the engine's
// retry policy's responsibility.
type Fetcher interface {
	Fetch(ctx context.Context, job *Job) Outcome
}

// httpFetcher is the production Fetcher. It merges headers, attaches
// cookies, streams the response body to the job's destination and maps
// status codes onto outcome kinds.
type httpFetcher struct {
	client         *http.Client
	defaultHeaders map[string]string

	// onBytes receives the byte delta of each body write, across all
	// concurrent jobs. Optional.
	onBytes func(delta int64)
}

func (f *httpFetcher) Fetch(ctx context.Context, job *Job) Outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.URL, nil)
	if err != nil {
		// An unparsable URL will not improve on retry.
		return Fatal(fmt.Errorf("build request: %w", err))
	}

	req.Header = buildHeaders(f.defaultHeaders, job)
	for name, value := range job.Cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Transient(fmt.Errorf("request %s: %w", job.URL, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return f.writeBody(resp.Body, resp.ContentLength, job.DestPath)
	case resp.StatusCode == http.StatusTooManyRequests:
		return RateLimited(fmt.Errorf("HTTP 429: rate limited by %s", req.URL.Host))
	case resp.StatusCode == http.StatusForbidden:
		return Forbidden(fmt.Errorf("HTTP 403: forbidden by %s", req.URL.Host))
	default:
		return Transient(fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status))
	}
}

// buildHeaders merges, in increasing priority: the engine-wide defaults,
// the job's headers, and the synthesized Referer/Origin pair when the job
// carries a referer.
func buildHeaders(defaults map[string]string, job *Job) http.Header {
	headers := make(http.Header, len(defaults)+len(job.Headers)+2)
	for k, v := range defaults {
		headers.Set(k, v)
	}
	for k, v := range job.Headers {
		headers.Set(k, v)
	}
	if job.Referer != "" {
		headers.Set("Referer", job.Referer)
		if parsed, err := url.Parse(job.Referer); err == nil && parsed.Scheme != "" && parsed.Host != "" {
			headers.Set("Origin", parsed.Scheme+"://"+parsed.Host)
		}
	}
	return headers
}

// writeBody streams the body to destPath. The write is all-or-nothing:
// bytes go to a temporary sibling file that is renamed into place only
// after the copy completes, so a retry never observes a partial artifact.
// Byte progress is reported through onBytes as the copy advances; total
// is the response's Content-Length, -1 when unknown.
func (f *httpFetcher) writeBody(body io.Reader, total int64, destPath string) Outcome {
	if err := fsutil.EnsureDir(filepath.Dir(destPath)); err != nil {
		// The destination directory cannot be created; treat the path
		// as misconfigured rather than burning retries on it.
		return Fatal(fmt.Errorf("create directory: %w", err))
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), filepath.Base(destPath)+".part*")
	if err != nil {
		return Fatal(fmt.Errorf("create file: %w", err))
	}

	var dst io.Writer = tmp
	if f.onBytes != nil {
		var last int64
		dst = &httpx.ProgressWriter{
			Writer: tmp,
			Total:  total,
			OnUpdate: func(written, _ int64) {
				f.onBytes(written - last)
				last = written
			},
		}
	}

	n, err := io.Copy(dst, body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), destPath)
	}
	if err != nil {
		os.Remove(tmp.Name())
		return Transient(fmt.Errorf("write %s: %w", destPath, err))
	}

	return Success(n)
}
