package download

import "time"

// Default retry backoff ranges, keyed by outcome kind. Rate limiting gets
// the longest cool-off; a 403 often clears once the request pattern calms
// down; transient network errors sit in between.
var (
	defaultRateLimitedBackoff = DelayRange{Min: 5 * time.Second, Max: 10 * time.Second}
	defaultForbiddenBackoff   = DelayRange{Min: 2 * time.Second, Max: 4 * time.Second}
	defaultTransientBackoff   = DelayRange{Min: 2 * time.Second, Max: 5 * time.Second}
)

// RetryPolicy decides, per attempt outcome, whether to retry and how long
// to back off first. The zero value is not usable; construct via
// defaultRetryPolicy or fill every field.
type RetryPolicy struct {
	// MaxRetries is the total number of attempts allowed per job.
	MaxRetries int

	// RateLimitedBackoff is the wait after an HTTP 429.
	RateLimitedBackoff DelayRange

	// ForbiddenBackoff is the wait after an HTTP 403.
	ForbiddenBackoff DelayRange

	// TransientBackoff is the wait after a network/timeout/write failure.
	TransientBackoff DelayRange
}

func defaultRetryPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries:         maxRetries,
		RateLimitedBackoff: defaultRateLimitedBackoff,
		ForbiddenBackoff:   defaultForbiddenBackoff,
		TransientBackoff:   defaultTransientBackoff,
	}
}

// Decide returns whether the job should be retried after the given outcome
// on the given 0-based attempt index, and the backoff to sleep before the
// next attempt. The backoff replaces the base pacing delay for that
// attempt; the two are never stacked.
//
// Fatal outcomes and the final allowed attempt always give up.
func (p RetryPolicy) Decide(out Outcome, attempt int) (retry bool, backoff time.Duration) {
	if attempt >= p.MaxRetries-1 {
		return false, 0
	}
	switch out.Kind {
	case KindRateLimited:
		return true, p.RateLimitedBackoff.Roll()
	case KindForbidden:
		return true, p.ForbiddenBackoff.Roll()
	case KindTransient:
		return true, p.TransientBackoff.Roll()
	default:
		return false, 0
	}
}
