package download

// OutcomeKind classifies the result of a single fetch attempt.
type OutcomeKind int

const (
	// KindSuccess means the body was written to the destination.
	KindSuccess OutcomeKind = iota

	// KindRateLimited means the server answered HTTP 429 (or equivalent).
	KindRateLimited

	// KindForbidden means the server answered HTTP 403 (or equivalent).
	KindForbidden

	// KindTransient covers network errors, timeouts, unexpected status
	// codes and failed writes. Transient outcomes are worth retrying.
	KindTransient

	// KindFatal covers conditions that cannot improve on retry, such as
	// a malformed URL or destination path.
	KindFatal
)

// String returns a short name for the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindRateLimited:
		return "rate-limited"
	case KindForbidden:
		return "forbidden"
	case KindTransient:
		return "transient"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Outcome is the classified result of one fetch attempt. It is produced by
// a Fetcher and consumed by the retry policy; it is never persisted.
type Outcome struct {
	Kind OutcomeKind

	// Bytes is the number of body bytes written, set only on success.
	Bytes int64

	// Err is the attempt's cause, set on every non-success kind.
	Err error
}

// Success builds a successful outcome for n written bytes.
func Success(n int64) Outcome {
	return Outcome{Kind: KindSuccess, Bytes: n}
}

// RateLimited builds an HTTP 429 outcome.
func RateLimited(err error) Outcome {
	return Outcome{Kind: KindRateLimited, Err: err}
}

// Forbidden builds an HTTP 403 outcome.
func Forbidden(err error) Outcome {
	return Outcome{Kind: KindForbidden, Err: err}
}

// Transient builds a retryable failure outcome.
func Transient(err error) Outcome {
	return Outcome{Kind: KindTransient, Err: err}
}

// Fatal builds a non-retryable failure outcome.
func Fatal(err error) Outcome {
	return Outcome{Kind: KindFatal, Err: err}
}
