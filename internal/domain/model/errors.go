package model

import "errors"

// Sentinel kinds for job-level errors. Validation and unknown-type errors
// are terminal: retrying cannot fix a malformed job.
var (
	ErrValidation     = errors.New("validation failed")
	ErrUnknownJobType = errors.New("unknown job type")
)

// nonRetryable wraps an error whose job must not be retried.
type nonRetryable struct {
	err error
}

func (e *nonRetryable) Error() string { return e.err.Error() }
func (e *nonRetryable) Unwrap() error { return e.err }

// NonRetryable marks err as terminal for retry purposes.
func NonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &nonRetryable{err: err}
}

// IsRetryable reports whether a failed job may be re-enqueued. Validation
// and explicitly-marked terminal errors are not; everything else is assumed
// to be transient infrastructure trouble.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var nr *nonRetryable
	if errors.As(err, &nr) {
		return false
	}
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrUnknownJobType) {
		return false
	}
	return true
}
