// Package retry implements the bounded retry policy used for end-to-end tests whose
// outcome depends on eventually-consistent behavior of the host, such as a blob written by
// one request becoming visible to the next, or a host that is still finishing its startup.
//
// The policy does not try to tell transient problems apart from real
// regressions. A body that keeps failing fails with exactly the error of its last attempt,
// so the reported failure is the same one a single run would have produced.
package retry

import (
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultAttempts and DefaultDelay are the settings used by the end-to-end suites unless
// overridden on the command line.
const (
	DefaultAttempts = 3
	DefaultDelay    = time.Second * 5
)

// Policy describes how many times a body is attempted and how long to wait between
// attempts. The zero value means a single attempt with no delay.
type Policy struct {
	// Attempts is the total number of attempts, including the first. Values below 1 are
	// treated as 1.
	Attempts int

	// Delay is the fixed time to wait after a failed attempt before starting the next one.
	Delay time.Duration

	// Notify, if set, is called after each failed attempt that will be retried, with the
	// attempt's error and the delay before the next attempt.
	Notify func(err error, next time.Duration)

	timer backoff.Timer
}

// DefaultPolicy returns a Policy with DefaultAttempts and DefaultDelay.
func DefaultPolicy() Policy {
	return Policy{Attempts: DefaultAttempts, Delay: DefaultDelay}
}

// WithNotify returns a copy of the policy that calls fn after each failed attempt that
// will be retried. Any existing Notify function is still called first.
func (p Policy) WithNotify(fn func(err error, next time.Duration)) Policy {
	previous := p.Notify
	p.Notify = func(err error, next time.Duration) {
		if previous != nil {
			previous(err, next)
		}
		fn(err, next)
	}
	return p
}

func (p Policy) String() string {
	return fmt.Sprintf("%d attempts, %s delay", p.attempts(), p.Delay)
}

func (p Policy) attempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks an error as not retryable. When a body returns such an error, Do stops
// at once and returns the original error (not the wrapper).
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Do calls body until it succeeds, returns a Permanent error, or the policy's attempts are
// exhausted. On exhaustion it returns the error of the last attempt unmodified. Panics in
// body are not recovered.
func Do(policy Policy, body func() error) error {
	var b backoff.BackOff = backoff.NewConstantBackOff(policy.Delay)
	b = backoff.WithMaxRetries(b, uint64(policy.attempts()-1))

	operation := func() error {
		err := body()
		var p *permanentError
		if errors.As(err, &p) {
			return backoff.Permanent(p.err)
		}
		return err
	}

	var notify backoff.Notify
	if policy.Notify != nil {
		notify = backoff.Notify(policy.Notify)
	}
	if policy.timer != nil {
		return backoff.RetryNotifyWithTimer(operation, b, notify, policy.timer)
	}
	return backoff.RetryNotify(operation, b, notify)
}

// Value is like Do for a body that also produces a result. The result of the successful
// attempt is returned; if every attempt fails, the zero value and the last error are
// returned.
func Value[T any](policy Policy, body func() (T, error)) (T, error) {
	var result T
	err := Do(policy, func() error {
		value, err := body()
		if err != nil {
			return err
		}
		result = value
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
