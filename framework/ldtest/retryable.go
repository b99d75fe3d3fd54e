package ldtest

import (
	"strings"
	"time"

	"github.com/funcworker/worker-e2e-tests/framework/retry"
)

type attemptFailure []error

func (a attemptFailure) Error() string {
	messages := make([]string, 0, len(a))
	for _, e := range a {
		messages = append(messages, e.Error())
	}
	return strings.Join(messages, "; ")
}

// RunRetryable runs a subtest whose body is attempted up to policy.Attempts times, waiting
// policy.Delay after each failed attempt.
//
// An attempt fails if any assertion fails in it (Errorf or FailNow). Every attempt runs on a
// fresh state: errors and deferred functions of a failed attempt are discarded, except that
// the errors are written to the test's debug output. If the last attempt fails, the test
// fails with exactly that attempt's errors. An Abort, or a panic that did not come from an
// assertion, fails the test immediately without further attempts. A Skip in any attempt
// skips the test.
//
// The body must not start subtests of its own.
func (t *T) RunRetryable(name string, policy retry.Policy, action func(*T)) {
	t.Run(name, func(t *T) {
		t.runAttempts(policy, action)
	})
}

func (t *T) runAttempts(policy retry.Policy, action func(*T)) {
	var last *T
	maxAttempts := policy.Attempts
	policy = policy.WithNotify(func(err error, next time.Duration) {
		t.Debug("attempt %d of %d failed, retrying in %s", t.attempts, maxAttempts, next)
	})

	err := retry.Do(policy, func() error {
		t.attempts++
		a := &T{
			id:          t.id,
			env:         t.env,
			debugLogger: t.debugLogger,
			inAttempt:   true,
			attempts:    t.attempts,
		}
		last = a
		a.run(action)
		switch {
		case a.skipped || !a.failed:
			return nil
		case a.aborted || a.panicked:
			return retry.Permanent(attemptFailure(a.errors))
		default:
			return attemptFailure(a.errors)
		}
	})

	if last.skipped {
		t.SkipWithReason(last.skipReason)
	}
	if err != nil {
		t.failed = true
		for _, e := range last.errors {
			t.addError(e)
		}
	}
}
