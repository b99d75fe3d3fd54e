package ldtest

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/funcworker/worker-e2e-tests/framework"
)

type testEnvironment struct {
	config  TestConfiguration
	results Results
}

// T represents a test or subtest.
//
// It implements the same basic functionality as Go's testing.T, but in an environment that
// is outside of the Go test runner, and with some extra features such as debug logging and
// retryable subtests. To make assertions, pass the *T to the assert and require packages
// as if it were a *testing.T.
type T struct {
	env         *testEnvironment
	id          TestID
	debugLogger *framework.CapturingLogger
	failed      bool
	aborted     bool
	panicked    bool
	skipped     bool
	skipReason  string
	errors      []error
	defers      []func()
	inAttempt   bool
	attempts    int
}

// Run starts a test run with the specified configuration. The action is the root of the
// test tree and normally does nothing but call T.Run for each group of tests.
func Run(config TestConfiguration, action func(*T)) Results {
	if config.TestLogger == nil {
		config.TestLogger = nullTestLogger{}
	}
	env := &testEnvironment{config: config}
	t := &T{env: env, debugLogger: &framework.CapturingLogger{}}
	t.run(action)
	if t.failed {
		result := TestResult{TestID: t.id, Errors: t.errors}
		env.results.Tests = append(env.results.Tests, result)
		env.results.Failures = append(env.results.Failures, result)
	}
	return env.results
}

func (t *T) run(action func(*T)) {
	defer func() {
		if r := recover(); r != nil {
			if t.skipped {
				return
			}
			t.failed = true
			var addError error
			if _, ok := r.(*T); ok {
				if len(t.errors) == 0 {
					addError = errors.New("test failed with no failure message")
				}
			} else {
				t.panicked = true
				addError = fmt.Errorf("unexpected panic in test: %+v\n%s", r, string(debug.Stack()))
			}
			if addError != nil {
				t.addError(addError)
			}
		}
	}()
	defer t.runDefers()

	action(t)
}

func (t *T) runDefers() {
	for i := len(t.defers) - 1; i >= 0; i-- {
		t.defers[i]()
	}
	t.defers = nil
}

func (t *T) addError(err error) {
	t.errors = append(t.errors, err)
	if t.inAttempt {
		// Failures of individual attempts are only reported if they are the final outcome.
		t.debugLogger.Printf("attempt %d: %s", t.attempts, err)
		return
	}
	t.env.config.TestLogger.TestError(t.id, err)
}

// ID returns the unique identifier of this test.
func (t *T) ID() TestID {
	return t.id
}

// Run runs a subtest. This is equivalent to the Run method of testing.T.
func (t *T) Run(name string, action func(*T)) {
	if t.inAttempt {
		panic("subtests cannot be started from inside a retryable test")
	}
	id := t.id.Plus(name)

	t.env.config.TestLogger.TestStarted(id)
	if t.env.config.Filter != nil && !t.env.config.Filter(id) {
		t.env.config.TestLogger.TestSkipped(id, "excluded by filter parameters")
		return
	}
	t1 := &T{
		id:          id,
		env:         t.env,
		debugLogger: &framework.CapturingLogger{},
	}
	t1.run(action)
	t.finish(t1)
}

func (t *T) finish(t1 *T) {
	result := TestResult{TestID: t1.id, Errors: t1.errors, Skipped: t1.skipped, Attempts: t1.attempts}
	t.env.results.Tests = append(t.env.results.Tests, result)
	if t1.skipped {
		t.env.config.TestLogger.TestSkipped(t1.id, t1.skipReason)
		return
	}
	if t1.failed {
		t.env.results.Failures = append(t.env.results.Failures, result)
	}
	t.env.config.TestLogger.TestFinished(t1.id, t1.failed, t1.debugLogger.Output())
}

// Errorf is called by assertions to log a test failure. It does not cause an immediate exit.
func (t *T) Errorf(format string, args ...interface{}) {
	t.failed = true
	t.addError(fmt.Errorf(format, args...))
}

// FailNow is called by assertions when a test should fail and immediately exit. The methods
// in the require package call FailNow.
func (t *T) FailNow() {
	t.failed = true
	panic(t)
}

// Abort fails the test and immediately exits, like FailNow, but inside a retryable test it
// also prevents any further attempts. It is meant for conditions that a retry cannot fix,
// such as the host process having exited.
func (t *T) Abort(format string, args ...interface{}) {
	t.aborted = true
	t.Errorf(format, args...)
	t.FailNow()
}

// Failed returns true if the test has failed so far.
func (t *T) Failed() bool {
	return t.failed
}

func (t *T) Skip() {
	t.skipped = true
	panic(t)
}

func (t *T) SkipWithReason(reason string) {
	t.skipReason = reason
	t.Skip()
}

// Defer schedules a function to be called when the test ends, in the same way as the
// Cleanup method of testing.T. Deferred functions run in reverse order.
func (t *T) Defer(fn func()) {
	t.defers = append(t.defers, fn)
}

// Debug logs some debug output for the test. The output will be passed to the test logger
// at the end of the test.
func (t *T) Debug(message string, args ...interface{}) {
	t.debugLogger.Printf(message, args...)
}

// DebugLogger returns a Logger that writes to this test's debug output.
func (t *T) DebugLogger() framework.Logger {
	return t.debugLogger
}

// Context returns the value that was provided in TestConfiguration.Context.
func (t *T) Context() interface{} {
	return t.env.config.Context
}

// Capabilities returns the capabilities that were provided in TestConfiguration.
func (t *T) Capabilities() framework.Capabilities {
	return t.env.config.Capabilities
}

// RequireCapability skips this test if the environment does not support the specified
// capability.
func (t *T) RequireCapability(capability string) {
	if !t.env.config.Capabilities.Has(capability) {
		t.SkipWithReason(fmt.Sprintf("capability %q is not available", capability))
	}
}
