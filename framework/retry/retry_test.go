package retry

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recordingTimer fires immediately and remembers every delay it was asked to wait for.
type recordingTimer struct {
	delays []time.Duration
	ch     chan time.Time
}

func newRecordingTimer() *recordingTimer {
	return &recordingTimer{ch: make(chan time.Time, 1)}
}

func (r *recordingTimer) Start(d time.Duration) {
	r.delays = append(r.delays, d)
	r.ch <- time.Now()
}

func (r *recordingTimer) Stop() {}

func (r *recordingTimer) C() <-chan time.Time { return r.ch }

func policyWithTimer(attempts int, delay time.Duration) (Policy, *recordingTimer) {
	timer := newRecordingTimer()
	return Policy{Attempts: attempts, Delay: delay, timer: timer}, timer
}

func TestSucceedsOnFirstAttemptWithoutDelay(t *testing.T) {
	p, timer := policyWithTimer(3, 5*time.Second)
	calls := 0
	err := Do(p, func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, timer.delays)
}

func TestFailsTwiceThenSucceeds(t *testing.T) {
	p, timer := policyWithTimer(3, 5*time.Second)
	calls := 0
	err := Do(p, func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("attempt %d not ready", calls)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, timer.delays)
}

func TestAlwaysFailingReturnsLastAttemptErrorAfterTwoDelays(t *testing.T) {
	p, timer := policyWithTimer(3, 5*time.Second)
	var returned []error
	err := Do(p, func() error {
		e := fmt.Errorf("failure number %d", len(returned)+1)
		returned = append(returned, e)
		return e
	})
	require.Len(t, returned, 3)
	assert.Same(t, returned[2], err)
	assert.Equal(t, "failure number 3", err.Error())
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, timer.delays)
}

func TestPermanentErrorStopsImmediatelyAndIsUnwrapped(t *testing.T) {
	p, timer := policyWithTimer(3, time.Second)
	original := errors.New("host process exited")
	calls := 0
	err := Do(p, func() error {
		calls++
		return Permanent(original)
	})
	assert.Equal(t, 1, calls)
	assert.Same(t, original, err)
	assert.False(t, IsPermanent(err))
	assert.Empty(t, timer.delays)
}

func TestWrappedPermanentErrorIsDetected(t *testing.T) {
	err := fmt.Errorf("context: %w", Permanent(errors.New("boom")))
	assert.True(t, IsPermanent(err))
	assert.Nil(t, Permanent(nil))
}

func TestZeroPolicyMakesOneAttempt(t *testing.T) {
	calls := 0
	err := Do(Policy{}, func() error {
		calls++
		return errors.New("nope")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestNotifyIsCalledForEachRetry(t *testing.T) {
	p, _ := policyWithTimer(3, time.Millisecond)
	var notified []string
	p = p.WithNotify(func(err error, next time.Duration) {
		notified = append(notified, fmt.Sprintf("%s/%s", err, next))
	})
	_ = Do(p, func() error { return errors.New("x") })
	assert.Equal(t, []string{"x/1ms", "x/1ms"}, notified)
}

func TestPanicsAreNotRecovered(t *testing.T) {
	p, _ := policyWithTimer(3, time.Millisecond)
	calls := 0
	assert.Panics(t, func() {
		_ = Do(p, func() error {
			calls++
			panic("programming error")
		})
	})
	assert.Equal(t, 1, calls)
}

func TestValueReturnsResultOfSuccessfulAttempt(t *testing.T) {
	p, _ := policyWithTimer(3, time.Millisecond)
	calls := 0
	v, err := Value(p, func() (string, error) {
		calls++
		if calls == 1 {
			return "partial", errors.New("not yet")
		}
		return "done", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "done", v)
}

func TestValueReturnsZeroValueOnExhaustion(t *testing.T) {
	p, _ := policyWithTimer(2, time.Millisecond)
	v, err := Value(p, func() (int, error) {
		return 42, errors.New("still failing")
	})
	assert.EqualError(t, err, "still failing")
	assert.Equal(t, 0, v)
}

func TestPolicyString(t *testing.T) {
	assert.Equal(t, "3 attempts, 5s delay", DefaultPolicy().String())
	assert.Equal(t, "1 attempts, 0s delay", Policy{}.String())
}
