package publish

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invitame/wedding-invitation-service/internal/model"
)

func waitForState(t *testing.T, w *Watcher, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if w.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, want, w.State())
}

func TestWatcher_TwelvePendingChecksReachTimeout(t *testing.T) {
	var calls int32
	check := func(ctx context.Context) (CheckResult, error) {
		atomic.AddInt32(&calls, 1)
		return CheckResult{PaymentStatus: model.PaymentPending}, nil
	}
	w := NewWatcher(check, zerolog.Nop(), WithInterval(time.Millisecond))
	w.Start(context.Background())

	waitForState(t, w, StateTimeout)
	assert.Equal(t, int32(12), atomic.LoadInt32(&calls))

	// timeout is terminal: no further automatic checks
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(12), atomic.LoadInt32(&calls))
	assert.Equal(t, 12, w.Attempts())
}

func TestWatcher_ApprovedThenPublishedEndsInSuccess(t *testing.T) {
	var calls int32
	check := func(ctx context.Context) (CheckResult, error) {
		switch atomic.AddInt32(&calls, 1) {
		case 1:
			return CheckResult{PaymentStatus: model.PaymentPending}, nil
		case 2:
			// approved but not yet live; the real check func triggers the
			// publish action here
			return CheckResult{PaymentStatus: model.PaymentApproved}, nil
		default:
			return CheckResult{PaymentStatus: model.PaymentApproved, Published: true}, nil
		}
	}
	w := NewWatcher(check, zerolog.Nop(), WithInterval(time.Millisecond))
	w.Start(context.Background())
	waitForState(t, w, StateSuccess)
}

func TestWatcher_RejectedIsTerminalFailure(t *testing.T) {
	check := func(ctx context.Context) (CheckResult, error) {
		return CheckResult{PaymentStatus: model.PaymentRejected}, nil
	}
	w := NewWatcher(check, zerolog.Nop(), WithInterval(time.Millisecond))
	w.Start(context.Background())
	waitForState(t, w, StateFailed)
	assert.True(t, w.State().Terminal())
}

func TestWatcher_RecheckFromTimeoutResetsAttempts(t *testing.T) {
	var calls int32
	check := func(ctx context.Context) (CheckResult, error) {
		atomic.AddInt32(&calls, 1)
		return CheckResult{PaymentStatus: model.PaymentPending}, nil
	}
	w := NewWatcher(check, zerolog.Nop(), WithInterval(time.Hour))
	// drive to timeout synchronously via steps
	for i := 0; i < DefaultMaxAttempts; i++ {
		w.step(context.Background())
	}
	require.Equal(t, StateTimeout, w.State())

	got := w.Recheck(context.Background())
	assert.Equal(t, StatePending, got)
	assert.Equal(t, 1, w.Attempts())
}

func TestWatcher_RecheckAfterFailureCanSucceed(t *testing.T) {
	var verdict atomic.Value
	verdict.Store(model.PaymentRejected)
	check := func(ctx context.Context) (CheckResult, error) {
		s := verdict.Load().(string)
		return CheckResult{PaymentStatus: s, Published: s == model.PaymentApproved}, nil
	}
	w := NewWatcher(check, zerolog.Nop(), WithInterval(time.Hour))
	w.step(context.Background())
	require.Equal(t, StateFailed, w.State())

	verdict.Store(model.PaymentApproved)
	assert.Equal(t, StateSuccess, w.Recheck(context.Background()))
}

func TestWatcher_RecheckWhileLoopRunningDoesNotRunConcurrentCheck(t *testing.T) {
	started := make(chan struct{}, 16)
	release := make(chan struct{})
	var calls int32
	check := func(ctx context.Context) (CheckResult, error) {
		atomic.AddInt32(&calls, 1)
		started <- struct{}{}
		<-release
		return CheckResult{PaymentStatus: model.PaymentPending}, nil
	}
	w := NewWatcher(check, zerolog.Nop(), WithInterval(time.Millisecond), WithMaxAttempts(2))
	w.Start(context.Background())
	<-started // the first tick's check is in flight

	// the manual re-check is handed to the loop, so no second check runs
	// while the first one is still blocked
	got := w.Recheck(context.Background())
	assert.Equal(t, StateChecking, got)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// releasing the first check lets the loop pick up the queued request;
	// with a ceiling of two the second check lands on timeout
	close(release)
	waitForState(t, w, StateTimeout)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestWatcher_ErrorsSpendAttempts(t *testing.T) {
	check := func(ctx context.Context) (CheckResult, error) {
		return CheckResult{}, context.DeadlineExceeded
	}
	w := NewWatcher(check, zerolog.Nop(), WithInterval(time.Hour), WithMaxAttempts(2))
	assert.False(t, w.step(context.Background()))
	assert.Equal(t, StatePending, w.State())
	assert.True(t, w.step(context.Background()))
	assert.Equal(t, StateTimeout, w.State())
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get(1))
	w := NewWatcher(func(ctx context.Context) (CheckResult, error) {
		return CheckResult{}, nil
	}, zerolog.Nop())
	r.Set(1, w)
	assert.Same(t, w, r.Get(1))
	r.Remove(1)
	assert.Nil(t, r.Get(1))
}
