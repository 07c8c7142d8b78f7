package checkout_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/bookline/payflow/internal/checkout"
	"github.com/bookline/payflow/internal/domain"
	"github.com/bookline/payflow/internal/gateway/gatewaytest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// pollRecorder collects poll events. Callbacks may fire from the poller's
// goroutine when Start is used, so access is guarded.
type pollRecorder struct {
	mu         sync.Mutex
	updates    []checkout.StatusUpdate
	successes  []domain.PaymentRecord
	errReasons []string
	pollErrs   []error
}

func (r *pollRecorder) callbacks() checkout.PollCallbacks {
	return checkout.PollCallbacks{
		OnStatusChange: func(u checkout.StatusUpdate) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.updates = append(r.updates, u)
		},
		OnSuccess: func(rec domain.PaymentRecord) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.successes = append(r.successes, rec)
		},
		OnError: func(status domain.PaymentStatus, reason string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errReasons = append(r.errReasons, reason)
		},
		OnPollError: func(err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.pollErrs = append(r.pollErrs, err)
		},
	}
}

func (r *pollRecorder) snapshot() (updates []checkout.StatusUpdate, successes, errors, pollErrs int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]checkout.StatusUpdate(nil), r.updates...), len(r.successes), len(r.errReasons), len(r.pollErrs)
}

func recordWithStatus(id string, status domain.PaymentStatus) *domain.PaymentRecord {
	return &domain.PaymentRecord{ID: id, Status: status, CreatedAt: time.Now()}
}

func TestPoller_EmitsOnlyOnTransitions(t *testing.T) {
	mock := gatewaytest.NewMockClient()
	// pending is observed twice in a row; only the first observation emits.
	statuses := []domain.PaymentStatus{
		domain.StatusPending,
		domain.StatusPending,
		domain.StatusProcessing,
		domain.StatusCompleted,
	}
	mock.GetPaymentFn = func(ctx context.Context, paymentID string) (*domain.PaymentRecord, error) {
		return recordWithStatus(paymentID, statuses[mock.Calls("GetPayment")-1]), nil
	}

	rec := &pollRecorder{}
	poller := checkout.NewPoller(mock, 2*time.Millisecond, rec.callbacks(), testLogger())

	final, err := poller.Run(context.Background(), "pay_1")

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, final.Status)
	assert.Equal(t, 4, mock.Calls("GetPayment"))

	updates, successes, errors, pollErrs := rec.snapshot()
	require.Len(t, updates, 3)
	assert.Equal(t, domain.StatusPending, updates[0].Record.Status)
	assert.Equal(t, domain.StatusProcessing, updates[1].Record.Status)
	assert.Equal(t, domain.StatusCompleted, updates[2].Record.Status)
	assert.Equal(t, []int{10, 50, 100}, []int{updates[0].Progress, updates[1].Progress, updates[2].Progress})
	assert.Equal(t, 1, successes)
	assert.Equal(t, 0, errors)
	assert.Equal(t, 0, pollErrs)
}

func TestPoller_IgnoresOutOfOrderStatus(t *testing.T) {
	mock := gatewaytest.NewMockClient()
	// A stale pending answer arrives after processing was already seen; it
	// cannot follow processing and must not surface as a regression.
	statuses := []domain.PaymentStatus{
		domain.StatusProcessing,
		domain.StatusPending,
		domain.StatusCompleted,
	}
	mock.GetPaymentFn = func(ctx context.Context, paymentID string) (*domain.PaymentRecord, error) {
		return recordWithStatus(paymentID, statuses[mock.Calls("GetPayment")-1]), nil
	}

	rec := &pollRecorder{}
	poller := checkout.NewPoller(mock, 2*time.Millisecond, rec.callbacks(), testLogger())

	final, err := poller.Run(context.Background(), "pay_1")

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, final.Status)
	assert.Equal(t, 3, mock.Calls("GetPayment"))

	updates, successes, _, _ := rec.snapshot()
	require.Len(t, updates, 2)
	assert.Equal(t, domain.StatusProcessing, updates[0].Record.Status)
	assert.Equal(t, domain.StatusCompleted, updates[1].Record.Status)
	assert.Equal(t, 1, successes)
}

func TestPoller_ReportsFailureReason(t *testing.T) {
	mock := gatewaytest.NewMockClient()
	reason := "Card reported stolen"
	mock.GetPaymentFn = func(ctx context.Context, paymentID string) (*domain.PaymentRecord, error) {
		r := recordWithStatus(paymentID, domain.StatusFailed)
		r.FailureReason = &reason
		return r, nil
	}

	rec := &pollRecorder{}
	poller := checkout.NewPoller(mock, 2*time.Millisecond, rec.callbacks(), testLogger())

	final, err := poller.Run(context.Background(), "pay_1")

	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, final.Status)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.errReasons, 1)
	assert.Equal(t, reason, rec.errReasons[0])
	assert.Empty(t, rec.successes)
}

func TestPoller_CancelledPaymentDefaultReason(t *testing.T) {
	mock := gatewaytest.NewMockClient()
	mock.GetPaymentFn = func(ctx context.Context, paymentID string) (*domain.PaymentRecord, error) {
		return recordWithStatus(paymentID, domain.StatusCancelled), nil
	}

	rec := &pollRecorder{}
	poller := checkout.NewPoller(mock, 2*time.Millisecond, rec.callbacks(), testLogger())

	_, err := poller.Run(context.Background(), "pay_1")
	require.NoError(t, err)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.errReasons, 1)
	assert.Equal(t, "Payment was cancelled", rec.errReasons[0])
}

func TestPoller_FetchFailureKeepsPolling(t *testing.T) {
	mock := gatewaytest.NewMockClient()
	mock.GetPaymentFn = func(ctx context.Context, paymentID string) (*domain.PaymentRecord, error) {
		if mock.Calls("GetPayment") == 1 {
			return nil, assert.AnError
		}
		return recordWithStatus(paymentID, domain.StatusCompleted), nil
	}

	rec := &pollRecorder{}
	poller := checkout.NewPoller(mock, 2*time.Millisecond, rec.callbacks(), testLogger())

	final, err := poller.Run(context.Background(), "pay_1")

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, final.Status)

	updates, successes, _, pollErrs := rec.snapshot()
	assert.Equal(t, 1, pollErrs)
	require.Len(t, updates, 1)
	assert.Equal(t, 1, successes)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.True(t, domain.IsErrorCode(rec.pollErrs[0], domain.ErrCodePolling))
}

func TestPoller_StopSuppressesFurtherEvents(t *testing.T) {
	mock := gatewaytest.NewMockClient()
	mock.GetPaymentFn = func(ctx context.Context, paymentID string) (*domain.PaymentRecord, error) {
		return recordWithStatus(paymentID, domain.StatusPending), nil
	}

	rec := &pollRecorder{}
	poller := checkout.NewPoller(mock, 2*time.Millisecond, rec.callbacks(), testLogger())
	poller.Start(context.Background(), "pay_1")

	require.Eventually(t, func() bool {
		return mock.Calls("GetPayment") >= 1
	}, time.Second, time.Millisecond)

	poller.Stop()
	<-poller.Done()

	updatesBefore, _, _, _ := rec.snapshot()
	time.Sleep(20 * time.Millisecond)
	updatesAfter, successes, errors, _ := rec.snapshot()

	assert.Equal(t, len(updatesBefore), len(updatesAfter))
	assert.Equal(t, 0, successes)
	assert.Equal(t, 0, errors)
}

func TestPoller_StopBeforeRun(t *testing.T) {
	mock := gatewaytest.NewMockClient()
	rec := &pollRecorder{}
	poller := checkout.NewPoller(mock, 2*time.Millisecond, rec.callbacks(), testLogger())

	poller.Stop()
	_, err := poller.Run(context.Background(), "pay_1")

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, mock.Calls("GetPayment"))
}

func TestProgressFor(t *testing.T) {
	tests := []struct {
		status domain.PaymentStatus
		want   int
	}{
		{domain.StatusPending, 10},
		{domain.StatusProcessing, 50},
		{domain.StatusCompleted, 100},
		{domain.StatusRefunded, 100},
		{domain.StatusPartiallyRefunded, 75},
		{domain.StatusFailed, 0},
		{domain.StatusCancelled, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, checkout.ProgressFor(tt.status), "status %s", tt.status)
	}
}

func TestStepsFor(t *testing.T) {
	t.Run("processing", func(t *testing.T) {
		steps := checkout.StepsFor(domain.PaymentRecord{Status: domain.StatusProcessing, CreatedAt: time.Now()})
		require.Len(t, steps, 3)
		assert.True(t, steps[0].Completed)
		assert.True(t, steps[1].Current)
		assert.False(t, steps[2].Completed)
	})

	t.Run("completed", func(t *testing.T) {
		now := time.Now()
		steps := checkout.StepsFor(domain.PaymentRecord{Status: domain.StatusCompleted, CreatedAt: now, CompletedAt: &now})
		require.Len(t, steps, 3)
		assert.True(t, steps[2].Completed)
		require.NotNil(t, steps[2].Timestamp)
	})

	t.Run("failed", func(t *testing.T) {
		steps := checkout.StepsFor(domain.PaymentRecord{Status: domain.StatusFailed, CreatedAt: time.Now()})
		require.Len(t, steps, 3)
		assert.Equal(t, "Payment failed", steps[2].Label)
		assert.True(t, steps[2].Current)
	})

	t.Run("refunded", func(t *testing.T) {
		now := time.Now()
		steps := checkout.StepsFor(domain.PaymentRecord{
			Status:    domain.StatusRefunded,
			CreatedAt: now,
			Refund:    &domain.Refund{ID: "re_1", CreatedAt: now},
		})
		require.Len(t, steps, 4)
		assert.Equal(t, "Refund issued", steps[3].Label)
		assert.True(t, steps[3].Completed)
	})
}
