package domain_test

import (
	"testing"
	"time"

	"github.com/bookline/payflow/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentStatus_IsTerminal(t *testing.T) {
	terminal := []domain.PaymentStatus{
		domain.StatusCompleted,
		domain.StatusFailed,
		domain.StatusCancelled,
		domain.StatusRefunded,
		domain.StatusPartiallyRefunded,
	}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), "expected %s to be terminal", s)
	}

	assert.False(t, domain.StatusPending.IsTerminal())
	assert.False(t, domain.StatusProcessing.IsTerminal())
}

func TestPaymentRecord_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    domain.PaymentStatus
		to      domain.PaymentStatus
		allowed bool
	}{
		{"pending to processing", domain.StatusPending, domain.StatusProcessing, true},
		{"pending straight to completed", domain.StatusPending, domain.StatusCompleted, true},
		{"pending to cancelled", domain.StatusPending, domain.StatusCancelled, true},
		{"pending to refunded", domain.StatusPending, domain.StatusRefunded, false},
		{"processing to completed", domain.StatusProcessing, domain.StatusCompleted, true},
		{"processing to failed", domain.StatusProcessing, domain.StatusFailed, true},
		{"processing back to pending", domain.StatusProcessing, domain.StatusPending, false},
		{"completed to refunded", domain.StatusCompleted, domain.StatusRefunded, true},
		{"completed to partially refunded", domain.StatusCompleted, domain.StatusPartiallyRefunded, true},
		{"completed back to processing", domain.StatusCompleted, domain.StatusProcessing, false},
		{"failed is final", domain.StatusFailed, domain.StatusPending, false},
		{"cancelled is final", domain.StatusCancelled, domain.StatusProcessing, false},
		{"refunded is final", domain.StatusRefunded, domain.StatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := domain.PaymentRecord{ID: "pay_1", Status: tt.from}
			err := rec.CanTransitionTo(tt.to)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidTransition))
			}
		})
	}
}

func TestPaymentIntent_Expired(t *testing.T) {
	now := time.Now()

	fresh := domain.PaymentIntent{ID: "pi_1", ExpiresAt: now.Add(15 * time.Minute)}
	assert.False(t, fresh.Expired(now))

	stale := domain.PaymentIntent{ID: "pi_2", ExpiresAt: now.Add(-time.Minute)}
	assert.True(t, stale.Expired(now))

	// No expiry set means the gateway did not impose one.
	open := domain.PaymentIntent{ID: "pi_3"}
	assert.False(t, open.Expired(now))
}

func TestPaymentRequest_Validate(t *testing.T) {
	req := domain.PaymentRequest{AmountCents: 1000, Currency: "USD"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "$10.00", req.Money().Format())

	bad := domain.PaymentRequest{AmountCents: -1, Currency: "USD"}
	assert.Error(t, bad.Validate())

	badCurrency := domain.PaymentRequest{AmountCents: 100, Currency: "ZZZ"}
	assert.Error(t, badCurrency.Validate())
}

func TestDefaultMethod(t *testing.T) {
	methods := []domain.PaymentMethod{
		{ID: "pm_1", Type: domain.MethodCreditCard},
		{ID: "pm_2", Type: domain.MethodDebitCard, IsDefault: true},
		{ID: "pm_3", Type: domain.MethodDigitalWallet},
	}

	got, ok := domain.DefaultMethod(methods)
	require.True(t, ok)
	assert.Equal(t, "pm_2", got.ID)

	_, ok = domain.DefaultMethod([]domain.PaymentMethod{{ID: "pm_1"}})
	assert.False(t, ok)

	_, ok = domain.DefaultMethod(nil)
	assert.False(t, ok)
}
