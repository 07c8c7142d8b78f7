package checkout

import (
	"time"

	"github.com/bookline/payflow/internal/domain"
)

// PaymentFailure describes a terminal failure of one submission attempt.
// FieldErrors carries gateway-provided per-field messages when available;
// Message is the single general-error slot.
type PaymentFailure struct {
	Step        Step
	Code        string
	Message     string
	FieldErrors map[string]string
	Err         error
}

// Callbacks are the event sinks a consumer of the flow provides. All are
// optional. Per attempt, exactly one of OnPaymentSuccess or OnPaymentError
// fires, never both.
type Callbacks struct {
	OnPaymentSuccess func(domain.PaymentRecord)
	OnPaymentError   func(PaymentFailure)
	OnStatusChange   func(StatusUpdate)
	OnPollError      func(error)
	OnRetry          func(attempt int)
}

// StatusUpdate is one observed status transition with its derived progress
// view.
type StatusUpdate struct {
	Record   domain.PaymentRecord
	Progress int
	Steps    []StatusStep
}

// StatusStep is a derived, ordered progress marker. It is recomputed from
// the payment status on every transition and never persisted.
type StatusStep struct {
	Label     string
	Completed bool
	Current   bool
	Timestamp *time.Time
}
