// Package domain holds the payment types shared by the submission flow,
// the status poller and the gateway client.
package domain

import (
	"slices"
	"time"
)

// PaymentStatus represents the current state of a payment in its lifecycle
type PaymentStatus string

const (
	StatusPending           PaymentStatus = "pending"
	StatusProcessing        PaymentStatus = "processing"
	StatusCompleted         PaymentStatus = "completed"
	StatusFailed            PaymentStatus = "failed"
	StatusCancelled         PaymentStatus = "cancelled"
	StatusRefunded          PaymentStatus = "refunded"
	StatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

// IsTerminal reports whether no further status transition can occur.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusRefunded, StatusPartiallyRefunded:
		return true
	default:
		return false
	}
}

// PaymentRecord is the gateway-owned view of a payment. The copy held by
// this core is a cache refreshed by polling; observers must not mutate it.
type PaymentRecord struct {
	ID                   string        `json:"id"`
	AmountCents          int64         `json:"amount_cents"`
	Currency             string        `json:"currency"`
	Status               PaymentStatus `json:"status"`
	PaymentMethod        PaymentMethod `json:"payment_method"`
	GatewayTransactionID *string       `json:"gateway_transaction_id,omitempty"`
	FailureReason        *string       `json:"failure_reason,omitempty"`
	Refund               *Refund       `json:"refund,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Refund describes a full or partial refund attached to a payment.
type Refund struct {
	ID          string    `json:"id"`
	PaymentID   string    `json:"payment_id"`
	AmountCents int64     `json:"amount_cents"`
	Reason      string    `json:"reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CanTransitionTo validates a status change reported by the gateway.
//
// Valid transitions are:
//   - pending → processing, completed, failed, cancelled
//   - processing → completed, failed, cancelled
//   - completed → refunded, partially_refunded
//
// Terminal statuses other than completed allow no further transitions.
func (p *PaymentRecord) CanTransitionTo(target PaymentStatus) error {
	switch p.Status {
	case StatusPending:
		return p.allow(target, StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled)
	case StatusProcessing:
		return p.allow(target, StatusCompleted, StatusFailed, StatusCancelled)
	case StatusCompleted:
		return p.allow(target, StatusRefunded, StatusPartiallyRefunded)
	}
	return NewInvalidTransitionError(string(p.Status), string(target))
}

func (p *PaymentRecord) allow(target PaymentStatus, allowed ...PaymentStatus) error {
	if slices.Contains(allowed, target) {
		return nil
	}
	return NewInvalidTransitionError(string(p.Status), string(target))
}
