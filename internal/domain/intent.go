package domain

import "time"

// IntentStatus is the gateway-side state of a payment intent.
type IntentStatus string

const (
	IntentRequiresPaymentMethod IntentStatus = "requires_payment_method"
	IntentRequiresConfirmation  IntentStatus = "requires_confirmation"
	IntentProcessing            IntentStatus = "processing"
	IntentSucceeded             IntentStatus = "succeeded"
	IntentCanceled              IntentStatus = "canceled"
)

// PaymentIntent is the gateway-side handle for one submission attempt. It
// defends against duplicate charges and expires; an expired intent must
// never be reused.
type PaymentIntent struct {
	ID                 string              `json:"id"`
	ClientSecret       string              `json:"client_secret"`
	AmountCents        int64               `json:"amount_cents"`
	Currency           string              `json:"currency"`
	Status             IntentStatus        `json:"status"`
	AllowedMethodTypes []PaymentMethodType `json:"allowed_method_types"`
	CreatedAt          time.Time           `json:"created_at"`
	ExpiresAt          time.Time           `json:"expires_at"`
}

// Expired reports whether the intent may no longer be submitted.
func (i *PaymentIntent) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}
