package domain

// PaymentRequest describes the charge the caller wants to make. Amount is
// in minor units and must be positive; currency is from the fixed set.
type PaymentRequest struct {
	AmountCents     int64
	Currency        string
	PaymentMethodID string
	BookingID       string
	Description     string
	BillingAddress  *BillingAddress
	SaveMethod      bool
	SetDefault      bool
	Metadata        map[string]string
}

// Validate checks the request invariants that never reach the gateway.
func (r *PaymentRequest) Validate() error {
	if _, err := NewMoney(r.AmountCents, r.Currency); err != nil {
		return err
	}
	return nil
}

// Money returns the request amount as a value object. Call Validate first.
func (r *PaymentRequest) Money() Money {
	return Money{AmountCents: r.AmountCents, Currency: r.Currency}
}
