package gateway

import "github.com/bookline/payflow/internal/domain"

type CreateIntentRequest struct {
	AmountCents        int64                      `json:"amount_cents"`
	Currency           string                     `json:"currency"`
	AllowedMethodTypes []domain.PaymentMethodType `json:"allowed_method_types,omitempty"`
	Metadata           map[string]string          `json:"metadata,omitempty"`
}

type ConfirmPaymentRequest struct {
	IntentID        string                 `json:"intent_id"`
	PaymentMethodID string                 `json:"payment_method_id"`
	BillingAddress  *domain.BillingAddress `json:"billing_address,omitempty"`
	BookingID       string                 `json:"booking_id,omitempty"`
	Description     string                 `json:"description,omitempty"`
	SaveMethod      bool                   `json:"save_method"`
	SetDefault      bool                   `json:"set_default"`
	Metadata        map[string]string      `json:"metadata,omitempty"`
}

type ConfirmPaymentResponse struct {
	Success              bool              `json:"success"`
	PaymentID            string            `json:"payment_id,omitempty"`
	GatewayTransactionID string            `json:"gateway_transaction_id,omitempty"`
	ErrorCode            string            `json:"error_code,omitempty"`
	ErrorMessage         string            `json:"error_message,omitempty"`
	ValidationErrors     map[string]string `json:"validation_errors,omitempty"`
}

type RefundRequest struct {
	PaymentID   string `json:"payment_id"`
	AmountCents int64  `json:"amount_cents,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// MethodRequest creates or updates a saved payment method. Token is the
// pre-tokenized instrument reference; raw card data never appears here.
type MethodRequest struct {
	CustomerID     string                   `json:"customer_id"`
	Token          string                   `json:"token,omitempty"`
	Type           domain.PaymentMethodType `json:"type"`
	BillingAddress *domain.BillingAddress   `json:"billing_address,omitempty"`
	SetDefault     bool                     `json:"set_default"`
}
