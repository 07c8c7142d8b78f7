package domain

// PaymentMethodType enumerates how a customer can pay.
type PaymentMethodType string

const (
	MethodCreditCard    PaymentMethodType = "credit_card"
	MethodDebitCard     PaymentMethodType = "debit_card"
	MethodBankTransfer  PaymentMethodType = "bank_transfer"
	MethodDigitalWallet PaymentMethodType = "digital_wallet"
	MethodCash          PaymentMethodType = "cash"
	MethodCheck         PaymentMethodType = "check"
)

// PaymentMethod is a pre-tokenized payment instrument reference. Card data
// never passes through this core; the gateway owns tokenization.
type PaymentMethod struct {
	ID             string            `json:"id"`
	Type           PaymentMethodType `json:"type"`
	Last4          string            `json:"last4,omitempty"`
	Brand          string            `json:"brand,omitempty"`
	IsDefault      bool              `json:"is_default"`
	BillingAddress *BillingAddress   `json:"billing_address,omitempty"`
}

// BillingAddress is the postal address some methods and jurisdictions
// require for fraud or tax purposes.
type BillingAddress struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// DefaultMethod returns the first method flagged as default. The gateway
// enforces uniqueness; this core only picks one if any exists.
func DefaultMethod(methods []PaymentMethod) (PaymentMethod, bool) {
	for _, m := range methods {
		if m.IsDefault {
			return m, true
		}
	}
	return PaymentMethod{}, false
}
