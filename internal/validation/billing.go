package validation

import (
	"regexp"

	"github.com/bookline/payflow/internal/domain"
)

// Billing field names used in error maps. They match the keys consumers of
// the flow render against.
const (
	FieldBillingStreet     = "billingStreet"
	FieldBillingCity       = "billingCity"
	FieldBillingState      = "billingState"
	FieldBillingPostalCode = "billingPostalCode"
	FieldBillingCountry    = "billingCountry"
)

var postalCodePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 \-]{2,9}$`)

// BillingRules is the ruleset for a billing address form.
func BillingRules() map[string][]Rule {
	return map[string][]Rule{
		FieldBillingStreet: {
			RequireRule("Street address is required"),
			MaxLengthRule(120, "Street address is too long"),
		},
		FieldBillingCity: {
			RequireRule("City is required"),
			MaxLengthRule(80, "City is too long"),
		},
		FieldBillingState: {
			RequireRule("State is required"),
		},
		FieldBillingPostalCode: {
			RequireRule("Postal code is required"),
			PatternRule(postalCodePattern, "Postal code is invalid"),
		},
		FieldBillingCountry: {
			RequireRule("Country is required"),
			MinLengthRule(2, "Country is invalid"),
		},
	}
}

// ValidateBillingAddress runs the billing ruleset over an address and
// returns per-field messages keyed by the Field* constants.
func ValidateBillingAddress(addr domain.BillingAddress) (map[string]string, bool) {
	values := map[string]string{
		FieldBillingStreet:     addr.Street,
		FieldBillingCity:       addr.City,
		FieldBillingState:      addr.State,
		FieldBillingPostalCode: addr.PostalCode,
		FieldBillingCountry:    addr.Country,
	}
	return Form(values, BillingRules())
}
