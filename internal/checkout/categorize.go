package checkout

import (
	"context"
	"errors"

	"github.com/bookline/payflow/internal/domain"
	"github.com/bookline/payflow/internal/gateway"
)

// Category classifies a failure for retry policy.
type Category string

const (
	CategoryTransient      Category = "TRANSIENT"
	CategoryDecline        Category = "DECLINE"
	CategoryMethodRejected Category = "METHOD_REJECTED"
	CategoryExpiredIntent  Category = "EXPIRED_INTENT"
	CategoryValidation     Category = "VALIDATION"
)

// Decline codes meaning the instrument itself was rejected. Retrying the
// same method verbatim cannot succeed; the flow must return to method
// selection.
var methodRejectedCodes = map[string]bool{
	"invalid_card":       true,
	"invalid_cvv":        true,
	"card_expired":       true,
	"unsupported_method": true,
}

// Categorize determines the failure category for retry decisions.
func Categorize(err error) Category {
	if err == nil {
		return ""
	}

	if _, ok := domain.IsValidationError(err); ok {
		return CategoryValidation
	}

	if domain.IsErrorCode(err, domain.ErrCodeIntentExpired) {
		return CategoryExpiredIntent
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CategoryTransient
	}

	if gwErr, ok := gateway.IsGatewayError(err); ok {
		if gwErr.StatusCode >= 500 {
			return CategoryTransient
		}
		return declineCategory(gwErr.Code)
	}

	// Default: transient (safe fallback)
	return CategoryTransient
}

func declineCategory(code string) Category {
	switch {
	case methodRejectedCodes[code]:
		return CategoryMethodRejected
	case code == "intent_expired":
		return CategoryExpiredIntent
	case code == "internal_error":
		return CategoryTransient
	default:
		return CategoryDecline
	}
}

// MethodRejected reports whether a failure means the selected payment
// method cannot be retried verbatim.
func MethodRejected(f PaymentFailure) bool {
	if methodRejectedCodes[f.Code] {
		return true
	}
	if gwErr, ok := gateway.IsGatewayError(f.Err); ok {
		return methodRejectedCodes[gwErr.Code]
	}
	return false
}
