package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// PaymentError represents a business logic error in the payment flow
type PaymentError struct {
	Code    string
	Message string
	Err     error
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *PaymentError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeInvalidTransition  = "INVALID_TRANSITION"
	ErrCodeInvalidAmount      = "INVALID_AMOUNT"
	ErrCodeUnknownCurrency    = "UNKNOWN_CURRENCY"
	ErrCodeIntentCreation     = "INTENT_CREATION_FAILED"
	ErrCodeIntentExpired      = "INTENT_EXPIRED"
	ErrCodeSubmissionDeclined = "SUBMISSION_DECLINED"
	ErrCodePolling            = "POLLING_FAILED"
	ErrCodeInvalidStep        = "INVALID_STEP"
)

func NewInvalidTransitionError(from, to string) *PaymentError {
	return &PaymentError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

func NewInvalidAmountError(amountCents int64) *PaymentError {
	return &PaymentError{
		Code:    ErrCodeInvalidAmount,
		Message: fmt.Sprintf("invalid amount %d", amountCents),
	}
}

func NewUnknownCurrencyError(currency string) *PaymentError {
	return &PaymentError{
		Code:    ErrCodeUnknownCurrency,
		Message: fmt.Sprintf("unknown currency %q", currency),
	}
}

func NewIntentCreationError(err error) *PaymentError {
	return &PaymentError{
		Code:    ErrCodeIntentCreation,
		Message: "payment intent could not be created",
		Err:     err,
	}
}

func NewIntentExpiredError(intentID string) *PaymentError {
	return &PaymentError{
		Code:    ErrCodeIntentExpired,
		Message: fmt.Sprintf("payment intent %s has expired", intentID),
	}
}

func NewSubmissionDeclinedError(message string, err error) *PaymentError {
	if message == "" {
		message = "payment was declined"
	}
	return &PaymentError{
		Code:    ErrCodeSubmissionDeclined,
		Message: message,
		Err:     err,
	}
}

func NewPollingError(err error) *PaymentError {
	return &PaymentError{
		Code:    ErrCodePolling,
		Message: "failed to fetch payment status",
		Err:     err,
	}
}

func NewInvalidStepError(step, operation string) *PaymentError {
	return &PaymentError{
		Code:    ErrCodeInvalidStep,
		Message: fmt.Sprintf("%s is not allowed while %s", operation, step),
	}
}

// IsErrorCode checks if an error is a PaymentError with a specific code
func IsErrorCode(err error, code string) bool {
	var perr *PaymentError
	if errors.As(err, &perr) {
		return perr.Code == code
	}
	return false
}

// ValidationError carries per-field messages. It is recoverable locally and
// never reaches the gateway.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return "validation failed: " + strings.Join(names, ", ")
}

// IsValidationError unwraps a ValidationError if present.
func IsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	ok := errors.As(err, &verr)
	return verr, ok
}
