package gateway

import (
	"errors"
	"fmt"
)

// GatewayError is a structured rejection from the payment gateway.
type GatewayError struct {
	Code       string
	Message    string
	StatusCode int
}

type gatewayErrorResponse struct {
	Err     string `json:"error"`
	Message string `json:"message"`
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error [%s]: %s (status: %d)", e.Code, e.Message, e.StatusCode)
}

func (e *GatewayError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.Code == "internal_error"
}

func IsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	ok := errors.As(err, &gwErr)
	return gwErr, ok
}

// IsNotFound reports a 404 from the gateway, e.g. an unknown payment id.
func IsNotFound(err error) bool {
	if gwErr, ok := IsGatewayError(err); ok {
		return gwErr.StatusCode == 404
	}
	return false
}
