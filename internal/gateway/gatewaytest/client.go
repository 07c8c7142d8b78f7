// Package gatewaytest provides an in-memory gateway client for tests.
package gatewaytest

import (
	"context"
	"sync"
	"time"

	"github.com/bookline/payflow/internal/domain"
	"github.com/bookline/payflow/internal/gateway"
)

// MockClient implements gateway.Client with overridable function fields and
// per-method call counters. Unset fields return sane defaults.
type MockClient struct {
	mu    sync.Mutex
	calls map[string]int

	CreateIntentFn            func(ctx context.Context, req gateway.CreateIntentRequest, idempotencyKey string) (*domain.PaymentIntent, error)
	ConfirmPaymentFn          func(ctx context.Context, req gateway.ConfirmPaymentRequest, idempotencyKey string) (*gateway.ConfirmPaymentResponse, error)
	GetPaymentFn              func(ctx context.Context, paymentID string) (*domain.PaymentRecord, error)
	ProcessRefundFn           func(ctx context.Context, req gateway.RefundRequest, idempotencyKey string) (*domain.Refund, error)
	GetPaymentMethodsFn       func(ctx context.Context, customerID string) ([]domain.PaymentMethod, error)
	CreatePaymentMethodFn     func(ctx context.Context, req gateway.MethodRequest) (*domain.PaymentMethod, error)
	UpdatePaymentMethodFn     func(ctx context.Context, methodID string, req gateway.MethodRequest) (*domain.PaymentMethod, error)
	DeletePaymentMethodFn     func(ctx context.Context, methodID string) error
	SetDefaultPaymentMethodFn func(ctx context.Context, customerID, methodID string) (*domain.PaymentMethod, error)
}

func NewMockClient() *MockClient {
	return &MockClient{calls: make(map[string]int)}
}

func (m *MockClient) inc(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[method]++
}

// Calls returns how many times a method was invoked.
func (m *MockClient) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MockClient) CreateIntent(ctx context.Context, req gateway.CreateIntentRequest, idempotencyKey string) (*domain.PaymentIntent, error) {
	m.inc("CreateIntent")
	if m.CreateIntentFn != nil {
		return m.CreateIntentFn(ctx, req, idempotencyKey)
	}
	return &domain.PaymentIntent{
		ID:           "pi_mock",
		ClientSecret: "pi_mock_secret",
		AmountCents:  req.AmountCents,
		Currency:     req.Currency,
		Status:       domain.IntentRequiresConfirmation,
		CreatedAt:    time.Now(),
		ExpiresAt:    time.Now().Add(30 * time.Minute),
	}, nil
}

func (m *MockClient) ConfirmPayment(ctx context.Context, req gateway.ConfirmPaymentRequest, idempotencyKey string) (*gateway.ConfirmPaymentResponse, error) {
	m.inc("ConfirmPayment")
	if m.ConfirmPaymentFn != nil {
		return m.ConfirmPaymentFn(ctx, req, idempotencyKey)
	}
	return &gateway.ConfirmPaymentResponse{
		Success:              true,
		PaymentID:            "pay_mock",
		GatewayTransactionID: "txn_mock",
	}, nil
}

func (m *MockClient) GetPayment(ctx context.Context, paymentID string) (*domain.PaymentRecord, error) {
	m.inc("GetPayment")
	if m.GetPaymentFn != nil {
		return m.GetPaymentFn(ctx, paymentID)
	}
	return &domain.PaymentRecord{
		ID:        paymentID,
		Status:    domain.StatusCompleted,
		CreatedAt: time.Now(),
	}, nil
}

func (m *MockClient) ProcessRefund(ctx context.Context, req gateway.RefundRequest, idempotencyKey string) (*domain.Refund, error) {
	m.inc("ProcessRefund")
	if m.ProcessRefundFn != nil {
		return m.ProcessRefundFn(ctx, req, idempotencyKey)
	}
	return &domain.Refund{
		ID:          "re_mock",
		PaymentID:   req.PaymentID,
		AmountCents: req.AmountCents,
		Reason:      req.Reason,
		CreatedAt:   time.Now(),
	}, nil
}

func (m *MockClient) GetPaymentMethods(ctx context.Context, customerID string) ([]domain.PaymentMethod, error) {
	m.inc("GetPaymentMethods")
	if m.GetPaymentMethodsFn != nil {
		return m.GetPaymentMethodsFn(ctx, customerID)
	}
	return nil, nil
}

func (m *MockClient) CreatePaymentMethod(ctx context.Context, req gateway.MethodRequest) (*domain.PaymentMethod, error) {
	m.inc("CreatePaymentMethod")
	if m.CreatePaymentMethodFn != nil {
		return m.CreatePaymentMethodFn(ctx, req)
	}
	return &domain.PaymentMethod{ID: "pm_mock", Type: req.Type, IsDefault: req.SetDefault}, nil
}

func (m *MockClient) UpdatePaymentMethod(ctx context.Context, methodID string, req gateway.MethodRequest) (*domain.PaymentMethod, error) {
	m.inc("UpdatePaymentMethod")
	if m.UpdatePaymentMethodFn != nil {
		return m.UpdatePaymentMethodFn(ctx, methodID, req)
	}
	return &domain.PaymentMethod{ID: methodID, Type: req.Type}, nil
}

func (m *MockClient) DeletePaymentMethod(ctx context.Context, methodID string) error {
	m.inc("DeletePaymentMethod")
	if m.DeletePaymentMethodFn != nil {
		return m.DeletePaymentMethodFn(ctx, methodID)
	}
	return nil
}

func (m *MockClient) SetDefaultPaymentMethod(ctx context.Context, customerID, methodID string) (*domain.PaymentMethod, error) {
	m.inc("SetDefaultPaymentMethod")
	if m.SetDefaultPaymentMethodFn != nil {
		return m.SetDefaultPaymentMethodFn(ctx, customerID, methodID)
	}
	return &domain.PaymentMethod{ID: methodID, IsDefault: true}, nil
}
