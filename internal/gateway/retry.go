package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/bookline/payflow/internal/config"
	"github.com/bookline/payflow/internal/domain"
)

// RetryClient decorates a Client with bounded retries on transient errors.
// Retries are safe because every mutating call carries an idempotency key.
type RetryClient struct {
	inner      Client
	baseDelay  time.Duration
	maxRetries int
}

func NewRetryClient(inner Client, cfg config.RetryConfig) Client {
	return &RetryClient{
		inner:      inner,
		baseDelay:  cfg.BaseDelay,
		maxRetries: cfg.MaxRetries,
	}
}

func (r *RetryClient) CreateIntent(ctx context.Context, req CreateIntentRequest, idempotencyKey string) (*domain.PaymentIntent, error) {
	return retry(r, ctx, func(ctx context.Context) (*domain.PaymentIntent, error) {
		return r.inner.CreateIntent(ctx, req, idempotencyKey)
	})
}

func (r *RetryClient) ConfirmPayment(ctx context.Context, req ConfirmPaymentRequest, idempotencyKey string) (*ConfirmPaymentResponse, error) {
	return retry(r, ctx, func(ctx context.Context) (*ConfirmPaymentResponse, error) {
		return r.inner.ConfirmPayment(ctx, req, idempotencyKey)
	})
}

func (r *RetryClient) GetPayment(ctx context.Context, paymentID string) (*domain.PaymentRecord, error) {
	return retry(r, ctx, func(ctx context.Context) (*domain.PaymentRecord, error) {
		return r.inner.GetPayment(ctx, paymentID)
	})
}

func (r *RetryClient) ProcessRefund(ctx context.Context, req RefundRequest, idempotencyKey string) (*domain.Refund, error) {
	return retry(r, ctx, func(ctx context.Context) (*domain.Refund, error) {
		return r.inner.ProcessRefund(ctx, req, idempotencyKey)
	})
}

func (r *RetryClient) GetPaymentMethods(ctx context.Context, customerID string) ([]domain.PaymentMethod, error) {
	methods, err := retry(r, ctx, func(ctx context.Context) (*[]domain.PaymentMethod, error) {
		m, err := r.inner.GetPaymentMethods(ctx, customerID)
		if err != nil {
			return nil, err
		}
		return &m, nil
	})
	if err != nil {
		return nil, err
	}
	return *methods, nil
}

func (r *RetryClient) CreatePaymentMethod(ctx context.Context, req MethodRequest) (*domain.PaymentMethod, error) {
	return retry(r, ctx, func(ctx context.Context) (*domain.PaymentMethod, error) {
		return r.inner.CreatePaymentMethod(ctx, req)
	})
}

func (r *RetryClient) UpdatePaymentMethod(ctx context.Context, methodID string, req MethodRequest) (*domain.PaymentMethod, error) {
	return retry(r, ctx, func(ctx context.Context) (*domain.PaymentMethod, error) {
		return r.inner.UpdatePaymentMethod(ctx, methodID, req)
	})
}

func (r *RetryClient) DeletePaymentMethod(ctx context.Context, methodID string) error {
	_, err := retry(r, ctx, func(ctx context.Context) (*struct{}, error) {
		return &struct{}{}, r.inner.DeletePaymentMethod(ctx, methodID)
	})
	return err
}

func (r *RetryClient) SetDefaultPaymentMethod(ctx context.Context, customerID, methodID string) (*domain.PaymentMethod, error) {
	return retry(r, ctx, func(ctx context.Context) (*domain.PaymentMethod, error) {
		return r.inner.SetDefaultPaymentMethod(ctx, customerID, methodID)
	})
}

// Generic retry helper
func retry[T any](r *RetryClient, ctx context.Context, operation func(ctx context.Context) (*T, error)) (*T, error) {
	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resp, err := operation(ctx)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}

		if attempt < r.maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.backoff(attempt)):
			}
		}
	}

	return nil, fmt.Errorf("maximum retries exceeded: %w", lastErr)
}

func isRetryable(err error) bool {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.IsRetryable()
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	return true
}

// Backoff calculation with exponential delay and jitter
func (r *RetryClient) backoff(attempt int) time.Duration {
	base := r.baseDelay * time.Duration(1<<attempt)

	jitter := time.Duration(rand.Intn(100)) * time.Millisecond

	return base + jitter
}
