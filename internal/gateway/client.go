// Package gateway talks to the payment intent gateway over HTTP. The rest
// of the core depends on the Client interface only.
package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/bookline/payflow/internal/config"
	"github.com/bookline/payflow/internal/domain"
)

// Client is the gateway collaborator contract.
type Client interface {
	CreateIntent(ctx context.Context, req CreateIntentRequest, idempotencyKey string) (*domain.PaymentIntent, error)
	ConfirmPayment(ctx context.Context, req ConfirmPaymentRequest, idempotencyKey string) (*ConfirmPaymentResponse, error)
	GetPayment(ctx context.Context, paymentID string) (*domain.PaymentRecord, error)
	ProcessRefund(ctx context.Context, req RefundRequest, idempotencyKey string) (*domain.Refund, error)

	GetPaymentMethods(ctx context.Context, customerID string) ([]domain.PaymentMethod, error)
	CreatePaymentMethod(ctx context.Context, req MethodRequest) (*domain.PaymentMethod, error)
	UpdatePaymentMethod(ctx context.Context, methodID string, req MethodRequest) (*domain.PaymentMethod, error)
	DeletePaymentMethod(ctx context.Context, methodID string) error
	SetDefaultPaymentMethod(ctx context.Context, customerID, methodID string) (*domain.PaymentMethod, error)
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPClient(cfg config.GatewayConfig) Client {
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout,
		},
	}
}

func (c *HTTPClient) CreateIntent(ctx context.Context, req CreateIntentRequest, idempotencyKey string) (*domain.PaymentIntent, error) {
	url := fmt.Sprintf("%s/api/v1/intents", c.baseURL)
	return sendRequest[CreateIntentRequest, domain.PaymentIntent](c, ctx, http.MethodPost, url, &req, idempotencyKey)
}

func (c *HTTPClient) ConfirmPayment(ctx context.Context, req ConfirmPaymentRequest, idempotencyKey string) (*ConfirmPaymentResponse, error) {
	url := fmt.Sprintf("%s/api/v1/payments", c.baseURL)
	return sendRequest[ConfirmPaymentRequest, ConfirmPaymentResponse](c, ctx, http.MethodPost, url, &req, idempotencyKey)
}

func (c *HTTPClient) GetPayment(ctx context.Context, paymentID string) (*domain.PaymentRecord, error) {
	url := fmt.Sprintf("%s/api/v1/payments/%s", c.baseURL, paymentID)
	return sendRequest[any, domain.PaymentRecord](c, ctx, http.MethodGet, url, nil, "")
}

func (c *HTTPClient) ProcessRefund(ctx context.Context, req RefundRequest, idempotencyKey string) (*domain.Refund, error) {
	url := fmt.Sprintf("%s/api/v1/refunds", c.baseURL)
	return sendRequest[RefundRequest, domain.Refund](c, ctx, http.MethodPost, url, &req, idempotencyKey)
}

func (c *HTTPClient) GetPaymentMethods(ctx context.Context, customerID string) ([]domain.PaymentMethod, error) {
	url := fmt.Sprintf("%s/api/v1/customers/%s/payment-methods", c.baseURL, customerID)
	methods, err := sendRequest[any, []domain.PaymentMethod](c, ctx, http.MethodGet, url, nil, "")
	if err != nil {
		return nil, err
	}
	return *methods, nil
}

func (c *HTTPClient) CreatePaymentMethod(ctx context.Context, req MethodRequest) (*domain.PaymentMethod, error) {
	url := fmt.Sprintf("%s/api/v1/payment-methods", c.baseURL)
	return sendRequest[MethodRequest, domain.PaymentMethod](c, ctx, http.MethodPost, url, &req, "")
}

func (c *HTTPClient) UpdatePaymentMethod(ctx context.Context, methodID string, req MethodRequest) (*domain.PaymentMethod, error) {
	url := fmt.Sprintf("%s/api/v1/payment-methods/%s", c.baseURL, methodID)
	return sendRequest[MethodRequest, domain.PaymentMethod](c, ctx, http.MethodPut, url, &req, "")
}

func (c *HTTPClient) DeletePaymentMethod(ctx context.Context, methodID string) error {
	url := fmt.Sprintf("%s/api/v1/payment-methods/%s", c.baseURL, methodID)
	_, err := sendRequest[any, struct{}](c, ctx, http.MethodDelete, url, nil, "")
	return err
}

func (c *HTTPClient) SetDefaultPaymentMethod(ctx context.Context, customerID, methodID string) (*domain.PaymentMethod, error) {
	url := fmt.Sprintf("%s/api/v1/customers/%s/payment-methods/%s/default", c.baseURL, customerID, methodID)
	return sendRequest[any, domain.PaymentMethod](c, ctx, http.MethodPost, url, nil, "")
}

func sendRequest[Req any, Resp any](c *HTTPClient, ctx context.Context, method, url string, reqBody *Req, idempotencyKey string) (*Resp, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("error marshalling json: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if idempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		var gwErrResp gatewayErrorResponse
		if err := json.Unmarshal(body, &gwErrResp); err != nil {
			return nil, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, &GatewayError{
			Code:       gwErrResp.Err,
			Message:    gwErrResp.Message,
			StatusCode: resp.StatusCode,
		}
	}

	var gwResp Resp
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&gwResp); err != nil {
			return nil, fmt.Errorf("error decoding json response: %w", err)
		}
	}

	return &gwResp, nil
}
