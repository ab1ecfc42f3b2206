// Package payment holds the adapters for external payment providers.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"threewloc-backend/internal/domain"
	"threewloc-backend/internal/logger"
)

// ChargeRequest asks a provider to open a hosted checkout for Reference.
type ChargeRequest struct {
	Reference     string
	Amount        int64
	Currency      string
	Description   string
	CustomerEmail string
	CustomerName  string
	ReturnURL     string
}

// Charge is the provider's answer to CreateCharge. ProviderTransactionID may be
// empty when the provider only assigns one after the customer pays.
type Charge struct {
	ProviderTransactionID string
	CheckoutURL           string
	Status                domain.ChargeStatus
}

// ChargeVerification is the provider's view of a transaction. Reference is the
// merchant reference the provider recorded for it, which must match the
// payment being verified.
type ChargeVerification struct {
	ProviderTransactionID string
	Reference             string
	Status                domain.ChargeStatus
	Amount                int64
}

type Refund struct {
	Status           domain.RefundStatus
	ProviderRefundID string
}

// Callback carries the identifiers found in a provider notification. Any
// status in the notification is ignored; callers must VerifyCharge.
type Callback struct {
	Reference             string
	ProviderTransactionID string
}

// Gateway is implemented by every provider adapter. VerifyCharge must be safe
// to call any number of times.
type Gateway interface {
	Provider() domain.PaymentProvider
	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)
	VerifyCharge(ctx context.Context, providerTransactionID string) (*ChargeVerification, error)
	InitiateRefund(ctx context.Context, providerTransactionID string, amount int64, reason string) (*Refund, error)
	ParseCallback(body []byte) (*Callback, error)
}

type Registry struct {
	gateways map[domain.PaymentProvider]Gateway
}

func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[domain.PaymentProvider]Gateway, len(gateways))}
	for _, g := range gateways {
		r.gateways[g.Provider()] = g
	}
	return r
}

func (r *Registry) Get(provider domain.PaymentProvider) (Gateway, error) {
	g, ok := r.gateways[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownProvider, provider)
	}
	return g, nil
}

// Providers lists the registered providers in a stable order.
func (r *Registry) Providers() []domain.PaymentProvider {
	out := make([]domain.PaymentProvider, 0, len(r.gateways))
	for p := range r.gateways {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

const (
	verifyBaseDelay = 15 * time.Second
	verifyMaxDelay  = 30 * time.Minute
)

// NextVerifyDelay is the wait before the next status poll after attempt
// polls have been made.
func NextVerifyDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := verifyBaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= verifyMaxDelay {
			return verifyMaxDelay
		}
	}
	return d
}

// httpDoer is satisfied by *http.Client.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// doJSON sends body (if any) as JSON and decodes a 2xx response into out.
// Failures come back as *domain.PaymentGatewayError.
func doJSON(ctx context.Context, client httpDoer, provider domain.PaymentProvider, operation, method, url string,
	headers map[string]string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &domain.PaymentGatewayError{Provider: provider, Operation: operation, Err: err}
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return &domain.PaymentGatewayError{Provider: provider, Operation: operation, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	logger.ExternalServiceCall(string(provider), operation, "method", method, "url", url)
	res, err := client.Do(req)
	if err != nil {
		logger.ExternalServiceResult(string(provider), operation, err, "elapsed", time.Since(start))
		return &domain.PaymentGatewayError{Provider: provider, Operation: operation, Retryable: true, Err: err}
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		logger.ExternalServiceResult(string(provider), operation, err, "elapsed", time.Since(start))
		return &domain.PaymentGatewayError{Provider: provider, Operation: operation, Retryable: true, Err: err}
	}

	if res.StatusCode >= 300 {
		gwErr := &domain.PaymentGatewayError{
			Provider:   provider,
			Operation:  operation,
			StatusCode: res.StatusCode,
			Retryable:  res.StatusCode >= 500 || res.StatusCode == http.StatusTooManyRequests,
			Err:        errors.New(truncate(string(payload), 256)),
		}
		logger.ExternalServiceResult(string(provider), operation, gwErr, "elapsed", time.Since(start))
		return gwErr
	}
	logger.ExternalServiceResult(string(provider), operation, nil, "status", res.StatusCode, "elapsed", time.Since(start))

	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &domain.PaymentGatewayError{Provider: provider, Operation: operation, StatusCode: res.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
