package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"threewloc-backend/internal/domain"
)

// SandboxGateway is an in-process provider for development and tests.
// Charges stay pending until Settle or Decline is called, unless AutoComplete
// is set.
type SandboxGateway struct {
	mu           sync.Mutex
	baseURL      string
	autoComplete bool
	charges      map[string]*sandboxCharge
	refundErr    error
}

type sandboxCharge struct {
	reference string
	amount    int64
	status    domain.ChargeStatus
	refunded  bool
}

func NewSandboxGateway(baseURL string, autoComplete bool) *SandboxGateway {
	return &SandboxGateway{
		baseURL:      strings.TrimRight(baseURL, "/"),
		autoComplete: autoComplete,
		charges:      make(map[string]*sandboxCharge),
	}
}

func (g *SandboxGateway) Provider() domain.PaymentProvider {
	return domain.ProviderSandbox
}

func sandboxTransactionID(reference string) string {
	return "sbx_" + reference
}

func (g *SandboxGateway) CreateCharge(_ context.Context, req ChargeRequest) (*Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	txID := sandboxTransactionID(req.Reference)
	status := domain.ChargeStatusPending
	if g.autoComplete {
		status = domain.ChargeStatusCompleted
	}
	g.charges[txID] = &sandboxCharge{reference: req.Reference, amount: req.Amount, status: status}

	return &Charge{
		ProviderTransactionID: txID,
		CheckoutURL:           g.baseURL + "/sandbox/checkout/" + req.Reference,
		Status:                domain.ChargeStatusPending,
	}, nil
}

func (g *SandboxGateway) VerifyCharge(_ context.Context, txID string) (*ChargeVerification, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.charges[txID]
	if !ok {
		return nil, &domain.PaymentGatewayError{Provider: domain.ProviderSandbox, Operation: "VerifyCharge", StatusCode: 404,
			Err: fmt.Errorf("unknown transaction %s", txID)}
	}
	return &ChargeVerification{ProviderTransactionID: txID, Reference: c.reference, Status: c.status, Amount: c.amount}, nil
}

func (g *SandboxGateway) InitiateRefund(_ context.Context, txID string, amount int64, _ string) (*Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.refundErr != nil {
		return nil, &domain.PaymentGatewayError{Provider: domain.ProviderSandbox, Operation: "InitiateRefund", Retryable: true, Err: g.refundErr}
	}
	c, ok := g.charges[txID]
	if !ok || c.status != domain.ChargeStatusCompleted {
		return nil, &domain.PaymentGatewayError{Provider: domain.ProviderSandbox, Operation: "InitiateRefund",
			Err: fmt.Errorf("transaction %s is not refundable", txID)}
	}
	if amount > c.amount {
		return nil, &domain.PaymentGatewayError{Provider: domain.ProviderSandbox, Operation: "InitiateRefund",
			Err: fmt.Errorf("refund %d exceeds charge %d", amount, c.amount)}
	}
	c.refunded = true
	return &Refund{Status: domain.RefundStatusCompleted, ProviderRefundID: txID + "_refund"}, nil
}

func (g *SandboxGateway) ParseCallback(body []byte) (*Callback, error) {
	var payload struct {
		Reference string `json:"reference"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Reference == "" {
		return nil, fmt.Errorf("%w: sandbox callback needs a reference", domain.ErrInvalidInput)
	}
	return &Callback{Reference: payload.Reference, ProviderTransactionID: sandboxTransactionID(payload.Reference)}, nil
}

// Settle marks the charge for reference as paid.
func (g *SandboxGateway) Settle(reference string) error {
	return g.setStatus(reference, domain.ChargeStatusCompleted)
}

// Decline marks the charge for reference as failed.
func (g *SandboxGateway) Decline(reference string) error {
	return g.setStatus(reference, domain.ChargeStatusFailed)
}

func (g *SandboxGateway) setStatus(reference string, status domain.ChargeStatus) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.charges[sandboxTransactionID(reference)]
	if !ok {
		return fmt.Errorf("%w: sandbox charge %s", domain.ErrNotFound, reference)
	}
	c.status = status
	return nil
}

// FailRefunds makes every following InitiateRefund fail with err. Pass nil
// to restore normal behaviour.
func (g *SandboxGateway) FailRefunds(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refundErr = err
}

// Refunded reports whether the charge for reference was refunded.
func (g *SandboxGateway) Refunded(reference string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.charges[sandboxTransactionID(reference)]
	return ok && c.refunded
}
