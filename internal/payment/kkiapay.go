package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"threewloc-backend/internal/domain"
)

const (
	KkiapaySandboxAPIURL = "https://api-sandbox.kkiapay.me"
	KkiapayWidgetURL     = "https://widget-v3.kkiapay.me"
)

type KkiapayOptions struct {
	PublicKey  string
	PrivateKey string
	Secret     string
	APIURL     string
	WidgetURL  string
	Sandbox    bool
	Timeout    time.Duration
}

// KkiapayGateway handles mobile money through the Kkiapay hosted widget.
// Kkiapay assigns its transaction id only once the customer pays; it reaches
// us through the callback.
type KkiapayGateway struct {
	opts   KkiapayOptions
	client httpDoer
}

func NewKkiapayGateway(opts KkiapayOptions, client httpDoer) *KkiapayGateway {
	if opts.APIURL == "" {
		opts.APIURL = KkiapaySandboxAPIURL
	}
	if opts.WidgetURL == "" {
		opts.WidgetURL = KkiapayWidgetURL
	}
	opts.APIURL = strings.TrimRight(opts.APIURL, "/")
	opts.WidgetURL = strings.TrimRight(opts.WidgetURL, "/")
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &KkiapayGateway{opts: opts, client: client}
}

func (g *KkiapayGateway) Provider() domain.PaymentProvider {
	return domain.ProviderKkiapay
}

func (g *KkiapayGateway) headers() map[string]string {
	return map[string]string{
		"x-api-key":     g.opts.PublicKey,
		"x-private-key": g.opts.PrivateKey,
		"x-secret-key":  g.opts.Secret,
	}
}

func (g *KkiapayGateway) CreateCharge(_ context.Context, req ChargeRequest) (*Charge, error) {
	q := url.Values{}
	q.Set("amount", strconv.FormatInt(req.Amount, 10))
	q.Set("key", g.opts.PublicKey)
	q.Set("partnerId", req.Reference)
	q.Set("sandbox", strconv.FormatBool(g.opts.Sandbox))
	if req.Description != "" {
		q.Set("reason", req.Description)
	}
	if req.CustomerEmail != "" {
		q.Set("email", req.CustomerEmail)
	}
	if req.CustomerName != "" {
		q.Set("name", req.CustomerName)
	}
	if req.ReturnURL != "" {
		q.Set("callback", req.ReturnURL)
	}

	return &Charge{
		CheckoutURL: g.opts.WidgetURL + "/?" + q.Encode(),
		Status:      domain.ChargeStatusPending,
	}, nil
}

type kkiapayStatusResponse struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
	Amount        int64  `json:"amount"`
	PartnerID     string `json:"partnerId"`
	Reason        string `json:"reason"`
}

func (g *KkiapayGateway) VerifyCharge(ctx context.Context, transactionID string) (*ChargeVerification, error) {
	var resp kkiapayStatusResponse
	if err := doJSON(ctx, g.client, domain.ProviderKkiapay, "VerifyCharge", http.MethodPost,
		g.opts.APIURL+"/api/v1/transactions/status", g.headers(),
		map[string]string{"transactionId": transactionID}, &resp); err != nil {
		return nil, err
	}

	return &ChargeVerification{
		ProviderTransactionID: transactionID,
		Reference:             resp.PartnerID,
		Status:                kkiapayChargeStatus(resp.Status),
		Amount:                resp.Amount,
	}, nil
}

// kkiapayChargeStatus treats a reverted transaction as failed: the money went
// back to the customer.
func kkiapayChargeStatus(status string) domain.ChargeStatus {
	switch strings.ToUpper(status) {
	case "SUCCESS":
		return domain.ChargeStatusCompleted
	case "PENDING", "":
		return domain.ChargeStatusPending
	default:
		return domain.ChargeStatusFailed
	}
}

type kkiapayRevertResponse struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
	Code          string `json:"code"`
}

// InitiateRefund reverts the whole transaction. Kkiapay has no partial
// refunds, so amount is only used for logging by the caller.
func (g *KkiapayGateway) InitiateRefund(ctx context.Context, transactionID string, _ int64, _ string) (*Refund, error) {
	var resp kkiapayRevertResponse
	if err := doJSON(ctx, g.client, domain.ProviderKkiapay, "InitiateRefund", http.MethodPost,
		g.opts.APIURL+"/api/v1/transactions/revert", g.headers(),
		map[string]string{"transactionId": transactionID}, &resp); err != nil {
		return nil, err
	}

	switch strings.ToUpper(resp.Status) {
	case "REVERTED", "SUCCESS":
		return &Refund{Status: domain.RefundStatusCompleted, ProviderRefundID: resp.TransactionID}, nil
	case "PENDING":
		return &Refund{Status: domain.RefundStatusInitiated, ProviderRefundID: resp.TransactionID}, nil
	}
	return nil, &domain.PaymentGatewayError{
		Provider:  domain.ProviderKkiapay,
		Operation: "InitiateRefund",
		Err:       fmt.Errorf("revert refused with status %q code %q", resp.Status, resp.Code),
	}
}

// ParseCallback accepts both the widget success callback and the webhook
// body. The partnerId carries our reference.
func (g *KkiapayGateway) ParseCallback(body []byte) (*Callback, error) {
	var payload struct {
		TransactionID string `json:"transactionId"`
		PartnerID     string `json:"partnerId"`
		Reference     string `json:"reference"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: malformed kkiapay callback", domain.ErrInvalidInput)
	}
	ref := payload.PartnerID
	if ref == "" {
		ref = payload.Reference
	}
	if ref == "" || payload.TransactionID == "" {
		return nil, fmt.Errorf("%w: kkiapay callback needs transactionId and partnerId", domain.ErrInvalidInput)
	}
	return &Callback{Reference: ref, ProviderTransactionID: payload.TransactionID}, nil
}
