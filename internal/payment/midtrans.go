package payment

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"threewloc-backend/internal/domain"
)

const (
	MidtransSandboxAPIURL  = "https://api.sandbox.midtrans.com"
	MidtransSandboxSnapURL = "https://app.sandbox.midtrans.com"
)

type MidtransOptions struct {
	ServerKey string
	APIURL    string
	SnapURL   string
	Timeout   time.Duration
}

// MidtransGateway handles card payments through Midtrans Snap. The order id
// sent to Midtrans is our payment reference, so it doubles as the provider
// transaction id.
type MidtransGateway struct {
	opts   MidtransOptions
	client httpDoer
}

func NewMidtransGateway(opts MidtransOptions, client httpDoer) *MidtransGateway {
	if opts.APIURL == "" {
		opts.APIURL = MidtransSandboxAPIURL
	}
	if opts.SnapURL == "" {
		opts.SnapURL = MidtransSandboxSnapURL
	}
	opts.APIURL = strings.TrimRight(opts.APIURL, "/")
	opts.SnapURL = strings.TrimRight(opts.SnapURL, "/")
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &MidtransGateway{opts: opts, client: client}
}

func (g *MidtransGateway) Provider() domain.PaymentProvider {
	return domain.ProviderMidtrans
}

func (g *MidtransGateway) headers() map[string]string {
	auth := base64.StdEncoding.EncodeToString([]byte(g.opts.ServerKey + ":"))
	return map[string]string{"Authorization": "Basic " + auth}
}

type midtransSnapResponse struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

func (g *MidtransGateway) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	if g.opts.ServerKey == "" {
		return nil, &domain.PaymentGatewayError{Provider: domain.ProviderMidtrans, Operation: "CreateCharge", Err: errors.New("midtrans server key not set")}
	}

	payload := map[string]any{
		"transaction_details": map[string]any{
			"order_id":     req.Reference,
			"gross_amount": req.Amount,
		},
	}
	if req.CustomerEmail != "" || req.CustomerName != "" {
		payload["customer_details"] = map[string]any{
			"email":      req.CustomerEmail,
			"first_name": req.CustomerName,
		}
	}
	if req.ReturnURL != "" {
		payload["callbacks"] = map[string]any{"finish": req.ReturnURL}
	}

	var resp midtransSnapResponse
	if err := doJSON(ctx, g.client, domain.ProviderMidtrans, "CreateCharge", http.MethodPost,
		g.opts.SnapURL+"/snap/v1/transactions", g.headers(), payload, &resp); err != nil {
		return nil, err
	}

	checkoutURL := resp.RedirectURL
	if checkoutURL == "" && resp.Token != "" {
		checkoutURL = g.opts.SnapURL + "/snap/v2/vtweb/" + resp.Token
	}
	if checkoutURL == "" {
		return nil, &domain.PaymentGatewayError{Provider: domain.ProviderMidtrans, Operation: "CreateCharge", Err: errors.New("no redirect_url returned from midtrans")}
	}

	return &Charge{
		ProviderTransactionID: req.Reference,
		CheckoutURL:           checkoutURL,
		Status:                domain.ChargeStatusPending,
	}, nil
}

type midtransStatusResponse struct {
	StatusCode        string `json:"status_code"`
	StatusMessage     string `json:"status_message"`
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	GrossAmount       string `json:"gross_amount"`
}

func (g *MidtransGateway) VerifyCharge(ctx context.Context, orderID string) (*ChargeVerification, error) {
	var resp midtransStatusResponse
	if err := doJSON(ctx, g.client, domain.ProviderMidtrans, "VerifyCharge", http.MethodGet,
		g.opts.APIURL+"/v2/"+url.PathEscape(orderID)+"/status", g.headers(), nil, &resp); err != nil {
		return nil, err
	}

	// Midtrans answers 200 with status_code "404" until the customer picks a
	// payment method.
	if resp.StatusCode == "404" {
		return &ChargeVerification{ProviderTransactionID: orderID, Reference: orderID, Status: domain.ChargeStatusPending}, nil
	}

	// The status URL is keyed by our order id, so an echo-less body still binds.
	ref := resp.OrderID
	if ref == "" {
		ref = orderID
	}
	amount, err := parseMidtransAmount(resp.GrossAmount)
	if err != nil {
		return nil, &domain.PaymentGatewayError{Provider: domain.ProviderMidtrans, Operation: "VerifyCharge", Err: err}
	}
	return &ChargeVerification{
		ProviderTransactionID: orderID,
		Reference:             ref,
		Status:                midtransChargeStatus(resp.TransactionStatus, resp.FraudStatus),
		Amount:                amount,
	}, nil
}

func midtransChargeStatus(txStatus, fraudStatus string) domain.ChargeStatus {
	switch txStatus {
	case "settlement", "refund", "partial_refund":
		return domain.ChargeStatusCompleted
	case "capture":
		if fraudStatus == "" || fraudStatus == "accept" {
			return domain.ChargeStatusCompleted
		}
		return domain.ChargeStatusPending
	case "deny", "cancel", "expire", "failure":
		return domain.ChargeStatusFailed
	default:
		return domain.ChargeStatusPending
	}
}

func parseMidtransAmount(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid gross_amount %q: %w", s, err)
	}
	return int64(math.Round(f)), nil
}

type midtransRefundResponse struct {
	StatusCode    string `json:"status_code"`
	StatusMessage string `json:"status_message"`
	RefundKey     string `json:"refund_key"`
}

func (g *MidtransGateway) InitiateRefund(ctx context.Context, orderID string, amount int64, reason string) (*Refund, error) {
	refundKey := fmt.Sprintf("%s-refund-%d", orderID, amount)
	payload := map[string]any{
		"refund_key": refundKey,
		"amount":     amount,
		"reason":     reason,
	}

	var resp midtransRefundResponse
	if err := doJSON(ctx, g.client, domain.ProviderMidtrans, "InitiateRefund", http.MethodPost,
		g.opts.APIURL+"/v2/"+url.PathEscape(orderID)+"/refund", g.headers(), payload, &resp); err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case "200":
		return &Refund{Status: domain.RefundStatusCompleted, ProviderRefundID: refundKey}, nil
	case "201":
		return &Refund{Status: domain.RefundStatusInitiated, ProviderRefundID: refundKey}, nil
	}

	code, _ := strconv.Atoi(resp.StatusCode)
	return nil, &domain.PaymentGatewayError{
		Provider:   domain.ProviderMidtrans,
		Operation:  "InitiateRefund",
		StatusCode: code,
		Retryable:  code >= 500,
		Err:        errors.New(resp.StatusMessage),
	}
}

// ParseCallback reads a Midtrans HTTP notification.
func (g *MidtransGateway) ParseCallback(body []byte) (*Callback, error) {
	var payload struct {
		OrderID            string `json:"order_id"`
		TransactionDetails struct {
			OrderID string `json:"order_id"`
		} `json:"transaction_details"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: malformed midtrans notification", domain.ErrInvalidInput)
	}
	orderID := payload.OrderID
	if orderID == "" {
		orderID = payload.TransactionDetails.OrderID
	}
	if orderID == "" {
		return nil, fmt.Errorf("%w: midtrans notification without order_id", domain.ErrInvalidInput)
	}
	return &Callback{Reference: orderID, ProviderTransactionID: orderID}, nil
}
