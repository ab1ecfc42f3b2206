package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"threewloc-backend/internal/domain"
	"threewloc-backend/internal/logger"
	"threewloc-backend/internal/payment"
	"threewloc-backend/internal/repository"
	"threewloc-backend/internal/utils"
)

// pendingPaymentTTL is how long a charge may stay unconfirmed before it is
// given up as failed.
const pendingPaymentTTL = 24 * time.Hour

// PaymentOptions configures checkout creation.
type PaymentOptions struct {
	// MinimumRecharge in FCFA; zero means utils.DefaultMinimumAmount.
	MinimumRecharge int64
	// ReturnURL is where providers send the customer after checkout.
	ReturnURL string
}

type paymentService struct {
	repos    repository.Repositories
	tx       repository.Transactor
	gateways *payment.Registry
	hooks    transitionHooks
	opts     PaymentOptions
}

func NewPaymentService(
	repos repository.Repositories,
	tx repository.Transactor,
	gateways *payment.Registry,
	notifier Notifier,
	publisher EventPublisher,
	opts PaymentOptions,
) PaymentService {
	return &paymentService{
		repos:    repos,
		tx:       tx,
		gateways: gateways,
		hooks:    transitionHooks{notifier: notifier, publisher: publisher},
		opts:     opts,
	}
}

func newReference(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// openCharge persists p as pending, then asks the provider for a checkout.
// p must already carry its reference so an early callback can find it.
func (s *paymentService) openCharge(ctx context.Context, gw payment.Gateway, p *domain.Payment, description string) (*domain.Checkout, error) {
	next := now().Add(payment.NextVerifyDelay(0))
	p.NextVerifyAt = &next
	if err := s.repos.Payments.Create(ctx, p); err != nil {
		return nil, err
	}

	req := payment.ChargeRequest{
		Reference:   p.Reference,
		Amount:      p.Amount,
		Currency:    p.Currency,
		Description: description,
		ReturnURL:   s.opts.ReturnURL,
	}
	if u, err := s.repos.Users.GetByID(ctx, p.UserID); err == nil {
		req.CustomerEmail = u.Email
		req.CustomerName = u.FullName
	}

	charge, err := gw.CreateCharge(ctx, req)
	if err != nil {
		p.Status = domain.ChargeStatusFailed
		p.FailureReason = err.Error()
		p.NextVerifyAt = nil
		if uErr := s.repos.Payments.Update(ctx, p); uErr != nil {
			logger.Error("Failed to record charge failure", "reference", p.Reference, "error", uErr)
		}
		return nil, err
	}

	p.ProviderTransactionID = charge.ProviderTransactionID
	p.CheckoutURL = charge.CheckoutURL
	if err := s.repos.Payments.Update(ctx, p); err != nil {
		return nil, err
	}
	return &domain.Checkout{
		PaymentID:   p.ID,
		Reference:   p.Reference,
		Provider:    p.Provider,
		CheckoutURL: p.CheckoutURL,
		Amount:      p.Amount,
		Currency:    p.Currency,
	}, nil
}

func (s *paymentService) gateway(provider domain.PaymentProvider) (payment.Gateway, error) {
	if provider == domain.ProviderWallet {
		return nil, fmt.Errorf("%w: wallet payments do not use a checkout", domain.ErrInvalidInput)
	}
	return s.gateways.Get(provider)
}

func (s *paymentService) StartBookingCheckout(ctx context.Context, renterID, bookingID uuid.UUID, provider domain.PaymentProvider) (*domain.Checkout, error) {
	logger.EnterMethod("paymentService.StartBookingCheckout", "renterID", renterID, "bookingID", bookingID, "provider", provider)

	gw, err := s.gateway(provider)
	if err != nil {
		return nil, err
	}
	b, err := s.repos.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.RenterID != renterID {
		return nil, domain.ErrUnauthorized
	}
	if b.Status != domain.BookingStatusRequested {
		return nil, fmt.Errorf("%w: cannot pay a %s booking", domain.ErrInvalidTransition, b.Status)
	}

	p := &domain.Payment{
		Reference: newReference("bk"),
		Provider:  provider,
		Purpose:   domain.PaymentPurposeBooking,
		BookingID: &b.ID,
		UserID:    renterID,
		Amount:    utils.CalculateCommission(b.TotalPrice).Total,
		Currency:  domain.CurrencyXOF,
		Status:    domain.ChargeStatusPending,
	}
	checkout, err := s.openCharge(ctx, gw, p, fmt.Sprintf("Booking %s", b.ID))
	if err != nil {
		logger.ExitMethodWithError("paymentService.StartBookingCheckout", err, "bookingID", bookingID)
		return nil, err
	}
	logger.ExitMethod("paymentService.StartBookingCheckout", "reference", checkout.Reference, "amount", checkout.Amount)
	return checkout, nil
}

func (s *paymentService) StartWalletRecharge(ctx context.Context, userID uuid.UUID, amount int64, provider domain.PaymentProvider) (*domain.Checkout, error) {
	logger.EnterMethod("paymentService.StartWalletRecharge", "userID", userID, "amount", amount, "provider", provider)

	if check := utils.ValidateMinimumAmount(amount, s.opts.MinimumRecharge); !check.IsValid {
		return nil, fmt.Errorf("%w: %s", domain.ErrBelowMinimum, check.Message)
	}
	gw, err := s.gateway(provider)
	if err != nil {
		return nil, err
	}
	wallet, err := ensureWallet(ctx, s.repos.Wallets, userID)
	if err != nil {
		return nil, err
	}
	if wallet.Frozen {
		return nil, domain.ErrWalletFrozen
	}

	p := &domain.Payment{
		Reference: newReference("rc"),
		Provider:  provider,
		Purpose:   domain.PaymentPurposeWalletRecharge,
		UserID:    userID,
		Amount:    amount,
		Currency:  domain.CurrencyXOF,
		Status:    domain.ChargeStatusPending,
	}
	ref := p.Reference
	pending := &domain.WalletTransaction{
		WalletID:    wallet.ID,
		Amount:      amount,
		Type:        domain.TransactionTypeCredit,
		Status:      domain.TransactionStatusPending,
		Description: "Wallet recharge",
		Reference:   &ref,
	}
	if err := s.repos.Wallets.InsertPending(ctx, pending); err != nil {
		return nil, err
	}

	checkout, err := s.openCharge(ctx, gw, p, "Wallet recharge")
	if err != nil {
		if fErr := s.repos.Wallets.FailPending(ctx, pending.ID); fErr != nil {
			logger.Error("Failed to close pending recharge", "transactionID", pending.ID, "error", fErr)
		}
		logger.ExitMethodWithError("paymentService.StartWalletRecharge", err, "userID", userID)
		return nil, err
	}
	logger.ExitMethod("paymentService.StartWalletRecharge", "reference", checkout.Reference)
	return checkout, nil
}

// HandleCallback only uses the notification to find the payment; the outcome
// always comes from VerifyCharge.
func (s *paymentService) HandleCallback(ctx context.Context, provider domain.PaymentProvider, body []byte) (*domain.Payment, error) {
	gw, err := s.gateway(provider)
	if err != nil {
		return nil, err
	}
	cb, err := gw.ParseCallback(body)
	if err != nil {
		return nil, err
	}
	logger.Info("Payment callback received", "provider", provider, "reference", cb.Reference)

	p, err := s.repos.Payments.GetByReference(ctx, cb.Reference)
	if err != nil {
		return nil, err
	}
	if p.Provider != provider {
		return nil, fmt.Errorf("%w: payment %s belongs to %s", domain.ErrInvalidInput, p.Reference, p.Provider)
	}
	// A transaction id is bound once; the store refuses one already bound to
	// another payment, and VerifyPayment unbinds it if the provider disagrees.
	if p.ProviderTransactionID == "" && cb.ProviderTransactionID != "" && p.Status == domain.ChargeStatusPending {
		p.ProviderTransactionID = cb.ProviderTransactionID
		if err := s.repos.Payments.Update(ctx, p); err != nil {
			if errors.Is(err, domain.ErrProviderTransactionInUse) {
				logger.Error("Callback reused a provider transaction", "provider", provider,
					"reference", p.Reference, "providerTransactionID", cb.ProviderTransactionID)
			}
			return nil, err
		}
	}
	return s.VerifyPayment(ctx, p.Reference)
}

func (s *paymentService) GetPayment(ctx context.Context, userID uuid.UUID, reference string) (*domain.Payment, error) {
	p, err := s.repos.Payments.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return p, nil
}

func (s *paymentService) VerifyPayment(ctx context.Context, reference string) (*domain.Payment, error) {
	p, err := s.repos.Payments.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.ChargeStatusPending {
		return p, nil
	}
	gw, err := s.gateway(p.Provider)
	if err != nil {
		return nil, err
	}

	if p.ProviderTransactionID == "" {
		if now().Sub(p.CreatedAt) > pendingPaymentTTL {
			return s.fail(ctx, p, "no provider transaction before timeout")
		}
		s.reschedule(ctx, p, "")
		return p, nil
	}

	v, err := gw.VerifyCharge(ctx, p.ProviderTransactionID)
	if err != nil {
		logger.Warn("Charge verification failed", "reference", p.Reference, "provider", p.Provider, "error", err)
		s.reschedule(ctx, p, err.Error())
		return p, err
	}

	if v.Reference != p.Reference {
		logger.Error("Provider transaction belongs to another reference", "reference", p.Reference,
			"provider", p.Provider, "providerTransactionID", p.ProviderTransactionID, "providerReference", v.Reference)
		txID := p.ProviderTransactionID
		p.ProviderTransactionID = ""
		s.reschedule(ctx, p, "provider transaction "+txID+" does not match this payment")
		return nil, fmt.Errorf("%w: provider transaction %s does not belong to payment %s",
			domain.ErrInvalidInput, txID, p.Reference)
	}

	switch v.Status {
	case domain.ChargeStatusCompleted:
		if v.Amount != 0 && v.Amount < p.Amount {
			logger.Error("Provider settled less than charged", "reference", p.Reference, "expected", p.Amount, "settled", v.Amount)
			p.NeedsAttention = true
			return s.fail(ctx, p, fmt.Sprintf("provider settled %d FCFA, expected %d FCFA", v.Amount, p.Amount))
		}
		return s.settle(ctx, p)
	case domain.ChargeStatusFailed:
		return s.fail(ctx, p, "declined by provider")
	default:
		if now().Sub(p.CreatedAt) > pendingPaymentTTL {
			return s.fail(ctx, p, "not confirmed before timeout")
		}
		s.reschedule(ctx, p, "")
		return p, nil
	}
}

func (s *paymentService) reschedule(ctx context.Context, p *domain.Payment, reason string) {
	p.VerifyAttempts++
	next := now().Add(payment.NextVerifyDelay(p.VerifyAttempts))
	p.NextVerifyAt = &next
	if reason != "" {
		p.FailureReason = reason
	}
	if err := s.repos.Payments.Update(ctx, p); err != nil {
		logger.Error("Failed to reschedule payment verification", "reference", p.Reference, "error", err)
	}
}

func (s *paymentService) fail(ctx context.Context, p *domain.Payment, reason string) (*domain.Payment, error) {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		p.Status = domain.ChargeStatusFailed
		p.FailureReason = reason
		p.NextVerifyAt = nil
		if err := repos.Payments.Update(ctx, p); err != nil {
			return err
		}
		if p.Purpose != domain.PaymentPurposeWalletRecharge {
			return nil
		}
		wtx, err := repos.Wallets.GetTransactionByReference(ctx, p.Reference)
		if err != nil {
			return err
		}
		return repos.Wallets.FailPending(ctx, wtx.ID)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Payment failed", "reference", p.Reference, "reason", reason)
	return p, nil
}

func (s *paymentService) settle(ctx context.Context, p *domain.Payment) (*domain.Payment, error) {
	var booking *domain.Booking
	var captured bool
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		p.Status = domain.ChargeStatusCompleted
		p.NextVerifyAt = nil
		p.FailureReason = ""

		switch p.Purpose {
		case domain.PaymentPurposeBooking:
			if p.BookingID == nil {
				return fmt.Errorf("%w: booking payment %s has no booking", domain.ErrInvalidInput, p.Reference)
			}
			settled, err := repos.Payments.GetSettledForBooking(ctx, *p.BookingID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			if settled != nil && settled.ID != p.ID {
				// The booking was paid through another channel; keep the money
				// visible for a manual refund.
				p.NeedsAttention = true
				p.FailureReason = fmt.Sprintf("booking already paid by %s", settled.Reference)
				break
			}
			booking, captured, err = captureBooking(ctx, repos, *p.BookingID, domain.PaymentMethodGateway)
			if errors.Is(err, domain.ErrInvalidTransition) {
				p.NeedsAttention = true
				p.FailureReason = err.Error()
				break
			}
			if err != nil {
				return err
			}
		case domain.PaymentPurposeWalletRecharge:
			wtx, err := repos.Wallets.GetTransactionByReference(ctx, p.Reference)
			if err != nil {
				return err
			}
			if _, err := repos.Wallets.CompletePending(ctx, wtx.ID); err != nil {
				return err
			}
		}
		return repos.Payments.Update(ctx, p)
	})
	if err != nil {
		logger.Error("Failed to settle payment", "reference", p.Reference, "error", err)
		p.Status = domain.ChargeStatusPending
		s.reschedule(ctx, p, err.Error())
		return nil, err
	}

	if p.NeedsAttention {
		logger.Error("Settled payment needs attention", "reference", p.Reference, "reason", p.FailureReason)
	}
	if captured {
		s.hooks.captured(ctx, booking)
	}
	if p.Purpose == domain.PaymentPurposeWalletRecharge && s.hooks.notifier != nil {
		s.hooks.notifier.Notify(ctx, p.UserID, domain.NotificationWalletRecharged, "Wallet recharged",
			fmt.Sprintf("%d FCFA was added to your wallet", p.Amount), nil)
	}
	logger.Info("Payment settled", "reference", p.Reference, "purpose", p.Purpose, "amount", p.Amount)
	return p, nil
}

// VerifyDuePayments polls every pending payment whose next check is due and
// returns how many reached a final status.
func (s *paymentService) VerifyDuePayments(ctx context.Context, limit int) (int, error) {
	due, err := s.repos.Payments.ListDueForVerification(ctx, now(), limit)
	if err != nil {
		return 0, err
	}
	resolved := 0
	for _, p := range due {
		got, err := s.VerifyPayment(ctx, p.Reference)
		if err != nil {
			continue
		}
		if got.Status != domain.ChargeStatusPending {
			resolved++
		}
	}
	return resolved, nil
}
