package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"threewloc-backend/internal/domain"
	"threewloc-backend/internal/logger"
	"threewloc-backend/internal/payment"
	"threewloc-backend/internal/repository"
	"threewloc-backend/internal/utils"
)

type bookingService struct {
	repos          repository.Repositories
	tx             repository.Transactor
	availability   AvailabilityService
	gateways       *payment.Registry
	hooks          transitionHooks
	platformUserID uuid.UUID
}

// NewBookingService wires the booking state machine. platformUserID owns the
// wallet that collects commission and platform fees.
func NewBookingService(
	repos repository.Repositories,
	tx repository.Transactor,
	availability AvailabilityService,
	gateways *payment.Registry,
	notifier Notifier,
	publisher EventPublisher,
	platformUserID uuid.UUID,
) BookingService {
	return &bookingService{
		repos:          repos,
		tx:             tx,
		availability:   availability,
		gateways:       gateways,
		hooks:          transitionHooks{notifier: notifier, publisher: publisher},
		platformUserID: platformUserID,
	}
}

func parseRange(startDate, endDate string) (start, end time.Time, days int, err error) {
	start, err = utils.ParseDate(startDate)
	if err != nil {
		return start, end, 0, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	end, err = utils.ParseDate(endDate)
	if err != nil {
		return start, end, 0, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	days, err = utils.RentalDays(start, end)
	if err != nil {
		return start, end, 0, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return start, end, days, nil
}

func (s *bookingService) Quote(ctx context.Context, equipmentID uuid.UUID, startDate, endDate string) (*domain.BookingQuote, error) {
	start, end, days, err := parseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	eq, err := s.repos.Equipment.GetByID(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	breakdown, err := utils.CalculateRentalPriceWithBreakdown(eq.DailyPrice, eq.WeeklyPrice, days)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return &domain.BookingQuote{
		EquipmentID: eq.ID,
		StartDate:   start,
		EndDate:     end,
		Days:        days,
		Weeks:       breakdown.Weeks,
		Commission:  utils.CalculateCommission(breakdown.TotalCost),
		Deposit:     eq.DepositAmount,
	}, nil
}

func (s *bookingService) CreateBooking(ctx context.Context, renterID, equipmentID uuid.UUID, startDate, endDate string) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.CreateBooking", "renterID", renterID, "equipmentID", equipmentID, "start", startDate, "end", endDate)

	start, end, days, err := parseRange(startDate, endDate)
	if err != nil {
		logger.ExitMethodWithError("bookingService.CreateBooking", err)
		return nil, err
	}
	if start.Before(utils.TruncateDay(now())) {
		return nil, fmt.Errorf("%w: start date %s is in the past", domain.ErrInvalidInput, startDate)
	}

	eq, err := s.repos.Equipment.GetByID(ctx, equipmentID)
	if err != nil {
		logger.ExitMethodWithError("bookingService.CreateBooking", err, "reason", "equipment lookup")
		return nil, err
	}
	if eq.ModerationStatus != domain.ModerationApproved {
		return nil, fmt.Errorf("%w: equipment is not open for booking", domain.ErrInvalidInput)
	}
	if eq.OwnerID == renterID {
		return nil, fmt.Errorf("%w: owners cannot book their own equipment", domain.ErrInvalidInput)
	}

	// Pre-flight only; the exclusion constraint settles races.
	overlap, err := s.availability.HasOverlap(ctx, equipmentID, start, end)
	if err != nil {
		logger.ExitMethodWithError("bookingService.CreateBooking", err, "reason", "availability unknown")
		return nil, err
	}
	if overlap {
		err := &domain.DateConflictError{EquipmentID: equipmentID, StartDate: start, EndDate: end}
		logger.ExitMethodWithError("bookingService.CreateBooking", err)
		return nil, err
	}

	price, err := utils.CalculateRentalPrice(eq.DailyPrice, eq.WeeklyPrice, days)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	b := &domain.Booking{
		EquipmentID:   eq.ID,
		RenterID:      renterID,
		OwnerID:       eq.OwnerID,
		StartDate:     start,
		EndDate:       end,
		TotalPrice:    price,
		DepositAmount: eq.DepositAmount,
		Status:        domain.BookingStatusRequested,
		PaymentStatus: domain.PaymentStatusUnpaid,
	}
	if err := s.repos.Bookings.Create(ctx, b); err != nil {
		logger.ExitMethodWithError("bookingService.CreateBooking", err, "reason", "insert")
		return nil, err
	}

	s.hooks.published(ctx, b)
	s.hooks.notify(ctx, b.OwnerID, domain.NotificationBookingRequested, "New booking request",
		fmt.Sprintf("%s requested from %s to %s", eq.Title, startDate, endDate), b.ID)

	logger.ExitMethod("bookingService.CreateBooking", "bookingID", b.ID, "totalPrice", b.TotalPrice)
	return b, nil
}

// captureBooking moves a requested booking to paid through repos, which must
// be bound to a transaction. It reports false for an already paid booking.
func captureBooking(ctx context.Context, repos repository.Repositories, bookingID uuid.UUID, method domain.PaymentMethod) (*domain.Booking, bool, error) {
	b, err := repos.Bookings.GetForUpdate(ctx, bookingID)
	if err != nil {
		return nil, false, err
	}
	switch {
	case b.Status == domain.BookingStatusRequested:
	case b.PaymentStatus == domain.PaymentStatusPaid:
		logger.Info("Duplicate payment capture ignored", "bookingID", b.ID, "status", b.Status)
		return b, false, nil
	default:
		return nil, false, fmt.Errorf("%w: cannot capture payment for a %s booking", domain.ErrInvalidTransition, b.Status)
	}

	b.Status = domain.BookingStatusPaid
	b.PaymentStatus = domain.PaymentStatusPaid
	b.PaymentMethod = method
	if err := repos.Bookings.Update(ctx, b); err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *bookingService) CapturePayment(ctx context.Context, bookingID uuid.UUID, method domain.PaymentMethod) (*domain.Booking, error) {
	var booking *domain.Booking
	var changed bool
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		booking, changed, err = captureBooking(ctx, repos, bookingID, method)
		return err
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.hooks.captured(ctx, booking)
	}
	return booking, nil
}

func (s *bookingService) PayWithWallet(ctx context.Context, renterID, bookingID uuid.UUID) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.PayWithWallet", "renterID", renterID, "bookingID", bookingID)

	b, err := s.repos.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.RenterID != renterID {
		return nil, domain.ErrUnauthorized
	}
	if b.Status != domain.BookingStatusRequested {
		if b.PaymentStatus == domain.PaymentStatusPaid {
			return b, nil
		}
		return nil, fmt.Errorf("%w: cannot pay a %s booking", domain.ErrInvalidTransition, b.Status)
	}

	wallet, err := ensureWallet(ctx, s.repos.Wallets, renterID)
	if err != nil {
		return nil, err
	}
	charge := utils.CalculateCommission(b.TotalPrice)

	var booking *domain.Booking
	var changed bool
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if current.Status != domain.BookingStatusRequested {
			booking = current
			return nil
		}

		if _, err := recordLeg(ctx, repos.Wallets, wallet.ID, -charge.Total, domain.TransactionTypeDebit,
			"Booking payment", &current.ID); err != nil {
			return err
		}
		p := &domain.Payment{
			Provider:  domain.ProviderWallet,
			Purpose:   domain.PaymentPurposeBooking,
			BookingID: &current.ID,
			UserID:    renterID,
			Amount:    charge.Total,
			Currency:  domain.CurrencyXOF,
			Status:    domain.ChargeStatusCompleted,
		}
		if err := repos.Payments.Create(ctx, p); err != nil {
			return err
		}
		booking, changed, err = captureBooking(ctx, repos, bookingID, domain.PaymentMethodWallet)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.PayWithWallet", err, "bookingID", bookingID)
		return nil, err
	}
	if changed {
		s.hooks.captured(ctx, booking)
	}
	logger.ExitMethod("bookingService.PayWithWallet", "bookingID", bookingID, "charged", charge.Total)
	return booking, nil
}

func (s *bookingService) OwnerApprove(ctx context.Context, ownerID, bookingID uuid.UUID) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.OwnerApprove", "ownerID", ownerID, "bookingID", bookingID)

	b, err := s.repos.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.OwnerID != ownerID {
		return nil, domain.ErrUnauthorized
	}
	if b.Status != domain.BookingStatusPaid {
		return nil, fmt.Errorf("%w: only paid bookings can be approved, booking is %s", domain.ErrInvalidTransition, b.Status)
	}

	ownerWallet, err := ensureWallet(ctx, s.repos.Wallets, b.OwnerID)
	if err != nil {
		return nil, err
	}
	platformWallet, err := ensureWallet(ctx, s.repos.Wallets, s.platformUserID)
	if err != nil {
		return nil, err
	}
	split := utils.CalculateCommission(b.TotalPrice)

	var booking *domain.Booking
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if current.Status != domain.BookingStatusPaid {
			return fmt.Errorf("%w: only paid bookings can be approved, booking is %s", domain.ErrInvalidTransition, current.Status)
		}

		legs := []struct {
			walletID    uuid.UUID
			amount      int64
			txType      domain.TransactionType
			description string
		}{
			{ownerWallet.ID, split.Subtotal, domain.TransactionTypeCredit, "Rental income"},
			{ownerWallet.ID, -split.Commission, domain.TransactionTypeCommission, "Platform commission"},
			{platformWallet.ID, split.Commission + split.PlatformFee, domain.TransactionTypeCredit, "Commission and platform fee"},
		}
		for _, leg := range legs {
			if leg.amount == 0 {
				continue
			}
			if _, err := recordLeg(ctx, repos.Wallets, leg.walletID, leg.amount, leg.txType, leg.description, &current.ID); err != nil {
				return err
			}
		}

		current.Status = domain.BookingStatusOwnerApproved
		if err := repos.Bookings.Update(ctx, current); err != nil {
			return err
		}
		if err := repos.Equipment.UpdateStatus(ctx, current.EquipmentID, domain.EquipmentStatusRented); err != nil {
			return err
		}
		booking = current
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.OwnerApprove", err, "bookingID", bookingID)
		return nil, err
	}

	s.hooks.published(ctx, booking)
	s.hooks.notify(ctx, booking.RenterID, domain.NotificationBookingApproved, "Booking approved",
		"The owner approved your booking", booking.ID)

	logger.ExitMethod("bookingService.OwnerApprove", "bookingID", bookingID, "ownerAmount", split.OwnerAmount)
	return booking, nil
}

func (s *bookingService) OwnerReject(ctx context.Context, ownerID, bookingID uuid.UUID, reason string) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.OwnerReject", "ownerID", ownerID, "bookingID", bookingID)

	b, err := s.repos.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.OwnerID != ownerID {
		return nil, domain.ErrUnauthorized
	}
	if b.Status != domain.BookingStatusPaid {
		return nil, fmt.Errorf("%w: only paid bookings can be rejected, booking is %s", domain.ErrInvalidTransition, b.Status)
	}

	var booking *domain.Booking
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if current.Status != domain.BookingStatusPaid {
			return fmt.Errorf("%w: only paid bookings can be rejected, booking is %s", domain.ErrInvalidTransition, current.Status)
		}
		current.Status = domain.BookingStatusOwnerRejected
		current.RejectionReason = reason
		if err := repos.Bookings.Update(ctx, current); err != nil {
			return err
		}
		booking = current
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.OwnerReject", err, "bookingID", bookingID)
		return nil, err
	}
	s.hooks.published(ctx, booking)
	s.hooks.notify(ctx, booking.RenterID, domain.NotificationBookingRejected, "Booking rejected",
		fmt.Sprintf("The owner declined your booking: %s", reason), booking.ID)

	p, err := s.repos.Payments.GetSettledForBooking(ctx, bookingID)
	if err != nil {
		// Nothing to refund automatically; leave it for an operator.
		logger.Error("No settled payment found for rejected booking", "bookingID", bookingID, "error", err)
		s.hooks.notify(ctx, booking.RenterID, domain.NotificationRefundPending, "Refund in progress",
			"Your refund is being processed", booking.ID)
		return booking, nil
	}

	refunded, err := s.refund(ctx, booking, p, reason)
	if err != nil {
		s.flagRefundFailure(ctx, booking, p, reason, err)
		logger.ExitMethod("bookingService.OwnerReject", "bookingID", bookingID, "refund", "failed")
		return booking, nil
	}

	logger.ExitMethod("bookingService.OwnerReject", "bookingID", bookingID, "refund", p.RefundStatus)
	return refunded, nil
}

// refund returns the payment and moves the booking to refunded. Failures come
// back as *domain.RefundFailedError and leave the booking untouched.
func (s *bookingService) refund(ctx context.Context, b *domain.Booking, p *domain.Payment, reason string) (*domain.Booking, error) {
	refundStatus := domain.RefundStatusCompleted
	var renterWallet *domain.WalletAccount

	if p.Provider == domain.ProviderWallet {
		w, err := ensureWallet(ctx, s.repos.Wallets, b.RenterID)
		if err != nil {
			return nil, &domain.RefundFailedError{BookingID: b.ID, PaymentID: p.ID, Amount: p.Amount, Err: err}
		}
		renterWallet = w
	} else {
		gw, err := s.gateways.Get(p.Provider)
		if err != nil {
			return nil, &domain.RefundFailedError{BookingID: b.ID, PaymentID: p.ID, Amount: p.Amount, Err: err}
		}
		res, err := gw.InitiateRefund(ctx, p.ProviderTransactionID, p.Amount, reason)
		if err != nil {
			return nil, &domain.RefundFailedError{BookingID: b.ID, PaymentID: p.ID, Amount: p.Amount, Err: err}
		}
		if res.Status != domain.RefundStatusInitiated && res.Status != domain.RefundStatusCompleted {
			return nil, &domain.RefundFailedError{BookingID: b.ID, PaymentID: p.ID, Amount: p.Amount,
				Err: fmt.Errorf("provider answered %s", res.Status)}
		}
		refundStatus = res.Status
	}

	var booking *domain.Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Bookings.GetForUpdate(ctx, b.ID)
		if err != nil {
			return err
		}
		if current.Status != domain.BookingStatusOwnerRejected {
			return fmt.Errorf("%w: cannot refund a %s booking", domain.ErrInvalidTransition, current.Status)
		}
		if renterWallet != nil {
			if _, err := recordLeg(ctx, repos.Wallets, renterWallet.ID, p.Amount, domain.TransactionTypeRefund,
				"Refund for rejected booking", &current.ID); err != nil {
				return err
			}
		}
		current.Status = domain.BookingStatusRefunded
		current.PaymentStatus = domain.PaymentStatusRefunded
		if err := repos.Bookings.Update(ctx, current); err != nil {
			return err
		}
		p.RefundStatus = refundStatus
		p.RefundReason = reason
		p.NeedsAttention = false
		p.FailureReason = ""
		if err := repos.Payments.Update(ctx, p); err != nil {
			return err
		}
		booking = current
		return nil
	})
	if err != nil {
		return nil, &domain.RefundFailedError{BookingID: b.ID, PaymentID: p.ID, Amount: p.Amount, Err: err}
	}

	s.hooks.published(ctx, booking)
	s.hooks.notify(ctx, booking.RenterID, domain.NotificationRefundCompleted, "Refund issued",
		fmt.Sprintf("%d FCFA is on its way back to you", p.Amount), booking.ID)
	return booking, nil
}

func (s *bookingService) flagRefundFailure(ctx context.Context, b *domain.Booking, p *domain.Payment, reason string, refundErr error) {
	logger.Error("Refund failed, flagged for follow-up", "bookingID", b.ID, "paymentID", p.ID,
		"provider", p.Provider, "amount", p.Amount, "error", refundErr)

	p.RefundStatus = domain.RefundStatusFailed
	p.RefundReason = reason
	p.FailureReason = refundErr.Error()
	p.NeedsAttention = true
	if err := s.repos.Payments.Update(ctx, p); err != nil {
		logger.Error("Failed to flag payment for refund follow-up", "paymentID", p.ID, "error", err)
	}
	s.hooks.notify(ctx, b.RenterID, domain.NotificationRefundPending, "Refund in progress",
		"Your refund is being processed and may take a little longer", b.ID)
}

func (s *bookingService) RetryFailedRefunds(ctx context.Context, limit int) (int, error) {
	payments, err := s.repos.Payments.ListFailedRefunds(ctx, limit)
	if err != nil {
		return 0, err
	}

	retried := 0
	for i := range payments {
		p := &payments[i]
		if p.BookingID == nil {
			continue
		}
		b, err := s.repos.Bookings.GetByID(ctx, *p.BookingID)
		if err != nil {
			logger.Error("Refund retry: booking lookup failed", "paymentID", p.ID, "error", err)
			continue
		}
		if b.Status != domain.BookingStatusOwnerRejected {
			logger.Warn("Refund retry: booking no longer awaiting refund", "bookingID", b.ID, "status", b.Status)
			p.NeedsAttention = false
			if err := s.repos.Payments.Update(ctx, p); err != nil {
				logger.Error("Refund retry: failed to clear flag", "paymentID", p.ID, "error", err)
			}
			continue
		}

		if _, err := s.refund(ctx, b, p, p.RefundReason); err != nil {
			p.FailureReason = err.Error()
			if uErr := s.repos.Payments.Update(ctx, p); uErr != nil {
				logger.Error("Refund retry: failed to record failure", "paymentID", p.ID, "error", uErr)
			}
			logger.Warn("Refund retry failed", "bookingID", b.ID, "error", err)
			continue
		}
		retried++
	}
	return retried, nil
}

// ExpireUnpaidRequests releases the dates of requested bookings left unpaid
// for longer than a checkout may stay pending. Bookings with a checkout still
// pending are left for the payment job to resolve first.
func (s *bookingService) ExpireUnpaidRequests(ctx context.Context, limit int) (int, error) {
	stale, err := s.repos.Bookings.ListUnpaidRequestedBefore(ctx, now().Add(-pendingPaymentTTL), limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, candidate := range stale {
		var booking *domain.Booking
		err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
			current, err := repos.Bookings.GetForUpdate(ctx, candidate.ID)
			if err != nil {
				return err
			}
			if current.Status != domain.BookingStatusRequested || current.PaymentStatus != domain.PaymentStatusUnpaid {
				return nil
			}
			pending, err := repos.Payments.HasPendingForBooking(ctx, current.ID)
			if err != nil || pending {
				return err
			}
			current.Status = domain.BookingStatusExpired
			if err := repos.Bookings.Update(ctx, current); err != nil {
				return err
			}
			booking = current
			return nil
		})
		if err != nil {
			logger.Error("Failed to expire unpaid booking", "bookingID", candidate.ID, "error", err)
			continue
		}
		if booking == nil {
			continue
		}
		expired++
		s.hooks.published(ctx, booking)
		s.hooks.notify(ctx, booking.RenterID, domain.NotificationBookingExpired, "Booking expired",
			"Your booking request expired before payment; the dates are open again", booking.ID)
	}
	return expired, nil
}

func (s *bookingService) Finalize(ctx context.Context, ownerID, bookingID uuid.UUID, condition domain.ReturnCondition, notes string) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.Finalize", "ownerID", ownerID, "bookingID", bookingID, "condition", condition)

	if condition != domain.ReturnConditionGood && condition != domain.ReturnConditionDamaged {
		return nil, fmt.Errorf("%w: unknown return condition %q", domain.ErrInvalidInput, condition)
	}
	b, err := s.repos.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.OwnerID != ownerID {
		return nil, domain.ErrUnauthorized
	}
	if b.Status != domain.BookingStatusOwnerApproved {
		return nil, fmt.Errorf("%w: only approved bookings can be finalized, booking is %s", domain.ErrInvalidTransition, b.Status)
	}

	var booking *domain.Booking
	var dispute *domain.Dispute
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if current.Status != domain.BookingStatusOwnerApproved {
			return fmt.Errorf("%w: only approved bookings can be finalized, booking is %s", domain.ErrInvalidTransition, current.Status)
		}
		open, err := hasOpenDispute(ctx, repos.Disputes, current.ID)
		if err != nil {
			return err
		}
		if open {
			return fmt.Errorf("%w: booking %s has an open dispute", domain.ErrInvalidTransition, current.ID)
		}

		if condition == domain.ReturnConditionDamaged {
			dispute = &domain.Dispute{BookingID: current.ID, OpenedBy: ownerID, Condition: condition, Notes: notes}
			booking = current
			return repos.Disputes.Create(ctx, dispute)
		}

		current.Status = domain.BookingStatusCompleted
		if err := repos.Bookings.Update(ctx, current); err != nil {
			return err
		}
		if err := repos.Equipment.UpdateStatus(ctx, current.EquipmentID, domain.EquipmentStatusAvailable); err != nil {
			return err
		}
		booking = current
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.Finalize", err, "bookingID", bookingID)
		return nil, err
	}

	if dispute != nil {
		logger.Info("Dispute opened on return", "bookingID", booking.ID, "disputeID", dispute.ID)
		s.hooks.notify(ctx, booking.RenterID, domain.NotificationDisputeOpened, "Damage reported",
			"The owner reported damage on return; the booking stays open until the dispute is resolved", booking.ID)
		logger.ExitMethod("bookingService.Finalize", "bookingID", bookingID, "disputeID", dispute.ID)
		return booking, nil
	}

	s.hooks.published(ctx, booking)
	s.hooks.notify(ctx, booking.RenterID, domain.NotificationBookingCompleted, "Rental completed",
		"Thanks for returning the equipment", booking.ID)
	logger.ExitMethod("bookingService.Finalize", "bookingID", bookingID)
	return booking, nil
}

// hasOpenDispute blocks closing a booking until its damage claims are settled.
func hasOpenDispute(ctx context.Context, disputes repository.DisputeRepository, bookingID uuid.UUID) (bool, error) {
	list, err := disputes.ListByBooking(ctx, bookingID)
	if err != nil {
		return false, err
	}
	for _, d := range list {
		if d.Status == domain.DisputeStatusOpen {
			return true, nil
		}
	}
	return false, nil
}

func (s *bookingService) GetBooking(ctx context.Context, userID, bookingID uuid.UUID) (*domain.Booking, error) {
	b, err := s.repos.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.RenterID != userID && b.OwnerID != userID {
		return nil, domain.ErrUnauthorized
	}
	return b, nil
}

func (s *bookingService) ListRentals(ctx context.Context, userID uuid.UUID, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.repos.Bookings.ListByRenter(ctx, userID, status, page, pageSize)
}

func (s *bookingService) ListLendings(ctx context.Context, userID uuid.UUID, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.repos.Bookings.ListByOwner(ctx, userID, status, page, pageSize)
}
