package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"threewloc-backend/internal/domain"
	"threewloc-backend/internal/logger"
	"threewloc-backend/internal/repository"
)

type walletService struct {
	walletRepo  repository.WalletRepository
	notifier    Notifier
	operatorIDs []uuid.UUID
}

// NewWalletService builds the ledger service. operatorIDs receive a
// ledger_alert notification when reconciliation freezes a wallet.
func NewWalletService(walletRepo repository.WalletRepository, notifier Notifier, operatorIDs []uuid.UUID) WalletService {
	return &walletService{
		walletRepo:  walletRepo,
		notifier:    notifier,
		operatorIDs: operatorIDs,
	}
}

func (s *walletService) EnsureWallet(ctx context.Context, userID uuid.UUID) (*domain.WalletAccount, error) {
	return ensureWallet(ctx, s.walletRepo, userID)
}

// ensureWallet must not run inside a transaction: a lost create race aborts
// the surrounding Postgres transaction.
func ensureWallet(ctx context.Context, repo repository.WalletRepository, userID uuid.UUID) (*domain.WalletAccount, error) {
	w, err := repo.GetByUserID(ctx, userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	w = &domain.WalletAccount{UserID: userID}
	err = repo.Create(ctx, w)
	if errors.Is(err, domain.ErrWalletExists) {
		logger.Debug("Wallet created concurrently, re-fetching", "userID", userID)
		return repo.GetByUserID(ctx, userID)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("Wallet created", "userID", userID, "walletID", w.ID)
	return w, nil
}

// validateLeg checks that the sign of amount matches the transaction type.
func validateLeg(amount int64, txType domain.TransactionType) error {
	switch txType {
	case domain.TransactionTypeCredit, domain.TransactionTypeRefund:
		if amount <= 0 {
			return fmt.Errorf("%w: %s amount must be positive, got %d", domain.ErrInvalidInput, txType, amount)
		}
	case domain.TransactionTypeDebit, domain.TransactionTypeCommission:
		if amount >= 0 {
			return fmt.Errorf("%w: %s amount must be negative, got %d", domain.ErrInvalidInput, txType, amount)
		}
	default:
		return fmt.Errorf("%w: unknown transaction type %q", domain.ErrInvalidInput, txType)
	}
	return nil
}

// recordLeg applies one completed ledger entry through repo, which may be
// bound to a transaction.
func recordLeg(ctx context.Context, repo repository.WalletRepository, walletID uuid.UUID, amount int64, txType domain.TransactionType, description string, bookingID *uuid.UUID) (*domain.WalletTransaction, error) {
	if err := validateLeg(amount, txType); err != nil {
		return nil, err
	}
	tx := &domain.WalletTransaction{
		WalletID:    walletID,
		Amount:      amount,
		Type:        txType,
		Description: description,
		BookingID:   bookingID,
	}
	if err := repo.ApplyTransaction(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *walletService) RecordTransaction(ctx context.Context, walletID uuid.UUID, amount int64, txType domain.TransactionType, description string, bookingID *uuid.UUID) (*domain.WalletTransaction, error) {
	logger.EnterMethod("walletService.RecordTransaction", "walletID", walletID, "amount", amount, "type", txType)
	tx, err := recordLeg(ctx, s.walletRepo, walletID, amount, txType, description, bookingID)
	if err != nil {
		logger.ExitMethodWithError("walletService.RecordTransaction", err, "walletID", walletID)
		return nil, err
	}
	logger.ExitMethod("walletService.RecordTransaction", "transactionID", tx.ID)
	return tx, nil
}

func (s *walletService) HasSufficientBalance(ctx context.Context, userID uuid.UUID, amount int64) (bool, error) {
	w, err := s.walletRepo.GetByUserID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return amount <= 0, nil
	}
	if err != nil {
		return false, err
	}
	return !w.Frozen && w.Balance >= amount, nil
}

func (s *walletService) GetWallet(ctx context.Context, userID uuid.UUID) (*domain.WalletAccount, error) {
	return ensureWallet(ctx, s.walletRepo, userID)
}

func (s *walletService) ListTransactions(ctx context.Context, userID uuid.UUID, page, pageSize int32) ([]domain.WalletTransaction, int32, error) {
	w, err := s.walletRepo.GetByUserID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	page, pageSize = normalizePage(page, pageSize)
	return s.walletRepo.ListTransactions(ctx, w.ID, page, pageSize)
}

// Reconcile compares every wallet balance with its completed transactions.
// Mismatched wallets are frozen and reported; they are returned to the caller.
func (s *walletService) Reconcile(ctx context.Context) ([]domain.LedgerCheck, error) {
	checks, err := s.walletRepo.LedgerChecks(ctx)
	if err != nil {
		return nil, err
	}

	var broken []domain.LedgerCheck
	for _, c := range checks {
		if c.Consistent() {
			continue
		}
		broken = append(broken, c)
		violation := &domain.InvariantViolationError{
			WalletID: c.WalletID,
			Detail:   fmt.Sprintf("balance %d differs from ledger sum %d", c.Balance, c.LedgerSum),
		}
		logger.Error("Ledger invariant violated", "walletID", c.WalletID, "userID", c.UserID, "error", violation)

		if c.Frozen {
			continue
		}
		if err := s.walletRepo.Freeze(ctx, c.WalletID, violation.Detail); err != nil {
			logger.Error("Failed to freeze wallet", "walletID", c.WalletID, "error", err)
			continue
		}
		for _, op := range s.operatorIDs {
			s.notifier.Notify(ctx, op, domain.NotificationLedgerAlert, "Wallet frozen",
				fmt.Sprintf("Wallet %s was frozen: %s", c.WalletID, violation.Detail), nil)
		}
	}
	logger.Info("Ledger reconciliation finished", "wallets", len(checks), "mismatched", len(broken))
	return broken, nil
}

func normalizePage(page, pageSize int32) (int32, int32) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
