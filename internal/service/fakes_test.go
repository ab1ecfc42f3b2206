package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"threewloc-backend/internal/domain"
	"threewloc-backend/internal/repository"
)

type txKey struct{}

// memStore is an in-memory repository.Transactor. WithinTx serializes
// transactions and restores a snapshot when fn fails.
type memStore struct {
	mu        sync.Mutex
	users     map[uuid.UUID]domain.User
	equipment map[uuid.UUID]domain.Equipment
	bookings  map[uuid.UUID]domain.Booking
	wallets   map[uuid.UUID]domain.WalletAccount
	walletTxs []domain.WalletTransaction
	payments  map[uuid.UUID]domain.Payment
	disputes  []domain.Dispute
	notes     []domain.Notification

	// listActiveErr makes ListActiveByEquipment fail.
	listActiveErr error
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[uuid.UUID]domain.User{},
		equipment: map[uuid.UUID]domain.Equipment{},
		bookings:  map[uuid.UUID]domain.Booking{},
		wallets:   map[uuid.UUID]domain.WalletAccount{},
		payments:  map[uuid.UUID]domain.Payment{},
	}
}

func (s *memStore) lock(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *memStore) Repositories() repository.Repositories {
	return repository.Repositories{
		Users:         memUsers{s},
		Equipment:     memEquipment{s},
		Bookings:      memBookings{s},
		Wallets:       memWallets{s},
		Payments:      memPayments{s},
		Disputes:      memDisputes{s},
		Notifications: memNotifications{s},
	}
}

type memSnapshot struct {
	equipment map[uuid.UUID]domain.Equipment
	bookings  map[uuid.UUID]domain.Booking
	wallets   map[uuid.UUID]domain.WalletAccount
	walletTxs []domain.WalletTransaction
	payments  map[uuid.UUID]domain.Payment
	disputes  []domain.Dispute
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := memSnapshot{
		equipment: copyMap(s.equipment),
		bookings:  copyMap(s.bookings),
		wallets:   copyMap(s.wallets),
		walletTxs: append([]domain.WalletTransaction(nil), s.walletTxs...),
		payments:  copyMap(s.payments),
		disputes:  append([]domain.Dispute(nil), s.disputes...),
	}
	if err := fn(context.WithValue(ctx, txKey{}, true), s.Repositories()); err != nil {
		s.equipment, s.bookings, s.wallets = snap.equipment, snap.bookings, snap.wallets
		s.walletTxs, s.payments, s.disputes = snap.walletTxs, snap.payments, snap.disputes
		return err
	}
	return nil
}

// seedWallet creates a wallet whose balance is backed by one completed credit.
func (s *memStore) seedWallet(userID uuid.UUID, balance int64) domain.WalletAccount {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := domain.WalletAccount{ID: uuid.New(), UserID: userID, Balance: balance}
	s.wallets[w.ID] = w
	if balance > 0 {
		s.walletTxs = append(s.walletTxs, domain.WalletTransaction{
			ID: uuid.New(), WalletID: w.ID, Amount: balance, Type: domain.TransactionTypeCredit,
			Status: domain.TransactionStatusCompleted, Description: "seed",
		})
	}
	return w
}

func (s *memStore) walletOf(userID uuid.UUID) domain.WalletAccount {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.wallets {
		if w.UserID == userID {
			return w
		}
	}
	return domain.WalletAccount{}
}

func (s *memStore) transactionsOf(walletID uuid.UUID) []domain.WalletTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.WalletTransaction
	for _, t := range s.walletTxs {
		if t.WalletID == walletID {
			out = append(out, t)
		}
	}
	return out
}

func (s *memStore) booking(id uuid.UUID) domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookings[id]
}

func (s *memStore) paymentsFor(bookingID uuid.UUID) []domain.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Payment
	for _, p := range s.payments {
		if p.BookingID != nil && *p.BookingID == bookingID {
			out = append(out, p)
		}
	}
	return out
}

type memUsers struct{ s *memStore }

func (r memUsers) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	defer r.s.lock(ctx)()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

type memEquipment struct{ s *memStore }

func (r memEquipment) GetByID(ctx context.Context, id uuid.UUID) (*domain.Equipment, error) {
	defer r.s.lock(ctx)()
	e, ok := r.s.equipment[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

func (r memEquipment) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.EquipmentStatus) error {
	defer r.s.lock(ctx)()
	e, ok := r.s.equipment[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.Status = status
	r.s.equipment[id] = e
	return nil
}

type memBookings struct{ s *memStore }

func (r memBookings) Create(ctx context.Context, b *domain.Booking) error {
	defer r.s.lock(ctx)()
	for _, other := range r.s.bookings {
		if other.EquipmentID == b.EquipmentID && other.Status.IsActive() && other.Overlaps(b.StartDate, b.EndDate) {
			return &domain.DateConflictError{EquipmentID: b.EquipmentID, StartDate: b.StartDate, EndDate: b.EndDate}
		}
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.CreatedAt, b.UpdatedAt = now(), now()
	r.s.bookings[b.ID] = *b
	return nil
}

func (r memBookings) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	defer r.s.lock(ctx)()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (r memBookings) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r memBookings) Update(ctx context.Context, b *domain.Booking) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.bookings[b.ID]; !ok {
		return domain.ErrNotFound
	}
	b.UpdatedAt = now()
	r.s.bookings[b.ID] = *b
	return nil
}

func (r memBookings) ListActiveByEquipment(ctx context.Context, equipmentID uuid.UUID, from time.Time) ([]domain.Booking, error) {
	defer r.s.lock(ctx)()
	if r.s.listActiveErr != nil {
		return nil, r.s.listActiveErr
	}
	var out []domain.Booking
	for _, b := range r.s.bookings {
		if b.EquipmentID == equipmentID && b.Status.IsActive() && !b.EndDate.Before(from) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (r memBookings) list(ctx context.Context, match func(domain.Booking) bool, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	defer r.s.lock(ctx)()
	var all []domain.Booking
	for _, b := range r.s.bookings {
		if match(b) && (status == "" || string(b.Status) == status) {
			all = append(all, b)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, page, pageSize), int32(len(all)), nil
}

func (r memBookings) ListByRenter(ctx context.Context, renterID uuid.UUID, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	return r.list(ctx, func(b domain.Booking) bool { return b.RenterID == renterID }, status, page, pageSize)
}

func (r memBookings) ListByOwner(ctx context.Context, ownerID uuid.UUID, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	return r.list(ctx, func(b domain.Booking) bool { return b.OwnerID == ownerID }, status, page, pageSize)
}

func (r memBookings) ListUnpaidRequestedBefore(ctx context.Context, before time.Time, limit int) ([]domain.Booking, error) {
	defer r.s.lock(ctx)()
	var out []domain.Booking
	for _, b := range r.s.bookings {
		if b.Status == domain.BookingStatusRequested && b.PaymentStatus == domain.PaymentStatusUnpaid && b.CreatedAt.Before(before) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func paginate[T any](items []T, page, pageSize int32) []T {
	start := int((page - 1) * pageSize)
	if start >= len(items) {
		return nil
	}
	end := start + int(pageSize)
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

type memWallets struct{ s *memStore }

func (r memWallets) Create(ctx context.Context, w *domain.WalletAccount) error {
	defer r.s.lock(ctx)()
	for _, other := range r.s.wallets {
		if other.UserID == w.UserID {
			return domain.ErrWalletExists
		}
	}
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	r.s.wallets[w.ID] = *w
	return nil
}

func (r memWallets) GetByID(ctx context.Context, id uuid.UUID) (*domain.WalletAccount, error) {
	defer r.s.lock(ctx)()
	w, ok := r.s.wallets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &w, nil
}

func (r memWallets) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.WalletAccount, error) {
	defer r.s.lock(ctx)()
	for _, w := range r.s.wallets {
		if w.UserID == userID {
			return &w, nil
		}
	}
	return nil, domain.ErrNotFound
}

// move applies amount to a wallet with the same guard as the SQL statement.
func (r memWallets) move(walletID uuid.UUID, amount int64) error {
	w, ok := r.s.wallets[walletID]
	if !ok {
		return domain.ErrNotFound
	}
	if w.Frozen {
		return domain.ErrWalletFrozen
	}
	if w.Balance+amount < 0 {
		return &domain.InsufficientFundsError{WalletID: walletID, Balance: w.Balance, Requested: -amount}
	}
	w.Balance += amount
	r.s.wallets[walletID] = w
	return nil
}

func (r memWallets) ApplyTransaction(ctx context.Context, tx *domain.WalletTransaction) error {
	defer r.s.lock(ctx)()
	if err := r.move(tx.WalletID, tx.Amount); err != nil {
		return err
	}
	tx.ID = uuid.New()
	tx.Status = domain.TransactionStatusCompleted
	tx.CreatedAt = now()
	r.s.walletTxs = append(r.s.walletTxs, *tx)
	return nil
}

func (r memWallets) InsertPending(ctx context.Context, tx *domain.WalletTransaction) error {
	defer r.s.lock(ctx)()
	tx.ID = uuid.New()
	tx.Status = domain.TransactionStatusPending
	tx.CreatedAt = now()
	r.s.walletTxs = append(r.s.walletTxs, *tx)
	return nil
}

func (r memWallets) CompletePending(ctx context.Context, txID uuid.UUID) (bool, error) {
	defer r.s.lock(ctx)()
	for i, t := range r.s.walletTxs {
		if t.ID != txID {
			continue
		}
		if t.Status != domain.TransactionStatusPending {
			return false, nil
		}
		if err := r.move(t.WalletID, t.Amount); err != nil {
			return false, err
		}
		r.s.walletTxs[i].Status = domain.TransactionStatusCompleted
		return true, nil
	}
	return false, nil
}

func (r memWallets) FailPending(ctx context.Context, txID uuid.UUID) error {
	defer r.s.lock(ctx)()
	for i, t := range r.s.walletTxs {
		if t.ID == txID && t.Status == domain.TransactionStatusPending {
			r.s.walletTxs[i].Status = domain.TransactionStatusFailed
		}
	}
	return nil
}

func (r memWallets) GetTransactionByReference(ctx context.Context, reference string) (*domain.WalletTransaction, error) {
	defer r.s.lock(ctx)()
	for _, t := range r.s.walletTxs {
		if t.Reference != nil && *t.Reference == reference {
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memWallets) ListTransactions(ctx context.Context, walletID uuid.UUID, page, pageSize int32) ([]domain.WalletTransaction, int32, error) {
	defer r.s.lock(ctx)()
	var all []domain.WalletTransaction
	for i := len(r.s.walletTxs) - 1; i >= 0; i-- {
		if r.s.walletTxs[i].WalletID == walletID {
			all = append(all, r.s.walletTxs[i])
		}
	}
	return paginate(all, page, pageSize), int32(len(all)), nil
}

func (r memWallets) LedgerChecks(ctx context.Context) ([]domain.LedgerCheck, error) {
	defer r.s.lock(ctx)()
	sums := map[uuid.UUID]int64{}
	for _, t := range r.s.walletTxs {
		if t.Status == domain.TransactionStatusCompleted {
			sums[t.WalletID] += t.Amount
		}
	}
	var out []domain.LedgerCheck
	for _, w := range r.s.wallets {
		out = append(out, domain.LedgerCheck{WalletID: w.ID, UserID: w.UserID, Balance: w.Balance, LedgerSum: sums[w.ID], Frozen: w.Frozen})
	}
	return out, nil
}

func (r memWallets) Freeze(ctx context.Context, walletID uuid.UUID, reason string) error {
	defer r.s.lock(ctx)()
	w, ok := r.s.wallets[walletID]
	if !ok {
		return domain.ErrNotFound
	}
	w.Frozen, w.FrozenReason = true, reason
	r.s.wallets[walletID] = w
	return nil
}

type memPayments struct{ s *memStore }

func (r memPayments) Create(ctx context.Context, p *domain.Payment) error {
	defer r.s.lock(ctx)()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Reference == "" {
		p.Reference = p.ID.String()
	}
	if p.RefundStatus == "" {
		p.RefundStatus = domain.RefundStatusNone
	}
	if r.providerTransactionTaken(p) {
		return domain.ErrProviderTransactionInUse
	}
	p.CreatedAt, p.UpdatedAt = now(), now()
	r.s.payments[p.ID] = *p
	return nil
}

// providerTransactionTaken mirrors the unique (provider, provider_transaction_id) index.
func (r memPayments) providerTransactionTaken(p *domain.Payment) bool {
	if p.ProviderTransactionID == "" {
		return false
	}
	for _, other := range r.s.payments {
		if other.ID != p.ID && other.Provider == p.Provider && other.ProviderTransactionID == p.ProviderTransactionID {
			return true
		}
	}
	return false
}

func (r memPayments) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	defer r.s.lock(ctx)()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r memPayments) GetByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	defer r.s.lock(ctx)()
	for _, p := range r.s.payments {
		if p.Reference == reference {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memPayments) GetSettledForBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Payment, error) {
	defer r.s.lock(ctx)()
	for _, p := range r.s.payments {
		if p.BookingID != nil && *p.BookingID == bookingID && p.Purpose == domain.PaymentPurposeBooking &&
			p.Status == domain.ChargeStatusCompleted {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memPayments) Update(ctx context.Context, p *domain.Payment) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.payments[p.ID]; !ok {
		return domain.ErrNotFound
	}
	if r.providerTransactionTaken(p) {
		return domain.ErrProviderTransactionInUse
	}
	p.UpdatedAt = now()
	r.s.payments[p.ID] = *p
	return nil
}

func (r memPayments) ListDueForVerification(ctx context.Context, at time.Time, limit int) ([]domain.Payment, error) {
	defer r.s.lock(ctx)()
	var out []domain.Payment
	for _, p := range r.s.payments {
		if p.Status == domain.ChargeStatusPending && p.NextVerifyAt != nil && !p.NextVerifyAt.After(at) && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memPayments) ListFailedRefunds(ctx context.Context, limit int) ([]domain.Payment, error) {
	defer r.s.lock(ctx)()
	var out []domain.Payment
	for _, p := range r.s.payments {
		if p.NeedsAttention && p.RefundStatus == domain.RefundStatusFailed && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memPayments) HasPendingForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	defer r.s.lock(ctx)()
	for _, p := range r.s.payments {
		if p.BookingID != nil && *p.BookingID == bookingID && p.Status == domain.ChargeStatusPending {
			return true, nil
		}
	}
	return false, nil
}

type memDisputes struct{ s *memStore }

func (r memDisputes) Create(ctx context.Context, d *domain.Dispute) error {
	defer r.s.lock(ctx)()
	d.ID = uuid.New()
	d.Status = domain.DisputeStatusOpen
	r.s.disputes = append(r.s.disputes, *d)
	return nil
}

func (r memDisputes) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.Dispute, error) {
	defer r.s.lock(ctx)()
	var out []domain.Dispute
	for _, d := range r.s.disputes {
		if d.BookingID == bookingID {
			out = append(out, d)
		}
	}
	return out, nil
}

type memNotifications struct{ s *memStore }

func (r memNotifications) Create(ctx context.Context, n *domain.Notification) error {
	defer r.s.lock(ctx)()
	n.ID = uuid.New()
	r.s.notes = append(r.s.notes, *n)
	return nil
}

func (r memNotifications) List(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]domain.Notification, int32, error) {
	defer r.s.lock(ctx)()
	var all []domain.Notification
	for _, n := range r.s.notes {
		if n.UserID == userID {
			all = append(all, n)
		}
	}
	if int(offset) >= len(all) {
		return nil, int32(len(all)), nil
	}
	end := int(offset + limit)
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], int32(len(all)), nil
}

func (r memNotifications) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	defer r.s.lock(ctx)()
	for i, n := range r.s.notes {
		if n.ID == id && n.UserID == userID {
			r.s.notes[i].IsRead = true
			return nil
		}
	}
	return domain.ErrNotFound
}

// recordingNotifier keeps every notification it is asked to send.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

type sentNotification struct {
	UserID uuid.UUID
	Kind   domain.NotificationType
}

func (n *recordingNotifier) Notify(_ context.Context, userID uuid.UUID, kind domain.NotificationType, _, _ string, _ *uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Kind: kind})
}

func (n *recordingNotifier) kinds(userID uuid.UUID) []domain.NotificationType {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []domain.NotificationType
	for _, s := range n.sent {
		if s.UserID == userID {
			out = append(out, s.Kind)
		}
	}
	return out
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishBookingChanged(ctx context.Context, event domain.BookingChanged) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
