package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"walletpay/internal/models/db_models"
	"walletpay/internal/repositories"
	"walletpay/pkg/utils"
)

// TransactionStore is an in-memory repositories.TransactionRepository with
// the same compare-and-swap rules as the gorm one.
type TransactionStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]db_models.Transaction

	CreateErr error
	UpdateErr error
}

func NewTransactionStore() *TransactionStore {
	return &TransactionStore{rows: make(map[uuid.UUID]db_models.Transaction)}
}

var _ repositories.TransactionRepository = (*TransactionStore)(nil)

func (s *TransactionStore) Create(_ context.Context, txn *db_models.Transaction) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	now := time.Now().UTC()
	txn.CreatedAt, txn.UpdatedAt = now, now
	s.rows[txn.ID] = *txn
	return nil
}

func (s *TransactionStore) FindByID(_ context.Context, id uuid.UUID) (*db_models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (s *TransactionStore) Update(_ context.Context, txn *db_models.Transaction, expected db_models.TransactionStatus) error {
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[txn.ID]
	if !ok || row.Status != expected {
		return fmt.Errorf("%w: transaction %s", utils.ErrStaleRecord, txn.ID)
	}
	txn.UpdatedAt = time.Now().UTC()
	s.rows[txn.ID] = *txn
	return nil
}

func (s *TransactionStore) List(_ context.Context, f repositories.TransactionFilter) ([]db_models.Transaction, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []db_models.Transaction
	for _, row := range s.rows {
		if f.Status != "" && string(row.Status) != f.Status {
			continue
		}
		if f.Currency != "" && row.Currency != f.Currency {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := int64(len(out))
	return page(out, f.Page, f.PageSize), total, nil
}

// All returns every stored transaction.
func (s *TransactionStore) All() []db_models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]db_models.Transaction, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, row)
	}
	return out
}

// SubscriptionStore is an in-memory repositories.SubscriptionRepository.
type SubscriptionStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]db_models.Subscription

	CreateErr error
	UpdateErr error
}

func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{rows: make(map[uuid.UUID]db_models.Subscription)}
}

var _ repositories.SubscriptionRepository = (*SubscriptionStore)(nil)

func (s *SubscriptionStore) Create(_ context.Context, sub *db_models.Subscription) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	now := time.Now().UTC()
	sub.CreatedAt, sub.UpdatedAt = now, now
	s.rows[sub.ID] = *sub
	return nil
}

// Put stores sub as is, for seeding tests.
func (s *SubscriptionStore) Put(sub db_models.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	s.rows[sub.ID] = sub
}

func (s *SubscriptionStore) FindByID(_ context.Context, id uuid.UUID) (*db_models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (s *SubscriptionStore) Update(_ context.Context, sub *db_models.Subscription) error {
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sub.UpdatedAt = time.Now().UTC()
	s.rows[sub.ID] = *sub
	return nil
}

func (s *SubscriptionStore) AcquireChargeLease(_ context.Context, id uuid.UUID, now, until time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok || row.Status != db_models.SubStatusActive {
		return false, nil
	}
	if row.ChargeLeaseUntil != nil && !row.ChargeLeaseUntil.Before(now) {
		return false, nil
	}
	row.ChargeLeaseUntil = &until
	s.rows[id] = row
	return true, nil
}

func (s *SubscriptionStore) CompleteCharge(_ context.Context, id uuid.UUID, last, next time.Time, snapshot datatypes.JSON) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok {
		return nil
	}
	row.LastBillingDate, row.NextBillingDate, row.ChargeLeaseUntil = &last, &next, nil
	if len(snapshot) > 0 {
		row.GatewayResponse = snapshot
	}
	s.rows[id] = row
	return nil
}

func (s *SubscriptionStore) ReleaseChargeLease(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row, ok := s.rows[id]; ok {
		row.ChargeLeaseUntil = nil
		s.rows[id] = row
	}
	return nil
}

func (s *SubscriptionStore) List(_ context.Context, f repositories.SubscriptionFilter) ([]db_models.Subscription, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []db_models.Subscription
	for _, row := range s.rows {
		if f.Status != "" && string(row.Status) != f.Status {
			continue
		}
		if f.Currency != "" && row.Currency != f.Currency {
			continue
		}
		if f.BillingCycle != "" && string(row.BillingCycle) != f.BillingCycle {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := int64(len(out))
	return page(out, f.Page, f.PageSize), total, nil
}

func (s *SubscriptionStore) All() []db_models.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]db_models.Subscription, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, row)
	}
	return out
}

func page[T any](rows []T, page, size int) []T {
	start := (page - 1) * size
	if start < 0 || start >= len(rows) {
		return []T{}
	}
	end := start + size
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
