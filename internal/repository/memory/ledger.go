package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"service-portal-backend/internal/domain"
	"service-portal-backend/internal/repository"
)

type naturalKey struct {
	st       domain.ServiceType
	sourceID int32
}

// LedgerStore enforces the natural-key uniqueness the postgres table gets
// from its UNIQUE constraint.
type LedgerStore struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*domain.Transaction
	byKey map[naturalKey]uuid.UUID
}

func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		byID:  make(map[uuid.UUID]*domain.Transaction),
		byKey: make(map[naturalKey]uuid.UUID),
	}
}

func (s *LedgerStore) FindByNaturalKey(ctx context.Context, st domain.ServiceType, sourceID int32) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byKey[naturalKey{st, sourceID}]
	if !ok {
		return nil, nil
	}
	return s.byID[id].Clone(), nil
}

func (s *LedgerStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrLedgerNotFound
	}
	return tx.Clone(), nil
}

func (s *LedgerStore) Insert(ctx context.Context, tx *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := naturalKey{tx.ServiceType, tx.SourceRecordID}
	if _, ok := s.byKey[key]; ok {
		return domain.ErrDuplicateKey
	}
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	s.byID[tx.ID] = tx.Clone()
	s.byKey[key] = tx.ID
	return nil
}

func (s *LedgerStore) Update(ctx context.Context, tx *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[tx.ID]
	if !ok {
		return domain.ErrLedgerNotFound
	}
	c := tx.Clone()
	// The natural key and creation time are fixed once inserted.
	c.ServiceType = cur.ServiceType
	c.SourceRecordID = cur.SourceRecordID
	c.CreatedAt = cur.CreatedAt
	s.byID[tx.ID] = c
	return nil
}

func (s *LedgerStore) List(ctx context.Context, f domain.TransactionFilter) ([]domain.Transaction, int32, error) {
	s.mu.RLock()
	var all []domain.Transaction
	for _, tx := range s.byID {
		if f.OwnerID != nil && tx.OwnerID != *f.OwnerID {
			continue
		}
		if f.ServiceType != "" && tx.ServiceType != f.ServiceType {
			continue
		}
		if f.Status != "" && tx.Status != f.Status {
			continue
		}
		all = append(all, *tx.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID.String() < all[j].ID.String()
	})

	total := int32(len(all))
	limit, offset := f.Limit()
	if offset >= total {
		return []domain.Transaction{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

var _ repository.LedgerRepository = (*LedgerStore)(nil)
