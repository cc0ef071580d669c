package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"service-portal-backend/internal/domain"
)

// SourceStore owns the records of one service type. The record is the
// authority for its own status; the ledger is derived from it.
type SourceStore interface {
	ServiceType() domain.ServiceType
	// Load returns domain.ErrSourceNotFound when id does not exist.
	Load(ctx context.Context, id int32) (domain.ServiceRecord, error)
	// Create assigns ID and timestamps on rec.
	Create(ctx context.Context, rec domain.ServiceRecord) error
	// Save persists the status fields of rec (status, processed by, admin
	// comment) and bumps its update time.
	Save(ctx context.Context, rec domain.ServiceRecord) error
	Delete(ctx context.Context, id int32) error
	ListUpdatedSince(ctx context.Context, since time.Time) ([]int32, error)
}

// ReservationStore is a SourceStore whose records hold a resource over a
// window. Reserve and a Save that reactivates a reservation run the
// conflict check and the write as one unit.
type ReservationStore interface {
	SourceStore
	// Reserve creates rec unless it overlaps a blocking reservation on the
	// same resource (domain.ErrReservationConflict).
	Reserve(ctx context.Context, rec domain.Reservable) error
	// ListOverlapping returns blocking reservations on resource that may
	// overlap slot. Callers still decide with booking.CheckSlot.
	ListOverlapping(ctx context.Context, resource string, slot domain.Slot) ([]domain.Reservable, error)
}

type LedgerRepository interface {
	// FindByNaturalKey returns nil, nil when no entry exists.
	FindByNaturalKey(ctx context.Context, st domain.ServiceType, sourceID int32) (*domain.Transaction, error)
	// FindByID returns domain.ErrLedgerNotFound when id does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	// Insert returns domain.ErrDuplicateKey when the natural key is taken.
	Insert(ctx context.Context, tx *domain.Transaction) error
	Update(ctx context.Context, tx *domain.Transaction) error
	List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int32, error)
}

// Sources indexes the record stores by service type.
type Sources map[domain.ServiceType]SourceStore

func NewSources(stores ...SourceStore) Sources {
	s := make(Sources, len(stores))
	for _, st := range stores {
		s[st.ServiceType()] = st
	}
	return s
}

func (s Sources) Get(st domain.ServiceType) (SourceStore, error) {
	store, ok := s[st]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownServiceType, st)
	}
	return store, nil
}

// Reservations returns the store for st when it supports reservations.
func (s Sources) Reservations(st domain.ServiceType) (ReservationStore, bool) {
	rs, ok := s[st].(ReservationStore)
	return rs, ok
}
