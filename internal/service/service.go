package service

import (
	"context"

	"github.com/google/uuid"

	"service-portal-backend/internal/domain"
)

// RequestService is the resident and staff facing side of the six record
// types. Every write ends with a sync so the ledger follows the record.
type RequestService interface {
	Submit(ctx context.Context, rec domain.ServiceRecord) (*domain.Transaction, error)
	Get(ctx context.Context, st domain.ServiceType, id int32) (domain.ServiceRecord, *domain.Transaction, error)
	ChangeStatus(ctx context.Context, st domain.ServiceType, id int32, status string, comment *string) (*domain.Transaction, error)
	Remove(ctx context.Context, st domain.ServiceType, id int32, comment string) (*domain.Transaction, error)
	CheckAvailability(ctx context.Context, st domain.ServiceType, resource string, slot domain.Slot) (bool, error)
}

// LedgerService exposes the canonical ledger.
type LedgerService interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int32, error)
	Decide(ctx context.Context, id uuid.UUID, status domain.CanonicalStatus, comment *string) (*domain.Transaction, error)
	Resync(ctx context.Context, st domain.ServiceType, sourceID int32) (*domain.Transaction, error)
}
