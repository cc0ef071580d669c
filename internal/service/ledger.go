package service

import (
	"context"

	"github.com/google/uuid"

	"service-portal-backend/internal/domain"
	"service-portal-backend/internal/ledger"
	"service-portal-backend/internal/repository"
	"service-portal-backend/internal/security"
)

type ledgerService struct {
	ledgerRepo repository.LedgerRepository
	engine     *ledger.Engine
}

func NewLedgerService(ledgerRepo repository.LedgerRepository, engine *ledger.Engine) LedgerService {
	return &ledgerService{ledgerRepo: ledgerRepo, engine: engine}
}

func (s *ledgerService) Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	tx, err := s.ledgerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSee(ctx, tx.OwnerID) {
		return nil, domain.ErrForbidden
	}
	return tx, nil
}

// List pins residents to their own entries.
func (s *ledgerService) List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int32, error) {
	if a, ok := security.ActorFromContext(ctx); ok && !a.Staff {
		owner := a.ID
		filter.OwnerID = &owner
	}
	return s.ledgerRepo.List(ctx, filter)
}

func (s *ledgerService) Decide(ctx context.Context, id uuid.UUID, status domain.CanonicalStatus, comment *string) (*domain.Transaction, error) {
	actorID, err := requireStaff(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.ApplyDecision(ctx, id, status, comment, actorID)
}

func (s *ledgerService) Resync(ctx context.Context, st domain.ServiceType, sourceID int32) (*domain.Transaction, error) {
	if _, err := requireStaff(ctx); err != nil {
		return nil, err
	}
	return s.engine.SyncFromSource(ctx, st, sourceID)
}
