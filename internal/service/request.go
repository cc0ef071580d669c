package service

import (
	"context"
	"errors"
	"fmt"

	"service-portal-backend/internal/audit"
	"service-portal-backend/internal/booking"
	"service-portal-backend/internal/domain"
	"service-portal-backend/internal/ledger"
	"service-portal-backend/internal/logger"
	"service-portal-backend/internal/metrics"
	"service-portal-backend/internal/repository"
	"service-portal-backend/internal/security"
	"service-portal-backend/internal/statusmap"
)

type requestService struct {
	sources repository.Sources
	ledger  repository.LedgerRepository
	engine  *ledger.Engine
	audit   audit.Logger
	metrics *metrics.Metrics
}

func NewRequestService(
	sources repository.Sources,
	ledgerRepo repository.LedgerRepository,
	engine *ledger.Engine,
	auditLog audit.Logger,
	m *metrics.Metrics,
) RequestService {
	return &requestService{
		sources: sources,
		ledger:  ledgerRepo,
		engine:  engine,
		audit:   audit.Safe(auditLog),
		metrics: m,
	}
}

// Submit stores a new record in its initial status and creates its ledger
// entry. Residents always submit for themselves.
func (s *requestService) Submit(ctx context.Context, rec domain.ServiceRecord) (*domain.Transaction, error) {
	st := rec.ServiceType()
	store, err := s.sources.Get(st)
	if err != nil {
		return nil, err
	}

	m := rec.Meta()
	if a, ok := security.ActorFromContext(ctx); ok {
		if !a.Staff || m.OwnerID == 0 {
			m.OwnerID = a.ID
		}
		if m.ContactEmail == "" {
			m.ContactEmail = a.Email
		}
	}
	m.ID = 0
	m.Status = statusmap.InitialStatus(st)
	m.ProcessedBy = nil
	m.AdminComment = nil

	if res, ok := rec.(domain.Reservable); ok {
		rs, ok := s.sources.Reservations(st)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no reservation store", domain.ErrUnknownServiceType, st)
		}
		err = s.reserve(ctx, rs, res)
	} else {
		err = store.Create(ctx, rec)
	}
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, audit.Entry{
		ActorName:  security.ActorName(ctx),
		ActionCode: audit.ActionRecordSubmitted,
		SubjectID:  fmt.Sprintf("%s/%d", st, m.ID),
		Details:    fmt.Sprintf("owner %d", m.OwnerID),
	})
	logger.Info("Request submitted", "service_type", st, "source_id", m.ID, "owner_id", m.OwnerID)

	return s.engine.SyncFromSource(ctx, st, m.ID)
}

func (s *requestService) Get(ctx context.Context, st domain.ServiceType, id int32) (domain.ServiceRecord, *domain.Transaction, error) {
	store, err := s.sources.Get(st)
	if err != nil {
		return nil, nil, err
	}
	rec, err := store.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !canSee(ctx, rec.Meta().OwnerID) {
		return nil, nil, domain.ErrForbidden
	}
	tx, err := s.ledger.FindByNaturalKey(ctx, st, id)
	if err != nil {
		return nil, nil, err
	}
	return rec, tx, nil
}

// ChangeStatus is the staff edit of a record in its own vocabulary. The
// ledger entry is re-derived afterwards.
func (s *requestService) ChangeStatus(ctx context.Context, st domain.ServiceType, id int32, status string, comment *string) (*domain.Transaction, error) {
	actorID, err := requireStaff(ctx)
	if err != nil {
		return nil, err
	}
	store, err := s.sources.Get(st)
	if err != nil {
		return nil, err
	}
	if !statusmap.IsKnown(st, status) {
		return nil, fmt.Errorf("%w: %q for %s", domain.ErrInvalidStatus, status, st)
	}

	rec, err := store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := rec.Meta().Status
	rec.Meta().ApplyDecision(status, comment, actorID)
	if err := store.Save(ctx, rec); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, audit.Entry{
		ActorName:  security.ActorName(ctx),
		ActionCode: audit.ActionRecordStatus,
		SubjectID:  fmt.Sprintf("%s/%d", st, id),
		Details:    fmt.Sprintf("%s -> %s", prev, status),
	})
	return s.engine.SyncFromSource(ctx, st, id)
}

// Remove retires the ledger entry and then deletes the record.
func (s *requestService) Remove(ctx context.Context, st domain.ServiceType, id int32, comment string) (*domain.Transaction, error) {
	actorID, err := requireStaff(ctx)
	if err != nil {
		return nil, err
	}
	store, err := s.sources.Get(st)
	if err != nil {
		return nil, err
	}
	tx, err := s.engine.RetireForDeletion(ctx, st, id, comment, actorID)
	if err != nil {
		return nil, err
	}
	if err := store.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete %s record %d: %w", st, id, err)
	}

	s.audit.Log(ctx, audit.Entry{
		ActorName:  security.ActorName(ctx),
		ActionCode: audit.ActionRecordDeleted,
		SubjectID:  fmt.Sprintf("%s/%d", st, id),
		Details:    comment,
	})
	return tx, nil
}

// reserve checks the slot before the locked write. A conflict that only
// the write sees means another booking took the slot in between, which is
// worth retrying.
func (s *requestService) reserve(ctx context.Context, rs repository.ReservationStore, res domain.Reservable) error {
	st := res.ServiceType()
	free, err := s.slotFree(ctx, rs, st, res.ResourceKey(), res.Reservation())
	if err != nil {
		return err
	}
	if !free {
		return domain.ErrReservationConflict
	}

	err = rs.Reserve(ctx, res)
	if errors.Is(err, domain.ErrReservationConflict) {
		s.metrics.RecordConflictCheck(string(st), true, nil)
		logger.Info("Slot taken while booking", "service_type", st, "resource", res.ResourceKey())
		return fmt.Errorf("%w: %s %s was booked concurrently", domain.ErrConcurrentConflict, st, res.ResourceKey())
	}
	return err
}

// CheckAvailability is a dry run of the booking check; it reports whether
// slot is free on resource right now.
func (s *requestService) CheckAvailability(ctx context.Context, st domain.ServiceType, resource string, slot domain.Slot) (bool, error) {
	rs, ok := s.sources.Reservations(st)
	if !ok {
		return false, fmt.Errorf("%w: %s does not take reservations", domain.ErrUnknownServiceType, st)
	}
	return s.slotFree(ctx, rs, st, resource, slot)
}

func (s *requestService) slotFree(ctx context.Context, rs repository.ReservationStore, st domain.ServiceType, resource string, slot domain.Slot) (bool, error) {
	if _, err := booking.ParseWindow(slot); err != nil {
		return false, err
	}
	existing, err := rs.ListOverlapping(ctx, resource, slot)
	if err != nil {
		return false, err
	}
	conflict, err := booking.CheckSlot(slot, booking.ExistingFrom(existing), booking.Blocking(st))
	s.metrics.RecordConflictCheck(string(st), conflict, err)
	if err != nil {
		return false, err
	}
	return !conflict, nil
}
