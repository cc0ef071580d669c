package memory

import (
	"context"

	"service-portal-backend/internal/booking"
	"service-portal-backend/internal/domain"
	"service-portal-backend/internal/repository"
)

type reservable[T any] interface {
	domain.Reservable
	Clone() T
}

// ReservationStore serialises every check-and-write on the store mutex, so
// two overlapping Reserve calls cannot both succeed.
type ReservationStore[T reservable[T]] struct {
	*RecordStore[T]
	blocking booking.BlockingSet
}

func NewReservationStore[T reservable[T]](st domain.ServiceType) *ReservationStore[T] {
	return &ReservationStore[T]{
		RecordStore: NewRecordStore[T](st),
		blocking:    booking.Blocking(st),
	}
}

func (s *ReservationStore[T]) Reserve(ctx context.Context, rec domain.Reservable) error {
	t, err := s.cast(rec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLocked(rec, 0); err != nil {
		return err
	}
	s.insertLocked(t)
	return nil
}

// Save rechecks the slot when the new status makes a dormant reservation
// block again.
func (s *ReservationStore[T]) Save(ctx context.Context, rec domain.ServiceRecord) error {
	t, err := s.cast(rec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.rows[t.Meta().ID]
	if !ok {
		return domain.ErrSourceNotFound
	}
	if s.blocking.Blocks(t.Meta().Status) && !s.blocking.Blocks(cur.Meta().Status) {
		if err := s.checkLocked(cur, cur.Meta().ID); err != nil {
			return err
		}
	}
	return s.saveLocked(t.Meta())
}

func (s *ReservationStore[T]) checkLocked(rec domain.Reservable, skipID int32) error {
	var existing []booking.Existing
	for id, row := range s.rows {
		if id == skipID || row.ResourceKey() != rec.ResourceKey() {
			continue
		}
		existing = append(existing, booking.Existing{ID: id, Slot: row.Reservation(), Status: row.Meta().Status})
	}
	conflict, err := booking.CheckSlot(rec.Reservation(), existing, s.blocking)
	if err != nil {
		return err
	}
	if conflict {
		return domain.ErrReservationConflict
	}
	return nil
}

func (s *ReservationStore[T]) ListOverlapping(ctx context.Context, resource string, slot domain.Slot) ([]domain.Reservable, error) {
	if _, err := booking.ParseWindow(slot); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Reservable
	for _, row := range s.rows {
		if row.ResourceKey() == resource && s.blocking.Blocks(row.Meta().Status) {
			out = append(out, row.Clone())
		}
	}
	return out, nil
}

var _ repository.ReservationStore = (*ReservationStore[*domain.CourtBooking])(nil)
