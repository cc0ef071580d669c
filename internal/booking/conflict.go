package booking

import (
	"fmt"

	"service-portal-backend/internal/domain"
)

// BlockingSet holds the domain statuses that still occupy a resource.
type BlockingSet map[string]struct{}

func NewBlockingSet(statuses ...string) BlockingSet {
	b := make(BlockingSet, len(statuses))
	for _, s := range statuses {
		b[s] = struct{}{}
	}
	return b
}

func (b BlockingSet) Blocks(status string) bool {
	_, ok := b[status]
	return ok
}

var blockingByType = map[domain.ServiceType]BlockingSet{
	domain.ServiceTypeCourt:    NewBlockingSet(domain.CourtPending, domain.CourtApproved),
	domain.ServiceTypeDispatch: NewBlockingSet(domain.DispatchPending, domain.DispatchBooked, domain.DispatchNeedsApproval),
}

// Blocking returns the blocking set for a reservation type, empty for
// types that reserve nothing.
func Blocking(st domain.ServiceType) BlockingSet {
	if b, ok := blockingByType[st]; ok {
		return b
	}
	return BlockingSet{}
}

// BlockingStatuses lists the blocking set, used by stores to prefilter rows.
func BlockingStatuses(st domain.ServiceType) []string {
	b := Blocking(st)
	out := make([]string, 0, len(b))
	for s := range b {
		out = append(out, s)
	}
	return out
}

// Booked is an existing reservation with its parsed window.
type Booked struct {
	ID     int32
	Window Window
	Status string
}

// Existing is an existing reservation as stored, before parsing.
type Existing struct {
	ID     int32
	Slot   domain.Slot
	Status string
}

// ExistingFrom converts stored reservations into the unparsed form.
func ExistingFrom(records []domain.Reservable) []Existing {
	out := make([]Existing, 0, len(records))
	for _, r := range records {
		out = append(out, Existing{ID: r.Meta().ID, Slot: r.Reservation(), Status: r.Meta().Status})
	}
	return out
}

// HasConflict reports whether proposed overlaps any existing reservation
// whose status is blocking. Invalid windows are rejected rather than
// treated as free.
func HasConflict(proposed Window, existing []Booked, blocking BlockingSet) (bool, error) {
	if !proposed.Valid() {
		return false, fmt.Errorf("%w: proposed %s", domain.ErrInvalidWindow, proposed)
	}
	conflict := false
	for _, e := range existing {
		if !blocking.Blocks(e.Status) {
			continue
		}
		if !e.Window.Valid() {
			return false, fmt.Errorf("%w: existing reservation %d", domain.ErrInvalidWindow, e.ID)
		}
		if proposed.Overlaps(e.Window) {
			conflict = true
		}
	}
	return conflict, nil
}

// CheckSlot parses the proposed slot and the blocking existing slots and
// runs HasConflict. Non-blocking rows are never parsed, so a malformed
// cancelled booking cannot fail a new request.
func CheckSlot(proposed domain.Slot, existing []Existing, blocking BlockingSet) (bool, error) {
	w, err := ParseWindow(proposed)
	if err != nil {
		return false, err
	}
	booked := make([]Booked, 0, len(existing))
	for _, e := range existing {
		if !blocking.Blocks(e.Status) {
			continue
		}
		ew, err := ParseWindow(e.Slot)
		if err != nil {
			return false, fmt.Errorf("existing reservation %d: %w", e.ID, err)
		}
		booked = append(booked, Booked{ID: e.ID, Window: ew, Status: e.Status})
	}
	return HasConflict(w, booked, blocking)
}
