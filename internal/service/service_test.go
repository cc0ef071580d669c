package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"service-portal-backend/internal/audit"
	"service-portal-backend/internal/domain"
	"service-portal-backend/internal/ledger"
	"service-portal-backend/internal/repository"
	"service-portal-backend/internal/repository/memory"
	"service-portal-backend/internal/security"
)

type harness struct {
	sources  repository.Sources
	ledger   *memory.LedgerStore
	requests RequestService
	txs      LedgerService
}

func newHarness() *harness {
	sources := memory.NewSources()
	store := memory.NewLedgerStore()
	engine := ledger.NewEngine(sources, store)
	return &harness{
		sources:  sources,
		ledger:   store,
		requests: NewRequestService(sources, store, engine, audit.Nop(), nil),
		txs:      NewLedgerService(store, engine),
	}
}

var (
	resident = security.Actor{ID: 11, Name: "Ana Reyes", Email: "ana@example.org"}
	neighbor = security.Actor{ID: 12, Name: "Ben Cruz", Email: "ben@example.org"}
	clerk    = security.Actor{ID: 90, Name: "Clerk", Email: "clerk@example.org", Staff: true}
)

func as(a security.Actor) context.Context {
	return security.WithActor(context.Background(), a)
}

func court(from string, hours float64) *domain.CourtBooking {
	return &domain.CourtBooking{
		CourtID: "court-a",
		Purpose: "league",
		Slot:    domain.Slot{Date: "2026-05-02", StartTime: from, DurationHours: hours},
	}
}

func TestSubmit_ResidentOwnsRecord(t *testing.T) {
	h := newHarness()
	rec := &domain.DocumentRequest{
		RecordMeta:   domain.RecordMeta{OwnerID: 999, Status: "completed"},
		DocumentType: "barangay_clearance",
		Copies:       1,
	}

	tx, err := h.requests.Submit(as(resident), rec)
	require.NoError(t, err)

	assert.Equal(t, resident.ID, rec.OwnerID)
	assert.Equal(t, "pending", rec.Status)
	assert.Equal(t, resident.Email, rec.ContactEmail)
	assert.Equal(t, domain.StatusPending, tx.Status)
	assert.Equal(t, resident.ID, tx.OwnerID)
	assert.Equal(t, rec.ID, tx.SourceRecordID)
}

func TestSubmit_InitialStatusPerType(t *testing.T) {
	h := newHarness()

	report := &domain.InfrastructureReport{Category: "road", Location: "Purok 3"}
	_, err := h.requests.Submit(as(resident), report)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportPending, report.Status)

	reg := &domain.Registration{FullName: "Ana Reyes", BirthDate: "1990-01-01"}
	tx, err := h.requests.Submit(as(resident), reg)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationUnverified, reg.Status)
	assert.Equal(t, domain.StatusPending, tx.Status)
}

func TestSubmit_ReservationConflict(t *testing.T) {
	h := newHarness()

	_, err := h.requests.Submit(as(resident), court("10:00", 2))
	require.NoError(t, err)

	_, err = h.requests.Submit(as(neighbor), court("11:00", 1))
	assert.ErrorIs(t, err, domain.ErrReservationConflict)

	// Back to back is fine.
	_, err = h.requests.Submit(as(neighbor), court("12:00", 1))
	assert.NoError(t, err)
}

// racingStore books a rival reservation right after the availability
// read, the way a concurrent request would.
type racingStore struct {
	repository.ReservationStore
	rival domain.Reservable
}

func (r *racingStore) ListOverlapping(ctx context.Context, resource string, slot domain.Slot) ([]domain.Reservable, error) {
	out, err := r.ReservationStore.ListOverlapping(ctx, resource, slot)
	if err != nil || r.rival == nil {
		return out, err
	}
	rival := r.rival
	r.rival = nil
	if err := r.ReservationStore.Reserve(ctx, rival); err != nil {
		return nil, err
	}
	return out, nil
}

func TestSubmit_SlotTakenWhileBooking(t *testing.T) {
	h := newHarness()
	inner, ok := h.sources.Reservations(domain.ServiceTypeCourt)
	require.True(t, ok)
	rival := court("10:30", 1)
	rival.OwnerID = neighbor.ID
	rival.Status = domain.CourtPending
	h.sources[domain.ServiceTypeCourt] = &racingStore{ReservationStore: inner, rival: rival}

	_, err := h.requests.Submit(as(resident), court("10:00", 2))
	assert.ErrorIs(t, err, domain.ErrConcurrentConflict)
	assert.NotErrorIs(t, err, domain.ErrReservationConflict)

	// A retry sees the rival up front and gets a plain conflict.
	_, err = h.requests.Submit(as(resident), court("10:00", 2))
	assert.ErrorIs(t, err, domain.ErrReservationConflict)
}

func TestSubmit_InvalidWindow(t *testing.T) {
	h := newHarness()
	_, err := h.requests.Submit(as(resident), court("25:00", 1))
	assert.ErrorIs(t, err, domain.ErrInvalidWindow)
}

func TestGet_OwnershipEnforced(t *testing.T) {
	h := newHarness()
	rec := &domain.DocumentRequest{DocumentType: "cedula"}
	_, err := h.requests.Submit(as(resident), rec)
	require.NoError(t, err)

	got, tx, err := h.requests.Get(as(resident), domain.ServiceTypeDocument, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.Meta().ID)
	require.NotNil(t, tx)

	_, _, err = h.requests.Get(as(neighbor), domain.ServiceTypeDocument, rec.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, _, err = h.requests.Get(as(clerk), domain.ServiceTypeDocument, rec.ID)
	assert.NoError(t, err)

	_, _, err = h.requests.Get(as(clerk), domain.ServiceTypeDocument, 404)
	assert.ErrorIs(t, err, domain.ErrSourceNotFound)
}

func TestChangeStatus(t *testing.T) {
	h := newHarness()
	rec := &domain.InfrastructureReport{Category: "streetlight"}
	_, err := h.requests.Submit(as(resident), rec)
	require.NoError(t, err)

	_, err = h.requests.ChangeStatus(as(resident), domain.ServiceTypeReport, rec.ID, domain.ReportResolved, nil)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = h.requests.ChangeStatus(as(clerk), domain.ServiceTypeReport, rec.ID, "resolved", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	comment := "crew dispatched"
	tx, err := h.requests.ChangeStatus(as(clerk), domain.ServiceTypeReport, rec.ID, domain.ReportInProgress, &comment)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, tx.Status)
	require.NotNil(t, tx.ProcessedBy)
	assert.Equal(t, clerk.ID, *tx.ProcessedBy)
	require.NotNil(t, tx.AdminComment)
	assert.Equal(t, comment, *tx.AdminComment)

	tx, err = h.requests.ChangeStatus(as(clerk), domain.ServiceTypeReport, rec.ID, domain.ReportResolved, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, tx.Status)
}

func TestChangeStatus_ReactivationConflict(t *testing.T) {
	h := newHarness()
	first := court("10:00", 2)
	_, err := h.requests.Submit(as(resident), first)
	require.NoError(t, err)

	_, err = h.requests.ChangeStatus(as(clerk), domain.ServiceTypeCourt, first.ID, domain.CourtCancelled, nil)
	require.NoError(t, err)

	second := court("10:00", 2)
	_, err = h.requests.Submit(as(neighbor), second)
	require.NoError(t, err)

	_, err = h.requests.ChangeStatus(as(clerk), domain.ServiceTypeCourt, first.ID, domain.CourtApproved, nil)
	assert.ErrorIs(t, err, domain.ErrReservationConflict)
}

func TestRemove_RetiresLedgerEntry(t *testing.T) {
	h := newHarness()
	rec := &domain.ProjectProposal{Title: "Covered court"}
	tx, err := h.requests.Submit(as(resident), rec)
	require.NoError(t, err)

	_, err = h.requests.Remove(as(resident), domain.ServiceTypeProposal, rec.ID, "duplicate")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	retired, err := h.requests.Remove(as(clerk), domain.ServiceTypeProposal, rec.ID, "duplicate")
	require.NoError(t, err)
	assert.Equal(t, tx.ID, retired.ID)
	assert.Equal(t, domain.StatusCancelled, retired.Status)

	store, err := h.sources.Get(domain.ServiceTypeProposal)
	require.NoError(t, err)
	_, err = store.Load(context.Background(), rec.ID)
	assert.ErrorIs(t, err, domain.ErrSourceNotFound)

	kept, err := h.ledger.FindByID(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, kept.Status)
}

func TestCheckAvailability(t *testing.T) {
	h := newHarness()
	_, err := h.requests.Submit(as(resident), court("10:00", 2))
	require.NoError(t, err)

	ok, err := h.requests.CheckAvailability(as(neighbor), domain.ServiceTypeCourt, "court-a",
		domain.Slot{Date: "2026-05-02", StartTime: "11:30", DurationHours: 1})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = h.requests.CheckAvailability(as(neighbor), domain.ServiceTypeCourt, "court-a",
		domain.Slot{Date: "2026-05-02", StartTime: "12:00", DurationHours: 1})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.requests.CheckAvailability(as(neighbor), domain.ServiceTypeCourt, "court-b",
		domain.Slot{Date: "2026-05-02", StartTime: "10:00", DurationHours: 1})
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = h.requests.CheckAvailability(as(neighbor), domain.ServiceTypeDocument, "x",
		domain.Slot{Date: "2026-05-02", StartTime: "10:00", DurationHours: 1})
	assert.ErrorIs(t, err, domain.ErrUnknownServiceType)

	_, err = h.requests.CheckAvailability(as(neighbor), domain.ServiceTypeCourt, "court-a",
		domain.Slot{Date: "2026-05-02", StartTime: "10:00", DurationHours: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidWindow)
}

func TestLedger_ListScopedToResident(t *testing.T) {
	h := newHarness()
	_, err := h.requests.Submit(as(resident), &domain.DocumentRequest{DocumentType: "cedula"})
	require.NoError(t, err)
	_, err = h.requests.Submit(as(neighbor), &domain.DocumentRequest{DocumentType: "cedula"})
	require.NoError(t, err)

	mine, total, err := h.txs.List(as(resident), domain.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, int32(1), total)
	require.Len(t, mine, 1)
	assert.Equal(t, resident.ID, mine[0].OwnerID)

	// A resident cannot widen the filter to someone else.
	other := neighbor.ID
	mine, _, err = h.txs.List(as(resident), domain.TransactionFilter{OwnerID: &other})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, resident.ID, mine[0].OwnerID)

	all, total, err := h.txs.List(as(clerk), domain.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), total)
	assert.Len(t, all, 2)
}

func TestLedger_GetAndDecide(t *testing.T) {
	h := newHarness()
	booking := court("08:00", 1)
	tx, err := h.requests.Submit(as(resident), booking)
	require.NoError(t, err)

	_, err = h.txs.Get(as(neighbor), tx.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = h.txs.Get(as(clerk), uuid.New())
	assert.ErrorIs(t, err, domain.ErrLedgerNotFound)

	_, err = h.txs.Decide(as(resident), tx.ID, domain.StatusApproved, nil)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	decided, err := h.txs.Decide(as(clerk), tx.ID, domain.StatusApproved, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, decided.Status)

	rec, _, err := h.requests.Get(as(resident), domain.ServiceTypeCourt, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CourtApproved, rec.Meta().Status)
}

func TestLedger_Resync(t *testing.T) {
	h := newHarness()
	store, err := h.sources.Get(domain.ServiceTypeDocument)
	require.NoError(t, err)
	rec := &domain.DocumentRequest{RecordMeta: domain.RecordMeta{OwnerID: resident.ID, Status: domain.DocumentInProgress}}
	require.NoError(t, store.Create(context.Background(), rec))

	_, err = h.txs.Resync(as(resident), domain.ServiceTypeDocument, rec.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	tx, err := h.txs.Resync(as(clerk), domain.ServiceTypeDocument, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, tx.Status)
}
