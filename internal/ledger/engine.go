// Package ledger keeps the canonical Transaction of every service request
// in step with its source record.
//
// The source record is authoritative. SyncFromSource derives the ledger
// entry from it; ApplyDecision is the one path that writes the other way,
// and only for service types with a reverse status mapping.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"service-portal-backend/internal/audit"
	"service-portal-backend/internal/domain"
	"service-portal-backend/internal/locker"
	"service-portal-backend/internal/logger"
	"service-portal-backend/internal/metrics"
	"service-portal-backend/internal/notify"
	"service-portal-backend/internal/repository"
	"service-portal-backend/internal/security"
	"service-portal-backend/internal/statusmap"
)

type Engine struct {
	sources  repository.Sources
	ledger   repository.LedgerRepository
	locker   locker.Locker
	audit    audit.Logger
	notifier notify.Notifier
	metrics  *metrics.Metrics
	amounts  map[domain.ServiceType]decimal.Decimal
	now      func() time.Time
	log      *slog.Logger
}

type Option func(*Engine)

func WithLocker(l locker.Locker) Option { return func(e *Engine) { e.locker = l } }

func WithAudit(a audit.Logger) Option { return func(e *Engine) { e.audit = audit.Safe(a) } }

func WithNotifier(n notify.Notifier) Option { return func(e *Engine) { e.notifier = n } }

func WithMetrics(m *metrics.Metrics) Option { return func(e *Engine) { e.metrics = m } }

// WithDefaultAmounts sets the amount a new entry starts with per service
// type. Types not listed start at zero.
func WithDefaultAmounts(amounts map[domain.ServiceType]decimal.Decimal) Option {
	return func(e *Engine) {
		for st, a := range amounts {
			e.amounts[st] = a
		}
	}
}

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func NewEngine(sources repository.Sources, ledger repository.LedgerRepository, opts ...Option) *Engine {
	e := &Engine{
		sources: sources,
		ledger:  ledger,
		locker:  locker.NewKeyedMutex(),
		audit:   audit.Nop(),
		amounts: make(map[domain.ServiceType]decimal.Decimal),
		now:     time.Now,
		log:     logger.WithComponent("ledger"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SyncFromSource derives the ledger entry of a source record, creating it
// on first sight. Repeating the call with an unchanged source leaves every
// field but UpdatedAt as it was.
func (e *Engine) SyncFromSource(ctx context.Context, st domain.ServiceType, sourceID int32) (tx *domain.Transaction, err error) {
	start := e.now()
	defer func() { e.metrics.ObserveSync(string(st), err, time.Since(start)) }()

	store, err := e.sources.Get(st)
	if err != nil {
		return nil, err
	}
	unlock, err := e.locker.Lock(ctx, locker.NaturalKey(st, sourceID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	tx, _, err = e.syncLocked(ctx, store, sourceID)
	return tx, err
}

// syncLocked must run under the natural-key lock. It also returns the
// loaded source so callers can reach its contact details.
func (e *Engine) syncLocked(ctx context.Context, store repository.SourceStore, sourceID int32) (*domain.Transaction, domain.ServiceRecord, error) {
	st := store.ServiceType()
	log := logger.WithRecord(e.log, string(st), sourceID)

	rec, err := store.Load(ctx, sourceID)
	if err != nil {
		if errors.Is(err, domain.ErrSourceNotFound) {
			return nil, nil, fmt.Errorf("sync %s record %d: %w", st, sourceID, domain.ErrSourceNotFound)
		}
		return nil, nil, fmt.Errorf("load %s record %d: %w", st, sourceID, err)
	}
	meta := rec.Meta()
	status := statusmap.ToCanonical(st, meta.Status)

	existing, err := e.ledger.FindByNaturalKey(ctx, st, sourceID)
	if err != nil {
		return nil, nil, fmt.Errorf("find ledger entry: %w", err)
	}

	if existing == nil {
		tx := &domain.Transaction{
			ID:             uuid.New(),
			OwnerID:        meta.OwnerID,
			ServiceType:    st,
			Status:         status,
			Amount:         e.amounts[st],
			Details:        rec.Details(),
			SourceRecordID: sourceID,
			AdminComment:   meta.AdminComment,
			ProcessedBy:    meta.ProcessedBy,
		}
		tx.CreatedAt = e.now().UTC()
		tx.UpdatedAt = tx.CreatedAt

		err = e.ledger.Insert(ctx, tx)
		if err == nil {
			log.Info("Ledger entry created", "tx_id", tx.ID, "status", tx.Status)
			e.audit.Log(ctx, audit.Entry{
				ActorName:  security.ActorName(ctx),
				ActionCode: audit.ActionLedgerCreated,
				SubjectID:  tx.ID.String(),
				Details:    fmt.Sprintf("%s/%d status=%s", st, sourceID, tx.Status),
			})
			return tx, rec, nil
		}
		if !errors.Is(err, domain.ErrDuplicateKey) {
			return nil, nil, fmt.Errorf("insert ledger entry: %w", err)
		}

		// Another instance inserted first; fold into the update path.
		log.Warn("Ledger insert lost race, updating instead")
		existing, err = e.ledger.FindByNaturalKey(ctx, st, sourceID)
		if err != nil {
			return nil, nil, fmt.Errorf("find ledger entry after conflict: %w", err)
		}
		if existing == nil {
			return nil, nil, fmt.Errorf("ledger entry vanished after duplicate key: %w", domain.ErrLedgerNotFound)
		}
	}

	prev := existing.Status
	existing.Status = status
	existing.Details = rec.Details()
	if meta.AdminComment != nil {
		existing.AdminComment = meta.AdminComment
	}
	if meta.ProcessedBy != nil {
		existing.ProcessedBy = meta.ProcessedBy
	}
	existing.UpdatedAt = e.now().UTC()

	if err := e.ledger.Update(ctx, existing); err != nil {
		return nil, nil, fmt.Errorf("update ledger entry: %w", err)
	}

	if prev != status {
		log.Info("Ledger status changed", "tx_id", existing.ID, "from", prev, "to", status)
		e.audit.Log(ctx, audit.Entry{
			ActorName:  security.ActorName(ctx),
			ActionCode: audit.ActionLedgerSynced,
			SubjectID:  existing.ID.String(),
			Details:    fmt.Sprintf("%s -> %s", prev, status),
		})
		e.notify(ctx, existing, prev, meta.ContactEmail)
	} else {
		log.Debug("Ledger entry refreshed", "tx_id", existing.ID)
	}
	return existing, rec, nil
}

// ApplyDecision records a staff decision on a ledger entry and, for
// reservation types, pushes the mapped status down to the source record.
//
// Reservation types only accept statuses that map back to their own
// vocabulary. The source record is written first: when it refuses the
// decision (slot taken again, record gone) neither side changes. A ledger
// write failing after that leaves a freshly updated record for the
// reconciler to pick up.
func (e *Engine) ApplyDecision(ctx context.Context, txID uuid.UUID, status domain.CanonicalStatus, comment *string, actorID int32) (*domain.Transaction, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}

	tx, err := e.ledger.FindByID(ctx, txID)
	if err != nil {
		return nil, err
	}
	st := tx.ServiceType
	if statusmap.SupportsPushDown(st) {
		if _, ok := statusmap.ToDomain(st, status); !ok {
			return nil, fmt.Errorf("%w: %q has no %s equivalent", domain.ErrInvalidStatus, status, st)
		}
	}

	unlock, err := e.locker.Lock(ctx, locker.NaturalKey(st, tx.SourceRecordID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Reload under the lock so a concurrent sync is not overwritten.
	tx, err = e.ledger.FindByID(ctx, txID)
	if err != nil {
		return nil, err
	}

	log := logger.WithRecord(e.log, string(st), tx.SourceRecordID)
	prev := tx.Status

	email, err := e.pushDown(ctx, st, tx.SourceRecordID, status, comment, actorID)
	if err != nil {
		log.Warn("Decision refused by source record", "tx_id", tx.ID, "status", status, "error", err)
		return nil, err
	}

	actor := actorID
	tx.Status = status
	tx.AdminComment = cloneString(comment)
	tx.ProcessedBy = &actor
	tx.UpdatedAt = e.now().UTC()
	if err := e.ledger.Update(ctx, tx); err != nil {
		return nil, fmt.Errorf("update ledger entry: %w", err)
	}
	e.metrics.RecordDecision(string(st), string(status))
	e.audit.Log(ctx, audit.Entry{
		ActorName:  security.ActorName(ctx),
		ActionCode: audit.ActionLedgerDecision,
		SubjectID:  tx.ID.String(),
		Details:    fmt.Sprintf("%s -> %s by %d", prev, status, actorID),
	})
	log.Info("Ledger decision applied", "tx_id", tx.ID, "from", prev, "to", status, "actor", actorID)

	if prev != status {
		e.notify(ctx, tx, prev, email)
	}
	return tx, nil
}

// pushDown writes a decision to the source record. It returns the record's
// contact email when the record was loaded.
func (e *Engine) pushDown(ctx context.Context, st domain.ServiceType, sourceID int32, status domain.CanonicalStatus, comment *string, actorID int32) (string, error) {
	domainStatus, ok := statusmap.ToDomain(st, status)
	if !ok {
		e.metrics.RecordPushDown(string(st), true, nil)
		return e.contactEmail(ctx, st, sourceID), nil
	}

	store, err := e.sources.Get(st)
	if err != nil {
		e.metrics.RecordPushDown(string(st), false, err)
		return "", err
	}
	rec, err := store.Load(ctx, sourceID)
	if err != nil {
		e.metrics.RecordPushDown(string(st), false, err)
		return "", fmt.Errorf("push %s to %s record %d: %w", domainStatus, st, sourceID, err)
	}

	// Source writes here never trigger a sync; the ledger write that
	// follows completes the pair.
	rec.Meta().ApplyDecision(domainStatus, comment, actorID)
	err = store.Save(ctx, rec)
	e.metrics.RecordPushDown(string(st), false, err)
	if err != nil {
		return "", fmt.Errorf("push %s to %s record %d: %w", domainStatus, st, sourceID, err)
	}
	return rec.Meta().ContactEmail, nil
}

// RetireForDeletion moves the entry of a source record that is about to be
// deleted to a terminal status. Entries already in a terminal status keep
// it and only take the comment. An entry is created first if the record
// was never synced.
func (e *Engine) RetireForDeletion(ctx context.Context, st domain.ServiceType, sourceID int32, comment string, actorID int32) (*domain.Transaction, error) {
	store, err := e.sources.Get(st)
	if err != nil {
		return nil, err
	}
	unlock, err := e.locker.Lock(ctx, locker.NaturalKey(st, sourceID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	tx, err := e.ledger.FindByNaturalKey(ctx, st, sourceID)
	if err != nil {
		return nil, fmt.Errorf("find ledger entry: %w", err)
	}
	if tx == nil {
		if tx, _, err = e.syncLocked(ctx, store, sourceID); err != nil {
			return nil, err
		}
	}

	prev := tx.Status
	if !tx.Status.IsTerminal() {
		tx.Status = domain.StatusCancelled
	}
	actor := actorID
	tx.AdminComment = &comment
	tx.ProcessedBy = &actor
	tx.UpdatedAt = e.now().UTC()
	if err := e.ledger.Update(ctx, tx); err != nil {
		return nil, fmt.Errorf("update ledger entry: %w", err)
	}

	e.audit.Log(ctx, audit.Entry{
		ActorName:  security.ActorName(ctx),
		ActionCode: audit.ActionLedgerRetired,
		SubjectID:  tx.ID.String(),
		Details:    fmt.Sprintf("%s/%d %s -> %s: %s", st, sourceID, prev, tx.Status, comment),
	})
	logger.WithRecord(e.log, string(st), sourceID).Info("Ledger entry retired", "tx_id", tx.ID, "status", tx.Status)
	return tx, nil
}

func (e *Engine) contactEmail(ctx context.Context, st domain.ServiceType, sourceID int32) string {
	if e.notifier == nil {
		return ""
	}
	store, err := e.sources.Get(st)
	if err != nil {
		return ""
	}
	rec, err := store.Load(ctx, sourceID)
	if err != nil {
		return ""
	}
	return rec.Meta().ContactEmail
}

func (e *Engine) notify(ctx context.Context, tx *domain.Transaction, from domain.CanonicalStatus, email string) {
	if e.notifier == nil || email == "" {
		return
	}
	err := e.notifier.StatusChanged(ctx, notify.StatusChange{
		Email:          email,
		ServiceType:    tx.ServiceType,
		SourceRecordID: tx.SourceRecordID,
		From:           from,
		To:             tx.Status,
		Comment:        tx.AdminComment,
	})
	if err != nil {
		e.log.Warn("Status notification failed", "tx_id", tx.ID, "error", err)
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
