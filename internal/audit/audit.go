// Package audit records staff and system actions. Recording is best effort:
// a failing audit sink never fails the operation being audited.
package audit

import (
	"context"
	"time"

	"service-portal-backend/internal/logger"
)

// Action codes written by the ledger engine and request service.
const (
	ActionLedgerCreated   = "ledger.created"
	ActionLedgerSynced    = "ledger.synced"
	ActionLedgerDecision  = "ledger.decision"
	ActionLedgerRetired   = "ledger.retired"
	ActionRecordSubmitted = "record.submitted"
	ActionRecordStatus    = "record.status_changed"
	ActionRecordDeleted   = "record.deleted"
)

type Entry struct {
	ActorName  string
	ActionCode string
	Details    string
	SubjectID  string
	CreatedAt  time.Time
}

// Logger never returns an error; implementations swallow their failures.
type Logger interface {
	Log(ctx context.Context, e Entry)
}

// Store persists entries, see the postgres audit repository.
type Store interface {
	InsertAudit(ctx context.Context, e Entry) error
}

type storeLogger struct {
	store Store
	now   func() time.Time
}

// NewStoreLogger writes entries to store and logs anything that goes wrong.
func NewStoreLogger(store Store) Logger {
	return &storeLogger{store: store, now: time.Now}
}

func (l *storeLogger) Log(ctx context.Context, e Entry) {
	defer recoverAndWarn(e)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = l.now().UTC()
	}
	if err := l.store.InsertAudit(ctx, e); err != nil {
		logger.Warn("Audit write failed", "action", e.ActionCode, "subject", e.SubjectID, "error", err)
	}
}

type slogLogger struct{}

// NewSlogLogger writes entries to the application log only. Used with the
// memory driver.
func NewSlogLogger() Logger { return slogLogger{} }

func (slogLogger) Log(ctx context.Context, e Entry) {
	logger.WithComponent("audit").InfoContext(ctx, "Audit",
		"actor", e.ActorName, "action", e.ActionCode, "subject", e.SubjectID, "details", e.Details)
}

// Safe wraps any Logger so a panic inside it is logged and dropped.
func Safe(l Logger) Logger {
	if l == nil {
		return Nop()
	}
	return safeLogger{next: l}
}

type safeLogger struct{ next Logger }

func (s safeLogger) Log(ctx context.Context, e Entry) {
	defer recoverAndWarn(e)
	s.next.Log(ctx, e)
}

type nop struct{}

func Nop() Logger { return nop{} }

func (nop) Log(context.Context, Entry) {}

func recoverAndWarn(e Entry) {
	if r := recover(); r != nil {
		logger.Error("Audit logger panicked", "action", e.ActionCode, "subject", e.SubjectID, "panic", r)
	}
}
