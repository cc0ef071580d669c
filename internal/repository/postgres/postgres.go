package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"service-portal-backend/internal/domain"
	"service-portal-backend/internal/repository"
)

// Store bundles the postgres implementations behind the repository
// interfaces.
type Store struct {
	db *sql.DB
	repository.LedgerRepository
	Audit   *AuditRepository
	Sources repository.Sources
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:               db,
		LedgerRepository: NewLedgerRepository(db),
		Audit:            NewAuditRepository(db),
		Sources: repository.NewSources(
			NewReservationRepository(db, dispatchTable),
			NewReservationRepository(db, courtTable),
			NewSourceRepository(db, documentTable),
			NewSourceRepository(db, reportTable),
			NewSourceRepository(db, proposalTable),
			NewSourceRepository(db, registrationTable),
		),
	}
}

// Ping reports whether the database is reachable; used by the health check.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const (
	pqUniqueViolation    = "23505"
	pqExclusionViolation = "23P01"
)

// mapError turns constraint violations into domain errors.
func mapError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqUniqueViolation:
		return fmt.Errorf("%w: %s", domain.ErrDuplicateKey, pqErr.Constraint)
	case pqExclusionViolation:
		return fmt.Errorf("%w: %s", domain.ErrConcurrentConflict, pqErr.Constraint)
	}
	return err
}
