package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"service-portal-backend/internal/booking"
	"service-portal-backend/internal/domain"
	"service-portal-backend/internal/logger"
	"service-portal-backend/internal/repository"
)

// reservationRepository guards every booking write with a transaction-scoped
// advisory lock on the reserved resource, re-reads the blocking rows inside
// the transaction and decides with booking.CheckSlot. The table's exclusion
// constraint catches anything that slips past the lock.
type reservationRepository struct {
	*sourceRepository
	blocking booking.BlockingSet
}

func NewReservationRepository(db *sql.DB, t recordTable) repository.ReservationStore {
	return &reservationRepository{
		sourceRepository: &sourceRepository{db: db, t: t},
		blocking:         booking.Blocking(t.st),
	}
}

func (r *reservationRepository) lockResource(ctx context.Context, tx *sql.Tx, resource string) error {
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, r.t.name+":"+resource)
	return err
}

func (r *reservationRepository) Reserve(ctx context.Context, rec domain.Reservable) error {
	if rec.ServiceType() != r.t.st {
		return domain.ErrRecordTypeMismatch
	}
	if _, err := booking.ParseWindow(rec.Reservation()); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := r.lockResource(ctx, tx, rec.ResourceKey()); err != nil {
		return err
	}
	if err := r.check(ctx, tx, rec, 0); err != nil {
		return err
	}
	if err := r.insert(ctx, tx, rec); err != nil {
		return err
	}
	return mapError(tx.Commit())
}

// Save rechecks the slot when the new status makes a dormant reservation
// block again.
func (r *reservationRepository) Save(ctx context.Context, rec domain.ServiceRecord) error {
	if rec.ServiceType() != r.t.st {
		return domain.ErrRecordTypeMismatch
	}
	m := rec.Meta()
	if !r.blocking.Blocks(m.Status) {
		return r.save(ctx, r.db, m)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	cur, err := r.load(ctx, tx, m.ID, true)
	if err != nil {
		return err
	}
	if !r.blocking.Blocks(cur.Meta().Status) {
		res := cur.(domain.Reservable)
		if err := r.lockResource(ctx, tx, res.ResourceKey()); err != nil {
			return err
		}
		if err := r.check(ctx, tx, res, m.ID); err != nil {
			return err
		}
	}
	if err := r.save(ctx, tx, m); err != nil {
		return err
	}
	return mapError(tx.Commit())
}

func (r *reservationRepository) check(ctx context.Context, q queryer, rec domain.Reservable, skipID int32) error {
	rows, err := r.overlapping(ctx, q, rec.ResourceKey(), rec.Reservation())
	if err != nil {
		return err
	}
	existing := make([]domain.Reservable, 0, len(rows))
	for _, row := range rows {
		if row.Meta().ID != skipID {
			existing = append(existing, row)
		}
	}
	conflict, err := booking.CheckSlot(rec.Reservation(), booking.ExistingFrom(existing), r.blocking)
	if err != nil {
		return err
	}
	if conflict {
		logger.Info("Reservation rejected", "table", r.t.name, "resource", rec.ResourceKey())
		return domain.ErrReservationConflict
	}
	return nil
}

func (r *reservationRepository) ListOverlapping(ctx context.Context, resource string, slot domain.Slot) ([]domain.Reservable, error) {
	return r.overlapping(ctx, r.db, resource, slot)
}

// overlapping prefilters with the range operator; the caller still
// decides with booking.CheckSlot.
func (r *reservationRepository) overlapping(ctx context.Context, q queryer, resource string, slot domain.Slot) ([]domain.Reservable, error) {
	w, err := booking.ParseWindow(slot)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE %s = $1 AND status = ANY($2) AND during && tsrange($3::timestamp, $4::timestamp, '[)')
		ORDER BY id`, r.t.selectList(), r.t.name, r.t.resource)

	logger.DatabaseCall("select", r.t.name, "resource", resource, "window", w.String())
	rows, err := q.QueryContext(ctx, query, resource, pq.Array(booking.BlockingStatuses(r.t.st)), w.Start, w.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Reservable
	for rows.Next() {
		rec, err := r.t.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec.(domain.Reservable))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.DatabaseResult("select", int64(len(out)), nil, "table", r.t.name)
	return out, nil
}
