package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"service-portal-backend/internal/domain"
	"service-portal-backend/internal/logger"
	"service-portal-backend/internal/repository"
)

// column is a type-specific column; sel is the expression used when
// reading it back (dates and times are read as text).
type column struct {
	name string
	sel  string
}

func col(name string) column { return column{name: name, sel: name} }

// recordTable describes how one record type maps onto its table.
type recordTable struct {
	st       domain.ServiceType
	name     string
	columns  []column
	resource string // reservation tables only
	values   func(domain.ServiceRecord) []any
	dests    func(domain.ServiceRecord) []any
}

const commonColumns = "id, owner_id, status, processed_by, admin_comment, contact_email, created_on, updated_on"

func (t recordTable) selectList() string {
	sels := make([]string, len(t.columns))
	for i, c := range t.columns {
		sels[i] = c.sel
	}
	return commonColumns + ", " + strings.Join(sels, ", ")
}

func (t recordTable) insertQuery() string {
	names := []string{"owner_id", "status", "processed_by", "admin_comment", "contact_email", "created_on", "updated_on"}
	for _, c := range t.columns {
		names = append(names, c.name)
	}
	params := make([]string, len(names))
	for i := range names {
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		t.name, strings.Join(names, ", "), strings.Join(params, ", "))
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scan reads one row produced by selectList.
func (t recordTable) scan(row rowScanner) (domain.ServiceRecord, error) {
	rec, err := domain.NewRecord(t.st)
	if err != nil {
		return nil, err
	}
	m := rec.Meta()
	var (
		processedBy  sql.NullInt32
		adminComment sql.NullString
		contactEmail sql.NullString
	)
	dest := append([]any{&m.ID, &m.OwnerID, &m.Status, &processedBy, &adminComment, &contactEmail, &m.CreatedOn, &m.UpdatedOn},
		t.dests(rec)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if processedBy.Valid {
		v := processedBy.Int32
		m.ProcessedBy = &v
	}
	if adminComment.Valid {
		v := adminComment.String
		m.AdminComment = &v
	}
	m.ContactEmail = contactEmail.String
	return rec, nil
}

// typed adapts a per-type field function; it returns nil for records of
// another type.
func typed[T domain.ServiceRecord](f func(T) []any) func(domain.ServiceRecord) []any {
	return func(rec domain.ServiceRecord) []any {
		v, ok := rec.(T)
		if !ok {
			return nil
		}
		return f(v)
	}
}

type sourceRepository struct {
	db *sql.DB
	t  recordTable
}

func NewSourceRepository(db *sql.DB, t recordTable) repository.SourceStore {
	return &sourceRepository{db: db, t: t}
}

func (r *sourceRepository) ServiceType() domain.ServiceType { return r.t.st }

func (r *sourceRepository) Load(ctx context.Context, id int32) (domain.ServiceRecord, error) {
	return r.load(ctx, r.db, id, false)
}

func (r *sourceRepository) load(ctx context.Context, q queryer, id int32, forUpdate bool) (domain.ServiceRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", r.t.selectList(), r.t.name)
	if forUpdate {
		query += " FOR UPDATE"
	}
	rec, err := r.t.scan(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s %d: %w", r.t.st, id, err)
	}
	return rec, nil
}

func (r *sourceRepository) Create(ctx context.Context, rec domain.ServiceRecord) error {
	return r.insert(ctx, r.db, rec)
}

func (r *sourceRepository) insert(ctx context.Context, q queryer, rec domain.ServiceRecord) error {
	if rec.ServiceType() != r.t.st {
		return domain.ErrRecordTypeMismatch
	}
	fields := r.t.values(rec)
	if fields == nil {
		return domain.ErrRecordTypeMismatch
	}
	m := rec.Meta()
	now := time.Now().UTC()
	args := append([]any{m.OwnerID, m.Status, m.ProcessedBy, m.AdminComment, m.ContactEmail, now, now}, fields...)

	query := r.t.insertQuery()
	logger.DatabaseCall("insert", r.t.name, "owner_id", m.OwnerID)
	if err := q.QueryRowContext(ctx, query, args...).Scan(&m.ID); err != nil {
		err = mapError(err)
		logger.DatabaseResult("insert", 0, err, "table", r.t.name)
		return err
	}
	m.CreatedOn, m.UpdatedOn = now, now
	logger.DatabaseResult("insert", 1, nil, "table", r.t.name, "id", m.ID)
	return nil
}

func (r *sourceRepository) Save(ctx context.Context, rec domain.ServiceRecord) error {
	if rec.ServiceType() != r.t.st {
		return domain.ErrRecordTypeMismatch
	}
	return r.save(ctx, r.db, rec.Meta())
}

func (r *sourceRepository) save(ctx context.Context, q queryer, m *domain.RecordMeta) error {
	now := time.Now().UTC()
	query := fmt.Sprintf("UPDATE %s SET status = $1, processed_by = $2, admin_comment = $3, updated_on = $4 WHERE id = $5", r.t.name)
	result, err := q.ExecContext(ctx, query, m.Status, m.ProcessedBy, m.AdminComment, now, m.ID)
	if err != nil {
		return mapError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrSourceNotFound
	}
	m.UpdatedOn = now
	return nil
}

func (r *sourceRepository) Delete(ctx context.Context, id int32) error {
	result, err := r.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", r.t.name), id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrSourceNotFound
	}
	return nil
}

func (r *sourceRepository) ListUpdatedSince(ctx context.Context, since time.Time) ([]int32, error) {
	query := fmt.Sprintf("SELECT id FROM %s WHERE updated_on >= $1 ORDER BY id", r.t.name)
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int32
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
