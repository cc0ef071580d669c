package postgres

import (
	"context"
	"database/sql"

	"service-portal-backend/internal/audit"
)

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) InsertAudit(ctx context.Context, e audit.Entry) error {
	query := `INSERT INTO audit_logs (actor_name, action_code, subject_id, details, created_at)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, e.ActorName, e.ActionCode, e.SubjectID, e.Details, e.CreatedAt)
	return err
}

var _ audit.Store = (*AuditRepository)(nil)
