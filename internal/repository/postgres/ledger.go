package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"service-portal-backend/internal/domain"
	"service-portal-backend/internal/repository"
)

type ledgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) repository.LedgerRepository {
	return &ledgerRepository{db: db}
}

const ledgerColumns = `id, owner_id, service_type, status, amount, details, source_record_id,
	admin_comment, processed_by, created_at, updated_at`

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var (
		tx           domain.Transaction
		details      []byte
		adminComment sql.NullString
		processedBy  sql.NullInt32
	)
	err := row.Scan(&tx.ID, &tx.OwnerID, &tx.ServiceType, &tx.Status, &tx.Amount, &details, &tx.SourceRecordID,
		&adminComment, &processedBy, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &tx.Details); err != nil {
			return nil, fmt.Errorf("decode details of %s: %w", tx.ID, err)
		}
	}
	if adminComment.Valid {
		v := adminComment.String
		tx.AdminComment = &v
	}
	if processedBy.Valid {
		v := processedBy.Int32
		tx.ProcessedBy = &v
	}
	return &tx, nil
}

func encodeDetails(d domain.Details) (string, error) {
	if d == nil {
		return "{}", nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("encode details: %w", err)
	}
	return string(b), nil
}

func (r *ledgerRepository) FindByNaturalKey(ctx context.Context, st domain.ServiceType, sourceID int32) (*domain.Transaction, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_transactions WHERE service_type = $1 AND source_record_id = $2`
	tx, err := scanTransaction(r.db.QueryRowContext(ctx, query, st, sourceID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return tx, err
}

func (r *ledgerRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_transactions WHERE id = $1`
	tx, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrLedgerNotFound
	}
	return tx, err
}

func (r *ledgerRepository) Insert(ctx context.Context, tx *domain.Transaction) error {
	details, err := encodeDetails(tx.Details)
	if err != nil {
		return err
	}
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	query := `INSERT INTO ledger_transactions (` + ledgerColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = r.db.ExecContext(ctx, query, tx.ID, tx.OwnerID, tx.ServiceType, tx.Status, tx.Amount, details,
		tx.SourceRecordID, tx.AdminComment, tx.ProcessedBy, tx.CreatedAt, tx.UpdatedAt)
	return mapError(err)
}

// Update rewrites the mutable fields; the natural key and creation time
// never change.
func (r *ledgerRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	details, err := encodeDetails(tx.Details)
	if err != nil {
		return err
	}
	query := `UPDATE ledger_transactions
	          SET status = $1, amount = $2, details = $3, admin_comment = $4, processed_by = $5, updated_at = $6
	          WHERE id = $7`
	result, err := r.db.ExecContext(ctx, query, tx.Status, tx.Amount, details, tx.AdminComment, tx.ProcessedBy, tx.UpdatedAt, tx.ID)
	if err != nil {
		return mapError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrLedgerNotFound
	}
	return nil
}

func (r *ledgerRepository) List(ctx context.Context, f domain.TransactionFilter) ([]domain.Transaction, int32, error) {
	var (
		conds []string
		args  []any
	)
	if f.OwnerID != nil {
		args = append(args, *f.OwnerID)
		conds = append(conds, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if f.ServiceType != "" {
		args = append(args, f.ServiceType)
		conds = append(conds, fmt.Sprintf("service_type = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM ledger_transactions`+where, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	limit, offset := f.Limit()
	query := fmt.Sprintf(`SELECT %s FROM ledger_transactions%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		ledgerColumns, where, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	txs := []domain.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		txs = append(txs, *tx)
	}
	return txs, count, rows.Err()
}
