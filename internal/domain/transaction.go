package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Details is a denormalised snapshot of the source record kept on the
// ledger entry for display without a join.
type Details map[string]any

// Transaction is the canonical ledger entry for one service request.
// (ServiceType, SourceRecordID) is its natural key.
type Transaction struct {
	ID             uuid.UUID       `json:"id"`
	OwnerID        int32           `json:"owner_id"`
	ServiceType    ServiceType     `json:"service_type"`
	Status         CanonicalStatus `json:"status"`
	Amount         decimal.Decimal `json:"amount"`
	Details        Details         `json:"details"`
	SourceRecordID int32           `json:"source_record_id"`
	AdminComment   *string         `json:"admin_comment,omitempty"`
	ProcessedBy    *int32          `json:"processed_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (t *Transaction) Clone() *Transaction {
	c := *t
	c.AdminComment = cloneString(t.AdminComment)
	c.ProcessedBy = cloneInt32(t.ProcessedBy)
	if t.Details != nil {
		c.Details = make(Details, len(t.Details))
		for k, v := range t.Details {
			c.Details[k] = v
		}
	}
	return &c
}

// TransactionFilter narrows ledger listings. Zero values match everything.
type TransactionFilter struct {
	OwnerID     *int32
	ServiceType ServiceType
	Status      CanonicalStatus
	Page        int32
	PageSize    int32
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneInt32(i *int32) *int32 {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Limit returns the LIMIT and OFFSET for the filter, page numbers start at 1.
func (f TransactionFilter) Limit() (limit, offset int32) {
	size := f.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	return size, (page - 1) * size
}
