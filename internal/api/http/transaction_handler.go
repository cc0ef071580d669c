package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"service-portal-backend/internal/domain"
	"service-portal-backend/internal/service"
)

// TransactionHandler serves the ledger endpoints.
type TransactionHandler struct {
	ledgerSvc service.LedgerService
}

func NewTransactionHandler(ledgerSvc service.LedgerService) *TransactionHandler {
	return &TransactionHandler{ledgerSvc: ledgerSvc}
}

type listResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
	TotalCount   int32                `json:"total_count"`
	Page         int32                `json:"page"`
	PageSize     int32                `json:"page_size"`
}

type decisionRequest struct {
	Status  domain.CanonicalStatus `json:"status"`
	Comment *string                `json:"comment"`
}

type syncRequest struct {
	ServiceType    domain.ServiceType `json:"service_type"`
	SourceRecordID int32              `json:"source_record_id"`
}

func txIDVar(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: id must be a uuid", errInvalidInput)
	}
	return id, nil
}

func queryInt32(r *http.Request, name string) (int32, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s must be an integer", errInvalidInput, name)
	}
	return int32(v), true, nil
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.TransactionFilter{
		ServiceType: domain.ServiceType(q.Get("service_type")),
		Status:      domain.CanonicalStatus(q.Get("status")),
	}
	if filter.ServiceType != "" && !filter.ServiceType.IsValid() {
		writeError(w, r, fmt.Errorf("%w: %q", domain.ErrUnknownServiceType, filter.ServiceType))
		return
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		writeError(w, r, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, filter.Status))
		return
	}

	owner, ok, err := queryInt32(r, "owner_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if ok {
		filter.OwnerID = &owner
	}
	if filter.Page, _, err = queryInt32(r, "page"); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.PageSize, _, err = queryInt32(r, "page_size"); err != nil {
		writeError(w, r, err)
		return
	}

	txs, total, err := h.ledgerSvc.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	limit, offset := filter.Limit()
	writeJSON(w, http.StatusOK, listResponse{
		Transactions: txs,
		TotalCount:   total,
		Page:         offset/limit + 1,
		PageSize:     limit,
	})
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := txIDVar(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := h.ledgerSvc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (h *TransactionHandler) Decide(w http.ResponseWriter, r *http.Request) {
	id, err := txIDVar(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req decisionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	tx, err := h.ledgerSvc.Decide(r.Context(), id, req.Status, req.Comment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (h *TransactionHandler) Sync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := h.ledgerSvc.Resync(r.Context(), req.ServiceType, req.SourceRecordID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}
