package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"service-portal-backend/internal/domain"
	"service-portal-backend/internal/service"
)

// RequestHandler serves the record endpoints of all service types.
type RequestHandler struct {
	requestSvc service.RequestService
}

func NewRequestHandler(requestSvc service.RequestService) *RequestHandler {
	return &RequestHandler{requestSvc: requestSvc}
}

type recordResponse struct {
	Record      domain.ServiceRecord `json:"record"`
	Transaction *domain.Transaction  `json:"transaction,omitempty"`
}

type statusChangeRequest struct {
	Status  string  `json:"status"`
	Comment *string `json:"comment"`
}

type removeRequest struct {
	Comment string `json:"comment"`
}

type availabilityResponse struct {
	ServiceType domain.ServiceType `json:"service_type"`
	Resource    string             `json:"resource"`
	Slot        domain.Slot        `json:"slot"`
	Available   bool               `json:"available"`
}

func serviceTypeVar(r *http.Request) (domain.ServiceType, error) {
	st := domain.ServiceType(mux.Vars(r)["type"])
	if _, err := domain.NewRecord(st); err != nil {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownServiceType, st)
	}
	return st, nil
}

func int32Var(r *http.Request, name string) (int32, error) {
	v, err := strconv.ParseInt(mux.Vars(r)[name], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errInvalidInput, name)
	}
	return int32(v), nil
}

func (h *RequestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	st, err := serviceTypeVar(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, _ := domain.NewRecord(st)
	if err := decodeJSON(r, rec); err != nil {
		writeError(w, r, err)
		return
	}

	tx, err := h.requestSvc.Submit(r.Context(), rec)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, recordResponse{Record: rec, Transaction: tx})
}

func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := serviceTypeVar(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := int32Var(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	rec, tx, err := h.requestSvc.Get(r.Context(), st, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recordResponse{Record: rec, Transaction: tx})
}

func (h *RequestHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	st, err := serviceTypeVar(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := int32Var(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req statusChangeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	tx, err := h.requestSvc.ChangeStatus(r.Context(), st, id, req.Status, req.Comment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// Remove takes an optional JSON body with the retirement comment.
func (h *RequestHandler) Remove(w http.ResponseWriter, r *http.Request) {
	st, err := serviceTypeVar(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := int32Var(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req removeRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, err)
		return
	}
	if req.Comment == "" {
		req.Comment = "record removed"
	}

	tx, err := h.requestSvc.Remove(r.Context(), st, id, req.Comment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// Availability reads resource, date, start_time and duration_hours from
// the query string.
func (h *RequestHandler) Availability(w http.ResponseWriter, r *http.Request) {
	st, err := serviceTypeVar(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	resource := q.Get("resource")
	if resource == "" {
		writeError(w, r, fmt.Errorf("%w: resource is required", errInvalidInput))
		return
	}
	hours, err := strconv.ParseFloat(q.Get("duration_hours"), 64)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: duration_hours must be a number", domain.ErrInvalidWindow))
		return
	}
	slot := domain.Slot{Date: q.Get("date"), StartTime: q.Get("start_time"), DurationHours: hours}

	ok, err := h.requestSvc.CheckAvailability(r.Context(), st, resource, slot)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, availabilityResponse{ServiceType: st, Resource: resource, Slot: slot, Available: ok})
}
