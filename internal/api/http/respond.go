package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"service-portal-backend/internal/domain"
	"service-portal-backend/internal/logger"
)

// errInvalidInput marks request decoding failures.
var errInvalidInput = errors.New("invalid input")

// retryAfterSeconds is sent with ErrConcurrentConflict.
const retryAfterSeconds = "1"

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrConcurrentConflict),
		errors.Is(err, domain.ErrReservationConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSourceNotFound),
		errors.Is(err, domain.ErrLedgerNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errInvalidInput),
		errors.Is(err, domain.ErrInvalidWindow),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrUnknownServiceType),
		errors.Is(err, domain.ErrRecordTypeMismatch):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	if errors.Is(err, domain.ErrConcurrentConflict) {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}
	writeJSON(w, code, errorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Join(errInvalidInput, err)
	}
	return nil
}
