package domain

import "errors"

var (
	// Ledger errors
	ErrSourceNotFound = errors.New("source record not found")
	ErrLedgerNotFound = errors.New("transaction not found")
	ErrDuplicateKey   = errors.New("transaction already exists for source record")

	// Reservation errors
	ErrInvalidWindow       = errors.New("invalid reservation window")
	ErrReservationConflict = errors.New("requested slot overlaps an existing reservation")
	ErrConcurrentConflict  = errors.New("slot was taken concurrently, retry")

	// Request errors
	ErrUnknownServiceType = errors.New("unknown service type")
	ErrInvalidStatus      = errors.New("status not valid for service type")
	ErrRecordTypeMismatch = errors.New("record does not match store type")
	ErrForbidden          = errors.New("action not allowed for caller")
)
