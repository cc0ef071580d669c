package domain

import "time"

// RecordMeta holds the status-relevant fields every service record carries.
// The ledger engine only ever reads and writes these.
type RecordMeta struct {
	ID           int32     `json:"id"`
	OwnerID      int32     `json:"owner_id"`
	Status       string    `json:"status"`
	ProcessedBy  *int32    `json:"processed_by,omitempty"`
	AdminComment *string   `json:"admin_comment,omitempty"`
	ContactEmail string    `json:"contact_email,omitempty"`
	CreatedOn    time.Time `json:"created_on"`
	UpdatedOn    time.Time `json:"updated_on"`
}

// Meta returns the embedded metadata so records satisfy ServiceRecord.
func (m *RecordMeta) Meta() *RecordMeta { return m }

// ApplyDecision records a staff action on the record.
func (m *RecordMeta) ApplyDecision(status string, comment *string, actorID int32) {
	m.Status = status
	m.AdminComment = cloneString(comment)
	actor := actorID
	m.ProcessedBy = &actor
}

func (m RecordMeta) clone() RecordMeta {
	m.ProcessedBy = cloneInt32(m.ProcessedBy)
	m.AdminComment = cloneString(m.AdminComment)
	return m
}

// ServiceRecord is the capability shared by the six request types.
type ServiceRecord interface {
	ServiceType() ServiceType
	Meta() *RecordMeta
	// Details is the fixed projection copied onto the ledger entry.
	Details() Details
}

// Slot is a reservation window as entered by the resident.
type Slot struct {
	Date          string  `json:"date"`       // YYYY-MM-DD
	StartTime     string  `json:"start_time"` // HH:MM or HH:MM:SS
	DurationHours float64 `json:"duration_hours"`
}

// Reservable records hold a finite resource over a time window.
type Reservable interface {
	ServiceRecord
	// ResourceKey identifies the reserved resource (vehicle, court).
	ResourceKey() string
	Reservation() Slot
}
