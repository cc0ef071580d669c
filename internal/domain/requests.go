package domain

import "github.com/shopspring/decimal"

// DispatchRequest asks for an ambulance to be dispatched for a window.
type DispatchRequest struct {
	RecordMeta
	VehicleID     string `json:"vehicle_id"`
	PatientName   string `json:"patient_name"`
	PickupAddress string `json:"pickup_address"`
	Destination   string `json:"destination"`
	Purpose       string `json:"purpose"`
	Slot
}

func (r *DispatchRequest) ServiceType() ServiceType { return ServiceTypeDispatch }
func (r *DispatchRequest) ResourceKey() string      { return r.VehicleID }
func (r *DispatchRequest) Reservation() Slot        { return r.Slot }

func (r *DispatchRequest) Details() Details {
	return Details{
		"vehicle_id":     r.VehicleID,
		"patient_name":   r.PatientName,
		"pickup_address": r.PickupAddress,
		"destination":    r.Destination,
		"purpose":        r.Purpose,
		"date":           r.Date,
		"start_time":     r.StartTime,
		"duration_hours": r.DurationHours,
	}
}

func (r *DispatchRequest) Clone() *DispatchRequest {
	c := *r
	c.RecordMeta = r.RecordMeta.clone()
	return &c
}

// CourtBooking reserves a sports court.
type CourtBooking struct {
	RecordMeta
	CourtID      string `json:"court_id"`
	Purpose      string `json:"purpose"`
	Participants int32  `json:"participants"`
	Slot
}

func (r *CourtBooking) ServiceType() ServiceType { return ServiceTypeCourt }
func (r *CourtBooking) ResourceKey() string      { return r.CourtID }
func (r *CourtBooking) Reservation() Slot        { return r.Slot }

func (r *CourtBooking) Details() Details {
	return Details{
		"court_id":       r.CourtID,
		"purpose":        r.Purpose,
		"participants":   r.Participants,
		"date":           r.Date,
		"start_time":     r.StartTime,
		"duration_hours": r.DurationHours,
	}
}

func (r *CourtBooking) Clone() *CourtBooking {
	c := *r
	c.RecordMeta = r.RecordMeta.clone()
	return &c
}

// DocumentRequest asks the municipality to issue a document.
type DocumentRequest struct {
	RecordMeta
	DocumentType string `json:"document_type"`
	Purpose      string `json:"purpose"`
	Copies       int32  `json:"copies"`
}

func (r *DocumentRequest) ServiceType() ServiceType { return ServiceTypeDocument }

func (r *DocumentRequest) Details() Details {
	return Details{
		"document_type": r.DocumentType,
		"purpose":       r.Purpose,
		"copies":        r.Copies,
	}
}

func (r *DocumentRequest) Clone() *DocumentRequest {
	c := *r
	c.RecordMeta = r.RecordMeta.clone()
	return &c
}

// InfrastructureReport flags a problem with public infrastructure.
type InfrastructureReport struct {
	RecordMeta
	Category    string `json:"category"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

func (r *InfrastructureReport) ServiceType() ServiceType { return ServiceTypeReport }

func (r *InfrastructureReport) Details() Details {
	return Details{
		"category":    r.Category,
		"location":    r.Location,
		"description": r.Description,
	}
}

func (r *InfrastructureReport) Clone() *InfrastructureReport {
	c := *r
	c.RecordMeta = r.RecordMeta.clone()
	return &c
}

// ProjectProposal is a resident-submitted community project.
type ProjectProposal struct {
	RecordMeta
	Title           string          `json:"title"`
	Summary         string          `json:"summary"`
	EstimatedBudget decimal.Decimal `json:"estimated_budget"`
}

func (r *ProjectProposal) ServiceType() ServiceType { return ServiceTypeProposal }

func (r *ProjectProposal) Details() Details {
	return Details{
		"title":            r.Title,
		"summary":          r.Summary,
		"estimated_budget": r.EstimatedBudget.StringFixed(2),
	}
}

func (r *ProjectProposal) Clone() *ProjectProposal {
	c := *r
	c.RecordMeta = r.RecordMeta.clone()
	return &c
}

// Registration is an entry in the resident registry.
type Registration struct {
	RecordMeta
	FullName    string `json:"full_name"`
	Address     string `json:"address"`
	BirthDate   string `json:"birth_date"`
	HouseholdNo string `json:"household_no"`
}

func (r *Registration) ServiceType() ServiceType { return ServiceTypeRegistration }

func (r *Registration) Details() Details {
	return Details{
		"full_name":    r.FullName,
		"address":      r.Address,
		"birth_date":   r.BirthDate,
		"household_no": r.HouseholdNo,
	}
}

func (r *Registration) Clone() *Registration {
	c := *r
	c.RecordMeta = r.RecordMeta.clone()
	return &c
}

// NewRecord returns an empty record of the given type, used when decoding
// request bodies and scanning rows.
func NewRecord(st ServiceType) (ServiceRecord, error) {
	switch st {
	case ServiceTypeDispatch:
		return &DispatchRequest{}, nil
	case ServiceTypeCourt:
		return &CourtBooking{}, nil
	case ServiceTypeDocument:
		return &DocumentRequest{}, nil
	case ServiceTypeReport:
		return &InfrastructureReport{}, nil
	case ServiceTypeProposal:
		return &ProjectProposal{}, nil
	case ServiceTypeRegistration:
		return &Registration{}, nil
	}
	return nil, ErrUnknownServiceType
}
