package postgres

import "service-portal-backend/internal/domain"

var slotColumns = []column{
	{name: "res_date", sel: "to_char(res_date, 'YYYY-MM-DD')"},
	{name: "start_time", sel: "to_char(start_time, 'HH24:MI:SS')"},
	col("duration_hours"),
}

var dispatchTable = recordTable{
	st:   domain.ServiceTypeDispatch,
	name: "dispatch_requests",
	columns: append([]column{
		col("vehicle_id"), col("patient_name"), col("pickup_address"), col("destination"), col("purpose"),
	}, slotColumns...),
	resource: "vehicle_id",
	values: typed(func(r *domain.DispatchRequest) []any {
		return []any{r.VehicleID, r.PatientName, r.PickupAddress, r.Destination, r.Purpose, r.Date, r.StartTime, r.DurationHours}
	}),
	dests: typed(func(r *domain.DispatchRequest) []any {
		return []any{&r.VehicleID, &r.PatientName, &r.PickupAddress, &r.Destination, &r.Purpose, &r.Date, &r.StartTime, &r.DurationHours}
	}),
}

var courtTable = recordTable{
	st:   domain.ServiceTypeCourt,
	name: "court_bookings",
	columns: append([]column{
		col("court_id"), col("purpose"), col("participants"),
	}, slotColumns...),
	resource: "court_id",
	values: typed(func(r *domain.CourtBooking) []any {
		return []any{r.CourtID, r.Purpose, r.Participants, r.Date, r.StartTime, r.DurationHours}
	}),
	dests: typed(func(r *domain.CourtBooking) []any {
		return []any{&r.CourtID, &r.Purpose, &r.Participants, &r.Date, &r.StartTime, &r.DurationHours}
	}),
}

var documentTable = recordTable{
	st:      domain.ServiceTypeDocument,
	name:    "document_requests",
	columns: []column{col("document_type"), col("purpose"), col("copies")},
	values: typed(func(r *domain.DocumentRequest) []any {
		return []any{r.DocumentType, r.Purpose, r.Copies}
	}),
	dests: typed(func(r *domain.DocumentRequest) []any {
		return []any{&r.DocumentType, &r.Purpose, &r.Copies}
	}),
}

var reportTable = recordTable{
	st:      domain.ServiceTypeReport,
	name:    "infrastructure_reports",
	columns: []column{col("category"), col("location"), col("description")},
	values: typed(func(r *domain.InfrastructureReport) []any {
		return []any{r.Category, r.Location, r.Description}
	}),
	dests: typed(func(r *domain.InfrastructureReport) []any {
		return []any{&r.Category, &r.Location, &r.Description}
	}),
}

var proposalTable = recordTable{
	st:      domain.ServiceTypeProposal,
	name:    "project_proposals",
	columns: []column{col("title"), col("summary"), col("estimated_budget")},
	values: typed(func(r *domain.ProjectProposal) []any {
		return []any{r.Title, r.Summary, r.EstimatedBudget}
	}),
	dests: typed(func(r *domain.ProjectProposal) []any {
		return []any{&r.Title, &r.Summary, &r.EstimatedBudget}
	}),
}

var registrationTable = recordTable{
	st:   domain.ServiceTypeRegistration,
	name: "registrations",
	columns: []column{
		col("full_name"), col("address"),
		{name: "birth_date", sel: "to_char(birth_date, 'YYYY-MM-DD')"},
		col("household_no"),
	},
	values: typed(func(r *domain.Registration) []any {
		return []any{r.FullName, r.Address, r.BirthDate, r.HouseholdNo}
	}),
	dests: typed(func(r *domain.Registration) []any {
		return []any{&r.FullName, &r.Address, &r.BirthDate, &r.HouseholdNo}
	}),
}
