package memory

import (
	"service-portal-backend/internal/domain"
	"service-portal-backend/internal/repository"
)

// NewSources returns one empty store per service type.
func NewSources() repository.Sources {
	return repository.NewSources(
		NewReservationStore[*domain.DispatchRequest](domain.ServiceTypeDispatch),
		NewReservationStore[*domain.CourtBooking](domain.ServiceTypeCourt),
		NewRecordStore[*domain.DocumentRequest](domain.ServiceTypeDocument),
		NewRecordStore[*domain.InfrastructureReport](domain.ServiceTypeReport),
		NewRecordStore[*domain.ProjectProposal](domain.ServiceTypeProposal),
		NewRecordStore[*domain.Registration](domain.ServiceTypeRegistration),
	)
}
