// Package statusmap translates between each service's own status
// vocabulary and the canonical ledger statuses.
package statusmap

import "service-portal-backend/internal/domain"

type table map[string]domain.CanonicalStatus

var forward = map[domain.ServiceType]table{
	domain.ServiceTypeDispatch: {
		domain.DispatchPending:       domain.StatusPending,
		domain.DispatchBooked:        domain.StatusApproved,
		domain.DispatchNeedsApproval: domain.StatusNeedsApproval,
		domain.DispatchCompleted:     domain.StatusCompleted,
		domain.DispatchCancelled:     domain.StatusCancelled,
	},
	domain.ServiceTypeCourt: {
		domain.CourtPending:   domain.StatusPending,
		domain.CourtApproved:  domain.StatusApproved,
		domain.CourtRejected:  domain.StatusCancelled,
		domain.CourtCancelled: domain.StatusCancelled,
	},
	domain.ServiceTypeDocument: {
		domain.DocumentPending:    domain.StatusPending,
		domain.DocumentInProgress: domain.StatusApproved,
		domain.DocumentCompleted:  domain.StatusCompleted,
		domain.DocumentRejected:   domain.StatusCancelled,
		domain.DocumentCancelled:  domain.StatusCancelled,
	},
	domain.ServiceTypeReport: {
		domain.ReportPending:    domain.StatusPending,
		domain.ReportInProgress: domain.StatusApproved,
		domain.ReportResolved:   domain.StatusCompleted,
		domain.ReportCancelled:  domain.StatusCancelled,
	},
	domain.ServiceTypeProposal: {
		domain.ProposalPending:    domain.StatusPending,
		domain.ProposalInReview:   domain.StatusPending,
		domain.ProposalConsidered: domain.StatusApproved,
		domain.ProposalApproved:   domain.StatusCompleted,
		domain.ProposalRejected:   domain.StatusCancelled,
	},
	domain.ServiceTypeRegistration: {
		domain.RegistrationVerified:   domain.StatusApproved,
		domain.RegistrationUnverified: domain.StatusPending,
		domain.RegistrationRejected:   domain.StatusRejected,
		domain.RegistrationCancelled:  domain.StatusCancelled,
	},
}

// Only reservation types push ledger decisions back to their records.
// Dispatch keeps the asymmetric approved/booked pair. Every entry maps
// back to itself through forward; court has no reverse for rejected since
// a rejected booking reads as cancelled.
var reverse = map[domain.ServiceType]map[domain.CanonicalStatus]string{
	domain.ServiceTypeDispatch: {
		domain.StatusPending:       domain.DispatchPending,
		domain.StatusApproved:      domain.DispatchBooked,
		domain.StatusNeedsApproval: domain.DispatchNeedsApproval,
		domain.StatusCompleted:     domain.DispatchCompleted,
		domain.StatusCancelled:     domain.DispatchCancelled,
	},
	domain.ServiceTypeCourt: {
		domain.StatusPending:   domain.CourtPending,
		domain.StatusApproved:  domain.CourtApproved,
		domain.StatusCancelled: domain.CourtCancelled,
	},
}

// ToCanonical maps a domain status to the ledger vocabulary. Unknown
// service types or statuses map to pending so syncing never blocks.
func ToCanonical(st domain.ServiceType, domainStatus string) domain.CanonicalStatus {
	if s, ok := forward[st][domainStatus]; ok {
		return s
	}
	return domain.StatusPending
}

// ToDomain maps a ledger decision back to the service's own status.
// ok is false when the service type does not support push-down, which
// callers treat as a no-op, or when a reservation type has no equivalent
// status, which callers must reject.
func ToDomain(st domain.ServiceType, status domain.CanonicalStatus) (string, bool) {
	s, ok := reverse[st][status]
	return s, ok
}

// SupportsPushDown reports whether ledger decisions reach the source record.
func SupportsPushDown(st domain.ServiceType) bool {
	_, ok := reverse[st]
	return ok
}

// KnownStatuses returns every domain status defined for st.
func KnownStatuses(st domain.ServiceType) []string {
	t := forward[st]
	out := make([]string, 0, len(t))
	for s := range t {
		out = append(out, s)
	}
	return out
}

// IsKnown reports whether status belongs to the vocabulary of st.
func IsKnown(st domain.ServiceType, status string) bool {
	_, ok := forward[st][status]
	return ok
}

// InitialStatus is the status a freshly submitted record starts in.
func InitialStatus(st domain.ServiceType) string {
	switch st {
	case domain.ServiceTypeReport:
		return domain.ReportPending
	case domain.ServiceTypeRegistration:
		return domain.RegistrationUnverified
	}
	return "pending"
}
