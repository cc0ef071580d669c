package domain

// ServiceType identifies which kind of resident request a record or ledger
// entry belongs to.
type ServiceType string

const (
	ServiceTypeDispatch     ServiceType = "dispatch"
	ServiceTypeCourt        ServiceType = "court"
	ServiceTypeDocument     ServiceType = "document"
	ServiceTypeReport       ServiceType = "report"
	ServiceTypeProposal     ServiceType = "proposal"
	ServiceTypeRegistration ServiceType = "registration"
	ServiceTypeOther        ServiceType = "other"
)

// ServiceTypes lists the request types that have a record store.
var ServiceTypes = []ServiceType{
	ServiceTypeDispatch,
	ServiceTypeCourt,
	ServiceTypeDocument,
	ServiceTypeReport,
	ServiceTypeProposal,
	ServiceTypeRegistration,
}

func (t ServiceType) IsValid() bool {
	switch t {
	case ServiceTypeDispatch, ServiceTypeCourt, ServiceTypeDocument, ServiceTypeReport,
		ServiceTypeProposal, ServiceTypeRegistration, ServiceTypeOther:
		return true
	}
	return false
}

// IsReservation reports whether records of this type hold a resource over
// a time window.
func (t ServiceType) IsReservation() bool {
	return t == ServiceTypeDispatch || t == ServiceTypeCourt
}

// CanonicalStatus is the shared status vocabulary of the ledger.
type CanonicalStatus string

const (
	StatusPending       CanonicalStatus = "pending"
	StatusApproved      CanonicalStatus = "approved"
	StatusCompleted     CanonicalStatus = "completed"
	StatusCancelled     CanonicalStatus = "cancelled"
	StatusNeedsApproval CanonicalStatus = "needs_approval"
	StatusRejected      CanonicalStatus = "rejected"
)

var CanonicalStatuses = []CanonicalStatus{
	StatusPending,
	StatusApproved,
	StatusCompleted,
	StatusCancelled,
	StatusNeedsApproval,
	StatusRejected,
}

func (s CanonicalStatus) IsValid() bool {
	for _, c := range CanonicalStatuses {
		if c == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further processing is expected.
func (s CanonicalStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusRejected
}

// Domain statuses, one block per service type. Report statuses are
// capitalised words as stored by the reporting module.
const (
	DispatchPending       = "pending"
	DispatchBooked        = "booked"
	DispatchNeedsApproval = "needs_approval"
	DispatchCompleted     = "completed"
	DispatchCancelled     = "cancelled"

	CourtPending   = "pending"
	CourtApproved  = "approved"
	CourtRejected  = "rejected"
	CourtCancelled = "cancelled"

	DocumentPending    = "pending"
	DocumentInProgress = "in_progress"
	DocumentCompleted  = "completed"
	DocumentRejected   = "rejected"
	DocumentCancelled  = "cancelled"

	ReportPending    = "Pending"
	ReportInProgress = "In Progress"
	ReportResolved   = "Resolved"
	ReportCancelled  = "Cancelled"

	ProposalPending    = "pending"
	ProposalInReview   = "in_review"
	ProposalConsidered = "considered"
	ProposalApproved   = "approved"
	ProposalRejected   = "rejected"

	RegistrationVerified   = "verified"
	RegistrationUnverified = "unverified"
	RegistrationRejected   = "rejected"
	RegistrationCancelled  = "cancelled"
)
