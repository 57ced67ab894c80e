package entities

type ApplicationStatus string

const (
	StatusPendingAI     ApplicationStatus = "pending_ai"
	StatusAIAbnormal    ApplicationStatus = "ai_abnormal"
	StatusPendingReview ApplicationStatus = "pending_review"
	StatusApproved      ApplicationStatus = "approved"
	StatusRejected      ApplicationStatus = "rejected"
	StatusArchived      ApplicationStatus = "archived"
	StatusWithdrawn     ApplicationStatus = "withdrawn"
)

// InitialStatus is assigned to every newly created application.
const InitialStatus = StatusPendingAI

// The state machine is kept as data so new transitions slot in without
// touching the optimistic-concurrency path.
var statusCatalog = map[ApplicationStatus]struct{}{
	StatusPendingAI:     {},
	StatusAIAbnormal:    {},
	StatusPendingReview: {},
	StatusApproved:      {},
	StatusRejected:      {},
	StatusArchived:      {},
	StatusWithdrawn:     {},
}

// editableStatuses is the set of states in which the owner may still edit
// or withdraw the record.
var editableStatuses = map[ApplicationStatus]struct{}{
	StatusPendingAI:     {},
	StatusAIAbnormal:    {},
	StatusPendingReview: {},
}

var terminalStatuses = map[ApplicationStatus]struct{}{
	StatusApproved:  {},
	StatusRejected:  {},
	StatusArchived:  {},
	StatusWithdrawn: {},
}

// allowedTransitions covers the implemented transitions plus the reserved
// review-pipeline and archival edges.
var allowedTransitions = map[ApplicationStatus][]ApplicationStatus{
	StatusPendingAI:     {StatusAIAbnormal, StatusPendingReview, StatusWithdrawn},
	StatusAIAbnormal:    {StatusPendingReview, StatusWithdrawn},
	StatusPendingReview: {StatusApproved, StatusRejected, StatusWithdrawn},
	StatusApproved:      {StatusArchived},
	StatusRejected:      {StatusArchived},
}

func (s ApplicationStatus) Valid() bool {
	_, ok := statusCatalog[s]
	return ok
}

func (s ApplicationStatus) Editable() bool {
	_, ok := editableStatuses[s]
	return ok
}

func (s ApplicationStatus) Terminal() bool {
	_, ok := terminalStatuses[s]
	return ok
}

// CanTransition reports whether the state machine permits from -> to.
func CanTransition(from ApplicationStatus, to ApplicationStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
