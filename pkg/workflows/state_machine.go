package workflows

// Listing states
const (
	ListingActive   = "ACTIVE"
	ListingInactive = "INACTIVE"
)

// Assessment verification states
const (
	AssessmentPending  = "PENDING"
	AssessmentVerified = "VERIFIED"
)

// StateMachine enforces status transitions
type StateMachine struct {
	allowedTransitions map[string][]string
}

// NewStateMachine creates a state machine with the given allowed transitions
func NewStateMachine(transitions map[string][]string) *StateMachine {
	return &StateMachine{allowedTransitions: transitions}
}

// NewListingStateMachine returns the transitions a purchase can cause. An
// inactive listing has none, so it cannot be bought from. Seller status
// updates are not driven by this machine.
func NewListingStateMachine() *StateMachine {
	return NewStateMachine(map[string][]string{
		ListingActive: {ListingActive, ListingInactive},
	})
}

// NewAssessmentStateMachine returns the verification lifecycle. Verified is terminal.
func NewAssessmentStateMachine() *StateMachine {
	return NewStateMachine(map[string][]string{
		AssessmentPending: {AssessmentVerified},
	})
}

// CanTransition checks if a status transition is allowed
func (sm *StateMachine) CanTransition(from, to string) bool {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return false
	}
	for _, allowedTo := range allowed {
		if allowedTo == to {
			return true
		}
	}
	return false
}

// GetAllowedTransitions returns the allowed next statuses for a given status
func (sm *StateMachine) GetAllowedTransitions(from string) []string {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return []string{}
	}
	return allowed
}

// ListingState maps the active flag to a listing state
func ListingState(active bool) string {
	if active {
		return ListingActive
	}
	return ListingInactive
}

// AssessmentState maps the verified flag to an assessment state
func AssessmentState(verified bool) string {
	if verified {
		return AssessmentVerified
	}
	return AssessmentPending
}
