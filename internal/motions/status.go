package motions

import "fmt"

// Status is the lifecycle state of a motion. Transitions move forward only,
// one step at a time, and voting_complete is terminal.
type Status string

const (
	StatusNotYetStarted  Status = "not_yet_started"
	StatusVotingActive   Status = "voting_active"
	StatusVotingComplete Status = "voting_complete"
)

var statusTransitions = map[Status][]Status{
	StatusNotYetStarted:  {StatusVotingActive},
	StatusVotingActive:   {StatusVotingComplete},
	StatusVotingComplete: {},
}

// ParseStatus converts the wire representation into a Status.
func ParseStatus(value string) (Status, error) {
	switch Status(value) {
	case StatusNotYetStarted, StatusVotingActive, StatusVotingComplete:
		return Status(value), nil
	default:
		return "", fmt.Errorf("unknown motion status %q", value)
	}
}

// CanTransitionTo reports whether the requested transition is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// InvalidTransitionError reports an illegal status change request.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %q to %q", e.From, e.To)
}
