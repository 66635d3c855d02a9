package votes

import (
	"fmt"

	"github.com/plenumlab/plenum/internal/motions"
)

// ValidationError reports a malformed ballot. It never reflects a side effect;
// the ballot is either fully acceptable or rejected whole.
type ValidationError struct {
	message string
}

func (e *ValidationError) Error() string {
	return e.message
}

func newValidationError(format string, args ...interface{}) error {
	return &ValidationError{message: fmt.Sprintf(format, args...)}
}

// Ballot is a vote submission: an ordered choice selection or an abstention.
type Ballot struct {
	ChoiceIDs []string
	Abstain   bool
}

// ValidateBallot checks a submission against the motion snapshot it will be
// recorded against. It is a pure predicate; the caller must pass the same
// snapshot used for the eligibility check.
func ValidateBallot(motion motions.Motion, ballot Ballot) error {
	if ballot.Abstain && len(ballot.ChoiceIDs) > 0 {
		return newValidationError("cannot select choices when abstaining")
	}
	if !ballot.Abstain && len(ballot.ChoiceIDs) == 0 {
		return newValidationError("must select at least one choice or abstain")
	}
	if !ballot.Abstain && len(ballot.ChoiceIDs) > motion.SeatCount {
		return newValidationError("cannot select more than %d choice(s)", motion.SeatCount)
	}

	seen := make(map[string]bool, len(ballot.ChoiceIDs))
	for _, choiceID := range ballot.ChoiceIDs {
		if seen[choiceID] || !motion.HasChoice(choiceID) {
			return newValidationError("invalid choice selection")
		}
		seen[choiceID] = true
	}
	return nil
}
