package votes

import (
	"errors"
	"testing"

	"github.com/plenumlab/plenum/internal/motions"
)

func twoSeatMotion() motions.Motion {
	return motions.Motion{
		MotionID:  "motion-1",
		SeatCount: 2,
		Choices: []motions.Choice{
			{ChoiceID: "choice-a", MotionID: "motion-1", Name: "Alice"},
			{ChoiceID: "choice-b", MotionID: "motion-1", Name: "Bob"},
			{ChoiceID: "choice-c", MotionID: "motion-1", Name: "Carol"},
		},
	}
}

func TestValidateBallot(t *testing.T) {
	motion := twoSeatMotion()

	tests := []struct {
		name    string
		ballot  Ballot
		wantErr bool
	}{
		{name: "single choice", ballot: Ballot{ChoiceIDs: []string{"choice-a"}}},
		{name: "full seat count", ballot: Ballot{ChoiceIDs: []string{"choice-a", "choice-c"}}},
		{name: "abstain", ballot: Ballot{Abstain: true}},
		{name: "abstain with choices", ballot: Ballot{Abstain: true, ChoiceIDs: []string{"choice-a"}}, wantErr: true},
		{name: "empty without abstain", ballot: Ballot{}, wantErr: true},
		{name: "exceeds seat count", ballot: Ballot{ChoiceIDs: []string{"choice-a", "choice-b", "choice-c"}}, wantErr: true},
		{name: "foreign choice", ballot: Ballot{ChoiceIDs: []string{"choice-x"}}, wantErr: true},
		{name: "duplicate choice", ballot: Ballot{ChoiceIDs: []string{"choice-a", "choice-a"}}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateBallot(motion, tc.ballot)
			if tc.wantErr {
				var validation *ValidationError
				if !errors.As(err, &validation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateBallotMessages(t *testing.T) {
	motion := twoSeatMotion()

	err := ValidateBallot(motion, Ballot{Abstain: true, ChoiceIDs: []string{"choice-a"}})
	if err == nil || err.Error() != "cannot select choices when abstaining" {
		t.Fatalf("unexpected message: %v", err)
	}

	err = ValidateBallot(motion, Ballot{})
	if err == nil || err.Error() != "must select at least one choice or abstain" {
		t.Fatalf("unexpected message: %v", err)
	}
}
