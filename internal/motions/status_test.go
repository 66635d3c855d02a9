package motions

import "testing"

func TestStatusTransitionTable(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusNotYetStarted, StatusVotingActive, true},
		{StatusVotingActive, StatusVotingComplete, true},
		{StatusNotYetStarted, StatusVotingComplete, false},
		{StatusVotingActive, StatusNotYetStarted, false},
		{StatusVotingComplete, StatusVotingActive, false},
		{StatusVotingComplete, StatusNotYetStarted, false},
		{StatusVotingComplete, StatusVotingComplete, false},
		{StatusNotYetStarted, StatusNotYetStarted, false},
	}

	for _, tc := range tests {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"not_yet_started", "voting_active", "voting_complete"} {
		if _, err := ParseStatus(valid); err != nil {
			t.Fatalf("ParseStatus(%q) failed: %v", valid, err)
		}
	}
	if _, err := ParseStatus("reopened"); err == nil {
		t.Fatalf("expected unknown status to be rejected")
	}
}

func TestInvalidTransitionErrorNamesBothStatuses(t *testing.T) {
	err := &InvalidTransitionError{From: StatusVotingComplete, To: StatusVotingActive}
	want := `invalid status transition from "voting_complete" to "voting_active"`
	if err.Error() != want {
		t.Fatalf("error = %q, want %q", err.Error(), want)
	}
}
