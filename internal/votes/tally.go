package votes

import (
	"sort"

	"github.com/plenumlab/plenum/internal/motions"
)

// TallyLine is one choice's final count and winner flag.
type TallyLine struct {
	ChoiceID  string
	Name      string
	VoteCount int64
	IsWinner  bool
}

// Tally is the final result of a completed motion. Abstentions count toward
// total ballots but toward no choice.
type Tally struct {
	MotionID     string
	SeatCount    int
	Lines        []TallyLine
	AbstainCount int64
	TotalBallots int64
}

// computeTally ranks choices by vote count descending, breaking ties by choice
// name ascending so results are deterministic, and marks the top seatCount
// lines as winners.
func computeTally(choices []motions.Choice, counts map[string]int64, seatCount int) []TallyLine {
	lines := make([]TallyLine, 0, len(choices))
	for _, choice := range choices {
		lines = append(lines, TallyLine{
			ChoiceID:  choice.ChoiceID,
			Name:      choice.Name,
			VoteCount: counts[choice.ChoiceID],
		})
	}

	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].VoteCount != lines[j].VoteCount {
			return lines[i].VoteCount > lines[j].VoteCount
		}
		return lines[i].Name < lines[j].Name
	})

	for i := range lines {
		if i < seatCount {
			lines[i].IsWinner = true
		}
	}
	return lines
}
