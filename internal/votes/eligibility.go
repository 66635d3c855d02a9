package votes

import (
	"fmt"
	"time"

	"github.com/plenumlab/plenum/internal/meetings"
	"github.com/plenumlab/plenum/internal/motions"
	"gorm.io/gorm"
)

// Reason explains why a user cannot vote on a motion right now.
type Reason string

const (
	ReasonAlreadyVoted Reason = "already_voted"
	ReasonNotInPool    Reason = "not_in_pool"
	ReasonNotActive    Reason = "not_active"
	ReasonVotingEnded  Reason = "voting_ended"
)

// Eligibility is the outcome of evaluating one user against one motion.
type Eligibility struct {
	CanVote bool
	Reason  Reason
}

// IneligibleError is the forbidden outcome of a vote attempt, carrying the
// specific eligibility reason.
type IneligibleError struct {
	Reason Reason
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("not eligible to vote: %s", e.Reason)
}

// effectivePoolID applies the pool fallback rule: a motion without its own
// voting pool uses the parent meeting's quorum pool.
func effectivePoolID(motion motions.Motion, meeting meetings.Meeting) string {
	if motion.VotingPoolID != nil && *motion.VotingPoolID != "" {
		return *motion.VotingPoolID
	}
	return meeting.QuorumVotingPoolID
}

// evaluateEligibility checks the four negative conditions in fixed precedence:
// already_voted, not_in_pool, not_active, voting_ended. The order is part of
// the contract; a user matching several conditions always gets the first.
// The caller supplies one now per logical request so repeated evaluations
// stay read-consistent.
func evaluateEligibility(tx *gorm.DB, motion motions.Motion, meeting meetings.Meeting, userID string, now time.Time) (Eligibility, error) {
	var voteCount int64
	err := tx.Model(&Vote{}).
		Where("user_id = ? AND motion_id = ?", userID, motion.MotionID).
		Count(&voteCount).Error
	if err != nil {
		return Eligibility{}, fmt.Errorf("votes: vote lookup failed: %w", err)
	}
	if voteCount > 0 {
		return Eligibility{Reason: ReasonAlreadyVoted}, nil
	}

	var memberCount int64
	err = tx.Model(&meetings.PoolMember{}).
		Where("pool_id = ? AND user_id = ?", effectivePoolID(motion, meeting), userID).
		Count(&memberCount).Error
	if err != nil {
		return Eligibility{}, fmt.Errorf("votes: pool membership lookup failed: %w", err)
	}
	if memberCount == 0 {
		return Eligibility{Reason: ReasonNotInPool}, nil
	}

	if motion.Status != motions.StatusVotingActive {
		return Eligibility{Reason: ReasonNotActive}, nil
	}

	window := motions.Window(motion.VotingStartedAt, motion.DurationMinutes, motion.EndOverride, now)
	if window.Expired() {
		return Eligibility{Reason: ReasonVotingEnded}, nil
	}

	return Eligibility{CanVote: true}, nil
}
