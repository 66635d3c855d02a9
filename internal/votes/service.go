package votes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/plenumlab/plenum/internal/meetings"
	"github.com/plenumlab/plenum/internal/motions"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrAlreadyVoted reports a duplicate ballot for the same user and motion.
	// It is a conflict outcome, distinct from a validation rejection.
	ErrAlreadyVoted = errors.New("already voted")
	// ErrResultsNotAvailable gates tallies to completed motions.
	ErrResultsNotAvailable = errors.New("results only available for completed motions")

	noOpLogger = zap.NewNop()
)

// ServiceConfig describes the dependencies of the voting service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider motions.IDProvider
	Logger     *zap.Logger
}

// Service evaluates eligibility, records ballots, and computes tallies.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	ids    motions.IDProvider
	logger *zap.Logger
}

// NewService constructs the voting service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("votes: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	ids := cfg.IDProvider
	if ids == nil {
		ids = motions.NewUUIDProvider()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{db: cfg.Database, clock: clock, ids: ids, logger: logger}, nil
}

// MotionForVoting is the voter-facing view of a motion: its choices, where the
// voting window stands, and whether this user may vote right now.
type MotionForVoting struct {
	Motion   motions.Motion
	Window   motions.TimeWindow
	CanVote  bool
	Reason   Reason
	HasVoted bool
}

// GetMotionForVoting returns the voter view of a motion. All checks observe a
// single now so the window and the eligibility flags cannot disagree.
func (s *Service) GetMotionForVoting(ctx context.Context, motionID, userID string) (MotionForVoting, error) {
	now := s.clock().UTC()

	motion, meeting, err := s.loadMotionWithMeeting(s.db.WithContext(ctx), motionID, false)
	if err != nil {
		return MotionForVoting{}, err
	}

	eligibility, err := evaluateEligibility(s.db.WithContext(ctx), motion, meeting, userID, now)
	if err != nil {
		return MotionForVoting{}, err
	}

	return MotionForVoting{
		Motion:   motion,
		Window:   motions.Window(motion.VotingStartedAt, motion.DurationMinutes, motion.EndOverride, now),
		CanVote:  eligibility.CanVote,
		Reason:   eligibility.Reason,
		HasVoted: eligibility.Reason == ReasonAlreadyVoted,
	}, nil
}

// CastVote records a ballot. Eligibility is re-evaluated at write time inside
// the transaction that inserts the vote and its choice rows, and the unique
// (user, motion) index remains the final authority: a concurrent duplicate
// surfaces as ErrAlreadyVoted, never as a partial write.
func (s *Service) CastVote(ctx context.Context, userID, motionID string, ballot Ballot) (Vote, error) {
	now := s.clock().UTC()

	var vote Vote
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		motion, meeting, err := s.loadMotionWithMeeting(tx, motionID, true)
		if err != nil {
			return err
		}

		eligibility, err := evaluateEligibility(tx, motion, meeting, userID, now)
		if err != nil {
			return err
		}
		if !eligibility.CanVote {
			if eligibility.Reason == ReasonAlreadyVoted {
				return ErrAlreadyVoted
			}
			return &IneligibleError{Reason: eligibility.Reason}
		}

		if err := ValidateBallot(motion, ballot); err != nil {
			return err
		}

		voteID, err := s.ids.NewID()
		if err != nil {
			return fmt.Errorf("votes: id generation failed: %w", err)
		}
		vote = Vote{
			VoteID:    voteID,
			UserID:    userID,
			MotionID:  motionID,
			Abstain:   ballot.Abstain,
			CreatedAt: now,
		}
		if err := tx.Create(&vote).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrAlreadyVoted
			}
			return fmt.Errorf("votes: insert failed: %w", err)
		}

		for _, choiceID := range ballot.ChoiceIDs {
			selection := VoteChoice{VoteID: voteID, ChoiceID: choiceID}
			if err := tx.Create(&selection).Error; err != nil {
				return fmt.Errorf("votes: selection insert failed: %w", err)
			}
			vote.Choices = append(vote.Choices, selection)
		}
		return nil
	})
	if txErr != nil {
		return Vote{}, txErr
	}

	s.logger.Info("vote recorded",
		zap.String("motion_id", motionID),
		zap.String("user_id", userID),
		zap.Bool("abstain", vote.Abstain))
	return vote, nil
}

// MotionResult tallies a completed motion. The tally itself is pure
// aggregation; the completed-only gate lives here, at the caller.
func (s *Service) MotionResult(ctx context.Context, motionID string) (Tally, error) {
	var motion motions.Motion
	err := s.db.WithContext(ctx).
		Preload("Choices", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("motion_id = ?", motionID).
		Take(&motion).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Tally{}, motions.ErrMotionNotFound
	}
	if err != nil {
		return Tally{}, fmt.Errorf("votes: motion lookup failed: %w", err)
	}
	if motion.Status != motions.StatusVotingComplete {
		return Tally{}, ErrResultsNotAvailable
	}

	counts := make(map[string]int64)
	rows := []struct {
		ChoiceID string
		Count    int64
	}{}
	err = s.db.WithContext(ctx).Model(&VoteChoice{}).
		Select("vote_choices.choice_id AS choice_id, COUNT(*) AS count").
		Joins("JOIN votes ON votes.vote_id = vote_choices.vote_id").
		Where("votes.motion_id = ?", motionID).
		Group("vote_choices.choice_id").
		Scan(&rows).Error
	if err != nil {
		return Tally{}, fmt.Errorf("votes: tally query failed: %w", err)
	}
	for _, row := range rows {
		counts[row.ChoiceID] = row.Count
	}

	tally := Tally{
		MotionID:  motionID,
		SeatCount: motion.SeatCount,
		Lines:     computeTally(motion.Choices, counts, motion.SeatCount),
	}

	err = s.db.WithContext(ctx).Model(&Vote{}).
		Where("motion_id = ?", motionID).
		Count(&tally.TotalBallots).Error
	if err != nil {
		return Tally{}, fmt.Errorf("votes: ballot count failed: %w", err)
	}
	err = s.db.WithContext(ctx).Model(&Vote{}).
		Where("motion_id = ? AND abstain = ?", motionID, true).
		Count(&tally.AbstainCount).Error
	if err != nil {
		return Tally{}, fmt.Errorf("votes: abstain count failed: %w", err)
	}

	return tally, nil
}

func (s *Service) loadMotionWithMeeting(tx *gorm.DB, motionID string, lockForUpdate bool) (motions.Motion, meetings.Meeting, error) {
	motionQuery := tx.
		Preload("Choices", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("motion_id = ?", motionID)
	if lockForUpdate {
		motionQuery = motionQuery.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var motion motions.Motion
	err := motionQuery.Take(&motion).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return motions.Motion{}, meetings.Meeting{}, motions.ErrMotionNotFound
	}
	if err != nil {
		return motions.Motion{}, meetings.Meeting{}, fmt.Errorf("votes: motion lookup failed: %w", err)
	}

	var meeting meetings.Meeting
	err = tx.Where("meeting_id = ?", motion.MeetingID).Take(&meeting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return motions.Motion{}, meetings.Meeting{}, meetings.ErrMeetingNotFound
	}
	if err != nil {
		return motions.Motion{}, meetings.Meeting{}, fmt.Errorf("votes: meeting lookup failed: %w", err)
	}
	return motion, meeting, nil
}

// isDuplicateKey recognizes a unique-constraint violation from the driver.
// TranslateError maps most of them to gorm.ErrDuplicatedKey; the string check
// covers drivers that predate the translation.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
