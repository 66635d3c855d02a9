package motions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/plenumlab/plenum/internal/meetings"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrMotionNotFound indicates the referenced motion does not exist.
	ErrMotionNotFound = errors.New("motion not found")
	// ErrChoiceNotFound indicates the referenced choice does not exist on the motion.
	ErrChoiceNotFound = errors.New("choice not found")
	// ErrChoicesLocked rejects choice mutation once voting has begun.
	ErrChoicesLocked = errors.New("cannot modify choices after voting has started")
	// ErrOverrideNotAllowed rejects an end override outside voting_active.
	ErrOverrideNotAllowed = errors.New("end override requires an active motion")
	// ErrTransitionConflict reports a concurrent status change racing this one.
	ErrTransitionConflict = errors.New("motion status changed concurrently")
	// ErrInvalidMotion rejects malformed motion definitions.
	ErrInvalidMotion = errors.New("invalid motion")

	errMissingDatabase = errors.New("database handle is required")
	noOpLogger         = zap.NewNop()
)

// ServiceConfig describes the dependencies of the motion admin service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service manages motions, their lifecycle transitions, and their choices.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	ids    IDProvider
	logger *zap.Logger
}

// NewService constructs the motion admin service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	ids := cfg.IDProvider
	if ids == nil {
		ids = NewUUIDProvider()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{db: cfg.Database, clock: clock, ids: ids, logger: logger}, nil
}

// CreateMotionRequest carries the fields for a new motion.
type CreateMotionRequest struct {
	MeetingID       string
	Name            string
	Description     string
	DurationMinutes int
	SeatCount       int
	VotingPoolID    *string
	ChoiceNames     []string
}

// CreateMotion persists a new motion in not_yet_started status, together with
// its initial choices in the given order.
func (s *Service) CreateMotion(ctx context.Context, req CreateMotionRequest) (Motion, error) {
	if strings.TrimSpace(req.Name) == "" {
		return Motion{}, fmt.Errorf("%w: motion name is required", ErrInvalidMotion)
	}
	if req.DurationMinutes <= 0 {
		return Motion{}, fmt.Errorf("%w: duration must be positive", ErrInvalidMotion)
	}
	seatCount := req.SeatCount
	if seatCount == 0 {
		seatCount = 1
	}
	if seatCount < 1 {
		return Motion{}, fmt.Errorf("%w: seat count must be at least 1", ErrInvalidMotion)
	}

	var meeting meetings.Meeting
	err := s.db.WithContext(ctx).Where("meeting_id = ?", req.MeetingID).Take(&meeting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Motion{}, meetings.ErrMeetingNotFound
	}
	if err != nil {
		return Motion{}, fmt.Errorf("motions: meeting lookup failed: %w", err)
	}

	motionID, err := s.ids.NewID()
	if err != nil {
		return Motion{}, fmt.Errorf("motions: id generation failed: %w", err)
	}

	motion := Motion{
		MotionID:        motionID,
		MeetingID:       meeting.MeetingID,
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		SeatCount:       seatCount,
		Status:          StatusNotYetStarted,
		VotingPoolID:    req.VotingPoolID,
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&motion).Error; err != nil {
			return fmt.Errorf("motions: insert failed: %w", err)
		}
		for order, name := range req.ChoiceNames {
			choiceID, err := s.ids.NewID()
			if err != nil {
				return fmt.Errorf("motions: id generation failed: %w", err)
			}
			choice := Choice{
				ChoiceID:  choiceID,
				MotionID:  motion.MotionID,
				Name:      name,
				SortOrder: order,
			}
			if err := tx.Create(&choice).Error; err != nil {
				return fmt.Errorf("motions: choice insert failed: %w", err)
			}
		}
		return nil
	})
	if txErr != nil {
		return Motion{}, txErr
	}

	s.logger.Info("motion created",
		zap.String("motion_id", motion.MotionID),
		zap.String("meeting_id", motion.MeetingID))
	return s.GetMotion(ctx, motion.MotionID)
}

// GetMotion returns a motion with its choices ordered by sort order.
func (s *Service) GetMotion(ctx context.Context, motionID string) (Motion, error) {
	var motion Motion
	err := s.db.WithContext(ctx).
		Preload("Choices", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("motion_id = ?", motionID).
		Take(&motion).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Motion{}, ErrMotionNotFound
	}
	if err != nil {
		return Motion{}, fmt.Errorf("motions: lookup failed: %w", err)
	}
	return motion, nil
}

// ListMeetingMotions returns the motions of a meeting in creation order.
func (s *Service) ListMeetingMotions(ctx context.Context, meetingID string) ([]Motion, error) {
	var result []Motion
	err := s.db.WithContext(ctx).
		Preload("Choices", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("meeting_id = ?", meetingID).
		Order("created_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("motions: list failed: %w", err)
	}
	return result, nil
}

// UpdateStatus advances a motion one step through its lifecycle. Entering
// voting_active stamps VotingStartedAt and may carry an end override; entering
// voting_complete stamps VotingEndedAt. The precondition check and the update
// are combined into one conditional statement so a concurrent transition loses
// cleanly instead of double-applying.
func (s *Service) UpdateStatus(ctx context.Context, motionID string, next Status, endOverride *time.Time) (Motion, error) {
	motion, err := s.GetMotion(ctx, motionID)
	if err != nil {
		return Motion{}, err
	}

	if endOverride != nil && next != StatusVotingActive {
		return Motion{}, ErrOverrideNotAllowed
	}
	if !motion.Status.CanTransitionTo(next) {
		return Motion{}, &InvalidTransitionError{From: motion.Status, To: next}
	}

	now := s.clock().UTC()
	updates := map[string]interface{}{"status": next}
	switch next {
	case StatusVotingActive:
		updates["voting_started_at"] = now
		if endOverride != nil {
			updates["end_override"] = endOverride.UTC()
		}
	case StatusVotingComplete:
		updates["voting_ended_at"] = now
	}

	result := s.db.WithContext(ctx).Model(&Motion{}).
		Where("motion_id = ? AND status = ?", motionID, motion.Status).
		Updates(updates)
	if result.Error != nil {
		return Motion{}, fmt.Errorf("motions: status update failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return Motion{}, ErrTransitionConflict
	}

	s.logger.Info("motion status updated",
		zap.String("motion_id", motionID),
		zap.String("from", string(motion.Status)),
		zap.String("to", string(next)))
	return s.GetMotion(ctx, motionID)
}

// SetEndOverride sets or clears the end override of a motion that is currently
// accepting votes. A nil override restores the planned-duration end time.
func (s *Service) SetEndOverride(ctx context.Context, motionID string, override *time.Time) (Motion, error) {
	var value interface{}
	if override != nil {
		value = override.UTC()
	}
	result := s.db.WithContext(ctx).Model(&Motion{}).
		Where("motion_id = ? AND status = ?", motionID, StatusVotingActive).
		Update("end_override", value)
	if result.Error != nil {
		return Motion{}, fmt.Errorf("motions: override update failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := s.GetMotion(ctx, motionID); err != nil {
			return Motion{}, err
		}
		return Motion{}, ErrOverrideNotAllowed
	}
	return s.GetMotion(ctx, motionID)
}

// AddChoice appends a choice to a motion that has not yet started voting.
func (s *Service) AddChoice(ctx context.Context, motionID, name string) (Choice, error) {
	if strings.TrimSpace(name) == "" {
		return Choice{}, fmt.Errorf("%w: choice name is required", ErrInvalidMotion)
	}

	var created Choice
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		motion, err := s.lockMotion(tx, motionID)
		if err != nil {
			return err
		}
		if motion.Status != StatusNotYetStarted {
			return ErrChoicesLocked
		}

		var count int64
		if err := tx.Model(&Choice{}).Where("motion_id = ?", motionID).Count(&count).Error; err != nil {
			return fmt.Errorf("motions: choice count failed: %w", err)
		}

		choiceID, err := s.ids.NewID()
		if err != nil {
			return fmt.Errorf("motions: id generation failed: %w", err)
		}
		created = Choice{
			ChoiceID:  choiceID,
			MotionID:  motionID,
			Name:      strings.TrimSpace(name),
			SortOrder: int(count),
		}
		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("motions: choice insert failed: %w", err)
		}
		return nil
	})
	if txErr != nil {
		return Choice{}, txErr
	}
	return created, nil
}

// RenameChoice updates a choice's display name while the motion has not started.
func (s *Service) RenameChoice(ctx context.Context, motionID, choiceID, name string) (Choice, error) {
	if strings.TrimSpace(name) == "" {
		return Choice{}, fmt.Errorf("%w: choice name is required", ErrInvalidMotion)
	}

	var renamed Choice
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		motion, err := s.lockMotion(tx, motionID)
		if err != nil {
			return err
		}
		if motion.Status != StatusNotYetStarted {
			return ErrChoicesLocked
		}

		err = tx.Where("motion_id = ? AND choice_id = ?", motionID, choiceID).Take(&renamed).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrChoiceNotFound
		}
		if err != nil {
			return fmt.Errorf("motions: choice lookup failed: %w", err)
		}

		renamed.Name = strings.TrimSpace(name)
		if err := tx.Model(&Choice{}).
			Where("choice_id = ?", choiceID).
			Update("name", renamed.Name).Error; err != nil {
			return fmt.Errorf("motions: choice update failed: %w", err)
		}
		return nil
	})
	if txErr != nil {
		return Choice{}, txErr
	}
	return renamed, nil
}

// ReorderChoices applies a new sort order. The provided ids must be exactly
// the motion's current choices.
func (s *Service) ReorderChoices(ctx context.Context, motionID string, orderedChoiceIDs []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		motion, err := s.lockMotion(tx, motionID)
		if err != nil {
			return err
		}
		if motion.Status != StatusNotYetStarted {
			return ErrChoicesLocked
		}

		var existing []Choice
		if err := tx.Where("motion_id = ?", motionID).Find(&existing).Error; err != nil {
			return fmt.Errorf("motions: choice list failed: %w", err)
		}
		if len(orderedChoiceIDs) != len(existing) {
			return ErrChoiceNotFound
		}
		known := make(map[string]bool, len(existing))
		for _, choice := range existing {
			known[choice.ChoiceID] = true
		}
		for _, id := range orderedChoiceIDs {
			if !known[id] {
				return ErrChoiceNotFound
			}
			delete(known, id)
		}

		for order, id := range orderedChoiceIDs {
			if err := tx.Model(&Choice{}).
				Where("choice_id = ?", id).
				Update("sort_order", order).Error; err != nil {
				return fmt.Errorf("motions: reorder failed: %w", err)
			}
		}
		return nil
	})
}

// DeleteChoice removes a choice and compacts the remaining sort orders.
func (s *Service) DeleteChoice(ctx context.Context, motionID, choiceID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		motion, err := s.lockMotion(tx, motionID)
		if err != nil {
			return err
		}
		if motion.Status != StatusNotYetStarted {
			return ErrChoicesLocked
		}

		result := tx.Where("motion_id = ? AND choice_id = ?", motionID, choiceID).Delete(&Choice{})
		if result.Error != nil {
			return fmt.Errorf("motions: choice delete failed: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrChoiceNotFound
		}

		var remaining []Choice
		if err := tx.Where("motion_id = ?", motionID).Order("sort_order ASC").Find(&remaining).Error; err != nil {
			return fmt.Errorf("motions: choice list failed: %w", err)
		}
		for order, choice := range remaining {
			if choice.SortOrder == order {
				continue
			}
			if err := tx.Model(&Choice{}).
				Where("choice_id = ?", choice.ChoiceID).
				Update("sort_order", order).Error; err != nil {
				return fmt.Errorf("motions: reorder failed: %w", err)
			}
		}
		return nil
	})
}

func (s *Service) lockMotion(tx *gorm.DB, motionID string) (Motion, error) {
	var motion Motion
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("motion_id = ?", motionID).
		Take(&motion).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Motion{}, ErrMotionNotFound
	}
	if err != nil {
		return Motion{}, fmt.Errorf("motions: lookup failed: %w", err)
	}
	return motion, nil
}
