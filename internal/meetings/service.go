package meetings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrMeetingNotFound indicates the referenced meeting does not exist.
	ErrMeetingNotFound = errors.New("meeting not found")
	// ErrPoolNotFound indicates the referenced pool does not exist.
	ErrPoolNotFound = errors.New("voting pool not found")
	// ErrInvalidMeeting rejects malformed meeting definitions.
	ErrInvalidMeeting = errors.New("invalid meeting")

	noOpLogger = zap.NewNop()
)

// ServiceConfig describes the dependencies of the meeting service.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service manages meetings, voter pools, and quorum reporting.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the meeting service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("meetings: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{db: cfg.Database, clock: clock, logger: logger}, nil
}

// CreateMeetingRequest carries the fields for a new meeting.
type CreateMeetingRequest struct {
	Name               string
	StartDate          time.Time
	EndDate            time.Time
	QuorumVotingPoolID string
}

// CreateMeeting persists a new meeting bound to an existing quorum pool.
func (s *Service) CreateMeeting(ctx context.Context, req CreateMeetingRequest) (Meeting, error) {
	if strings.TrimSpace(req.Name) == "" {
		return Meeting{}, fmt.Errorf("%w: meeting name is required", ErrInvalidMeeting)
	}
	if !req.EndDate.After(req.StartDate) {
		return Meeting{}, fmt.Errorf("%w: end date must follow start date", ErrInvalidMeeting)
	}

	var pool Pool
	err := s.db.WithContext(ctx).Where("pool_id = ?", req.QuorumVotingPoolID).Take(&pool).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Meeting{}, ErrPoolNotFound
	}
	if err != nil {
		return Meeting{}, fmt.Errorf("meetings: pool lookup failed: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return Meeting{}, fmt.Errorf("meetings: id generation failed: %w", err)
	}

	meeting := Meeting{
		MeetingID:          id.String(),
		Name:               strings.TrimSpace(req.Name),
		StartDate:          req.StartDate.UTC(),
		EndDate:            req.EndDate.UTC(),
		QuorumVotingPoolID: pool.PoolID,
	}
	if err := s.db.WithContext(ctx).Create(&meeting).Error; err != nil {
		return Meeting{}, fmt.Errorf("meetings: insert failed: %w", err)
	}

	s.logger.Info("meeting created", zap.String("meeting_id", meeting.MeetingID))
	return meeting, nil
}

// GetMeeting returns the meeting for the provided identifier.
func (s *Service) GetMeeting(ctx context.Context, meetingID string) (Meeting, error) {
	var meeting Meeting
	err := s.db.WithContext(ctx).Where("meeting_id = ?", meetingID).Take(&meeting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Meeting{}, ErrMeetingNotFound
	}
	if err != nil {
		return Meeting{}, fmt.Errorf("meetings: lookup failed: %w", err)
	}
	return meeting, nil
}

// CreatePool persists a new named voter cohort.
func (s *Service) CreatePool(ctx context.Context, name string) (Pool, error) {
	if strings.TrimSpace(name) == "" {
		return Pool{}, fmt.Errorf("%w: pool name is required", ErrInvalidMeeting)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return Pool{}, fmt.Errorf("meetings: id generation failed: %w", err)
	}
	pool := Pool{PoolID: id.String(), Name: strings.TrimSpace(name)}
	if err := s.db.WithContext(ctx).Create(&pool).Error; err != nil {
		return Pool{}, fmt.Errorf("meetings: pool insert failed: %w", err)
	}
	return pool, nil
}

// AddPoolMember links a user into a pool. Adding an existing member is a no-op.
func (s *Service) AddPoolMember(ctx context.Context, poolID, userID string) error {
	var pool Pool
	err := s.db.WithContext(ctx).Where("pool_id = ?", poolID).Take(&pool).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrPoolNotFound
	}
	if err != nil {
		return fmt.Errorf("meetings: pool lookup failed: %w", err)
	}

	member := PoolMember{PoolID: poolID, UserID: userID}
	err = s.db.WithContext(ctx).Create(&member).Error
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("meetings: member insert failed: %w", err)
	}
	return nil
}

// RemovePoolMember unlinks a user from a pool.
func (s *Service) RemovePoolMember(ctx context.Context, poolID, userID string) error {
	err := s.db.WithContext(ctx).
		Where("pool_id = ? AND user_id = ?", poolID, userID).
		Delete(&PoolMember{}).Error
	if err != nil {
		return fmt.Errorf("meetings: member delete failed: %w", err)
	}
	return nil
}
