package activity

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RecorderConfig describes the dependencies of the activity recorder.
type RecorderConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Recorder appends activity rows on a best-effort basis. A failed append is
// logged and dropped; it must never fail the request that triggered it.
type Recorder struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewRecorder constructs the activity recorder.
func NewRecorder(cfg RecorderConfig) (*Recorder, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("activity: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{db: cfg.Database, clock: clock, logger: logger}, nil
}

// Record dispatches a fire-and-forget append for the given user and path.
func (r *Recorder) Record(userID, path string) {
	go func() {
		if err := r.record(userID, path); err != nil {
			r.logger.Warn("activity log append failed",
				zap.String("user_id", userID),
				zap.String("path", path),
				zap.Error(err))
		}
	}()
}

func (r *Recorder) record(userID, path string) error {
	if userID == "" {
		return fmt.Errorf("activity: user id is required")
	}
	entry := Log{
		UserID:    userID,
		Path:      path,
		CreatedAt: r.clock().UTC(),
	}
	return r.db.Create(&entry).Error
}
