package database

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/plenumlab/plenum/internal/activity"
	"github.com/plenumlab/plenum/internal/meetings"
	"github.com/plenumlab/plenum/internal/motions"
	"github.com/plenumlab/plenum/internal/users"
	"github.com/plenumlab/plenum/internal/votes"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OpenSQLite establishes a SQLite connection and performs schema migrations.
// TranslateError is enabled so unique-constraint violations surface as
// gorm.ErrDuplicatedKey, which the vote recorder relies on.
func OpenSQLite(path string, logger *zap.Logger) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db, logger); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("database initialized", zap.String("path", path))
	}

	return db, nil
}

// Migrate creates or updates the schema for all election models.
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	err := db.AutoMigrate(
		&users.User{},
		&meetings.Pool{},
		&meetings.PoolMember{},
		&meetings.Meeting{},
		&motions.Motion{},
		&motions.Choice{},
		&votes.Vote{},
		&votes.VoteChoice{},
		&activity.Log{},
		&migrationRecord{},
	)
	if err != nil {
		return err
	}
	return applyMigrations(db, logger)
}
