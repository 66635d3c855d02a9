package database

import (
	"errors"
	"time"

	"github.com/plenumlab/plenum/internal/motions"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationBackfillSeatCount = "2026-08-19_backfill_motion_seat_count"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationBackfillSeatCount, apply: backfillMotionSeatCount},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// Motions imported before seat counts existed carry a zero; a single seat is
// the documented default.
func backfillMotionSeatCount(db *gorm.DB) error {
	return db.Model(&motions.Motion{}).
		Where("seat_count < 1").
		Update("seat_count", 1).Error
}
