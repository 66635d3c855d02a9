package database

import (
	"path/filepath"
	"testing"

	"github.com/plenumlab/plenum/internal/motions"
	"github.com/plenumlab/plenum/internal/votes"
)

func TestOpenSQLiteMigratesSchema(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "plenum.db"), nil)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	for _, table := range []string{"users", "meetings", "voting_pools", "voting_pool_members", "motions", "motion_choices", "votes", "vote_choices", "activity_logs", "db_migrations"} {
		if !db.Migrator().HasTable(table) {
			t.Fatalf("expected table %q to exist", table)
		}
	}

	var applied int64
	if err := db.Model(&migrationRecord{}).Count(&applied).Error; err != nil {
		t.Fatalf("failed to count migrations: %v", err)
	}
	if applied == 0 {
		t.Fatalf("expected at least one recorded migration")
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plenum.db")
	db, err := OpenSQLite(path, nil)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	var before int64
	if err := db.Model(&migrationRecord{}).Count(&before).Error; err != nil {
		t.Fatalf("failed to count migrations: %v", err)
	}

	if err := Migrate(db, nil); err != nil {
		t.Fatalf("second migration pass failed: %v", err)
	}
	var after int64
	if err := db.Model(&migrationRecord{}).Count(&after).Error; err != nil {
		t.Fatalf("failed to count migrations: %v", err)
	}
	if before != after {
		t.Fatalf("migrations reapplied: %d -> %d", before, after)
	}
}

func TestBackfillSeatCount(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "plenum.db"), nil)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	motion := motions.Motion{
		MotionID:        "motion-1",
		MeetingID:       "meeting-1",
		Name:            "Legacy import",
		DurationMinutes: 10,
		SeatCount:       1,
		Status:          motions.StatusNotYetStarted,
	}
	if err := db.Create(&motion).Error; err != nil {
		t.Fatalf("failed to seed motion: %v", err)
	}
	if err := db.Model(&motions.Motion{}).Where("motion_id = ?", "motion-1").Update("seat_count", 0).Error; err != nil {
		t.Fatalf("failed to zero seat count: %v", err)
	}

	if err := backfillMotionSeatCount(db); err != nil {
		t.Fatalf("backfill failed: %v", err)
	}
	var repaired motions.Motion
	if err := db.Where("motion_id = ?", "motion-1").Take(&repaired).Error; err != nil {
		t.Fatalf("failed to reload motion: %v", err)
	}
	if repaired.SeatCount != 1 {
		t.Fatalf("seat count = %d, want 1", repaired.SeatCount)
	}
}

func TestUniqueVoteIndexEnforced(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "plenum.db"), nil)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if err := db.Create(&votes.Vote{VoteID: "vote-1", UserID: "u1", MotionID: "m1"}).Error; err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if err := db.Create(&votes.Vote{VoteID: "vote-2", UserID: "u1", MotionID: "m1"}).Error; err == nil {
		t.Fatalf("duplicate (user, motion) insert must violate the unique index")
	}
	if err := db.Create(&votes.Vote{VoteID: "vote-3", UserID: "u1", MotionID: "m2"}).Error; err != nil {
		t.Fatalf("other motion insert failed: %v", err)
	}
}
