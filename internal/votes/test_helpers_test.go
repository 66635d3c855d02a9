package votes

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/plenumlab/plenum/internal/meetings"
	"github.com/plenumlab/plenum/internal/motions"
	"gorm.io/gorm"
)

var fixtureStart = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func openTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "plenum.db")), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	err = db.AutoMigrate(
		&meetings.Pool{},
		&meetings.PoolMember{},
		&meetings.Meeting{},
		&motions.Motion{},
		&motions.Choice{},
		&Vote{},
		&VoteChoice{},
	)
	if err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

// seedElection creates a pool with voter-1, a meeting on that pool, and one
// two-choice motion in the given status. A non-nil startedAt marks the motion
// as having begun voting at that instant.
func seedElection(t *testing.T, db *gorm.DB, status motions.Status, startedAt *time.Time) motions.Motion {
	t.Helper()

	pool := meetings.Pool{PoolID: "pool-1", Name: "Delegates"}
	if err := db.Create(&pool).Error; err != nil {
		t.Fatalf("failed to seed pool: %v", err)
	}
	if err := db.Create(&meetings.PoolMember{PoolID: "pool-1", UserID: "voter-1"}).Error; err != nil {
		t.Fatalf("failed to seed pool member: %v", err)
	}
	meeting := meetings.Meeting{
		MeetingID:          "meeting-1",
		Name:               "Annual General Meeting",
		StartDate:          fixtureStart.Add(-time.Hour),
		EndDate:            fixtureStart.Add(8 * time.Hour),
		QuorumVotingPoolID: "pool-1",
	}
	if err := db.Create(&meeting).Error; err != nil {
		t.Fatalf("failed to seed meeting: %v", err)
	}

	motion := motions.Motion{
		MotionID:        "motion-1",
		MeetingID:       "meeting-1",
		Name:            "Elect the treasurer",
		DurationMinutes: 10,
		SeatCount:       1,
		Status:          status,
		VotingStartedAt: startedAt,
	}
	if err := db.Create(&motion).Error; err != nil {
		t.Fatalf("failed to seed motion: %v", err)
	}

	choiceA := motions.Choice{ChoiceID: "choice-a", MotionID: "motion-1", Name: "Anderson", SortOrder: 0}
	choiceB := motions.Choice{ChoiceID: "choice-b", MotionID: "motion-1", Name: "Baker", SortOrder: 1}
	for _, choice := range []motions.Choice{choiceA, choiceB} {
		if err := db.Create(&choice).Error; err != nil {
			t.Fatalf("failed to seed choice: %v", err)
		}
	}

	motion.Choices = []motions.Choice{choiceA, choiceB}
	return motion
}

func poolFixture(poolID, name string) meetings.Pool {
	return meetings.Pool{PoolID: poolID, Name: name}
}

func newTestService(t *testing.T, db *gorm.DB, now time.Time) *Service {
	t.Helper()
	service, err := NewService(ServiceConfig{
		Database: db,
		Clock:    func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return service
}
