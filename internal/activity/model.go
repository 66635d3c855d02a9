package activity

import "time"

// Log is one append-only record of an authenticated request. Rows are only
// read in aggregate for quorum and are never updated by application logic.
type Log struct {
	LogID     uint      `gorm:"column:log_id;primaryKey;autoIncrement"`
	UserID    string    `gorm:"column:user_id;size:36;not null;index"`
	Path      string    `gorm:"column:path;size:512;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null;index"`
}

// TableName exposes the table backing activity logs.
func (Log) TableName() string {
	return "activity_logs"
}
