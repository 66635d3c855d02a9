package users

import "time"

// User is an account that can vote, administer, or observe elections.
type User struct {
	UserID       string    `gorm:"column:user_id;primaryKey;size:36"`
	Username     string    `gorm:"column:username;size:190;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;size:120;not null"`
	DisplayName  string    `gorm:"column:display_name;size:320"`
	IsAdmin      bool      `gorm:"column:is_admin;not null;default:false"`
	IsWatcher    bool      `gorm:"column:is_watcher;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName exposes the table backing user accounts.
func (User) TableName() string {
	return "users"
}
