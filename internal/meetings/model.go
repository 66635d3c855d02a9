package meetings

import "time"

// Meeting groups motions and carries the pool used for quorum.
type Meeting struct {
	MeetingID          string     `gorm:"column:meeting_id;primaryKey;size:36"`
	Name               string     `gorm:"column:name;size:320;not null"`
	StartDate          time.Time  `gorm:"column:start_date;not null"`
	EndDate            time.Time  `gorm:"column:end_date;not null"`
	QuorumVotingPoolID string     `gorm:"column:quorum_voting_pool_id;size:36;not null"`
	QuorumCalledAt     *time.Time `gorm:"column:quorum_called_at"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName exposes the table backing meetings.
func (Meeting) TableName() string {
	return "meetings"
}

// Pool is a named voter cohort.
type Pool struct {
	PoolID    string    `gorm:"column:pool_id;primaryKey;size:36"`
	Name      string    `gorm:"column:name;size:320;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName exposes the table backing voter pools.
func (Pool) TableName() string {
	return "voting_pools"
}

// PoolMember links a user into a pool.
type PoolMember struct {
	PoolID    string    `gorm:"column:pool_id;primaryKey;size:36"`
	UserID    string    `gorm:"column:user_id;primaryKey;size:36"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName exposes the table backing pool membership.
func (PoolMember) TableName() string {
	return "voting_pool_members"
}
