package votes

import "time"

// Vote is one immutable ballot. The unique index on (user_id, motion_id) is
// the authoritative duplicate-vote guard; there is no update or delete path.
type Vote struct {
	VoteID    string    `gorm:"column:vote_id;primaryKey;size:36"`
	UserID    string    `gorm:"column:user_id;size:36;not null;uniqueIndex:idx_votes_user_motion"`
	MotionID  string    `gorm:"column:motion_id;size:36;not null;uniqueIndex:idx_votes_user_motion"`
	Abstain   bool      `gorm:"column:abstain;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`

	Choices []VoteChoice `gorm:"foreignKey:VoteID;references:VoteID;constraint:OnDelete:CASCADE"`
}

// TableName exposes the table backing votes.
func (Vote) TableName() string {
	return "votes"
}

// VoteChoice associates a non-abstaining vote with one selected choice.
// Abstaining votes have no rows here.
type VoteChoice struct {
	VoteID   string `gorm:"column:vote_id;primaryKey;size:36"`
	ChoiceID string `gorm:"column:choice_id;primaryKey;size:36;index"`
}

// TableName exposes the table backing vote choice selections.
func (VoteChoice) TableName() string {
	return "vote_choices"
}
