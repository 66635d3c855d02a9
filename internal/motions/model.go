package motions

import "time"

// Motion is a vote-able proposal with a bounded voting window.
type Motion struct {
	MotionID        string     `gorm:"column:motion_id;primaryKey;size:36"`
	MeetingID       string     `gorm:"column:meeting_id;size:36;not null;index"`
	Name            string     `gorm:"column:name;size:320;not null"`
	Description     string     `gorm:"column:description"`
	DurationMinutes int        `gorm:"column:duration_minutes;not null"`
	SeatCount       int        `gorm:"column:seat_count;not null;default:1"`
	Status          Status     `gorm:"column:status;size:32;not null;default:not_yet_started"`
	VotingPoolID    *string    `gorm:"column:voting_pool_id;size:36"`
	VotingStartedAt *time.Time `gorm:"column:voting_started_at"`
	VotingEndedAt   *time.Time `gorm:"column:voting_ended_at"`
	EndOverride     *time.Time `gorm:"column:end_override"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`

	Choices []Choice `gorm:"foreignKey:MotionID;references:MotionID;constraint:OnDelete:CASCADE"`
}

// TableName exposes the table backing motions.
func (Motion) TableName() string {
	return "motions"
}

// Choice is an option belonging to exactly one motion.
type Choice struct {
	ChoiceID  string    `gorm:"column:choice_id;primaryKey;size:36"`
	MotionID  string    `gorm:"column:motion_id;size:36;not null;index"`
	Name      string    `gorm:"column:name;size:320;not null"`
	SortOrder int       `gorm:"column:sort_order;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName exposes the table backing motion choices.
func (Choice) TableName() string {
	return "motion_choices"
}

// HasChoice reports whether the identifier names a choice of this motion.
func (m Motion) HasChoice(choiceID string) bool {
	for _, choice := range m.Choices {
		if choice.ChoiceID == choiceID {
			return true
		}
	}
	return false
}
