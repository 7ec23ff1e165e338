package schema

import "time"

// Challenge is the static configuration of one reward challenge, reconciled
// from the challenge catalog at startup. Immutable during normal operation
// except for catalog-driven amount/step/active updates.
type Challenge struct {
	ID            string `gorm:"column:id;primaryKey;type:text"`
	Type          string `gorm:"column:type;not null;type:text"`
	Amount        int64  `gorm:"column:amount;not null"`
	StepCount     int64  `gorm:"column:step_count;not null"`
	StartingBlock uint64 `gorm:"column:starting_block;not null;default:0"`
	// no default tag: gorm omits zero-value fields that carry one, which
	// would turn an Active=false upsert into the column default
	Active       bool      `gorm:"column:active;not null"`
	CooldownDays int       `gorm:"column:cooldown_days;not null;default:0"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for the Challenge model
func (Challenge) TableName() string {
	return "challenges"
}

// UserChallenge is one user's progress against one challenge instance.
// Exactly one row exists per (challenge_id, user_id, specifier); is_complete
// never reverses, and a completed row is never mutated again.
type UserChallenge struct {
	ID                   uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	ChallengeID          string    `gorm:"column:challenge_id;not null;type:text;uniqueIndex:idx_user_challenges_instance,priority:1"`
	UserID               int64     `gorm:"column:user_id;not null;uniqueIndex:idx_user_challenges_instance,priority:2"`
	Specifier            string    `gorm:"column:specifier;not null;type:text;uniqueIndex:idx_user_challenges_instance,priority:3"`
	CurrentStepCount     int64     `gorm:"column:current_step_count;not null;default:0"`
	IsComplete           bool      `gorm:"column:is_complete;not null;default:false"`
	Amount               int64     `gorm:"column:amount;not null;default:0"`
	CompletedBlocknumber *uint64   `gorm:"column:completed_blocknumber;type:bigint"`
	CreatedAt            time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for the UserChallenge model
func (UserChallenge) TableName() string {
	return "user_challenges"
}
