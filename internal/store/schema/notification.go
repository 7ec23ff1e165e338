package schema

import "time"

// Notification represents one version of a notification. The only mutation
// after CREATE is VIEW, which records SeenAt and must be signed by the
// addressed user.
type Notification struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`

	VersionColumns `gorm:"embedded"`

	// UserID is the addressed user's entity id
	UserID int64 `gorm:"column:user_id;not null;index"`
	// GroupID groups related notifications for display
	GroupID string `gorm:"column:group_id;type:text"`
	// SeenAt is set by the VIEW action, nil while unseen
	SeenAt *time.Time `gorm:"column:seen_at;type:timestamptz"`
}

// TableName specifies the table name for the Notification model
func (Notification) TableName() string {
	return "notifications"
}
