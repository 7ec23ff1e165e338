package schema

import "time"

// Checkpoint is the durable marker of the last fully-applied ingestion
// position for a scope (chain or table name). It is only ever written inside
// the same database transaction as the mutations it certifies.
type Checkpoint struct {
	Scope     string    `gorm:"column:scope;primaryKey;type:text"`
	Position  uint64    `gorm:"column:position;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for the Checkpoint model
func (Checkpoint) TableName() string {
	return "checkpoints"
}
