package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/soundweave/indexer/internal/domain"
)

// RewardOutbox holds a block's reward events between the commit transaction
// that produced them and their delivery to the event bus. Rows are written
// inside CommitBlock and deleted once the bus has accepted them, so a crash
// between commit and dispatch leaves the events pending instead of lost.
type RewardOutbox struct {
	ID          uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	Chain       domain.Chain   `gorm:"column:chain;not null;type:text;index"`
	BlockNumber uint64         `gorm:"column:block_number;not null;index"`
	Payload     datatypes.JSON `gorm:"column:payload;not null;type:jsonb"`
	CreatedAt   time.Time      `gorm:"column:created_at;not null;autoCreateTime"`
}

// TableName specifies the table name for the RewardOutbox model
func (RewardOutbox) TableName() string {
	return "reward_outbox"
}
