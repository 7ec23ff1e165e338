package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/soundweave/indexer/internal/domain"
)

// SkippedTransaction is the audit record of a transaction that failed
// validation and was excluded from the applied state. Recording it instead
// of aborting keeps a single bad transaction from ever failing its block.
type SkippedTransaction struct {
	ID          uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	Chain       domain.Chain   `gorm:"column:chain;not null;type:text;index"`
	BlockNumber uint64         `gorm:"column:block_number;not null;index"`
	BlockHash   string         `gorm:"column:block_hash;not null;type:text"`
	TxHash      string         `gorm:"column:tx_hash;not null;type:text"`
	Reason      string         `gorm:"column:reason;not null;type:text"`
	Raw         datatypes.JSON `gorm:"column:raw;type:jsonb"`
	CreatedAt   time.Time      `gorm:"column:created_at;not null;autoCreateTime"`
}

// TableName specifies the table name for the SkippedTransaction model
func (SkippedTransaction) TableName() string {
	return "skipped_transactions"
}
