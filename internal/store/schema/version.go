package schema

import (
	"time"

	"github.com/soundweave/indexer/internal/domain"
)

// VersionColumns are the columns every versioned entity table carries.
// Rows are immutable: a mutation inserts a new row and flips the prior
// current row to is_current = false in the same database transaction.
// For a given entity_id at most one committed row has is_current = true.
type VersionColumns struct {
	// EntityID is the chain-assigned id of the entity
	EntityID int64 `gorm:"column:entity_id;not null;index"`
	// Chain identifies which chain produced this version
	Chain domain.Chain `gorm:"column:chain;not null;type:text"`
	// IsCurrent marks the single live version of the entity
	IsCurrent bool `gorm:"column:is_current;not null;default:false;index"`
	// BlockNumber is the height (or slot) the version was committed at
	BlockNumber uint64 `gorm:"column:block_number;not null;index"`
	// BlockHash is the hash of the block containing the mutation
	BlockHash string `gorm:"column:block_hash;not null;type:text"`
	// TxHash is the transaction that produced this version
	TxHash string `gorm:"column:tx_hash;not null;type:text"`
	// Slot is set for slot-addressed chains, nil otherwise
	Slot *uint64 `gorm:"column:slot;type:bigint"`
	// CreatedAt is the timestamp when this version was indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}
