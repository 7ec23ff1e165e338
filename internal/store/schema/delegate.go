package schema

// Delegate represents one version of a delegation grant. An active grant
// authorizes DelegateAddress to sign mutations on behalf of UserID's
// entities.
type Delegate struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`

	VersionColumns `gorm:"embedded"`

	// UserID is the granting user's entity id
	UserID int64 `gorm:"column:user_id;not null;index"`
	// DelegateAddress is the authorized signer address
	DelegateAddress string `gorm:"column:delegate_address;not null;type:text;index"`
	// IsRevoked marks the terminal version of a revoked grant
	IsRevoked bool `gorm:"column:is_revoked;not null;default:false"`
}

// TableName specifies the table name for the Delegate model
func (Delegate) TableName() string {
	return "delegates"
}
