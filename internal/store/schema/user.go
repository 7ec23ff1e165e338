package schema

// User represents one version of a user profile
type User struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`

	VersionColumns `gorm:"embedded"`

	// Wallet is the authority address recorded at creation; mutation
	// signers must match it or an active delegate
	Wallet string `gorm:"column:wallet;not null;type:text;index"`
	// Handle is the unique short name chosen at creation
	Handle string `gorm:"column:handle;not null;type:text"`
	// Name is the display name
	Name string `gorm:"column:name;type:text"`
	// Bio is the free-form profile text
	Bio string `gorm:"column:bio;type:text"`
	// Verified marks externally verified accounts
	Verified bool `gorm:"column:verified;not null;default:false"`
	// IsDelete marks the terminal version of a deleted user
	IsDelete bool `gorm:"column:is_delete;not null;default:false"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}
