package schema

// Track represents one version of a track
type Track struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`

	VersionColumns `gorm:"embedded"`

	// OwnerID references the owning user's entity id
	OwnerID int64 `gorm:"column:owner_id;not null;index"`
	// Title is the track title
	Title string `gorm:"column:title;not null;type:text"`
	// Duration is the track length in seconds
	Duration int64 `gorm:"column:duration;not null;default:0"`
	// Genre is the free-form genre label
	Genre string `gorm:"column:genre;type:text"`
	// IsDelete marks the terminal version of a deleted track
	IsDelete bool `gorm:"column:is_delete;not null;default:false"`
}

// TableName specifies the table name for the Track model
func (Track) TableName() string {
	return "tracks"
}
