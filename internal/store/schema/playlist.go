package schema

import (
	"gorm.io/datatypes"
)

// Playlist represents one version of a playlist or album
type Playlist struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`

	VersionColumns `gorm:"embedded"`

	// OwnerID references the owning user's entity id
	OwnerID int64 `gorm:"column:owner_id;not null;index"`
	// Name is the playlist name
	Name string `gorm:"column:name;not null;type:text"`
	// TrackIDs is the ordered list of track entity ids as JSON
	TrackIDs datatypes.JSON `gorm:"column:track_ids;type:jsonb"`
	// IsAlbum distinguishes albums from playlists
	IsAlbum bool `gorm:"column:is_album;not null;default:false"`
	// IsDelete marks the terminal version of a deleted playlist
	IsDelete bool `gorm:"column:is_delete;not null;default:false"`
}

// TableName specifies the table name for the Playlist model
func (Playlist) TableName() string {
	return "playlists"
}
