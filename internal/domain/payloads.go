package domain

// UserPayload is the decoded payload of a user mutation
type UserPayload struct {
	Wallet   string `json:"wallet"`
	Handle   string `json:"handle"`
	Name     string `json:"name"`
	Bio      string `json:"bio,omitempty"`
	Verified bool   `json:"verified,omitempty"`
}

// TrackPayload is the decoded payload of a track mutation
type TrackPayload struct {
	OwnerID  int64  `json:"owner_id"`
	Title    string `json:"title"`
	Duration int64  `json:"duration,omitempty"`
	Genre    string `json:"genre,omitempty"`
}

// PlaylistPayload is the decoded payload of a playlist mutation
type PlaylistPayload struct {
	OwnerID  int64   `json:"owner_id"`
	Name     string  `json:"name"`
	TrackIDs []int64 `json:"track_ids,omitempty"`
	IsAlbum  bool    `json:"is_album,omitempty"`
}

// DelegatePayload is the decoded payload of a delegate grant/revoke
type DelegatePayload struct {
	UserID          int64  `json:"user_id"`
	DelegateAddress string `json:"delegate_address"`
}

// NotificationPayload is the decoded payload of a notification mutation.
// The only mutation after CREATE is VIEW, which must be signed by the
// addressed user.
type NotificationPayload struct {
	UserID  int64  `json:"user_id"`
	GroupID string `json:"group_id,omitempty"`
}
