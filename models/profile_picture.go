package models

// ProfilePicture is one stored image owned by a user. At most one picture per
// user carries IsDefault at any committed state; the picture repository keeps
// that invariant transactionally.
type ProfilePicture struct {
	Model
	UserID       uint   `json:"user_id" gorm:"not null;index"`
	Filename     string `json:"filename" gorm:"size:255;not null"`
	URL          string `json:"url" gorm:"size:500;not null"`
	ThumbnailURL string `json:"thumbnail_url,omitempty" gorm:"size:500"`
	IsDefault    bool   `json:"is_default" gorm:"default:false"`
}
