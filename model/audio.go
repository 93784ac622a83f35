package model

import "time"

// Audio represents one uploaded clip. The payload itself is embedded in
// AudioURL, either as a data URI (data:<mime>;base64,<payload>) or, when
// object storage is enabled, as a /media/... path served from MinIO.
type Audio struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID       int64     `json:"userId" gorm:"index;not null"`
	Title        string    `json:"title" gorm:"size:255;not null"`
	Description  string    `json:"description" gorm:"type:text"`
	AudioURL     string    `json:"audioUrl" gorm:"type:longtext;not null"`
	FileSize     int64     `json:"fileSize"`
	IsPublic     bool      `json:"isPublic" gorm:"index;default:true"`
	Plays        int64     `json:"plays" gorm:"default:0"`
	WhatsappLink string    `json:"whatsappLink,omitempty" gorm:"type:text"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName keeps the table name aligned with the users table managed in db.
func (Audio) TableName() string {
	return "audios"
}

// PublicAudio is an audio record joined with the owner's public fields,
// returned by the explore feed and single-record lookups.
type PublicAudio struct {
	Audio
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}
