package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultRoomType        = "living room"
	DefaultStylePreference = "modern"
)

// Room represents one user's uploaded photo and its optional AI-generated redesign.
// OwnerID is the subject of the caller's token; it is not checked against a user
// store, mirroring the rest of the system where identity is issued elsewhere.
type Room struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID             uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	OriginalImagePath   string    `gorm:"size:512;not null" json:"original_image_path"`
	GeneratedDesignPath string    `gorm:"size:512" json:"generated_design_path,omitempty"`
	RoomType            string    `gorm:"size:64;default:'living room'" json:"room_type"`
	StylePreference     string    `gorm:"size:64;default:'modern'" json:"style_preference"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate generates a UUID and applies label defaults if not set
func (r *Room) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.RoomType == "" {
		r.RoomType = DefaultRoomType
	}
	if r.StylePreference == "" {
		r.StylePreference = DefaultStylePreference
	}
	return nil
}
