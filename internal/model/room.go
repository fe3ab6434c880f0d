package model

import "time"

// Room is a bookable meeting room. Rooms are soft-deleted by clearing IsActive.
type Room struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Capacity    int       `gorm:"not null" json:"capacity"`
	Amenities   string    `gorm:"type:text" json:"amenities,omitempty"`
	IsActive    bool      `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
