package model

import "time"

// User is an account that can own bookings. Admins manage rooms and see every booking.
type User struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	Email          string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	HashedPassword string    `gorm:"not null" json:"-"`
	IsActive       bool      `gorm:"not null" json:"is_active"`
	IsAdmin        bool      `gorm:"not null" json:"is_admin"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
