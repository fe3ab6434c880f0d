package model

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking reserves [StartTime, EndTime) of a room for a user.
type Booking struct {
	ID        int64         `gorm:"primaryKey" json:"id"`
	UserID    int64         `gorm:"index;not null" json:"user_id"`
	RoomID    int64         `gorm:"index:idx_bookings_room_status_start,priority:1;not null" json:"room_id"`
	StartTime time.Time     `gorm:"index:idx_bookings_room_status_start,priority:3;not null" json:"start_time"`
	EndTime   time.Time     `gorm:"not null" json:"end_time"`
	Status    BookingStatus `gorm:"index:idx_bookings_room_status_start,priority:2;size:20;not null;default:confirmed" json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	// Associations
	User *User `gorm:"constraint:OnDelete:RESTRICT" json:"user,omitempty"`
	Room *Room `gorm:"constraint:OnDelete:RESTRICT" json:"room,omitempty"`
}

// IsConfirmed reports whether the booking takes part in conflict checks.
func (b *Booking) IsConfirmed() bool {
	return b.Status == BookingStatusConfirmed
}

// Overlaps reports whether the booking intersects the half-open interval [start, end).
// Back-to-back intervals do not overlap.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && b.EndTime.After(start)
}
