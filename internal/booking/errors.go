package booking

import (
	"errors"
	"fmt"
	"strings"

	"meeting-room-backend/internal/model"
)

var (
	// ErrRoomUnavailable is returned when the room does not exist or has been deactivated.
	ErrRoomUnavailable = errors.New("room not found or inactive")
	// ErrNotFound is returned when the booking does not exist or is not visible to the requester.
	ErrNotFound = errors.New("booking not found")
	// ErrBookingCancelled is returned when rescheduling a cancelled booking.
	ErrBookingCancelled = errors.New("booking is cancelled")
	// ErrSlotConflict matches every *ConflictError.
	ErrSlotConflict = errors.New("room is already booked for this time slot")
)

// Reason names the business rule a proposal violated.
type Reason string

const (
	OutsideBusinessHours Reason = "outside_business_hours"
	InvalidGranularity   Reason = "invalid_granularity"
	NonPositiveDuration  Reason = "non_positive_duration"
	DurationTooShort     Reason = "duration_too_short"
	DurationTooLong      Reason = "duration_too_long"
	EndBeforeStart       Reason = "end_before_start"
)

// Violation is the first rule a single field failed.
type Violation struct {
	Field   string `json:"field"`
	Reason  Reason `json:"reason"`
	Message string `json:"message"`
}

// ValidationError carries at most one violation per field, in evaluation order.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = fmt.Sprintf("%s: %s", v.Field, v.Message)
	}
	return "invalid booking: " + strings.Join(msgs, "; ")
}

// Reason returns the reason of the first violation.
func (e *ValidationError) Reason() Reason {
	if len(e.Violations) == 0 {
		return ""
	}
	return e.Violations[0].Reason
}

// Has reports whether any field failed with r.
func (e *ValidationError) Has(r Reason) bool {
	for _, v := range e.Violations {
		if v.Reason == r {
			return true
		}
	}
	return false
}

// ConflictError reports the confirmed bookings that overlap a proposal.
type ConflictError struct {
	Bookings []model.Booking
}

func (e *ConflictError) Error() string {
	if len(e.Bookings) == 0 {
		return ErrSlotConflict.Error()
	}
	ids := make([]string, len(e.Bookings))
	for i, b := range e.Bookings {
		ids[i] = fmt.Sprint(b.ID)
	}
	return fmt.Sprintf("%s (conflicting bookings: %s)", ErrSlotConflict, strings.Join(ids, ", "))
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrSlotConflict
}

// IDs returns the identifiers of the conflicting bookings.
func (e *ConflictError) IDs() []int64 {
	ids := make([]int64, len(e.Bookings))
	for i, b := range e.Bookings {
		ids[i] = b.ID
	}
	return ids
}
