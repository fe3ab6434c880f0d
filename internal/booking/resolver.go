package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"meeting-room-backend/internal/model"
	"meeting-room-backend/internal/store"
)

// Requester identifies who is acting on a booking. Admins may act on any
// booking; everyone else only sees their own.
type Requester struct {
	UserID int64
	Admin  bool
}

func (r Requester) canSee(b *model.Booking) bool {
	return r.Admin || b.UserID == r.UserID
}

// Proposal is a candidate booking that has not been persisted yet.
type Proposal struct {
	RoomID  int64
	OwnerID int64
	Start   time.Time
	End     time.Time
}

// Reschedule moves an existing booking. Nil fields keep their stored value.
type Reschedule struct {
	BookingID int64
	By        Requester
	Start     *time.Time
	End       *time.Time
}

// Availability is the read-only answer for a room and interval.
type Availability struct {
	Available bool            `json:"available"`
	Conflicts []model.Booking `json:"conflicting_bookings"`
}

// Resolver admits bookings into a room's schedule. The check-then-write
// sequence for a room runs under an in-process per-room lock and inside a
// store transaction that locks the room row, so at most one of several
// overlapping proposals for the same room can win. Different rooms never
// contend.
type Resolver struct {
	store     store.BookingStore
	validator *Validator
	locks     *roomLocks
	log       *zap.Logger
}

// NewResolver creates a Resolver.
func NewResolver(s store.BookingStore, v *Validator, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		store:     s,
		validator: v,
		locks:     newRoomLocks(),
		log:       log,
	}
}

// ProposeBooking validates p and, when the slot is free, persists it as a
// confirmed booking.
func (r *Resolver) ProposeBooking(ctx context.Context, p Proposal) (*model.Booking, error) {
	if err := r.requireActiveRoom(ctx, p.RoomID); err != nil {
		return nil, err
	}
	if err := r.validator.ValidateInterval(p.Start, p.End); err != nil {
		r.log.Debug("booking proposal rejected", zap.Int64("room_id", p.RoomID), zap.Error(err))
		return nil, err
	}

	b := &model.Booking{
		UserID:    p.OwnerID,
		RoomID:    p.RoomID,
		StartTime: p.Start,
		EndTime:   p.End,
		Status:    model.BookingStatusConfirmed,
	}
	err := r.admit(ctx, p.RoomID, p.Start, p.End, 0, func(tx store.BookingStore) error {
		return tx.InsertBooking(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	r.log.Info("booking confirmed",
		zap.Int64("booking_id", b.ID),
		zap.Int64("room_id", b.RoomID),
		zap.Int64("owner_id", b.UserID),
		zap.Time("start", b.StartTime),
		zap.Time("end", b.EndTime),
	)
	return b, nil
}

// ProposeUpdate moves a confirmed booking to a new interval. The merged
// interval is re-validated and checked against every other confirmed
// booking of the room.
func (r *Resolver) ProposeUpdate(ctx context.Context, u Reschedule) (*model.Booking, error) {
	current, err := r.Lookup(ctx, u.BookingID, u.By)
	if err != nil {
		return nil, err
	}
	if u.Start == nil && u.End == nil {
		return current, nil
	}
	if !current.IsConfirmed() {
		return nil, ErrBookingCancelled
	}

	if err := r.validator.ValidatePartial(u.Start, u.End); err != nil {
		r.log.Debug("booking update rejected", zap.Int64("booking_id", u.BookingID), zap.Error(err))
		return nil, err
	}
	start, end := current.StartTime, current.EndTime
	if u.Start != nil {
		start = *u.Start
	}
	if u.End != nil {
		end = *u.End
	}
	// ValidatePartial skips duration when only one side moved.
	if err := r.validator.ValidateDuration(start, end); err != nil {
		r.log.Debug("booking update rejected", zap.Int64("booking_id", u.BookingID), zap.Error(err))
		return nil, err
	}

	if err := r.requireActiveRoom(ctx, current.RoomID); err != nil {
		return nil, err
	}

	var updated *model.Booking
	err = r.admit(ctx, current.RoomID, start, end, current.ID, func(tx store.BookingStore) error {
		b, err := tx.FindBooking(ctx, current.ID)
		if err != nil {
			return err
		}
		if !b.IsConfirmed() {
			return ErrBookingCancelled
		}
		b.StartTime, b.EndTime = start, end
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.log.Info("booking rescheduled",
		zap.Int64("booking_id", updated.ID),
		zap.Int64("room_id", updated.RoomID),
		zap.Time("start", updated.StartTime),
		zap.Time("end", updated.EndTime),
	)
	return updated, nil
}

// CheckAvailability reports whether [start, end) is free in the room,
// using the same overlap predicate as ProposeBooking. Nothing is written.
func (r *Resolver) CheckAvailability(ctx context.Context, roomID int64, start, end time.Time) (Availability, error) {
	if err := r.requireActiveRoom(ctx, roomID); err != nil {
		return Availability{}, err
	}
	if err := r.validator.ValidateOrder(start, end); err != nil {
		return Availability{}, err
	}

	existing, err := r.store.FindConfirmedBookings(ctx, roomID, 0)
	if err != nil {
		return Availability{}, fmt.Errorf("load bookings: %w", err)
	}
	conflicts := overlapping(existing, start, end)
	return Availability{Available: len(conflicts) == 0, Conflicts: conflicts}, nil
}

// Cancel moves a booking to cancelled. Cancelling twice returns the booking unchanged.
func (r *Resolver) Cancel(ctx context.Context, bookingID int64, by Requester) (*model.Booking, error) {
	current, err := r.Lookup(ctx, bookingID, by)
	if err != nil {
		return nil, err
	}
	if !current.IsConfirmed() {
		return current, nil
	}

	// Cancel shares the room lock with reschedules so a concurrent update
	// cannot write a cancelled booking back as confirmed.
	release, err := r.locks.acquire(ctx, current.RoomID)
	if err != nil {
		return nil, err
	}
	defer release()

	var cancelled *model.Booking
	err = r.store.WithRoomLock(ctx, current.RoomID, func(tx store.BookingStore) error {
		b, err := tx.FindBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.IsConfirmed() {
			b.Status = model.BookingStatusCancelled
			if err := tx.UpdateBooking(ctx, b); err != nil {
				return err
			}
		}
		cancelled = b
		return nil
	})
	if err != nil {
		return nil, r.infraError("cancel booking", err)
	}

	r.log.Info("booking cancelled",
		zap.Int64("booking_id", cancelled.ID),
		zap.Int64("room_id", cancelled.RoomID),
		zap.Int64("by_user_id", by.UserID),
		zap.Bool("admin", by.Admin),
	)
	return cancelled, nil
}

// Lookup loads a booking the requester is allowed to see.
func (r *Resolver) Lookup(ctx context.Context, bookingID int64, by Requester) (*model.Booking, error) {
	b, err := r.store.FindBooking(ctx, bookingID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load booking %d: %w", bookingID, err)
	}
	if !by.canSee(b) {
		return nil, ErrNotFound
	}
	return b, nil
}

// admit runs the room's critical section: re-check the room, scan the
// confirmed bookings other than excludeID, and call write when nothing
// overlaps [start, end).
func (r *Resolver) admit(ctx context.Context, roomID int64, start, end time.Time, excludeID int64, write func(tx store.BookingStore) error) error {
	release, err := r.locks.acquire(ctx, roomID)
	if err != nil {
		return err
	}
	defer release()

	err = r.store.WithRoomLock(ctx, roomID, func(tx store.BookingStore) error {
		room, err := tx.FindRoom(ctx, roomID)
		if err != nil {
			return err
		}
		if !room.IsActive {
			return ErrRoomUnavailable
		}

		existing, err := tx.FindConfirmedBookings(ctx, roomID, excludeID)
		if err != nil {
			return err
		}
		if conflicts := overlapping(existing, start, end); len(conflicts) > 0 {
			return &ConflictError{Bookings: conflicts}
		}
		return write(tx)
	})

	var conflict *ConflictError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &conflict):
		r.log.Info("booking conflict",
			zap.Int64("room_id", roomID),
			zap.Int64s("conflicting_ids", conflict.IDs()),
		)
		return err
	case errors.Is(err, store.ErrOverlap):
		// The database constraint caught a writer outside this process.
		existing, findErr := r.store.FindConfirmedBookings(ctx, roomID, excludeID)
		if findErr != nil {
			return &ConflictError{}
		}
		return &ConflictError{Bookings: overlapping(existing, start, end)}
	case errors.Is(err, store.ErrNotFound):
		return ErrRoomUnavailable
	case errors.Is(err, ErrRoomUnavailable), errors.Is(err, ErrBookingCancelled):
		return err
	default:
		return r.infraError("admit booking", err)
	}
}

func (r *Resolver) requireActiveRoom(ctx context.Context, roomID int64) error {
	room, err := r.store.FindRoom(ctx, roomID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrRoomUnavailable
	}
	if err != nil {
		return r.infraError("load room", err)
	}
	if !room.IsActive {
		return ErrRoomUnavailable
	}
	return nil
}

func (r *Resolver) infraError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	r.log.Error(op+" failed", zap.Error(err))
	return fmt.Errorf("%s: %w", op, err)
}

// overlapping returns the bookings that intersect [start, end).
func overlapping(existing []model.Booking, start, end time.Time) []model.Booking {
	var out []model.Booking
	for i := range existing {
		if existing[i].Overlaps(start, end) {
			out = append(out, existing[i])
		}
	}
	return out
}
