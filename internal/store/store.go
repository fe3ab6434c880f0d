package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"meeting-room-backend/internal/model"
)

// BookingStore is the data access the booking core depends on.
type BookingStore interface {
	FindRoom(ctx context.Context, id int64) (*model.Room, error)
	FindBooking(ctx context.Context, id int64) (*model.Booking, error)
	// FindConfirmedBookings returns the room's confirmed bookings ordered by
	// start time. A non-zero excludingID leaves that booking out.
	FindConfirmedBookings(ctx context.Context, roomID, excludingID int64) ([]model.Booking, error)
	InsertBooking(ctx context.Context, b *model.Booking) error
	UpdateBooking(ctx context.Context, b *model.Booking) error
	// WithRoomLock runs fn in a transaction holding a row lock on the room.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithRoomLock(ctx context.Context, roomID int64, fn func(tx BookingStore) error) error
}

// Store defines the interface for all database operations.
type Store interface {
	BookingStore

	ListRooms(ctx context.Context, f RoomFilter) ([]model.Room, error)
	CreateRoom(ctx context.Context, r *model.Room) error
	SaveRoom(ctx context.Context, r *model.Room) error

	ListUserBookings(ctx context.Context, userID int64) ([]model.Booking, error)
	ListBookings(ctx context.Context, f BookingFilter) ([]model.Booking, error)

	CreateUser(ctx context.Context, u *model.User) error
	FindUser(ctx context.Context, id int64) (*model.User, error)
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context, p Page) ([]model.User, error)
	SaveUser(ctx context.Context, u *model.User) error

	Stats(ctx context.Context) (Stats, error)
	Ping(ctx context.Context) error
}

// Page is an offset/limit window.
type Page struct {
	Offset int
	Limit  int
}

// RoomFilter narrows ListRooms.
type RoomFilter struct {
	Page
	IncludeInactive bool
}

// BookingFilter narrows ListBookings. Zero fields are ignored.
type BookingFilter struct {
	Page
	RoomID int64
	From   time.Time // start_time >= From
	To     time.Time // start_time <= To
}

// Stats is a snapshot of row counts for the admin dashboard.
type Stats struct {
	TotalRooms     int64 `json:"total_rooms"`
	ActiveRooms    int64 `json:"active_rooms"`
	TotalBookings  int64 `json:"total_bookings"`
	ActiveBookings int64 `json:"active_bookings"`
	TotalUsers     int64 `json:"total_users"`
}

const defaultLimit = 100

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) FindRoom(ctx context.Context, id int64) (*model.Room, error) {
	var room model.Room
	if err := s.db.WithContext(ctx).First(&room, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &room, nil
}

func (s *gormStore) FindBooking(ctx context.Context, id int64) (*model.Booking, error) {
	var booking model.Booking
	if err := s.db.WithContext(ctx).Preload("Room").First(&booking, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &booking, nil
}

func (s *gormStore) FindConfirmedBookings(ctx context.Context, roomID, excludingID int64) ([]model.Booking, error) {
	q := s.db.WithContext(ctx).
		Where("room_id = ? AND status = ?", roomID, model.BookingStatusConfirmed)
	if excludingID != 0 {
		q = q.Where("id <> ?", excludingID)
	}

	var bookings []model.Booking
	if err := q.Order("start_time").Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("find confirmed bookings for room %d: %w", roomID, err)
	}
	return bookings, nil
}

func (s *gormStore) InsertBooking(ctx context.Context, b *model.Booking) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(b).Error; err != nil {
		return translateError(err)
	}
	return nil
}

func (s *gormStore) UpdateBooking(ctx context.Context, b *model.Booking) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(b).Error; err != nil {
		return translateError(err)
	}
	return nil
}

func (s *gormStore) WithRoomLock(ctx context.Context, roomID int64, fn func(tx BookingStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// SQLite has no row locks; its dialector drops the clause and the
		// transaction itself serialises writers.
		var room model.Room
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&room, roomID).Error; err != nil {
			return translateError(err)
		}
		return fn(&gormStore{db: tx})
	})
}

func (s *gormStore) ListRooms(ctx context.Context, f RoomFilter) ([]model.Room, error) {
	q := s.db.WithContext(ctx).Model(&model.Room{})
	if !f.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}

	var rooms []model.Room
	if err := paginate(q, f.Page).Order("id").Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// CreateRoom inserts a room. Names are unique and compared case-sensitively.
func (s *gormStore) CreateRoom(ctx context.Context, r *model.Room) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureRoomNameFree(tx, r.Name, 0); err != nil {
			return err
		}
		return translateError(tx.Create(r).Error)
	})
}

// SaveRoom persists every field of an existing room.
func (s *gormStore) SaveRoom(ctx context.Context, r *model.Room) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureRoomNameFree(tx, r.Name, r.ID); err != nil {
			return err
		}
		return translateError(tx.Save(r).Error)
	})
}

func ensureRoomNameFree(tx *gorm.DB, name string, ownID int64) error {
	var count int64
	if err := tx.Model(&model.Room{}).
		Where("name = ? AND id <> ?", name, ownID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("check room name: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: room name %q", ErrDuplicate, name)
	}
	return nil
}

func (s *gormStore) ListUserBookings(ctx context.Context, userID int64) ([]model.Booking, error) {
	var bookings []model.Booking
	if err := s.db.WithContext(ctx).
		Preload("Room").
		Where("user_id = ?", userID).
		Order("start_time").
		Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("list bookings of user %d: %w", userID, err)
	}
	return bookings, nil
}

func (s *gormStore) ListBookings(ctx context.Context, f BookingFilter) ([]model.Booking, error) {
	q := s.db.WithContext(ctx).Model(&model.Booking{}).Preload("Room").Preload("User")
	if f.RoomID != 0 {
		q = q.Where("room_id = ?", f.RoomID)
	}
	if !f.From.IsZero() {
		q = q.Where("start_time >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("start_time <= ?", f.To)
	}

	var bookings []model.Booking
	if err := paginate(q, f.Page).Order("start_time").Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

func (s *gormStore) CreateUser(ctx context.Context, u *model.User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.User{}).Where("email = ?", u.Email).Count(&count).Error; err != nil {
			return fmt.Errorf("check user email: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: email %q", ErrDuplicate, u.Email)
		}
		return translateError(tx.Create(u).Error)
	})
}

func (s *gormStore) FindUser(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (s *gormStore) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (s *gormStore) ListUsers(ctx context.Context, p Page) ([]model.User, error) {
	var users []model.User
	if err := paginate(s.db.WithContext(ctx), p).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *gormStore) SaveUser(ctx context.Context, u *model.User) error {
	return translateError(s.db.WithContext(ctx).Save(u).Error)
}

func (s *gormStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	db := s.db.WithContext(ctx)

	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&st.TotalRooms, db.Model(&model.Room{})},
		{&st.ActiveRooms, db.Model(&model.Room{}).Where("is_active = ?", true)},
		{&st.TotalBookings, db.Model(&model.Booking{})},
		{&st.ActiveBookings, db.Model(&model.Booking{}).Where("status = ?", model.BookingStatusConfirmed)},
		{&st.TotalUsers, db.Model(&model.User{})},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return Stats{}, fmt.Errorf("collect stats: %w", err)
		}
	}
	return st, nil
}

func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func paginate(q *gorm.DB, p Page) *gorm.DB {
	limit := p.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	return q.Offset(offset).Limit(limit)
}
