package store

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"meeting-room-backend/internal/model"
)

// A helper function to create a mock database connection.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// newSQLiteDB opens an isolated in-memory database with the schema migrated.
func newSQLiteDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Room{}, &model.Booking{}))
	return db
}

func at(hour, minute int) time.Time {
	return time.Date(2030, time.March, 4, hour, minute, 0, 0, time.UTC)
}

func TestGormStore_WithRoomLock_LocksRoomRow(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id" FROM "rooms" WHERE "rooms"."id" = \$1 ORDER BY "rooms"."id" LIMIT \$[0-9]+ FOR UPDATE`).
		WithArgs(int64(5), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE .*room_id = \$1 AND status = \$2.*id <> \$3.*ORDER BY start_time`).
		WithArgs(int64(5), model.BookingStatusConfirmed, int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "room_id", "status"}).AddRow(1, 5, "confirmed"))
	mock.ExpectCommit()

	var seen []model.Booking
	err := s.WithRoomLock(context.Background(), 5, func(tx BookingStore) error {
		var err error
		seen, err = tx.FindConfirmedBookings(context.Background(), 5, 9)
		return err
	})

	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, int64(1), seen[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_WithRoomLock_MissingRoom(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id" FROM "rooms"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	called := false
	err := s.WithRoomLock(context.Background(), 42, func(tx BookingStore) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_InsertBooking_TranslatesConstraintErrors(t *testing.T) {
	testCases := []struct {
		name     string
		pgErr    *pgconn.PgError
		expected error
	}{
		{
			name:     "exclusion violation",
			pgErr:    &pgconn.PgError{Code: "23P01", ConstraintName: "bookings_no_overlap"},
			expected: ErrOverlap,
		},
		{
			name:     "unique violation",
			pgErr:    &pgconn.PgError{Code: "23505", ConstraintName: "bookings_pkey"},
			expected: ErrDuplicate,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newMockDB(t)
			s := NewGormStore(gormDB)

			mock.ExpectBegin()
			mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "bookings"`)).
				WillReturnError(tc.pgErr)
			mock.ExpectRollback()

			err := s.InsertBooking(context.Background(), &model.Booking{
				UserID: 1, RoomID: 1, StartTime: at(9, 0), EndTime: at(10, 0),
				Status: model.BookingStatusConfirmed,
			})

			assert.ErrorIs(t, err, tc.expected)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTranslateError(t *testing.T) {
	assert.Nil(t, translateError(nil))
	assert.Equal(t, ErrNotFound, translateError(gorm.ErrRecordNotFound))
	assert.ErrorIs(t, translateError(gorm.ErrDuplicatedKey), ErrDuplicate)

	other := fmt.Errorf("connection reset")
	assert.Equal(t, other, translateError(other))
}

func TestGormStore_FindConfirmedBookings(t *testing.T) {
	db := newSQLiteDB(t)
	s := NewGormStore(db)
	ctx := context.Background()

	room := model.Room{Name: "Atlas", Capacity: 6, IsActive: true}
	other := model.Room{Name: "Borealis", Capacity: 4, IsActive: true}
	require.NoError(t, s.CreateRoom(ctx, &room))
	require.NoError(t, s.CreateRoom(ctx, &other))

	bookings := []model.Booking{
		{UserID: 1, RoomID: room.ID, StartTime: at(13, 0), EndTime: at(14, 0), Status: model.BookingStatusConfirmed},
		{UserID: 1, RoomID: room.ID, StartTime: at(9, 0), EndTime: at(10, 0), Status: model.BookingStatusConfirmed},
		{UserID: 1, RoomID: room.ID, StartTime: at(10, 0), EndTime: at(11, 0), Status: model.BookingStatusCancelled},
		{UserID: 1, RoomID: other.ID, StartTime: at(9, 0), EndTime: at(10, 0), Status: model.BookingStatusConfirmed},
	}
	for i := range bookings {
		require.NoError(t, s.InsertBooking(ctx, &bookings[i]))
	}

	got, err := s.FindConfirmedBookings(ctx, room.ID, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, bookings[1].ID, got[0].ID, "ordered by start time")
	assert.Equal(t, bookings[0].ID, got[1].ID)

	got, err = s.FindConfirmedBookings(ctx, room.ID, bookings[1].ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, bookings[0].ID, got[0].ID)
}

func TestGormStore_RoomNamesAreUniqueAndCaseSensitive(t *testing.T) {
	s := NewGormStore(newSQLiteDB(t))
	ctx := context.Background()

	require.NoError(t, s.CreateRoom(ctx, &model.Room{Name: "Atlas", Capacity: 6, IsActive: true}))
	require.NoError(t, s.CreateRoom(ctx, &model.Room{Name: "atlas", Capacity: 6, IsActive: true}))

	err := s.CreateRoom(ctx, &model.Room{Name: "Atlas", Capacity: 2, IsActive: true})
	assert.ErrorIs(t, err, ErrDuplicate)

	second := model.Room{Name: "Cosmos", Capacity: 8, IsActive: true}
	require.NoError(t, s.CreateRoom(ctx, &second))
	second.Name = "Atlas"
	assert.ErrorIs(t, s.SaveRoom(ctx, &second), ErrDuplicate)

	second.Name = "Cosmos"
	second.IsActive = false
	require.NoError(t, s.SaveRoom(ctx, &second), "saving under its own name is allowed")

	active, err := s.ListRooms(ctx, RoomFilter{})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	all, err := s.ListRooms(ctx, RoomFilter{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGormStore_ListBookingsAndStats(t *testing.T) {
	s := NewGormStore(newSQLiteDB(t))
	ctx := context.Background()

	user := model.User{Email: "ada@example.com", HashedPassword: "x", IsActive: true}
	require.NoError(t, s.CreateUser(ctx, &user))
	assert.ErrorIs(t, s.CreateUser(ctx, &model.User{Email: "ada@example.com", HashedPassword: "y"}), ErrDuplicate)

	room := model.Room{Name: "Atlas", Capacity: 6, IsActive: true}
	require.NoError(t, s.CreateRoom(ctx, &room))
	require.NoError(t, s.CreateRoom(ctx, &model.Room{Name: "Old", Capacity: 2, IsActive: false}))

	next := func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }
	for _, b := range []model.Booking{
		{UserID: user.ID, RoomID: room.ID, StartTime: at(9, 0), EndTime: at(10, 0), Status: model.BookingStatusConfirmed},
		{UserID: user.ID, RoomID: room.ID, StartTime: next(at(9, 0)), EndTime: next(at(10, 0)), Status: model.BookingStatusCancelled},
	} {
		require.NoError(t, s.InsertBooking(ctx, &b))
	}

	mine, err := s.ListUserBookings(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	require.NotNil(t, mine[0].Room)
	assert.Equal(t, "Atlas", mine[0].Room.Name)

	firstDay, err := s.ListBookings(ctx, BookingFilter{RoomID: room.ID, To: at(23, 59)})
	require.NoError(t, err)
	assert.Len(t, firstDay, 1)

	secondDay, err := s.ListBookings(ctx, BookingFilter{From: next(at(0, 0))})
	require.NoError(t, err)
	assert.Len(t, secondDay, 1)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{TotalRooms: 2, ActiveRooms: 1, TotalBookings: 2, ActiveBookings: 1, TotalUsers: 1}, st)

	found, err := s.FindUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = s.FindUser(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, s.Ping(ctx))
}
