package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// User represents a user in the system.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	IsStaff      bool
	CreatedAt    time.Time
}

// Room represents a chat room. Rooms are immutable once created apart from
// the administrative staff_only toggle.
type Room struct {
	ID        string // UUID
	StaffOnly bool
	CreatedAt time.Time
}

// UserStore provides user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string, isStaff bool) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

// RoomStore provides room persistence.
type RoomStore interface {
	CreateRoom(ctx context.Context, staffOnly bool) (*Room, error)
	GetRoom(ctx context.Context, id string) (*Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	SetRoomStaffOnly(ctx context.Context, id string, staffOnly bool) error
}

// Store combines all persistence interfaces.
type Store interface {
	UserStore
	RoomStore
	Close() error
}
