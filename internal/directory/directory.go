// Package directory resolves room identifiers to their attributes and derives
// the broadcast channel name sockets subscribe to.
package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/chatter-hq/chatter-server/internal/store"
)

// Room is the directory's view of a chat room.
type Room struct {
	ID        string
	StaffOnly bool
}

// Channel returns the broadcast channel name for the room.
func (r Room) Channel() string {
	return ChannelName(r.ID)
}

// ChannelName derives the broadcast channel name for a room id.
func ChannelName(id string) string {
	return "room-" + id
}

// Directory looks up rooms by identifier. The second return value reports
// whether the room exists; errors are reserved for lookup failures.
type Directory interface {
	Room(ctx context.Context, id string) (Room, bool, error)
}

// StoreDirectory resolves rooms from a RoomStore.
type StoreDirectory struct {
	rooms store.RoomStore
}

// NewStoreDirectory creates a directory backed by the given room store.
func NewStoreDirectory(rooms store.RoomStore) *StoreDirectory {
	return &StoreDirectory{rooms: rooms}
}

// Room implements Directory.
func (d *StoreDirectory) Room(ctx context.Context, id string) (Room, bool, error) {
	r, err := d.rooms.GetRoom(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return Room{}, false, nil
	}
	if err != nil {
		return Room{}, false, fmt.Errorf("get room %s: %w", id, err)
	}
	return Room{ID: r.ID, StaffOnly: r.StaffOnly}, true, nil
}
