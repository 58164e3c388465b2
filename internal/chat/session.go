// Package chat implements the per-connection session protocol: command
// dispatch, room membership, authorization gating, and event fan-out.
package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/chatter-hq/chatter-server/internal/archive"
	"github.com/chatter-hq/chatter-server/internal/broker"
	"github.com/chatter-hq/chatter-server/internal/directory"
)

const eventBuffer = 32

// Session is the per-connection state machine. The joined-rooms set is owned
// exclusively by the connection's goroutine: only Dispatch and Close touch
// it. Broker goroutines reach the session solely through Deliver, which
// writes to the outbound event channel.
type Session struct {
	identity Identity
	dir      directory.Directory
	broker   broker.Broker
	archiver archive.Archiver
	notify   bool
	log      zerolog.Logger

	rooms  map[string]struct{}
	events chan Event

	mu     sync.Mutex
	closed bool
}

// NewSession creates an open session for an authenticated identity. The
// transport is responsible for terminating anonymous connections before a
// session exists; authorization still re-checks defensively.
func NewSession(identity Identity, dir directory.Directory, bk broker.Broker, arc archive.Archiver, notify bool, logger *zerolog.Logger) *Session {
	return &Session{
		identity: identity,
		dir:      dir,
		broker:   bk,
		archiver: arc,
		notify:   notify,
		log:      logger.With().Str("username", identity.Username).Logger(),
		rooms:    make(map[string]struct{}),
		events:   make(chan Event, eventBuffer),
	}
}

// Events returns the outbound event stream for this session. It is closed by
// Close.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Dispatch processes one decoded command. A ClientError raised by a handler
// is converted into an error event on this session and nil is returned; any
// other error is unexpected and fatal to the connection.
func (s *Session) Dispatch(ctx context.Context, cmd Command) error {
	var err error
	switch cmd.Kind {
	case CommandJoin:
		err = s.join(ctx, cmd.Room)
	case CommandLeave:
		err = s.leave(ctx, cmd.Room)
	case CommandSend:
		err = s.send(ctx, cmd.Room, cmd.Message)
	}

	var ce *ClientError
	if errors.As(err, &ce) {
		s.emit(Event{Kind: EventError, Code: ce.Code})
		return nil
	}
	return err
}

// authorize checks authentication, room existence and the staff gate, in that
// order. Failures are ClientErrors; only lookup faults are returned as plain
// errors.
func (s *Session) authorize(ctx context.Context, roomID string) (directory.Room, error) {
	if s.identity.Anonymous {
		return directory.Room{}, clientError(CodeUserHasToLogin)
	}

	room, ok, err := s.dir.Room(ctx, roomID)
	if err != nil {
		return directory.Room{}, fmt.Errorf("resolve room %s: %w", roomID, err)
	}
	if !ok {
		return directory.Room{}, clientError(CodeRoomInvalid)
	}
	if room.StaffOnly && !s.identity.Staff {
		return directory.Room{}, clientError(CodeRoomAccessDenied)
	}
	return room, nil
}

func (s *Session) join(ctx context.Context, roomID string) error {
	room, err := s.authorize(ctx, roomID)
	if err != nil {
		return err
	}

	// Published before subscribing, so the joining session does not see its
	// own enter notice.
	if s.notify {
		if err := s.broker.Publish(ctx, room.Channel(), broker.Broadcast{
			Kind:     broker.KindEnter,
			Room:     roomID,
			Username: s.identity.Username,
		}); err != nil {
			return fmt.Errorf("publish enter: %w", err)
		}
	}

	s.rooms[roomID] = struct{}{}
	if err := s.broker.Subscribe(ctx, room.Channel(), s); err != nil {
		// Keep the joined set equal to the live subscriptions.
		delete(s.rooms, roomID)
		return fmt.Errorf("subscribe %s: %w", room.Channel(), err)
	}

	s.emit(Event{Kind: EventJoinAck, Room: roomID})
	return nil
}

func (s *Session) leave(ctx context.Context, roomID string) error {
	room, err := s.authorize(ctx, roomID)
	if err != nil {
		return err
	}

	if s.notify {
		if err := s.broker.Publish(ctx, room.Channel(), broker.Broadcast{
			Kind:     broker.KindLeave,
			Room:     roomID,
			Username: s.identity.Username,
		}); err != nil {
			return fmt.Errorf("publish leave: %w", err)
		}
	}

	// Leaving a room the session never joined is a no-op.
	delete(s.rooms, roomID)
	if err := s.broker.Unsubscribe(ctx, room.Channel(), s); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", room.Channel(), err)
	}

	s.emit(Event{Kind: EventLeaveAck, Room: roomID})
	return nil
}

func (s *Session) send(ctx context.Context, roomID, message string) error {
	// Membership check is local and authoritative.
	if _, joined := s.rooms[roomID]; !joined {
		return clientError(CodeRoomAccessDenied)
	}

	// Re-resolve: the room may have been deleted or gated since the join.
	room, err := s.authorize(ctx, roomID)
	if err != nil {
		return err
	}

	if err := s.broker.Publish(ctx, room.Channel(), broker.Broadcast{
		Kind:     broker.KindMessage,
		Room:     roomID,
		Username: s.identity.Username,
		Message:  message,
	}); err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	// Fire-and-forget durability hook; no confirmation is sent to the
	// sender, who receives the message through the broadcast itself.
	if s.archiver != nil {
		s.archiver.SaveMessage(ctx, roomID, s.identity.Username, message)
	}
	return nil
}

// Deliver implements broker.Subscriber. It never blocks: if this session's
// outbound buffer is full the broadcast is dropped rather than stalling
// delivery to other subscribers.
func (s *Session) Deliver(b broker.Broadcast) {
	var kind EventKind
	switch b.Kind {
	case broker.KindEnter:
		kind = EventEnter
	case broker.KindLeave:
		kind = EventLeave
	case broker.KindMessage:
		kind = EventMessage
	default:
		return
	}
	s.emit(Event{Kind: kind, Room: b.Room, Username: b.Username, Message: b.Message})
}

// Close leaves every joined room and closes the event stream. ClientErrors
// during cleanup are expected (a room may have been deleted mid-session) and
// are swallowed; whenever the polite leave fails for any reason the
// subscription is dropped directly, so no room can block cleanup of the rest.
func (s *Session) Close(ctx context.Context) {
	for _, roomID := range s.joinedRooms() {
		err := s.leave(ctx, roomID)
		if err == nil {
			continue
		}
		s.log.Debug().Err(err).Str("room", roomID).Msg("leave during disconnect")

		delete(s.rooms, roomID)
		if err := s.broker.Unsubscribe(ctx, directory.ChannelName(roomID), s); err != nil {
			s.log.Warn().Err(err).Str("room", roomID).Msg("drop subscription during disconnect")
		}
	}

	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	s.mu.Unlock()
}

func (s *Session) emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- ev:
	default:
		// Drop if slow consumer.
	}
}

// joinedRooms snapshots the membership set; leave mutates it while iterating.
func (s *Session) joinedRooms() []string {
	ids := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	return ids
}
