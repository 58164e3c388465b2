package chat

// EventKind is a notification the session emits to its connection.
type EventKind int

const (
	// EventJoinAck confirms a join to the issuing connection only.
	EventJoinAck EventKind = iota
	// EventLeaveAck confirms a leave to the issuing connection only.
	EventLeaveAck
	// EventEnter notifies room members that a user entered the room.
	EventEnter
	// EventLeave notifies room members that a user left the room.
	EventLeave
	// EventMessage notifies room members about a chat message.
	EventMessage
	// EventError reports a rejected command to the issuing connection only.
	EventError
)

// Event is sent to a single connection to describe what happened.
type Event struct {
	Kind     EventKind
	Room     string
	Username string
	Message  string
	Code     string // reason code, set for EventError
}
