package chat

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoin subscribes the session to a room.
	CommandJoin CommandKind = iota
	// CommandLeave unsubscribes the session from a room.
	CommandLeave
	// CommandSend delivers a chat message to room members.
	CommandSend
)

// Command represents an action requested by a client.
type Command struct {
	Kind    CommandKind
	Room    string
	Message string
}
