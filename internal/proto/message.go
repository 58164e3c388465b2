// Package proto defines the JSON wire schema spoken on the session socket.
package proto

// Command verbs accepted from the client.
const (
	CommandJoin  = "join"
	CommandLeave = "leave"
	CommandSend  = "send"
)

// Event tags carried in the msg_type field of broadcast notifications.
const (
	MsgTypeEnter   = "enter"
	MsgTypeLeave   = "leave"
	MsgTypeMessage = "message"
)

// Command is one inbound frame from the client.
type Command struct {
	Command string `json:"command"`
	Room    string `json:"room"`
	Message string `json:"message,omitempty"`
}

// JoinAck confirms a join to the issuing connection only.
type JoinAck struct {
	Join string `json:"join"`
}

// LeaveAck confirms a leave to the issuing connection only.
type LeaveAck struct {
	Leave string `json:"leave"`
}

// RoomNotice tells room members that a user entered or left.
type RoomNotice struct {
	MsgType  string `json:"msg_type"`
	Room     string `json:"room"`
	Username string `json:"username"`
}

// RoomMessage carries a chat message to room members.
type RoomMessage struct {
	MsgType  string `json:"msg_type"`
	Room     string `json:"room"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// ErrorEvent reports a rejected command.
type ErrorEvent struct {
	Error string `json:"error"`
}
