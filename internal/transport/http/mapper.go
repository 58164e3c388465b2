package http

import (
	"fmt"

	"github.com/chatter-hq/chatter-server/internal/chat"
	"github.com/chatter-hq/chatter-server/internal/proto"
)

// commandFromWire maps an inbound frame onto a chat command. Unknown verbs
// are ignored (ok=false); a structurally invalid frame is an error and fatal
// to the connection.
func commandFromWire(in proto.Command) (chat.Command, bool, error) {
	var kind chat.CommandKind
	switch in.Command {
	case proto.CommandJoin:
		kind = chat.CommandJoin
	case proto.CommandLeave:
		kind = chat.CommandLeave
	case proto.CommandSend:
		kind = chat.CommandSend
	default:
		return chat.Command{}, false, nil
	}

	if in.Room == "" {
		return chat.Command{}, false, fmt.Errorf("command %q without room", in.Command)
	}

	return chat.Command{Kind: kind, Room: in.Room, Message: in.Message}, true, nil
}

func wireFromEvent(ev chat.Event) any {
	switch ev.Kind {
	case chat.EventJoinAck:
		return proto.JoinAck{Join: ev.Room}
	case chat.EventLeaveAck:
		return proto.LeaveAck{Leave: ev.Room}
	case chat.EventEnter:
		return proto.RoomNotice{MsgType: proto.MsgTypeEnter, Room: ev.Room, Username: ev.Username}
	case chat.EventLeave:
		return proto.RoomNotice{MsgType: proto.MsgTypeLeave, Room: ev.Room, Username: ev.Username}
	case chat.EventMessage:
		return proto.RoomMessage{MsgType: proto.MsgTypeMessage, Room: ev.Room, Username: ev.Username, Message: ev.Message}
	case chat.EventError:
		return proto.ErrorEvent{Error: ev.Code}
	default:
		return proto.ErrorEvent{Error: "UNKNOWN_EVENT"}
	}
}
